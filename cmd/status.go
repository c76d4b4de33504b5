package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a live view of the running controller's state",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tea.NewProgram(newStatusModel(cfg.RouterPort))
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type stateMsg struct {
	Mode     string    `json:"mode"`
	TargetIP string    `json:"target_ip"`
	URL      string    `json:"url"`
	Ts       time.Time `json:"ts"`
	err      error
}

type tickMsg time.Time

type statusModel struct {
	port    int
	state   stateMsg
	width   int
	height  int
	started time.Time
}

func newStatusModel(port int) statusModel {
	return statusModel{port: port, started: time.Now()}
}

func (m statusModel) Init() tea.Cmd {
	return tea.Batch(pollState(m.port), tickEvery())
}

func pollState(port int) tea.Cmd {
	return func() tea.Msg {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/state.json", port))
		if err != nil {
			return stateMsg{err: err}
		}
		defer resp.Body.Close()
		var s stateMsg
		if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
			return stateMsg{err: err}
		}
		return s
	}
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case stateMsg:
		m.state = msg
		return m, nil
	case tickMsg:
		return m, tea.Batch(pollState(m.port), tickEvery())
	}
	return m, nil
}

var (
	upStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	downStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func (m statusModel) View() string {
	if m.state.err != nil {
		return fmt.Sprintf("kiosk-controller status\n\ncould not reach router on port %d: %v\n\n(q to quit)\n", m.port, m.state.err)
	}

	mode := m.state.Mode
	if mode == "" {
		mode = "connecting"
	}
	styled := dimStyle.Render(mode)
	if mode == "UP" {
		styled = upStyle.Render(mode)
	} else if mode == "DOWN" {
		styled = downStyle.Render(mode)
	}

	targetIP := m.state.TargetIP
	if targetIP == "" {
		targetIP = "-"
	}

	sinceUpdate := "-"
	if !m.state.Ts.IsZero() {
		sinceUpdate = time.Since(m.state.Ts).Round(time.Second).String() + " ago"
	}

	return fmt.Sprintf(
		"kiosk-controller status\n\nmode:        %s\ntarget IP:   %s\nupdated:     %s\n\n(q to quit)\n",
		styled, targetIP, sinceUpdate,
	)
}
