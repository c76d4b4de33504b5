package output

import (
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// TerminalSize is the terminal's width and height in columns/rows.
type TerminalSize struct {
	Width  int
	Height int
}

// GetTerminalSize reports the current terminal size, falling back to tput
// and then to a fixed default if stdout isn't a terminal.
func GetTerminalSize() TerminalSize {
	if width, height, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return TerminalSize{Width: width, Height: height}
	}

	if size := getTputSize(); size.Width > 0 {
		return size
	}

	return TerminalSize{Width: 120, Height: 30}
}

func getTputSize() TerminalSize {
	var size TerminalSize

	if cmd := exec.Command("tput", "cols"); cmd.Err == nil {
		if output, err := cmd.Output(); err == nil {
			if width, err := strconv.Atoi(strings.TrimSpace(string(output))); err == nil {
				size.Width = width
			}
		}
	}

	if cmd := exec.Command("tput", "lines"); cmd.Err == nil {
		if output, err := cmd.Output(); err == nil {
			if height, err := strconv.Atoi(strings.TrimSpace(string(output))); err == nil {
				size.Height = height
			}
		}
	}

	return size
}

// GetDisplayWidth returns the usable table width after margin padding.
func (ts TerminalSize) GetDisplayWidth() int {
	return ts.Width - 2
}

// IsNarrow reports whether the terminal is under 100 columns.
func (ts TerminalSize) IsNarrow() bool {
	return ts.Width < 100
}

// IsWide reports whether the terminal is 140 columns or more.
func (ts TerminalSize) IsWide() bool {
	return ts.Width >= 140
}

// IsMedium reports whether the terminal is between narrow and wide.
func (ts TerminalSize) IsMedium() bool {
	return !ts.IsNarrow() && !ts.IsWide()
}
