package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"kiosk-controller/pkg/cache"
)

// padRight pads s with spaces to width display columns, using rune display
// width rather than byte length so wide-glyph hostnames would still align.
func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// PrintCacheEntries renders the remembered candidate IPs in the requested
// format: table (default), json or csv.
func PrintCacheEntries(entries []cache.Entry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return printCacheJSON(entries)
	case "csv":
		return printCacheCSV(entries)
	default:
		return printCacheTable(entries)
	}
}

func printCacheTable(entries []cache.Entry) error {
	if len(entries) == 0 {
		color.Yellow("no cached candidates\n")
		return nil
	}

	narrow := GetTerminalSize().IsNarrow()

	now := time.Now()
	if narrow {
		color.Cyan("%-4s %s %s\n", "Rank", padRight("IP Address", 18), "Age")
		color.White("%s\n", strings.Repeat("-", 40))
		for i, e := range entries {
			fmt.Printf("%-4d %s %s\n", i+1, padRight(e.IP, 18), now.Sub(e.LastOK).Round(time.Second))
		}
		fmt.Println()
		return nil
	}

	color.Cyan("%-4s %s %s %s\n", "Rank", padRight("IP Address", 18), padRight("Last OK", 22), "Age")
	color.White("%s\n", strings.Repeat("-", 60))
	for i, e := range entries {
		age := now.Sub(e.LastOK).Round(time.Second)
		fmt.Printf("%-4d %s %s %s\n",
			i+1,
			padRight(e.IP, 18),
			padRight(e.LastOK.Format("2006-01-02 15:04:05"), 22),
			age,
		)
	}
	fmt.Println()
	return nil
}

func printCacheJSON(entries []cache.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printCacheCSV(entries []cache.Entry) error {
	fmt.Println("ip,last_ok")
	for _, e := range entries {
		fmt.Printf("%s,%s\n", e.IP, e.LastOK.Format(time.RFC3339))
	}
	return nil
}
