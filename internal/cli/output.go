package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"

	"github.com/lacquerai/jsonedit/internal/style"
)

// printOutput writes data in the configured output format. The text format
// is left to the caller.
func printOutput(w io.Writer, data any, text func(io.Writer)) {
	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(w, data)
	case "yaml":
		style.PrintYAML(w, data)
	default:
		text(w)
	}
}

// printTable outputs data in a human-readable table format
func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, header := range headers {
		fmt.Fprintf(w, "%-*s  ", widths[i], header)
	}
	fmt.Fprintln(w)

	for i := range headers {
		fmt.Fprint(w, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(w, "%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(w)
	}
}
