package style

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

var (
	// Color palette
	ErrorColor       = lipgloss.Color("#FF6B6B")
	ErrorBgColor     = lipgloss.Color("#3D2020")
	WarningColor     = lipgloss.Color("#FFA726")
	SuccessColor     = lipgloss.Color("#66BB6A")
	InfoColor        = lipgloss.Color("#42A5F5")
	MutedColor       = lipgloss.Color("#6C757D")
	AccentColor      = lipgloss.Color("#7C3AED")
	CodeColor        = lipgloss.Color("#D4D4D4")
	PrimaryTextColor = lipgloss.Color("#E4E4E7")

	// Base styles
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)
	AccentStyle  = lipgloss.NewStyle().Foreground(AccentColor)

	// Component styles
	FileStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true).
			Underline(true)

	PathStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	MessageStyle = lipgloss.NewStyle().
			Foreground(PrimaryTextColor)

	// Diff styles
	InsertLineStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	DeleteLineStyle = lipgloss.NewStyle().Foreground(ErrorColor)
	FoldStyle       = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
)

// FormatFilePath formats a file path with proper styling
func FormatFilePath(path string) string {
	return FileStyle.Render(path)
}

// FormatViolation renders one validation error as an indented
// "path: message" line.
func FormatViolation(path, message string) string {
	return fmt.Sprintf("  %s %s %s", ErrorStyle.Render("✗"), PathStyle.Render(path+":"), MessageStyle.Render(message))
}

// RenderDiff colors a unified diff produced by textdiff.
func RenderDiff(unified string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(unified, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(body, "+ "):
			b.WriteString(InsertLineStyle.Render(body))
		case strings.HasPrefix(body, "- "):
			b.WriteString(DeleteLineStyle.Render(body))
		case body == "...":
			b.WriteString(FoldStyle.Render(body))
		default:
			b.WriteString(body)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// PrintJSON outputs data as formatted JSON
func PrintJSON(w io.Writer, data any) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "Error encoding JSON: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(out))
}

// PrintYAML outputs data as YAML
func PrintYAML(w io.Writer, data any) {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(w, "Error encoding YAML: %v\n", err)
	}
	encoder.Close()
}

func SuccessIcon() string {
	return lipgloss.NewStyle().Foreground(SuccessColor).Bold(true).Render("✓")
}

// Success prints a success message with styling
func Success(w io.Writer, message string) {
	msg := lipgloss.NewStyle().Foreground(SuccessColor).Render(message)
	fmt.Fprintf(w, "%s %s\n", SuccessIcon(), msg)
}

func ErrorIcon() string {
	return lipgloss.NewStyle().Foreground(ErrorColor).Bold(true).Render("✗")
}

// Error prints an error message with styling
func Error(w io.Writer, message string) {
	msg := lipgloss.NewStyle().Foreground(ErrorColor).Render(message)
	fmt.Fprintf(w, "%s %s\n", ErrorIcon(), msg)
}

func WarningIcon() string {
	return lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("⚠")
}

// Warning prints a warning message with styling
func Warning(w io.Writer, message string) {
	msg := lipgloss.NewStyle().Foreground(WarningColor).Render(message)
	fmt.Fprintf(w, "%s %s\n", WarningIcon(), msg)
}

func InfoIcon() string {
	return lipgloss.NewStyle().Foreground(InfoColor).Bold(true).Render("ℹ")
}

// Info prints an info message with styling
func Info(w io.Writer, message string) {
	msg := lipgloss.NewStyle().Foreground(InfoColor).Render(message)
	fmt.Fprintf(w, "%s %s\n", InfoIcon(), msg)
}
