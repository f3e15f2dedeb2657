// Package ui provides shared terminal styling for gateagent commands.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette (256-color).
var (
	ClrBrand  = lipgloss.Color("75")  // blue
	ClrMuted  = lipgloss.Color("245") // gray
	ClrSubtle = lipgloss.Color("242") // darker gray
	ClrGreen  = lipgloss.Color("114") // green
	ClrRed    = lipgloss.Color("203") // red/error
	ClrCyan   = lipgloss.Color("81")  // cyan for tool names
	ClrYellow = lipgloss.Color("220") // yellow for scores
)

// Reusable styles.
var (
	Bold   = lipgloss.NewStyle().Bold(true)
	Brand  = lipgloss.NewStyle().Foreground(ClrBrand).Bold(true)
	Muted  = lipgloss.NewStyle().Foreground(ClrMuted)
	Subtle = lipgloss.NewStyle().Foreground(ClrSubtle)
	Green  = lipgloss.NewStyle().Foreground(ClrGreen)
	Red    = lipgloss.NewStyle().Foreground(ClrRed)
	Cyan   = lipgloss.NewStyle().Foreground(ClrCyan)
	Yellow = lipgloss.NewStyle().Foreground(ClrYellow)
)

// Prompt renders the chat prompt like "you> " with color.
func Prompt(name string) string {
	return Brand.Render(name+">") + " "
}

// Error formats an error message.
func Error(msg string) string {
	return Red.Render("error: " + msg)
}

// Errorf formats an error with printf-style formatting.
func Errorf(format string, a ...any) string {
	return Error(fmt.Sprintf(format, a...))
}

// Info formats an informational label with details.
func Info(label, detail string) string {
	return Brand.Render(label) + " " + Muted.Render(detail)
}

// ToolName formats a tool identifier.
func ToolName(name string) string {
	return Cyan.Render(name)
}

// Score formats a search relevance score.
func Score(v any) string {
	return Yellow.Render(fmt.Sprintf("%v", v))
}

// Dim renders dimmed/muted text.
func Dim(text string) string {
	return Subtle.Render(text)
}

// Enabled reports whether color output is enabled.
func Enabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return strings.ToLower(strings.TrimSpace(os.Getenv("TERM"))) != "dumb"
}
