// Package output provides styled terminal output helpers (success, error,
// warning, widget area formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/widgetareas/internal/models"
)

var (
	// Styles
	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	documentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	widgetsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
)

// Success prints a success message
func Success(format string, args ...any) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...any) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...any) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// JSON outputs data as JSON
func JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// FormatMode describes an assignment: "[document #12]" or "[3 widgets]".
func FormatMode(a models.Assignment) string {
	if a.IsDocument() {
		return documentStyle.Render(fmt.Sprintf("[document #%d]", a.DocumentID))
	}
	n := len(a.Widgets)
	if n == 1 {
		return widgetsStyle.Render("[1 widget]")
	}
	return widgetsStyle.Render(fmt.Sprintf("[%d widgets]", n))
}

// FormatSidebarShort formats a sidebar on one line.
func FormatSidebarShort(s models.Sidebar, a models.Assignment) string {
	parts := []string{titleStyle.Render(s.ID), s.Name, FormatMode(a)}
	if s.Description != "" {
		parts = append(parts, subtleStyle.Render(s.Description))
	}
	return strings.Join(parts, "  ")
}

// FormatSidebarLong formats a resolved sidebar with its content.
func FormatSidebarLong(data *models.SidebarData, a models.Assignment) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s", data.ID, data.Name)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Mode: %s | Block version: %d\n", FormatMode(a), data.Content.BlockVersion))
	if data.Description != "" {
		sb.WriteString(data.Description)
		sb.WriteString("\n")
	}
	if !a.IsDocument() && len(a.Widgets) > 0 {
		sb.WriteString(SectionHeader("widgets"))
		sb.WriteString(strings.Join(BulletList(a.Widgets, 2), "\n"))
		sb.WriteString("\n")
	}

	sb.WriteString(SectionHeader("raw"))
	if data.Content.Raw == "" {
		sb.WriteString(subtleStyle.Render("  (empty)"))
	} else {
		sb.WriteString(IndentString(data.Content.Raw, 2))
	}
	sb.WriteString("\n")

	return sb.String()
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nWIDGETS:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// IndentString indents each line in a string by the specified number of spaces
func IndentString(s string, spaces int) string {
	if s == "" {
		return ""
	}
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

// BulletList formats items as a bulleted list with optional indentation
func BulletList(items []string, indent int) []string {
	prefix := strings.Repeat(" ", indent)
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = prefix + "- " + item
	}
	return result
}
