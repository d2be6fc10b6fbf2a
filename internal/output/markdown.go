package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/marcus/widgetareas/internal/blocks"
)

const (
	defaultMarkdownWidth = 80
	minMarkdownWidth     = 20
)

// TerminalWidth returns the current terminal width or a fallback when unavailable.
func TerminalWidth(fallback int) int {
	if fallback <= 0 {
		fallback = defaultMarkdownWidth
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if parsed, err := strconv.Atoi(cols); err == nil && parsed > 0 {
			return parsed
		}
	}

	return fallback
}

// IsTerminal reports whether stdin and stdout are both attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// RenderMarkdown renders markdown using Glamour with terminal-aware wrapping.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, TerminalWidth(defaultMarkdownWidth))
}

// RenderMarkdownWithWidth renders markdown using Glamour with explicit wrapping.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minMarkdownWidth {
		width = minMarkdownWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(rendered, "\n"), nil
}

// BlockOutline describes block markup as a markdown outline: one list item
// per block with its attributes, nested blocks indented and freeform HTML
// shown as code.
func BlockOutline(markup string) string {
	var sb strings.Builder
	writeOutline(&sb, blocks.Parse(markup), 0)
	return sb.String()
}

func writeOutline(sb *strings.Builder, list []blocks.Block, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, b := range list {
		if b.IsFreeform() {
			html := strings.TrimSpace(b.InnerHTML())
			if html != "" {
				fmt.Fprintf(sb, "%s- freeform `%s`\n", indent, oneLine(html))
			}
			continue
		}
		fmt.Fprintf(sb, "%s- **%s**", indent, b.Name)
		if len(b.Attrs) > 0 {
			if attrs, err := json.Marshal(b.Attrs); err == nil {
				fmt.Fprintf(sb, " `%s`", attrs)
			}
		}
		if html := strings.TrimSpace(b.InnerHTML()); html != "" && len(b.InnerBlocks) == 0 {
			fmt.Fprintf(sb, " `%s`", oneLine(html))
		}
		sb.WriteString("\n")
		writeOutline(sb, b.InnerBlocks, depth+1)
	}
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "`", "'")
}

// RenderBlocks renders an outline of block markup for the terminal.
func RenderBlocks(markup string) (string, error) {
	outline := BlockOutline(markup)
	if outline == "" {
		return "", nil
	}
	return RenderMarkdown(outline)
}
