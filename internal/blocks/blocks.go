// Package blocks implements the comment-delimited block grammar used for
// sidebar content: serialization, parsing and structure detection.
package blocks

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LegacyWidget is the block that wraps a single classic widget instance.
const LegacyWidget = "core/legacy-widget"

const coreNamespace = "core/"

// Chunk is one piece of a block's inner content: either literal HTML or the
// position of the next inner block.
type Chunk struct {
	HTML    string
	IsBlock bool
}

// Block is a single parsed or synthesized block. A block with an empty Name
// is freeform content.
type Block struct {
	Name         string
	Attrs        map[string]any
	InnerBlocks  []Block
	InnerContent []Chunk
}

// New returns a block with the given name and attributes and no content.
func New(name string, attrs map[string]any) Block {
	return Block{Name: name, Attrs: attrs}
}

// Freeform returns a nameless block holding raw HTML.
func Freeform(html string) Block {
	return Block{InnerContent: []Chunk{{HTML: html}}}
}

// IsFreeform reports whether the block carries no block name.
func (b Block) IsFreeform() bool {
	return b.Name == ""
}

// InnerHTML returns the block's own HTML with inner blocks left out.
func (b Block) InnerHTML() string {
	var sb strings.Builder
	for _, c := range b.InnerContent {
		if !c.IsBlock {
			sb.WriteString(c.HTML)
		}
	}
	return sb.String()
}

func (b *Block) appendHTML(s string) {
	if s == "" {
		return
	}
	b.InnerContent = append(b.InnerContent, Chunk{HTML: s})
}

func (b *Block) appendInner(inner Block) {
	b.InnerBlocks = append(b.InnerBlocks, inner)
	b.InnerContent = append(b.InnerContent, Chunk{IsBlock: true})
}

// HasBlocks reports whether the markup contains at least one block delimiter.
func HasBlocks(markup string) bool {
	return strings.Contains(markup, "<!-- wp:")
}

// Version returns the block format version of the markup: 1 when it is
// block-structured, 0 when it must be treated as freeform content.
func Version(markup string) int {
	if HasBlocks(markup) {
		return 1
	}
	return 0
}

// Serialize renders blocks to canonical markup.
func Serialize(blocks []Block) (string, error) {
	var sb strings.Builder
	for _, b := range blocks {
		if err := writeBlock(&sb, b); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// SerializeBlock renders a single block to canonical markup.
func SerializeBlock(b Block) (string, error) {
	var sb strings.Builder
	if err := writeBlock(&sb, b); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeBlock(sb *strings.Builder, b Block) error {
	var content strings.Builder
	next := 0
	for _, c := range b.InnerContent {
		if !c.IsBlock {
			content.WriteString(c.HTML)
			continue
		}
		if next >= len(b.InnerBlocks) {
			return fmt.Errorf("serialize %s: inner content references missing block %d", b.Name, next)
		}
		if err := writeBlock(&content, b.InnerBlocks[next]); err != nil {
			return err
		}
		next++
	}

	if b.IsFreeform() {
		sb.WriteString(content.String())
		return nil
	}

	name := strings.TrimPrefix(b.Name, coreNamespace)
	attrs := ""
	if len(b.Attrs) > 0 {
		encoded, err := encodeAttrs(b.Attrs)
		if err != nil {
			return fmt.Errorf("serialize %s attrs: %w", b.Name, err)
		}
		attrs = encoded + " "
	}

	if content.Len() == 0 {
		fmt.Fprintf(sb, "<!-- wp:%s %s/-->", name, attrs)
		return nil
	}
	fmt.Fprintf(sb, "<!-- wp:%s %s-->%s<!-- /wp:%s -->", name, attrs, content.String(), name)
	return nil
}

// encodeAttrs JSON-encodes attributes so they cannot terminate the
// surrounding HTML comment: "--" and escaped quotes inside strings are
// written as unicode escapes. encoding/json already escapes <, > and &.
func encodeAttrs(attrs map[string]any) (string, error) {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(raw))
	inString := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case !inString:
			if c == '"' {
				inString = true
			}
			sb.WriteByte(c)
		case c == '\\':
			if raw[i+1] == '"' {
				sb.WriteString(`\u0022`)
			} else {
				sb.WriteByte(c)
				sb.WriteByte(raw[i+1])
			}
			i++
		case c == '"':
			inString = false
			sb.WriteByte(c)
		case c == '-' && i+1 < len(raw) && raw[i+1] == '-':
			sb.WriteString(`\u002d\u002d`)
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}
