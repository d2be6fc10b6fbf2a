package blocks

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenOpener tokenKind = iota
	tokenCloser
	tokenVoid
)

type token struct {
	kind  tokenKind
	name  string
	attrs map[string]any
	start int
	end   int
}

var delimiterRE = regexp.MustCompile(`^<!--\s+(/)?wp:([a-z][a-z0-9_-]*/)?([a-z][a-z0-9_-]*)\s+`)

// Parse splits markup into blocks. Text outside any block becomes freeform
// blocks; names without a namespace are qualified with "core/". Malformed
// delimiters are left in place as text.
func Parse(doc string) []Block {
	var (
		out    []Block
		stack  []*Block
		offset int
	)

	for {
		tok, ok := nextToken(doc, offset)
		if !ok {
			break
		}
		leading := doc[offset:tok.start]

		switch tok.kind {
		case tokenVoid:
			b := Block{Name: tok.name, Attrs: tok.attrs}
			if len(stack) == 0 {
				out = appendFreeform(out, leading)
				out = append(out, b)
			} else {
				top := stack[len(stack)-1]
				top.appendHTML(leading)
				top.appendInner(b)
			}

		case tokenOpener:
			if len(stack) == 0 {
				out = appendFreeform(out, leading)
			} else {
				stack[len(stack)-1].appendHTML(leading)
			}
			stack = append(stack, &Block{Name: tok.name, Attrs: tok.attrs})

		case tokenCloser:
			if len(stack) == 0 {
				// A closer with nothing open: keep the rest verbatim.
				return appendFreeform(out, doc[offset:])
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			top.appendHTML(leading)
			if len(stack) == 0 {
				out = append(out, *top)
			} else {
				stack[len(stack)-1].appendInner(*top)
			}
		}
		offset = tok.end
	}

	rest := doc[offset:]
	if len(stack) == 0 {
		return appendFreeform(out, rest)
	}

	// Unclosed blocks run to the end of the document.
	stack[len(stack)-1].appendHTML(rest)
	for len(stack) > 1 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack[len(stack)-1].appendInner(*top)
	}
	return append(out, *stack[0])
}

func appendFreeform(out []Block, html string) []Block {
	if html == "" {
		return out
	}
	return append(out, Freeform(html))
}

// nextToken finds the next well-formed block delimiter at or after offset.
func nextToken(doc string, offset int) (token, bool) {
	for {
		i := strings.Index(doc[offset:], "<!--")
		if i < 0 {
			return token{}, false
		}
		start := offset + i
		if tok, ok := matchDelimiter(doc, start); ok {
			return tok, true
		}
		offset = start + len("<!--")
	}
}

func matchDelimiter(doc string, start int) (token, bool) {
	m := delimiterRE.FindStringSubmatchIndex(doc[start:])
	if m == nil {
		return token{}, false
	}

	closer := m[2] >= 0
	namespace := "core/"
	if m[4] >= 0 {
		namespace = doc[start+m[4] : start+m[5]]
	}
	tok := token{
		name:  namespace + doc[start+m[6]:start+m[7]],
		start: start,
	}

	pos := start + m[1]
	if !closer && pos < len(doc) && doc[pos] == '{' {
		dec := json.NewDecoder(strings.NewReader(doc[pos:]))
		dec.UseNumber()
		var attrs map[string]any
		if err := dec.Decode(&attrs); err != nil {
			return token{}, false
		}
		tok.attrs = attrs
		pos += int(dec.InputOffset())
		pos = skipSpace(doc, pos)
	}

	void := false
	if !closer && strings.HasPrefix(doc[pos:], "/") {
		void = true
		pos++
	}
	if !strings.HasPrefix(doc[pos:], "-->") {
		return token{}, false
	}
	tok.end = pos + len("-->")

	switch {
	case closer:
		tok.kind = tokenCloser
	case void:
		tok.kind = tokenVoid
	default:
		tok.kind = tokenOpener
	}
	return tok, true
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && unicode.IsSpace(rune(s[pos])) {
		pos++
	}
	return pos
}
