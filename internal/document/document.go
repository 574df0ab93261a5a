// Package document replaces the marker-delimited tree region of a text
// document.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	// StartMarker opens the generated region.
	StartMarker = "<!-- TREE_START -->"
	// EndMarker closes the generated region.
	EndMarker = "<!-- TREE_END -->"
	// Preamble is written at the top of every generated region.
	Preamble = "<!-- This tree is automatically generated. Do not edit manually. -->"
	// Placeholder fills the region of a freshly appended marker block.
	Placeholder = "<!-- Your directory tree will appear here -->"
)

// ErrMissingMarkers is returned when the start marker is absent or no end
// marker follows it.
var ErrMissingMarkers = errors.New("tree markers not found")

// ErrUnclosedMarker is the ErrMissingMarkers case where the start marker is
// present but no end marker follows it. Appending a fresh marker block to
// such a document would pair the old start with the new end, so callers
// report it instead.
var ErrUnclosedMarker = fmt.Errorf("%w: start marker has no end marker after it", ErrMissingMarkers)

// Markers is a start/end marker pair.
type Markers struct {
	Start string
	End   string
}

// DefaultMarkers returns the standard HTML comment markers.
func DefaultMarkers() Markers {
	return Markers{Start: StartMarker, End: EndMarker}
}

// span returns the byte offsets of the region strictly between the markers:
// from the end of the first start marker to the beginning of the first end
// marker after it.
func (m Markers) span(doc string) (from, to int, err error) {
	startIdx := strings.Index(doc, m.Start)
	if startIdx == -1 {
		return 0, 0, ErrMissingMarkers
	}
	from = startIdx + len(m.Start)
	endIdx := strings.Index(doc[from:], m.End)
	if endIdx == -1 {
		return 0, 0, ErrUnclosedMarker
	}
	return from, from + endIdx, nil
}

// Check returns nil when doc has a usable marker pair. A start marker with no
// end after it yields ErrUnclosedMarker; anything else yields
// ErrMissingMarkers.
func (m Markers) Check(doc string) error {
	_, _, err := m.span(doc)
	return err
}

// Has reports whether doc contains a usable marker pair.
func (m Markers) Has(doc string) bool {
	_, _, err := m.span(doc)
	return err == nil
}

// Region returns the current content between the markers.
func (m Markers) Region(doc string) (string, error) {
	from, to, err := m.span(doc)
	if err != nil {
		return "", err
	}
	return doc[from:to], nil
}

// Content is what Patch places between the markers for body.
func Content(body string) string {
	return "\n" + Preamble + "\n" + body + "\n"
}

// Patch replaces everything between the markers with the preamble and body.
// Text outside the region, the markers included, is preserved byte for byte.
// Patching the result again with the same body returns it unchanged.
func Patch(doc string, m Markers, body string) (string, error) {
	from, to, err := m.span(doc)
	if err != nil {
		return doc, err
	}
	return doc[:from] + Content(body) + doc[to:], nil
}

// AppendMarkers returns doc with an empty marker block appended.
func AppendMarkers(doc string, m Markers) string {
	return doc + DefaultBlock(m)
}

// DefaultBlock is the marker block appended to documents that lack one.
func DefaultBlock(m Markers) string {
	return "\n\n" + m.Start + "\n" + Placeholder + "\n" + m.End + "\n"
}

// MarkersInCode returns the markers that occur inside a markdown code block
// or code span. Such occurrences are still matched by Patch, which is rarely
// what the author intended.
func MarkersInCode(source []byte, m Markers) []string {
	root := goldmark.New().Parser().Parse(text.NewReader(source))

	found := make(map[string]bool)
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		var content []byte
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				content = append(content, seg.Value(source)...)
			}
		case ast.KindCodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					content = append(content, t.Segment.Value(source)...)
				}
			}
		default:
			return ast.WalkContinue, nil
		}

		for _, marker := range []string{m.Start, m.End} {
			if bytes.Contains(content, []byte(marker)) {
				found[marker] = true
			}
		}
		return ast.WalkSkipChildren, nil
	})

	var markers []string
	for _, marker := range []string{m.Start, m.End} {
		if found[marker] {
			markers = append(markers, marker)
		}
	}
	return markers
}
