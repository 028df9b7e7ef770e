// Package diff implements a unified-diff parser and applicator tolerant of
// the malformed output LLMs tend to produce.
package diff

import (
	"fmt"
	"strings"
)

// LineKind classifies a single diff line.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdd
	LineRemove
)

// String returns the unified-diff prefix for the line kind.
func (k LineKind) String() string {
	switch k {
	case LineAdd:
		return "+"
	case LineRemove:
		return "-"
	default:
		return " "
	}
}

// Line is one line inside a hunk. Content carries no trailing newline.
type Line struct {
	Kind    LineKind
	Content string
}

// Hunk is one contiguous change region.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// Unified renders the hunk back into unified-diff text.
func (h Hunk) Unified() string {
	var b strings.Builder
	fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	for _, l := range h.Lines {
		b.WriteString(l.Kind.String())
		b.WriteString(l.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// Diff is an ordered list of hunks. The zero value means "no change".
type Diff struct {
	Hunks []Hunk
}

// Empty reports whether the diff changes nothing.
func (d Diff) Empty() bool {
	return len(d.Hunks) == 0
}

// Unified renders the whole diff as unified-diff text.
func (d Diff) Unified() string {
	var b strings.Builder
	for _, h := range d.Hunks {
		b.WriteString(h.Unified())
	}
	return b.String()
}

// ParseError describes malformed diff input.
type ParseError struct {
	Message    string
	RawInput   string
	LineNumber int // 1-based line of the offending input, 0 if unknown
}

func (e *ParseError) Error() string {
	if e.LineNumber > 0 {
		return fmt.Sprintf("diff parse error at line %d: %s", e.LineNumber, e.Message)
	}
	return fmt.Sprintf("diff parse error: %s", e.Message)
}

// ApplyError describes a context mismatch while applying a hunk.
type ApplyError struct {
	Hunk      Hunk
	HunkIndex int
	Expected  string
	Actual    string
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("diff apply error in hunk %d: expected %q, found %q",
		e.HunkIndex+1, e.Expected, e.Actual)
}

// Mismatch is one context discrepancy reported by Validate.
type Mismatch struct {
	HunkIndex int
	Line      int // 1-based line number in the original text
	Expected  string
	Actual    string
}
