package diff

import (
	"sort"
	"strings"
)

// Apply applies d to original and returns the patched text. The empty diff
// returns original unchanged. Every context and remove line must match the
// original exactly or an *ApplyError is returned and original is left as-is.
func Apply(original string, d Diff) (string, error) {
	if d.Empty() {
		return original, nil
	}

	lines, trailingNewline := splitLines(original)

	// Apply from the bottom up so earlier hunks' line numbers stay valid.
	order := make([]int, len(d.Hunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return d.Hunks[order[a]].OldStart > d.Hunks[order[b]].OldStart
	})

	for _, idx := range order {
		h := d.Hunks[idx]

		// (0,0) is a pure insertion at the start of the buffer, no context check.
		if h.OldStart == 0 && h.OldCount == 0 {
			lines = append(replacementLines(h), lines...)
			continue
		}

		// Line numbers are 1-based; a zero start that consumes old lines
		// addresses a line before the buffer.
		if h.OldStart == 0 {
			return "", &ApplyError{Hunk: h, HunkIndex: idx, Expected: firstOldLine(h), Actual: "<start of file>"}
		}

		if err := checkContext(lines, h, idx); err != nil {
			return "", err
		}

		start := h.OldStart - 1
		end := start + oldLineCount(h)
		patched := make([]string, 0, len(lines)-(end-start)+len(h.Lines))
		patched = append(patched, lines[:start]...)
		patched = append(patched, replacementLines(h)...)
		patched = append(patched, lines[end:]...)
		lines = patched
	}

	out := strings.Join(lines, "\n")
	if trailingNewline && len(lines) > 0 {
		out += "\n"
	}
	return out, nil
}

// Validate performs the context check of Apply without mutating anything,
// reporting every mismatch for pre-flight diagnostics.
func Validate(original string, d Diff) []Mismatch {
	lines, _ := splitLines(original)

	var mismatches []Mismatch
	for idx, h := range d.Hunks {
		if h.OldStart == 0 && h.OldCount == 0 {
			continue
		}
		if h.OldStart == 0 {
			mismatches = append(mismatches, Mismatch{
				HunkIndex: idx,
				Line:      0,
				Expected:  firstOldLine(h),
				Actual:    "<start of file>",
			})
			continue
		}
		pos := h.OldStart - 1
		for _, l := range h.Lines {
			if l.Kind == LineAdd {
				continue
			}
			if pos >= len(lines) {
				mismatches = append(mismatches, Mismatch{
					HunkIndex: idx,
					Line:      pos + 1,
					Expected:  l.Content,
					Actual:    "<end of file>",
				})
			} else if lines[pos] != l.Content {
				mismatches = append(mismatches, Mismatch{
					HunkIndex: idx,
					Line:      pos + 1,
					Expected:  l.Content,
					Actual:    lines[pos],
				})
			}
			pos++
		}
	}
	return mismatches
}

// checkContext verifies every context/remove line of h against the buffer.
// The caller has already rejected hunks starting before line one.
func checkContext(lines []string, h Hunk, idx int) error {
	pos := h.OldStart - 1
	for _, l := range h.Lines {
		if l.Kind == LineAdd {
			continue
		}
		if pos >= len(lines) {
			return &ApplyError{Hunk: h, HunkIndex: idx, Expected: l.Content, Actual: "<end of file>"}
		}
		if lines[pos] != l.Content {
			return &ApplyError{Hunk: h, HunkIndex: idx, Expected: l.Content, Actual: lines[pos]}
		}
		pos++
	}
	return nil
}

// replacementLines returns the new content of a hunk: context and add lines
// in order, remove lines contribute nothing.
func replacementLines(h Hunk) []string {
	out := make([]string, 0, len(h.Lines))
	for _, l := range h.Lines {
		if l.Kind == LineRemove {
			continue
		}
		out = append(out, l.Content)
	}
	return out
}

// firstOldLine returns the first context or remove line of a hunk, for
// diagnostics on hunks that address lines outside the buffer.
func firstOldLine(h Hunk) string {
	for _, l := range h.Lines {
		if l.Kind != LineAdd {
			return l.Content
		}
	}
	return ""
}

// oldLineCount counts the lines a hunk consumes from the original.
func oldLineCount(h Hunk) int {
	n := 0
	for _, l := range h.Lines {
		if l.Kind != LineAdd {
			n++
		}
	}
	return n
}

// splitLines splits text into lines without terminators, remembering whether
// the text ended in a newline so Apply can reproduce it exactly.
func splitLines(text string) ([]string, bool) {
	if text == "" {
		return nil, false
	}
	trailing := strings.HasSuffix(text, "\n")
	if trailing {
		text = text[:len(text)-1]
	}
	return strings.Split(text, "\n"), trailing
}
