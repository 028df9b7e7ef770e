package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeaderRegex matches "@@ -oldStart[,oldCount] +newStart[,newCount] @@".
var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Parse parses unified-diff text into a Diff. Blank or whitespace-only input
// parses to the empty diff: a model returning nothing when asked for a diff
// means "no change".
func Parse(text string) (Diff, error) {
	if strings.TrimSpace(text) == "" {
		return Diff{}, nil
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var hunks []Hunk
	i := 0
	for i < len(lines) {
		line := lines[i]

		// Between hunks: skip file headers and blank lines.
		if strings.TrimSpace(line) == "" ||
			strings.HasPrefix(line, "--- ") || line == "---" ||
			strings.HasPrefix(line, "+++ ") || line == "+++" {
			i++
			continue
		}

		if !strings.HasPrefix(line, "@@") {
			return Diff{}, &ParseError{
				Message:    "expected hunk header, got " + strconv.Quote(line),
				RawInput:   text,
				LineNumber: i + 1,
			}
		}

		m := hunkHeaderRegex.FindStringSubmatch(line)
		if m == nil {
			return Diff{}, &ParseError{
				Message:    "malformed hunk header " + strconv.Quote(line),
				RawInput:   text,
				LineNumber: i + 1,
			}
		}

		h := Hunk{
			OldStart: mustAtoi(m[1]),
			OldCount: countOrDefault(m[2]),
			NewStart: mustAtoi(m[3]),
			NewCount: countOrDefault(m[4]),
		}
		i++

		oldLeft := h.OldCount
		newLeft := h.NewCount
		for i < len(lines) && (oldLeft > 0 || newLeft > 0) {
			raw := lines[i]

			// A new hunk or file header ends this hunk early.
			if strings.HasPrefix(raw, "@@") ||
				strings.HasPrefix(raw, "--- ") || strings.HasPrefix(raw, "+++ ") {
				break
			}

			switch {
			case raw == "":
				// Empty raw line counts as a context line with empty content.
				h.Lines = append(h.Lines, Line{Kind: LineContext})
				oldLeft--
				newLeft--
			case raw[0] == ' ':
				h.Lines = append(h.Lines, Line{Kind: LineContext, Content: raw[1:]})
				oldLeft--
				newLeft--
			case raw[0] == '+':
				h.Lines = append(h.Lines, Line{Kind: LineAdd, Content: raw[1:]})
				newLeft--
			case raw[0] == '-':
				h.Lines = append(h.Lines, Line{Kind: LineRemove, Content: raw[1:]})
				oldLeft--
			case raw[0] == '\\':
				// "\ No newline at end of file" markers are discarded.
			default:
				return Diff{}, &ParseError{
					Message:    "unrecognized line prefix in " + strconv.Quote(raw),
					RawInput:   text,
					LineNumber: i + 1,
				}
			}
			i++
		}

		hunks = append(hunks, h)
	}

	return Diff{Hunks: hunks}, nil
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// countOrDefault returns the parsed count, defaulting to 1 when omitted.
func countOrDefault(s string) int {
	if s == "" {
		return 1
	}
	return mustAtoi(s)
}
