package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Chunk is a contiguous, heading-aligned slice of a document body.
// Concatenating all chunks in index order reconstructs the body exactly.
type Chunk struct {
	Index        int
	Start        int // byte offset into the body
	End          int // exclusive byte offset
	Content      string
	HeadingLevel int // 0 = intro / no heading
	HeadingText  string
}

// Chunking defaults. Sizes are bytes under UTF-8 encoding.
const (
	DefaultChunkSize = 32 * 1024
	DefaultTolerance = 0.2
)

// headingRegex matches an ATX heading at line start.
var headingRegex = regexp.MustCompile(`^(#{1,6})[ \t]+(.*)$`)

// heading is an ATX heading located during the scan.
type heading struct {
	offset int // byte offset of the line start
	level  int
	text   string
}

// Split cuts body into ordered heading-aligned chunks near targetSize bytes,
// within the given tolerance band. Bodies at or under targetSize, and bodies
// without any headings, come back as a single chunk; the caller decides
// whether an oversized single chunk deserves a warning.
func Split(body string, targetSize int, tolerance float64) ([]Chunk, error) {
	if targetSize <= 0 {
		return nil, fmt.Errorf("chunk target size must be positive, got %d", targetSize)
	}
	if tolerance <= 0 {
		return nil, fmt.Errorf("chunk tolerance must be positive, got %g", tolerance)
	}

	if len(body) <= targetSize {
		return []Chunk{wholeChunk(body)}, nil
	}

	headings := scanHeadings(body)
	if len(headings) == 0 {
		return []Chunk{wholeChunk(body)}, nil
	}

	low := int(float64(targetSize) * (1 - tolerance))
	high := int(float64(targetSize) * (1 + tolerance))

	var chunks []Chunk
	cut := 0

	// A long intro before the first heading becomes its own chunk.
	if first := headings[0]; first.offset > 0 && first.offset > low {
		chunks = append(chunks, Chunk{
			Start:   0,
			End:     first.offset,
			Content: body[:first.offset],
		})
		cut = first.offset
	}

	for {
		if len(body)-cut <= high {
			chunks = append(chunks, chunkAt(body, cut, len(body), headings))
			break
		}

		next := pickCutPoint(headings, cut, low, high)
		if next == nil {
			// No heading far enough out to split on; send the rest whole.
			chunks = append(chunks, chunkAt(body, cut, len(body), headings))
			break
		}

		chunks = append(chunks, chunkAt(body, cut, next.offset, headings))
		cut = next.offset
	}

	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks, nil
}

// pickCutPoint chooses the heading to cut at, preferring the lowest heading
// level (major structure) among candidates inside the size band. When the
// band is empty it falls back to the first heading past the upper bound.
func pickCutPoint(headings []heading, cut, low, high int) *heading {
	var best *heading
	for i := range headings {
		h := &headings[i]
		if h.offset <= cut {
			continue
		}
		size := h.offset - cut
		if size < low {
			continue
		}
		if size > high {
			if best == nil {
				return h
			}
			break
		}
		if best == nil || h.level < best.level {
			best = h
		}
	}
	return best
}

// chunkAt builds the chunk covering [start, end), attaching the heading that
// sits exactly at the start offset, if any.
func chunkAt(body string, start, end int, headings []heading) Chunk {
	c := Chunk{Start: start, End: end, Content: body[start:end]}
	for _, h := range headings {
		if h.offset == start {
			c.HeadingLevel = h.level
			c.HeadingText = h.text
			break
		}
		if h.offset > start {
			break
		}
	}
	return c
}

func wholeChunk(body string) Chunk {
	return Chunk{Start: 0, End: len(body), Content: body}
}

// scanHeadings locates every ATX heading with its byte offset.
func scanHeadings(body string) []heading {
	var headings []heading
	offset := 0
	for _, line := range strings.SplitAfter(body, "\n") {
		trimmed := strings.TrimSuffix(line, "\n")
		if m := headingRegex.FindStringSubmatch(trimmed); m != nil {
			headings = append(headings, heading{
				offset: offset,
				level:  len(m[1]),
				text:   strings.TrimSpace(m[2]),
			})
		}
		offset += len(line)
	}
	return headings
}
