package parser

import (
	"strings"
	"testing"
)

// section builds a heading followed by filler content of roughly n bytes.
func section(level int, title string, n int) string {
	return strings.Repeat("#", level) + " " + title + "\n\n" +
		strings.Repeat("lorem ipsum dolor sit amet. ", n/28+1)[:n] + "\n\n"
}

func reconstruct(t *testing.T, body string, chunks []Chunk) {
	t.Helper()
	var b strings.Builder
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk[%d].Index = %d", i, c.Index)
		}
		if c.Content != body[c.Start:c.End] {
			t.Errorf("chunk[%d] content does not match its offsets", i)
		}
		b.WriteString(c.Content)
	}
	if b.String() != body {
		t.Error("concatenated chunks do not reconstruct the body")
	}
}

func TestSplit_SmallBodySingleChunk(t *testing.T) {
	body := "# Title\n\nshort content\n"
	chunks, err := Split(body, 1024, DefaultTolerance)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != body {
		t.Error("single chunk should cover the whole body")
	}
	reconstruct(t, body, chunks)
}

func TestSplit_NoHeadingsSingleChunk(t *testing.T) {
	body := strings.Repeat("plain text without any headings whatsoever. ", 200)
	chunks, err := Split(body, 1024, DefaultTolerance)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Errorf("heading-free body got %d chunks, want 1", len(chunks))
	}
	reconstruct(t, body, chunks)
}

func TestSplit_InvalidParameters(t *testing.T) {
	if _, err := Split("body", 0, 0.2); err == nil {
		t.Error("zero target size should error")
	}
	if _, err := Split("body", -1, 0.2); err == nil {
		t.Error("negative target size should error")
	}
	if _, err := Split("body", 1024, 0); err == nil {
		t.Error("zero tolerance should error")
	}
}

func TestSplit_Reconstruction(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "heading-aligned sections",
			body: section(1, "One", 900) + section(2, "Two", 900) +
				section(1, "Three", 900) + section(3, "Four", 900),
		},
		{
			name: "long intro",
			body: strings.Repeat("intro text before any heading. ", 50) +
				"\n" + section(1, "After", 900) + section(2, "More", 900),
		},
		{
			name: "unicode content",
			body: section(1, "Überschrift", 800) + section(2, "Ändern", 800) +
				section(1, "日本語", 800),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split(tt.body, 1000, 0.5)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(chunks) < 2 {
				t.Fatalf("expected multiple chunks, got %d", len(chunks))
			}
			reconstruct(t, tt.body, chunks)
		})
	}
}

func TestSplit_PrefersLowerHeadingLevel(t *testing.T) {
	// Both the H3 and the H1 fall inside the size band; the cut should land
	// on the H1.
	body := section(2, "Start", 400) +
		section(3, "Minor", 80) +
		section(1, "Major", 400) +
		section(2, "Tail", 600)

	chunks, err := Split(body, 550, 0.5)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected a split, got %d chunks", len(chunks))
	}
	if chunks[1].HeadingLevel != 1 || chunks[1].HeadingText != "Major" {
		t.Errorf("second chunk starts at %q (h%d), want Major (h1)",
			chunks[1].HeadingText, chunks[1].HeadingLevel)
	}
	reconstruct(t, body, chunks)
}

func TestSplit_LongIntroBecomesOwnChunk(t *testing.T) {
	intro := strings.Repeat("preamble before the first heading. ", 40)
	body := intro + section(1, "First", 900) + section(1, "Second", 900)

	chunks, err := Split(body, 1000, 0.2)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if chunks[0].HeadingLevel != 0 {
		t.Errorf("intro chunk heading level = %d, want 0", chunks[0].HeadingLevel)
	}
	if chunks[0].End != len(intro) {
		t.Errorf("intro chunk ends at %d, want %d", chunks[0].End, len(intro))
	}
	reconstruct(t, body, chunks)
}

func TestSplit_FallbackPastUpperBound(t *testing.T) {
	// One small section then a huge gap to the next heading: no heading falls
	// in the band, so the cut lands on the first heading past the upper bound.
	body := section(1, "Tiny", 100) +
		strings.Repeat("wall of text with no headings at all. ", 100) +
		section(1, "Far", 600)

	chunks, err := Split(body, 1000, 0.2)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	reconstruct(t, body, chunks)
	last := chunks[len(chunks)-1]
	if last.HeadingText != "Far" {
		t.Errorf("final chunk heading = %q, want Far", last.HeadingText)
	}
}
