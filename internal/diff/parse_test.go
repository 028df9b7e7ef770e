package diff

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_EmptyInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"whitespace only", "   \n\t\n  "},
		{"single newline", "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !d.Empty() {
				t.Errorf("Parse(%q) got %d hunks, want empty diff", tt.input, len(d.Hunks))
			}
		})
	}
}

func TestParse_SingleHunk(t *testing.T) {
	input := "--- a/doc.md\n" +
		"+++ b/doc.md\n" +
		"@@ -1,3 +1,3 @@\n" +
		" first\n" +
		"-second\n" +
		"+SECOND\n" +
		" third\n"

	d, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(d.Hunks) != 1 {
		t.Fatalf("got %d hunks, want 1", len(d.Hunks))
	}

	h := d.Hunks[0]
	if h.OldStart != 1 || h.OldCount != 3 || h.NewStart != 1 || h.NewCount != 3 {
		t.Errorf("ranges = -%d,%d +%d,%d, want -1,3 +1,3", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	}
	wantKinds := []LineKind{LineContext, LineRemove, LineAdd, LineContext}
	if len(h.Lines) != len(wantKinds) {
		t.Fatalf("got %d lines, want %d", len(h.Lines), len(wantKinds))
	}
	for i, k := range wantKinds {
		if h.Lines[i].Kind != k {
			t.Errorf("line[%d].Kind = %v, want %v", i, h.Lines[i].Kind, k)
		}
	}
	if h.Lines[1].Content != "second" || h.Lines[2].Content != "SECOND" {
		t.Errorf("unexpected contents: %q / %q", h.Lines[1].Content, h.Lines[2].Content)
	}
}

func TestParse_OmittedCountsDefaultToOne(t *testing.T) {
	d, err := Parse("@@ -5 +5 @@\n-old\n+new\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	h := d.Hunks[0]
	if h.OldCount != 1 || h.NewCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", h.OldCount, h.NewCount)
	}
}

func TestParse_EmptyRawLineIsContext(t *testing.T) {
	input := "@@ -1,3 +1,3 @@\n a\n\n-b\n+B\n"
	d, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	h := d.Hunks[0]
	if h.Lines[1].Kind != LineContext || h.Lines[1].Content != "" {
		t.Errorf("empty raw line parsed as %v %q, want empty context", h.Lines[1].Kind, h.Lines[1].Content)
	}
}

func TestParse_NoNewlineMarkerDiscarded(t *testing.T) {
	input := "@@ -1,1 +1,1 @@\n-old\n\\ No newline at end of file\n+new\n"
	d, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(d.Hunks[0].Lines) != 2 {
		t.Errorf("got %d lines, want 2 (marker discarded)", len(d.Hunks[0].Lines))
	}
}

func TestParse_MultipleHunks(t *testing.T) {
	input := "@@ -1,2 +1,2 @@\n-a\n+A\n b\n@@ -10,1 +10,2 @@\n c\n+d\n"
	d, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(d.Hunks) != 2 {
		t.Fatalf("got %d hunks, want 2", len(d.Hunks))
	}
	if d.Hunks[1].OldStart != 10 {
		t.Errorf("second hunk OldStart = %d, want 10", d.Hunks[1].OldStart)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"garbage before hunks", "here is the diff you asked for:\n@@ -1 +1 @@\n-a\n+b\n", 1},
		{"malformed header", "@@ -x,3 +1,3 @@\n a\n", 1},
		{"bad prefix inside hunk", "@@ -1,2 +1,2 @@\n a\n*b\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error type = %T, want *ParseError", err)
			}
			if pe.LineNumber != tt.wantLine {
				t.Errorf("LineNumber = %d, want %d", pe.LineNumber, tt.wantLine)
			}
			if pe.RawInput != tt.input {
				t.Error("RawInput not preserved")
			}
		})
	}
}

func TestParse_ReserializeRoundTrip(t *testing.T) {
	h := Hunk{
		OldStart: 3, OldCount: 3, NewStart: 3, NewCount: 4,
		Lines: []Line{
			{Kind: LineContext, Content: "alpha"},
			{Kind: LineRemove, Content: "beta"},
			{Kind: LineAdd, Content: "BETA"},
			{Kind: LineAdd, Content: "gamma"},
			{Kind: LineContext, Content: "delta"},
		},
	}

	d, err := Parse(h.Unified())
	if err != nil {
		t.Fatalf("Parse(Unified()) error = %v", err)
	}
	if len(d.Hunks) != 1 {
		t.Fatalf("got %d hunks, want 1", len(d.Hunks))
	}
	got := d.Hunks[0]
	if got.OldStart != h.OldStart || got.OldCount != h.OldCount ||
		got.NewStart != h.NewStart || got.NewCount != h.NewCount {
		t.Errorf("ranges changed across round trip: %+v", got)
	}
	if len(got.Lines) != len(h.Lines) {
		t.Fatalf("got %d lines, want %d", len(got.Lines), len(h.Lines))
	}
	for i := range h.Lines {
		if got.Lines[i] != h.Lines[i] {
			t.Errorf("line[%d] = %+v, want %+v", i, got.Lines[i], h.Lines[i])
		}
	}
}

func TestParse_CRLFInput(t *testing.T) {
	input := strings.ReplaceAll("@@ -1,1 +1,1 @@\n-a\n+b\n", "\n", "\r\n")
	d, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if d.Hunks[0].Lines[0].Content != "a" {
		t.Errorf("content = %q, want %q", d.Hunks[0].Lines[0].Content, "a")
	}
}
