package translate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriterRender(t *testing.T) {
	w := &Writer{RevisionField: "source_revision"}

	t.Run("new job merges source fields and appends marker", func(t *testing.T) {
		job := NewJob("a.md", "de/a.md", "de",
			"---\ntitle: Hello\nweight: 5\n---\n\nbody\n", "rev9")
		job.Fields = []string{"title"}
		result := &Result{
			Job:    job,
			Fields: map[string]string{"title": "Hallo"},
			Body:   "Körper\n",
		}

		text, err := w.Render(result)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !strings.Contains(text, "title: Hallo") {
			t.Errorf("translated title missing: %q", text)
		}
		if !strings.Contains(text, "weight: 5") {
			t.Errorf("untranslated field dropped: %q", text)
		}
		if !strings.Contains(text, "source_revision: rev9") {
			t.Errorf("revision marker missing: %q", text)
		}
		if !strings.HasSuffix(text, "Körper\n") {
			t.Errorf("body missing: %q", text)
		}

		// Order: original fields first, marker appended last.
		ti := strings.Index(text, "title:")
		wi := strings.Index(text, "weight:")
		ri := strings.Index(text, "source_revision:")
		if !(ti < wi && wi < ri) {
			t.Errorf("field order wrong: %q", text)
		}
	})

	t.Run("incremental job keeps prior translated fields", func(t *testing.T) {
		job := incrementalJobFixture()
		job.PriorTranslation = "---\ntitle: Alter Titel\nsource_revision: rev1\n---\n\nalt\n"
		result := &Result{Job: job, Body: "neu\n"}

		text, err := w.Render(result)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !strings.Contains(text, "title: Alter Titel") {
			t.Errorf("prior translated field lost: %q", text)
		}
		if !strings.Contains(text, "source_revision: rev2") {
			t.Errorf("marker not advanced: %q", text)
		}
		if strings.Contains(text, "source_revision: rev1") {
			t.Errorf("stale marker kept: %q", text)
		}
	})
}

func TestWriterWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "de", "nested", "a.md")
	job := NewJob("a.md", target, "de", "body only\n", "rev1")
	result := &Result{Job: job, Body: "nur Körper\n"}

	w := &Writer{RevisionField: "source_revision"}
	if err := w.Write(result); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "nur Körper") || !strings.Contains(text, "source_revision: rev1") {
		t.Errorf("written document = %q", text)
	}
}
