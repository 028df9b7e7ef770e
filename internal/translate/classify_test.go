package translate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/raphaelgruber/transdoc-go/internal/scan"
)

// fakeHistory is a canned history.Provider.
type fakeHistory struct {
	current     string
	clean       bool
	priorSource map[string]string
	diff        string
	distance    int
}

func (f *fakeHistory) CurrentRevision(string) (string, error) { return f.current, nil }

func (f *fakeHistory) IsClean(string) (bool, error) { return f.clean, nil }
func (f *fakeHistory) FileAtRevision(_, rev string) (string, error) {
	src, ok := f.priorSource[rev]
	if !ok {
		return "", fmt.Errorf("fatal: bad object %s", rev)
	}
	return src, nil
}
func (f *fakeHistory) Diff(_, _, _ string) (string, error) { return f.diff, nil }

func (f *fakeHistory) CommitDistance(_, _, _ string) (int, error) { return f.distance, nil }

func testClassifier(h *fakeHistory, translations map[string]string) *Classifier {
	c := NewClassifier(h, "source_revision", []string{"title"})
	c.readFile = func(path string) ([]byte, error) {
		if content, ok := translations[path]; ok {
			return []byte(content), nil
		}
		return nil, errors.New("no such file")
	}
	return c
}

func TestClassify(t *testing.T) {
	src := scan.Source{RelPath: "docs/a.md", Content: "# A\n", Instructions: "formal"}

	t.Run("dirty source is skipped", func(t *testing.T) {
		c := testClassifier(&fakeHistory{clean: false, current: "rev2"}, nil)
		job, skip, err := c.Classify(src, "de", "de/docs/a.md")
		if err != nil || job != nil || skip != SkipDirty {
			t.Fatalf("got job=%v skip=%q err=%v", job, skip, err)
		}
	})

	t.Run("untracked source is skipped", func(t *testing.T) {
		c := testClassifier(&fakeHistory{clean: true, current: ""}, nil)
		job, skip, err := c.Classify(src, "de", "de/docs/a.md")
		if err != nil || job != nil || skip != SkipUntracked {
			t.Fatalf("got job=%v skip=%q err=%v", job, skip, err)
		}
	})

	t.Run("no prior translation yields new job", func(t *testing.T) {
		c := testClassifier(&fakeHistory{clean: true, current: "rev2"}, nil)
		job, skip, err := c.Classify(src, "de", "de/docs/a.md")
		if err != nil || skip != "" {
			t.Fatalf("skip=%q err=%v", skip, err)
		}
		if job.Kind != KindNew || job.SourceRevision != "rev2" {
			t.Errorf("job = %+v", job)
		}
		if job.Instructions != "formal" || job.Fields[0] != "title" {
			t.Errorf("job carries wrong instructions/fields: %+v", job)
		}
	})

	t.Run("up-to-date translation yields no job", func(t *testing.T) {
		c := testClassifier(
			&fakeHistory{clean: true, current: "rev2"},
			map[string]string{"de/docs/a.md": "---\nsource_revision: rev2\n---\n\nalt\n"},
		)
		job, skip, err := c.Classify(src, "de", "de/docs/a.md")
		if err != nil || job != nil || skip != SkipUpToDate {
			t.Fatalf("got job=%v skip=%q err=%v", job, skip, err)
		}
	})

	t.Run("stale translation yields incremental job", func(t *testing.T) {
		c := testClassifier(
			&fakeHistory{
				clean:       true,
				current:     "rev2",
				priorSource: map[string]string{"rev1": "# Old A\n"},
				diff:        "@@ -1,1 +1,1 @@\n-# Old A\n+# A\n",
				distance:    2,
			},
			map[string]string{"de/docs/a.md": "---\nsource_revision: rev1\n---\n\nalt\n"},
		)
		job, skip, err := c.Classify(src, "de", "de/docs/a.md")
		if err != nil || skip != "" {
			t.Fatalf("skip=%q err=%v", skip, err)
		}
		if job.Kind != KindIncremental {
			t.Fatalf("kind = %v", job.Kind)
		}
		if job.PriorRevision != "rev1" || job.CommitDistance != 2 {
			t.Errorf("prior = %q, distance = %d", job.PriorRevision, job.CommitDistance)
		}
		if job.PriorSource != "# Old A\n" || job.PriorTranslation == "" || job.SourceDiff == "" {
			t.Errorf("incremental state incomplete: %+v", job)
		}
	})

	t.Run("rewritten history degrades to new job", func(t *testing.T) {
		c := testClassifier(
			&fakeHistory{clean: true, current: "rev2"},
			map[string]string{"de/docs/a.md": "---\nsource_revision: gone\n---\n\nalt\n"},
		)
		job, skip, err := c.Classify(src, "de", "de/docs/a.md")
		if err != nil || skip != "" {
			t.Fatalf("skip=%q err=%v", skip, err)
		}
		if job.Kind != KindNew {
			t.Errorf("kind = %v, want new", job.Kind)
		}
	})

	t.Run("translation without marker treated as new", func(t *testing.T) {
		c := testClassifier(
			&fakeHistory{clean: true, current: "rev2"},
			map[string]string{"de/docs/a.md": "alt ohne marker\n"},
		)
		job, skip, err := c.Classify(src, "de", "de/docs/a.md")
		if err != nil || skip != "" {
			t.Fatalf("skip=%q err=%v", skip, err)
		}
		if job.Kind != KindNew {
			t.Errorf("kind = %v, want new", job.Kind)
		}
	})
}
