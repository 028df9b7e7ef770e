package translate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/transdoc-go/internal/parser"
)

// Writer persists successful translation results. The output document
// keeps every original field in order, overwritten where translated,
// with the revision marker appended last when new.
type Writer struct {
	RevisionField string
}

// Write renders the result's document and writes it to the job's
// target path, creating parent directories as needed.
func (w *Writer) Write(result *Result) error {
	text, err := w.Render(result)
	if err != nil {
		return err
	}

	target := result.Job.TargetPath
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create target directory for %s: %w", target, err)
	}
	if err := os.WriteFile(target, []byte(text), 0644); err != nil {
		return fmt.Errorf("write translation %s: %w", target, err)
	}
	return nil
}

// Render produces the final translated document text without touching
// the filesystem.
func (w *Writer) Render(result *Result) (string, error) {
	job := result.Job

	// Incremental jobs keep the prior translation's fields for anything
	// not retranslated in this run; new jobs start from the source.
	var doc *parser.Document
	if job.Kind == KindIncremental {
		doc = parser.ParseDocument(job.PriorTranslation)
	} else {
		doc = parser.ParseDocument(job.SourceText)
	}

	for name, value := range result.Fields {
		doc.SetField(name, value)
	}
	doc.SetField(w.RevisionField, job.SourceRevision)
	doc.SetBody(result.Body)

	text, err := doc.Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize translation for %s: %w", job.SourcePath, err)
	}
	return text, nil
}
