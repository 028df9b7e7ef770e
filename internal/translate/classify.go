package translate

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/transdoc-go/internal/history"
	"github.com/raphaelgruber/transdoc-go/internal/parser"
	"github.com/raphaelgruber/transdoc-go/internal/scan"
)

// SkipReason explains why the classifier produced no job.
type SkipReason string

const (
	SkipDirty     SkipReason = "uncommitted changes"
	SkipUntracked SkipReason = "untracked"
	SkipUpToDate  SkipReason = "up to date"
)

// Classifier decides per document and locale whether a translation is
// needed and which kind.
type Classifier struct {
	History       history.Provider
	RevisionField string
	// Fields lists the configured front matter fields to translate.
	Fields []string

	// readFile is replaceable in tests.
	readFile func(string) ([]byte, error)
}

// NewClassifier creates a classifier over the given history provider.
func NewClassifier(h history.Provider, revisionField string, fields []string) *Classifier {
	return &Classifier{
		History:       h,
		RevisionField: revisionField,
		Fields:        fields,
		readFile:      os.ReadFile,
	}
}

// Classify maps one source document to a job, or to a skip reason when
// no translation is needed. It never writes files.
func (c *Classifier) Classify(src scan.Source, locale, targetPath string) (*Job, SkipReason, error) {
	clean, err := c.History.IsClean(src.RelPath)
	if err != nil {
		return nil, "", fmt.Errorf("check working tree state of %s: %w", src.RelPath, err)
	}
	if !clean {
		slog.Info("skipping source with uncommitted changes", "path", src.RelPath)
		return nil, SkipDirty, nil
	}

	priorMarker, priorTranslation := c.readPriorTranslation(src.RelPath, targetPath)

	info, err := history.Resolve(c.History, src.RelPath, priorMarker)
	if err != nil {
		if errors.Is(err, history.ErrNoHistory) {
			slog.Info("skipping untracked source", "path", src.RelPath)
			return nil, SkipUntracked, nil
		}
		return nil, "", err
	}

	if info.UpToDate() {
		return nil, SkipUpToDate, nil
	}

	job := NewJob(src.RelPath, targetPath, locale, src.Content, info.Current)
	job.Instructions = src.Instructions
	job.Fields = c.Fields

	if info.IsNew() {
		return job, "", nil
	}
	if !info.Resolvable() {
		slog.Warn("prior revision unresolvable, translating from scratch",
			"path", src.RelPath, "prior", priorMarker)
		return job, "", nil
	}

	job.Kind = KindIncremental
	job.PriorSource = info.PriorSource
	job.PriorTranslation = priorTranslation
	job.SourceDiff = info.Diff
	job.PriorRevision = info.Prior
	job.CommitDistance = info.CommitDistance
	return job, "", nil
}

// readPriorTranslation loads the existing translation and its revision
// marker. A translation without a marker is treated like no prior
// translation but logged as a warning since it points at a manual edit.
func (c *Classifier) readPriorTranslation(sourcePath, targetPath string) (marker, content string) {
	data, err := c.readFile(targetPath)
	if err != nil {
		return "", ""
	}
	content = string(data)

	doc := parser.ParseDocument(content)
	marker, ok := doc.Field(c.RevisionField)
	if !ok || marker == "" {
		slog.Warn("existing translation carries no revision marker, re-translating fully",
			"source", sourcePath, "target", targetPath)
		return "", content
	}
	return marker, content
}
