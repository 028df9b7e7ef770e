// Package translate implements the incremental translation pipeline:
// job classification, the phased translation protocol and the
// concurrent batch coordinator.
package translate

// JobKind distinguishes first-time translations from incremental
// updates of an existing translation.
type JobKind int

const (
	// KindNew translates a document from scratch.
	KindNew JobKind = iota
	// KindIncremental patches an existing translation from a source diff.
	KindIncremental
)

func (k JobKind) String() string {
	if k == KindIncremental {
		return "incremental"
	}
	return "new"
}

// Job is one document-locale translation unit. It is created by the
// classifier, immutable afterwards, and consumed exactly once by the
// protocol.
type Job struct {
	Kind JobKind

	SourcePath     string
	TargetPath     string
	Locale         string
	SourceText     string
	SourceRevision string
	// Instructions is optional free text prepended to the system prompt.
	Instructions string
	// Fields lists the front matter fields to translate, nil for none.
	Fields []string

	// Incremental state. PriorSource and PriorTranslation are always
	// non-empty for KindIncremental.
	PriorSource      string
	PriorTranslation string
	SourceDiff       string
	PriorRevision    string
	CommitDistance   int
}

// NewJob builds a first-time translation job.
func NewJob(sourcePath, targetPath, locale, sourceText, revision string) *Job {
	return &Job{
		Kind:           KindNew,
		SourcePath:     sourcePath,
		TargetPath:     targetPath,
		Locale:         locale,
		SourceText:     sourceText,
		SourceRevision: revision,
	}
}

// IncrementalJob builds an update job for an already translated
// document. priorSource and priorTranslation must be non-empty.
func IncrementalJob(sourcePath, targetPath, locale, sourceText, revision string,
	priorSource, priorTranslation, sourceDiff, priorRevision string, commitDistance int) *Job {
	return &Job{
		Kind:             KindIncremental,
		SourcePath:       sourcePath,
		TargetPath:       targetPath,
		Locale:           locale,
		SourceText:       sourceText,
		SourceRevision:   revision,
		PriorSource:      priorSource,
		PriorTranslation: priorTranslation,
		SourceDiff:       sourceDiff,
		PriorRevision:    priorRevision,
		CommitDistance:   commitDistance,
	}
}
