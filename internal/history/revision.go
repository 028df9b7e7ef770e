package history

import (
	"fmt"
	"log/slog"
)

// RevisionInfo captures how a source document relates to the revision its
// translation was last produced from.
type RevisionInfo struct {
	// Current is the latest commit touching the source (always set).
	Current string
	// Prior is the revision recorded in the existing translation, "" when
	// there is no prior translation.
	Prior string
	// CommitDistance is the number of commits between Prior and Current,
	// 0 when new or unchanged.
	CommitDistance int
	// Diff is the unified source diff Prior -> Current, "" when unavailable.
	Diff string
	// PriorSource is the source text at Prior, "" when unresolvable
	// (e.g. rewritten history).
	PriorSource string
}

// IsNew reports whether no prior translation revision exists.
func (r RevisionInfo) IsNew() bool {
	return r.Prior == ""
}

// UpToDate reports whether the translation was produced from the current
// source revision.
func (r RevisionInfo) UpToDate() bool {
	return r.Prior != "" && r.Prior == r.Current
}

// NeedsUpdate reports whether the source moved past the translated revision.
func (r RevisionInfo) NeedsUpdate() bool {
	return r.Prior != "" && r.Prior != r.Current
}

// Resolvable reports whether the prior source and diff could be fetched,
// which incremental translation requires.
func (r RevisionInfo) Resolvable() bool {
	return r.PriorSource != ""
}

// Resolve builds the RevisionInfo for a source path given the revision
// marker read from its existing translation ("" when absent). It returns
// ErrNoHistory when the path has no commits.
//
// A needs-update result with an unresolvable prior revision is not an
// error: the caller downgrades to a full re-translation instead.
func Resolve(p Provider, path, priorMarker string) (RevisionInfo, error) {
	current, err := p.CurrentRevision(path)
	if err != nil {
		return RevisionInfo{}, fmt.Errorf("current revision of %s: %w", path, err)
	}
	if current == "" {
		return RevisionInfo{}, fmt.Errorf("%s: %w", path, ErrNoHistory)
	}

	info := RevisionInfo{Current: current, Prior: priorMarker}
	if !info.NeedsUpdate() {
		return info, nil
	}

	priorSource, err := p.FileAtRevision(path, priorMarker)
	if err != nil {
		slog.Warn("prior source unresolvable, translation will restart from scratch",
			"path", path, "prior", priorMarker, "error", err)
		return info, nil
	}
	info.PriorSource = priorSource

	diff, err := p.Diff(path, priorMarker, current)
	if err != nil {
		slog.Warn("source diff unresolvable", "path", path, "prior", priorMarker, "error", err)
		info.PriorSource = ""
		return info, nil
	}
	info.Diff = diff

	distance, err := p.CommitDistance(path, priorMarker, current)
	if err != nil {
		slog.Warn("commit distance unresolvable", "path", path, "error", err)
	} else {
		info.CommitDistance = distance
	}

	return info, nil
}
