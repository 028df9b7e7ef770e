package translate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Phase tags attached to failures so logs and results identify where a
// job died.
const (
	PhaseFrontMatter = "FRONT_MATTER"
	PhaseBody        = "BODY"
	PhaseBodyDiff    = "BODY_DIFF"
)

// PhaseBodyChunk tags a failure of the n-th chunk of a split body.
func PhaseBodyChunk(n int) string {
	return fmt.Sprintf("BODY_CHUNK_%d", n)
}

// Result is the final outcome of running the protocol on one job.
type Result struct {
	Job *Job

	// Fields holds the translated front matter values, nil when the
	// front matter phase was skipped.
	Fields map[string]string
	// Body is the translated body, valid only on success.
	Body string

	InputTokens  int
	OutputTokens int
	Elapsed      time.Duration

	// Err is non-nil on failure, Phase names the failed phase.
	Err   error
	Phase string
}

// Success reports whether all phases completed.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Assemble renders translated fields and body into a single payload
// using the field marker convention, so one parser serves both the
// front matter response and the final result.
func (r *Result) Assemble() string {
	var b strings.Builder
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(RenderFieldMarker(name, r.Fields[name]))
		b.WriteString("\n")
	}
	b.WriteString(r.Body)
	return b.String()
}

var fieldMarkerRegex = regexp.MustCompile(`(?s)<field name="([^"]+)">(.*?)</field>`)

// RenderFieldMarker wraps a field value in its start/end marker.
func RenderFieldMarker(name, value string) string {
	return fmt.Sprintf("<field name=%q>%s</field>", name, value)
}

// ParseFieldMarkers extracts the requested fields from a model
// response. A missing marker or a blank value is an error naming the
// offending fields.
func ParseFieldMarkers(text string, names []string) (map[string]string, error) {
	found := map[string]string{}
	for _, match := range fieldMarkerRegex.FindAllStringSubmatch(text, -1) {
		found[match[1]] = strings.TrimSpace(match[2])
	}

	out := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		value, ok := found[name]
		if !ok || value == "" {
			missing = append(missing, name)
			continue
		}
		out[name] = value
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("response missing or blank fields: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Summary aggregates batch outcomes. It is a commutative monoid:
// Summary{} is the identity and Add combines two values, so workers
// can fold per-job summaries in any order.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	// Cancelled counts jobs never started because of shutdown. They
	// are also included in Failed.
	Cancelled    int
	InputTokens  int
	OutputTokens int
}

// Add combines two summaries.
func (s Summary) Add(other Summary) Summary {
	return Summary{
		Succeeded:    s.Succeeded + other.Succeeded,
		Failed:       s.Failed + other.Failed,
		Skipped:      s.Skipped + other.Skipped,
		Cancelled:    s.Cancelled + other.Cancelled,
		InputTokens:  s.InputTokens + other.InputTokens,
		OutputTokens: s.OutputTokens + other.OutputTokens,
	}
}

// Total returns the number of jobs accounted for, skips included.
func (s Summary) Total() int {
	return s.Succeeded + s.Failed + s.Skipped
}

func (s Summary) String() string {
	return fmt.Sprintf("%d succeeded, %d failed (%d cancelled), %d skipped, %d in / %d out tokens",
		s.Succeeded, s.Failed, s.Cancelled, s.Skipped, s.InputTokens, s.OutputTokens)
}
