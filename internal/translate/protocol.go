package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/transdoc-go/internal/diff"
	"github.com/raphaelgruber/transdoc-go/internal/llm"
	"github.com/raphaelgruber/transdoc-go/internal/metrics"
	"github.com/raphaelgruber/transdoc-go/internal/parser"
	"github.com/raphaelgruber/transdoc-go/internal/prompt"
)

// Protocol runs the phased translation of a single job: front matter,
// then body, then assembly. Phases execute in strict order and a phase
// failure short-circuits the rest of the job.
type Protocol struct {
	Backend        llm.Backend
	ChunkSize      int
	ChunkTolerance float64
	// Metrics is optional per-phase usage accounting.
	Metrics *metrics.Collector
}

// NewProtocol creates a protocol over the given backend.
func NewProtocol(backend llm.Backend, chunkSize int, chunkTolerance float64) *Protocol {
	return &Protocol{Backend: backend, ChunkSize: chunkSize, ChunkTolerance: chunkTolerance}
}

// Translate runs all phases for one job. The returned result always
// carries the accumulated token and time accounting, also on failure.
func (p *Protocol) Translate(ctx context.Context, job *Job) *Result {
	result := &Result{Job: job}
	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	system, err := p.systemPrompt(job)
	if err != nil {
		return result.fail(PhaseFrontMatter, err)
	}

	if err := p.frontMatterPhase(ctx, job, system, result); err != nil {
		return result.fail(PhaseFrontMatter, err)
	}
	if phase, err := p.bodyPhase(ctx, job, system, result); err != nil {
		return result.fail(phase, err)
	}
	return result
}

func (r *Result) fail(phase string, err error) *Result {
	r.Phase = phase
	r.Err = err
	return r
}

func (p *Protocol) systemPrompt(job *Job) (string, error) {
	instructions := ""
	if job.Instructions != "" {
		instructions = "\nAdditional instructions for this document tree:\n" + job.Instructions
	}
	return prompt.Render(prompt.System, map[string]string{
		"locale":       job.Locale,
		"instructions": instructions,
	})
}

// frontMatterPhase translates the structured fields. For incremental
// jobs only fields whose value changed since the prior source are sent,
// but each included field is always retranslated in full: a change
// inside a field value cannot be diffed against its translation.
func (p *Protocol) frontMatterPhase(ctx context.Context, job *Job, system string, result *Result) error {
	if len(job.Fields) == 0 {
		return nil
	}

	doc := parser.ParseDocument(job.SourceText)
	fields := doc.ExtractFields(job.Fields)

	if job.Kind == KindIncremental {
		prior := parser.ParseDocument(job.PriorSource)
		changed := fields[:0]
		for _, f := range fields {
			if old, ok := prior.Field(f.Name); ok && old == f.Value {
				continue
			}
			changed = append(changed, f)
		}
		fields = changed
	}
	if len(fields) == 0 {
		return nil
	}

	var b strings.Builder
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
		b.WriteString(RenderFieldMarker(f.Name, f.Value))
		b.WriteString("\n")
	}

	user, err := prompt.Render(prompt.TranslateFields, map[string]string{
		"locale": job.Locale,
		"fields": b.String(),
	})
	if err != nil {
		return err
	}

	resp, err := p.chat(ctx, metrics.OpFrontMatter, system, user, result)
	if err != nil {
		return err
	}

	translated, err := ParseFieldMarkers(resp.Text, names)
	if err != nil {
		return err
	}
	result.Fields = translated
	return nil
}

// bodyPhase produces the translated body. The failing phase tag is
// returned alongside the error.
func (p *Protocol) bodyPhase(ctx context.Context, job *Job, system string, result *Result) (string, error) {
	body := parser.ParseDocument(job.SourceText).Body()

	if job.Kind == KindIncremental {
		err := p.incrementalBody(ctx, job, system, result)
		return PhaseBodyDiff, err
	}

	if len(body) <= p.ChunkSize {
		user, err := prompt.Render(prompt.TranslateBody, map[string]string{
			"locale": job.Locale,
			"body":   body,
		})
		if err != nil {
			return PhaseBody, err
		}
		resp, err := p.chat(ctx, metrics.OpBody, system, user, result)
		if err != nil {
			return PhaseBody, err
		}
		result.Body = resp.Text
		return "", nil
	}

	return p.chunkedBody(ctx, job, system, body, result)
}

// chunkedBody splits an oversized body and translates the chunks
// sequentially. Chunk order and cross-chunk consistency matter more
// than throughput here, so chunks are never parallelized.
func (p *Protocol) chunkedBody(ctx context.Context, job *Job, system, body string, result *Result) (string, error) {
	chunks, err := parser.Split(body, p.ChunkSize, p.ChunkTolerance)
	if err != nil {
		return PhaseBody, err
	}
	if len(chunks) == 1 {
		slog.Warn("large document has no headings to split on, sending whole",
			"path", job.SourcePath, "bytes", len(body))
	}

	var b strings.Builder
	for _, chunk := range chunks {
		user, err := prompt.Render(prompt.TranslateChunk, map[string]string{
			"locale": job.Locale,
			"index":  strconv.Itoa(chunk.Index + 1),
			"total":  strconv.Itoa(len(chunks)),
			"chunk":  chunk.Content,
		})
		if err != nil {
			return PhaseBodyChunk(chunk.Index), err
		}
		resp, err := p.chat(ctx, metrics.OpBodyChunk, system, user, result)
		if err != nil {
			return PhaseBodyChunk(chunk.Index), err
		}
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n\n")
		}
		b.WriteString(resp.Text)
	}
	result.Body = b.String()
	return "", nil
}

// incrementalBody asks the model for a unified diff against the prior
// translated body and applies it. A blank response means no body
// change. One correction retry is attempted on an invalid diff; a
// second failure is terminal.
func (p *Protocol) incrementalBody(ctx context.Context, job *Job, system string, result *Result) error {
	priorBody := parser.ParseDocument(job.PriorTranslation).Body()

	user, err := prompt.Render(prompt.TranslateDiff, map[string]string{
		"locale":          job.Locale,
		"source_diff":     job.SourceDiff,
		"translated_body": priorBody,
	})
	if err != nil {
		return err
	}

	resp, err := p.chat(ctx, metrics.OpBodyDiff, system, user, result)
	if err != nil {
		return err
	}

	newBody, firstErr := applyDiffResponse(priorBody, resp.Text)
	if firstErr == nil {
		result.Body = newBody
		return nil
	}

	retryUser, err := prompt.Render(prompt.RetryDiff, map[string]string{
		"reason":        firstErr.Error(),
		"previous_diff": resp.Text,
	})
	if err != nil {
		return err
	}

	retryResp, err := p.chat(ctx, metrics.OpBodyDiff, system, retryUser, result)
	if err != nil {
		return err
	}

	newBody, retryErr := applyDiffResponse(priorBody, retryResp.Text)
	if retryErr != nil {
		return fmt.Errorf("invalid diff after correction retry: first attempt: %v; retry: %v", firstErr, retryErr)
	}
	result.Body = newBody
	return nil
}

// applyDiffResponse parses the model's diff and applies it to the
// prior body. A blank response keeps the body unchanged.
func applyDiffResponse(priorBody, response string) (string, error) {
	parsed, err := diff.Parse(response)
	if err != nil {
		return "", err
	}
	if parsed.Empty() {
		return priorBody, nil
	}
	return diff.Apply(priorBody, parsed)
}

// chat performs one backend call and folds its usage into the result
// and the optional metrics collector.
func (p *Protocol) chat(ctx context.Context, op, system, user string, result *Result) (llm.Response, error) {
	start := time.Now()
	resp, err := p.Backend.Chat(ctx, system, user)
	result.InputTokens += resp.InputTokens
	result.OutputTokens += resp.OutputTokens
	if p.Metrics != nil {
		p.Metrics.RecordBackendUsage(op, time.Since(start), int64(resp.InputTokens), int64(resp.OutputTokens))
	}
	return resp, err
}
