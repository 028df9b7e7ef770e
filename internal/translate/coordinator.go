package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/transdoc-go/internal/llm"
	"github.com/raphaelgruber/transdoc-go/internal/metrics"
)

// Coordinator runs a batch of jobs on a bounded worker pool. Results
// are written immediately as each job finishes so large text buffers
// are released instead of being held until the batch drains.
type Coordinator struct {
	Protocol    *Protocol
	Writer      *Writer
	Backend     llm.Backend
	Parallelism int
	// Metrics is optional write-timing accounting.
	Metrics *metrics.Collector

	total     atomic.Int32
	completed atomic.Int32

	shutdown atomic.Bool
	causeMu  sync.Mutex
	cause    error
}

// NewCoordinator creates a coordinator with the given parallelism.
func NewCoordinator(protocol *Protocol, writer *Writer, backend llm.Backend, parallelism int) *Coordinator {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &Coordinator{
		Protocol:    protocol,
		Writer:      writer,
		Backend:     backend,
		Parallelism: parallelism,
	}
}

// Progress returns completed and total job counts for display.
func (c *Coordinator) Progress() (completed, total int) {
	return int(c.completed.Load()), int(c.total.Load())
}

// ShuttingDown reports whether an unrecoverable failure was observed.
func (c *Coordinator) ShuttingDown() bool {
	return c.shutdown.Load()
}

// ShutdownCause returns the first unrecoverable failure, nil if none.
func (c *Coordinator) ShutdownCause() error {
	c.causeMu.Lock()
	defer c.causeMu.Unlock()
	return c.cause
}

// Run executes all jobs and returns the batch summary. Cancellation is
// cooperative: after the first unrecoverable backend failure no new
// jobs start, in-flight jobs finish naturally, and drained jobs are
// counted as cancelled failures.
func (c *Coordinator) Run(ctx context.Context, jobs []*Job) Summary {
	runID := uuid.New().String()[:8]
	c.total.Store(int32(len(jobs)))
	slog.Info("translation batch starting",
		"run_id", runID, "jobs", len(jobs), "parallelism", c.Parallelism)

	jobChan := make(chan *Job, len(jobs))
	var wg sync.WaitGroup

	var summaryMu sync.Mutex
	summary := Summary{}

	for i := 0; i < c.Parallelism; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				outcome := c.runJob(ctx, workerID, job)
				c.completed.Add(1)
				summaryMu.Lock()
				summary = summary.Add(outcome)
				summaryMu.Unlock()
			}
		}(i)
	}

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)
	wg.Wait()

	slog.Info("translation batch finished", "run_id", runID, "summary", summary.String())
	if cause := c.ShutdownCause(); cause != nil {
		slog.Error("batch stopped early on unrecoverable failure",
			"run_id", runID, "cause", cause, "cancelled", summary.Cancelled)
	}
	return summary
}

// runJob translates and persists one job, returning its summary
// contribution.
func (c *Coordinator) runJob(ctx context.Context, workerID int, job *Job) Summary {
	if c.shutdown.Load() || ctx.Err() != nil {
		return Summary{Failed: 1, Cancelled: 1}
	}

	slog.Info("translating", "worker", workerID, "path", job.SourcePath,
		"locale", job.Locale, "kind", job.Kind.String())

	result := c.Protocol.Translate(ctx, job)
	outcome := Summary{
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
	}

	if !result.Success() {
		c.noteFailure(job, result)
		outcome.Failed = 1
		return outcome
	}

	writeStart := time.Now()
	if err := c.Writer.Write(result); err != nil {
		slog.Error("write-back failed", "path", job.SourcePath, "target", job.TargetPath, "error", err)
		outcome.Failed = 1
		return outcome
	}
	if c.Metrics != nil {
		c.Metrics.RecordTiming(metrics.OpWrite, time.Since(writeStart))
	}

	slog.Info("translated", "path", job.SourcePath, "locale", job.Locale,
		"elapsed_ms", result.Elapsed.Milliseconds(),
		"tokens_in", result.InputTokens, "tokens_out", result.OutputTokens)
	outcome.Succeeded = 1
	return outcome
}

// noteFailure logs a failed job and, on the first unrecoverable
// backend error, triggers the one-shot batch shutdown.
func (c *Coordinator) noteFailure(job *Job, result *Result) {
	slog.Error("translation failed", "path", job.SourcePath, "locale", job.Locale,
		"phase", result.Phase, "elapsed_ms", result.Elapsed.Milliseconds(), "error", result.Err)

	if !errors.Is(result.Err, llm.ErrFatalAPI) {
		return
	}
	if c.shutdown.CompareAndSwap(false, true) {
		cause := fmt.Errorf("job %s (%s): %w", job.SourcePath, job.Locale, result.Err)
		c.causeMu.Lock()
		c.cause = cause
		c.causeMu.Unlock()
		c.Backend.SignalShutdown(cause)
		slog.Error("unrecoverable backend failure, stopping batch", "cause", cause)
	}
}
