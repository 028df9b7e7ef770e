package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/transdoc-go/internal/history"
	"github.com/raphaelgruber/transdoc-go/internal/llm"
	"github.com/raphaelgruber/transdoc-go/internal/metrics"
	"github.com/raphaelgruber/transdoc-go/internal/scan"
	"github.com/raphaelgruber/transdoc-go/internal/translate"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	translateLocales     []string
	translateSource      string
	translateTarget      string
	translateParallelism int
	translateDryRun      bool
	translateNoProgress  bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate changed documents",
	Long: `Translate scans the source tree, classifies every document per target
locale, and runs the needed translations in parallel. Documents whose
translation is already at the current source revision are skipped;
documents with an older translation receive an incremental diff-based
update.

Examples:
  transdoc translate --locales de,fr
  transdoc translate --locales de --source docs --target translated
  transdoc translate --locales de --dry-run`,
	RunE: runTranslate,
}

func init() {
	translateCmd.Flags().StringSliceVarP(&translateLocales, "locales", "l", nil, "target locales (overrides config)")
	translateCmd.Flags().StringVarP(&translateSource, "source", "s", "", "source directory (overrides config)")
	translateCmd.Flags().StringVarP(&translateTarget, "target", "t", "", "target directory (overrides config)")
	translateCmd.Flags().IntVarP(&translateParallelism, "parallelism", "p", 0, "concurrent translations (overrides config)")
	translateCmd.Flags().BoolVar(&translateDryRun, "dry-run", false, "classify only, no translation or writes")
	translateCmd.Flags().BoolVar(&translateNoProgress, "no-progress", false, "disable the interactive progress display")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	applyTranslateFlags()
	if err := cfg.Validate(); err != nil {
		return err
	}

	jobs, skips, err := classifyBatch()
	if err != nil {
		return err
	}

	if translateDryRun {
		printClassification(jobs, skips)
		return nil
	}
	if len(jobs) == 0 {
		fmt.Println("Nothing to translate.")
		return nil
	}

	ctx := cmd.Context()
	backend, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init LLM backend: %w", err)
	}

	collector := metrics.NewCollector()
	protocol := translate.NewProtocol(backend, cfg.ChunkSize, cfg.ChunkTolerance)
	protocol.Metrics = collector
	writer := &translate.Writer{RevisionField: cfg.RevisionField}
	coord := translate.NewCoordinator(protocol, writer, backend, cfg.Parallelism)
	coord.Metrics = collector

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var summary translate.Summary
	if showProgress() {
		summary, err = RunBatchProgress(coord, cancel, func() translate.Summary {
			return coord.Run(runCtx, jobs)
		})
		if err != nil {
			return err
		}
	} else {
		summary = coord.Run(runCtx, jobs)
	}

	summary.Skipped += len(skips)
	fmt.Println(summary.String())
	logUsage(collector.Snapshot())

	if cause := coord.ShutdownCause(); cause != nil {
		return fmt.Errorf("batch stopped early: %w", cause)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d translation(s) failed", summary.Failed)
	}
	return nil
}

func applyTranslateFlags() {
	if len(translateLocales) > 0 {
		cfg.Locales = translateLocales
	}
	if translateSource != "" {
		cfg.SourceDir = translateSource
	}
	if translateTarget != "" {
		cfg.TargetDir = translateTarget
	}
	if translateParallelism > 0 {
		cfg.Parallelism = translateParallelism
	}
	if cfg.TargetDir == "" {
		cfg.TargetDir = filepath.Join(cfg.SourceDir, "translations")
	}
}

// classifyBatch scans the source tree and classifies every document
// for every configured locale.
func classifyBatch() ([]*translate.Job, []string, error) {
	scanner := scan.New(cfg.SourceDir, cfg.Include, cfg.Exclude, cfg.InstructionFile)
	sources, err := scanner.Scan()
	if err != nil {
		return nil, nil, err
	}

	git := history.NewGit(cfg.SourceDir)
	classifier := translate.NewClassifier(git, cfg.RevisionField, cfg.Fields)

	var jobs []*translate.Job
	var skips []string
	for _, src := range sources {
		for _, locale := range cfg.Locales {
			target := filepath.Join(cfg.TargetDir, locale, filepath.FromSlash(src.RelPath))
			job, skip, err := classifier.Classify(src, locale, target)
			if err != nil {
				return nil, nil, err
			}
			if job == nil {
				skips = append(skips, fmt.Sprintf("%s [%s]: %s", src.RelPath, locale, skip))
				continue
			}
			jobs = append(jobs, job)
		}
	}
	return jobs, skips, nil
}

func printClassification(jobs []*translate.Job, skips []string) {
	for _, job := range jobs {
		extra := ""
		if job.Kind == translate.KindIncremental {
			extra = fmt.Sprintf(" (%d commit(s) behind)", job.CommitDistance)
		}
		fmt.Printf("%-11s %s [%s]%s\n", job.Kind.String(), job.SourcePath, job.Locale, extra)
	}
	for _, skip := range skips {
		fmt.Printf("%-11s %s\n", "skip", skip)
	}
	fmt.Printf("\n%d job(s), %d skipped\n", len(jobs), len(skips))
}

// logUsage emits per-phase backend usage for the finished batch.
func logUsage(snap metrics.Snapshot) {
	phases := []struct {
		name string
		op   *metrics.OperationSnapshot
	}{
		{"front_matter", snap.FrontMatter},
		{"body", snap.Body},
		{"body_chunk", snap.BodyChunk},
		{"body_diff", snap.BodyDiff},
		{"write", snap.Write},
	}
	for _, phase := range phases {
		if phase.op == nil {
			continue
		}
		attrs := []any{"calls", phase.op.Count, "total_ms", phase.op.TotalTimeMs, "avg_ms", phase.op.AvgTimeMs}
		if phase.op.TotalInputTokens != nil {
			attrs = append(attrs, "tokens_in", *phase.op.TotalInputTokens, "tokens_out", *phase.op.TotalOutputTokens)
		}
		slog.Info("phase usage "+phase.name, attrs...)
	}
}

// showProgress reports whether the interactive progress UI should run.
func showProgress() bool {
	if translateNoProgress {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
