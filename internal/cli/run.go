package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/vignette/internal/cache"
	"github.com/ppiankov/vignette/internal/config"
	"github.com/ppiankov/vignette/internal/generate"
	"github.com/ppiankov/vignette/internal/ledger"
	"github.com/ppiankov/vignette/internal/llm"
	"github.com/ppiankov/vignette/internal/logging"
	"github.com/ppiankov/vignette/internal/model"
	"github.com/ppiankov/vignette/internal/notify"
	"github.com/ppiankov/vignette/internal/pipeline"
	"github.com/ppiankov/vignette/internal/store"
	"github.com/ppiankov/vignette/internal/throttle"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	noCache  bool
	noNotify bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rephrase the next batch of unprocessed source questions",
	Long: `Run processes one batch:
- Load the source corpus and skip rows already in the ledger
- Classify each pending row (topic, subject, category, anchor)
- Ask the model for a new vignette, retrying malformed replies
- Append all generated rows to the store, then commit the ledger
- Email a summary when records were produced and notify is enabled

Example:
  vignette run
  vignette run --batch-size 20 --source questions/source.csv
  vignette run --llm-provider ollama --llm-model llama3.1 --no-notify`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.Int("batch-size", 0, "maximum rows to process this run")
	flags.Int("max-retries", 0, "generation attempts per row")
	flags.Duration("backoff", 0, "wait between generation attempts")
	flags.String("on-classify-failure", "", "skip the row or use defaults (skip, defaults)")
	flags.String("llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	flags.String("llm-model", "", "LLM model name")
	flags.Int("timeout", 0, "provider request timeout in seconds")
	flags.BoolVar(&noCache, "no-cache", false, "disable the classification cache")
	flags.BoolVar(&noNotify, "no-notify", false, "do not send the summary email")

	bindFlags(flags, map[string]string{
		"generation.batch_size":     "batch-size",
		"generation.max_retries":    "max-retries",
		"generation.backoff":        "backoff",
		"classification.on_failure": "on-classify-failure",
		"llm.provider":              "llm-provider",
		"llm.model":                 "llm-model",
		"llm.timeout":               "timeout",
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noNotify {
		cfg.Notify.Enabled = false
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Vignette Batch\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Source:       %s\n", cfg.Paths.Source)
	fmt.Fprintf(os.Stderr, "  Store:        %s\n", cfg.Paths.Store)
	fmt.Fprintf(os.Stderr, "  Ledger:       %s\n", cfg.Paths.Ledger)
	fmt.Fprintf(os.Stderr, "  Batch size:   %d\n", cfg.Generation.BatchSize)
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	driver, err := newDriver(cfg, logger)
	if err != nil {
		return err
	}

	summary, err := driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	printSummary(summary)
	return nil
}

// newDriver wires the provider, cache, limiter, ledger, store and notifier
func newDriver(cfg *config.Config, logger *zap.Logger) (*pipeline.Driver, error) {
	provider, err := llm.NewProvider(cfg.LLM.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	limiter := throttle.NewLimiter(cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)

	var memo cache.Cache = cache.Nop{}
	if cfg.Cache.Enabled {
		memo = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	classifier := generate.NewClassifier(provider,
		generate.WithClassifierCache(memo, cfg.Cache.DiskTTL),
		generate.WithClassifierLimiter(limiter),
		generate.WithClassifierLogger(logger.Named("classify")))

	client := generate.NewClient(provider,
		generate.WithLimiter(limiter),
		generate.WithMinExplanation(cfg.Generation.MinExplanationChars),
		generate.WithLogger(logger.Named("generate")))

	progress, err := ledger.Open(cfg.Paths.Ledger, logger.Named("ledger"))
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notify.Enabled {
		notifier = notify.NewMailer(notify.SMTPConfig{
			Host:     cfg.Notify.SMTPHost,
			Port:     cfg.Notify.SMTPPort,
			Username: cfg.Notify.Username,
			Password: cfg.Notify.Password,
			From:     cfg.Notify.From,
		}, logger.Named("notify"))
	}

	return pipeline.New(cfg, pipeline.Deps{
		Source: func() ([]model.SourceRecord, error) {
			return store.LoadSource(cfg.Paths.Source)
		},
		Ledger:     progress,
		Store:      store.NewRecordStore(cfg.Paths.Store),
		Classifier: classifier,
		Generator:  client,
		Notifier:   notifier,
		Logger:     logger,
	})
}

func printSummary(s *pipeline.Summary) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")

	switch s.Outcome {
	case pipeline.OutcomeNothingPending:
		fmt.Fprintf(os.Stderr, "  Nothing to do: every source row is already processed.\n\n")
		return
	case pipeline.OutcomeAllFailed:
		fmt.Fprintf(os.Stderr, "  No records produced.\n")
	}

	fmt.Fprintf(os.Stderr, "  Pending:   %d\n", s.Pending)
	fmt.Fprintf(os.Stderr, "  Attempted: %d\n", s.Attempted)
	fmt.Fprintf(os.Stderr, "  Produced:  %d\n", len(s.Produced))
	fmt.Fprintf(os.Stderr, "  Skipped:   %d\n", len(s.Skipped))
	for _, sk := range s.Skipped {
		fmt.Fprintf(os.Stderr, "    ✗ %s\n", sk)
	}
	if len(s.Produced) > 0 {
		fmt.Fprintf(os.Stderr, "  Output:    %s\n", s.StorePath)
	}
	fmt.Fprintf(os.Stderr, "\n")
}
