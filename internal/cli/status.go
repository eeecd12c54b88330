package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/vignette/internal/ledger"
	"github.com/ppiankov/vignette/internal/logging"
	"github.com/ppiankov/vignette/internal/pipeline"
	"github.com/ppiankov/vignette/internal/store"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how much of the source corpus is processed",
	Long: `Status loads the source corpus and the progress ledger and reports
processed, duplicate and pending rows. It never calls an LLM provider.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	rows, err := store.LoadSource(cfg.Paths.Source)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}

	progress, err := ledger.Open(cfg.Paths.Ledger, logger)
	if err != nil {
		return err
	}

	generated, err := store.NewRecordStore(cfg.Paths.Store).Load()
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	st := pipeline.Inspect(rows, progress)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source:     %s (%d rows)\n", cfg.Paths.Source, st.Total)
	fmt.Fprintf(out, "Ledger:     %s (%d entries", cfg.Paths.Ledger, progress.Len())
	if progress.Skipped() > 0 {
		fmt.Fprintf(out, ", %d corrupt rows ignored", progress.Skipped())
	}
	fmt.Fprintf(out, ")\n")
	fmt.Fprintf(out, "Store:      %s (%d rows)\n", cfg.Paths.Store, len(generated))
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "Processed:  %d\n", st.Processed)
	fmt.Fprintf(out, "Duplicates: %d\n", st.Duplicates)
	fmt.Fprintf(out, "Pending:    %d\n", st.Pending)

	if st.Pending > 0 && cfg.Generation.BatchSize > 0 {
		runs := (st.Pending + cfg.Generation.BatchSize - 1) / cfg.Generation.BatchSize
		fmt.Fprintf(os.Stderr, "\n%d more run(s) at batch size %d\n", runs, cfg.Generation.BatchSize)
	}
	return nil
}
