package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/vignette/internal/config"
	"github.com/ppiankov/vignette/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vignette",
	Short: "Vignette - idempotent rephrasing of clinical board questions",
	Long: `Vignette rewrites source board-review questions into new clinical
vignettes with an LLM, one bounded batch per run.

Every source row is fingerprinted by content. Rows already recorded in the
progress ledger are never sent to the model again, so vignette can be run
on a schedule against a growing corpus.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of vignette.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vignette %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	if err := config.Prepare(viper.GetViper()); err != nil {
		panic(err)
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.vignette/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flags.String("source", "", "source corpus CSV (record_id, question)")
	flags.String("store", "", "generated questions CSV")
	flags.String("ledger", "", "progress ledger CSV")

	bindFlags(flags, map[string]string{
		"paths.source": "source",
		"paths.store":  "store",
		"paths.ledger": "ledger",
	})

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".vignette"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
	}
}

// loadConfig resolves flags, env, file and defaults into a Config,
// validating it when strict is set
func loadConfig(strict bool) (*config.Config, error) {
	load := config.Decode
	if strict {
		load = config.Load
	}
	cfg, err := load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Mode, cfg.Log.Level)
}

// bindFlags binds config keys to flag names, panicking on programmer error
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}
