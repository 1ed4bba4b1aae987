package cmd

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcdpr/bookworm/internal/config"
	"github.com/dcdpr/bookworm/internal/engine"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "bookworm",
	Short: "Rust crate documentation indexing and search",
	Long: `Bookworm downloads docs.rs documentation archives, indexes every
symbol into a searchable SQLite table, and extracts signatures and
documentation fragments from the original HTML on demand.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(readmeCmd)
	rootCmd.AddCommand(searchCratesCmd)
	rootCmd.AddCommand(mcpCmd)
}

// newEngine builds the shared engine from the loaded configuration.
func newEngine() (*engine.Engine, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	eng := engine.New(engine.Options{
		CratesDir:       config.CratesDir(),
		DocsRSBaseURL:   cfg.DocsRS.BaseURL,
		CratesIOBaseURL: cfg.CratesIO.BaseURL,
		UserAgent:       cfg.HTTP.UserAgent,
		Timeout:         time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	})
	return eng, cfg, nil
}
