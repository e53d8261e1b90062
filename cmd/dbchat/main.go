// Command dbchat answers natural-language questions about a database.
//
//	dbchat ask --config dbchat.yaml
//	dbchat serve --addr :8080
//	dbchat retrieval-serve --addr :8081
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/dbchat/chat"
	"github.com/tailored-agentic-units/dbchat/observability"
	"github.com/tailored-agentic-units/dbchat/retrieval"
)

var (
	configFile   string
	verbose      bool
	databaseURL  string
	hintsPath    string
	retrievalURL string
	observerName string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "dbchat",
		Short:        "Ask questions about a database in plain language",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogger(verbose)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to config file (JSON or YAML)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging to stderr")
	flags.StringVar(&databaseURL, "db", "", "Database URL, e.g. file:shop.db (overrides config)")
	flags.StringVar(&hintsPath, "hints", "", "Directory of schema notes (overrides config)")
	flags.StringVar(&retrievalURL, "retrieval-url", "", "Use a remote retrieval service at this URL (overrides config)")
	flags.StringVar(&observerName, "observer", "", "Event observer: noop, slog or zerolog (overrides config)")

	root.AddCommand(
		newAgentsCommand(),
		newAskCommand(),
		newServeCommand(),
		newRetrievalServeCommand(),
	)
	return root
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*chat.Config, error) {
	cfg, err := chat.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if databaseURL != "" {
		cfg.Database.URL = databaseURL
	}
	if hintsPath != "" {
		cfg.Hints.Path = hintsPath
	}
	if retrievalURL != "" {
		cfg.Retrieval.Mode = retrieval.ModeRemote
		cfg.Retrieval.URL = retrievalURL
	}
	if observerName != "" {
		cfg.Observer = observerName
	}
	return cfg, nil
}
