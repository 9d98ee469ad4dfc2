// Package cmd contains the Cobra root command for chatdb.
//
// Design decision: the root command launches the TUI directly.
// Connection details are entered in the TUI's sidebar form, not via CLI
// flags; the config file only pre-fills that form and picks the model.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/DachengChen/chatdb/ai"
	"github.com/DachengChen/chatdb/applog"
	"github.com/DachengChen/chatdb/chat"
	"github.com/DachengChen/chatdb/config"
	"github.com/DachengChen/chatdb/db"
	"github.com/DachengChen/chatdb/metrics"
	"github.com/DachengChen/chatdb/tui"
)

var rootCmd = &cobra.Command{
	Use:   "chatdb",
	Short: "Chat with your database in natural language",
	Long: `chatdb lets you ask questions about a MySQL, PostgreSQL or SQLite
database in plain language:
  • a language model writes SQL from your question and the schema
  • the SQL runs against the connected database
  • the model phrases the result as an answer

Settings are read from ` + "`config.yaml`" + ` in the chatdb config directory
and CHATDB_* environment variables.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func run(ctx context.Context) error {
	cfg, err := config.Load(afero.NewOsFs(), config.Dir())
	if err != nil {
		return err
	}

	logger, closer, err := applog.Open(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Info("starting", "version", "0.1.0", "config_dir", config.Dir())

	provider, err := ai.NewProvider(ctx, cfg.AI)
	if err != nil {
		logger.Error("ai provider", "error", applog.MaskErr(err))
		return fmt.Errorf("ai provider: %w", err)
	}
	provider = ai.WithLogging(ai.WithRateLimit(provider, cfg.AI.RequestsPerMinute), logger)
	logger.Info("ai provider ready", "provider", provider.Name())

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, logger); err != nil {
				logger.Error("metrics listener", "error", err)
			}
		}()
	}

	session := chat.NewSession(chat.Dependencies{
		Connect: connector(cfg.SSH, logger),
		Queries: ai.NewQuerySynthesizer(provider),
		Answers: ai.NewResponseSynthesizer(provider),
		Logger:  logger,
	})
	defer session.Close()

	err = tui.Start(ctx, session, tui.Options{
		Prefill:  cfg.Database,
		Provider: provider.Name(),
	})
	logger.Info("exiting", "error", err)
	return err
}

// connector opens databases with db.Connect, through the configured SSH
// tunnel when enabled.
func connector(sshCfg config.SSHConfig, logger *slog.Logger) chat.Connector {
	return func(ctx context.Context, desc config.Database) (chat.Source, error) {
		d, err := db.Connect(ctx, desc, sshCfg, logger)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}
