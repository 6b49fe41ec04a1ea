package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lingoquest/lingoquest/internal/config"
	"github.com/lingoquest/lingoquest/internal/logger"
	"github.com/lingoquest/lingoquest/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "lingoquest",
	Short:         "Gamified language practice engine for LINE chatbots",
	Long:          "LingoQuest serves practice questions, scores answers and runs the XP, badge and reward economy behind a language-learning chatbot.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite path or postgres:// DSN (overrides LINGOQUEST_DB)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(importVocabCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// env bundles what every command needs.
type env struct {
	cfg config.Config
	log *logger.Logger
	st  *store.Store
}

func (e *env) Close() {
	e.st.Close()
	e.log.Sync()
}

// setup loads configuration, builds the logger and opens the store. The --db
// flag wins over LINGOQUEST_DB, which wins over the default XDG path.
func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}

	dsn, err := resolveDB(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	st, err := store.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &env{cfg: cfg, log: log, st: st}, nil
}

func resolveDB(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}
