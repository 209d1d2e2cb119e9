package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/eslens/internal/app"
	"github.com/abhisek/eslens/internal/logger"
	"github.com/abhisek/eslens/internal/store"
)

// runApp opens the store, builds the pipeline, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// The terminal belongs to the UI; logs go next to the database.
	logPath := filepath.Join(filepath.Dir(dbPath), "eslens.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log := logger.NewWithWriter(logFile, cfg.Logging.Level, false, true)

	p, err := buildPipeline(ctx, st, cfg, log)
	if err != nil {
		stderr := cmd.ErrOrStderr()
		fmt.Fprintln(stderr, "LLM provider not configured:", err)
		fmt.Fprintln(stderr, "Set GEMINI_API_KEY, ANTHROPIC_API_KEY, OPENAI_API_KEY or OPENROUTER_API_KEY and try again.")
		return err
	}
	log.Info().Str("db", dbPath).Msg("terminal client starting")

	skipWelcome, _ := cmd.Flags().GetBool("skip-welcome")
	return app.Run(app.Options{
		Sessions:        p.sessions,
		DefaultLanguage: cfg.Session.DefaultLanguage,
		SkipWelcome:     skipWelcome,
	})
}
