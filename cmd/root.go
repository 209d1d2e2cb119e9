package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/eslens/internal/config"
	"github.com/abhisek/eslens/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "eslens",
	Short: "Homework tutor for English language learners",
	Long: "ESLens reads a photo of homework, translates it into the student's language " +
		"and guides them to the answer with questions instead of giving it away.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides ESLENS_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default ./config.yaml when present)")
	rootCmd.Flags().Bool("skip-welcome", false, "Start on the home screen")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the file named by --config, if any, plus ESLENS_*
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	return config.Load(file)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then ESLENS_DB env var, then database.path from config, then the default
// XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.Database.Path != "" && !envSet("ESLENS_DB") {
		return cfg.Database.Path, store.EnsureDir(cfg.Database.Path)
	}
	return store.DefaultDBPath()
}

// openStore loads config and opens the database it points at.
func openStore(cmd *cobra.Command) (*store.Store, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}
