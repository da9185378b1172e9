package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbarbosa/descobre/internal/config"
	"github.com/pbarbosa/descobre/internal/session"
)

var pruneOlderThan time.Duration

// pruneCmd represents the prune command
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove stale session data",
	Long: `Remove session language choices and search snapshots that have not
been touched for longer than the given duration. The running server
prunes on its own; this command is for offline maintenance.`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "Age after which session data is removed")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	sessions, err := session.NewStore(filepath.Join(cfg.DataDir, "sessions.db"))
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() { _ = sessions.Close() }()

	cutoff := time.Now().Add(-pruneOlderThan)
	if err := sessions.PruneBefore(cmd.Context(), cutoff); err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	fmt.Printf("Pruned session data older than %s\n", pruneOlderThan)
	return nil
}
