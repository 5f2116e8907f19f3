package cmd

import (
	"fmt"
	"log"
	"time"

	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/repositories"
	"github.com/Plaidmustache/evo-api-ghl-sub000/pkg/db"

	"github.com/spf13/cobra"
)

var sweepOlderThan time.Duration

// Correlation entries only serve status webhooks, which stop arriving days
// after a send; everything older is dead weight. Nothing schedules this,
// it runs when an operator does.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete correlation entries older than the retention window",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepOlderThan, "older-than", 720*time.Hour, "retention window for correlation entries")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	conf := config.LoadConfig(".")
	if conf == nil {
		return fmt.Errorf("failed to load config")
	}

	database, err := db.Connect(bridgeDBConfig(conf))
	if err != nil {
		return fmt.Errorf("failed to connect to bridge database: %w", err)
	}
	defer db.Close(database)

	repo := repositories.NewMessageCorrelationRepository(database)
	cutoff := time.Now().Add(-sweepOlderThan)

	removed, err := repo.DeleteOlderThan(cmd.Context(), cutoff)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	log.Printf("[SWEEP] - Removed %d correlation entries created before %s", removed, cutoff.Format(time.RFC3339))
	return nil
}
