package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scholarkg/scholarkg/internal/artifacts"
	"github.com/scholarkg/scholarkg/internal/staging"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Load upstream artifacts into the staging database",
	Long: `Load the upstream JSON artifacts into the relational staging database.

Staging is idempotent: re-running it over the same artifacts replaces the
previously staged records. Use 'skg build --from-staging' to build the
graph from the database instead of the artifact files.`,
	RunE: runStage,
}

func init() {
	stageCmd.Flags().String("artifacts", "", "artifacts directory (default from config)")
}

func runStage(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	ctx := context.Background()

	artifactsDir, _ := cmd.Flags().GetString("artifacts")
	if artifactsDir == "" {
		artifactsDir = cfg.Artifacts.Dir
	}

	arts, err := artifacts.NewLoader(artifactsDir, logger).Load(ctx)
	if err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}

	store, err := staging.Open(cfg.Staging.Driver, cfg.Staging.DSN, logger)
	if err != nil {
		return fmt.Errorf("open staging store: %w", err)
	}
	defer store.Close()

	if err := store.StageAll(ctx, arts); err != nil {
		return fmt.Errorf("stage artifacts: %w", err)
	}

	fmt.Printf("Staged %d papers, %d topic assignments, %d similarity pairs in %s\n",
		len(arts.Papers), len(arts.Topics), len(arts.Similarity),
		time.Since(startTime).Round(time.Millisecond))
	return nil
}
