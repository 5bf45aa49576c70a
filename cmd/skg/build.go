package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scholarkg/scholarkg/internal/artifacts"
	"github.com/scholarkg/scholarkg/internal/builder"
	"github.com/scholarkg/scholarkg/internal/models"
	"github.com/scholarkg/scholarkg/internal/rdf"
	"github.com/scholarkg/scholarkg/internal/staging"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the knowledge graph from upstream artifacts",
	Long: `Build the RDF knowledge graph from the JSON artifacts written by the
upstream pipeline stages and persist it as Turtle.

Paper metadata is the only required input. Topic assignments, similarity
pairs and entity enrichment are optional: a missing artifact skips its
stage and the build proceeds with that aspect empty.

Usage:
  skg build                          # read artifacts from the configured directory
  skg build --artifacts data/output  # read artifacts from a specific directory
  skg build --from-staging           # read artifacts from the staging database`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("artifacts", "", "artifacts directory (default from config)")
	buildCmd.Flags().String("out", "", "output path for the Turtle store (default from config)")
	buildCmd.Flags().Bool("from-staging", false, "read artifacts from the staging database instead of files")
}

func runBuild(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	ctx := context.Background()

	artifactsDir, _ := cmd.Flags().GetString("artifacts")
	outPath, _ := cmd.Flags().GetString("out")
	fromStaging, _ := cmd.Flags().GetBool("from-staging")

	if artifactsDir == "" {
		artifactsDir = cfg.Artifacts.Dir
	}
	if outPath == "" {
		outPath = cfg.Store.Path
	}

	var arts *models.Artifacts
	var err error
	if fromStaging {
		store, err := staging.Open(cfg.Staging.Driver, cfg.Staging.DSN, logger)
		if err != nil {
			return fmt.Errorf("open staging store: %w", err)
		}
		defer store.Close()
		arts, err = store.LoadArtifacts(ctx)
		if err != nil {
			return fmt.Errorf("load staged artifacts: %w", err)
		}
	} else {
		arts, err = artifacts.NewLoader(artifactsDir, logger).Load(ctx)
		if err != nil {
			return fmt.Errorf("load artifacts: %w", err)
		}
	}

	store, report, err := builder.New(logger).Build(arts)
	if err != nil {
		return err
	}

	if err := rdf.WriteFile(outPath, store); err != nil {
		return fmt.Errorf("persist store: %w", err)
	}

	fmt.Printf("Knowledge graph build complete (run %s)\n", report.RunID)
	fmt.Printf("  ✓ Papers: %d\n", report.Stats.Papers)
	for _, stage := range report.Stages {
		if stage.Ran {
			fmt.Printf("  ✓ %s: %s\n", stage.Name, stage.Detail)
		} else {
			fmt.Printf("  - %s: skipped (%s)\n", stage.Name, stage.Detail)
		}
	}
	fmt.Printf("  ✓ Entities resolved: %d\n", report.Stats.Entities)
	fmt.Printf("  ✓ Triples: %d\n", report.Stats.Triples)
	fmt.Printf("  ✓ Written to %s in %s\n", outPath, time.Since(startTime).Round(time.Millisecond))
	return nil
}
