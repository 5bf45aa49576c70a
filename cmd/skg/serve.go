package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/scholarkg/scholarkg/internal/query"
	"github.com/scholarkg/scholarkg/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the graph query API over HTTP",
	Long: `Serve the read-only graph projections as a JSON API for any
presentation layer. The store is loaded once at startup; rebuilds require
a restart, which matches the write-once-per-run store lifecycle.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	serveCmd.Flags().String("store", "", "path to the Turtle store (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	storePath, _ := cmd.Flags().GetString("store")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if storePath == "" {
		storePath = cfg.Store.Path
	}

	index, err := query.Load(storePath)
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	srv := server.New(index, logger)
	logger.WithField("addr", addr).Info("serving graph query API")
	if err := http.ListenAndServe(addr, srv); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
