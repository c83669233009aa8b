package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/disclose/pkg/extract"
	"github.com/praetorian-inc/disclose/pkg/metrics"
	"github.com/praetorian-inc/disclose/pkg/serve"
	"github.com/praetorian-inc/disclose/pkg/store"
)

var (
	serveProfilesPath string
	serveSave         bool
	serveStorePath    string
	serveMetrics      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as streaming server over stdin/stdout",
	Long: `Run Disclose as a long-lived streaming server that accepts extraction requests
via stdin and writes plans to stdout using NDJSON format.

The process loads profiles once at startup and processes requests until
stdin closes, a close request arrives, or SIGTERM is received.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveProfilesPath, "profiles", "", "Path to custom profiles file (YAML or JSONC)")
	serveCmd.Flags().BoolVar(&serveSave, "save", false, "Store transcripts and plans in the database")
	serveCmd.Flags().StringVar(&serveStorePath, "store", "", "Database path (default: store.path from config)")
	serveCmd.Flags().StringVar(&serveMetrics, "metrics-listen", "", "Address for the Prometheus endpoint (default: metrics.listen from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	profiles, err := loadProfiles(serveProfilesPath, "", "")
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}

	var s store.Store
	if serveSave {
		s, err = store.New(store.Config{Path: firstNonEmpty(serveStorePath, cfg.Store.Path)})
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
	}

	core, err := extract.NewCore(extract.Config{
		Profiles: profiles,
		Store:    s,
		Logger:   logger,
		Limits:   limitsFrom(cfg),
	})
	if err != nil {
		if s != nil {
			s.Close()
		}
		return err
	}
	defer core.Close()

	// Set up signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if addr := firstNonEmpty(serveMetrics, cfg.Metrics.Listen); addr != "" {
		ms := metrics.NewServer(addr, cfg.Metrics.Path, logger)
		if err := ms.Start(ctx); err != nil {
			return err
		}
		defer ms.Stop(context.Background())
	}

	logger.WithField("profiles", len(profiles)).Info("serving on stdin/stdout")

	// Create and run server
	srv := serve.NewServer(core, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(ctx)
}
