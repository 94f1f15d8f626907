package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parsecdata/wfrun/internal/observability"
	"github.com/parsecdata/wfrun/internal/server"
	"github.com/parsecdata/wfrun/pkg/monitor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run API over HTTP",
	Long: `Serve the job catalog and run submission API over HTTP.

Endpoints:
  GET  /healthz             liveness
  GET  /api/v1/jobs         configured job catalog
  POST /api/v1/runs         submit a run
  GET  /api/v1/runs/{id}    run status`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "listen-host", "", "Listen address (default from config)")
	serveCmd.Flags().IntVar(&servePort, "listen-port", 0, "Listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, cfg, err := backendClient()
	if err != nil {
		return err
	}

	specs, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	serverCfg := cfg.Server
	if serveHost != "" {
		serverCfg.Host = serveHost
	}
	if servePort != 0 {
		serverCfg.Port = servePort
	}

	r := newRunner(client, cfg, monitor.Options{})

	srv := server.New(serverCfg, server.Deps{
		Launcher: r,
		Runs:     client,
		Specs:    specs,
		Version:  versionInfo.Version,
	})

	observability.CLILogger.Info("Starting run service",
		zap.String("addr", srv.Addr()),
		zap.Int("jobs_configured", len(specs)))

	if err := srv.Start(ctx); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "HTTP server failed", err)
	}
	return nil
}
