package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/navrouter/internal/server"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve navigation sessions over WebSocket",
		Long: `Serve navigation sessions to browser tabs.

Each tab connects to the WebSocket endpoint, reports its location and
gets a router of its own. The server pushes history changes and rendered
views back to the tab, and follows the tab's back and forward buttons.

Endpoints:
  GET /ws        navigation sessions (serve.wsPath)
  GET /metrics   Prometheus metrics (serve.metricsPath)
  GET /healthz   health check

Examples:
  navrouter serve
  navrouter serve --addr 127.0.0.1:9000 --routes routes.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			entries, err := loadEntries(cmd.Context(), opts, cfg)
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			srv := server.New(&server.Config{
				Addr:         cfg.Serve.Addr,
				WSPath:       cfg.Serve.WSPath,
				MetricsPath:  cfg.Serve.MetricsPath,
				Routes:       entries,
				ParseURL:     cfg.ParseFunc(),
				MaxRedirects: cfg.MaxRedirects,
				CheckOrigin:  server.AllowOrigins(cfg.Serve.AllowedOrigins),
				Registry:     registry,
				Logger:       logger,
			})

			w := cmd.OutOrStdout()
			success(w, "Loaded %d routes", len(entries))
			info(w, "Sessions: ws://%s%s", displayAddr(cfg.Serve.Addr), cfg.Serve.WSPath)
			info(w, "Metrics:  http://%s%s", displayAddr(cfg.Serve.Addr), cfg.Serve.MetricsPath)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from navrouter.json)")
	return cmd
}

// displayAddr fills in a host for addresses like ":8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

