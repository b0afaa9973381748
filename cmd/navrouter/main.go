package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navrouter/internal/config"
	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/internal/routetable"
	"github.com/vango-dev/navrouter/pkg/router"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	dir      string
	routes   string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "navrouter",
		Short: "Client-side navigation routing from the command line",
		Long: `navrouter resolves URLs against a route manifest the way a
client-side router would, and serves navigation sessions to browser
tabs over WebSocket.

Routes are read from the manifest named in navrouter.json, or from
--routes. Manifests are JSON, YAML or TOML, on disk or in S3.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "Directory containing navrouter.json")
	rootCmd.PersistentFlags().StringVarP(&opts.routes, "routes", "r", "", "Route manifest (file path or s3://bucket/key)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(
		resolveCmd(opts),
		routesCmd(opts),
		serveCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig reads navrouter.json, falling back to defaults, and applies
// flag overrides.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.dir)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger builds the slog handler described by the config.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler), nil
}

// manifestLocation returns the --routes flag, else the config's manifest.
func manifestLocation(opts *globalOptions, cfg *config.Config) (string, error) {
	if opts.routes != "" {
		return opts.routes, nil
	}
	if location := cfg.RoutesPath(); location != "" {
		return location, nil
	}
	return "", errors.New(errors.CodeManifestRead).
		WithDetail("no route manifest configured").
		WithSuggestion("Set \"routes\" in " + config.ConfigFileName + " or pass --routes")
}

// loadManifest reads the manifest from disk or S3.
func loadManifest(ctx context.Context, opts *globalOptions, cfg *config.Config) (*routetable.Manifest, error) {
	location, err := manifestLocation(opts, cfg)
	if err != nil {
		return nil, err
	}

	var client routetable.ObjectGetter
	if strings.HasPrefix(location, "s3://") {
		client = routetable.NewS3Client(routetable.S3Options{
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	}
	return routetable.Load(ctx, location, client)
}

// loadEntries reads and compiles the manifest.
func loadEntries(ctx context.Context, opts *globalOptions, cfg *config.Config) ([]router.Entry, error) {
	m, err := loadManifest(ctx, opts, cfg)
	if err != nil {
		return nil, err
	}
	return m.Build()
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
