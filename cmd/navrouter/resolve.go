package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navrouter/internal/config"
	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/router"
)

// resolution is the outcome of resolving one URL.
type resolution struct {
	Start   string            `json:"start"`
	Matched bool              `json:"matched"`
	Index   int               `json:"index"`
	ID      string            `json:"id,omitempty"`
	Path    string            `json:"path"`
	Params  map[string]string `json:"params,omitempty"`
	Payload any               `json:"payload,omitempty"`
	Hops    int               `json:"hops"`
	URL     string            `json:"url"`
	History []history.Op      `json:"history"`
	Error   string            `json:"error,omitempty"`
}

func resolveCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <url>...",
		Short: "Resolve URLs against the route manifest",
		Long: `Resolve each URL the way the router would in a fresh tab opened at
that URL: follow redirects, pick the first matching route and render it.

Relative URLs are resolved against baseURL from navrouter.json.

Examples:
  navrouter resolve /users/42
  navrouter resolve --routes routes.yaml /old /docs/intro
  navrouter resolve --json https://app.example.com/legacy/page`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			entries, err := loadEntries(cmd.Context(), opts, cfg)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			results := make([]resolution, 0, len(args))
			failed := 0
			for _, raw := range args {
				res, err := resolveOne(cfg, entries, raw, router.WithLogger(logger))
				if err != nil {
					return err
				}
				if res.Error != "" {
					failed++
				}
				results = append(results, res)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				for _, res := range results {
					printResolution(cmd.OutOrStdout(), res)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d URLs failed to resolve", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

// resolveOne runs a router over a fresh in-memory history at raw. The
// returned error is for unusable input; resolution failures are reported in
// the result.
func resolveOne(cfg *config.Config, entries []router.Entry, raw string, opts ...router.Option) (resolution, error) {
	start, err := startURL(cfg.BaseURL, raw)
	if err != nil {
		return resolution{}, err
	}
	h, err := history.NewMemory(start)
	if err != nil {
		return resolution{}, err
	}

	r := router.New(append([]router.Option{
		router.WithHistory(h),
		router.WithoutDefault(),
		router.WithParseURL(cfg.ParseFunc()),
		router.WithMaxRedirects(cfg.MaxRedirects),
	}, opts...)...)
	defer r.Dispose()

	sel, err := r.Resolve(entries)

	res := resolution{
		Start:   start,
		Index:   -1,
		Path:    r.ActivePath(),
		URL:     r.URL().String(),
		History: h.Ops(),
	}
	if err != nil {
		res.Error = err.Error()
	}
	if sel != nil {
		res.Matched = true
		res.Index = sel.Index
		res.ID = sel.Entry.ID
		res.Path = sel.ActivePath
		res.Params = sel.Params
		res.Payload = sel.Payload()
		res.Hops = sel.Hops
	}
	return res, nil
}

// startURL resolves raw against base.
func startURL(base, raw string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("base URL %q: %w", base, err)
	}
	u, err := history.Resolve(b, raw)
	if err != nil {
		return "", fmt.Errorf("url %q: %w", raw, err)
	}
	return u.String(), nil
}

func printResolution(w io.Writer, res resolution) {
	fmt.Fprintln(w, res.Start)

	switch {
	case res.Error != "":
		fmt.Fprintf(w, "  \033[31m✗\033[0m %s\n", res.Error)
	case !res.Matched:
		info(w, "no route matched %s", res.Path)
	default:
		label := res.ID
		if label == "" {
			label = fmt.Sprintf("#%d", res.Index)
		}
		success(w, "%s (route %d, %d redirects)", label, res.Index, res.Hops)
		if len(res.Params) > 0 {
			info(w, "params:  %s", formatParams(res.Params))
		}
		if res.Payload != nil {
			info(w, "render:  %v", res.Payload)
		}
	}

	info(w, "url:     %s", res.URL)
	for _, op := range res.History {
		info(w, "history: %s %s", op.Kind, op.URL)
	}
	fmt.Fprintln(w)
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}
	return strings.Join(pairs, " ")
}
