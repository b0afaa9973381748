package router

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/match"
)

// Resolution results, used as metric labels and span attributes.
const (
	resultMatched   = "matched"
	resultUnmatched = "unmatched"
	resultError     = "error"
)

// Resolve is ResolveContext with a background context.
func (r *Router) Resolve(routes []Entry) (*Selection, error) {
	return r.ResolveContext(context.Background(), routes)
}

// ResolveContext scans routes in order against the active path and returns
// the first terminal entry that matches. A matching redirect entry is
// followed with a replace navigation and the scan restarts over the same
// list with the new active path, so a chain of redirects leaves a single
// history entry behind.
//
// No match returns (nil, nil). A chain that revisits an active path fails
// with ErrRedirectCycle, and one longer than the redirect limit with
// ErrRedirectLimit. Either way the history keeps the last location reached.
//
// The result is published into the selection field; routes are not
// registered. ctx carries the trace span only; a pass always runs to
// completion.
func (r *Router) ResolveContext(ctx context.Context, routes []Entry) (*Selection, error) {
	if r.disposed.Load() {
		return nil, errors.New(errors.CodeRouterDisposed).WithDetail("resolve")
	}

	start := time.Now()
	startPath := r.activePath.Get()

	_, span := r.tracer.Start(ctx, "navrouter.resolve",
		trace.WithAttributes(attribute.String("navrouter.active_path", startPath)),
	)
	defer span.End()

	prev := r.resolving
	r.resolving = true
	sel, hops, err := r.resolve(routes)
	r.resolving = prev

	result := resultUnmatched
	switch {
	case err != nil:
		result = resultError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("route resolution failed",
			"active_path", startPath,
			"hops", hops,
			"error", err,
		)
	case sel != nil:
		result = resultMatched
		r.logger.Debug("route resolved",
			"active_path", sel.ActivePath,
			"index", sel.Index,
			"id", sel.Entry.ID,
			"hops", hops,
		)
	default:
		r.logger.Debug("no route matched", "active_path", r.activePath.Get())
	}

	span.SetAttributes(
		attribute.Int("navrouter.hops", hops),
		attribute.String("navrouter.result", result),
	)
	r.metrics.resolved(result, time.Since(start))

	r.selection.Set(sel)
	return sel, err
}

// resolve is the scan loop. Each redirect hop restarts the scan; the loop
// never recurses.
func (r *Router) resolve(routes []Entry) (*Selection, int, error) {
	path := r.activePath.Get()
	chain := []string{path}
	visited := map[string]struct{}{path: {}}
	hops := 0

scan:
	for {
		for i, entry := range routes {
			params, ok := match.Match(path, entry.Path)
			if !ok {
				continue
			}

			if !entry.IsRedirect() {
				return &Selection{
					Entry:      entry,
					Index:      i,
					Params:     params,
					ActivePath: path,
					Hops:       hops,
				}, hops, nil
			}

			if hops >= r.maxRedirects {
				r.metrics.redirectFailed("limit")
				return nil, hops, errors.New(errors.CodeRedirectLimit).
					WithDetailf("more than %d redirects starting at %s", r.maxRedirects, chain[0])
			}

			dest := entry.Redirect(path)
			if err := r.Push(dest, WithReplace()); err != nil {
				return nil, hops, err
			}
			hops++
			r.metrics.hop()

			path = r.activePath.Get()
			chain = append(chain, path)
			if _, seen := visited[path]; seen {
				r.metrics.redirectFailed("cycle")
				return nil, hops, errors.New(errors.CodeRedirectCycle).
					WithDetail(strings.Join(chain, " -> "))
			}
			visited[path] = struct{}{}
			continue scan
		}
		return nil, hops, nil
	}
}

// IsRedirectError reports whether err aborted a redirect chain.
func IsRedirectError(err error) bool {
	return stderrors.Is(err, ErrRedirectCycle) || stderrors.Is(err, ErrRedirectLimit)
}
