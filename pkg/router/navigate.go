package router

import (
	"fmt"
	"net/url"

	"github.com/vango-dev/navrouter/internal/errors"
)

// NavigateOptions configures a Push.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Params are query parameters to add to the URL.
	Params map[string]any
}

// NavigateOption is a functional option for Push.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithParams adds query parameters to the navigation URL.
func WithParams(params map[string]any) NavigateOption {
	return func(o *NavigateOptions) {
		o.Params = params
	}
}

// BuildHref applies the options' query parameters to href.
func (o NavigateOptions) BuildHref(href string) (string, error) {
	if len(o.Params) == 0 {
		return href, nil
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href: %s", href)
	}

	q := u.Query()
	for k, v := range o.Params {
		q.Set(k, fmt.Sprintf("%v", v))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Push navigates to href. It adds (or with WithReplace, overwrites) a
// history entry and then writes url and activePath before returning, so
// subscribers of either field have run by the time Push returns. Relative
// hrefs resolve against the history's base URI.
func (r *Router) Push(href string, opts ...NavigateOption) error {
	if r.disposed.Load() {
		return errors.New(errors.CodeRouterDisposed).WithDetailf("push %q", href)
	}

	var options NavigateOptions
	for _, opt := range opts {
		opt(&options)
	}

	target, err := options.BuildHref(href)
	if err != nil {
		return errors.New(errors.CodeHistoryFailed).Wrap(err)
	}

	mode := "push"
	if options.Replace {
		mode = "replace"
		err = r.history.ReplaceState(target)
	} else {
		err = r.history.PushState(target)
	}
	if err != nil {
		return errors.New(errors.CodeHistoryFailed).
			WithDetailf("%s %q", mode, target).
			Wrap(err)
	}

	r.metrics.navigated(mode)
	r.logger.Debug("navigate", "mode", mode, "href", target)
	r.sync()
	return nil
}
