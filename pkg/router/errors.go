package router

import (
	"github.com/vango-dev/navrouter/internal/errors"
)

// Sentinels for errors.Is. Errors returned by the router carry the same code
// with occurrence details attached.
var (
	ErrRouterUndefined error = errors.New(errors.CodeRouterUndefined)
	ErrRedirectCycle   error = errors.New(errors.CodeRedirectCycle)
	ErrRedirectLimit   error = errors.New(errors.CodeRedirectLimit)
	ErrDisposed        error = errors.New(errors.CodeRouterDisposed)
	ErrUnknownField    error = errors.New(errors.CodeUnknownField)
	ErrHistory         error = errors.New(errors.CodeHistoryFailed)
)
