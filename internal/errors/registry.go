package errors

// Registered error codes.
const (
	CodeRouterUndefined  = "N001"
	CodeRedirectCycle    = "N002"
	CodeRedirectLimit    = "N003"
	CodeRouterDisposed   = "N004"
	CodeUnknownField     = "N005"
	CodeHistoryFailed    = "N006"
	CodeManifestRead     = "N010"
	CodeManifestInvalid  = "N011"
	CodeManifestFormat   = "N012"
	CodeHandshakeFailed  = "N020"
	CodeRemoteProtocol   = "N021"
	CodeRemoteClosed     = "N022"
	CodeConfigInvalid    = "N030"
	CodeConfigUnreadable = "N031"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
	DocURL     string
}

const docBase = "https://vango.dev/docs/navrouter/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Router (N001-N009)
	// ============================================

	CodeRouterUndefined: {
		Category:   CategoryConfig,
		Message:    "Router must be defined in href",
		Suggestion: "Create a router with router.New before building links, or pass one with router.WithRouter",
		DocURL:     docBase + CodeRouterUndefined,
	},
	CodeRedirectCycle: {
		Category:   CategoryNavigation,
		Message:    "Redirect cycle detected",
		Suggestion: "Remove one of the redirects or point it at a terminal route",
		DocURL:     docBase + CodeRedirectCycle,
	},
	CodeRedirectLimit: {
		Category:   CategoryNavigation,
		Message:    "Too many redirect hops",
		Suggestion: "Shorten the redirect chain or raise the limit with router.WithMaxRedirects",
		DocURL:     docBase + CodeRedirectLimit,
	},
	CodeRouterDisposed: {
		Category: CategoryRuntime,
		Message:  "Router disposed",
		DocURL:   docBase + CodeRouterDisposed,
	},
	CodeUnknownField: {
		Category:   CategoryRuntime,
		Message:    "Unknown router state field",
		Suggestion: "Subscribe to one of: url, activePath, routes, selection",
		DocURL:     docBase + CodeUnknownField,
	},
	CodeHistoryFailed: {
		Category: CategoryRuntime,
		Message:  "History update failed",
		DocURL:   docBase + CodeHistoryFailed,
	},

	// ============================================
	// Route manifests (N010-N019)
	// ============================================

	CodeManifestRead: {
		Category: CategoryManifest,
		Message:  "Route manifest could not be read",
		DocURL:   docBase + CodeManifestRead,
	},
	CodeManifestInvalid: {
		Category:   CategoryManifest,
		Message:    "Route manifest is invalid",
		Suggestion: "Each route needs exactly one of path, pattern, glob or template, and exactly one of render or redirect",
		DocURL:     docBase + CodeManifestInvalid,
	},
	CodeManifestFormat: {
		Category:   CategoryManifest,
		Message:    "Unsupported route manifest format",
		Suggestion: "Use a .json, .yaml, .yml or .toml file",
		DocURL:     docBase + CodeManifestFormat,
	},

	// ============================================
	// Remote history (N020-N029)
	// ============================================

	CodeHandshakeFailed: {
		Category: CategoryProtocol,
		Message:  "Remote history handshake failed",
		DocURL:   docBase + CodeHandshakeFailed,
	},
	CodeRemoteProtocol: {
		Category: CategoryProtocol,
		Message:  "Malformed remote history frame",
		DocURL:   docBase + CodeRemoteProtocol,
	},
	CodeRemoteClosed: {
		Category: CategoryProtocol,
		Message:  "Remote history connection closed",
		DocURL:   docBase + CodeRemoteClosed,
	},

	// ============================================
	// Configuration (N030-N039)
	// ============================================

	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		DocURL:   docBase + CodeConfigInvalid,
	},
	CodeConfigUnreadable: {
		Category:   CategoryConfig,
		Message:    "Configuration file could not be read",
		Suggestion: "Check that navrouter.json exists and is valid JSON",
		DocURL:     docBase + CodeConfigUnreadable,
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
