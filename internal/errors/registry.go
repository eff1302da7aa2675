package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Description Errors (E001)
	// ============================================

	"E001": {
		Category: CategoryDescription,
		Message:  "Malformed element description",
		Detail:   "Every element needs a non-empty kind. Text children are normalized automatically; anything else must be built with CreateElement or a tag helper.",
	},

	// ============================================
	// Engine Errors (E002-E019)
	// ============================================

	"E002": {
		Category: CategoryHost,
		Message:  "Host mutation failed",
		Detail:   "A host primitive returned an error. The host tree may be partially updated and the engine will not accept further work.",
	},
	"E003": {
		Category: CategoryScheduler,
		Message:  "Engine faulted",
		Detail:   "A previous host mutation failed. Create a new engine for this render surface.",
	},
	"E004": {
		Category: CategoryScheduler,
		Message:  "Nothing to commit",
		Detail:   "Commit requires a fully reconciled work-in-progress tree. A second commit needs a new render request.",
	},
	"E005": {
		Category: CategoryScheduler,
		Message:  "Component rendered nil",
		Detail:   "A component's render function must return an element.",
	},
	"E010": {
		Category: CategoryScheduler,
		Message:  "Engine stopped",
		Detail:   "Render was called after the engine's loop was stopped.",
	},
	"E011": {
		Category: CategoryScheduler,
		Message:  "Render queue full",
		Detail:   "Too many render requests are waiting for the active tree to commit.",
	},

	// ============================================
	// Config Errors (E120-E149)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range.",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
		Detail:   "No fiber.json or fiber.yaml was found.",
	},

	// ============================================
	// Protocol Errors (E160-E169)
	// ============================================

	"E160": {
		Category: CategoryProtocol,
		Message:  "Malformed mutation frame",
		Detail:   "A mutation batch could not be decoded.",
	},
	"E161": {
		Category: CategoryProtocol,
		Message:  "Unknown remote handle",
		Detail:   "A mutation referenced a handle the receiver never created.",
	},
	"E162": {
		Category: CategoryProtocol,
		Message:  "Session closed",
		Detail:   "The session's connection is gone. Open a new session.",
	},
	"E163": {
		Category: CategoryProtocol,
		Message:  "Client too slow",
		Detail:   "The session's send buffer filled before the client drained it.",
	},
}

// Register adds or replaces a custom error template.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
