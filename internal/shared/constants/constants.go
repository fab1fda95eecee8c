package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// Default pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderUserAgent     = "User-Agent"

	// Content Types
	ContentTypeJSON = "application/json"

	// Context keys
	ContextKeySubject   = "auth_subject"
	ContextKeyRequestID = "request_id"

	// Database table names
	TableActors        = "actors"
	TableActorGroups   = "actor_groups"
	TableMemberships   = "memberships"
	TableResources     = "resources"
	TableResourceSites = "resource_sites"
	TableClients       = "clients"
	TablePolicies      = "policies"
	TableFlows         = "flows"
	TableGateways      = "gateways"
	TableSites         = "sites"
	TableRelays        = "relays"
	TableTokens        = "tokens"
	TableFeatures      = "features"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgResourceNotFound    = "Resource not found"
	ErrMsgUnauthorized        = "Unauthorized access"
	ErrMsgForbidden           = "Access forbidden"
	ErrMsgValidationFailed    = "Validation failed"
	ErrMsgConflict            = "Resource already exists"
)
