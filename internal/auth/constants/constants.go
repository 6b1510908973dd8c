package constants

const (
	// AuthHeaderName is the name of the Authorization header
	AuthHeaderName = "Authorization"

	// AuthHeaderPrefix is the prefix for the Authorization header value
	AuthHeaderPrefix = "Bearer "

	// TokenQueryParam is the query parameter name for token
	TokenQueryParam = "token"

	// Realm is reported in WWW-Authenticate challenges
	Realm = "auto-api"
)

// PublicPaths never require a token.
var PublicPaths = []string{"/healthz", "/metrics"}
