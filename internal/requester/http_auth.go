package requester

import (
	"fmt"
	"net/http"

	"github.com/brizzai/auto-api/internal/config"
)

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// HTTPAuthManager applies the endpoint's static credentials
type HTTPAuthManager struct {
	authType   config.AuthType
	authConfig map[string]string
}

// NewHTTPAuthManager creates a new HTTPAuthManager
func NewHTTPAuthManager(endpoint *config.EndpointConfig) *HTTPAuthManager {
	if endpoint == nil {
		return &HTTPAuthManager{authType: config.AuthTypeNone}
	}
	return &HTTPAuthManager{
		authType:   endpoint.AuthType,
		authConfig: endpoint.AuthConfig,
	}
}

// ApplyAuth adds authentication to the request
func (a *HTTPAuthManager) ApplyAuth(req *http.Request) error {
	switch a.authType {
	case "", config.AuthTypeNone:
		return nil
	case config.AuthTypeBasic:
		req.SetBasicAuth(a.authConfig["username"], a.authConfig["password"])
	case config.AuthTypeBearer:
		req.Header.Set("Authorization", "Bearer "+a.authConfig["token"])
	case config.AuthTypeAPIKey:
		header := a.authConfig["header"]
		if header == "" {
			header = "X-API-Key"
		}
		req.Header.Set(header, a.authConfig["key"])
	default:
		return fmt.Errorf("unsupported auth type: %s", a.authType)
	}
	return nil
}
