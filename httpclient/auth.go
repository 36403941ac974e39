package httpclient

import "net/http"

// AuthType selects how credentials are attached to a request.
type AuthType int

const (
	AuthNone AuthType = iota
	AuthBearer
	AuthAPIKey
)

const defaultAPIKeyHeader = "X-API-Key"

// AuthConfig configures request authentication.
type AuthConfig struct {
	Type AuthType
	// Token is the bearer token (AuthBearer).
	Token string
	// Key is the API key value (AuthAPIKey).
	Key string
	// Header carries the API key. Defaults to X-API-Key.
	Header string
}

// BearerAuth sends "Authorization: Bearer <token>".
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// APIKeyAuth sends the key in the named header.
func APIKeyAuth(key, header string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, Header: header}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthAPIKey:
		header := a.Header
		if header == "" {
			header = defaultAPIKeyHeader
		}
		req.Header.Set(header, a.Key)
	}
}
