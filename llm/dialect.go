package llm

import (
	"fmt"
	"slices"
	"sync"

	"github.com/bleitz/meditai/httpclient"
)

// Dialect maps CompletionRequest and CompletionResponse to one provider's wire format.
//
// Dialects register themselves by name from an init function in their own
// package; importing the package for side effects makes the name resolvable
// from configuration:
//
//	import _ "github.com/bleitz/meditai/llm/openai"
type Dialect interface {
	// Name is the identifier used in configuration ("openai").
	Name() string
	// DefaultBaseURL is used when the config leaves base_url empty.
	DefaultBaseURL() string
	// DefaultModel is used when neither config nor request names a model.
	DefaultModel() string
	// ChatPath is the completion endpoint relative to the base URL.
	ChatPath() string
	// HealthPath is a cheap GET endpoint. Empty disables health checks.
	HealthPath() string
	// Auth builds request credentials from the configured API key.
	Auth(apiKey string) *httpclient.AuthConfig
	// BuildRequest maps req to the provider request body.
	BuildRequest(req CompletionRequest) (any, error)
	// ParseResponse maps the provider response body to a CompletionResponse.
	ParseResponse(body []byte) (*CompletionResponse, error)
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// RegisterDialect makes d resolvable by name.
func RegisterDialect(name string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

// GetDialect resolves a registered dialect.
func GetDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown dialect %q (forgot to import driver?)", name)
	}
	return d, nil
}

// Dialects returns the registered dialect names in sorted order.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
