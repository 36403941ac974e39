package bootstrap

import (
	"github.com/bleitz/meditai/config"
)

// Config is satisfied by any struct embedding config.ServiceConfig that also
// defines its own ApplyDefaults and Validate.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
