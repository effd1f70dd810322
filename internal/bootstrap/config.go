package bootstrap

import "github.com/kbukum/miroapi/internal/config"

// Config is satisfied by any config struct embedding config.ServiceConfig
// and providing its own ApplyDefaults and Validate.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
