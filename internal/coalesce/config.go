package coalesce

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config groups the runner's tunables. Values are taken from environment
// variables with the prefix "INBOXFW". Example: INBOXFW_FETCH_TIMEOUT=10s .
type Config struct {
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
}

// LoadConfig populates Config from environment variables (prefix INBOXFW).
func LoadConfig() (Config, error) {
	var c Config
	return c, envconfig.Process("INBOXFW", &c)
}
