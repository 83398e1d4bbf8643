package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_RELAY_URL points at a running relay, e.g. ws://localhost:4000/socket. Empty skips the suite.
	RelayURL string `envconfig:"E2E_RELAY_URL"`
	// E2E_DEBUG_JSON dumps every frame exchanged with the relay
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
