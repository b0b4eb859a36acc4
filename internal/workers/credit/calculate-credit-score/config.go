package calculatecreditscore

import (
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// ValidateProfile runs the profile schema check on inline profiles before scoring.
	ValidateProfile bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		ValidateProfile: true,
	}
}

// LoadConfigFrom overrides the defaults with the worker section of the application config.
func LoadConfigFrom(cfg *config.Config) *Config {
	c := LoadConfig()
	wcfg := config.GetWorkerConfig(cfg, config.WorkerCalculateCreditScore)
	if wcfg.Timeout > 0 {
		c.Timeout = config.GetDuration(wcfg.Timeout)
	}
	return c
}
