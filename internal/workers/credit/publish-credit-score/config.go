package publishcreditscore

import (
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/config"
)

type Config struct {
	Timeout  time.Duration
	Enabled  bool
	TopicARN string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}

func LoadConfigFrom(cfg *config.Config) *Config {
	c := LoadConfig()
	wcfg := config.GetWorkerConfig(cfg, config.WorkerPublishCreditScore)
	if wcfg.Timeout > 0 {
		c.Timeout = config.GetDuration(wcfg.Timeout)
	}
	c.Enabled = cfg.Integrations.AWS.SNS.Enabled
	c.TopicARN = cfg.Integrations.AWS.SNS.TopicARN
	return c
}
