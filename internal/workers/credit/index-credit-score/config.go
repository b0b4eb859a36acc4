package indexcreditscore

import (
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	Index   string
	// Refresh is passed to the index request; "wait_for" makes the document searchable before completion.
	Refresh string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Index:   "credit-scores",
		Refresh: "false",
	}
}

func LoadConfigFrom(cfg *config.Config) *Config {
	c := LoadConfig()
	wcfg := config.GetWorkerConfig(cfg, config.WorkerIndexCreditScore)
	if wcfg.Timeout > 0 {
		c.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if cfg.Scoring.ScoreIndex != "" {
		c.Index = cfg.Scoring.ScoreIndex
	}
	return c
}
