package config

import (
	"sync"
	"time"
)

// ScorerConfig points at the CV scoring / JD parsing service.
type ScorerConfig struct {
	BaseURL       string
	Timeout       time.Duration
	ParserDriver  string
	ParserTimeout time.Duration
}

var (
	scorerConfig *ScorerConfig
	scorerOnce   sync.Once
)

func LoadScorerConfig() *ScorerConfig {
	scorerOnce.Do(func() {
		v := Env()
		v.SetDefault("SCORER_URL", "http://localhost:5000")
		v.SetDefault("SCORER_TIMEOUT", 120*time.Second)
		v.SetDefault("PARSER_DRIVER", "http")
		v.SetDefault("PARSER_TIMEOUT", 120*time.Second)

		scorerConfig = &ScorerConfig{
			BaseURL:       v.GetString("SCORER_URL"),
			Timeout:       v.GetDuration("SCORER_TIMEOUT"),
			ParserDriver:  v.GetString("PARSER_DRIVER"),
			ParserTimeout: v.GetDuration("PARSER_TIMEOUT"),
		}
	})
	return scorerConfig
}
