package config

import (
	"github.com/hyperjump/kensaku/internal/corpus"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/ranking"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Corpus.Extensions == nil {
		cfg.Corpus.Extensions = append([]string(nil), corpus.DefaultExtensions...)
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = models.DefaultLimit
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = models.DefaultMaxLimit
	}
	// An explicit empty list keeps ranking disabled.
	if cfg.Search.Rules == nil {
		cfg.Search.Rules = []string{ranking.Word.String(), ranking.Typo.String(), ranking.Exact.String()}
	}
	if cfg.Search.MaxSteps == 0 {
		cfg.Search.MaxSteps = ranking.DefaultMaxSteps
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 500
	}
}
