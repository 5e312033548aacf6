package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/kensaku/internal/ranking"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
corpus:
  path: "/srv/corpus.txt"
search:
  rules: [typo, word]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("Addr() = %s", cfg.Server.Addr())
	}
	if cfg.Corpus.Path != "/srv/corpus.txt" {
		t.Errorf("corpus path = %s", cfg.Corpus.Path)
	}
	rules, err := cfg.Search.ParsedRules()
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 2 || rules[0] != ranking.Typo || rules[1] != ranking.Word {
		t.Errorf("rules = %v", rules)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
corpus:
  path: "./dev/sample"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(filepath.Dir(path), "dev", "sample")
	if cfg.Corpus.Path != want {
		t.Errorf("corpus path = %s, want %s", cfg.Corpus.Path, want)
	}
}

func TestLoad_emptyRulesStayEmpty(t *testing.T) {
	cfg, err := Load(writeConfig(t, "search:\n  rules: []\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.Rules == nil || len(cfg.Search.Rules) != 0 {
		t.Errorf("rules = %#v, want empty non-nil", cfg.Search.Rules)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown rule", "search:\n  rules: [word, relevance]\n"},
		{"limit above max", "search:\n  default_limit: 50\n  max_limit: 20\n"},
		{"port out of range", "server:\n  port: 70000\n"},
		{"negative debounce", "watch:\n  debounce_ms: -5\n"},
		{"malformed yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 100 {
		t.Errorf("default limits: got %d/%d", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if len(cfg.Search.Rules) != 3 || cfg.Search.Rules[0] != "word" || cfg.Search.Rules[2] != "exact" {
		t.Errorf("default rules: got %v", cfg.Search.Rules)
	}
	if cfg.Search.MaxSteps != ranking.DefaultMaxSteps {
		t.Errorf("default max_steps: got %d", cfg.Search.MaxSteps)
	}
	if len(cfg.Corpus.Extensions) != 2 || cfg.Corpus.Extensions[0] != ".txt" {
		t.Errorf("corpus extensions: got %v", cfg.Corpus.Extensions)
	}
	if cfg.Watch.Debounce() != 500*time.Millisecond {
		t.Errorf("default debounce: got %s", cfg.Watch.Debounce())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestSearchConfig_StepBudget(t *testing.T) {
	if got := (SearchConfig{MaxSteps: -1}).StepBudget(); got != 0 {
		t.Errorf("negative max_steps: got %d, want 0", got)
	}
	if got := (SearchConfig{MaxSteps: 42}).StepBudget(); got != 42 {
		t.Errorf("StepBudget() = %d, want 42", got)
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{
		Server: ServerConfig{Host: "localhost", Port: 9090},
		Corpus: CorpusConfig{Path: "/tmp/corpus"},
		Watch:  WatchConfig{Enabled: true},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if !loaded.Watch.Enabled || loaded.Corpus.Path != "/tmp/corpus" {
		t.Errorf("loaded config: %+v", loaded)
	}
}
