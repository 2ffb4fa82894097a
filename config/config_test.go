package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tailored-agentic-units/agentgraph/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	if cfg.Graph.Observer != "slog" {
		t.Errorf("observer = %q, want slog", cfg.Graph.Observer)
	}
	if cfg.Graph.MaxSteps != 1000 {
		t.Errorf("max steps = %d, want 1000", cfg.Graph.MaxSteps)
	}
	if cfg.Graph.Checkpoint.Store != "memory" {
		t.Errorf("checkpoint store = %q, want memory", cfg.Graph.Checkpoint.Store)
	}
	if got := cfg.Model("critic"); got.Provider != "openai" {
		t.Errorf("critic falls back to provider %q, want openai", got.Provider)
	}
	if len(cfg.Tools.RiskyTools) != 1 || cfg.Tools.RiskyTools[0] != "place_order" {
		t.Errorf("risky tools = %v, want [place_order]", cfg.Tools.RiskyTools)
	}
}

func TestGraphConfig_Merge(t *testing.T) {
	tests := []struct {
		name   string
		source config.GraphConfig
		check  func(t *testing.T, got config.GraphConfig)
	}{
		{
			name:   "empty source keeps defaults",
			source: config.GraphConfig{},
			check: func(t *testing.T, got config.GraphConfig) {
				if got.Observer != "slog" || got.MaxSteps != 1000 {
					t.Errorf("got %+v, want defaults", got)
				}
			},
		},
		{
			name: "overrides non-zero values",
			source: config.GraphConfig{
				Observer:   "noop",
				MaxSteps:   25,
				Checkpoint: config.CheckpointConfig{Store: "sqlite", Path: "cp.db"},
			},
			check: func(t *testing.T, got config.GraphConfig) {
				if got.Observer != "noop" || got.MaxSteps != 25 {
					t.Errorf("got %+v", got)
				}
				if got.Checkpoint.Store != "sqlite" || got.Checkpoint.Path != "cp.db" {
					t.Errorf("checkpoint = %+v", got.Checkpoint)
				}
				if got.Name != "base" {
					t.Errorf("name = %q, want base", got.Name)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultGraphConfig("base")
			cfg.Merge(&tt.source)
			tt.check(t, cfg)
		})
	}
}

func TestConfig_MergeModels(t *testing.T) {
	temp := float32(0.2)
	cfg := config.Default()
	cfg.Merge(&config.Config{
		Models: map[string]config.ModelConfig{
			"critic": {Model: "gpt-4o", Temperature: &temp},
		},
	})

	critic := cfg.Model("critic")
	if critic.Provider != "openai" {
		t.Errorf("critic provider = %q, want inherited openai", critic.Provider)
	}
	if critic.Model != "gpt-4o" {
		t.Errorf("critic model = %q, want gpt-4o", critic.Model)
	}
	if critic.Temperature == nil || *critic.Temperature != temp {
		t.Errorf("critic temperature = %v, want %v", critic.Temperature, temp)
	}
	if cfg.Model("generator").Model != "gpt-4o-mini" {
		t.Errorf("generator should use the default model")
	}
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "agents.yaml")
	writeFile(t, path, `
graph:
  max_steps: 40
  checkpoint:
    store: redis
    url: redis://localhost:6379/0
    ttl: 24h
models:
  critic:
    provider: ollama
    model: llama3
log:
  level: debug
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Graph.MaxSteps != 40 {
		t.Errorf("max steps = %d, want 40", cfg.Graph.MaxSteps)
	}
	if cfg.Graph.Checkpoint.TTL.Std() != 24*time.Hour {
		t.Errorf("ttl = %v, want 24h", cfg.Graph.Checkpoint.TTL.Std())
	}
	if cfg.Model("critic").Provider != "ollama" {
		t.Errorf("critic provider = %q, want ollama", cfg.Model("critic").Provider)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoad_JSON(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "agents.json")
	writeFile(t, path, `{
  "graph": {"observer": "noop", "checkpoint": {"store": "file", "ttl": "90m"}},
  "models": {"critic": {"temperature": 0.3}},
  "server": {"transport": "http"}
}`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Graph.Observer != "noop" {
		t.Errorf("observer = %q, want noop", cfg.Graph.Observer)
	}
	if cfg.Server.Transport != "http" || cfg.Server.Addr != "0.0.0.0:8000" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cp := cfg.Graph.Checkpoint; cp.Store != "file" || cp.TTL.Std() != 90*time.Minute {
		t.Errorf("checkpoint = %+v, want file store with 90m ttl", cp)
	}
	if temp := cfg.Model("critic").Temperature; temp == nil || *temp != 0.3 {
		t.Errorf("critic temperature = %v, want 0.3", temp)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	if _, err := config.Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, "{not json")
	if _, err := config.Load(bad); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENTGRAPH_MAX_STEPS", "7")
	t.Setenv("TAVILY_API_KEY", "tvly-test")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AGENTGRAPH_CHECKPOINT_STORE", "sqlite")

	cfg := config.Default()
	if err := config.ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.Graph.MaxSteps != 7 {
		t.Errorf("max steps = %d, want 7", cfg.Graph.MaxSteps)
	}
	if cfg.Tools.TavilyKey != "tvly-test" {
		t.Errorf("tavily key = %q, want unprefixed fallback", cfg.Tools.TavilyKey)
	}
	if cfg.Model(config.DefaultModelRole).APIKey != "sk-test" {
		t.Errorf("openai key not applied to default model")
	}
	if cfg.Graph.Checkpoint.Store != "sqlite" {
		t.Errorf("checkpoint store = %q, want sqlite", cfg.Graph.Checkpoint.Store)
	}
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	writeFile(t, path, "AGENTGRAPH_LOG_LEVEL=warn\n")
	t.Cleanup(func() { os.Unsetenv("AGENTGRAPH_LOG_LEVEL") })

	if err := config.LoadDotenv(filepath.Join(dir, "absent.env"), path); err != nil {
		t.Fatalf("LoadDotenv failed: %v", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q, want warn", cfg.Log.Level)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// clearEnv blanks the variables the tests depend on for the duration of t.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"AGENTGRAPH_MAX_STEPS", "MAX_STEPS",
		"AGENTGRAPH_LOG_LEVEL", "LOG_LEVEL",
		"AGENTGRAPH_CHECKPOINT_STORE", "CHECKPOINT_STORE",
		"AGENTGRAPH_MODEL_PROVIDER", "MODEL_PROVIDER",
		"TAVILY_API_KEY", "OPENAI_API_KEY", "REDIS_URL",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}
