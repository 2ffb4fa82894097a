package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the environment variables read by ApplyEnv.
const EnvPrefix = "AGENTGRAPH"

// Config is the process configuration shared by the binaries.
type Config struct {
	Graph  GraphConfig            `json:"graph" yaml:"graph"`
	Models map[string]ModelConfig `json:"models,omitempty" yaml:"models,omitempty"`
	Tools  ToolsConfig            `json:"tools" yaml:"tools"`
	Server ServerConfig           `json:"server" yaml:"server"`
	Log    LogConfig              `json:"log" yaml:"log"`
}

// Default returns a Config with defaults for every section.
func Default() Config {
	return Config{
		Graph:  DefaultGraphConfig("agentgraph"),
		Models: map[string]ModelConfig{DefaultModelRole: DefaultModelConfig()},
		Tools:  DefaultToolsConfig(),
		Server: DefaultServerConfig(),
		Log:    DefaultLogConfig(),
	}
}

// Merge copies the non-zero values of source into c. Model entries are
// merged per role.
func (c *Config) Merge(source *Config) {
	c.Graph.Merge(&source.Graph)
	c.Tools.Merge(&source.Tools)
	c.Server.Merge(&source.Server)
	c.Log.Merge(&source.Log)

	if len(source.Models) > 0 && c.Models == nil {
		c.Models = make(map[string]ModelConfig, len(source.Models))
	}
	for role, src := range source.Models {
		dst, ok := c.Models[role]
		if !ok {
			dst = c.Models[DefaultModelRole]
		}
		dst.Merge(&src)
		c.Models[role] = dst
	}
}

// Model returns the configuration for a role, falling back to the default
// entry.
func (c *Config) Model(role string) ModelConfig {
	if m, ok := c.Models[role]; ok {
		return m
	}
	return c.Models[DefaultModelRole]
}

// Roles returns a copy of the model table.
func (c *Config) Roles() map[string]ModelConfig {
	return maps.Clone(c.Models)
}

// Load reads filename over the defaults and applies environment overrides.
// An empty filename skips the file.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		loaded, err := ReadFile(filename)
		if err != nil {
			return nil, err
		}
		cfg.Merge(loaded)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadFile parses a config file without defaults. Files ending in .yaml or
// .yml are YAML, everything else JSON.
func ReadFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = sonic.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &loaded, nil
}

// LoadDotenv loads .env style files into the process environment. Missing
// files are skipped; variables already set are left alone.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// environment lists the variables ApplyEnv understands. Every variable is
// read as AGENTGRAPH_<NAME> first and as the bare <NAME> second.
type environment struct {
	LogLevel        string   `envconfig:"LOG_LEVEL"`
	LogFormat       string   `envconfig:"LOG_FORMAT"`
	Observer        string   `envconfig:"OBSERVER"`
	MaxSteps        int      `envconfig:"MAX_STEPS"`
	CheckpointStore string   `envconfig:"CHECKPOINT_STORE"`
	CheckpointPath  string   `envconfig:"CHECKPOINT_PATH"`
	CheckpointTTL   Duration `envconfig:"CHECKPOINT_TTL"`
	RedisURL        string   `envconfig:"REDIS_URL"`
	ModelProvider   string   `envconfig:"MODEL_PROVIDER"`
	Model           string   `envconfig:"MODEL"`
	ModelBaseURL    string   `envconfig:"MODEL_BASE_URL"`
	OpenAIKey       string   `envconfig:"OPENAI_API_KEY"`
	DeepSeekKey     string   `envconfig:"DEEPSEEK_API_KEY"`
	ArkKey          string   `envconfig:"ARK_API_KEY"`
	AlphaVantageKey string   `envconfig:"ALPHA_VANTAGE_API_KEY"`
	TavilyKey       string   `envconfig:"TAVILY_API_KEY"`
	ServerAddr      string   `envconfig:"SERVER_ADDR"`
}

// ApplyEnv overrides cfg with the environment.
func ApplyEnv(cfg *Config) error {
	var env environment
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}

	cfg.Merge(&Config{
		Graph: GraphConfig{
			Observer: env.Observer,
			MaxSteps: env.MaxSteps,
			Checkpoint: CheckpointConfig{
				Store: env.CheckpointStore,
				Path:  env.CheckpointPath,
				URL:   env.RedisURL,
				TTL:   env.CheckpointTTL,
			},
		},
		Tools: ToolsConfig{
			AlphaVantageKey: env.AlphaVantageKey,
			TavilyKey:       env.TavilyKey,
		},
		Server: ServerConfig{Addr: env.ServerAddr},
		Log:    LogConfig{Level: env.LogLevel, Format: env.LogFormat},
	})

	def := cfg.Models[DefaultModelRole]
	def.Merge(&ModelConfig{
		Provider: env.ModelProvider,
		Model:    env.Model,
		BaseURL:  env.ModelBaseURL,
	})
	if cfg.Models == nil {
		cfg.Models = make(map[string]ModelConfig)
	}
	cfg.Models[DefaultModelRole] = def

	keys := map[string]string{
		"openai":   env.OpenAIKey,
		"deepseek": env.DeepSeekKey,
		"ark":      env.ArkKey,
	}
	for role, m := range cfg.Models {
		if m.APIKey == "" && keys[m.Provider] != "" {
			m.APIKey = keys[m.Provider]
			cfg.Models[role] = m
		}
	}
	return nil
}
