package config

// DefaultModelRole is the model entry used when a role has no entry of its own.
const DefaultModelRole = "default"

// ModelConfig describes one chat model.
//
// Provider is one of "openai", "ollama", "deepseek" or "ark". APIKey may be
// left empty and supplied through the provider's usual environment variable.
type ModelConfig struct {
	Provider    string   `json:"provider" yaml:"provider"`
	Model       string   `json:"model" yaml:"model"`
	BaseURL     string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey      string   `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// DefaultModelConfig returns the default model used by every agent role.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Provider: "openai",
		Model:    "gpt-4o-mini",
	}
}

func (c *ModelConfig) Merge(source *ModelConfig) {
	if source.Provider != "" {
		c.Provider = source.Provider
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.MaxTokens > 0 {
		c.MaxTokens = source.MaxTokens
	}
	if source.Temperature != nil {
		t := *source.Temperature
		c.Temperature = &t
	}
}

// ToolsConfig holds credentials and endpoints of the HTTP-backed tools.
// Empty base URLs select the public endpoints.
type ToolsConfig struct {
	AlphaVantageKey string `json:"alpha_vantage_key,omitempty" yaml:"alpha_vantage_key,omitempty"`
	AlphaVantageURL string `json:"alpha_vantage_url,omitempty" yaml:"alpha_vantage_url,omitempty"`
	TavilyKey       string `json:"tavily_key,omitempty" yaml:"tavily_key,omitempty"`
	TavilyURL       string `json:"tavily_url,omitempty" yaml:"tavily_url,omitempty"`
	// RiskyTools require human approval before a supervised agent runs them.
	RiskyTools []string `json:"risky_tools,omitempty" yaml:"risky_tools,omitempty"`
}

// DefaultToolsConfig requires approval for place_order.
func DefaultToolsConfig() ToolsConfig {
	return ToolsConfig{RiskyTools: []string{"place_order"}}
}

func (c *ToolsConfig) Merge(source *ToolsConfig) {
	if source.AlphaVantageKey != "" {
		c.AlphaVantageKey = source.AlphaVantageKey
	}
	if source.AlphaVantageURL != "" {
		c.AlphaVantageURL = source.AlphaVantageURL
	}
	if source.TavilyKey != "" {
		c.TavilyKey = source.TavilyKey
	}
	if source.TavilyURL != "" {
		c.TavilyURL = source.TavilyURL
	}
	if len(source.RiskyTools) > 0 {
		c.RiskyTools = source.RiskyTools
	}
}

// LogConfig selects the process log level ("debug", "info", "warn",
// "error") and handler format ("text", "json").
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// DefaultLogConfig logs text at info level.
func DefaultLogConfig() LogConfig {
	return LogConfig{Level: "info", Format: "text"}
}

func (c *LogConfig) Merge(source *LogConfig) {
	if source.Level != "" {
		c.Level = source.Level
	}
	if source.Format != "" {
		c.Format = source.Format
	}
}

// ServerConfig configures the tool micro-servers.
type ServerConfig struct {
	Transport  string `json:"transport" yaml:"transport"`
	Addr       string `json:"addr" yaml:"addr"`
	Database   string `json:"database,omitempty" yaml:"database,omitempty"`
	Categories string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// DefaultServerConfig serves over stdio, with 0.0.0.0:8000 for the HTTP
// transports.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Transport:  "stdio",
		Addr:       "0.0.0.0:8000",
		Database:   "expenses.db",
		Categories: "categories.json",
	}
}

func (c *ServerConfig) Merge(source *ServerConfig) {
	if source.Transport != "" {
		c.Transport = source.Transport
	}
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.Database != "" {
		c.Database = source.Database
	}
	if source.Categories != "" {
		c.Categories = source.Categories
	}
}
