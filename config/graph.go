package config

import "time"

// CheckpointConfig selects and parameterizes the checkpoint store.
//
//   - Store: "memory", "file", "sqlite" or "redis"
//   - Path: directory for "file", database file for "sqlite"
//   - URL: connection URL for "redis"
//   - TTL: expiry of a session's checkpoints in "redis" (0 keeps them)
type CheckpointConfig struct {
	Store string   `json:"store" yaml:"store"`
	Path  string   `json:"path,omitempty" yaml:"path,omitempty"`
	URL   string   `json:"url,omitempty" yaml:"url,omitempty"`
	TTL   Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// DefaultCheckpointConfig keeps checkpoints in memory.
func DefaultCheckpointConfig() CheckpointConfig {
	return CheckpointConfig{Store: "memory"}
}

func (c *CheckpointConfig) Merge(source *CheckpointConfig) {
	if source.Store != "" {
		c.Store = source.Store
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.URL != "" {
		c.URL = source.URL
	}
	if source.TTL > 0 {
		c.TTL = source.TTL
	}
}

// GraphConfig configures graph runners.
//
// Observer names an entry of the observability registry ("slog", "noop").
// MaxSteps bounds the steps of a single Start or Resume.
type GraphConfig struct {
	Name       string           `json:"name" yaml:"name"`
	Observer   string           `json:"observer" yaml:"observer"`
	MaxSteps   int              `json:"max_steps" yaml:"max_steps"`
	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint"`
}

// DefaultGraphConfig returns the defaults for a graph called name.
func DefaultGraphConfig(name string) GraphConfig {
	return GraphConfig{
		Name:       name,
		Observer:   "slog",
		MaxSteps:   1000,
		Checkpoint: DefaultCheckpointConfig(),
	}
}

func (c *GraphConfig) Merge(source *GraphConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.MaxSteps > 0 {
		c.MaxSteps = source.MaxSteps
	}
	c.Checkpoint.Merge(&source.Checkpoint)
}

// Duration is a time.Duration written as "30s" or "24h" in config files.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
