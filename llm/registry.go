package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tailored-agentic-units/agentgraph/config"
)

// Factory creates a model from its configuration.
type Factory func(ctx context.Context, cfg config.ModelConfig) (ChatModel, error)

// Registry manages named model configurations with lazy instantiation.
// Configs are stored at registration time; models are created on first Get.
type Registry struct {
	mu      sync.Mutex
	factory Factory
	configs map[string]config.ModelConfig
	models  map[string]ChatModel
}

// NewRegistry creates an empty Registry. A nil factory uses New.
func NewRegistry(factory Factory) *Registry {
	if factory == nil {
		factory = New
	}
	return &Registry{
		factory: factory,
		configs: make(map[string]config.ModelConfig),
		models:  make(map[string]ChatModel),
	}
}

// FromConfig registers every model role of cfg.
func FromConfig(cfg *config.Config, factory Factory) (*Registry, error) {
	r := NewRegistry(factory)
	for role, mc := range cfg.Roles() {
		if err := r.Register(role, mc); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a model configuration under name. The model is created on
// first use.
func (r *Registry) Register(name string, cfg config.ModelConfig) error {
	if name == "" {
		return ErrEmptyModelName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[name]; exists {
		return fmt.Errorf("%w: %s", ErrModelExists, name)
	}
	r.configs[name] = cfg
	return nil
}

// Set registers a ready model under name, replacing any config or cached
// instance.
func (r *Registry) Set(name string, m ChatModel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs[name] = config.ModelConfig{}
	r.models[name] = m
}

// Get returns the named model, instantiating it on first access.
func (r *Registry) Get(ctx context.Context, name string) (ChatModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, registered := r.configs[name]
	if !registered {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	if m, ok := r.models[name]; ok {
		return m, nil
	}

	m, err := r.factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create model %q: %w", name, err)
	}
	r.models[name] = m
	return m, nil
}

// GetOr returns the named model, falling back to the fallback name when name
// is not registered.
func (r *Registry) GetOr(ctx context.Context, name, fallback string) (ChatModel, error) {
	r.mu.Lock()
	_, ok := r.configs[name]
	r.mu.Unlock()

	if !ok {
		name = fallback
	}
	return r.Get(ctx, name)
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
