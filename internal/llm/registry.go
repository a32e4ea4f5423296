package llm

import (
	"fmt"
	"sort"
	"strings"
)

// ModelRoute binds a logical model name to a provider and the backend model it serves.
type ModelRoute struct {
	Name        string
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Registry maps the logical model names used by agents onto providers.
type Registry struct {
	providers    map[string]Provider
	models       map[string]ModelRoute
	defaultModel string
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		models:    make(map[string]ModelRoute),
	}
}

func (r *Registry) RegisterProvider(name string, p Provider) {
	r.providers[name] = p
}

// RegisterModel adds a route under name. The first model registered is the
// default until one is registered with isDefault.
func (r *Registry) RegisterModel(name string, route ModelRoute, isDefault bool) {
	route.Name = name
	r.models[name] = route
	if isDefault || r.defaultModel == "" {
		r.defaultModel = name
	}
}

func (r *Registry) DefaultModel() string {
	return r.defaultModel
}

// Models returns the registered logical model names in sorted order.
func (r *Registry) Models() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the provider and route for name, or for the default model when name is empty.
func (r *Registry) Resolve(name string) (Provider, ModelRoute, error) {
	if len(r.models) == 0 {
		return nil, ModelRoute{}, fmt.Errorf("no models registered")
	}
	if name == "" {
		name = r.defaultModel
	}
	route, ok := r.models[name]
	if !ok {
		return nil, ModelRoute{}, fmt.Errorf("model %q not registered (known: %s)", name, strings.Join(r.Models(), ", "))
	}
	p, ok := r.providers[route.Provider]
	if !ok {
		return nil, ModelRoute{}, fmt.Errorf("provider %q not registered for model %q", route.Provider, name)
	}
	return p, route, nil
}
