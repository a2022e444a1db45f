package gateway

import (
	"sort"
	"sync"

	domainerr "zeen/internal/errors"
)

// Registry maps gateway names to adapters. It is populated once at
// startup and read-only afterwards, but guarded anyway since handlers
// and the payout worker share it.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

// NewRegistry returns a registry holding the given adapters.
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Name()] = g
	}
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(g Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[g.Name()] = g
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[name]
	if !ok {
		return nil, domainerr.ErrUnknownGateway.WithDetail("%q", name)
	}
	return g, nil
}

// Names returns the registered gateway names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
