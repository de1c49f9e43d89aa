package game

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the rule module of every playable variant.
type Registry struct {
	mu      sync.RWMutex
	modules map[Variant]RuleModule
}

// NewRegistry creates a registry holding the given modules.
func NewRegistry(modules ...RuleModule) *Registry {
	r := &Registry{modules: make(map[Variant]RuleModule)}
	for _, m := range modules {
		r.Register(m)
	}
	return r
}

// Register adds a rule module. Panics on duplicate variants.
func (r *Registry) Register(m RuleModule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := m.Info().Variant
	if _, exists := r.modules[v]; exists {
		panic(fmt.Sprintf("variant %q already registered", v))
	}
	r.modules[v] = m
}

// Get returns the module for a variant.
func (r *Registry) Get(v Variant) (RuleModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[v]
	return m, ok
}

// List returns info for all registered variants, ordered by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.modules))
	for _, m := range r.modules {
		infos = append(infos, m.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Variant < infos[j].Variant })
	return infos
}
