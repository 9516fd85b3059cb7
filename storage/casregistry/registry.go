// Package casregistry maps backend names to constructors so stores can be
// selected from configuration. Backends register themselves in init(); a
// binary enables one by importing its package, often as a blank import.
package casregistry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"xdao.co/unf/storage"
)

// Options are backend-specific settings taken verbatim from configuration.
type Options map[string]string

// String returns the trimmed value for key, or def when unset or blank.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// Backend is a build-time plugin that can open a storage.CAS implementation.
type Backend struct {
	Name        string
	Description string
	Usage       Usage
	// Keys documents the option keys Open understands.
	Keys []string

	// Open constructs the CAS. It returns an optional close function.
	Open func(opts Options) (storage.CAS, func() error, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register registers a backend.
func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("casregistry: backend name is required")
	}
	if b.Open == nil {
		return fmt.Errorf("casregistry: backend %q missing Open", b.Name)
	}
	if b.Usage == 0 {
		return fmt.Errorf("casregistry: backend %q missing Usage", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("casregistry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns backends matching usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns backend names matching usage, sorted.
func Names(usage Usage) []string {
	bs := List(usage)
	n := make([]string, 0, len(bs))
	for _, b := range bs {
		n = append(n, b.Name)
	}
	return n
}

// Open opens the named backend if it exists and matches usage. Option keys
// the backend does not document are rejected.
func Open(name string, usage Usage, opts Options) (storage.CAS, func() error, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("casregistry: unknown backend %q (linked: %s)", name, strings.Join(Names(usage), ", "))
	}
	if !b.Usage.allows(usage) {
		return nil, nil, fmt.Errorf("casregistry: backend %q not supported in this binary", name)
	}
	for key := range opts {
		if !contains(b.Keys, key) {
			return nil, nil, fmt.Errorf("casregistry: backend %q: unknown option %q", name, key)
		}
	}
	return b.Open(opts)
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}
