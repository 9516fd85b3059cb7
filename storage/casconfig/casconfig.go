// Package casconfig opens one or more registered CAS backends from the
// [store] section of the unf configuration file.
package casconfig

import (
	"errors"
	"fmt"

	"xdao.co/unf/storage"
	"xdao.co/unf/storage/casregistry"
)

const (
	// WriteFirst writes only to the first backend; reads fall back in order.
	WriteFirst = "first"
	// WriteAll writes to every backend and requires CID equality.
	WriteAll = "all"
)

// Config describes how to open one or more CAS backends via casregistry.
// Callers still need to link desired backend packages via blank imports.
//
//	[store]
//	write_policy = "all"
//
//	[[store.backends]]
//	name = "localfs"
//	options = { dir = "~/.local/share/unf/reports" }
//
//	[[store.backends]]
//	name = "grpc"
//	id = "team"
//	options = { target = "reports.internal:7450" }
type Config struct {
	WritePolicy string          `toml:"write_policy"`
	Backends    []BackendConfig `toml:"backends"`
}

type BackendConfig struct {
	// Name is the casregistry backend name to open (e.g. "grpc", "localfs").
	Name string `toml:"name"`
	// ID is an optional stable alias used in logs and per-backend CID maps.
	// If empty, Name is used.
	ID      string            `toml:"id,omitempty"`
	Options map[string]string `toml:"options,omitempty"`
}

// Label returns ID, or Name when ID is empty.
func (b BackendConfig) Label() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// Enabled reports whether any backend is configured.
func (c Config) Enabled() bool { return len(c.Backends) > 0 }

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("casconfig: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("casconfig: backend name is required")
		}
		id := b.Label()
		if _, ok := seen[id]; ok {
			return fmt.Errorf("casconfig: duplicate backend id %q", id)
		}
		seen[id] = struct{}{}
	}
	switch c.WritePolicy {
	case "", WriteFirst, WriteAll:
		return nil
	default:
		return fmt.Errorf("casconfig: invalid write_policy %q", c.WritePolicy)
	}
}

// Open opens a CAS per config.
//
// If preferred is non-empty, backends are reordered so preferred is first
// (and thus used for writes under the "first" policy).
func (c Config) Open(usage casregistry.Usage, preferred string) (storage.CAS, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	ordered := append([]BackendConfig(nil), c.Backends...)
	if preferred != "" {
		idx := -1
		for i := range ordered {
			if ordered[i].Name == preferred || ordered[i].ID == preferred {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, fmt.Errorf("casconfig: preferred backend %q not found in config", preferred)
		}
		if idx != 0 {
			b := ordered[idx]
			copy(ordered[1:idx+1], ordered[0:idx])
			ordered[0] = b
		}
	}

	named := make([]storage.NamedCAS, 0, len(ordered))
	closers := make([]func() error, 0, len(ordered))
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	for _, b := range ordered {
		cas, closeFn, err := casregistry.Open(b.Name, usage, casregistry.Options(b.Options))
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("casconfig: backend %q: %w", b.Label(), err)
		}
		named = append(named, storage.NamedCAS{Name: b.Label(), CAS: cas})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	if len(named) == 1 {
		return named[0].CAS, closeAll, nil
	}
	if c.WritePolicy == WriteAll {
		return storage.ReplicatingCAS{Backends: named}, closeAll, nil
	}
	adapters := make([]storage.CAS, 0, len(named))
	for _, n := range named {
		adapters = append(adapters, n.CAS)
	}
	return storage.MultiCAS{Adapters: adapters}, closeAll, nil
}
