// Package config provides config-driven archive backend selection.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"xdao.co/feedsign/archive"
	"xdao.co/feedsign/archive/registry"
)

// Config describes how to open one or more archive backends via the registry.
//
// Callers still need to link desired backend plugins via blank imports.
//
// WritePolicy values:
//   - "first" (default): write only to the first backend; reads fall back in order
//   - "all": write to all backends and require CID equality (see archive.MirrorStore)
//
// Example:
//
//	{
//	  "write_policy": "all",
//	  "backends": [
//	    {"name":"localdir", "config":{"localdir-dir":"/var/lib/feeds"}},
//	    {"name":"grpc", "config":{"grpc-target":"localhost:7420"}}
//	  ]
//	}
//
// Config values are backend-specific. Each backend documents accepted keys
// (usually mirroring its CLI flag names).
type Config struct {
	WritePolicy string          `json:"write_policy,omitempty"`
	Backends    []BackendConfig `json:"backends"`
}

type BackendConfig struct {
	// Name is the registry backend name to open (e.g. "grpc", "localdir", "ipfs").
	Name string `json:"name"`
	// ID is an optional stable alias used for identification and per-backend CID maps.
	// If empty, Name is used.
	ID     string            `json:"id,omitempty"`
	Config map[string]string `json:"config,omitempty"`
}

func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("config: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("config: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("config: backend name is required")
		}
		id := b.Name
		if b.ID != "" {
			id = b.ID
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("config: duplicate backend id %q", id)
		}
		seen[id] = struct{}{}
	}
	switch c.WritePolicy {
	case "", "first", "all":
		return nil
	default:
		return fmt.Errorf("config: invalid write_policy %q", c.WritePolicy)
	}
}

// Open opens an archive store per config.
//
// If preferredBackend is non-empty, backends are reordered so preferredBackend
// is first (and thus used for writes when WritePolicy=="first").
func (c Config) Open(usage registry.Usage, preferredBackend string) (archive.Store, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	ordered := append([]BackendConfig(nil), c.Backends...)
	if preferredBackend != "" {
		idx := -1
		for i := range ordered {
			if ordered[i].Name == preferredBackend || ordered[i].ID == preferredBackend {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, fmt.Errorf("config: preferred backend %q not found in config", preferredBackend)
		}
		if idx != 0 {
			b := ordered[idx]
			copy(ordered[1:idx+1], ordered[0:idx])
			ordered[0] = b
		}
	}

	named := make([]archive.NamedStore, 0, len(ordered))
	closers := make([]func() error, 0, len(ordered))
	for _, b := range ordered {
		store, closeFn, err := registry.OpenWithConfig(b.Name, usage, b.Config)
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i]()
			}
			return nil, nil, err
		}
		name := b.Name
		if b.ID != "" {
			name = b.ID
		}
		named = append(named, archive.NamedStore{Name: name, Store: store})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	if len(named) == 1 {
		return named[0].Store, closeAll, nil
	}

	switch c.WritePolicy {
	case "", "first":
		backends := make([]archive.Store, 0, len(named))
		for _, n := range named {
			backends = append(backends, n.Store)
		}
		return archive.FallbackStore{Backends: backends}, closeAll, nil
	case "all":
		return archive.MirrorStore{Backends: named}, closeAll, nil
	default:
		return nil, nil, fmt.Errorf("config: invalid write_policy %q", c.WritePolicy)
	}
}
