package config_test

import (
	"path/filepath"
	"testing"

	"xdao.co/feedsign/archive"
	"xdao.co/feedsign/archive/config"
	"xdao.co/feedsign/archive/registry"

	_ "xdao.co/feedsign/archive/localdir"
)

func twoBackendConfig(t *testing.T, policy string) (config.Config, string, string) {
	t.Helper()
	dirA := filepath.Join(t.TempDir(), "a")
	dirB := filepath.Join(t.TempDir(), "b")
	cfg := config.Config{
		WritePolicy: policy,
		Backends: []config.BackendConfig{
			{Name: "localdir", ID: "a", Config: map[string]string{"localdir-dir": dirA}},
			{Name: "localdir", ID: "b", Config: map[string]string{"localdir-dir": dirB}},
		},
	}
	return cfg, dirA, dirB
}

func TestOpen_WritePolicyFirst(t *testing.T) {
	cfg, _, _ := twoBackendConfig(t, "first")

	store, closeFn, err := cfg.Open(registry.UsageCLI, "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer closeFn()

	if _, ok := store.(archive.FallbackStore); !ok {
		t.Fatalf("expected FallbackStore, got %T", store)
	}

	id, err := store.Put([]byte("policy first"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !store.Has(id) {
		t.Fatalf("Has after Put failed")
	}
}

func TestOpen_WritePolicyAll(t *testing.T) {
	cfg, _, _ := twoBackendConfig(t, "all")

	store, closeFn, err := cfg.Open(registry.UsageCLI, "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer closeFn()

	mirror, ok := store.(archive.MirrorStore)
	if !ok {
		t.Fatalf("expected MirrorStore, got %T", store)
	}

	id, perBackend, err := mirror.PutAll([]byte("policy all"))
	if err != nil {
		t.Fatalf("PutAll failed: %v", err)
	}
	if len(perBackend) != 2 {
		t.Fatalf("expected 2 backend writes, got %v", perBackend)
	}
	for name, got := range perBackend {
		if got != id {
			t.Fatalf("backend %s CID mismatch", name)
		}
	}
}

func TestOpen_PreferredBackendReordering(t *testing.T) {
	cfg, _, _ := twoBackendConfig(t, "first")

	if _, _, err := cfg.Open(registry.UsageCLI, "ghost"); err == nil {
		t.Fatalf("expected error for unknown preferred backend")
	}

	store, closeFn, err := cfg.Open(registry.UsageCLI, "b")
	if err != nil {
		t.Fatalf("Open with preferred backend failed: %v", err)
	}
	defer closeFn()
	if _, err := store.Put([]byte("preferred")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
}

func TestOpen_SingleBackendIsUnwrapped(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{Backends: []config.BackendConfig{
		{Name: "localdir", Config: map[string]string{"localdir-dir": dir}},
	}}

	store, closeFn, err := cfg.Open(registry.UsageCLI, "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer closeFn()

	switch store.(type) {
	case archive.FallbackStore, archive.MirrorStore:
		t.Fatalf("single backend should not be wrapped, got %T", store)
	}
}
