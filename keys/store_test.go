package keys

import (
	"bytes"
	"crypto/ed25519"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func testStore(t *testing.T) *KeyStore {
	t.Helper()
	ks, err := CreateKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("CreateKeyStore failed: %v", err)
	}
	return ks
}

func testSeed() []byte {
	return bytes.Repeat([]byte{0x5c}, ed25519.SeedSize)
}

func TestKeyStore_InitializeAndLoadRoot(t *testing.T) {
	ks := testStore(t)

	kp, path, err := ks.InitializeRootKey("alpha", testSeed(), false)
	if err != nil {
		t.Fatalf("InitializeRootKey failed: %v", err)
	}
	if filepath.Base(path) != "root.pem" {
		t.Fatalf("unexpected root key path: %s", path)
	}

	loaded, err := ks.LoadKeyPair("alpha", "")
	if err != nil {
		t.Fatalf("LoadKeyPair failed: %v", err)
	}
	if loaded.PublicKeyBase64 != kp.PublicKeyBase64 {
		t.Fatalf("loaded key differs from created key")
	}
}

func TestKeyStore_PrivateKeyFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	ks := testStore(t)

	_, path, err := ks.InitializeRootKey("alpha", testSeed(), false)
	if err != nil {
		t.Fatalf("InitializeRootKey failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("private key mode: got %o want 600", perm)
	}
}

func TestKeyStore_InitRefusesOverwriteWithoutForce(t *testing.T) {
	ks := testStore(t)

	if _, _, err := ks.InitializeRootKey("alpha", testSeed(), false); err != nil {
		t.Fatalf("InitializeRootKey failed: %v", err)
	}
	if _, _, err := ks.InitializeRootKey("alpha", testSeed(), false); err == nil {
		t.Fatalf("expected error overwriting existing key")
	}
	if _, _, err := ks.InitializeRootKey("alpha", testSeed(), true); err != nil {
		t.Fatalf("InitializeRootKey with overwrite failed: %v", err)
	}
}

func TestKeyStore_DeriveScopeKey(t *testing.T) {
	ks := testStore(t)

	root, _, err := ks.InitializeRootKey("alpha", testSeed(), false)
	if err != nil {
		t.Fatalf("InitializeRootKey failed: %v", err)
	}
	scoped, _, err := ks.DeriveScopeKey("alpha", "publisher", false)
	if err != nil {
		t.Fatalf("DeriveScopeKey failed: %v", err)
	}
	if scoped.PublicKeyBase64 == root.PublicKeyBase64 {
		t.Fatalf("scope key equals root key")
	}

	// Derivation is deterministic: re-deriving yields the same key.
	again, _, err := ks.DeriveScopeKey("alpha", "publisher", true)
	if err != nil {
		t.Fatalf("re-DeriveScopeKey failed: %v", err)
	}
	if again.PublicKeyBase64 != scoped.PublicKeyBase64 {
		t.Fatalf("scope derivation not deterministic")
	}

	loaded, err := ks.LoadKeyPair("alpha", "publisher")
	if err != nil {
		t.Fatalf("LoadKeyPair(scope) failed: %v", err)
	}
	if loaded.PublicKeyBase64 != scoped.PublicKeyBase64 {
		t.Fatalf("loaded scope key differs")
	}
}

func TestKeyStore_DeriveFromMissingRoot(t *testing.T) {
	ks := testStore(t)
	if _, _, err := ks.DeriveScopeKey("ghost", "publisher", false); err == nil {
		t.Fatalf("expected error deriving from missing root")
	}
}

func TestKeyStore_List(t *testing.T) {
	ks := testStore(t)

	if entries, err := ks.List(); err != nil || len(entries) != 0 {
		t.Fatalf("empty store: got %v err=%v", entries, err)
	}

	if _, _, err := ks.InitializeRootKey("beta", testSeed(), false); err != nil {
		t.Fatalf("InitializeRootKey failed: %v", err)
	}
	if _, _, err := ks.InitializeRootKey("alpha", testSeed(), false); err != nil {
		t.Fatalf("InitializeRootKey failed: %v", err)
	}
	if _, _, err := ks.DeriveScopeKey("alpha", "publisher", false); err != nil {
		t.Fatalf("DeriveScopeKey failed: %v", err)
	}
	if _, _, err := ks.DeriveScopeKey("alpha", "mirror", false); err != nil {
		t.Fatalf("DeriveScopeKey failed: %v", err)
	}

	entries, err := ks.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List: got %d entries want 2", len(entries))
	}
	if entries[0].Name != "alpha" || entries[1].Name != "beta" {
		t.Fatalf("List order: got %v", entries)
	}
	if len(entries[0].Scopes) != 2 || entries[0].Scopes[0] != "mirror" || entries[0].Scopes[1] != "publisher" {
		t.Fatalf("alpha scopes: got %v", entries[0].Scopes)
	}
}

func TestCheckKeyName(t *testing.T) {
	for _, ok := range []string{"alpha", "Alpha-1", "a_b-c"} {
		if err := CheckKeyName(ok); err != nil {
			t.Fatalf("CheckKeyName(%q) failed: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "a/b", "a b", "a.b", "../x"} {
		if err := CheckKeyName(bad); err == nil {
			t.Fatalf("CheckKeyName(%q): expected error", bad)
		}
	}
}

func TestParseSeedHex(t *testing.T) {
	hex64 := "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f"
	seed, err := ParseSeedHex(hex64)
	if err != nil {
		t.Fatalf("ParseSeedHex failed: %v", err)
	}
	if len(seed) != ed25519.SeedSize {
		t.Fatalf("seed length: got %d", len(seed))
	}
	if _, err := ParseSeedHex("0x" + hex64); err != nil {
		t.Fatalf("ParseSeedHex with 0x prefix failed: %v", err)
	}
	if _, err := ParseSeedHex("abcd"); err == nil {
		t.Fatalf("expected error for short hex")
	}
	if _, err := ParseSeedHex("zz"); err == nil {
		t.Fatalf("expected error for non-hex")
	}
}
