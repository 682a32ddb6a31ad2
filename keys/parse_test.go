package keys

import (
	"bytes"
	"crypto/ed25519"
	"testing"
)

func TestParsePrivateKey_AllEncodingsEquivalent(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	der, err := Base64ToBytes(kp.PrivateKeyBase64)
	if err != nil {
		t.Fatalf("decode PKCS#8 base64: %v", err)
	}
	seed, err := SeedFromPKCS8(der)
	if err != nil {
		t.Fatalf("SeedFromPKCS8 failed: %v", err)
	}

	encodings := map[string]string{
		"pkcs8-base64": kp.PrivateKeyBase64,
		"pkcs8-pem":    kp.PrivateKeyPEM,
		"raw-seed":     BytesToBase64(seed),
	}
	var first ed25519.PrivateKey
	for name, enc := range encodings {
		priv, err := ParsePrivateKey(enc)
		if err != nil {
			t.Fatalf("ParsePrivateKey(%s) failed: %v", name, err)
		}
		if first == nil {
			first = priv
			continue
		}
		if !bytes.Equal(priv, first) {
			t.Fatalf("ParsePrivateKey(%s) yielded a different key", name)
		}
	}
}

func TestParsePrivateKey_ToleratesSurroundingWhitespace(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	priv, err := ParsePrivateKey("  \n" + kp.PrivateKeyBase64 + "\n  ")
	if err != nil {
		t.Fatalf("ParsePrivateKey failed: %v", err)
	}
	want, _ := ParsePrivateKey(kp.PrivateKeyBase64)
	if !bytes.Equal(priv, want) {
		t.Fatalf("whitespace changed the parsed key")
	}
}

func TestParsePrivateKey_Rejections(t *testing.T) {
	for name, in := range map[string]string{
		"empty":        "",
		"not-base64":   "%%%",
		"wrong-length": BytesToBase64(make([]byte, 16)),
		"bad-pkcs8":    BytesToBase64(make([]byte, 48)),
	} {
		if _, err := ParsePrivateKey(in); err == nil {
			t.Fatalf("ParsePrivateKey(%s): expected error", name)
		}
	}
}

func TestParsePublicKey_AllEncodingsEquivalent(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	raw, err := Base64ToBytes(kp.PublicKeyBase64)
	if err != nil {
		t.Fatalf("decode raw base64: %v", err)
	}
	spki, err := WrapPublicKeySPKI(raw)
	if err != nil {
		t.Fatalf("WrapPublicKeySPKI failed: %v", err)
	}

	encodings := map[string]string{
		"raw-base64":  kp.PublicKeyBase64,
		"spki-base64": BytesToBase64(spki),
		"spki-pem":    kp.PublicKeyPEM,
	}
	var first ed25519.PublicKey
	for name, enc := range encodings {
		pub, err := ParsePublicKey(enc)
		if err != nil {
			t.Fatalf("ParsePublicKey(%s) failed: %v", name, err)
		}
		if first == nil {
			first = pub
			continue
		}
		if !bytes.Equal(pub, first) {
			t.Fatalf("ParsePublicKey(%s) yielded a different key", name)
		}
	}
}

func TestParsePublicKey_MatchesPrivate(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	priv, err := ParsePrivateKey(kp.PrivateKeyBase64)
	if err != nil {
		t.Fatalf("ParsePrivateKey failed: %v", err)
	}
	pub, err := ParsePublicKey(kp.PublicKeyBase64)
	if err != nil {
		t.Fatalf("ParsePublicKey failed: %v", err)
	}
	if !bytes.Equal(priv.Public().(ed25519.PublicKey), pub) {
		t.Fatalf("public key does not correspond to private key")
	}
}

func TestParsePublicKey_Rejections(t *testing.T) {
	for name, in := range map[string]string{
		"empty":        "",
		"not-base64":   "%%%",
		"wrong-length": BytesToBase64(make([]byte, 16)),
		"bad-spki":     BytesToBase64(make([]byte, 44)),
	} {
		if _, err := ParsePublicKey(in); err == nil {
			t.Fatalf("ParsePublicKey(%s): expected error", name)
		}
	}
}
