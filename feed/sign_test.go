package feed

import (
	"strings"
	"testing"

	"xdao.co/feedsign/keys"
)

func testFeedDocument(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseDocument([]byte(`{
		"feed_type": "mcp",
		"metadata": {"title": "Example Feed", "version": "1.2.0"},
		"servers": [{"name": "srv-a"}, {"name": "srv-b"}]
	}`))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	return doc
}

func testKeyPair(t *testing.T) *keys.KeyPair {
	t.Helper()
	kp, err := keys.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	return kp
}

func TestSign_RoundTrip(t *testing.T) {
	kp := testKeyPair(t)
	doc := testFeedDocument(t)

	res, err := Sign(doc, kp.PrivateKeyBase64, SignOptions{})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !res.Feed.Has(TrustBlockName) || !res.Feed.Has(SignatureBlockName) {
		t.Fatalf("signed feed missing trust or signature block")
	}

	vr := Verify(res.Feed, kp.PublicKeyBase64)
	if !vr.Valid {
		t.Fatalf("Verify failed: %v", vr.Err)
	}
	if vr.PayloadHash != res.PayloadHash {
		t.Fatalf("payload hash mismatch: sign=%s verify=%s", res.PayloadHash, vr.PayloadHash)
	}
}

func TestSign_DefaultBlocksExcludeReserved(t *testing.T) {
	kp := testKeyPair(t)
	doc := testFeedDocument(t)

	res, err := Sign(doc, kp.PrivateKeyBase64, SignOptions{})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	want := []string{"feed_type", "metadata", "servers"}
	if len(res.SignedBlocks) != len(want) {
		t.Fatalf("SignedBlocks: got %v want %v", res.SignedBlocks, want)
	}
	for i := range want {
		if res.SignedBlocks[i] != want[i] {
			t.Fatalf("SignedBlocks[%d]: got %q want %q", i, res.SignedBlocks[i], want[i])
		}
	}

	// Re-signing an already signed feed must not cover the old trust/signature.
	res2, err := Sign(res.Feed, kp.PrivateKeyBase64, SignOptions{})
	if err != nil {
		t.Fatalf("re-Sign failed: %v", err)
	}
	for _, b := range res2.SignedBlocks {
		if b == TrustBlockName || b == SignatureBlockName {
			t.Fatalf("re-sign covered reserved block %q", b)
		}
	}
}

func TestSign_SelectiveBlocks(t *testing.T) {
	kp := testKeyPair(t)
	doc := testFeedDocument(t)

	res, err := Sign(doc, kp.PrivateKeyBase64, SignOptions{SignedBlocks: []string{"metadata"}})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if len(res.SignedBlocks) != 1 || res.SignedBlocks[0] != "metadata" {
		t.Fatalf("SignedBlocks: got %v", res.SignedBlocks)
	}

	// Unsigned blocks may change freely.
	mutated := res.Feed.Clone()
	if err := mutated.Set("servers", []string{"changed"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if vr := Verify(mutated, kp.PublicKeyBase64); !vr.Valid {
		t.Fatalf("Verify after unsigned mutation failed: %v", vr.Err)
	}

	// Signed blocks may not.
	tampered := res.Feed.Clone()
	if err := tampered.Set("metadata", map[string]string{"title": "evil"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	vr := Verify(tampered, kp.PublicKeyBase64)
	if vr.Valid {
		t.Fatalf("Verify accepted tampered signed block")
	}
	if RuleID(vr.Err) != RuleSignatureInvalid {
		t.Fatalf("rule: got %s want %s", RuleID(vr.Err), RuleSignatureInvalid)
	}
}

func TestSign_ReservedBlockSelectionIsHardError(t *testing.T) {
	kp := testKeyPair(t)
	doc := testFeedDocument(t)

	// An already signed feed has a trust block a caller could name by mistake.
	res, err := Sign(doc, kp.PrivateKeyBase64, SignOptions{})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	for _, reserved := range []string{TrustBlockName, SignatureBlockName} {
		_, err := Sign(res.Feed, kp.PrivateKeyBase64,
			SignOptions{SignedBlocks: []string{"metadata", reserved}})
		if err == nil {
			t.Fatalf("expected error for reserved block %q", reserved)
		}
		if RuleID(err) != RuleReservedBlock {
			t.Fatalf("rule: got %s want %s", RuleID(err), RuleReservedBlock)
		}
		if !IsKind(err, KindSign) {
			t.Fatalf("kind: got %v want KindSign", err)
		}
		if !strings.Contains(err.Error(), reserved) {
			t.Fatalf("error should name the reserved block: %v", err)
		}
	}
}

func TestSign_MissingBlockIsHardError(t *testing.T) {
	kp := testKeyPair(t)
	doc := testFeedDocument(t)

	_, err := Sign(doc, kp.PrivateKeyBase64, SignOptions{SignedBlocks: []string{"metadata", "absent"}})
	if err == nil {
		t.Fatalf("expected error for absent block")
	}
	if RuleID(err) != RuleBlockNotFound {
		t.Fatalf("rule: got %s want %s", RuleID(err), RuleBlockNotFound)
	}
	if !strings.Contains(err.Error(), "absent") {
		t.Fatalf("error should name the missing block: %v", err)
	}
}

func TestSign_KeyEncodingsProduceIdenticalSignature(t *testing.T) {
	kp := testKeyPair(t)
	doc := testFeedDocument(t)
	opts := SignOptions{OmitTimestamp: true}

	seed, err := keys.Base64ToBytes(kp.PrivateKeyBase64)
	if err != nil {
		t.Fatalf("Base64ToBytes failed: %v", err)
	}
	rawSeed := keys.BytesToBase64(seed[len(seed)-32:])

	encodings := map[string]string{
		"pkcs8-base64": kp.PrivateKeyBase64,
		"pkcs8-pem":    kp.PrivateKeyPEM,
		"raw-seed":     rawSeed,
	}

	var first string
	for name, enc := range encodings {
		res, err := Sign(doc, enc, opts)
		if err != nil {
			t.Fatalf("Sign(%s) failed: %v", name, err)
		}
		if first == "" {
			first = res.Signature
			continue
		}
		if res.Signature != first {
			t.Fatalf("Sign(%s) produced a different signature", name)
		}
	}
}

func TestSign_OmitTimestampIsDeterministic(t *testing.T) {
	kp := testKeyPair(t)
	doc := testFeedDocument(t)
	opts := SignOptions{OmitTimestamp: true}

	res1, err := Sign(doc, kp.PrivateKeyBase64, opts)
	if err != nil {
		t.Fatalf("Sign(1) failed: %v", err)
	}
	res2, err := Sign(doc, kp.PrivateKeyBase64, opts)
	if err != nil {
		t.Fatalf("Sign(2) failed: %v", err)
	}
	b1, err := MarshalCanonical(res1.Feed)
	if err != nil {
		t.Fatalf("MarshalCanonical(1) failed: %v", err)
	}
	b2, err := MarshalCanonical(res2.Feed)
	if err != nil {
		t.Fatalf("MarshalCanonical(2) failed: %v", err)
	}
	if string(b1) != string(b2) {
		t.Fatalf("signed feeds differ without timestamps")
	}
}

func TestSign_TrustMetadataRecorded(t *testing.T) {
	kp := testKeyPair(t)
	doc := testFeedDocument(t)

	res, err := Sign(doc, kp.PrivateKeyBase64, SignOptions{
		PublicKeyHint: "registry-key-1",
		TrustLevel:    "publisher",
		Scope:         "prod",
	})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	canon, err := MarshalCanonical(res.Feed)
	if err != nil {
		t.Fatalf("MarshalCanonical failed: %v", err)
	}
	for _, want := range []string{
		`"algorithm":"Ed25519"`,
		`"public_key_hint":"registry-key-1"`,
		`"trust_level":"publisher"`,
		`"scope":"prod"`,
	} {
		if !strings.Contains(string(canon), want) {
			t.Fatalf("trust block missing %s in %s", want, canon)
		}
	}
}

func TestSign_DoesNotMutateInput(t *testing.T) {
	kp := testKeyPair(t)
	doc := testFeedDocument(t)
	before := len(doc.Keys())

	if _, err := Sign(doc, kp.PrivateKeyBase64, SignOptions{}); err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if len(doc.Keys()) != before || doc.Has(TrustBlockName) {
		t.Fatalf("Sign mutated the input document")
	}
}

func TestSign_InvalidPrivateKey(t *testing.T) {
	doc := testFeedDocument(t)
	_, err := Sign(doc, "not a key", SignOptions{})
	if err == nil {
		t.Fatalf("expected error for invalid private key")
	}
	if !IsKind(err, KindKey) {
		t.Fatalf("kind: got %v", err)
	}
}
