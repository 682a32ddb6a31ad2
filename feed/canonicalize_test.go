package feed

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestMarshalCanonical_SortsKeysRecursively(t *testing.T) {
	in := []byte(`{"b": {"y": 2, "x": 1}, "a": 3}`)
	got, err := MarshalCanonical(json.RawMessage(in))
	if err != nil {
		t.Fatalf("MarshalCanonical failed: %v", err)
	}
	want := `{"a":3,"b":{"x":1,"y":2}}`
	if string(got) != want {
		t.Fatalf("canonical: got %s want %s", got, want)
	}
}

func TestMarshalCanonical_Idempotent(t *testing.T) {
	in := []byte(`{"b":[1,2,{"q":true}],"a":"text","c":null}`)
	once, err := MarshalCanonical(json.RawMessage(in))
	if err != nil {
		t.Fatalf("MarshalCanonical(1) failed: %v", err)
	}
	twice, err := MarshalCanonical(json.RawMessage(once))
	if err != nil {
		t.Fatalf("MarshalCanonical(2) failed: %v", err)
	}
	if !bytes.Equal(once, twice) {
		t.Fatalf("not idempotent: %s vs %s", once, twice)
	}
}

func TestMarshalCanonical_KeyOrderInvariant(t *testing.T) {
	a := []byte(`{"metadata":{"title":"t","version":"1"},"feed_type":"mcp"}`)
	b := []byte(`{"feed_type":"mcp","metadata":{"version":"1","title":"t"}}`)
	ca, err := MarshalCanonical(json.RawMessage(a))
	if err != nil {
		t.Fatalf("MarshalCanonical(a) failed: %v", err)
	}
	cb, err := MarshalCanonical(json.RawMessage(b))
	if err != nil {
		t.Fatalf("MarshalCanonical(b) failed: %v", err)
	}
	if !bytes.Equal(ca, cb) {
		t.Fatalf("key order changed canonical bytes: %s vs %s", ca, cb)
	}
}

func TestMarshalCanonical_ArrayOrderPreserved(t *testing.T) {
	in := []byte(`{"list":[3,1,2]}`)
	got, err := MarshalCanonical(json.RawMessage(in))
	if err != nil {
		t.Fatalf("MarshalCanonical failed: %v", err)
	}
	if string(got) != `{"list":[3,1,2]}` {
		t.Fatalf("array order changed: %s", got)
	}
}

func TestMarshalCanonical_NumberFormatting(t *testing.T) {
	in := []byte(`{"a":1.0,"b":1e2,"c":0.5}`)
	got, err := MarshalCanonical(json.RawMessage(in))
	if err != nil {
		t.Fatalf("MarshalCanonical failed: %v", err)
	}
	want := `{"a":1,"b":100,"c":0.5}`
	if string(got) != want {
		t.Fatalf("numbers: got %s want %s", got, want)
	}
}

func TestMarshalCanonical_Document(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"z":1,"a":2}`))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	got, err := MarshalCanonical(doc)
	if err != nil {
		t.Fatalf("MarshalCanonical failed: %v", err)
	}
	if string(got) != `{"a":2,"z":1}` {
		t.Fatalf("canonical document: got %s", got)
	}
}

func TestMarshalCanonical_GoValue(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"b": 2, "a": "x"})
	if err != nil {
		t.Fatalf("MarshalCanonical failed: %v", err)
	}
	if string(got) != `{"a":"x","b":2}` {
		t.Fatalf("canonical value: got %s", got)
	}
}

func TestMarshalCanonical_RejectsInvalidJSON(t *testing.T) {
	if _, err := MarshalCanonical(json.RawMessage(`{"a":`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestCanonicalize_ReturnsDecodedValue(t *testing.T) {
	v, err := Canonicalize(json.RawMessage(`{"b":2,"a":1}`))
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", v)
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m))
	}
}

func TestSHA256Hex_EmptyStringVector(t *testing.T) {
	got := SHA256Hex("")
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Fatalf("SHA256Hex(\"\"): got %s want %s", got, want)
	}
}

func TestDigestFor_SupportedAlgorithms(t *testing.T) {
	msg := []byte("digest input")
	for _, alg := range []string{"sha256", "sha512", "sha3-256"} {
		d, err := DigestFor(alg, msg)
		if err != nil {
			t.Fatalf("DigestFor(%s) failed: %v", alg, err)
		}
		if len(d) == 0 {
			t.Fatalf("DigestFor(%s) returned empty digest", alg)
		}
	}
	if _, err := DigestFor("md5", msg); err == nil {
		t.Fatalf("expected error for unsupported algorithm")
	}
}
