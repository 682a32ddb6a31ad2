package feed

import (
	"bytes"
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// MarshalCanonical is the mandatory canonicalization choke point for feeds.
//
// It serializes v to canonical JSON (RFC 8785): object keys sorted at every
// nesting depth, arrays in element order, compact output with no extraneous
// whitespace, ES6 number formatting. The returned bytes are the only form
// that may be hashed, signed, or content-addressed.
//
// v may be a *Document, raw JSON ([]byte or json.RawMessage), or any
// JSON-marshalable value.
func MarshalCanonical(v any) ([]byte, error) {
	var in []byte
	switch x := v.(type) {
	case nil:
		in = []byte("null")
	case []byte:
		in = x
	case json.RawMessage:
		in = x
	case *Document:
		b, err := x.MarshalJSON()
		if err != nil {
			return nil, wrapError(KindCanonical, RuleCanonicalization, "feed serialization failed", err)
		}
		in = b
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, wrapError(KindCanonical, RuleCanonicalization, "value is not JSON-marshalable", err)
		}
		in = b
	}

	out, err := jcs.Transform(in)
	if err != nil {
		return nil, wrapError(KindCanonical, RuleCanonicalization, "canonicalization failed", err)
	}
	return out, nil
}

// Canonicalize normalizes a JSON-representable value into its canonical form:
// the value decoded back from its canonical serialization, with objects as
// map[string]any, arrays as []any, and numbers as json.Number.
//
// Canonicalize is a pure function of the semantic value and is idempotent:
// two deep-equal values canonicalize identically regardless of construction
// order, and Canonicalize(Canonicalize(v)) == Canonicalize(v).
func Canonicalize(v any) (any, error) {
	b, err := MarshalCanonical(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, wrapError(KindCanonical, RuleCanonicalization, "canonical bytes do not decode", err)
	}
	return out, nil
}
