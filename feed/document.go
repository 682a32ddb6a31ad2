package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Reserved top-level block names injected by Sign and consumed by Verify.
const (
	TrustBlockName     = "trust"
	SignatureBlockName = "signature"
)

// Document is a feed: a JSON object whose top-level members ("blocks") are
// individually addressable for signing.
//
// Top-level key order is preserved across parse and serialization so that the
// default signed-block list is stable for a given input document. Block values
// are kept as raw JSON; canonicalization happens only when a payload is built.
type Document struct {
	keys   []string
	blocks map[string]json.RawMessage
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{blocks: map[string]json.RawMessage{}}
}

// ParseDocument parses a JSON object into a Document, preserving top-level
// key order. Inputs that are not a single JSON object are rejected, as are
// duplicate top-level keys (a duplicate would make block membership ambiguous).
func ParseDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, wrapError(KindCanonical, RuleInvalidDocument, "feed must be valid JSON", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, newError(KindCanonical, RuleInvalidDocument, "feed must be a JSON object")
	}

	doc := NewDocument()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, wrapError(KindCanonical, RuleInvalidDocument, "malformed feed object", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, newError(KindCanonical, RuleInvalidDocument, "malformed feed object key")
		}
		if _, exists := doc.blocks[key]; exists {
			return nil, newError(KindCanonical, RuleInvalidDocument, fmt.Sprintf("duplicate top-level block %q", key))
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, wrapError(KindCanonical, RuleInvalidDocument, fmt.Sprintf("malformed value for block %q", key), err)
		}
		doc.keys = append(doc.keys, key)
		doc.blocks[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, wrapError(KindCanonical, RuleInvalidDocument, "malformed feed object", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, newError(KindCanonical, RuleInvalidDocument, "trailing data after feed object")
	}
	return doc, nil
}

// DocumentFromValue builds a Document from any JSON-marshalable value
// whose serialization is a JSON object.
func DocumentFromValue(v any) (*Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, wrapError(KindCanonical, RuleInvalidDocument, "value is not JSON-marshalable", err)
	}
	return ParseDocument(b)
}

// Keys returns the top-level block names in document order.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Len returns the number of top-level blocks.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Block returns the raw JSON value of a top-level block.
func (d *Document) Block(name string) (json.RawMessage, bool) {
	if d == nil {
		return nil, false
	}
	raw, ok := d.blocks[name]
	return raw, ok
}

// Has reports whether the document contains a top-level block.
func (d *Document) Has(name string) bool {
	_, ok := d.Block(name)
	return ok
}

// Set marshals v and stores it under name. New blocks append to the key order;
// existing blocks keep their position.
func (d *Document) Set(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return wrapError(KindCanonical, RuleInvalidDocument, fmt.Sprintf("block %q is not JSON-marshalable", name), err)
	}
	d.SetRaw(name, raw)
	return nil
}

// SetRaw stores raw JSON under name without validation.
func (d *Document) SetRaw(name string, raw json.RawMessage) {
	if d.blocks == nil {
		d.blocks = map[string]json.RawMessage{}
	}
	if _, exists := d.blocks[name]; !exists {
		d.keys = append(d.keys, name)
	}
	d.blocks[name] = append(json.RawMessage(nil), raw...)
}

// Delete removes a top-level block. It is a no-op for absent blocks.
func (d *Document) Delete(name string) {
	if d == nil || d.blocks == nil {
		return
	}
	if _, exists := d.blocks[name]; !exists {
		return
	}
	delete(d.blocks, name)
	for i, k := range d.keys {
		if k == name {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Clone returns an independent shallow copy of the document.
func (d *Document) Clone() *Document {
	out := NewDocument()
	if d == nil {
		return out
	}
	out.keys = append([]string(nil), d.keys...)
	for k, v := range d.blocks {
		out.blocks[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// MarshalJSON serializes the document with blocks in document order.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		raw := d.blocks[k]
		if len(raw) == 0 {
			buf.WriteString("null")
			continue
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the document's contents.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}
