package feed

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"time"

	"xdao.co/feedsign/keys"
)

// SignatureAlgorithm is the only signature algorithm of the v1 protocol.
const SignatureAlgorithm = "Ed25519"

// TrustBlock is the verification metadata Sign injects under "trust".
type TrustBlock struct {
	SignedBlocks  []string `json:"signed_blocks"`
	Algorithm     string   `json:"algorithm"`
	PublicKeyHint string   `json:"public_key_hint,omitempty"`
	TrustLevel    string   `json:"trust_level,omitempty"`
	Scope         string   `json:"scope,omitempty"`
}

// SignatureBlock carries the signature Sign injects under "signature".
type SignatureBlock struct {
	Value     string `json:"value"`
	CreatedAt string `json:"created_at,omitempty"`
}

// SignOptions controls block selection and trust metadata.
type SignOptions struct {
	// SignedBlocks lists the top-level blocks to cover. Empty means all
	// blocks in document order except the reserved trust/signature blocks.
	SignedBlocks []string

	// PublicKeyHint, TrustLevel and Scope are copied into the trust block
	// when non-empty.
	PublicKeyHint string
	TrustLevel    string
	Scope         string

	// OmitTimestamp suppresses the signature block's created_at field.
	OmitTimestamp bool
}

// SignResult is the outcome of a successful Sign call.
type SignResult struct {
	// Feed is a new document with trust and signature blocks merged in.
	// The input document is not mutated.
	Feed *Document
	// Payload is the exact canonical JSON string whose UTF-8 bytes were signed.
	Payload string
	// PayloadHash is the lowercase hex SHA-256 of Payload, for diagnostics
	// and cross-implementation hash comparison. It is not part of the
	// signature input.
	PayloadHash string
	// Signature is the base64 64-byte Ed25519 signature.
	Signature string
	// SignedBlocks is the block list recorded in the trust block.
	SignedBlocks []string
}

// Sign signs the selected top-level blocks of doc with an Ed25519 private key.
//
// privateKey may be PEM, base64 PKCS#8, or base64 raw seed; the resulting
// signature is identical for the same key in any encoding. Every requested
// block must exist in the document or signing aborts with a block-not-found
// error naming the block; the reserved trust and signature blocks cannot be
// requested, since Sign replaces them.
func Sign(doc *Document, privateKey string, opts SignOptions) (*SignResult, error) {
	if doc == nil {
		return nil, newError(KindSign, RuleInvalidDocument, "nil feed document")
	}

	priv, err := keys.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, wrapError(KindKey, RuleInvalidPrivateKey, "invalid private key", err)
	}

	signedBlocks := append([]string(nil), opts.SignedBlocks...)
	if len(signedBlocks) == 0 {
		for _, k := range doc.Keys() {
			if k == TrustBlockName || k == SignatureBlockName {
				continue
			}
			signedBlocks = append(signedBlocks, k)
		}
	}
	for _, name := range signedBlocks {
		if name == TrustBlockName || name == SignatureBlockName {
			return nil, newError(KindSign, RuleReservedBlock,
				fmt.Sprintf("reserved block %q cannot be signed", name))
		}
		if !doc.Has(name) {
			return nil, newError(KindSign, RuleBlockNotFound,
				fmt.Sprintf("signed block %q not found in feed", name))
		}
	}

	payload, err := buildPayload(doc, signedBlocks, nil)
	if err != nil {
		return nil, err
	}

	sig := ed25519.Sign(priv, payload)

	sigBlock := SignatureBlock{Value: base64.StdEncoding.EncodeToString(sig)}
	if !opts.OmitTimestamp {
		sigBlock.CreatedAt = time.Now().UTC().Format(keys.ISOTimestampFormat)
	}

	out := doc.Clone()
	if err := out.Set(TrustBlockName, TrustBlock{
		SignedBlocks:  signedBlocks,
		Algorithm:     SignatureAlgorithm,
		PublicKeyHint: opts.PublicKeyHint,
		TrustLevel:    opts.TrustLevel,
		Scope:         opts.Scope,
	}); err != nil {
		return nil, err
	}
	if err := out.Set(SignatureBlockName, sigBlock); err != nil {
		return nil, err
	}

	return &SignResult{
		Feed:         out,
		Payload:      string(payload),
		PayloadHash:  SHA256Hex(string(payload)),
		Signature:    sigBlock.Value,
		SignedBlocks: signedBlocks,
	}, nil
}

// buildPayload canonicalizes the sub-document holding exactly the named
// blocks. Blocks absent from doc are skipped; when missing is non-nil their
// names are appended to it instead of being silently dropped.
func buildPayload(doc *Document, blocks []string, missing *[]string) ([]byte, error) {
	sub := NewDocument()
	for _, name := range blocks {
		raw, ok := doc.Block(name)
		if !ok {
			if missing != nil {
				*missing = append(*missing, name)
			}
			continue
		}
		sub.SetRaw(name, raw)
	}
	return MarshalCanonical(sub)
}
