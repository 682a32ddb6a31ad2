package feed

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"xdao.co/feedsign/keys"
)

// VerifyMode selects how the verifier treats a declared signed block that is
// absent from the document.
//
// Permissive (the protocol default) rebuilds the payload from the blocks that
// still exist; a tampered removal is then caught by the signature mismatch.
// Strict prefers the explicit failure over the less specific hash mismatch.
type VerifyMode int

const (
	ModePermissive VerifyMode = iota
	ModeStrict
)

// VerifyOptions controls verification behavior.
type VerifyOptions struct {
	Mode VerifyMode
}

// VerificationResult reports the outcome of a verification.
//
// Err is a structured *Error naming the first failed check; it is nil exactly
// when Valid is true. Verification never panics and never returns an error to
// the caller outside of this result — probing untrusted input must not crash
// the prober.
type VerificationResult struct {
	Valid        bool
	SignedBlocks []string
	PayloadHash  string
	Err          error
}

// Verify checks the signature of a signed feed document against a public key
// supplied as PEM, base64 SPKI, or base64 raw bytes.
func Verify(doc *Document, publicKey string) VerificationResult {
	return VerifyWithOptions(doc, publicKey, VerifyOptions{})
}

// VerifyStrict is Verify with ModeStrict.
func VerifyStrict(doc *Document, publicKey string) VerificationResult {
	return VerifyWithOptions(doc, publicKey, VerifyOptions{Mode: ModeStrict})
}

// VerifyWithOptions checks the signature of a signed feed document.
//
// Required-field checks run in a fixed order and short-circuit on the first
// failure: trust block, signature block, non-empty signed_blocks, signature
// value. The payload is rebuilt from the document's own declared signed-block
// list, not from any caller expectation.
func VerifyWithOptions(doc *Document, publicKey string, opts VerifyOptions) (res VerificationResult) {
	defer func() {
		// Verification must resolve every failure into the result.
		if r := recover(); r != nil {
			res = VerificationResult{Err: newError(KindVerify, RuleSignatureInvalid,
				fmt.Sprintf("verification panic: %v", r))}
		}
	}()

	fail := func(ruleID, msg string, cause error) VerificationResult {
		res.Valid = false
		res.Err = wrapError(KindVerify, ruleID, msg, cause)
		return res
	}

	if doc == nil {
		return fail(RuleMissingTrust, "nil feed document", nil)
	}
	trustRaw, ok := doc.Block(TrustBlockName)
	if !ok {
		return fail(RuleMissingTrust, "feed has no trust block", nil)
	}
	sigRaw, ok := doc.Block(SignatureBlockName)
	if !ok {
		return fail(RuleMissingSignature, "feed has no signature block", nil)
	}

	var trust TrustBlock
	if err := json.Unmarshal(trustRaw, &trust); err != nil {
		return fail(RuleMissingTrust, "trust block is malformed", err)
	}
	if len(trust.SignedBlocks) == 0 {
		return fail(RuleEmptySignedBlocks, "trust block declares no signed blocks", nil)
	}
	res.SignedBlocks = append([]string(nil), trust.SignedBlocks...)

	var sigBlock SignatureBlock
	if err := json.Unmarshal(sigRaw, &sigBlock); err != nil {
		return fail(RuleMissingSignatureValue, "signature block is malformed", err)
	}
	if sigBlock.Value == "" {
		return fail(RuleMissingSignatureValue, "signature block has no value", nil)
	}

	if trust.Algorithm != "" && trust.Algorithm != SignatureAlgorithm {
		return fail(RuleUnsupportedAlgorithm,
			fmt.Sprintf("unsupported signature algorithm %q", trust.Algorithm), nil)
	}

	var missing []string
	payload, err := buildPayload(doc, trust.SignedBlocks, &missing)
	if err != nil {
		return fail(RuleSignatureInvalid, "payload reconstruction failed", err)
	}
	res.PayloadHash = SHA256Hex(string(payload))
	if opts.Mode == ModeStrict && len(missing) > 0 {
		return fail(RuleSignedBlockAbsent,
			fmt.Sprintf("declared signed block %q is absent from the feed", missing[0]), nil)
	}

	sig, err := base64.StdEncoding.DecodeString(sigBlock.Value)
	if err != nil {
		return fail(RuleInvalidSignatureBase64, "signature value is not valid base64", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return fail(RuleInvalidSignatureLength,
			fmt.Sprintf("signature must be %d bytes, got %d", ed25519.SignatureSize, len(sig)), nil)
	}

	pub, err := keys.ParsePublicKey(publicKey)
	if err != nil {
		return fail(RuleInvalidPublicKey, "invalid public key", err)
	}

	if !ed25519.Verify(pub, payload, sig) {
		return fail(RuleSignatureInvalid, "signature did not verify", nil)
	}

	res.Valid = true
	res.Err = nil
	return res
}
