package feed

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Error() strings are human-readable and may evolve.
type Kind string

const (
	KindCanonical Kind = "Canonical"
	KindKey       Kind = "Key"
	KindSign      Kind = "Sign"
	KindVerify    Kind = "Verify"
	KindInternal  Kind = "Internal"
)

// Stable rule identifiers naming violated invariants.
//
// Signing rules are precondition failures and abort the signing call.
// Verification rules are reported through VerificationResult and never panic.
const (
	RuleInvalidDocument         = "FEED-CANON-001"
	RuleCanonicalization        = "FEED-CANON-002"
	RuleBlockNotFound           = "FEED-SIGN-101"
	RuleReservedBlock           = "FEED-SIGN-102"
	RuleInvalidPrivateKey       = "FEED-SIGN-111"
	RuleMissingTrust            = "FEED-VFY-101"
	RuleMissingSignature        = "FEED-VFY-102"
	RuleEmptySignedBlocks       = "FEED-VFY-103"
	RuleMissingSignatureValue   = "FEED-VFY-104"
	RuleSignedBlockAbsent       = "FEED-VFY-105"
	RuleInvalidPublicKey        = "FEED-VFY-111"
	RuleInvalidSignatureBase64  = "FEED-VFY-131"
	RuleInvalidSignatureLength  = "FEED-VFY-132"
	RuleUnsupportedAlgorithm    = "FEED-VFY-301"
	RuleSignatureInvalid        = "FEED-VFY-401"
)

// Error is the library's structured error type.
//
// RuleID names the violated invariant; Message is for humans.
// Use errors.As to extract *Error for structured handling.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
