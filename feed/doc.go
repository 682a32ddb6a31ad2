// Package feed implements the feed signing protocol: deterministic canonical
// JSON, selective top-level block signing with Ed25519, and verification that
// never escapes its result object.
//
// A feed is a JSON object whose top-level members are "blocks". Signing covers
// a chosen subset of blocks: the subset is canonicalized (RFC 8785), the
// canonical bytes are signed, and trust/signature metadata blocks are merged
// into a copy of the document. Verification rebuilds the payload from the
// document's own declared block list and checks the signature.
package feed
