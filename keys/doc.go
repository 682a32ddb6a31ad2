// Package keys handles Ed25519 key material for feed signing: the codec
// between raw bytes, base64, PEM, and the fixed ASN.1 containers (PKCS#8 for
// private keys, SPKI for public keys), key pair generation, and a local-first
// filesystem keystore with deterministic scope-derived subkeys.
//
// Stable:
//   - The codec and parsing primitives. Their byte-level behavior is protocol
//     surface; the ASN.1 prefixes must never change.
//
// Experimental:
//   - KeyStore and related filesystem helpers. These are local convenience
//     utilities, not part of the long-term protocol contract.
package keys
