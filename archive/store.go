// Package archive defines the content-addressed feed archive: immutable
// storage of canonical signed-feed bytes, keyed by CIDv1 (raw + sha2-256).
package archive

import "github.com/ipfs/go-cid"

// Store is a minimal content-addressed archive interface.
//
// Contract:
//   - Put MUST be idempotent.
//   - Archived objects MUST be immutable.
//   - CIDs MUST be derived from the bytes written (callers are responsible
//     for supplying canonical feed bytes).
//   - Get MUST return ErrNotFound when the CID is absent.
type Store interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// NamedStore associates a Store with a stable backend name, for multi-backend
// orchestration where callers need per-backend metadata.
type NamedStore struct {
	Name  string
	Store Store
}
