package archive

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/feedsign/feed"
)

// MirrorStore writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends and require all returned
// CIDs to match (otherwise ErrCIDMismatch is returned).
//
// Use PutAll when the per-backend CID mapping is needed.
type MirrorStore struct {
	Backends []NamedStore
}

var _ Store = (*MirrorStore)(nil)

// PutAll writes the same bytes to all backends. It returns the canonical CID
// (computed from bytes) and a map of backend name to returned CID. If any
// backend returns a different CID, ErrCIDMismatch is returned.
func (m MirrorStore) PutAll(bytes []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := feed.BytesCID(bytes)
	if err != nil {
		return cid.Undef, nil, err
	}
	if !want.Defined() {
		return cid.Undef, nil, ErrInvalidCID
	}
	if len(m.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("archive: MirrorStore has no backends")
	}

	out := make(map[string]cid.Cid, len(m.Backends))
	for _, b := range m.Backends {
		if b.Store == nil {
			return cid.Undef, nil, fmt.Errorf("archive: nil store for backend %q", b.Name)
		}
		got, err := b.Store.Put(bytes)
		if err != nil {
			return cid.Undef, nil, err
		}
		out[b.Name] = got
		if got != want {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (m MirrorStore) Put(bytes []byte) (cid.Cid, error) {
	id, _, err := m.PutAll(bytes)
	return id, err
}

func (m MirrorStore) Get(id cid.Cid) ([]byte, error) {
	for _, b := range m.Backends {
		if b.Store == nil {
			continue
		}
		out, err := b.Store.Get(id)
		if err == nil {
			return out, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (m MirrorStore) Has(id cid.Cid) bool {
	for _, b := range m.Backends {
		if b.Store != nil && b.Store.Has(id) {
			return true
		}
	}
	return false
}
