package archive

import (
	"errors"

	"github.com/ipfs/go-cid"
)

// FallbackStore provides deterministic, ordered read fallback across multiple
// archive backends.
//
// Retrieval order is the slice order in Backends; callers MUST supply a fixed
// order. This avoids map-iteration nondeterminism and makes the retrieval
// strategy explicit.
//
// Put writes only to the first backend.
type FallbackStore struct {
	Backends []Store
}

func (f FallbackStore) Put(bytes []byte) (cid.Cid, error) {
	if len(f.Backends) == 0 {
		return cid.Undef, errors.New("archive: FallbackStore has no backends")
	}
	return f.Backends[0].Put(bytes)
}

func (f FallbackStore) Get(id cid.Cid) ([]byte, error) {
	for _, st := range f.Backends {
		b, err := st.Get(id)
		if err == nil {
			return b, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (f FallbackStore) Has(id cid.Cid) bool {
	for _, st := range f.Backends {
		if st.Has(id) {
			return true
		}
	}
	return false
}
