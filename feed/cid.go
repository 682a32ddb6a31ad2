package feed

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// BytesCID returns an IPFS-compatible CIDv1 (raw + sha2-256) for canonical
// feed bytes. Callers are responsible for supplying canonical bytes; the CID
// of a non-canonical serialization addresses nothing this library produces.
func BytesCID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// CID returns the CIDv1 string addressing the canonical serialization of doc.
func CID(doc *Document) (string, error) {
	canon, err := MarshalCanonical(doc)
	if err != nil {
		return "", err
	}
	id, err := BytesCID(canon)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
