package archive

import (
	"bytes"

	"github.com/ipfs/go-cid"

	"xdao.co/feedsign/feed"
)

// PutFeed archives a feed document's canonical bytes.
//
// The store holds feeds, not arbitrary blobs: data must parse as a feed
// document and must already be its canonical serialization, otherwise the
// same document would archive under multiple CIDs.
func PutFeed(st Store, data []byte) (cid.Cid, error) {
	doc, err := feed.ParseDocument(data)
	if err != nil {
		return cid.Undef, err
	}
	canon, err := feed.MarshalCanonical(doc)
	if err != nil {
		return cid.Undef, err
	}
	if !bytes.Equal(canon, data) {
		return cid.Undef, ErrNotCanonical
	}
	return st.Put(data)
}

// PutDocument canonicalizes doc and archives it, returning the feed CID.
func PutDocument(st Store, doc *feed.Document) (cid.Cid, error) {
	canon, err := feed.MarshalCanonical(doc)
	if err != nil {
		return cid.Undef, err
	}
	return st.Put(canon)
}

// GetFeed retrieves archived bytes and parses them back into a document.
func GetFeed(st Store, id cid.Cid) (*feed.Document, error) {
	b, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	return feed.ParseDocument(b)
}
