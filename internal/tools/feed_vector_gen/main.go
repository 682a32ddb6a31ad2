// Command feed_vector_gen emits a deterministic signed-feed vector for
// cross-implementation conformance checks.
package main

import (
	"fmt"

	"xdao.co/feedsign/feed"
	"xdao.co/feedsign/keys"
)

func fixedSeed(b byte) []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func main() {
	seed := fixedSeed(0xA1)
	kp, err := keys.KeyPairFromSeed(seed)
	if err != nil {
		panic(err)
	}

	doc, err := feed.ParseDocument([]byte(`{
		"feed_type": "mcp",
		"metadata": {"title": "Conformance vector", "version": "1.0.0"},
		"servers": [{"name": "vector-server", "endpoint": "https://example.org/mcp"}]
	}`))
	if err != nil {
		panic(err)
	}

	res, err := feed.Sign(doc, kp.PrivateKeyBase64, feed.SignOptions{OmitTimestamp: true})
	if err != nil {
		panic(err)
	}

	id, err := feed.CID(res.Feed)
	if err != nil {
		panic(err)
	}
	canon, err := feed.MarshalCanonical(res.Feed)
	if err != nil {
		panic(err)
	}

	fmt.Printf("seed-hex: %x\n", seed)
	fmt.Printf("public-key-base64: %s\n", kp.PublicKeyBase64)
	fmt.Printf("payload: %s\n", res.Payload)
	fmt.Printf("payload-sha256: %s\n", res.PayloadHash)
	fmt.Printf("signature-base64: %s\n", res.Signature)
	fmt.Printf("feed-cid: %s\n", id)
	fmt.Printf("canonical-feed: %s\n", canon)
}
