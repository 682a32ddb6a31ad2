package bundle_test

import (
	"archive/tar"
	"bytes"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/feedsign/archive"
	"xdao.co/feedsign/archive/bundle"
	"xdao.co/feedsign/archive/localdir"
	"xdao.co/feedsign/feed"
)

func TestBundle_ExportIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	store, err := localdir.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	id1, err := store.Put([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := store.Put([]byte("world"))
	if err != nil {
		t.Fatal(err)
	}

	var outA bytes.Buffer
	if err := bundle.Export(&outA, store, []cid.Cid{id2, id1}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}
	var outB bytes.Buffer
	if err := bundle.Export(&outB, store, []cid.Cid{id1, id2}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatalf("expected deterministic bundle bytes")
	}
}

func TestBundle_ImportRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	src, err := localdir.New(srcDir)
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte(`{"feed_type":"mcp","metadata":{"title":"bundled"}}`)
	id, err := src.Put(payload)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := bundle.Export(&buf, src, []cid.Cid{id}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}

	dstDir := t.TempDir()
	dst, err := localdir.New(dstDir)
	if err != nil {
		t.Fatal(err)
	}

	if err := bundle.Import(bytes.NewReader(buf.Bytes()), dst); err != nil {
		t.Fatal(err)
	}

	got, err := dst.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestBundle_ImportRejectsCIDMismatch(t *testing.T) {
	good := []byte("good")
	goodCID, err := feed.BytesCID(good)
	if err != nil {
		t.Fatal(err)
	}
	otherCID, err := feed.BytesCID([]byte("other"))
	if err != nil {
		t.Fatal(err)
	}
	if goodCID.String() == otherCID.String() {
		t.Fatal("expected different CIDs")
	}

	// Name says "otherCID" but bytes are "good" => computed CID mismatch.
	bundleBytes := makeDeterministicTar(t, "blocks/"+otherCID.String(), good)

	dstDir := t.TempDir()
	dst, err := localdir.New(dstDir)
	if err != nil {
		t.Fatal(err)
	}

	if err := bundle.Import(bytes.NewReader(bundleBytes), dst); err != archive.ErrCIDMismatch {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestBundle_ImportRejectsUnknownEntriesByDefault(t *testing.T) {
	bundleBytes := makeDeterministicTar(t, "extra/unexpected", []byte("x"))

	dst, err := localdir.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := bundle.Import(bytes.NewReader(bundleBytes), dst); err == nil {
		t.Fatalf("expected error for unknown entry")
	}
	if err := bundle.ImportWithOptions(bytes.NewReader(bundleBytes), dst, bundle.ImportOptions{IgnoreUnknown: true}); err != nil {
		t.Fatalf("IgnoreUnknown import failed: %v", err)
	}
}

func TestBundle_ReadIndex(t *testing.T) {
	store, err := localdir.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte("indexed payload")
	id, err := store.Put(payload)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	opts := bundle.ExportOptions{
		IncludeIndex: true,
		Labels:       map[string]cid.Cid{"latest": id},
	}
	if err := bundle.Export(&buf, store, []cid.Cid{id}, opts); err != nil {
		t.Fatal(err)
	}

	idx, ok, err := bundle.ReadIndex(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("expected index in bundle")
	}
	if idx.Version != bundle.FormatVersion {
		t.Fatalf("index version: got %d", idx.Version)
	}
	if len(idx.CIDs) != 1 || idx.CIDs[0] != id.String() {
		t.Fatalf("index CIDs: got %v", idx.CIDs)
	}
	if idx.Labels["latest"] != id.String() {
		t.Fatalf("index labels: got %v", idx.Labels)
	}

	// A bundle without an index reports ok=false.
	var noIdx bytes.Buffer
	if err := bundle.Export(&noIdx, store, []cid.Cid{id}, bundle.ExportOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := bundle.ReadIndex(bytes.NewReader(noIdx.Bytes())); err != nil || ok {
		t.Fatalf("expected no index, got ok=%v err=%v", ok, err)
	}
}

func makeDeterministicTar(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	h := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		Uid:      0,
		Gid:      0,
		Uname:    "",
		Gname:    "",
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(h); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
