// Package ipfsarch archives feeds into a local IPFS (Kubo) repository.
package ipfsarch

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/feedsign/archive"
	"xdao.co/feedsign/feed"
)

// Store is a feed archive backed by the local Kubo "ipfs" CLI.
//
// This is an optional adapter package. The core library remains
// storage-provider agnostic; any external archive can integrate by
// implementing archive.Store.
//
// Properties:
//   - Offline: operates on the local IPFS repo; does not require an IPFS daemon.
//   - Deterministic: no wall-clock usage; validates bytes against the requested CID.
//   - Best-effort: relies on an external "ipfs" binary (configurable).
//
// CID contract: CIDv1 raw + sha2-256, matching feed.BytesCID.
//
// Warning: this adapter is not authoritative. Transport/reachability is not
// validity; CID verification is.
type Store struct {
	bin string
	env []string
}

type Options struct {
	// Bin is the path to the ipfs binary. If empty, "ipfs" is used.
	Bin string
	// Env optionally overrides the command environment (e.g. to set IPFS_PATH).
	// If nil, the process environment is used.
	Env []string
}

func New(opts Options) *Store {
	bin := opts.Bin
	if bin == "" {
		bin = "ipfs"
	}
	return &Store{bin: bin, env: opts.Env}
}

func (s *Store) Put(data []byte) (cid.Cid, error) {
	id, err := feed.BytesCID(data)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, archive.ErrInvalidCID
	}

	// Store as a raw block with explicit parameters so the CID matches the
	// feed CID contract.
	out, err := s.run(data,
		"block", "put",
		"--quiet",
		"--format=raw",
		"--mhtype=sha2-256",
		"--mhlen=32",
		"--cid-version=1",
		"/dev/stdin",
	)
	if err != nil {
		return cid.Undef, err
	}

	got, err := cid.Decode(strings.TrimSpace(string(out)))
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs: unexpected block put output: %w", err)
	}
	if got.String() != id.String() {
		return cid.Undef, archive.ErrCIDMismatch
	}
	return id, nil
}

func (s *Store) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, archive.ErrInvalidCID
	}

	out, err := s.run(nil, "block", "get", id.String())
	if err != nil {
		if isLikelyNotFound(err) {
			return nil, archive.ErrNotFound
		}
		return nil, err
	}

	got, herr := feed.BytesCID(out)
	if herr != nil {
		return nil, herr
	}
	if got.String() != id.String() {
		return nil, archive.ErrCIDMismatch
	}
	return out, nil
}

func (s *Store) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := s.run(nil, "block", "stat", id.String())
	return err == nil
}

func (s *Store) run(stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command(s.bin, args...)
	if s.env != nil {
		cmd.Env = s.env
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		msg := strings.TrimSpace(string(ee.Stderr))
		if msg == "" {
			return nil, fmt.Errorf("ipfs: %v", err)
		}
		return nil, fmt.Errorf("ipfs: %s", msg)
	}
	return nil, err
}

func isLikelyNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "block not found")
}
