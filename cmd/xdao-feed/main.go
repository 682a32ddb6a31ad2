package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/feedsign/archive"
	"xdao.co/feedsign/archive/bundle"
	"xdao.co/feedsign/archive/registry"
	"xdao.co/feedsign/feed"
	"xdao.co/feedsign/keys"

	_ "xdao.co/feedsign/archive/grpcarchive"
	_ "xdao.co/feedsign/archive/ipfsarch"
	_ "xdao.co/feedsign/archive/localdir"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "canon":
		return cmdCanon(args[1:], out, errOut)
	case "hash":
		return cmdHash(args[1:], out, errOut)
	case "cid":
		return cmdCID(args[1:], out, errOut)
	case "archive":
		return cmdArchive(args[1:], out, errOut)
	case "bundle":
		return cmdBundle(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-feed: feed signing, verification and archival CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-feed key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-feed key derive --from <name> --scope <scope> [--force]")
	fmt.Fprintln(w, "  xdao-feed key list")
	fmt.Fprintln(w, "  xdao-feed key export --name <name> [--scope <scope>] [--private] [--format pem|base64]")
	fmt.Fprintln(w, "  xdao-feed sign (--signer <name> [--scope <scope>] | --key-file <path>) [--block <name> ...] [--public-key-hint <h>] [--trust-level <t>] [--trust-scope <s>] [--no-timestamp] <feed.json>")
	fmt.Fprintln(w, "  xdao-feed verify (--signer <name> [--scope <scope>] | --key-file <path> | --key <base64|pem>) [--strict] <feed.json>")
	fmt.Fprintln(w, "  xdao-feed canon <file.json>")
	fmt.Fprintln(w, "  xdao-feed hash [--alg sha256|sha512|sha3-256] <file.json>")
	fmt.Fprintln(w, "  xdao-feed cid <file.json>")
	fmt.Fprintln(w, "  xdao-feed archive put --backend <name> [backend flags] <file>")
	fmt.Fprintln(w, "  xdao-feed archive get --backend <name> [backend flags] <CID>")
	fmt.Fprintln(w, "  xdao-feed archive has --backend <name> [backend flags] <CID>")
	fmt.Fprintln(w, "  xdao-feed archive backends")
	fmt.Fprintln(w, "  xdao-feed bundle export --backend <name> [backend flags] [--label name=CID ...] --out <bundle.tar> <CID> [<CID> ...]")
	fmt.Fprintln(w, "  xdao-feed bundle import --backend <name> [backend flags] [--ignore-unknown] <bundle.tar>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --seed-hex must be 32 bytes (64 hex chars) ed25519 seed")
	fmt.Fprintln(w, "  - keys are stored under ~/.xdao/feedkeys/<name> (0600 private key files)")
	fmt.Fprintln(w, "  - sign writes the signed feed JSON to stdout")
	fmt.Fprintln(w, "  - canon writes canonical JSON bytes to stdout (no trailing newline)")
	fmt.Fprintln(w, "  - archive put requires the file bytes to be canonical JSON")
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// signerFlags is the shared signer/key selection used by sign and verify.
type signerFlags struct {
	signer  string
	scope   string
	keyFile string
	key     string
}

func (sf *signerFlags) register(fs *flag.FlagSet, allowInline bool) {
	fs.StringVar(&sf.signer, "signer", "", "Use a stored key by name (from 'xdao-feed key init')")
	fs.StringVar(&sf.scope, "scope", "", "When using --signer, use a derived scope key")
	fs.StringVar(&sf.keyFile, "key-file", "", "Path to a key file (PEM or base64)")
	if allowInline {
		fs.StringVar(&sf.key, "key", "", "Inline key material (PEM or base64)")
	}
}

func (sf *signerFlags) validate() error {
	n := 0
	for _, v := range []string{sf.signer, sf.keyFile, sf.key} {
		if v != "" {
			n++
		}
	}
	if n == 0 {
		return fmt.Errorf("missing key: use --signer, --key-file, or --key")
	}
	if n > 1 {
		return fmt.Errorf("conflicting key flags: use exactly one of --signer, --key-file, --key")
	}
	if sf.scope != "" && sf.signer == "" {
		return fmt.Errorf("--scope requires --signer")
	}
	return nil
}

// material returns the raw key material string (PEM or base64) selected by
// the flags. For --signer it loads from the keystore; private selects the
// private or public side.
func (sf *signerFlags) material(private bool) (string, error) {
	switch {
	case sf.key != "":
		return sf.key, nil
	case sf.keyFile != "":
		b, err := os.ReadFile(sf.keyFile)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		ks, err := keys.CreateKeyStore("")
		if err != nil {
			return "", err
		}
		kp, err := ks.LoadKeyPair(sf.signer, sf.scope)
		if err != nil {
			return "", err
		}
		if private {
			return kp.PrivateKeyPEM, nil
		}
		return kp.PublicKeyPEM, nil
	}
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-feed key: minimal local key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-feed key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-feed key derive --from <name> --scope <scope> [--force]")
	fmt.Fprintln(w, "  xdao-feed key list")
	fmt.Fprintln(w, "  xdao-feed key export --name <name> [--scope <scope>] [--private] [--format pem|base64]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under ~/.xdao/feedkeys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible setups)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	kp, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", kp.PublicKeyBase64)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var scope string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&scope, "scope", "", "Scope identifier (e.g. publisher, mirror)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if scope == "" {
		fmt.Fprintln(errOut, "missing --scope")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckScope(scope); err != nil {
		fmt.Fprintf(errOut, "invalid --scope: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	kp, scopePath, err := ks.DeriveScopeKey(from, scope, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive scope key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created scope key: %s\n", kp.PublicKeyBase64)
	fmt.Fprintf(out, "Stored at: %s\n", scopePath)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.List()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Name)
		for _, s := range e.Scopes {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var scope string
	var private bool
	var format string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&scope, "scope", "", "Optional scope (if set, exports derived scope key)")
	fs.BoolVar(&private, "private", false, "Export the private key instead of the public key")
	fs.StringVar(&format, "format", "pem", "Output format: pem or base64")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if format != "pem" && format != "base64" {
		fmt.Fprintln(errOut, "invalid --format (expected pem or base64)")
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	kp, err := ks.LoadKeyPair(name, scope)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}

	var s string
	switch {
	case private && format == "pem":
		s = kp.PrivateKeyPEM
	case private:
		s = kp.PrivateKeyBase64
	case format == "pem":
		s = kp.PublicKeyPEM
	default:
		s = kp.PublicKeyBase64
	}
	_, _ = fmt.Fprintln(out, strings.TrimRight(s, "\n"))
	return 0
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var sf signerFlags
	var blocks stringList
	var publicKeyHint string
	var trustLevel string
	var trustScope string
	var noTimestamp bool
	var printHash bool

	sf.register(fs, false)
	fs.Var(&blocks, "block", "Top-level block to sign (repeatable; default: all non-reserved blocks)")
	fs.StringVar(&publicKeyHint, "public-key-hint", "", "Optional public_key_hint recorded in the trust block")
	fs.StringVar(&trustLevel, "trust-level", "", "Optional trust_level recorded in the trust block")
	fs.StringVar(&trustScope, "trust-scope", "", "Optional scope recorded in the trust block")
	fs.BoolVar(&noTimestamp, "no-timestamp", false, "Omit created_at from the signature block (deterministic output)")
	fs.BoolVar(&printHash, "print-hash", true, "Print the payload SHA-256 to stderr")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := sf.validate(); err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-feed sign [flags] <feed.json>")
		return 2
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(fs.Arg(0)), err)
		return 1
	}
	doc, err := feed.ParseDocument(raw)
	if err != nil {
		fmt.Fprintf(errOut, "invalid feed: %v\n", err)
		return 1
	}

	priv, err := sf.material(true)
	if err != nil {
		fmt.Fprintf(errOut, "invalid signer: %v\n", err)
		return 2
	}

	res, err := feed.Sign(doc, priv, feed.SignOptions{
		SignedBlocks:  blocks,
		PublicKeyHint: publicKeyHint,
		TrustLevel:    trustLevel,
		Scope:         trustScope,
		OmitTimestamp: noTimestamp,
	})
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}

	signed, err := json.MarshalIndent(res.Feed, "", "  ")
	if err != nil {
		fmt.Fprintf(errOut, "marshal: %v\n", err)
		return 1
	}
	if printHash {
		fmt.Fprintf(errOut, "Payload-SHA256: %s\n", res.PayloadHash)
	}
	_, _ = out.Write(signed)
	_, _ = fmt.Fprintln(out)
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var sf signerFlags
	var strict bool

	sf.register(fs, true)
	fs.BoolVar(&strict, "strict", false, "Fail on declared signed blocks that are absent from the document")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := sf.validate(); err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-feed verify [flags] <feed.json>")
		return 2
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(fs.Arg(0)), err)
		return 1
	}
	doc, err := feed.ParseDocument(raw)
	if err != nil {
		fmt.Fprintf(errOut, "invalid feed: %v\n", err)
		return 1
	}

	pub, err := sf.material(false)
	if err != nil {
		fmt.Fprintf(errOut, "invalid key: %v\n", err)
		return 2
	}

	opts := feed.VerifyOptions{}
	if strict {
		opts.Mode = feed.ModeStrict
	}
	res := feed.VerifyWithOptions(doc, pub, opts)
	if !res.Valid {
		fmt.Fprintf(errOut, "INVALID: %v\n", res.Err)
		return 1
	}
	fmt.Fprintf(out, "OK signed_blocks=%s payload_sha256=%s\n",
		strings.Join(res.SignedBlocks, ","), res.PayloadHash)
	return 0
}

func cmdCanon(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("canon", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-feed canon <file.json>")
		return 2
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(fs.Arg(0)), err)
		return 1
	}
	canonical, err := feed.MarshalCanonical(json.RawMessage(raw))
	if err != nil {
		fmt.Fprintf(errOut, "canonicalize: %v\n", err)
		return 1
	}
	_, _ = out.Write(canonical)
	return 0
}

func cmdHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var alg string
	fs.StringVar(&alg, "alg", "sha256", "Hash algorithm: sha256, sha512, or sha3-256")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-feed hash [--alg sha256|sha512|sha3-256] <file.json>")
		return 2
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(fs.Arg(0)), err)
		return 1
	}
	canonical, err := feed.MarshalCanonical(json.RawMessage(raw))
	if err != nil {
		fmt.Fprintf(errOut, "canonicalize: %v\n", err)
		return 1
	}
	digest, err := feed.DigestFor(alg, canonical)
	if err != nil {
		fmt.Fprintf(errOut, "hash: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(out, "%x\n", digest)
	return 0
}

func cmdCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-feed cid <file.json>")
		return 2
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(fs.Arg(0)), err)
		return 1
	}
	doc, err := feed.ParseDocument(raw)
	if err != nil {
		fmt.Fprintf(errOut, "invalid feed: %v\n", err)
		return 1
	}
	id, err := feed.CID(doc)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id)
	return 0
}

func cmdArchive(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-feed archive <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: put, get, has, backends")
		return 2
	}
	switch args[0] {
	case "put":
		return cmdArchivePut(args[1:], out, errOut)
	case "get":
		return cmdArchiveGet(args[1:], out, errOut)
	case "has":
		return cmdArchiveHas(args[1:], out, errOut)
	case "backends":
		for _, b := range registry.List(registry.UsageCLI) {
			if b.Description == "" {
				fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	default:
		fmt.Fprintf(errOut, "unknown archive subcommand: %s\n", args[0])
		return 2
	}
}

// openBackend parses backend selection flags plus the registered per-backend
// flags and opens the store. Remaining positional args are returned.
func openBackend(cmdName string, args []string, errOut io.Writer) (archive.Store, func() error, []string, bool) {
	fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
	fs.SetOutput(errOut)

	var backend string
	fs.StringVar(&backend, "backend", "localdir", "Archive backend name (see 'xdao-feed archive backends')")
	registry.RegisterFlags(fs, registry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, false
	}
	store, closeFn, err := registry.Open(backend, registry.UsageCLI)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return nil, nil, nil, false
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return store, closeFn, fs.Args(), true
}

func cmdArchivePut(args []string, out io.Writer, errOut io.Writer) int {
	store, closeFn, rest, ok := openBackend("archive put", args, errOut)
	if !ok {
		return 2
	}
	defer closeFn()

	if len(rest) != 1 {
		fmt.Fprintln(errOut, "usage: xdao-feed archive put --backend <name> [backend flags] <file>")
		return 2
	}
	raw, err := os.ReadFile(rest[0])
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(rest[0]), err)
		return 1
	}
	id, err := archive.PutFeed(store, raw)
	if err != nil {
		fmt.Fprintf(errOut, "put: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id.String())
	return 0
}

func cmdArchiveGet(args []string, out io.Writer, errOut io.Writer) int {
	store, closeFn, rest, ok := openBackend("archive get", args, errOut)
	if !ok {
		return 2
	}
	defer closeFn()

	if len(rest) != 1 {
		fmt.Fprintln(errOut, "usage: xdao-feed archive get --backend <name> [backend flags] <CID>")
		return 2
	}
	id, err := cid.Decode(rest[0])
	if err != nil {
		fmt.Fprintf(errOut, "invalid CID: %v\n", err)
		return 2
	}
	b, err := store.Get(id)
	if err != nil {
		fmt.Fprintf(errOut, "get: %v\n", err)
		return 1
	}
	_, _ = out.Write(b)
	return 0
}

func cmdArchiveHas(args []string, out io.Writer, errOut io.Writer) int {
	store, closeFn, rest, ok := openBackend("archive has", args, errOut)
	if !ok {
		return 2
	}
	defer closeFn()

	if len(rest) != 1 {
		fmt.Fprintln(errOut, "usage: xdao-feed archive has --backend <name> [backend flags] <CID>")
		return 2
	}
	id, err := cid.Decode(rest[0])
	if err != nil {
		fmt.Fprintf(errOut, "invalid CID: %v\n", err)
		return 2
	}
	if !store.Has(id) {
		fmt.Fprintln(out, "absent")
		return 1
	}
	fmt.Fprintln(out, "present")
	return 0
}

func cmdBundle(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-feed bundle <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: export, import")
		return 2
	}
	switch args[0] {
	case "export":
		return cmdBundleExport(args[1:], out, errOut)
	case "import":
		return cmdBundleImport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func cmdBundleExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var backend string
	var outPath string
	var labelsKV stringList
	var noIndex bool
	fs.StringVar(&backend, "backend", "localdir", "Archive backend name")
	fs.StringVar(&outPath, "out", "", "Output bundle path (TAR)")
	fs.Var(&labelsKV, "label", "Label as name=CID (repeatable)")
	fs.BoolVar(&noIndex, "no-index", false, "Omit index.json from the bundle")
	registry.RegisterFlags(fs, registry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if outPath == "" {
		fmt.Fprintln(errOut, "missing --out")
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: xdao-feed bundle export --backend <name> --out <bundle.tar> <CID> [<CID> ...]")
		return 2
	}

	ids := make([]cid.Cid, 0, fs.NArg())
	for _, s := range fs.Args() {
		id, err := cid.Decode(s)
		if err != nil {
			fmt.Fprintf(errOut, "invalid CID %q: %v\n", s, err)
			return 2
		}
		ids = append(ids, id)
	}

	labels := make(map[string]cid.Cid, len(labelsKV))
	for _, kv := range labelsKV {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			fmt.Fprintf(errOut, "invalid --label (expected name=CID): %q\n", kv)
			return 2
		}
		id, err := cid.Decode(val)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --label CID %q: %v\n", val, err)
			return 2
		}
		labels[name] = id
	}

	store, closeFn, err := registry.Open(backend, registry.UsageCLI)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(errOut, "create %s: %v\n", outPath, err)
		return 1
	}
	exportErr := bundle.Export(f, store, ids, bundle.ExportOptions{
		Labels:       labels,
		IncludeIndex: !noIndex,
	})
	if cerr := f.Close(); exportErr == nil {
		exportErr = cerr
	}
	if exportErr != nil {
		_ = os.Remove(outPath)
		fmt.Fprintf(errOut, "export: %v\n", exportErr)
		return 1
	}
	fmt.Fprintf(out, "Exported %d block(s) to %s\n", len(ids), outPath)
	return 0
}

func cmdBundleImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle import", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var backend string
	var ignoreUnknown bool
	fs.StringVar(&backend, "backend", "localdir", "Archive backend name")
	fs.BoolVar(&ignoreUnknown, "ignore-unknown", false, "Ignore unknown TAR entries instead of failing")
	registry.RegisterFlags(fs, registry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-feed bundle import --backend <name> [--ignore-unknown] <bundle.tar>")
		return 2
	}

	store, closeFn, err := registry.Open(backend, registry.UsageCLI)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "open %s: %v\n", fs.Arg(0), err)
		return 1
	}
	defer f.Close()

	if err := bundle.ImportWithOptions(f, store, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown}); err != nil {
		fmt.Fprintf(errOut, "import: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "OK")
	return 0
}
