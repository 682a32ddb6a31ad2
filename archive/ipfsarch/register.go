package ipfsarch

import (
	"flag"
	"os"

	"xdao.co/feedsign/archive"
	"xdao.co/feedsign/archive/registry"
)

var (
	flagIPFSBin  string
	flagIPFSPath string
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "ipfs",
		Description: "IPFS (Kubo) block store via the local ipfs CLI",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagIPFSBin, "ipfs-bin", "", "Path to the ipfs binary (for --backend=ipfs; default \"ipfs\")")
			fs.StringVar(&flagIPFSPath, "ipfs-path", "", "IPFS repo path, sets IPFS_PATH (for --backend=ipfs)")
		},
		Open: func() (archive.Store, func() error, error) {
			return open(flagIPFSBin, flagIPFSPath)
		},
		OpenWithConfig: func(cfg map[string]string) (archive.Store, func() error, error) {
			return open(cfg["ipfs-bin"], cfg["ipfs-path"])
		},
	})
}

func open(bin, repoPath string) (archive.Store, func() error, error) {
	opts := Options{Bin: bin}
	if repoPath != "" {
		opts.Env = append(os.Environ(), "IPFS_PATH="+repoPath)
	}
	return New(opts), nil, nil
}
