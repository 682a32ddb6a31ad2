package localdir

import (
	"flag"
	"fmt"

	"xdao.co/feedsign/archive"
	"xdao.co/feedsign/archive/registry"
)

var flagDir string

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "localdir",
		Description: "Local filesystem feed archive (directory)",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagDir, "localdir-dir", "", "Archive directory (for --backend=localdir)")
		},
		Open: func() (archive.Store, func() error, error) {
			return open(flagDir)
		},
		OpenWithConfig: func(cfg map[string]string) (archive.Store, func() error, error) {
			return open(cfg["localdir-dir"])
		},
	})
}

func open(dir string) (archive.Store, func() error, error) {
	if dir == "" {
		return nil, nil, fmt.Errorf("missing --localdir-dir")
	}
	st, err := New(dir)
	return st, nil, err
}
