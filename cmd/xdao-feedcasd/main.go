package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"xdao.co/feedsign/archive"
	"xdao.co/feedsign/archive/config"
	"xdao.co/feedsign/archive/grpcarchive"
	"xdao.co/feedsign/archive/registry"

	_ "xdao.co/feedsign/archive/ipfsarch"
	_ "xdao.co/feedsign/archive/localdir"
)

func main() {
	fs := flag.NewFlagSet("xdao-feedcasd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7420", "listen address")
	backend := fs.String("backend", "localdir", "archive backend name")
	configPath := fs.String("config", "", "archive config file (JSON); overrides --backend")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")

	registry.RegisterFlags(fs, registry.UsageDaemon)

	_ = fs.Parse(os.Args[1:])
	if *listBackends {
		for _, b := range registry.List(registry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(os.Stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return
	}

	store, closeFn, err := openStore(*configPath, *backend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcarchive.RegisterArchiveServer(s, &grpcarchive.Server{Store: store})

	fmt.Fprintf(os.Stderr, "xdao-feedcasd listening on %s (backend=%s)\n", lis.Addr().String(), *backend)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(configPath, backend string) (archive.Store, func() error, error) {
	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, nil, err
		}
		return cfg.Open(registry.UsageDaemon, "")
	}
	return registry.Open(backend, registry.UsageDaemon)
}
