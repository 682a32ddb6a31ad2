package grpcarchive

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"xdao.co/feedsign/archive"
	"xdao.co/feedsign/archive/registry"
)

var (
	flagTarget      string
	flagDialTimeout time.Duration
	flagTimeout     time.Duration
	flagMaxMsgBytes int
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "grpc",
		Description: "gRPC archive client (talks to a feed archive daemon, e.g. xdao-feedcasd)",
		Usage:       registry.UsageCLI,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagTarget, "grpc-target", "", "gRPC target host:port (for --backend=grpc)")
			fs.DurationVar(&flagDialTimeout, "grpc-dial-timeout", 5*time.Second, "Dial timeout (for --backend=grpc)")
			fs.DurationVar(&flagTimeout, "grpc-timeout", 0, "Per-RPC timeout (for --backend=grpc)")
			fs.IntVar(&flagMaxMsgBytes, "grpc-max-msg-bytes", 0, "Max gRPC message size in bytes (send+recv); 0 uses grpc defaults")
		},
		Open: func() (archive.Store, func() error, error) {
			return open(flagTarget, flagDialTimeout, flagTimeout, flagMaxMsgBytes)
		},
		OpenWithConfig: func(cfg map[string]string) (archive.Store, func() error, error) {
			dial := 5 * time.Second
			if v := cfg["grpc-dial-timeout"]; v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return nil, nil, fmt.Errorf("invalid grpc-dial-timeout: %w", err)
				}
				dial = d
			}
			var perRPC time.Duration
			if v := cfg["grpc-timeout"]; v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return nil, nil, fmt.Errorf("invalid grpc-timeout: %w", err)
				}
				perRPC = d
			}
			var maxMsg int
			if v := cfg["grpc-max-msg-bytes"]; v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, nil, fmt.Errorf("invalid grpc-max-msg-bytes: %w", err)
				}
				maxMsg = n
			}
			return open(cfg["grpc-target"], dial, perRPC, maxMsg)
		},
	})
}

func open(target string, dialTimeout, perRPC time.Duration, maxMsgBytes int) (archive.Store, func() error, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, nil, fmt.Errorf("missing --grpc-target")
	}
	client, err := Dial(target, DialOptions{
		DialTimeout: dialTimeout,
		RPCTimeout:  perRPC,
		MaxMsgBytes: maxMsgBytes,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}
