package grpcarchive

import (
	"context"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/feedsign/archive"
	"xdao.co/feedsign/feed"
)

// Client is the archive.Store view of a remote feed archive (typically an
// xdao-feedcasd daemon).
//
// The wire is not trusted to address feeds correctly: the client recomputes
// the feed CID locally on both paths. Put compares the server's reported CID
// against the CID of the bytes it sent; Get compares the CID of the returned
// bytes against the CID it asked for. A disagreement surfaces as
// archive.ErrCIDMismatch, never as silently accepted data.
type Client struct {
	cc     *grpc.ClientConn
	client ArchiveClient

	// Timeout bounds each RPC when non-zero. Zero means no per-RPC deadline.
	Timeout time.Duration
}

// DialOptions configures Dial. The zero value dials without deadlines and
// with grpc's default message limits.
type DialOptions struct {
	// DialTimeout bounds connection establishment when non-zero.
	DialTimeout time.Duration

	// RPCTimeout is copied to Client.Timeout.
	RPCTimeout time.Duration

	// MaxMsgBytes caps send and receive message sizes when non-zero.
	// Archived feeds are canonical JSON and normally small; raise this only
	// for archives holding unusually large documents.
	MaxMsgBytes int
}

// Dial connects to a feed archive daemon at target. Connections are
// plaintext: the daemon binds loopback by default, and CID verification (not
// the transport) is what makes archived bytes trustworthy.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpcarchive: dial %s: %w", target, err)
	}
	return &Client{
		cc:      cc,
		client:  NewArchiveClient(cc),
		Timeout: opts.RPCTimeout,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Put sends data to the remote archive and returns its feed CID. The CID is
// computed locally; the server's reply only confirms it.
func (c *Client) Put(data []byte) (cid.Cid, error) {
	if c == nil || c.client == nil {
		return cid.Undef, archive.ErrNotFound
	}
	want, err := feed.BytesCID(data)
	if err != nil {
		return cid.Undef, err
	}

	ctx, cancel := c.rpcContext()
	defer cancel()

	reply, err := c.client.Put(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return cid.Undef, mapRPC(err)
	}
	got, err := cid.Decode(reply.GetValue())
	if err != nil || !got.Defined() {
		return cid.Undef, archive.ErrInvalidCID
	}
	if !got.Equals(want) {
		return cid.Undef, archive.ErrCIDMismatch
	}
	return want, nil
}

// Get fetches the bytes for id and verifies them against id before returning.
func (c *Client) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, archive.ErrInvalidCID
	}
	ctx, cancel := c.rpcContext()
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, mapRPC(err)
	}
	b := reply.GetValue()
	if err := matchesCID(b, id); err != nil {
		return nil, err
	}
	return b, nil
}

// Has reports whether the remote archive holds id. Transport errors read as
// absence; callers that must distinguish should Get and inspect the error.
func (c *Client) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	ctx, cancel := c.rpcContext()
	defer cancel()

	reply, err := c.client.Has(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return false
	}
	return reply.GetValue()
}

func (c *Client) rpcContext() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}

// matchesCID recomputes the feed CID of data and checks it equals want.
func matchesCID(data []byte, want cid.Cid) error {
	got, err := feed.BytesCID(data)
	if err != nil {
		return err
	}
	if !got.Equals(want) {
		return archive.ErrCIDMismatch
	}
	return nil
}
