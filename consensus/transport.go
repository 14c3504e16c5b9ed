package consensus

import (
	"net"
	"time"

	"github.com/hashicorp/raft"
)

// grpcStreamLayer adapts a plain TCP listener into a raft.StreamLayer
// for use with raft.NewNetworkTransport. raft's own network-transport
// framing runs directly over the accepted and dialed TCP connections;
// no grpc server is involved (components/server/node.go builds its
// transport this way).
type grpcStreamLayer struct {
	ln       net.Listener
	dialFunc func(address string, timeout time.Duration) (net.Conn, error)
}

// NewStreamLayer builds a raft.StreamLayer backed by ln, dialing peers
// with dial (typically net.DialTimeout, or a grpc-aware dialer that
// multiplexes the control-plane RPC service on the same port).
func NewStreamLayer(ln net.Listener, dial func(address string, timeout time.Duration) (net.Conn, error)) raft.StreamLayer {
	return &grpcStreamLayer{ln: ln, dialFunc: dial}
}

func (s *grpcStreamLayer) Accept() (net.Conn, error) { return s.ln.Accept() }
func (s *grpcStreamLayer) Close() error               { return s.ln.Close() }
func (s *grpcStreamLayer) Addr() net.Addr             { return s.ln.Addr() }

func (s *grpcStreamLayer) Dial(address raft.ServerAddress, timeout time.Duration) (net.Conn, error) {
	if s.dialFunc != nil {
		return s.dialFunc(string(address), timeout)
	}
	return net.DialTimeout("tcp", string(address), timeout)
}
