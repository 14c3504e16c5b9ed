package consensus

import (
	"net"

	"google.golang.org/grpc"
)

// NewControlPlaneServer builds a grpc.Server for a façade to register
// services on. Concrete service registration (ResourceService,
// ProjectService, etc. from §6.1) is a façade concern out of this
// repo's scope. Nothing in this repo calls it: components/server/cmd
// does not start a grpc.Server, and raft traffic runs over the plain
// TCP stream layer in transport.go.
func NewControlPlaneServer(opts ...grpc.ServerOption) *grpc.Server {
	return grpc.NewServer(opts...)
}

// Serve blocks serving srv on ln; callers typically run this in its
// own goroutine.
func Serve(srv *grpc.Server, ln net.Listener) error {
	return srv.Serve(ln)
}
