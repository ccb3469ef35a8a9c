package main

import (
	"fmt"

	"github.com/a2aproject/a2a-go/a2aclient"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// PeerConnection holds the gRPC connection to a server.
type PeerConnection struct {
	conn *grpc.ClientConn
}

// ConnectToPeer creates a client connection to addr. The connection is
// established lazily on first use.
func ConnectToPeer(addr string) (*PeerConnection, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("create A2A connection: %w", err)
	}
	return &PeerConnection{conn: conn}, nil
}

// A2ATransport returns an A2A transport for sending messages.
func (pc *PeerConnection) A2ATransport() a2aclient.Transport {
	return a2aclient.NewGRPCTransport(pc.conn)
}

// Health returns a client for the server's health service.
func (pc *PeerConnection) Health() healthpb.HealthClient {
	return healthpb.NewHealthClient(pc.conn)
}

// Close closes the connection.
func (pc *PeerConnection) Close() error {
	return pc.conn.Close()
}
