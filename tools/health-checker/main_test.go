package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func TestProbeHTTP(t *testing.T) {
	ready := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, probe(context.Background(), srv.URL+"/api/readyz"))

	ready = false
	assert.Error(t, probe(context.Background(), srv.URL+"/api/readyz"))
}

func TestProbeGRPC(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	go func() { _ = grpcServer.Serve(lis) }()
	defer grpcServer.Stop()

	target := "grpc://" + lis.Addr().String() + "/trade-service"

	healthServer.SetServingStatus("trade-service", grpc_health_v1.HealthCheckResponse_SERVING)
	assert.NoError(t, probe(context.Background(), target))

	healthServer.SetServingStatus("trade-service", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	assert.Error(t, probe(context.Background(), target))
}

func TestProbeRejectsUnknownScheme(t *testing.T) {
	assert.Error(t, probe(context.Background(), "ftp://localhost"))
}
