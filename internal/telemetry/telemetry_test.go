package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown := Setup(context.Background(), "fleetctl", "", false)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupWithEndpointReturnsShutdown(t *testing.T) {
	// The gRPC exporter connects lazily, so an unreachable endpoint still
	// yields a working pipeline.
	shutdown := Setup(context.Background(), "fleetctl", "127.0.0.1:4317", true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
