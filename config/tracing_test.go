package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOTLPEndpoint(t *testing.T) {
	tests := []struct {
		raw  string
		want otlpTarget
	}{
		{"http://collector:4318", otlpTarget{hostport: "collector:4318", path: "/v1/traces", insecure: true}},
		{"https://otel.signal.example/ingest/traces", otlpTarget{hostport: "otel.signal.example", path: "/ingest/traces"}},
		{"collector:4318", otlpTarget{hostport: "collector:4318", path: "/v1/traces", insecure: true}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseOTLPEndpoint(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOTLPEndpoint_Rejects(t *testing.T) {
	for _, raw := range []string{"", "collector:4318/v1/traces", "grpc://collector:4317", "http:///v1/traces"} {
		_, err := parseOTLPEndpoint(raw)
		assert.Error(t, err, raw)
	}
}

func TestSetupTracing_DisabledReturnsNoShutdown(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "false")

	shutdown, err := SetupTracing(nil)
	require.NoError(t, err)
	assert.Nil(t, shutdown)
}
