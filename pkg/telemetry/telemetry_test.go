package telemetry

import (
	"context"
	"testing"

	"ip-witness/pkg/config"
	"ip-witness/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestLogger() *logging.Logger {
	logger, _ := logging.New(&config.LoggingConfig{
		Level:  "error",
		Format: "text",
		Output: "stdout",
	})
	return logger
}

func TestNew_Disabled(t *testing.T) {
	telem, err := New(context.Background(), &config.TelemetryConfig{Enabled: false}, getTestLogger())
	require.NoError(t, err)
	assert.NotNil(t, telem.MeterProvider())
}

func TestInitMetrics_NoopProvider(t *testing.T) {
	telem, err := New(context.Background(), &config.TelemetryConfig{Enabled: false}, getTestLogger())
	require.NoError(t, err)

	metrics, err := telem.InitMetrics()
	require.NoError(t, err)

	assert.NotNil(t, metrics.HTTPRequestsTotal)
	assert.NotNil(t, metrics.HTTPRequestDuration)
	assert.NotNil(t, metrics.LookupsTotal)
	assert.NotNil(t, metrics.LookupFailures)
	assert.NotNil(t, metrics.LookupDuration)

	// Instruments from the noop provider must be safe to use
	metrics.HTTPRequestsTotal.Add(context.Background(), 1)
	metrics.LookupDuration.Record(context.Background(), 12.5)
}

func TestShutdown_Disabled(t *testing.T) {
	telem, err := New(context.Background(), &config.TelemetryConfig{Enabled: false}, getTestLogger())
	require.NoError(t, err)

	assert.NoError(t, telem.Shutdown(context.Background()))
}
