package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupStampsServiceAndEnv(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "pharmanetd", "staging")

	logger.Info("server listening", "address", "127.0.0.1:8645")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "pharmanetd", record["service"])
	require.Equal(t, "staging", record["env"])
	require.Equal(t, "server listening", record["msg"])
	require.Equal(t, "127.0.0.1:8645", record["address"])
}

func TestProductionSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "pharmanetd", "production")

	logger.Debug("noisy detail")
	require.Zero(t, buf.Len())

	logger.Info("kept")
	require.NotZero(t, buf.Len())
}

func TestEmptyEnvLogsDebugWithoutEnvField(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "pharmanetd", "")

	logger.Debug("dev detail")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "pharmanetd", record["service"])
	require.NotContains(t, record, "env")
}
