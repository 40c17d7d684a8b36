package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hetu-project/causality-engine/pkg/crypto"
)

func clearNodeEnv(t *testing.T) {
	t.Setenv("NODE_ID", "")
	t.Setenv("PORT", "")
	t.Setenv("PEERS", "")
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("MAX_RETRIES", "")
	t.Setenv("RETRY_INTERVAL", "")
	t.Setenv("DGRAPH_URL", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("LOG_CAPACITY", "")
}

func TestLoadDefaults(t *testing.T) {
	clearNodeEnv(t)
	t.Setenv("NODE_ID", "P1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "P1", cfg.NodeID)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryInterval)
	assert.Equal(t, 0, cfg.LogCapacity)
	assert.Empty(t, cfg.Peers)
	assert.NotNil(t, cfg.PrivateKey, "a signing key should be generated when none is configured")
}

func TestLoadRequiresNodeID(t *testing.T) {
	clearNodeEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NODE_ID")
}

func TestLoadParsesPeers(t *testing.T) {
	clearNodeEnv(t)
	t.Setenv("NODE_ID", "P1")
	t.Setenv("PEERS", `[{"id":"P2","url":"http://localhost:8082"},{"id":"P3","url":"http://localhost:8083"}]`)

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Peers, 2)
	assert.Equal(t, "P2", cfg.Peers[0].ID)
	assert.Equal(t, "http://localhost:8082", cfg.Peers[0].URL)
	assert.Equal(t, []string{"P1", "P2", "P3"}, cfg.Roster())
}

func TestLoadRejectsMalformedPeers(t *testing.T) {
	clearNodeEnv(t)
	t.Setenv("NODE_ID", "P1")
	t.Setenv("PEERS", `{"not":"a list"}`)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse peers")
}

func TestValidateRejectsDuplicateRoster(t *testing.T) {
	clearNodeEnv(t)
	t.Setenv("NODE_ID", "P1")
	t.Setenv("PEERS", `[{"id":"P2","url":"http://localhost:8082"},{"id":"P2","url":"http://localhost:8083"}]`)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate process id")
}

func TestValidateRejectsOwnIDAsPeer(t *testing.T) {
	clearNodeEnv(t)
	t.Setenv("NODE_ID", "P1")
	t.Setenv("PEERS", `[{"id":"P1","url":"http://localhost:8082"}]`)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate process id")
}

func TestLoadRoundTripsPrivateKey(t *testing.T) {
	clearNodeEnv(t)
	t.Setenv("NODE_ID", "P1")

	first, err := Load()
	require.NoError(t, err)

	// Feed the generated key back in; the same key must come out.
	t.Setenv("PRIVATE_KEY", crypto.PrivateKeyToHex(first.PrivateKey))

	second, err := Load()
	require.NoError(t, err)
	assert.Equal(t, first.PrivateKey.D, second.PrivateKey.D)
}

func TestLoadRejectsBadDurations(t *testing.T) {
	clearNodeEnv(t)
	t.Setenv("NODE_ID", "P1")
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout, "unparseable durations fall back to the default")
}
