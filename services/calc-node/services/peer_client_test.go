package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hetu-project/causality-engine/pkg/causality"
	"github.com/hetu-project/causality-engine/pkg/crypto"
	"github.com/hetu-project/causality-engine/pkg/eventlog"
	"github.com/hetu-project/causality-engine/pkg/protocol"
	"github.com/hetu-project/causality-engine/pkg/vclock"
)

// fakePeer runs a real sum service behind a plain HTTP handler, so client
// tests exercise both ends of the exchange.
func fakePeer(t *testing.T, ss *SumService) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req protocol.SumRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		resp, err := ss.HandleSumRequest(&req)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func clientConfig(server *httptest.Server, publicKey string) *protocol.NetworkConfig {
	return &protocol.NetworkConfig{
		Peers: []protocol.PeerEndpoint{
			{ID: "P2", URL: server.URL, PublicKey: publicKey},
		},
		RequestTimeout: 2 * time.Second,
		MaxRetries:     0,
		RetryInterval:  time.Millisecond,
	}
}

func TestSendSumExchangesClocks(t *testing.T) {
	peerCS := newTestClockService(t, "P2", "P1")
	server := fakePeer(t, NewSumService(peerCS, nil))
	defer server.Close()

	cs := newTestClockService(t, "P1", "P2")
	client := NewPeerClient(clientConfig(server, ""), "P1", cs)

	exchange, err := client.SendSum(context.Background(), "P2", 1, 100)
	require.NoError(t, err)

	assert.Equal(t, int64(5050), exchange.Response.Sum)
	assert.Equal(t, "P2", exchange.Response.ResponderID)

	// Our send ticked first, the reply merged P2's two events on top.
	assert.Equal(t, "{P1:1, P2:0}", exchange.SendEvent.Snapshot.Format())
	assert.Equal(t, "{P1:2, P2:2}", exchange.ReplyEvent.Snapshot.Format())
	assert.Equal(t, causality.After, exchange.ReplyRelation)

	// Our request was causally ahead of the peer's pre-merge state.
	assert.Equal(t, "happened-after", exchange.Response.RequestRelation)

	events := cs.Log().All()
	require.Len(t, events, 2)
	assert.Equal(t, eventlog.TypeMessageSent, events[0].Type)
	assert.Equal(t, eventlog.TypeReplyReceived, events[1].Type)
}

func TestSendSumUnknownPeer(t *testing.T) {
	cs := newTestClockService(t, "P1", "P2")
	config := &protocol.NetworkConfig{RequestTimeout: time.Second}
	client := NewPeerClient(config, "P1", cs)

	_, err := client.SendSum(context.Background(), "P9", 1, 10)
	require.Error(t, err)
	assert.Equal(t, int64(0), cs.ValueOf("P1"))
}

func TestSendSumRollsBackOnConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // nothing listens on the recorded address anymore

	cs := newTestClockService(t, "P1", "P2")
	client := NewPeerClient(clientConfig(server, ""), "P1", cs)

	_, err := client.SendSum(context.Background(), "P2", 1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clock unchanged")

	assert.Equal(t, int64(0), cs.ValueOf("P1"))
	assert.Equal(t, 0, cs.Log().Len())
}

func TestSendSumRollsBackOnPeerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	cs := newTestClockService(t, "P1", "P2")
	client := NewPeerClient(clientConfig(server, ""), "P1", cs)

	_, err := client.SendSum(context.Background(), "P2", 10, 1)
	require.Error(t, err)

	assert.Equal(t, int64(0), cs.ValueOf("P1"))
	assert.Equal(t, 0, cs.Log().Len())
}

func TestSendSumRetriesUntilSuccess(t *testing.T) {
	peerCS := newTestClockService(t, "P2", "P1")
	sumService := NewSumService(peerCS, nil)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var req protocol.SumRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp, err := sumService.HandleSumRequest(&req)
		require.NoError(t, err)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	config := clientConfig(server, "")
	config.MaxRetries = 2

	cs := newTestClockService(t, "P1", "P2")
	client := NewPeerClient(config, "P1", cs)

	exchange, err := client.SendSum(context.Background(), "P2", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(55), exchange.Response.Sum)
	assert.Equal(t, int32(2), attempts.Load())

	// The retried attempts resend the same snapshot; the clock ticked once.
	assert.Equal(t, int64(1), exchange.SendEvent.Snapshot.Value("P1"))
}

func TestSendSumVerifiesResponseSignature(t *testing.T) {
	peerKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	peerCS := newTestClockService(t, "P2", "P1")
	server := fakePeer(t, NewSumService(peerCS, peerKey))
	defer server.Close()

	t.Run("accepts valid signature", func(t *testing.T) {
		cs := newTestClockService(t, "P1", "P2")
		client := NewPeerClient(clientConfig(server, crypto.PublicKeyToHex(&peerKey.PublicKey)), "P1", cs)

		_, err := client.SendSum(context.Background(), "P2", 1, 10)
		require.NoError(t, err)
	})

	t.Run("rejects wrong key and rolls back", func(t *testing.T) {
		otherKey, err := crypto.GeneratePrivateKey()
		require.NoError(t, err)

		cs := newTestClockService(t, "P1", "P2")
		client := NewPeerClient(clientConfig(server, crypto.PublicKeyToHex(&otherKey.PublicKey)), "P1", cs)

		_, err = client.SendSum(context.Background(), "P2", 1, 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "clock unchanged")
		assert.Equal(t, int64(0), cs.ValueOf("P1"))
		assert.Equal(t, 0, cs.Log().Len())
	})
}

func TestSendSumRejectsMismatchedRequestID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := protocol.SumResponse{
			ResponderID: "P2",
			RequestID:   "someone-elses-request",
			Sum:         55,
			Clock:       vclock.Snapshot{"P1": 1, "P2": 1},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cs := newTestClockService(t, "P1", "P2")
	client := NewPeerClient(clientConfig(server, ""), "P1", cs)

	_, err := client.SendSum(context.Background(), "P2", 1, 10)
	require.Error(t, err)
	assert.Equal(t, int64(0), cs.ValueOf("P1"))
}
