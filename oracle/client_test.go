package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encrypted-match-system/encryption"
)

func TestClientRequestDecryption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/decryptions", r.URL.Path)
		assert.Equal(t, "svc-token", r.Header.Get("X-Service-Token"))

		var body decryptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "match-verification", body.CallbackID)
		assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, body.Handles)
		assert.NotEmpty(t, body.Nonce)

		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(decryptionResponse{RequestID: "req-42"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "svc-token", srv.Client())
	id, err := c.RequestDecryption(context.Background(), []encryption.Handle{encryption.Handle("a"), encryption.Handle("b")}, "match-verification")
	require.NoError(t, err)
	assert.Equal(t, "req-42", id)
}

func TestClientRequestDecryptionFailures(t *testing.T) {
	status := http.StatusBadGateway
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "svc-token", srv.Client())

	_, err := c.RequestDecryption(context.Background(), nil, "match-verification")
	assert.ErrorContains(t, err, "502")

	status = http.StatusOK
	_, err = c.RequestDecryption(context.Background(), nil, "match-verification")
	assert.ErrorContains(t, err, "missing request_id")
}

func TestClientFulfilledSince(t *testing.T) {
	since := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/decryptions/results", r.URL.Path)
		assert.Equal(t, since.Format(time.RFC3339Nano), r.URL.Query().Get("since"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []Result{{RequestID: "req-1", CallbackID: "player-stats", Cleartext: EncodeUint64(3), FulfilledAt: since.Add(time.Minute)}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "svc-token", srv.Client())
	results, err := c.FulfilledSince(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "req-1", results[0].RequestID)
	assert.Equal(t, EncodeUint64(3), results[0].Cleartext)
}
