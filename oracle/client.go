// oracle/client.go
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"encrypted-match-system/encryption"
)

// Requester submits ciphertexts for asynchronous decryption. It returns the
// oracle's request id immediately; the result arrives later through the
// callback named by callbackID.
type Requester interface {
	RequestDecryption(ctx context.Context, handles []encryption.Handle, callbackID string) (string, error)
}

// Result is a finished decryption as delivered by the oracle relay.
type Result struct {
	RequestID   string    `json:"request_id"`
	CallbackID  string    `json:"callback_id"`
	Cleartext   []byte    `json:"cleartext"`
	Proof       []byte    `json:"proof"`
	FulfilledAt time.Time `json:"fulfilled_at"`
}

// Client talks to the oracle gateway over HTTP.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{BaseURL: baseURL, Token: token, HTTPClient: httpClient}
}

type decryptionRequest struct {
	Nonce      string   `json:"nonce"`
	CallbackID string   `json:"callback_id"`
	Handles    [][]byte `json:"handles"`
}

type decryptionResponse struct {
	RequestID string `json:"request_id"`
}

func (c *Client) RequestDecryption(ctx context.Context, handles []encryption.Handle, callbackID string) (string, error) {
	body := decryptionRequest{Nonce: uuid.NewString(), CallbackID: callbackID}
	for _, h := range handles {
		body.Handles = append(body.Handles, []byte(h))
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode decryption request: %w", err)
	}

	u, err := url.JoinPath(c.BaseURL, "/api/v1/decryptions")
	if err != nil {
		return "", fmt.Errorf("invalid oracle URL '%s': %w", c.BaseURL, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call oracle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, string(b))
	}

	var out decryptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode oracle response: %w", err)
	}
	if out.RequestID == "" {
		return "", fmt.Errorf("oracle response missing request_id")
	}
	return out.RequestID, nil
}

// FulfilledSince lists results the oracle finished after since. Used by the
// pull-mode relay.
func (c *Client) FulfilledSince(ctx context.Context, since time.Time) ([]Result, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid oracle URL '%s': %w", c.BaseURL, err)
	}
	u = u.JoinPath("/api/v1/decryptions/results")
	q := u.Query()
	q.Set("since", since.UTC().Format(time.RFC3339Nano))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call oracle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, string(b))
	}

	var response struct {
		Results []Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode oracle results: %w", err)
	}
	return response.Results, nil
}
