// Package bridge talks to the local wallet companion daemon. The daemon
// holds the keys and drives the user's approval flow; this client only
// submits commands and reads back their outcome.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrUnavailable means the companion daemon is not reachable. The app
	// keeps working read-only; only mutations need the bridge.
	ErrUnavailable = errors.New("wallet bridge unavailable")
	// ErrCancelled means the user declined the request in the wallet UI.
	ErrCancelled = errors.New("cancelled in wallet")
)

// Status is the outcome tag on every bridge response.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Payload is the daemon's response to a command.
type Payload struct {
	Status        Status `json:"status"`
	Address       string `json:"address,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	ErrorCode     string `json:"error_code,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// Err maps a non-success payload to an error, nil otherwise.
func (p Payload) Err() error {
	switch p.Status {
	case StatusSuccess:
		return nil
	case StatusCancelled:
		return ErrCancelled
	default:
		if p.ErrorMessage != "" {
			return fmt.Errorf("wallet bridge: %s", p.ErrorMessage)
		}
		if p.ErrorCode != "" {
			return fmt.Errorf("wallet bridge: %s", p.ErrorCode)
		}
		return errors.New("wallet bridge: command failed")
	}
}

// TxRequest is one transaction for the daemon to sign and submit.
// Data is 0x-prefixed calldata.
type TxRequest struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value,omitempty"`
}

// Bridge is the command surface the rest of the app depends on.
// Client implements it over HTTP; tests use in-memory fakes.
type Bridge interface {
	Available(ctx context.Context) bool
	WalletAuth(ctx context.Context, nonce string) (Payload, error)
	Verify(ctx context.Context, action string) (Payload, error)
	SendTransaction(ctx context.Context, txs []TxRequest) (Payload, error)
}

// Client is the HTTP bridge client.
type Client struct {
	http *resty.Client
}

// New creates a bridge client for the daemon at base (e.g.
// http://localhost:7878). The long timeout covers the user reading
// and approving the request in the wallet UI.
func New(base string) *Client {
	c := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetTimeout(20 * time.Second)
	return &Client{http: c}
}

// Available probes the daemon's status endpoint.
func (c *Client) Available(ctx context.Context) bool {
	resp, err := c.http.R().SetContext(ctx).Get("/status")
	return err == nil && resp.StatusCode() == http.StatusOK
}

// WalletAuth asks the daemon to authenticate the user and return the
// wallet address, binding the signature to nonce.
func (c *Client) WalletAuth(ctx context.Context, nonce string) (Payload, error) {
	return c.command(ctx, "/command/wallet-auth", map[string]string{"nonce": nonce})
}

// Verify runs a proof-of-personhood check for the named action.
func (c *Client) Verify(ctx context.Context, action string) (Payload, error) {
	return c.command(ctx, "/command/verify", map[string]string{"action": action})
}

// SendTransaction hands the transactions to the daemon for signing and
// submission. A success payload carries the daemon's transaction
// identifier, which is not always an on-chain hash.
func (c *Client) SendTransaction(ctx context.Context, txs []TxRequest) (Payload, error) {
	return c.command(ctx, "/command/send-transaction", map[string]any{"transactions": txs})
}

func (c *Client) command(ctx context.Context, path string, body any) (Payload, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post(path)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Payload{}, fmt.Errorf("wallet bridge: status %d: %s", resp.StatusCode(), resp.String())
	}
	var p Payload
	if err := json.Unmarshal(resp.Body(), &p); err != nil {
		return Payload{}, fmt.Errorf("wallet bridge: decode response: %w", err)
	}
	return p, nil
}
