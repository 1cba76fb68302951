// Package session manages the wallet connection lifecycle: restoring a
// persisted account, authenticating through the wallet bridge, and the
// optional personhood verification gate.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"wld-vault-tui/bridge"
	"wld-vault-tui/helpers"
)

// Store persists the session between runs. The config layer implements it.
type Store interface {
	Account() string
	SetAccount(addr string) error
	Verified() bool
	SetVerified(v bool) error
}

// Manager drives connect, restore and verify against the bridge.
type Manager struct {
	store  Store
	bridge bridge.Bridge

	// RequireVerify gates mutations behind a one-time personhood check
	// for ActionID.
	RequireVerify bool
	ActionID      string
}

func NewManager(store Store, br bridge.Bridge) *Manager {
	return &Manager{store: store, bridge: br}
}

// Restore returns the persisted account, if any. A restored session is
// read-only until the user reconnects through the bridge.
func (m *Manager) Restore() (common.Address, bool) {
	saved := m.store.Account()
	if !helpers.IsValidEthAddress(saved) {
		return common.Address{}, false
	}
	return common.HexToAddress(saved), true
}

// Connect authenticates through the wallet bridge with a fresh random
// nonce and persists the returned account.
func (m *Manager) Connect(ctx context.Context) (common.Address, error) {
	if !m.bridge.Available(ctx) {
		return common.Address{}, bridge.ErrUnavailable
	}

	nonce, err := newNonce()
	if err != nil {
		return common.Address{}, err
	}
	payload, err := m.bridge.WalletAuth(ctx, nonce)
	if err != nil {
		return common.Address{}, err
	}
	if err := payload.Err(); err != nil {
		return common.Address{}, err
	}
	if !helpers.IsValidEthAddress(payload.Address) {
		return common.Address{}, fmt.Errorf("wallet auth returned a malformed address: %q", payload.Address)
	}

	addr := common.HexToAddress(payload.Address)
	if err := m.store.SetAccount(addr.Hex()); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// Verified reports whether the personhood gate is already satisfied.
// Always true when verification is not required.
func (m *Manager) Verified() bool {
	return !m.RequireVerify || m.store.Verified()
}

// Verify runs the personhood check when required and not yet passed,
// persisting the flag on success.
func (m *Manager) Verify(ctx context.Context) error {
	if m.Verified() {
		return nil
	}
	payload, err := m.bridge.Verify(ctx, m.ActionID)
	if err != nil {
		return err
	}
	if err := payload.Err(); err != nil {
		return err
	}
	return m.store.SetVerified(true)
}

// Disconnect clears the persisted session.
func (m *Manager) Disconnect() error {
	if err := m.store.SetAccount(""); err != nil {
		return err
	}
	return m.store.SetVerified(false)
}

func newNonce() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
