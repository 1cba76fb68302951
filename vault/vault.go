// Package vault holds the inheritance vault domain model: the vault
// snapshot, discovery and refresh over the chain, and the mutation
// lifecycle from validation through reconciliation.
package vault

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Vault is the client-side snapshot of one inheritance vault contract.
// LastPing and HeartbeatInterval are unix seconds; the derived countdown
// helpers are advisory only, the contract's own timeRemaining and canClaim
// reads are authoritative.
type Vault struct {
	Address           common.Address
	Owner             common.Address
	Heir              common.Address
	HeartbeatInterval uint64
	LastPing          uint64
	Balance           *big.Int
	CreatedBlock      uint64
	CreatedTime       uint64
}

// ExpiryTime is the moment the countdown lapses.
func (v *Vault) ExpiryTime() time.Time {
	return time.Unix(int64(v.LastPing+v.HeartbeatInterval), 0)
}

// TimeRemainingAt derives the remaining countdown seconds at now,
// clamped at zero.
func (v *Vault) TimeRemainingAt(now time.Time) uint64 {
	expiry := v.LastPing + v.HeartbeatInterval
	ts := uint64(now.Unix())
	if ts >= expiry {
		return 0
	}
	return expiry - ts
}

// ExpiredAt reports whether the vault looks expired at now. When the
// contract's canClaim flag is known it wins over the local clock.
func (v *Vault) ExpiredAt(now time.Time, canClaim *bool) bool {
	if canClaim != nil {
		return *canClaim
	}
	return v.TimeRemainingAt(now) == 0
}

// Cancelled reports whether inheritance is disabled, which the contract
// represents as heir == owner.
func (v *Vault) Cancelled() bool {
	return v.Heir == v.Owner && v.Owner != (common.Address{})
}
