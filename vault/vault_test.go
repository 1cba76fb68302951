package vault

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestCountdownDerivation(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	v := &Vault{
		LastPing:          uint64(base.Unix()),
		HeartbeatInterval: 100,
		Balance:           big.NewInt(0),
	}

	t.Run("mid countdown", func(t *testing.T) {
		now := base.Add(40 * time.Second)
		if got := v.TimeRemainingAt(now); got != 60 {
			t.Errorf("TimeRemainingAt = %d, want 60", got)
		}
		if v.ExpiredAt(now, nil) {
			t.Error("should not be expired mid countdown")
		}
	})

	t.Run("past expiry clamps to zero", func(t *testing.T) {
		now := base.Add(150 * time.Second)
		if got := v.TimeRemainingAt(now); got != 0 {
			t.Errorf("TimeRemainingAt = %d, want 0", got)
		}
		if !v.ExpiredAt(now, nil) {
			t.Error("should be expired after the interval lapsed")
		}
	})

	t.Run("exact expiry boundary", func(t *testing.T) {
		now := base.Add(100 * time.Second)
		if got := v.TimeRemainingAt(now); got != 0 {
			t.Errorf("TimeRemainingAt at the boundary = %d, want 0", got)
		}
	})

	t.Run("contract flag wins over local clock", func(t *testing.T) {
		now := base.Add(150 * time.Second)
		no := false
		// Local clock says expired, the contract says not claimable yet.
		if v.ExpiredAt(now, &no) {
			t.Error("contract canClaim=false must override the derived countdown")
		}
		yes := true
		if !v.ExpiredAt(base, &yes) {
			t.Error("contract canClaim=true must override the derived countdown")
		}
	})

	if got := v.ExpiryTime(); got.Unix() != base.Unix()+100 {
		t.Errorf("ExpiryTime = %v", got)
	}
}

func TestCancelled(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	heir := common.HexToAddress("0x2222222222222222222222222222222222222222")

	if (&Vault{Owner: owner, Heir: heir}).Cancelled() {
		t.Error("distinct heir should not read as cancelled")
	}
	if !(&Vault{Owner: owner, Heir: owner}).Cancelled() {
		t.Error("heir == owner means inheritance is disabled")
	}
	if (&Vault{}).Cancelled() {
		t.Error("zero vault should not read as cancelled")
	}
}
