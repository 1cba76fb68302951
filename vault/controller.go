package vault

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"wld-vault-tui/bridge"
	"wld-vault-tui/rpc"
)

// Outcome is the result of a mutation attempt that got past validation.
type Outcome int

const (
	// OutcomeConfirmed means the expected on-chain effect was observed.
	OutcomeConfirmed Outcome = iota
	// OutcomeCancelled means the user declined in the wallet.
	OutcomeCancelled
	// OutcomePending means the transaction was submitted but confirmation
	// timed out. Not a failure: the next scheduled refresh settles it.
	OutcomePending
)

// Awaiter blocks until a submitted mutation is confirmed.
type Awaiter interface {
	Await(ctx context.Context, conf rpc.Confirmation) error
}

// Controller drives the vault mutations. Every operation runs the same
// pipeline: local validation, dry-run simulation with revert translation,
// bridge submission, then targeted reconciliation against the expected
// on-chain effect.
type Controller struct {
	chain   ChainReader
	bridge  bridge.Bridge
	await   Awaiter
	factory common.Address
	token   common.Address
	account common.Address
}

func NewController(chain ChainReader, br bridge.Bridge, await Awaiter, factory, token, account common.Address) *Controller {
	return &Controller{chain: chain, bridge: br, await: await, factory: factory, token: token, account: account}
}

const daySeconds = 86_400

func validPeriod(days int) bool { return days >= 1 && days <= 365 }

func intervalSeconds(days int) *big.Int {
	return new(big.Int).Mul(big.NewInt(int64(days)), big.NewInt(daySeconds))
}

// Create deploys a vault for the account with heir and a heartbeat period
// in days. The factory is one-per-owner.
func (c *Controller) Create(ctx context.Context, heir common.Address, days int) (Outcome, error) {
	existing, err := c.chain.VaultOf(ctx, c.account)
	if err != nil {
		return 0, err
	}
	if existing != (common.Address{}) {
		return 0, ErrAlreadyHasVault
	}
	if heir == (common.Address{}) || heir == c.account {
		return 0, ErrInvalidHeir
	}
	if !validPeriod(days) {
		return 0, ErrInvalidPeriod
	}
	data := rpc.EncodeCreateVault(heir, intervalSeconds(days))
	return c.submit(ctx, c.factory, data, func(ctx context.Context) (bool, error) {
		addr, err := c.chain.VaultOf(ctx, c.account)
		return addr != (common.Address{}), err
	})
}

// Deposit moves amount of the token from the wallet into the vault with a
// plain ERC-20 transfer.
func (c *Controller) Deposit(ctx context.Context, vault common.Address, amount *big.Int) (Outcome, error) {
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	wallet, err := c.chain.TokenBalance(ctx, c.account)
	if err != nil {
		return 0, err
	}
	if wallet.Cmp(amount) < 0 {
		return 0, ErrInsufficientBalance
	}
	prev, err := c.chain.TokenBalance(ctx, vault)
	if err != nil {
		return 0, err
	}
	data := rpc.EncodeTransfer(vault, amount)
	return c.submit(ctx, c.token, data, c.balanceAbove(vault, prev))
}

// Ping resets the countdown. prevLastPing is the last observed ping
// timestamp, used to detect the reset.
func (c *Controller) Ping(ctx context.Context, vault common.Address, prevLastPing uint64) (Outcome, error) {
	return c.submit(ctx, vault, rpc.EncodePing(), func(ctx context.Context) (bool, error) {
		_, _, _, lastPing, err := c.chain.VaultDetails(ctx, vault)
		return lastPing > prevLastPing, err
	})
}

// ChangePeriod updates the heartbeat interval to days.
func (c *Controller) ChangePeriod(ctx context.Context, vault common.Address, days int) (Outcome, error) {
	if !validPeriod(days) {
		return 0, ErrInvalidPeriod
	}
	want := uint64(days) * daySeconds
	data := rpc.EncodeUpdateHeartbeat(intervalSeconds(days))
	return c.submit(ctx, vault, data, func(ctx context.Context) (bool, error) {
		_, _, interval, _, err := c.chain.VaultDetails(ctx, vault)
		return interval == want, err
	})
}

// UpdateHeir changes the designated heir.
func (c *Controller) UpdateHeir(ctx context.Context, vault, heir common.Address) (Outcome, error) {
	if heir == (common.Address{}) || heir == c.account {
		return 0, ErrInvalidHeir
	}
	data := rpc.EncodeUpdateHeir(heir)
	return c.submit(ctx, vault, data, func(ctx context.Context) (bool, error) {
		_, current, _, _, err := c.chain.VaultDetails(ctx, vault)
		return current == heir, err
	})
}

// Cancel disables inheritance. The contract models this as setting the
// heir to the owner.
func (c *Controller) Cancel(ctx context.Context, vault common.Address) (Outcome, error) {
	return c.submit(ctx, vault, rpc.EncodeCancelInheritance(), func(ctx context.Context) (bool, error) {
		owner, heir, _, _, err := c.chain.VaultDetails(ctx, vault)
		return owner != (common.Address{}) && owner == heir, err
	})
}

// Claim transfers the vault balance to the heir after expiry. canClaim is
// the contract's own flag from the latest status refresh.
func (c *Controller) Claim(ctx context.Context, vault common.Address, canClaim bool) (Outcome, error) {
	if !canClaim {
		return 0, ErrNotClaimable
	}
	prev, err := c.chain.TokenBalance(ctx, vault)
	if err != nil {
		return 0, err
	}
	return c.submit(ctx, vault, rpc.EncodeClaim(), c.balanceBelow(vault, prev))
}

// OwnerWithdraw pulls amount out of the vault to recipient. Closed once
// the vault is claimable: the contract forbids the owner draining funds
// the heir can already take.
func (c *Controller) OwnerWithdraw(ctx context.Context, vault common.Address, amount *big.Int, recipient common.Address, canClaim bool) (Outcome, error) {
	if canClaim {
		return 0, ErrWithdrawClosed
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if recipient == (common.Address{}) {
		return 0, ErrInvalidRecipient
	}
	prev, err := c.chain.TokenBalance(ctx, vault)
	if err != nil {
		return 0, err
	}
	if prev.Cmp(amount) < 0 {
		return 0, ErrInsufficientBalance
	}
	data := rpc.EncodeOwnerWithdraw(amount, recipient)
	return c.submit(ctx, vault, data, c.balanceBelow(vault, prev))
}

// Release clears the factory's vault registration after the heir claimed
// everything. Destructive, so it demands an explicit acknowledgment from
// the confirm dialog.
func (c *Controller) Release(ctx context.Context, supported, canClaim bool, balance *big.Int, acknowledged bool) (Outcome, error) {
	if !supported {
		return 0, ErrReleaseUnsupported
	}
	if !canClaim {
		return 0, ErrNotClaimable
	}
	if balance != nil && balance.Sign() != 0 {
		return 0, ErrVaultNotEmpty
	}
	if !acknowledged {
		return 0, ErrNotAcknowledged
	}
	return c.submit(ctx, c.factory, rpc.EncodeReleaseMyVault(), func(ctx context.Context) (bool, error) {
		addr, err := c.chain.VaultOf(ctx, c.account)
		return addr == (common.Address{}), err
	})
}

func (c *Controller) balanceAbove(holder common.Address, prev *big.Int) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		bal, err := c.chain.TokenBalance(ctx, holder)
		if err != nil {
			return false, err
		}
		return bal.Cmp(prev) > 0, nil
	}
}

func (c *Controller) balanceBelow(holder common.Address, prev *big.Int) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		bal, err := c.chain.TokenBalance(ctx, holder)
		if err != nil {
			return false, err
		}
		return bal.Cmp(prev) < 0, nil
	}
}

// submit runs the shared tail of every mutation: simulate, hand to the
// wallet bridge, then wait for either the receipt or the reconciliation
// predicate. A confirmation timeout surfaces as OutcomePending, since the
// transaction may still land after we stop watching.
func (c *Controller) submit(ctx context.Context, to common.Address, data []byte, check func(ctx context.Context) (bool, error)) (Outcome, error) {
	if err := c.chain.Simulate(ctx, c.account, to, data); err != nil {
		return 0, FriendlyRevert(err)
	}

	payload, err := c.bridge.SendTransaction(ctx, []bridge.TxRequest{{
		To:   to.Hex(),
		Data: hexutil.Encode(data),
	}})
	if err != nil {
		return 0, err
	}
	switch payload.Status {
	case bridge.StatusSuccess:
	case bridge.StatusCancelled:
		return OutcomeCancelled, nil
	default:
		return 0, payload.Err()
	}

	err = c.await.Await(ctx, rpc.Confirmation{TxHash: payload.TransactionID, Check: check})
	switch {
	case errors.Is(err, rpc.ErrTimeout):
		return OutcomePending, nil
	case err != nil:
		return 0, err
	}
	return OutcomeConfirmed, nil
}
