package rpc

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrTimeout means the wait elapsed without a confirmation. The mutation
	// may still land; callers should recheck on the next scheduled refresh
	// instead of assuming failure.
	ErrTimeout = errors.New("timed out waiting for on-chain confirmation")
	// ErrReverted means the transaction was mined but failed.
	ErrReverted = errors.New("transaction reverted")
)

// ReceiptSource is the slice of the provider the waiter needs.
type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var txHashRe = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Confirmation describes what to wait for after submitting a mutation.
// TxHash is used when it is a well-formed transaction hash; the wallet
// bridge sometimes returns an opaque identifier instead, in which case
// Check polls the expected on-chain effect directly.
type Confirmation struct {
	TxHash string
	Check  func(ctx context.Context) (bool, error)
}

// Waiter polls the chain until a submitted transaction is confirmed or a
// caller-supplied predicate became true.
type Waiter struct {
	src          ReceiptSource
	Timeout      time.Duration
	PollInterval time.Duration
}

const (
	DefaultTimeout      = 60 * time.Second
	DefaultPollInterval = 1500 * time.Millisecond
)

// NewWaiter creates a Waiter with the default timeout and poll interval.
func NewWaiter(src ReceiptSource) *Waiter {
	return &Waiter{src: src, Timeout: DefaultTimeout, PollInterval: DefaultPollInterval}
}

// Await blocks until the confirmation is observed, the transaction is seen
// to have reverted, or the timeout elapses. Individual read failures while
// polling count as "not yet", not as fatal, so transient RPC errors cannot
// produce a spurious result.
func (w *Waiter) Await(ctx context.Context, conf Confirmation) error {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := w.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if txHashRe.MatchString(conf.TxHash) && w.src != nil {
		return w.awaitReceipt(waitCtx, ctx, common.HexToHash(conf.TxHash), interval)
	}
	if conf.Check != nil {
		return w.awaitCheck(waitCtx, ctx, conf.Check, interval)
	}
	return nil
}

func (w *Waiter) awaitReceipt(ctx, caller context.Context, hash common.Hash, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		rcpt, err := w.src.TransactionReceipt(ctx, hash)
		if err == nil && rcpt != nil {
			if rcpt.Status != types.ReceiptStatusSuccessful {
				return ErrReverted
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return waitDoneErr(caller)
		case <-ticker.C:
		}
	}
}

func (w *Waiter) awaitCheck(ctx, caller context.Context, check func(ctx context.Context) (bool, error), interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if ok, err := check(ctx); err == nil && ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return waitDoneErr(caller)
		case <-ticker.C:
		}
	}
}

// waitDoneErr separates a caller deliberately cancelling the wait from a
// deadline lapsing. A deadline, the waiter's own or the caller's, still
// means "unknown, recheck later".
func waitDoneErr(caller context.Context) error {
	if errors.Is(caller.Err(), context.Canceled) {
		return context.Canceled
	}
	return ErrTimeout
}
