package vault

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"wld-vault-tui/bridge"
	"wld-vault-tui/rpc"
)

// fakeBridge returns a scripted payload and records what was submitted.
type fakeBridge struct {
	payload bridge.Payload
	err     error
	sent    []bridge.TxRequest
}

func (f *fakeBridge) Available(ctx context.Context) bool { return true }

func (f *fakeBridge) WalletAuth(ctx context.Context, nonce string) (bridge.Payload, error) {
	return f.payload, f.err
}

func (f *fakeBridge) Verify(ctx context.Context, action string) (bridge.Payload, error) {
	return f.payload, f.err
}

func (f *fakeBridge) SendTransaction(ctx context.Context, txs []bridge.TxRequest) (bridge.Payload, error) {
	f.sent = append(f.sent, txs...)
	return f.payload, f.err
}

// fakeAwaiter runs the reconciliation predicate once, or returns a
// scripted error.
type fakeAwaiter struct {
	err error
}

func (f *fakeAwaiter) Await(ctx context.Context, conf rpc.Confirmation) error {
	if f.err != nil {
		return f.err
	}
	if conf.Check != nil {
		ok, err := conf.Check(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return rpc.ErrTimeout
		}
	}
	return nil
}

func newController(chain *fakeChain, br *fakeBridge, aw *fakeAwaiter) *Controller {
	token := common.HexToAddress("0x5555555555555555555555555555555555555555")
	return NewController(chain, br, aw, testFactory, token, testAccount)
}

func okBridge() *fakeBridge {
	return &fakeBridge{payload: bridge.Payload{Status: bridge.StatusSuccess, TransactionID: "op-1"}}
}

func TestCreateGuards(t *testing.T) {
	tests := []struct {
		name  string
		chain *fakeChain
		heir  common.Address
		days  int
		want  error
	}{
		{"already has vault", &fakeChain{vaultOf: testVault}, testHeir, 30, ErrAlreadyHasVault},
		{"zero heir", &fakeChain{}, common.Address{}, 30, ErrInvalidHeir},
		{"self heir", &fakeChain{}, testAccount, 30, ErrInvalidHeir},
		{"zero days", &fakeChain{}, testHeir, 0, ErrInvalidPeriod},
		{"too many days", &fakeChain{}, testHeir, 366, ErrInvalidPeriod},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			br := okBridge()
			c := newController(tc.chain, br, &fakeAwaiter{})
			_, err := c.Create(context.Background(), tc.heir, tc.days)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if len(br.sent) != 0 {
				t.Error("guard failure must not reach the bridge")
			}
		})
	}
}

// flippingChain reports no vault on the first VaultOf read (the guard) and
// the created vault afterwards (reconciliation).
type flippingChain struct {
	fakeChain
	after common.Address
	reads int
}

func (f *flippingChain) VaultOf(ctx context.Context, owner common.Address) (common.Address, error) {
	f.reads++
	if f.reads == 1 {
		return common.Address{}, nil
	}
	return f.after, nil
}

func TestCreateConfirmed(t *testing.T) {
	flip := &flippingChain{after: testVault}
	br := okBridge()
	c := NewController(flip, br, &fakeAwaiter{}, testFactory, common.HexToAddress("0x5555555555555555555555555555555555555555"), testAccount)

	outcome, err := c.Create(context.Background(), testHeir, 30)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeConfirmed {
		t.Fatalf("outcome = %v, want confirmed", outcome)
	}
	if len(br.sent) != 1 || !strings.HasPrefix(br.sent[0].Data, "0x") {
		t.Fatalf("submitted tx = %+v", br.sent)
	}
}

func TestDepositGuards(t *testing.T) {
	chain := &fakeChain{balances: map[common.Address]*big.Int{testAccount: big.NewInt(100)}}
	br := okBridge()
	c := newController(chain, br, &fakeAwaiter{})

	t.Run("nil amount", func(t *testing.T) {
		if _, err := c.Deposit(context.Background(), testVault, nil); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("zero amount", func(t *testing.T) {
		if _, err := c.Deposit(context.Background(), testVault, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("exceeds wallet balance", func(t *testing.T) {
		if _, err := c.Deposit(context.Background(), testVault, big.NewInt(101)); !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("err = %v", err)
		}
	})
	if len(br.sent) != 0 {
		t.Error("guard failures must not reach the bridge")
	}
}

func TestChangePeriodReconciles(t *testing.T) {
	t.Run("interval matches", func(t *testing.T) {
		chain := &fakeChain{interval: 45 * daySeconds}
		c := newController(chain, okBridge(), &fakeAwaiter{})
		outcome, err := c.ChangePeriod(context.Background(), testVault, 45)
		if err != nil {
			t.Fatal(err)
		}
		if outcome != OutcomeConfirmed {
			t.Fatalf("outcome = %v", outcome)
		}
	})

	t.Run("interval never matches", func(t *testing.T) {
		chain := &fakeChain{interval: 30 * daySeconds}
		c := newController(chain, okBridge(), &fakeAwaiter{})
		outcome, err := c.ChangePeriod(context.Background(), testVault, 45)
		if err != nil {
			t.Fatal(err)
		}
		if outcome != OutcomePending {
			t.Fatalf("unconfirmed mutation should be pending, got %v", outcome)
		}
	})

	t.Run("invalid period", func(t *testing.T) {
		c := newController(&fakeChain{}, okBridge(), &fakeAwaiter{})
		if _, err := c.ChangePeriod(context.Background(), testVault, 400); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestClaimRequiresClaimable(t *testing.T) {
	br := okBridge()
	c := newController(&fakeChain{balances: map[common.Address]*big.Int{testVault: big.NewInt(10)}}, br, &fakeAwaiter{})

	if _, err := c.Claim(context.Background(), testVault, false); !errors.Is(err, ErrNotClaimable) {
		t.Fatalf("err = %v", err)
	}
	if len(br.sent) != 0 {
		t.Error("guard failure must not reach the bridge")
	}
}

func TestOwnerWithdrawGuards(t *testing.T) {
	chain := &fakeChain{balances: map[common.Address]*big.Int{testVault: big.NewInt(100)}}
	c := newController(chain, okBridge(), &fakeAwaiter{})
	to := common.HexToAddress("0x6666666666666666666666666666666666666666")

	t.Run("closed when claimable", func(t *testing.T) {
		_, err := c.OwnerWithdraw(context.Background(), testVault, big.NewInt(1), to, true)
		if !errors.Is(err, ErrWithdrawClosed) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("zero recipient", func(t *testing.T) {
		_, err := c.OwnerWithdraw(context.Background(), testVault, big.NewInt(1), common.Address{}, false)
		if !errors.Is(err, ErrInvalidRecipient) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("exceeds vault balance", func(t *testing.T) {
		_, err := c.OwnerWithdraw(context.Background(), testVault, big.NewInt(101), to, false)
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestReleaseGuards(t *testing.T) {
	c := newController(&fakeChain{}, okBridge(), &fakeAwaiter{})
	zero := big.NewInt(0)

	tests := []struct {
		name         string
		supported    bool
		canClaim     bool
		balance      *big.Int
		acknowledged bool
		want         error
	}{
		{"unsupported factory", false, true, zero, true, ErrReleaseUnsupported},
		{"not claimable", true, false, zero, true, ErrNotClaimable},
		{"non-empty vault", true, true, big.NewInt(5), true, ErrVaultNotEmpty},
		{"not acknowledged", true, true, zero, false, ErrNotAcknowledged},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Release(context.Background(), tc.supported, tc.canClaim, tc.balance, tc.acknowledged)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSubmitOutcomes(t *testing.T) {
	t.Run("simulation failure is translated", func(t *testing.T) {
		chain := &fakeChain{simulateErr: errors.New("execution reverted: ALREADY_HAS_VAULT")}
		br := okBridge()
		c := newController(chain, br, &fakeAwaiter{})

		_, err := c.Ping(context.Background(), testVault, 0)
		var simErr *SimulationError
		if !errors.As(err, &simErr) {
			t.Fatalf("expected SimulationError, got %v", err)
		}
		if !strings.Contains(simErr.Friendly, "one-per-owner") {
			t.Errorf("revert not translated: %s", simErr.Friendly)
		}
		if len(br.sent) != 0 {
			t.Error("failed simulation must not reach the bridge")
		}
	})

	t.Run("user cancellation is not an error", func(t *testing.T) {
		br := &fakeBridge{payload: bridge.Payload{Status: bridge.StatusCancelled}}
		c := newController(&fakeChain{}, br, &fakeAwaiter{})

		outcome, err := c.Ping(context.Background(), testVault, 0)
		if err != nil {
			t.Fatalf("cancellation should not error: %v", err)
		}
		if outcome != OutcomeCancelled {
			t.Fatalf("outcome = %v", outcome)
		}
	})

	t.Run("bridge failure surfaces", func(t *testing.T) {
		br := &fakeBridge{payload: bridge.Payload{Status: bridge.StatusFailed, ErrorMessage: "daemon exploded"}}
		c := newController(&fakeChain{}, br, &fakeAwaiter{})

		if _, err := c.Ping(context.Background(), testVault, 0); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("confirmation timeout is pending", func(t *testing.T) {
		c := newController(&fakeChain{}, okBridge(), &fakeAwaiter{err: rpc.ErrTimeout})

		outcome, err := c.Ping(context.Background(), testVault, 0)
		if err != nil {
			t.Fatalf("timeout should not error: %v", err)
		}
		if outcome != OutcomePending {
			t.Fatalf("outcome = %v", outcome)
		}
	})

	t.Run("ping reconciles on newer lastPing", func(t *testing.T) {
		chain := &fakeChain{lastPing: 1_700_000_100}
		c := newController(chain, okBridge(), &fakeAwaiter{})

		outcome, err := c.Ping(context.Background(), testVault, 1_700_000_000)
		if err != nil {
			t.Fatal(err)
		}
		if outcome != OutcomeConfirmed {
			t.Fatalf("outcome = %v", outcome)
		}
	})
}
