package vault

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"wld-vault-tui/rpc"
)

// ChainReader is the read/simulate surface the synchronizer and controller
// need. *rpc.Client satisfies it; tests supply fakes.
type ChainReader interface {
	VaultOf(ctx context.Context, owner common.Address) (common.Address, error)
	VaultDetails(ctx context.Context, vault common.Address) (owner, heir common.Address, interval, lastPing uint64, err error)
	VaultStatus(ctx context.Context, vault common.Address) (remaining uint64, canClaim bool, err error)
	TokenMeta(ctx context.Context) (symbol string, decimals uint8, err error)
	TokenBalance(ctx context.Context, holder common.Address) (*big.Int, error)
	Simulate(ctx context.Context, from, to common.Address, data []byte) error
}

// HeirScanner finds vaults through the factory's creation events.
type HeirScanner interface {
	VaultsByHeir(ctx context.Context, heir common.Address) ([]common.Address, error)
	CreationMeta(ctx context.Context, vault, owner, heir, account common.Address) (*rpc.CreationMeta, error)
}

// Synchronizer loads and refreshes vault state from the chain.
type Synchronizer struct {
	chain   ChainReader
	scan    HeirScanner
	factory common.Address
}

func NewSynchronizer(chain ChainReader, scan HeirScanner, factory common.Address) *Synchronizer {
	return &Synchronizer{chain: chain, scan: scan, factory: factory}
}

// Discovery is the outcome of locating the account's vault. ScanFailed
// means the heir-side event scan could not run; the account may still be
// an heir to a vault the client cannot see.
type Discovery struct {
	Vault      common.Address
	HeirVaults []common.Address
	ScanFailed bool
}

// LoadVault locates the vault for account: the factory's owner mapping
// first, then the heir-side creation-event scan. A single heir match is
// selected automatically; multiple matches are returned for the user to
// choose from.
func (s *Synchronizer) LoadVault(ctx context.Context, account common.Address) (Discovery, error) {
	addr, err := s.chain.VaultOf(ctx, account)
	if err != nil {
		return Discovery{}, err
	}
	if addr != (common.Address{}) {
		return Discovery{Vault: addr}, nil
	}

	vaults, err := s.scan.VaultsByHeir(ctx, account)
	if err != nil {
		return Discovery{ScanFailed: true}, nil
	}
	if len(vaults) == 1 {
		return Discovery{Vault: vaults[0]}, nil
	}
	return Discovery{HeirVaults: vaults}, nil
}

// Details is one consistent read of the vault's configuration.
type Details struct {
	Owner    common.Address
	Heir     common.Address
	Interval uint64
	LastPing uint64
}

// RefreshDetails re-reads the vault configuration. On error the caller
// keeps its previous snapshot.
func (s *Synchronizer) RefreshDetails(ctx context.Context, vault common.Address) (Details, error) {
	owner, heir, interval, lastPing, err := s.chain.VaultDetails(ctx, vault)
	if err != nil {
		return Details{}, err
	}
	return Details{Owner: owner, Heir: heir, Interval: interval, LastPing: lastPing}, nil
}

// Balances is one read of the token metadata plus wallet and vault balances.
type Balances struct {
	Symbol   string
	Decimals uint8
	Wallet   *big.Int
	Vault    *big.Int
}

// RefreshBalances reads token metadata and balances in parallel. A zero
// vault address skips the vault-side read.
func (s *Synchronizer) RefreshBalances(ctx context.Context, account, vault common.Address) (Balances, error) {
	var b Balances
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		symbol, decimals, err := s.chain.TokenMeta(ctx)
		if err != nil {
			return err
		}
		b.Symbol, b.Decimals = symbol, decimals
		return nil
	})
	g.Go(func() error {
		bal, err := s.chain.TokenBalance(ctx, account)
		if err != nil {
			return err
		}
		b.Wallet = bal
		return nil
	})
	if vault != (common.Address{}) {
		g.Go(func() error {
			bal, err := s.chain.TokenBalance(ctx, vault)
			if err != nil {
				return err
			}
			b.Vault = bal
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Balances{}, err
	}
	return b, nil
}

// Status is the contract's own countdown and claimability. These reads are
// authoritative; locally derived countdowns only fill the gaps between
// refreshes.
type Status struct {
	Remaining uint64
	CanClaim  bool
}

func (s *Synchronizer) RefreshTimer(ctx context.Context, vault common.Address) (Status, error) {
	remaining, canClaim, err := s.chain.VaultStatus(ctx, vault)
	if err != nil {
		return Status{}, err
	}
	return Status{Remaining: remaining, CanClaim: canClaim}, nil
}

// CreationMeta finds the vault's creation block and timestamp for display.
func (s *Synchronizer) CreationMeta(ctx context.Context, vault, owner, heir, account common.Address) (*rpc.CreationMeta, error) {
	return s.scan.CreationMeta(ctx, vault, owner, heir, account)
}

// SupportsRelease probes whether the factory exposes releaseMyVault by
// simulating the call. Older factory deployments revert with an unknown
// selector; current ones either succeed or revert with one of the known
// guard reasons.
func (s *Synchronizer) SupportsRelease(ctx context.Context, account common.Address) bool {
	err := s.chain.Simulate(ctx, account, s.factory, rpc.EncodeReleaseMyVault())
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NO_VAULT") ||
		strings.Contains(msg, "NOT_OWNER") ||
		strings.Contains(msg, "NON_EMPTY")
}
