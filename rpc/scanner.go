package rpc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogSource is the slice of the provider the scanner needs. *ethclient.Client
// satisfies it; tests supply a fake.
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Window sizes for scans without a known deploy block. L2 gateways commonly
// cap fromBlock ranges, so a rejected wide query retries narrower.
const (
	wideScanSpan   = 20_000
	narrowScanSpan = 5_000
)

// Scanner queries the factory's historical VaultCreated events.
type Scanner struct {
	src         LogSource
	factory     common.Address
	deployBlock uint64 // 0 = unknown
}

// NewScanner creates a scanner for the factory's creation event stream.
// deployBlock 0 means unknown; scans then cover a bounded recent window
// and may miss very old events.
func NewScanner(src LogSource, factory common.Address, deployBlock uint64) *Scanner {
	return &Scanner{src: src, factory: factory, deployBlock: deployBlock}
}

// AddressTopic left-pads an address into an indexed-topic hash.
func AddressTopic(a common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(a.Bytes(), 32))
}

// filterRange runs one logical scan. With a deploy block configured the scan
// covers deploy→head in a single pass; otherwise it tries a recent window
// from the head and narrows once if the provider rejects the range.
func (s *Scanner) filterRange(ctx context.Context, topics [][]common.Hash) ([]types.Log, error) {
	q := ethereum.FilterQuery{
		Addresses: []common.Address{s.factory},
		Topics:    topics,
	}
	if s.deployBlock > 0 {
		q.FromBlock = new(big.Int).SetUint64(s.deployBlock)
		return s.src.FilterLogs(ctx, q)
	}

	head, err := s.src.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	from := uint64(0)
	if head > wideScanSpan {
		from = head - wideScanSpan
	}
	q.FromBlock = new(big.Int).SetUint64(from)
	logs, err := s.src.FilterLogs(ctx, q)
	if err == nil {
		return logs, nil
	}

	from = 0
	if head > narrowScanSpan {
		from = head - narrowScanSpan
	}
	q.FromBlock = new(big.Int).SetUint64(from)
	return s.src.FilterLogs(ctx, q)
}

// CreationEvent is one decoded VaultCreated log.
type CreationEvent struct {
	Owner    common.Address
	Heir     common.Address
	Vault    common.Address
	Interval uint64
	Block    uint64
}

func parseCreation(lg types.Log) (CreationEvent, bool) {
	if len(lg.Topics) < 3 || len(lg.Data) < 64 {
		return CreationEvent{}, false
	}
	return CreationEvent{
		Owner:    common.BytesToAddress(lg.Topics[1].Bytes()),
		Heir:     common.BytesToAddress(lg.Topics[2].Bytes()),
		Vault:    common.BytesToAddress(lg.Data[:32]),
		Interval: new(big.Int).SetBytes(lg.Data[32:64]).Uint64(),
		Block:    lg.BlockNumber,
	}, true
}

// VaultsByHeir returns the distinct vault addresses created with heir as the
// designated heir, in creation order. Ambiguity resolution (more than one
// match) is the caller's problem: never auto-select here.
func (s *Scanner) VaultsByHeir(ctx context.Context, heir common.Address) ([]common.Address, error) {
	topics := [][]common.Hash{{VaultCreatedTopic}, nil, {AddressTopic(heir)}}
	logs, err := s.filterRange(ctx, topics)
	if err != nil {
		return nil, err
	}
	var vaults []common.Address
	seen := make(map[common.Address]bool)
	for _, lg := range logs {
		ev, ok := parseCreation(lg)
		if !ok || ev.Vault == (common.Address{}) || seen[ev.Vault] {
			continue
		}
		seen[ev.Vault] = true
		vaults = append(vaults, ev.Vault)
	}
	return vaults, nil
}

// CreationMeta is the discovered creation block and block timestamp of a vault.
type CreationMeta struct {
	Block     uint64
	Timestamp uint64
}

// CreationMeta locates the creation event of vault, trying progressively
// looser topic filters: by known owner, by known heir, then by the current
// account in either indexed position. The caller may not know yet which role
// the account plays. Returns nil when no filter matched; individual filter
// failures are skipped, not fatal.
func (s *Scanner) CreationMeta(ctx context.Context, vault, owner, heir, account common.Address) (*CreationMeta, error) {
	var filters [][][]common.Hash
	if owner != (common.Address{}) {
		filters = append(filters, [][]common.Hash{{VaultCreatedTopic}, {AddressTopic(owner)}})
	}
	if heir != (common.Address{}) {
		filters = append(filters, [][]common.Hash{{VaultCreatedTopic}, nil, {AddressTopic(heir)}})
	}
	if account != (common.Address{}) {
		filters = append(filters,
			[][]common.Hash{{VaultCreatedTopic}, {AddressTopic(account)}},
			[][]common.Hash{{VaultCreatedTopic}, nil, {AddressTopic(account)}})
	}

	for _, topics := range filters {
		logs, err := s.filterRange(ctx, topics)
		if err != nil {
			continue
		}
		for _, lg := range logs {
			ev, ok := parseCreation(lg)
			if !ok || ev.Vault != vault {
				continue
			}
			meta := &CreationMeta{Block: ev.Block}
			header, err := s.src.HeaderByNumber(ctx, new(big.Int).SetUint64(ev.Block))
			if err == nil && header != nil {
				meta.Timestamp = header.Time
			}
			return meta, nil
		}
	}
	return nil, nil
}
