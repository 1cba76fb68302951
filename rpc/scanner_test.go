package rpc

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	testFactory = common.HexToAddress("0x00000000000000000000000000000000000000F1")
	testOwner   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testHeir    = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testVaultA  = common.HexToAddress("0x3333333333333333333333333333333333333333")
	testVaultB  = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

// fakeLogSource records queries and serves canned logs, optionally rejecting
// ranges wider than maxSpan the way capped L2 gateways do.
type fakeLogSource struct {
	head    uint64
	maxSpan uint64 // 0 = unlimited
	logs    []types.Log
	queries []ethereum.FilterQuery
	headers map[uint64]*types.Header
}

func (f *fakeLogSource) BlockNumber(ctx context.Context) (uint64, error) {
	return f.head, nil
}

func (f *fakeLogSource) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.queries = append(f.queries, q)
	from := uint64(0)
	if q.FromBlock != nil {
		from = q.FromBlock.Uint64()
	}
	if f.maxSpan > 0 && f.head-from > f.maxSpan {
		return nil, errors.New("block range too wide")
	}
	var out []types.Log
	for _, lg := range f.logs {
		if lg.BlockNumber < from {
			continue
		}
		if !matchTopics(q.Topics, lg.Topics) {
			continue
		}
		out = append(out, lg)
	}
	return out, nil
}

func (f *fakeLogSource) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if h, ok := f.headers[number.Uint64()]; ok {
		return h, nil
	}
	return nil, errors.New("header not found")
}

func matchTopics(filter [][]common.Hash, topics []common.Hash) bool {
	for i, want := range filter {
		if len(want) == 0 {
			continue
		}
		if i >= len(topics) {
			return false
		}
		found := false
		for _, h := range want {
			if topics[i] == h {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func creationLog(owner, heir, vault common.Address, interval, block uint64) types.Log {
	data := append(common.LeftPadBytes(vault.Bytes(), 32), common.LeftPadBytes(new(big.Int).SetUint64(interval).Bytes(), 32)...)
	return types.Log{
		Address:     testFactory,
		Topics:      []common.Hash{VaultCreatedTopic, AddressTopic(owner), AddressTopic(heir)},
		Data:        data,
		BlockNumber: block,
	}
}

func TestScannerDeployBlockCoversFullRange(t *testing.T) {
	src := &fakeLogSource{
		head: 500_000,
		logs: []types.Log{creationLog(testOwner, testHeir, testVaultA, 86400, 1234)},
	}
	s := NewScanner(src, testFactory, 1000)

	vaults, err := s.VaultsByHeir(context.Background(), testHeir)
	if err != nil {
		t.Fatalf("VaultsByHeir: %v", err)
	}
	if len(vaults) != 1 || vaults[0] != testVaultA {
		t.Fatalf("expected [%s], got %v", testVaultA.Hex(), vaults)
	}
	if len(src.queries) != 1 {
		t.Fatalf("expected a single pass, got %d queries", len(src.queries))
	}
	if got := src.queries[0].FromBlock.Uint64(); got != 1000 {
		t.Errorf("scan should start at the deploy block, got %d", got)
	}
	if src.queries[0].ToBlock != nil {
		t.Errorf("scan should run to head (nil ToBlock), got %v", src.queries[0].ToBlock)
	}
}

func TestScannerNarrowsRejectedRange(t *testing.T) {
	// Provider rejects the 20k window but accepts 5k.
	src := &fakeLogSource{
		head:    100_000,
		maxSpan: 10_000,
		logs:    []types.Log{creationLog(testOwner, testHeir, testVaultA, 86400, 99_000)},
	}
	s := NewScanner(src, testFactory, 0)

	vaults, err := s.VaultsByHeir(context.Background(), testHeir)
	if err != nil {
		t.Fatalf("VaultsByHeir should succeed via the narrower window: %v", err)
	}
	if len(vaults) != 1 || vaults[0] != testVaultA {
		t.Fatalf("expected [%s], got %v", testVaultA.Hex(), vaults)
	}
	if len(src.queries) != 2 {
		t.Fatalf("expected wide query then narrow retry, got %d queries", len(src.queries))
	}
	if got := src.queries[0].FromBlock.Uint64(); got != 100_000-wideScanSpan {
		t.Errorf("first query should cover the wide window, from=%d", got)
	}
	if got := src.queries[1].FromBlock.Uint64(); got != 100_000-narrowScanSpan {
		t.Errorf("retry should cover the narrow window, from=%d", got)
	}
}

func TestScannerDeduplicatesVaults(t *testing.T) {
	src := &fakeLogSource{
		head: 10_000,
		logs: []types.Log{
			creationLog(testOwner, testHeir, testVaultA, 86400, 100),
			creationLog(testOwner, testHeir, testVaultA, 86400, 200),
			creationLog(testOwner, testHeir, testVaultB, 86400, 300),
		},
	}
	s := NewScanner(src, testFactory, 1)

	vaults, err := s.VaultsByHeir(context.Background(), testHeir)
	if err != nil {
		t.Fatal(err)
	}
	if len(vaults) != 2 {
		t.Fatalf("expected 2 distinct vaults, got %v", vaults)
	}
	if vaults[0] != testVaultA || vaults[1] != testVaultB {
		t.Errorf("creation order not preserved: %v", vaults)
	}
}

func TestScannerFiltersByHeirTopic(t *testing.T) {
	other := common.HexToAddress("0x9999999999999999999999999999999999999999")
	src := &fakeLogSource{
		head: 10_000,
		logs: []types.Log{
			creationLog(testOwner, other, testVaultA, 86400, 100),
			creationLog(testOwner, testHeir, testVaultB, 86400, 200),
		},
	}
	s := NewScanner(src, testFactory, 1)

	vaults, err := s.VaultsByHeir(context.Background(), testHeir)
	if err != nil {
		t.Fatal(err)
	}
	if len(vaults) != 1 || vaults[0] != testVaultB {
		t.Fatalf("expected only %s, got %v", testVaultB.Hex(), vaults)
	}
}

func TestCreationMetaProgressiveFilters(t *testing.T) {
	src := &fakeLogSource{
		head:    10_000,
		logs:    []types.Log{creationLog(testOwner, testHeir, testVaultA, 86400, 777)},
		headers: map[uint64]*types.Header{777: {Time: 1_700_000_000}},
	}
	s := NewScanner(src, testFactory, 1)

	t.Run("by owner", func(t *testing.T) {
		meta, err := s.CreationMeta(context.Background(), testVaultA, testOwner, common.Address{}, common.Address{})
		if err != nil {
			t.Fatal(err)
		}
		if meta == nil || meta.Block != 777 || meta.Timestamp != 1_700_000_000 {
			t.Fatalf("got %+v", meta)
		}
	})

	t.Run("by account as heir", func(t *testing.T) {
		// No owner/heir known; the account matches only in the heir position.
		meta, err := s.CreationMeta(context.Background(), testVaultA, common.Address{}, common.Address{}, testHeir)
		if err != nil {
			t.Fatal(err)
		}
		if meta == nil || meta.Block != 777 {
			t.Fatalf("got %+v", meta)
		}
	})

	t.Run("no match", func(t *testing.T) {
		meta, err := s.CreationMeta(context.Background(), testVaultB, testOwner, testHeir, testHeir)
		if err != nil {
			t.Fatal(err)
		}
		if meta != nil {
			t.Fatalf("expected nil meta for unknown vault, got %+v", meta)
		}
	})
}
