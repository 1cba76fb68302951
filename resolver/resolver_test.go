package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

type fakeDirectory struct {
	names    map[string]common.Address
	reverses map[common.Address]string
	resolved []string
}

func (f *fakeDirectory) Resolve(name string) (common.Address, error) {
	f.resolved = append(f.resolved, name)
	if addr, ok := f.names[name]; ok {
		return addr, nil
	}
	return common.Address{}, errors.New("unregistered name")
}

func (f *fakeDirectory) ReverseResolve(addr common.Address) (string, error) {
	if name, ok := f.reverses[addr]; ok {
		return name, nil
	}
	return "", errors.New("no reverse record")
}

func TestResolveAddressInput(t *testing.T) {
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	r := New(&fakeDirectory{reverses: map[common.Address]string{addr: "heir.eth"}})

	res, err := r.Resolve(context.Background(), "0x2222222222222222222222222222222222222222")
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || res.Address != addr {
		t.Fatalf("got %+v", res)
	}
	if res.Name != "heir.eth" {
		t.Errorf("reverse name = %q", res.Name)
	}
}

func TestResolveAddressWithoutReverse(t *testing.T) {
	r := New(&fakeDirectory{})
	res, err := r.Resolve(context.Background(), "0x3333333333333333333333333333333333333333")
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || res.Name != "" {
		t.Fatalf("address without a reverse record should still resolve, got %+v", res)
	}
}

func TestResolveNameNormalization(t *testing.T) {
	addr := common.HexToAddress("0x4444444444444444444444444444444444444444")
	dir := &fakeDirectory{names: map[string]common.Address{"alice.eth": addr}}
	r := New(dir)

	for _, input := range []string{"alice.eth", "@alice.eth", "alice", "@alice", "  alice  "} {
		t.Run(input, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), input)
			if err != nil {
				t.Fatal(err)
			}
			if res == nil || res.Address != addr || res.Name != "alice.eth" {
				t.Fatalf("input %q resolved to %+v", input, res)
			}
		})
	}
}

func TestResolveMissIsNotAnError(t *testing.T) {
	r := New(&fakeDirectory{})

	res, err := r.Resolve(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("resolution miss should not error: %v", err)
	}
	if res != nil {
		t.Fatalf("expected nil resolution, got %+v", res)
	}

	res, err = r.Resolve(context.Background(), "   ")
	if err != nil || res != nil {
		t.Fatalf("blank input should be a no-op, got %+v / %v", res, err)
	}
}

func TestTrackerLastRequestWins(t *testing.T) {
	var tr Tracker

	first := tr.Next()
	second := tr.Next()

	// The slow first response comes back after the second was issued.
	if tr.Latest(first) {
		t.Error("stale sequence should not be latest")
	}
	if !tr.Latest(second) {
		t.Error("newest sequence should be latest")
	}

	third := tr.Next()
	if tr.Latest(second) {
		t.Error("superseded sequence should not be latest")
	}
	if !tr.Latest(third) {
		t.Error("newest sequence should be latest")
	}
}
