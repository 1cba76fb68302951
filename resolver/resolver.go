// Package resolver turns user-typed identity strings into addresses. An
// input is either a raw hex address or a directory name; names go through
// the on-chain name service.
package resolver

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	ens "github.com/wealdtech/go-ens/v3"

	"wld-vault-tui/helpers"
)

// Resolution is a resolved identity. Name is empty when the input was a
// plain address with no reverse record.
type Resolution struct {
	Name    string
	Address common.Address
}

// Directory is the lookup surface of the name service. ENSDirectory
// implements it; tests supply fakes.
type Directory interface {
	Resolve(name string) (common.Address, error)
	ReverseResolve(addr common.Address) (string, error)
}

// ENSDirectory resolves through the ENS registry on the connected chain.
type ENSDirectory struct {
	client *ethclient.Client
}

func NewENSDirectory(client *ethclient.Client) *ENSDirectory {
	return &ENSDirectory{client: client}
}

func (d *ENSDirectory) Resolve(name string) (common.Address, error) {
	return ens.Resolve(d.client, name)
}

func (d *ENSDirectory) ReverseResolve(addr common.Address) (string, error) {
	return ens.ReverseResolve(d.client, addr)
}

// Resolver normalizes and resolves identity inputs.
type Resolver struct {
	dir Directory
}

func New(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve maps input to an address. A hex address passes through
// checksummed, with a best-effort reverse lookup for its display name.
// Anything else is treated as a name: a leading "@" is stripped and a
// bare handle gets the ".eth" suffix. A name that does not resolve
// returns nil, not an error; the caller treats it as "no match".
func (r *Resolver) Resolve(ctx context.Context, input string) (*Resolution, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	if helpers.IsValidEthAddress(input) {
		addr := common.HexToAddress(input)
		res := &Resolution{Address: addr}
		if name, err := r.dir.ReverseResolve(addr); err == nil {
			res.Name = name
		}
		return res, nil
	}

	name := strings.TrimPrefix(input, "@")
	if !strings.Contains(name, ".") {
		name += ".eth"
	}
	addr, err := r.dir.Resolve(name)
	if err != nil || addr == (common.Address{}) {
		return nil, nil
	}
	return &Resolution{Name: name, Address: addr}, nil
}

// Tracker orders concurrent resolutions so that only the newest request's
// result is applied. Each keystroke takes a sequence number; a result
// arriving for an older sequence is dropped.
type Tracker struct {
	seq atomic.Uint64
}

// Next reserves the sequence number for a new resolution request.
func (t *Tracker) Next() uint64 {
	return t.seq.Add(1)
}

// Latest reports whether seq is still the newest issued request.
func (t *Tracker) Latest(seq uint64) bool {
	return t.seq.Load() == seq
}
