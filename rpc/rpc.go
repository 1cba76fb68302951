package rpc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"
)

// Client wraps an Ethereum RPC client together with the deployed
// factory and token contract addresses it talks to.
type Client struct {
	*ethclient.Client
	URL     string
	Factory common.Address
	Token   common.Address
}

// ConnectResult holds the result of an RPC connection attempt
type ConnectResult struct {
	Client *Client
	Error  error
}

// Connect attempts to connect to an Ethereum RPC endpoint
func Connect(url string) ConnectResult {
	return ConnectWithTimeout(url, 8*time.Second)
}

// ConnectWithTimeout attempts to connect with a custom timeout
func ConnectWithTimeout(url string, timeout time.Duration) ConnectResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return ConnectResult{Client: nil, Error: err}
	}

	return ConnectResult{
		Client: &Client{
			Client: client,
			URL:    url,
		},
		Error: nil,
	}
}

// Function selectors, derived from the canonical signatures the same way
// the contracts derive them (first four bytes of the keccak hash).
func selector(sig string) []byte {
	return crypto.Keccak256([]byte(sig))[:4]
}

var (
	// factory
	vaultOfSelector        = selector("vaultOf(address)")
	createVaultSelector    = selector("createVault(address,uint256)")
	releaseMyVaultSelector = selector("releaseMyVault()")

	// vault
	ownerSelector             = selector("owner()")
	heirSelector              = selector("heir()")
	heartbeatIntervalSelector = selector("heartbeatInterval()")
	lastPingSelector          = selector("lastPing()")
	canClaimSelector          = selector("canClaim()")
	timeRemainingSelector     = selector("timeRemaining()")
	pingSelector              = selector("ping()")
	updateHeirSelector        = selector("updateHeir(address)")
	updateHeartbeatSelector   = selector("updateHeartbeat(uint256)")
	cancelSelector            = selector("cancelInheritance()")
	claimSelector             = selector("claim()")
	ownerWithdrawSelector     = selector("ownerWithdrawWLD(uint256,address)")

	// ERC-20
	symbolSelector    = selector("symbol()")
	decimalsSelector  = selector("decimals()")
	balanceOfSelector = selector("balanceOf(address)")
	transferSelector  = selector("transfer(address,uint256)")
)

// VaultCreatedTopic is the topic0 of the factory's creation event.
var VaultCreatedTopic = crypto.Keccak256Hash([]byte("VaultCreated(address,address,address,uint256)"))

func padAddress(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}

func padBig(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func wordToAddress(word []byte) common.Address {
	return common.BytesToAddress(word)
}

func wordToBig(word []byte) *big.Int {
	return new(big.Int).SetBytes(word)
}

// decodeString decodes a single ABI-encoded dynamic string return value.
func decodeString(out []byte) string {
	if len(out) < 64 {
		return ""
	}
	offset := wordToBig(out[:32]).Uint64()
	if offset+32 > uint64(len(out)) {
		return ""
	}
	length := wordToBig(out[offset : offset+32]).Uint64()
	start := offset + 32
	if start+length > uint64(len(out)) {
		return ""
	}
	return string(out[start : start+length])
}

func (c *Client) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &to, Data: data}
	return c.CallContract(ctx, msg, nil)
}

// VaultOf returns the factory's vault mapping entry for owner
// (the zero address when no vault is registered).
func (c *Client) VaultOf(ctx context.Context, owner common.Address) (common.Address, error) {
	data := append(append([]byte{}, vaultOfSelector...), padAddress(owner)...)
	out, err := c.call(ctx, c.Factory, data)
	if err != nil {
		return common.Address{}, fmt.Errorf("vaultOf: %w", err)
	}
	if len(out) < 32 {
		return common.Address{}, nil
	}
	return wordToAddress(out[:32]), nil
}

// VaultDetails reads owner, heir, heartbeat interval and last ping from the
// vault contract in parallel. Any single failure fails the whole read so the
// caller never applies a partial snapshot.
func (c *Client) VaultDetails(ctx context.Context, vault common.Address) (owner, heir common.Address, interval, lastPing uint64, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := c.call(ctx, vault, ownerSelector)
		if err != nil || len(out) < 32 {
			return fmt.Errorf("owner: %w", err)
		}
		owner = wordToAddress(out[:32])
		return nil
	})
	g.Go(func() error {
		out, err := c.call(ctx, vault, heirSelector)
		if err != nil || len(out) < 32 {
			return fmt.Errorf("heir: %w", err)
		}
		heir = wordToAddress(out[:32])
		return nil
	})
	g.Go(func() error {
		out, err := c.call(ctx, vault, heartbeatIntervalSelector)
		if err != nil || len(out) < 32 {
			return fmt.Errorf("heartbeatInterval: %w", err)
		}
		interval = wordToBig(out[:32]).Uint64()
		return nil
	})
	g.Go(func() error {
		out, err := c.call(ctx, vault, lastPingSelector)
		if err != nil || len(out) < 32 {
			return fmt.Errorf("lastPing: %w", err)
		}
		lastPing = wordToBig(out[:32]).Uint64()
		return nil
	})
	if err := g.Wait(); err != nil {
		return common.Address{}, common.Address{}, 0, 0, err
	}
	return owner, heir, interval, lastPing, nil
}

// VaultStatus reads the authoritative countdown and claimability flag.
func (c *Client) VaultStatus(ctx context.Context, vault common.Address) (remaining uint64, canClaim bool, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := c.call(ctx, vault, timeRemainingSelector)
		if err != nil || len(out) < 32 {
			return fmt.Errorf("timeRemaining: %w", err)
		}
		remaining = wordToBig(out[:32]).Uint64()
		return nil
	})
	g.Go(func() error {
		out, err := c.call(ctx, vault, canClaimSelector)
		if err != nil || len(out) < 32 {
			return fmt.Errorf("canClaim: %w", err)
		}
		canClaim = out[31] == 1
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, false, err
	}
	return remaining, canClaim, nil
}

// TokenMeta reads the token's symbol and decimals.
func (c *Client) TokenMeta(ctx context.Context) (symbol string, decimals uint8, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := c.call(ctx, c.Token, symbolSelector)
		if err != nil {
			return fmt.Errorf("symbol: %w", err)
		}
		symbol = decodeString(out)
		return nil
	})
	g.Go(func() error {
		out, err := c.call(ctx, c.Token, decimalsSelector)
		if err != nil || len(out) < 32 {
			return fmt.Errorf("decimals: %w", err)
		}
		decimals = out[31]
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", 0, err
	}
	return symbol, decimals, nil
}

// TokenBalance reads the token balance of holder.
func (c *Client) TokenBalance(ctx context.Context, holder common.Address) (*big.Int, error) {
	data := append(append([]byte{}, balanceOfSelector...), padAddress(holder)...)
	out, err := c.call(ctx, c.Token, data)
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	if len(out) == 0 {
		return big.NewInt(0), nil
	}
	return wordToBig(out[:32]), nil
}

// Simulate dry-runs calldata against the read provider with the sender set,
// surfacing the revert reason before anything is submitted for signing.
func (c *Client) Simulate(ctx context.Context, from, to common.Address, data []byte) error {
	msg := ethereum.CallMsg{From: from, To: &to, Data: data}
	_, err := c.CallContract(ctx, msg, nil)
	return err
}

// Calldata encoders for the mutating calls. The wallet bridge signs and
// submits these; the client never holds keys.

func EncodeCreateVault(heir common.Address, intervalSeconds *big.Int) []byte {
	data := append([]byte{}, createVaultSelector...)
	data = append(data, padAddress(heir)...)
	return append(data, padBig(intervalSeconds)...)
}

func EncodeReleaseMyVault() []byte {
	return append([]byte{}, releaseMyVaultSelector...)
}

func EncodePing() []byte {
	return append([]byte{}, pingSelector...)
}

func EncodeUpdateHeir(heir common.Address) []byte {
	return append(append([]byte{}, updateHeirSelector...), padAddress(heir)...)
}

func EncodeUpdateHeartbeat(intervalSeconds *big.Int) []byte {
	return append(append([]byte{}, updateHeartbeatSelector...), padBig(intervalSeconds)...)
}

func EncodeCancelInheritance() []byte {
	return append([]byte{}, cancelSelector...)
}

func EncodeClaim() []byte {
	return append([]byte{}, claimSelector...)
}

func EncodeOwnerWithdraw(amount *big.Int, to common.Address) []byte {
	data := append([]byte{}, ownerWithdrawSelector...)
	data = append(data, padBig(amount)...)
	return append(data, padAddress(to)...)
}

func EncodeTransfer(to common.Address, amount *big.Int) []byte {
	data := append([]byte{}, transferSelector...)
	data = append(data, padAddress(to)...)
	return append(data, padBig(amount)...)
}
