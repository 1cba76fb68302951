package rpc

import (
	"context"
	"encoding/hex"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestSelectors(t *testing.T) {
	// Known 4-byte selectors, cross-checked against the canonical ABI.
	cases := []struct {
		sig  string
		want string
	}{
		{"ping()", "5c36b186"},
		{"balanceOf(address)", "70a08231"},
		{"transfer(address,uint256)", "a9059cbb"},
		{"symbol()", "95d89b41"},
		{"decimals()", "313ce567"},
		{"owner()", "8da5cb5b"},
		{"claim()", "4e71d92d"},
	}
	for _, c := range cases {
		t.Run(c.sig, func(t *testing.T) {
			if got := hex.EncodeToString(selector(c.sig)); got != c.want {
				t.Errorf("selector(%q) = %s, want %s", c.sig, got, c.want)
			}
		})
	}
}

func TestEncodeCreateVault(t *testing.T) {
	heir := common.HexToAddress("0x2222222222222222222222222222222222222222")
	data := EncodeCreateVault(heir, big.NewInt(86400))

	if len(data) != 4+32+32 {
		t.Fatalf("calldata length %d, want 68", len(data))
	}
	if got := hex.EncodeToString(selector("createVault(address,uint256)")); got != hex.EncodeToString(data[:4]) {
		t.Errorf("selector mismatch: %s", hex.EncodeToString(data[:4]))
	}
	if wordToAddress(data[4:36]) != heir {
		t.Errorf("heir word = %x", data[4:36])
	}
	if got := wordToBig(data[36:68]); got.Int64() != 86400 {
		t.Errorf("interval word = %s", got)
	}
}

func TestEncodeOwnerWithdraw(t *testing.T) {
	to := common.HexToAddress("0x4444444444444444444444444444444444444444")
	amount := big.NewInt(1_500_000)
	data := EncodeOwnerWithdraw(amount, to)

	if len(data) != 68 {
		t.Fatalf("calldata length %d, want 68", len(data))
	}
	// Argument order is (amount, recipient).
	if got := wordToBig(data[4:36]); got.Cmp(amount) != 0 {
		t.Errorf("amount word = %s", got)
	}
	if wordToAddress(data[36:68]) != to {
		t.Errorf("recipient word = %x", data[36:68])
	}
}

func TestNoArgEncoders(t *testing.T) {
	for name, data := range map[string][]byte{
		"ping":              EncodePing(),
		"claim":             EncodeClaim(),
		"cancelInheritance": EncodeCancelInheritance(),
		"releaseMyVault":    EncodeReleaseMyVault(),
	} {
		if len(data) != 4 {
			t.Errorf("%s calldata length %d, want 4 (selector only)", name, len(data))
		}
	}
}

func TestDecodeString(t *testing.T) {
	// ABI encoding of "WLD": offset word, length word, padded bytes.
	var out []byte
	out = append(out, common.LeftPadBytes(big.NewInt(32).Bytes(), 32)...)
	out = append(out, common.LeftPadBytes(big.NewInt(3).Bytes(), 32)...)
	out = append(out, common.RightPadBytes([]byte("WLD"), 32)...)

	if got := decodeString(out); got != "WLD" {
		t.Errorf("decodeString = %q, want WLD", got)
	}

	t.Run("truncated", func(t *testing.T) {
		if got := decodeString(out[:40]); got != "" {
			t.Errorf("truncated payload should decode empty, got %q", got)
		}
	})
	t.Run("empty", func(t *testing.T) {
		if got := decodeString(nil); got != "" {
			t.Errorf("nil payload should decode empty, got %q", got)
		}
	})
}

func TestVaultCreatedTopic(t *testing.T) {
	want := "0x4dda9a6d0ba03769e9813c47681795a7210f951e6ef31e64772e13b9ea0f1406"
	if got := VaultCreatedTopic.Hex(); got != want {
		t.Fatalf("VaultCreatedTopic = %s, want %s", got, want)
	}
}

func TestConnect(t *testing.T) {
	rpcURL := os.Getenv("WLD_RPC_URL")
	if rpcURL == "" {
		t.Skip("WLD_RPC_URL not set, skipping connection test")
	}

	t.Run("successful connection", func(t *testing.T) {
		result := Connect(rpcURL)
		if result.Error != nil {
			t.Fatalf("Failed to connect to RPC: %v", result.Error)
		}
		if result.Client == nil {
			t.Fatal("Client is nil despite no error")
		}
		if result.Client.URL != rpcURL {
			t.Errorf("Expected URL %s, got %s", rpcURL, result.Client.URL)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		chainID, err := result.Client.ChainID(ctx)
		if err != nil {
			t.Errorf("Failed to get chain ID: %v", err)
		} else {
			t.Logf("Connected to chain ID: %s", chainID.String())
		}
	})

	t.Run("connection with timeout", func(t *testing.T) {
		result := ConnectWithTimeout(rpcURL, 10*time.Second)
		if result.Error != nil {
			t.Fatalf("Failed to connect with custom timeout: %v", result.Error)
		}
		if result.Client == nil {
			t.Fatal("Client is nil despite no error")
		}
	})
}

func TestTokenReads(t *testing.T) {
	rpcURL := os.Getenv("WLD_RPC_URL")
	token := os.Getenv("WLD_TOKEN_ADDRESS")
	if rpcURL == "" || token == "" {
		t.Skip("WLD_RPC_URL / WLD_TOKEN_ADDRESS not set, skipping token read test")
	}

	result := Connect(rpcURL)
	if result.Error != nil {
		t.Fatalf("Failed to connect: %v", result.Error)
	}
	client := result.Client
	client.Token = common.HexToAddress(token)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	symbol, decimals, err := client.TokenMeta(ctx)
	if err != nil {
		t.Fatalf("TokenMeta: %v", err)
	}
	if symbol == "" {
		t.Error("empty token symbol")
	}
	t.Logf("Token: %s (%d decimals)", symbol, decimals)

	bal, err := client.TokenBalance(ctx, common.HexToAddress("0x0000000000000000000000000000000000000001"))
	if err != nil {
		t.Fatalf("TokenBalance: %v", err)
	}
	t.Logf("Balance: %s", bal.String())
}
