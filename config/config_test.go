package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	t.Run("creates default when missing", func(t *testing.T) {
		cfg := LoadOrCreate(path)
		if cfg.RPCURL == "" || cfg.BridgeURL == "" {
			t.Fatalf("defaults not applied: %+v", cfg)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("default config not written: %v", err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		cfg := Load(path)
		cfg.FactoryAddress = "0x00000000000000000000000000000000000000F1"
		cfg.FactoryDeployBlock = 12345
		Save(path, cfg)

		got := Load(path)
		if got.FactoryAddress != cfg.FactoryAddress || got.FactoryDeployBlock != 12345 {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("invalid file falls back to defaults", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		cfg := LoadOrCreate(bad)
		if cfg.RPCURL != DefaultConfig().RPCURL {
			t.Fatalf("got %+v", cfg)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("WLD_RPC_URL", "https://rpc.example")
		t.Setenv("WLD_BRIDGE_URL", "http://localhost:9999")
		cfg := LoadOrCreate(path)
		if cfg.RPCURL != "https://rpc.example" || cfg.BridgeURL != "http://localhost:9999" {
			t.Fatalf("env not applied: %+v", cfg)
		}
	})
}

func TestSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	store := NewSessionStore(path, &cfg)

	if store.Account() != "" || store.Verified() {
		t.Fatal("fresh store should be empty")
	}

	addr := "0x1111111111111111111111111111111111111111"
	if err := store.SetAccount(addr); err != nil {
		t.Fatal(err)
	}
	if err := store.SetVerified(true); err != nil {
		t.Fatal(err)
	}

	// Fields must survive a reload from disk.
	reloaded := Load(path)
	if reloaded.Account != addr || !reloaded.Verified {
		t.Fatalf("session not persisted: %+v", reloaded)
	}
}
