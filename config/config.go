package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Page identifies the active view
type Page int

const (
	PageConnect Page = iota
	PageVault
	PageCreate
)

// Config represents the application configuration
type Config struct {
	RPCURL             string `json:"rpc_url"`
	BridgeURL          string `json:"bridge_url"`
	FactoryAddress     string `json:"factory_address"`
	TokenAddress       string `json:"token_address"`
	FactoryDeployBlock uint64 `json:"factory_deploy_block,omitempty"`
	ExplorerURL        string `json:"explorer_url"`
	RequireVerify      bool   `json:"require_verify"`
	ActionID           string `json:"action_id"`
	Logger             bool   `json:"logger"`

	// Persisted session state.
	Account  string `json:"account,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}

// DefaultPath returns the config file location in the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wld-vault-config.json"
	}
	return filepath.Join(home, ".wld-vault-config.json")
}

// Load reads the config from the specified path
func Load(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}

	return cfg
}

// Save writes the config to the specified path
func Save(path string, cfg Config) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0644)
}

// DefaultConfig returns a new configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		RPCURL:      "https://worldchain-mainnet.g.alchemy.com/public",
		BridgeURL:   "http://localhost:7878",
		ExplorerURL: "https://worldscan.org",
		ActionID:    "inheritance_access",
		Logger:      false,
	}
}

// LoadOrCreate loads config from path, or creates a default one if not found.
// Environment variables override the endpoint fields either way.
func LoadOrCreate(path string) Config {
	cfg := loadOrDefault(path)
	if v := os.Getenv("WLD_RPC_URL"); v != "" {
		cfg.RPCURL = v
	}
	if v := os.Getenv("WLD_BRIDGE_URL"); v != "" {
		cfg.BridgeURL = v
	}
	if v := os.Getenv("WLD_FACTORY_ADDRESS"); v != "" {
		cfg.FactoryAddress = v
	}
	if v := os.Getenv("WLD_TOKEN_ADDRESS"); v != "" {
		cfg.TokenAddress = v
	}
	return cfg
}

func loadOrDefault(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		// File doesn't exist, create default
		cfg := DefaultConfig()
		Save(path, cfg)
		return cfg
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Invalid config, return default
		return DefaultConfig()
	}
	return cfg
}

// SessionStore persists the connected account and verification flag back
// into the config file. It satisfies the session manager's Store.
type SessionStore struct {
	path string
	cfg  *Config
}

func NewSessionStore(path string, cfg *Config) *SessionStore {
	return &SessionStore{path: path, cfg: cfg}
}

func (s *SessionStore) Account() string { return s.cfg.Account }

func (s *SessionStore) SetAccount(addr string) error {
	s.cfg.Account = addr
	Save(s.path, *s.cfg)
	return nil
}

func (s *SessionStore) Verified() bool { return s.cfg.Verified }

func (s *SessionStore) SetVerified(v bool) error {
	s.cfg.Verified = v
	Save(s.path, *s.cfg)
	return nil
}
