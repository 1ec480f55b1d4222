package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/BurntSushi/toml"

	"merkledrop/native/distribution"
)

// Config describes the daemon configuration loaded from TOML.
type Config struct {
	ListenAddress string  `toml:"ListenAddress"`
	DataDir       string  `toml:"DataDir"`
	Program       Program `toml:"program"`
}

// Program holds the immutable distribution program parameters in their
// on-disk representation.
type Program struct {
	// RewardAsset is the 0x-prefixed address of the external value ledger.
	RewardAsset string `toml:"RewardAsset"`
	// RootSetter is the 0x-prefixed address authorized to publish roots.
	RootSetter string `toml:"RootSetter"`
	// ProgramAccount is the 0x-prefixed address holding the reward funds.
	ProgramAccount string `toml:"ProgramAccount"`
	// TotalPool is the lifetime disbursement bound in base units, decimal.
	TotalPool string `toml:"TotalPool"`
	// CycleDurationSeconds is the length of one cycle.
	CycleDurationSeconds int64 `toml:"CycleDurationSeconds"`
	// StartTime is the unix timestamp at which cycle zero begins.
	StartTime int64 `toml:"StartTime"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8545"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	return cfg, nil
}

// ParseAddress decodes a 0x-prefixed 20-byte hex address.
func ParseAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("config: invalid address %q: %w", value, err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("config: address %q must be %d bytes", value, len(addr))
	}
	copy(addr[:], decoded)
	return addr, nil
}

// Account returns the program's holding account address.
func (p Program) Account() ([20]byte, error) {
	return ParseAddress(p.ProgramAccount)
}

// DistributionConfig converts the on-disk parameters to the engine
// configuration. Validation happens at engine construction.
func (p Program) DistributionConfig() (distribution.Config, error) {
	var cfg distribution.Config
	asset, err := ParseAddress(p.RewardAsset)
	if err != nil {
		return cfg, err
	}
	setter, err := ParseAddress(p.RootSetter)
	if err != nil {
		return cfg, err
	}
	pool, ok := new(big.Int).SetString(strings.TrimSpace(p.TotalPool), 10)
	if !ok {
		return cfg, fmt.Errorf("config: invalid total pool %q", p.TotalPool)
	}
	cfg.RewardAsset = asset
	cfg.RootSetter = setter
	cfg.TotalPool = pool
	cfg.CycleDuration = p.CycleDurationSeconds
	cfg.StartTime = p.StartTime
	return cfg, nil
}
