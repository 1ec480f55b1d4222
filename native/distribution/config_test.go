package distribution

import (
	"math/big"
	"testing"
)

func validConfig(now int64) Config {
	pool := new(big.Int).Add(MinRemaining(), big.NewInt(1))
	return Config{
		RewardAsset:   [20]byte{0xAA},
		RootSetter:    [20]byte{0xBB},
		TotalPool:     pool,
		CycleDuration: 30 * 24 * 60 * 60,
		StartTime:     now + 600,
	}
}

func TestConfigValidateAcceptsValid(t *testing.T) {
	now := int64(1_000_000)
	if err := validConfig(now).Validate(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigValidateRejectsInvalid(t *testing.T) {
	now := int64(1_000_000)
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero reward asset", func(c *Config) { c.RewardAsset = [20]byte{} }},
		{"zero root setter", func(c *Config) { c.RootSetter = [20]byte{} }},
		{"zero cycle duration", func(c *Config) { c.CycleDuration = 0 }},
		{"negative cycle duration", func(c *Config) { c.CycleDuration = -1 }},
		{"past start time", func(c *Config) { c.StartTime = now - 1 }},
		{"start time now", func(c *Config) { c.StartTime = now }},
		{"nil pool", func(c *Config) { c.TotalPool = nil }},
		{"zero pool", func(c *Config) { c.TotalPool = big.NewInt(0) }},
		{"pool equals reserve", func(c *Config) { c.TotalPool = MinRemaining() }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(now)
			tc.mutate(&cfg)
			if err := cfg.Validate(now); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConfigCloneIsDeep(t *testing.T) {
	cfg := validConfig(1_000_000)
	clone := cfg.Clone()
	clone.TotalPool.Add(clone.TotalPool, big.NewInt(5))
	if cfg.TotalPool.Cmp(clone.TotalPool) == 0 {
		t.Fatal("clone shares total pool value")
	}
}
