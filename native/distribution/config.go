package distribution

import (
	"errors"
	"math/big"
)

// Config captures the immutable program parameters fixed at creation. It is
// never mutated after the engine is constructed.
type Config struct {
	// RewardAsset identifies the external value ledger used for payouts.
	RewardAsset [20]byte

	// RootSetter is the only account authorized to publish cycle roots.
	RootSetter [20]byte

	// TotalPool is the fixed upper bound on lifetime disbursement, in base
	// token units.
	TotalPool *big.Int

	// CycleDuration is the length of one cycle in seconds.
	CycleDuration int64

	// StartTime is the unix timestamp after which cycle zero begins.
	StartTime int64
}

// Validate ensures the configuration can produce a working program. The
// supplied timestamp is the moment of construction; the start time must lie
// strictly after it.
func (c Config) Validate(now int64) error {
	if c.RewardAsset == ([20]byte{}) {
		return errors.New("distribution: reward asset must be configured")
	}
	if c.RootSetter == ([20]byte{}) {
		return errors.New("distribution: root setter must be configured")
	}
	if c.CycleDuration <= 0 {
		return errors.New("distribution: cycle duration must be positive")
	}
	if c.StartTime <= now {
		return errors.New("distribution: start time must be in the future")
	}
	if c.TotalPool == nil || c.TotalPool.Sign() <= 0 {
		return errors.New("distribution: total pool must be positive")
	}
	if c.TotalPool.Cmp(MinRemaining()) <= 0 {
		return errors.New("distribution: total pool must exceed the permanent reserve")
	}
	return nil
}

// Clone creates a deep copy of the configuration.
func (c Config) Clone() Config {
	clone := c
	clone.TotalPool = big.NewInt(0)
	if c.TotalPool != nil {
		clone.TotalPool = new(big.Int).Set(c.TotalPool)
	}
	return clone
}
