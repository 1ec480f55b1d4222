package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"merkledrop/core/types"
)

const (
	EventRootPublished = "distribution.root.published"
	EventRewardClaimed = "distribution.reward.claimed"
)

// RootPublished signals that a cycle commitment has been recorded by the
// authorized setter.
type RootPublished struct {
	Cycle  uint64
	Root   [32]byte
	Setter [20]byte
}

// EventType implements the Event interface.
func (RootPublished) EventType() string { return EventRootPublished }

// Event converts the struct into a types.Event payload.
func (e RootPublished) Event() *types.Event {
	attrs := map[string]string{
		"cycle":  strconv.FormatUint(e.Cycle, 10),
		"root":   "0x" + hex.EncodeToString(e.Root[:]),
		"setter": "0x" + hex.EncodeToString(e.Setter[:]),
	}
	return &types.Event{Type: EventRootPublished, Attributes: attrs}
}

// RewardClaimed captures a successful payout for one account in one cycle.
type RewardClaimed struct {
	Cycle   uint64
	Account [20]byte
	Amount  *big.Int
}

// EventType implements the Event interface.
func (RewardClaimed) EventType() string { return EventRewardClaimed }

// Event converts the claim into a types.Event payload.
func (e RewardClaimed) Event() *types.Event {
	amount := big.NewInt(0)
	if e.Amount != nil {
		amount = new(big.Int).Set(e.Amount)
	}
	attrs := map[string]string{
		"cycle":   strconv.FormatUint(e.Cycle, 10),
		"account": "0x" + hex.EncodeToString(e.Account[:]),
		"amount":  amount.String(),
	}
	return &types.Event{Type: EventRewardClaimed, Attributes: attrs}
}
