package distribution

import (
	"math"
	"math/big"
	"testing"
)

func clockConfig(start, duration int64) Config {
	return Config{
		RewardAsset:   [20]byte{0x01},
		RootSetter:    [20]byte{0x02},
		TotalPool:     big.NewInt(1),
		CycleDuration: duration,
		StartTime:     start,
	}
}

func TestCurrentCycleBeforeStart(t *testing.T) {
	cfg := clockConfig(1_000, 100)
	if got := cfg.CurrentCycle(999); got != 0 {
		t.Fatalf("expected cycle 0 before start, got %d", got)
	}
	if got := cfg.CurrentCycle(0); got != 0 {
		t.Fatalf("expected cycle 0 at epoch, got %d", got)
	}
}

func TestCurrentCycleFloorsElapsedTime(t *testing.T) {
	cfg := clockConfig(1_000, 100)
	cases := []struct {
		now  int64
		want uint64
	}{
		{1_000, 0},
		{1_099, 0},
		{1_100, 1},
		{1_250, 2},
		{11_000, 100},
	}
	for _, tc := range cases {
		if got := cfg.CurrentCycle(tc.now); got != tc.want {
			t.Fatalf("CurrentCycle(%d) = %d, want %d", tc.now, got, tc.want)
		}
	}
}

func TestCycleBounds(t *testing.T) {
	cfg := clockConfig(1_000, 100)
	if got := cfg.CycleStart(0); got != 1_000 {
		t.Fatalf("cycle 0 start = %d", got)
	}
	if got := cfg.CycleEnd(0); got != 1_100 {
		t.Fatalf("cycle 0 end = %d", got)
	}
	if got := cfg.CycleStart(5); got != 1_500 {
		t.Fatalf("cycle 5 start = %d", got)
	}
	if cfg.CycleEnd(4) != cfg.CycleStart(5) {
		t.Fatal("cycle end must equal next cycle start")
	}
}

func TestCycleBoundsSaturateForHugeIndices(t *testing.T) {
	cfg := clockConfig(1_000, 100)
	for _, cycle := range []uint64{
		math.MaxUint64,
		math.MaxUint64 - 1,
		math.MaxUint64 / 2,
		uint64(math.MaxInt64),
	} {
		if got := cfg.CycleStart(cycle); got != math.MaxInt64 {
			t.Fatalf("CycleStart(%d) = %d, want saturation", cycle, got)
		}
		if got := cfg.CycleEnd(cycle); got != math.MaxInt64 {
			t.Fatalf("CycleEnd(%d) = %d, want saturation", cycle, got)
		}
	}
	// The largest representable cycle stays exact.
	last := uint64((math.MaxInt64 - 1_000) / 100)
	if got := cfg.CycleStart(last); got <= 0 || got == math.MaxInt64 {
		t.Fatalf("CycleStart(%d) = %d, want exact value", last, got)
	}
}

func TestPlannedEnd(t *testing.T) {
	cfg := clockConfig(1_000, 100)
	if got := cfg.PlannedEnd(); got != 1_000+ProgramDuration {
		t.Fatalf("planned end = %d", got)
	}
}
