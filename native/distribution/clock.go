package distribution

import "math"

// CurrentCycle maps a wall-clock timestamp to the active cycle index.
// Timestamps before the program start map to cycle zero. Cycle indices grow
// without bound; there is no cap.
func (c Config) CurrentCycle(now int64) uint64 {
	if now < c.StartTime {
		return 0
	}
	return uint64(now-c.StartTime) / uint64(c.CycleDuration)
}

// CycleStart returns the unix timestamp at which the given cycle begins.
// Indices too large to represent saturate at the maximum timestamp instead
// of wrapping; callers see a start far in the future and reject accordingly.
func (c Config) CycleStart(cycle uint64) int64 {
	base := c.StartTime
	if base < 0 {
		base = 0
	}
	if c.CycleDuration > 0 && cycle > uint64((math.MaxInt64-base)/c.CycleDuration) {
		return math.MaxInt64
	}
	return c.StartTime + int64(cycle)*c.CycleDuration
}

// CycleEnd returns the unix timestamp at which the given cycle ends.
func (c Config) CycleEnd(cycle uint64) int64 {
	if cycle == math.MaxUint64 {
		return math.MaxInt64
	}
	return c.CycleStart(cycle + 1)
}

// PlannedEnd returns the informational end-of-program timestamp.
func (c Config) PlannedEnd() int64 {
	return c.StartTime + ProgramDuration
}
