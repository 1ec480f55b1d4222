package distribution

import "math/big"

const (
	// ProgramDuration is the informational target length of the program in
	// seconds. No operation consults it to block behaviour; the program keeps
	// operating past this horizon while distributable funds remain.
	ProgramDuration int64 = 10 * 365 * 24 * 60 * 60

	// ClaimWindow bounds how long after a cycle ends its claims stay open.
	ClaimWindow int64 = 60 * 24 * 60 * 60

	// RootSettingWindow bounds how long after a cycle ends the root setter may
	// still publish that cycle's commitment.
	RootSettingWindow int64 = 14 * 24 * 60 * 60

	// TokenDecimals is the fixed-point scale of the reward asset.
	TokenDecimals = 18

	minRemainingWholeTokens = 50_000
)

// MinRemaining returns the permanent reserve, denominated in base token
// units. The reserve is never disbursed for the lifetime of the program.
func MinRemaining() *big.Int {
	reserve := new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)
	return reserve.Mul(reserve, big.NewInt(minRemainingWholeTokens))
}
