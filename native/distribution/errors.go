package distribution

import "errors"

var (
	ErrUnauthorized         = errors.New("distribution: unauthorized")
	ErrEmptyRoot            = errors.New("distribution: empty root")
	ErrRootAlreadySet       = errors.New("distribution: root already set")
	ErrCycleNotStarted      = errors.New("distribution: cycle not started")
	ErrRootWindowClosed     = errors.New("distribution: root setting window closed")
	ErrZeroAmount           = errors.New("distribution: amount must be positive")
	ErrAlreadyClaimed       = errors.New("distribution: reward already claimed")
	ErrRootNotSet           = errors.New("distribution: root not set")
	ErrClaimWindowClosed    = errors.New("distribution: claim window closed")
	ErrProgramFinished      = errors.New("distribution: program finished")
	ErrExceedsDistributable = errors.New("distribution: amount exceeds distributable remainder")
	ErrExceedsTotalPool     = errors.New("distribution: amount exceeds total pool")
	ErrInvalidProof         = errors.New("distribution: invalid merkle proof")
	ErrReentrantCall        = errors.New("distribution: reentrant call")
	ErrTransferFailed       = errors.New("distribution: reward transfer failed")

	errNilState = errors.New("distribution: state not configured")
	errNilToken = errors.New("distribution: token ledger not configured")
)
