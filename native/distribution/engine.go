package distribution

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"merkledrop/core/events"
	"merkledrop/core/types"
)

// LedgerState describes the minimal functionality the distribution engine
// needs from the surrounding state implementation. The engine is the only
// writer; no other code path may mutate this state.
type LedgerState interface {
	CycleRoot(cycle uint64) ([32]byte, bool, error)
	SetCycleRoot(cycle uint64, root [32]byte) error
	Claimed(cycle uint64, account [20]byte) (bool, error)
	MarkClaimed(cycle uint64, account [20]byte) error
	CycleTotal(cycle uint64) (*big.Int, error)
	SetCycleTotal(cycle uint64, amount *big.Int) error
	TotalClaimed() (*big.Int, error)
	SetTotalClaimed(amount *big.Int) error
	Snapshot() int
	RevertToSnapshot(id int) error
}

// TokenLedger is the boundary to the external value-transfer ledger holding
// the reward asset. The engine trusts its transfer semantics.
type TokenLedger interface {
	// Transfer pays amount of the reward asset from the program account to
	// the recipient, returning an error when the transfer did not happen.
	Transfer(to [20]byte, amount *big.Int) error
	// ProgramBalance reports the reward asset balance held by the program
	// account.
	ProgramBalance() (*big.Int, error)
}

// Engine wires the distribution accounting rules with external state, the
// token ledger and event emitters.
//
// Mutating entry points are serialized by mu so the engine can be served from
// concurrent transports; each invocation still runs to completion exactly as
// under a serialized host. The transfer guard is separate: it catches
// same-goroutine reentry from the transfer callback, which must fail rather
// than deadlock on mu.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	state   LedgerState
	token   TokenLedger
	emitter events.Emitter
	guard   transferGuard
	nowFn   func() int64
}

// NewEngine validates the program configuration against the current time and
// constructs an engine with a no-op emitter. State and token ledgers are
// attached via setters before the engine is used.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(time.Now().Unix()); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:     cfg.Clone(),
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}, nil
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state LedgerState) { e.state = state }

// SetTokenLedger configures the external value ledger used for payouts.
func (e *Engine) SetTokenLedger(token TokenLedger) { e.token = token }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Config returns a copy of the immutable program configuration.
func (e *Engine) Config() Config {
	return e.cfg.Clone()
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

type distributionEvent struct {
	evt *types.Event
}

func (d distributionEvent) EventType() string {
	if d.evt == nil {
		return ""
	}
	return d.evt.Type
}

func (d distributionEvent) Event() *types.Event { return d.evt }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(distributionEvent{evt: evt})
}

// SetRoot publishes the commitment for a cycle. Roots are write-once and may
// only be recorded by the configured root setter, any time from the cycle
// start until RootSettingWindow after the cycle end.
func (e *Engine) SetRoot(caller [20]byte, cycle uint64, root [32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.guard.inFlight() {
		return ErrReentrantCall
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.cfg.RootSetter {
		return ErrUnauthorized
	}
	if root == ([32]byte{}) {
		return ErrEmptyRoot
	}
	if _, ok, err := e.state.CycleRoot(cycle); err != nil {
		return err
	} else if ok {
		return ErrRootAlreadySet
	}
	now := e.now()
	if now < e.cfg.CycleStart(cycle) {
		return ErrCycleNotStarted
	}
	if now-RootSettingWindow > e.cfg.CycleEnd(cycle) {
		return ErrRootWindowClosed
	}
	if err := e.state.SetCycleRoot(cycle, root); err != nil {
		return err
	}
	e.emit(events.RootPublished{Cycle: cycle, Root: root, Setter: caller}.Event())
	return nil
}

// Claim validates a merkle-proven allocation for the caller and pays it out.
// All local state is committed before the external transfer; a failed
// transfer rolls the commit back so the ledger never records an unpaid claim.
// The call is guarded against reentry from the transfer callback.
func (e *Engine) Claim(caller [20]byte, cycle uint64, amount *big.Int, proof [][32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.token == nil {
		return errNilToken
	}
	if e.guard.inFlight() {
		return ErrReentrantCall
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()

	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	claimed, err := e.state.Claimed(cycle, caller)
	if err != nil {
		return err
	}
	if claimed {
		return ErrAlreadyClaimed
	}
	root, ok, err := e.state.CycleRoot(cycle)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRootNotSet
	}
	// Claims open as soon as the root is published, even before the cycle
	// itself ends; only the upper bound is enforced.
	if e.now()-ClaimWindow > e.cfg.CycleEnd(cycle) {
		return ErrClaimWindowClosed
	}
	distributable, err := e.RemainingDistributable()
	if err != nil {
		return err
	}
	if distributable.Sign() == 0 {
		return ErrProgramFinished
	}
	if amount.Cmp(distributable) > 0 {
		return ErrExceedsDistributable
	}
	if !VerifyProof(root, LeafHash(caller, amount), proof) {
		return ErrInvalidProof
	}
	total, err := e.state.TotalClaimed()
	if err != nil {
		return err
	}
	newTotal := new(big.Int).Add(total, amount)
	// Unreachable while the reserve check above holds; guards against
	// accounting drift.
	if newTotal.Cmp(e.cfg.TotalPool) > 0 {
		return ErrExceedsTotalPool
	}

	snapshot := e.state.Snapshot()
	if err := e.commitClaim(cycle, caller, amount, newTotal); err != nil {
		if revertErr := e.state.RevertToSnapshot(snapshot); revertErr != nil {
			return fmt.Errorf("revert claim state: %v (after %w)", revertErr, err)
		}
		return err
	}
	if err := e.token.Transfer(caller, amount); err != nil {
		if revertErr := e.state.RevertToSnapshot(snapshot); revertErr != nil {
			return fmt.Errorf("revert claim state: %v (after %w: %v)", revertErr, ErrTransferFailed, err)
		}
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	e.emit(events.RewardClaimed{Cycle: cycle, Account: caller, Amount: amount}.Event())
	return nil
}

func (e *Engine) commitClaim(cycle uint64, account [20]byte, amount, newTotal *big.Int) error {
	if err := e.state.MarkClaimed(cycle, account); err != nil {
		return err
	}
	cycleTotal, err := e.state.CycleTotal(cycle)
	if err != nil {
		return err
	}
	if err := e.state.SetCycleTotal(cycle, new(big.Int).Add(cycleTotal, amount)); err != nil {
		return err
	}
	return e.state.SetTotalClaimed(newTotal)
}

// CurrentCycle reports the cycle index active at the engine's current time.
func (e *Engine) CurrentCycle() uint64 {
	return e.cfg.CurrentCycle(e.now())
}

// CycleStartTime reports the unix timestamp at which the cycle begins.
func (e *Engine) CycleStartTime(cycle uint64) int64 {
	return e.cfg.CycleStart(cycle)
}

// CycleEndTime reports the unix timestamp at which the cycle ends.
func (e *Engine) CycleEndTime(cycle uint64) int64 {
	return e.cfg.CycleEnd(cycle)
}

// PlannedEndTime reports the informational program end timestamp.
func (e *Engine) PlannedEndTime() int64 {
	return e.cfg.PlannedEnd()
}

// RemainingPool reports the portion of the total pool not yet claimed.
func (e *Engine) RemainingPool() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	total, err := e.state.TotalClaimed()
	if err != nil {
		return nil, err
	}
	if total.Cmp(e.cfg.TotalPool) >= 0 {
		return big.NewInt(0), nil
	}
	return new(big.Int).Sub(e.cfg.TotalPool, total), nil
}

// RemainingDistributable reports the remaining pool above the permanent
// reserve. The reserve is never disbursed, so lifetime payouts stay strictly
// below the nominal pool size.
func (e *Engine) RemainingDistributable() (*big.Int, error) {
	remaining, err := e.RemainingPool()
	if err != nil {
		return nil, err
	}
	reserve := MinRemaining()
	if remaining.Cmp(reserve) <= 0 {
		return big.NewInt(0), nil
	}
	return remaining.Sub(remaining, reserve), nil
}

// IsProgramFinished reports whether the distributable remainder is exhausted.
// The check is time independent: the program can finish before its planned
// end or keep running past it.
func (e *Engine) IsProgramFinished() (bool, error) {
	distributable, err := e.RemainingDistributable()
	if err != nil {
		return false, err
	}
	return distributable.Sign() == 0, nil
}

// HasClaimed reports whether the account already claimed for the cycle.
func (e *Engine) HasClaimed(cycle uint64, account [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.Claimed(cycle, account)
}

// CycleRoot returns the committed root for the cycle, if one was published.
func (e *Engine) CycleRoot(cycle uint64) ([32]byte, bool, error) {
	if e == nil || e.state == nil {
		return [32]byte{}, false, errNilState
	}
	return e.state.CycleRoot(cycle)
}

// CycleTotal reports the cumulative amount claimed within the cycle. The
// value is analytics only and plays no part in enforcement.
func (e *Engine) CycleTotal(cycle uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.CycleTotal(cycle)
}

// TotalClaimed reports the lifetime disbursed amount across all cycles.
func (e *Engine) TotalClaimed() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.TotalClaimed()
}

// ContractBalance delegates to the external ledger's balance query for the
// program account.
func (e *Engine) ContractBalance() (*big.Int, error) {
	if e == nil || e.token == nil {
		return nil, errNilToken
	}
	return e.token.ProgramBalance()
}
