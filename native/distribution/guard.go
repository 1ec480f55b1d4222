package distribution

import "sync/atomic"

// transferGuard enforces a non-reentrant execution discipline around the
// external transfer call. While a transfer is in flight, every guarded entry
// point fails instead of interleaving with it. The flag is atomic so callers
// can observe an in-flight transfer without first acquiring the engine lock;
// a callback from the transfer re-entering on the same goroutine must be
// rejected before it would block on that lock.
type transferGuard struct {
	entered atomic.Bool
}

// inFlight reports whether a guarded call is currently executing.
func (g *transferGuard) inFlight() bool {
	return g.entered.Load()
}

func (g *transferGuard) enter() error {
	if !g.entered.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (g *transferGuard) exit() {
	g.entered.Store(false)
}
