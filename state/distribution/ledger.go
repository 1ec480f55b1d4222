package distribution

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"merkledrop/storage"
)

const (
	prefixRoot       = "distribution/root/"
	prefixClaimed    = "distribution/claimed/"
	prefixCycleTotal = "distribution/cycle-total/"
	keyTotalClaimed  = "distribution/total-claimed"
)

// Ledger persists the distribution program state in a key-value store. It is
// the exclusive owner of its keyspace; all mutation flows through the
// distribution engine.
type Ledger struct {
	mu      sync.RWMutex
	db      storage.Database
	journal []journalEntry
}

type journalEntry struct {
	key      []byte
	previous []byte
	existed  bool
}

// NewLedger wraps the supplied database.
func NewLedger(db storage.Database) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("distribution ledger: database not configured")
	}
	return &Ledger{db: db}, nil
}

func rootKey(cycle uint64) []byte {
	key := make([]byte, 0, len(prefixRoot)+8)
	key = append(key, prefixRoot...)
	return binary.BigEndian.AppendUint64(key, cycle)
}

func claimedKey(cycle uint64, account [20]byte) []byte {
	key := make([]byte, 0, len(prefixClaimed)+8+20)
	key = append(key, prefixClaimed...)
	key = binary.BigEndian.AppendUint64(key, cycle)
	return append(key, account[:]...)
}

func cycleTotalKey(cycle uint64) []byte {
	key := make([]byte, 0, len(prefixCycleTotal)+8)
	key = append(key, prefixCycleTotal...)
	return binary.BigEndian.AppendUint64(key, cycle)
}

// put records the previous value in the journal before overwriting.
func (l *Ledger) put(key, value []byte) error {
	entry := journalEntry{key: append([]byte(nil), key...)}
	existed, err := l.db.Has(key)
	if err != nil {
		return err
	}
	if existed {
		previous, err := l.db.Get(key)
		if err != nil {
			return err
		}
		entry.previous = previous
		entry.existed = true
	}
	if err := l.db.Put(key, value); err != nil {
		return err
	}
	l.journal = append(l.journal, entry)
	return nil
}

// Snapshot marks the current journal position. Operations are serialized by
// the host, so snapshots do not nest; taking a new snapshot discards undo
// history from before it.
func (l *Ledger) Snapshot() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.journal = l.journal[:0]
	return 0
}

// RevertToSnapshot undoes every write recorded since the snapshot was taken,
// restoring prior values and deleting keys that did not exist. Undo keeps
// going past a failing write so as much state as possible is restored; the
// first failure is returned.
func (l *Ledger) RevertToSnapshot(id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id < 0 || id > len(l.journal) {
		return fmt.Errorf("distribution ledger: unknown snapshot %d", id)
	}
	var firstErr error
	for i := len(l.journal) - 1; i >= id; i-- {
		entry := l.journal[i]
		var err error
		if entry.existed {
			err = l.db.Put(entry.key, entry.previous)
		} else {
			err = l.db.Delete(entry.key)
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("distribution ledger: undo %q: %w", entry.key, err)
		}
	}
	l.journal = l.journal[:id]
	return firstErr
}

// CycleRoot returns the committed root for the cycle, if present.
func (l *Ledger) CycleRoot(cycle uint64) ([32]byte, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var root [32]byte
	value, err := l.db.Get(rootKey(cycle))
	if errors.Is(err, storage.ErrNotFound) {
		return root, false, nil
	}
	if err != nil {
		return root, false, err
	}
	if len(value) != len(root) {
		return root, false, errors.New("distribution ledger: malformed root entry")
	}
	copy(root[:], value)
	return root, true, nil
}

// SetCycleRoot stores the root for the cycle.
func (l *Ledger) SetCycleRoot(cycle uint64, root [32]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.put(rootKey(cycle), root[:])
}

// Claimed reports whether the account already claimed for the cycle.
func (l *Ledger) Claimed(cycle uint64, account [20]byte) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.db.Has(claimedKey(cycle, account))
}

// MarkClaimed flags the (cycle, account) pair as claimed.
func (l *Ledger) MarkClaimed(cycle uint64, account [20]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.put(claimedKey(cycle, account), []byte{1})
}

func (l *Ledger) amountAt(key []byte) (*big.Int, error) {
	value, err := l.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(value), nil
}

// CycleTotal returns the cumulative amount claimed within the cycle.
func (l *Ledger) CycleTotal(cycle uint64) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.amountAt(cycleTotalKey(cycle))
}

// SetCycleTotal stores the cumulative amount claimed within the cycle.
func (l *Ledger) SetCycleTotal(cycle uint64, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount == nil || amount.Sign() < 0 {
		return errors.New("distribution ledger: cycle total must be non-negative")
	}
	return l.put(cycleTotalKey(cycle), amount.Bytes())
}

// TotalClaimed returns the lifetime disbursed amount.
func (l *Ledger) TotalClaimed() (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.amountAt([]byte(keyTotalClaimed))
}

// SetTotalClaimed stores the lifetime disbursed amount.
func (l *Ledger) SetTotalClaimed(amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount == nil || amount.Sign() < 0 {
		return errors.New("distribution ledger: total claimed must be non-negative")
	}
	return l.put([]byte(keyTotalClaimed), amount.Bytes())
}
