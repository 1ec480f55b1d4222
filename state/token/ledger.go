package token

import (
	"errors"
	"math/big"
	"sync"

	"merkledrop/storage"
)

const prefixBalance = "token/balance/"

var (
	ErrInsufficientFunds = errors.New("token: insufficient funds")
	ErrInvalidAmount     = errors.New("token: amount must be positive")
)

// Ledger is a minimal account-balance ledger for the reward asset. It stands
// in for the external value-transfer ledger at the program boundary; the
// distribution engine only ever sees the TokenLedger interface.
type Ledger struct {
	mu      sync.RWMutex
	db      storage.Database
	asset   [20]byte
	program [20]byte
}

// NewLedger wraps the supplied database for one asset and the program's
// holding account.
func NewLedger(db storage.Database, asset, program [20]byte) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("token ledger: database not configured")
	}
	if asset == ([20]byte{}) {
		return nil, errors.New("token ledger: asset must be configured")
	}
	if program == ([20]byte{}) {
		return nil, errors.New("token ledger: program account must be configured")
	}
	return &Ledger{db: db, asset: asset, program: program}, nil
}

func (l *Ledger) balanceKey(account [20]byte) []byte {
	key := make([]byte, 0, len(prefixBalance)+40)
	key = append(key, prefixBalance...)
	key = append(key, l.asset[:]...)
	return append(key, account[:]...)
}

func (l *Ledger) balance(account [20]byte) (*big.Int, error) {
	value, err := l.db.Get(l.balanceKey(account))
	if errors.Is(err, storage.ErrNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(value), nil
}

func (l *Ledger) setBalance(account [20]byte, amount *big.Int) error {
	return l.db.Put(l.balanceKey(account), amount.Bytes())
}

// BalanceOf reports the balance held by the account.
func (l *Ledger) BalanceOf(account [20]byte) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance(account)
}

// ProgramBalance reports the balance held by the program account.
func (l *Ledger) ProgramBalance() (*big.Int, error) {
	return l.BalanceOf(l.program)
}

// Mint credits freshly provisioned funds to the account.
func (l *Ledger) Mint(account [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	current, err := l.balance(account)
	if err != nil {
		return err
	}
	return l.setBalance(account, current.Add(current, amount))
}

// Transfer moves amount from the program account to the recipient.
func (l *Ledger) Transfer(to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	source, err := l.balance(l.program)
	if err != nil {
		return err
	}
	if source.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	dest, err := l.balance(to)
	if err != nil {
		return err
	}
	if err := l.setBalance(l.program, source.Sub(source, amount)); err != nil {
		return err
	}
	return l.setBalance(to, dest.Add(dest, amount))
}
