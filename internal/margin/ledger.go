package margin

import (
	"context"
	"sync"

	"github.com/ngoclma/risk-monitoring-system/internal/errors"
	"github.com/ngoclma/risk-monitoring-system/internal/models"
)

// LedgerStore provides the margin-record persistence the ledger mutates.
type LedgerStore interface {
	GetMargin(ctx context.Context, clientID int64) (*models.Margin, error)
	UpdateLoanAmount(ctx context.Context, clientID int64, amount float64) error
}

// Ledger applies payment and drawdown mutations to clients' outstanding
// loan balances. Mutations against the same client are serialized by a
// per-client mutex so concurrent read-modify-writes never lose updates.
type Ledger struct {
	store LedgerStore

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewLedger creates a new loan ledger.
func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{
		store: store,
		locks: make(map[int64]*sync.Mutex),
	}
}

func (l *Ledger) clientLock(clientID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[clientID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[clientID] = lock
	}
	return lock
}

// Pay decrements a client's outstanding loan by amount and returns the new
// balance. The amount must be positive and must not exceed the current
// balance; the loan amount never goes negative.
func (l *Ledger) Pay(ctx context.Context, clientID int64, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, errors.NewValidationError("payment_amount", amount, "must be positive")
	}

	lock := l.clientLock(clientID)
	lock.Lock()
	defer lock.Unlock()

	margin, err := l.store.GetMargin(ctx, clientID)
	if err != nil {
		return 0, errors.Wrapf(err, "pay loan for client %d", clientID)
	}

	if amount > margin.LoanAmount {
		return 0, errors.NewValidationError("payment_amount", amount, "exceeds outstanding loan amount")
	}

	newBalance := margin.LoanAmount - amount
	if err := l.store.UpdateLoanAmount(ctx, clientID, newBalance); err != nil {
		return 0, errors.Wrapf(err, "pay loan for client %d", clientID)
	}
	return newBalance, nil
}

// Increase increments a client's outstanding loan by amount and returns the
// new balance. No upper bound is enforced here: collateral sufficiency is
// judged separately by the evaluator.
func (l *Ledger) Increase(ctx context.Context, clientID int64, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, errors.NewValidationError("loan_increase_amount", amount, "must be positive")
	}

	lock := l.clientLock(clientID)
	lock.Lock()
	defer lock.Unlock()

	margin, err := l.store.GetMargin(ctx, clientID)
	if err != nil {
		return 0, errors.Wrapf(err, "increase loan for client %d", clientID)
	}

	newBalance := margin.LoanAmount + amount
	if err := l.store.UpdateLoanAmount(ctx, clientID, newBalance); err != nil {
		return 0, errors.Wrapf(err, "increase loan for client %d", clientID)
	}
	return newBalance, nil
}
