package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cppla/cashx/models"
)

// Entry describes one balance movement.
type Entry struct {
	Kind        string
	Bucket      string
	Amount      int64
	Source      string
	Description string
	DateKey     string
}

// Ledger applies balance deltas to an account and produces the matching
// append-only transaction. Persisting both is the caller's Commit.
type Ledger struct {
	store AccountStore
	now   func() time.Time
}

func NewLedger(store AccountStore) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Credit adds e.Amount to the bucket of acc and returns the transaction to append.
func (l *Ledger) Credit(acc *models.Account, e Entry) (*models.Transaction, error) {
	if e.Amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive", ErrInvalidInput)
	}
	switch e.Bucket {
	case models.BucketTask:
		acc.TaskBalance += e.Amount
	case models.BucketSpendable:
		acc.SpendableBalance += e.Amount
	default:
		return nil, fmt.Errorf("%w: unknown bucket %q", ErrInvalidInput, e.Bucket)
	}
	return &models.Transaction{
		AccountID:   acc.ID,
		Kind:        e.Kind,
		Amount:      e.Amount,
		Direction:   models.DirectionCredit,
		Bucket:      e.Bucket,
		Source:      e.Source,
		Description: e.Description,
		DateKey:     e.DateKey,
		CreatedAt:   l.now(),
	}, nil
}

// BucketAudit compares a stored balance with what the ledger says it should be.
type BucketAudit struct {
	Bucket     string `json:"bucket"`
	Stored     int64  `json:"stored"`
	Ledger     int64  `json:"ledger"`
	Consistent bool   `json:"consistent"`
}

// Audit recomputes both balances from the transaction log.
func (l *Ledger) Audit(ctx context.Context, accountID uint) (*models.Account, []BucketAudit, error) {
	acc, err := l.store.FindByID(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	net, err := l.store.NetByBucket(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	out := []BucketAudit{
		{Bucket: models.BucketSpendable, Stored: acc.SpendableBalance, Ledger: net[models.BucketSpendable]},
		{Bucket: models.BucketTask, Stored: acc.TaskBalance, Ledger: net[models.BucketTask]},
	}
	for i := range out {
		out[i].Consistent = out[i].Stored == out[i].Ledger
	}
	return acc, out, nil
}
