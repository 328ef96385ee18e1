package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/cashx/models"
)

func TestLedgerCreditValidates(t *testing.T) {
	l := NewLedger(NewMemoryStore())
	acc := &models.Account{ID: 1}

	_, err := l.Credit(acc, Entry{Bucket: models.BucketTask, Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = l.Credit(acc, Entry{Bucket: "bonus", Amount: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	txn, err := l.Credit(acc, Entry{Kind: models.KindTask, Bucket: models.BucketSpendable, Amount: 5, Source: "x"})
	require.NoError(t, err)
	assert.EqualValues(t, 5, acc.SpendableBalance)
	assert.Zero(t, acc.TaskBalance)
	assert.Equal(t, models.DirectionCredit, txn.Direction)
	assert.False(t, txn.CreatedAt.IsZero())
}

func TestLedgerAudit(t *testing.T) {
	store := NewMemoryStore()
	acc := seedAccount(t, store)
	ctx := context.Background()
	streaks := NewStreakEngine(store, newFakeDay("2024-02-01"), NewLedger(store), testRewards(), nil)
	_, err := streaks.Checkin(ctx, acc.ID)
	require.NoError(t, err)

	l := NewLedger(store)
	_, audit, err := l.Audit(ctx, acc.ID)
	require.NoError(t, err)
	for _, b := range audit {
		assert.True(t, b.Consistent, b.Bucket)
	}

	// tamper with the stored balance outside the ledger
	cur := mustFind(t, store, acc.ID)
	cur.TaskBalance += 999
	require.NoError(t, store.Commit(ctx, cur, nil))

	_, audit, err = l.Audit(ctx, acc.ID)
	require.NoError(t, err)
	for _, b := range audit {
		if b.Bucket == models.BucketTask {
			assert.False(t, b.Consistent)
			assert.EqualValues(t, 50, b.Ledger)
			assert.EqualValues(t, 1049, b.Stored)
		}
	}
}
