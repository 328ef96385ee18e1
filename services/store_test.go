package services

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/cashx/models"
)

// racingStore loses the first n commits as if another writer got there first.
type racingStore struct {
	*MemoryStore
	mu    sync.Mutex
	loses int
	calls int
}

func (s *racingStore) Commit(ctx context.Context, acc *models.Account, txns []*models.Transaction) error {
	s.mu.Lock()
	s.calls++
	lose := s.calls <= s.loses
	s.mu.Unlock()
	if lose {
		return ErrConflict
	}
	return s.MemoryStore.Commit(ctx, acc, txns)
}

func TestMutateAccountRetriesConflicts(t *testing.T) {
	mem := NewMemoryStore()
	acc := seedAccount(t, mem)
	store := &racingStore{MemoryStore: mem, loses: 2}
	streaks := NewStreakEngine(store, newFakeDay("2024-02-01"), NewLedger(store), testRewards(), nil)

	res, err := streaks.Checkin(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 50, res.TaskBalance)
	assert.Equal(t, 3, store.calls)

	_, total, err := mem.ListTransactions(context.Background(), acc.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "exactly one credit despite retries")
}

func TestMutateAccountGivesUp(t *testing.T) {
	mem := NewMemoryStore()
	acc := seedAccount(t, mem)
	store := &racingStore{MemoryStore: mem, loses: maxCommitAttempts}
	streaks := NewStreakEngine(store, newFakeDay("2024-02-01"), NewLedger(store), testRewards(), nil)

	_, err := streaks.Checkin(context.Background(), acc.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Zero(t, mustFind(t, mem, acc.ID).TaskBalance)
}

func TestMemoryStoreVersionCheck(t *testing.T) {
	store := NewMemoryStore()
	acc := seedAccount(t, store)
	ctx := context.Background()

	a := mustFind(t, store, acc.ID)
	b := mustFind(t, store, acc.ID)
	a.TaskBalance = 10
	require.NoError(t, store.Commit(ctx, a, nil))
	b.TaskBalance = 20
	assert.ErrorIs(t, store.Commit(ctx, b, nil), ErrConflict)
	assert.EqualValues(t, 10, mustFind(t, store, acc.ID).TaskBalance)
}

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestGormStoreFindByIDNotFound(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `accounts`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewGormStore(db).FindByID(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreCommitConflict(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `accounts` SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	acc := &models.Account{ID: 1, Username: "ada", Email: "ada@example.com", Version: 4}
	err := NewGormStore(db).Commit(context.Background(), acc, nil)
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualValues(t, 4, acc.Version, "version restored after a lost race")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreCommitAppendsTransactions(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `accounts` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `transactions`")).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	acc := &models.Account{ID: 1, Username: "ada", Email: "ada@example.com", Version: 4, TaskBalance: 50}
	txn := &models.Transaction{Kind: models.KindCheckin, Amount: 50, Direction: models.DirectionCredit, Bucket: models.BucketTask}
	err := NewGormStore(db).Commit(context.Background(), acc, []*models.Transaction{txn})
	require.NoError(t, err)
	assert.EqualValues(t, 5, acc.Version)
	assert.EqualValues(t, 1, txn.AccountID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreHasTransaction(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `transactions`")).
		WithArgs(uint(3), "article:9").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := NewGormStore(db).HasTransaction(context.Background(), 3, "article:9")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreCreateAccountRejectsUsedCoupon(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `accounts`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `coupons` SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	acc := &models.Account{Username: "ada", Email: "ada@example.com"}
	err := NewGormStore(db).CreateAccount(context.Background(), acc, "CX-USED")
	assert.ErrorIs(t, err, ErrCouponInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}
