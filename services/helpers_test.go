package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cppla/cashx/config"
	"github.com/cppla/cashx/models"
)

// fakeDay is a DayResolver the test moves by hand.
type fakeDay struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeDay(date string) *fakeDay {
	t, err := time.ParseInLocation(dateKeyLayout, date, time.UTC)
	if err != nil {
		panic(err)
	}
	return &fakeDay{t: t.Add(12 * time.Hour)}
}

func (f *fakeDay) Today(context.Context) Today {
	f.mu.Lock()
	defer f.mu.Unlock()
	return DayOf(f.t, time.UTC)
}

func (f *fakeDay) set(date string) {
	t, err := time.ParseInLocation(dateKeyLayout, date, time.UTC)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	f.t = t.Add(12 * time.Hour)
	f.mu.Unlock()
}

func (f *fakeDay) advance(days int) {
	f.mu.Lock()
	f.t = f.t.AddDate(0, 0, days)
	f.mu.Unlock()
}

func testRewards() config.RewardConfig {
	r := config.DefaultRewardConfig()
	r.Timezone = "UTC"
	return r
}

func seedAccount(t *testing.T, store *MemoryStore) *models.Account {
	t.Helper()
	acc := &models.Account{Username: "ada", Email: "ada@example.com", FullName: "Ada", SessionFingerprint: "fp-1"}
	require.NoError(t, store.CreateAccount(context.Background(), acc, ""))
	return acc
}

func mustFind(t *testing.T, store AccountStore, id uint) *models.Account {
	t.Helper()
	acc, err := store.FindByID(context.Background(), id)
	require.NoError(t, err)
	return acc
}
