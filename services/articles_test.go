package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArticleFixture(t *testing.T) (*ArticleService, *MemoryStore, *MemoryReadTimer, uint) {
	store := NewMemoryStore()
	acc := seedAccount(t, store)
	timer := NewMemoryReadTimer()
	svc := NewArticleService(store, store, NewLedger(store), timer, newFakeDay("2024-06-01"), testRewards(), nil)
	return svc, store, timer, acc.ID
}

func TestArticleCreateSanitisesAndDefaults(t *testing.T) {
	svc, _, _, _ := newArticleFixture(t)
	a, err := svc.Create(context.Background(), ArticleInput{
		Title:    " Saving tips ",
		BodyHTML: `<p>Hello</p><script>alert(1)</script>`,
	})
	require.NoError(t, err)
	assert.Equal(t, "Saving tips", a.Title)
	assert.Equal(t, "<p>Hello</p>", a.BodyHTML)
	assert.EqualValues(t, 100, a.RewardAmount)

	_, err = svc.Create(context.Background(), ArticleInput{Title: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestArticleClaimFlow(t *testing.T) {
	svc, store, timer, id := newArticleFixture(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, ArticleInput{Title: "Budgeting", BodyHTML: "<p>x</p>", RewardAmount: 120})
	require.NoError(t, err)

	_, err = svc.Claim(ctx, id, a.ID)
	assert.ErrorIs(t, err, ErrReadTooShort, "never opened")

	view, err := svc.Open(ctx, id, a.ID)
	require.NoError(t, err)
	assert.True(t, view.CanEarn)
	assert.Equal(t, 60, view.MinReadSeconds)

	_, err = svc.Claim(ctx, id, a.ID)
	assert.ErrorIs(t, err, ErrReadTooShort)

	opened := timer.now()
	timer.now = func() time.Time { return opened.Add(61 * time.Second) }

	res, err := svc.Claim(ctx, id, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 120, res.Reward)
	assert.EqualValues(t, 120, res.TaskBalance)

	_, err = svc.Claim(ctx, id, a.ID)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.EqualValues(t, 120, mustFind(t, store, id).TaskBalance)

	view, err = svc.Open(ctx, id, a.ID)
	require.NoError(t, err)
	assert.False(t, view.CanEarn)
}

func TestArticleMissing(t *testing.T) {
	svc, _, _, id := newArticleFixture(t)
	_, err := svc.Open(context.Background(), id, 77)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReadTimerKeepsFirstOpen(t *testing.T) {
	timer := NewMemoryReadTimer()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	timer.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, timer.Start(ctx, 1, 2))
	now = base.Add(30 * time.Second)
	require.NoError(t, timer.Start(ctx, 1, 2))
	now = base.Add(45 * time.Second)

	elapsed, ok, err := timer.Since(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 45*time.Second, elapsed)

	_, ok, err = timer.Since(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}
