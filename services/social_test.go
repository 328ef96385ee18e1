package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/cashx/models"
)

type stubProber struct {
	mu     sync.Mutex
	status int
	err    error
	urls   []string
}

func (p *stubProber) Probe(_ context.Context, target string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.urls = append(p.urls, target)
	return p.status, p.err
}

func newSocialFixture(t *testing.T, prober Prober) (*SocialEngine, *MemoryStore, uint) {
	store := NewMemoryStore()
	acc := seedAccount(t, store)
	return NewSocialEngine(store, newFakeDay("2024-06-01"), NewLedger(store), prober, testRewards(), nil), store, acc.ID
}

func TestLinkIsWriteOnce(t *testing.T) {
	prober := &stubProber{status: http.StatusOK}
	engine, store, id := newSocialFixture(t, prober)
	ctx := context.Background()

	first, err := engine.Link(ctx, id, PlatformInstagram, "@ada.codes")
	require.NoError(t, err)
	assert.False(t, first.AlreadyLinked)
	assert.Equal(t, "ada.codes", first.Value)
	assert.EqualValues(t, 200, first.Reward)
	assert.EqualValues(t, 200, first.TaskBalance)
	assert.Equal(t, []string{"https://www.instagram.com/ada.codes/"}, prober.urls)

	second, err := engine.Link(ctx, id, PlatformInstagram, "someone_else")
	require.NoError(t, err)
	assert.True(t, second.AlreadyLinked)
	assert.Zero(t, second.Reward)
	assert.Equal(t, "ada.codes", second.Value)
	assert.Len(t, prober.urls, 1, "no probe once linked")

	acc := mustFind(t, store, id)
	assert.Equal(t, "ada.codes", acc.Social.InstagramLink)
	assert.EqualValues(t, 200, acc.TaskBalance)

	txns, _, err := store.ListTransactions(ctx, id, 1, 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, models.KindTask, txns[0].Kind)
	assert.Equal(t, "instagram", txns[0].Source)
}

func TestLinkAlreadyLinkedIgnoresMalformedInput(t *testing.T) {
	prober := &stubProber{status: http.StatusOK}
	engine, store, id := newSocialFixture(t, prober)
	ctx := context.Background()

	_, err := engine.Link(ctx, id, PlatformInstagram, "@ada")
	require.NoError(t, err)

	again, err := engine.Link(ctx, id, PlatformInstagram, "not a handle!")
	require.NoError(t, err)
	assert.True(t, again.AlreadyLinked)
	assert.Zero(t, again.Reward)
	assert.Equal(t, "ada", again.Value)
	assert.Len(t, prober.urls, 1)
	assert.Equal(t, "ada", mustFind(t, store, id).Social.InstagramLink)
}

func TestLinkInvalidStatus(t *testing.T) {
	engine, store, id := newSocialFixture(t, &stubProber{status: http.StatusNotFound})
	_, err := engine.Link(context.Background(), id, PlatformTwitter, "ghost")
	require.ErrorIs(t, err, ErrInvalidLink)

	var linkErr *InvalidLinkError
	require.True(t, errors.As(err, &linkErr))
	assert.Equal(t, http.StatusNotFound, linkErr.StatusCode)
	assert.Equal(t, "https://x.com/ghost", linkErr.URL)

	acc := mustFind(t, store, id)
	assert.Empty(t, acc.Social.TwitterLink)
	assert.Zero(t, acc.TaskBalance)
}

func TestLinkProbeError(t *testing.T) {
	engine, _, id := newSocialFixture(t, &stubProber{err: errors.New("dial tcp: timeout")})
	_, err := engine.Link(context.Background(), id, PlatformTiktok, "ada")
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestLinkWhatsappAcceptsRedirect(t *testing.T) {
	prober := &stubProber{status: http.StatusFound}
	engine, _, id := newSocialFixture(t, prober)
	res, err := engine.Link(context.Background(), id, PlatformWhatsapp, "+234 (801) 234-5678")
	require.NoError(t, err)
	assert.Equal(t, "2348012345678", res.Value)
	assert.Equal(t, "https://wa.me/2348012345678", prober.urls[0])

	// a 302 is not enough for handle platforms
	_, err = engine.Link(context.Background(), id, PlatformTiktok, "ada")
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestLinkRejectsMalformedInput(t *testing.T) {
	prober := &stubProber{status: http.StatusOK}
	engine, _, id := newSocialFixture(t, prober)
	ctx := context.Background()

	_, err := engine.Link(ctx, id, PlatformFacebook, "https://evil.example/ada")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = engine.Link(ctx, id, PlatformInstagram, "has spaces")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = engine.Link(ctx, id, PlatformWhatsapp, "12")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = engine.Link(ctx, id, Platform("myspace"), "ada")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, prober.urls)
}

func TestHTTPProberDoesNotFollowRedirects(t *testing.T) {
	var gotUA, gotEncoding string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		gotEncoding = r.Header.Get("Accept-Encoding")
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	status, err := NewHTTPProber("cashx-test", time.Second).Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, "cashx-test", gotUA)
	assert.Equal(t, "identity", gotEncoding)
}

func TestIsPlatform(t *testing.T) {
	for _, p := range Platforms {
		assert.True(t, IsPlatform(string(p)))
	}
	assert.False(t, IsPlatform("myspace"))
}
