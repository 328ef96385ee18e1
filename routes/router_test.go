package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/cppla/cashx/config"
	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

type okProber struct{}

func (okProber) Probe(context.Context, string) (int, error) { return http.StatusOK, nil }

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	utils.SetRedis(nil)
	hash, err := utils.HashPassword("admin-pass")
	require.NoError(t, err)

	cfg := config.AppConfig{
		GinMode:            "test",
		RateLimitPerMinute: 10000,
		AllowedOrigins:     []string{"*"},
		AdminUsernames:     []string{"root"},
		AdminPasswordHash:  hash,
		NoticeTitle:        "Welcome to CASHX!",
		Rewards:            config.DefaultRewardConfig(),
	}
	store := services.NewMemoryStore()
	clock := services.NewClock(nil, time.UTC, nil)
	ledger := services.NewLedger(store)
	rw := cfg.Rewards
	return SetupRouter(cfg, Deps{
		Issuer:   utils.NewTokenIssuer("test-secret", time.Hour),
		Guard:    services.NewSessionGuard(store, cfg.AdminUsernames),
		Ledger:   ledger,
		Accounts: services.NewAccountService(store, nil),
		Streaks:  services.NewStreakEngine(store, clock, ledger, rw, nil),
		Games:    services.NewGameEngine(store, clock, ledger, rw, nil),
		Social:   services.NewSocialEngine(store, clock, ledger, okProber{}, rw, nil),
		Articles: services.NewArticleService(store, store, ledger, services.NewMemoryReadTimer(), clock, rw, nil),
		Coupons:  services.NewCouponService(store, nil),
	})
}

func call(t *testing.T, h http.Handler, method, path, token string, body interface{}) (int, gjson.Result) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code, gjson.ParseBytes(w.Body.Bytes())
}

func adminToken(t *testing.T, h http.Handler) string {
	code, res := call(t, h, http.MethodPost, "/api/v1/admin/login", "", map[string]string{"login": "root", "password": "admin-pass"})
	require.Equal(t, http.StatusOK, code, res.Raw)
	return res.Get("data.token").String()
}

func registerUser(t *testing.T, h http.Handler, admin, username string) string {
	code, res := call(t, h, http.MethodPost, "/api/v1/admin/coupons", admin, map[string]interface{}{"plan_id": "gold", "plan_name": "Gold", "amount": 5000})
	require.Equal(t, http.StatusOK, code, res.Raw)
	coupon := res.Get("data.items.0.code").String()

	code, res = call(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":    username,
		"email":       username + "@example.com",
		"full_name":   "Test " + username,
		"password":    "correct horse",
		"coupon_code": coupon,
	})
	require.Equal(t, http.StatusOK, code, res.Raw)
	assert.Equal(t, "Gold", res.Get("data.account.plan").String())
	return res.Get("data.token").String()
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	h := newTestServer(t)
	code, res := call(t, h, http.MethodPost, "/api/v1/admin/login", "", map[string]string{"login": "root", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.EqualValues(t, 40110, res.Get("code").Int())
}

func TestCheckinAndGameFlow(t *testing.T) {
	h := newTestServer(t)
	token := registerUser(t, h, adminToken(t, h), "ada")

	code, res := call(t, h, http.MethodGet, "/api/v1/checkin", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 50, res.Get("data.reward").Int())
	assert.False(t, res.Get("data.already_checked_in").Bool())

	code, res = call(t, h, http.MethodPost, "/api/v1/checkin", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 50, res.Get("data.task_balance").Int())

	_, res = call(t, h, http.MethodPost, "/api/v1/checkin", token, nil)
	assert.True(t, res.Get("data.already_checked_in").Bool())
	assert.EqualValues(t, 0, res.Get("data.reward").Int())

	code, res = call(t, h, http.MethodPost, "/api/v1/game/start", token, nil)
	require.Equal(t, http.StatusOK, code)
	session := res.Get("data.session_id").String()
	assert.Len(t, res.Get("data.board.cells").Array(), 64)

	code, res = call(t, h, http.MethodPost, "/api/v1/game/finish", token, map[string]interface{}{"session_id": session, "score": 700})
	require.Equal(t, http.StatusOK, code, res.Raw)
	assert.True(t, res.Get("data.win").Bool())
	assert.EqualValues(t, 150, res.Get("data.task_balance").Int())

	code, res = call(t, h, http.MethodPost, "/api/v1/game/finish", token, map[string]interface{}{"session_id": session, "score": 700})
	assert.Equal(t, http.StatusConflict, code)
	assert.EqualValues(t, 40910, res.Get("code").Int())

	_, _ = call(t, h, http.MethodPost, "/api/v1/game/start", token, nil)
	code, res = call(t, h, http.MethodPost, "/api/v1/game/start", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.EqualValues(t, 42910, res.Get("code").Int())

	code, res = call(t, h, http.MethodGet, "/api/v1/transactions", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, res.Get("data.pagination.total").Int())
	assert.Equal(t, "game", res.Get("data.items.0.kind").String())

	code, res = call(t, h, http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 150, res.Get("data.task_balance").Int())
	assert.EqualValues(t, 0, res.Get("data.game.plays_left").Int())
	assert.Equal(t, "admin", res.Get("data.referrer").String())
	assert.Equal(t, "ada", res.Get("data.referral_code").String())
}

func TestSocialLinkValidation(t *testing.T) {
	h := newTestServer(t)
	token := registerUser(t, h, adminToken(t, h), "ada")

	code, _ := call(t, h, http.MethodPost, "/api/v1/social/link", token, map[string]string{"platform": "myspace", "value": "ada"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, res := call(t, h, http.MethodPost, "/api/v1/social/link", token, map[string]string{"platform": "tiktok", "value": "@ada"})
	require.Equal(t, http.StatusOK, code, res.Raw)
	assert.EqualValues(t, 200, res.Get("data.reward").Int())

	_, res = call(t, h, http.MethodPost, "/api/v1/social/link", token, map[string]string{"platform": "tiktok", "value": "@bob"})
	assert.True(t, res.Get("data.already_linked").Bool())
	assert.Equal(t, "ada", res.Get("data.value").String())
}

func TestLoginElsewhereInvalidatesSession(t *testing.T) {
	h := newTestServer(t)
	old := registerUser(t, h, adminToken(t, h), "ada")

	code, res := call(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"login": "ada", "password": "correct horse"})
	require.Equal(t, http.StatusOK, code)
	fresh := res.Get("data.token").String()

	code, res = call(t, h, http.MethodGet, "/api/v1/auth/me", old, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.EqualValues(t, 40120, res.Get("code").Int())

	code, res = call(t, h, http.MethodGet, "/api/v1/auth/me", fresh, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ada", res.Get("data.username").String())

	code, _ = call(t, h, http.MethodPost, "/api/v1/auth/logout", fresh, nil)
	require.Equal(t, http.StatusOK, code)
	code, res = call(t, h, http.MethodGet, "/api/v1/auth/me", fresh, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.EqualValues(t, 40104, res.Get("code").Int())
}

func TestArticlesAndAdminReview(t *testing.T) {
	h := newTestServer(t)
	admin := adminToken(t, h)
	token := registerUser(t, h, admin, "ada")

	code, res := call(t, h, http.MethodPost, "/api/v1/admin/articles", admin, map[string]interface{}{
		"title": "Budgeting 101", "body_html": "<p>Spend less</p><script>x()</script>",
	})
	require.Equal(t, http.StatusOK, code, res.Raw)
	id := res.Get("data.id").String()
	assert.Equal(t, "<p>Spend less</p>", res.Get("data.body_html").String())

	code, res = call(t, h, http.MethodGet, "/api/v1/articles", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, res.Get("data.pagination.total").Int())

	code, res = call(t, h, http.MethodGet, "/api/v1/articles/"+id, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.Get("data.can_earn").Bool())

	code, res = call(t, h, http.MethodPost, "/api/v1/articles/"+id+"/claim", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.EqualValues(t, 42202, res.Get("code").Int())

	// users cannot reach admin routes
	code, _ = call(t, h, http.MethodGet, "/api/v1/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, res = call(t, h, http.MethodGet, "/api/v1/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, code)
	userID := res.Get("data.items.0.id").String()

	_, _ = call(t, h, http.MethodPost, "/api/v1/checkin", token, nil)
	code, res = call(t, h, http.MethodGet, "/api/v1/admin/users/"+userID, admin, nil)
	require.Equal(t, http.StatusOK, code)
	for _, b := range res.Get("data.audit").Array() {
		assert.True(t, b.Get("consistent").Bool(), b.Raw)
	}
}

func TestNotificationsAndNotFound(t *testing.T) {
	h := newTestServer(t)
	token := registerUser(t, h, adminToken(t, h), "ada")

	code, res := call(t, h, http.MethodGet, "/api/v1/notifications", token, nil)
	require.Equal(t, http.StatusOK, code)
	items := res.Get("data.items").Array()
	require.Len(t, items, 3)
	assert.Equal(t, "Welcome to CASHX!", items[0].Get("title").String())
	assert.Equal(t, "checkin", items[1].Get("kind").String())

	code, res = call(t, h, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.EqualValues(t, 40400, res.Get("code").Int())
}
