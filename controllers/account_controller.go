package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

// AccountController serves the signed-in user's balances and history.
type AccountController struct {
	accounts *services.AccountService
	streaks  *services.StreakEngine
	games    *services.GameEngine
}

func NewAccountController(accounts *services.AccountService, streaks *services.StreakEngine, games *services.GameEngine) *AccountController {
	return &AccountController{accounts: accounts, streaks: streaks, games: games}
}

// Dashboard aggregates balances, streak and game quota.
func (a *AccountController) Dashboard(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	rctx := ctx.Request.Context()
	acc, err := a.accounts.Get(rctx, userID)
	if err != nil {
		respondError(ctx, err, 50070, "failed to load dashboard")
		return
	}
	checkin, err := a.streaks.Preview(rctx, userID)
	if err != nil {
		respondError(ctx, err, 50070, "failed to load dashboard")
		return
	}
	game, err := a.games.State(rctx, userID)
	if err != nil {
		respondError(ctx, err, 50070, "failed to load dashboard")
		return
	}
	utils.Success(ctx, gin.H{
		"username":          acc.Username,
		"full_name":         acc.FullName,
		"plan":              acc.Plan,
		"referrer":          acc.Referrer,
		"referral_code":     acc.ReferralCode,
		"spendable_balance": acc.SpendableBalance,
		"task_balance":      acc.TaskBalance,
		"daily_earnings":    acc.DailyEarnings,
		"streak":            acc.Streak,
		"checkin":           checkin,
		"game":              game.Quota,
		"social":            acc.Social,
	})
}

// Transactions lists the ledger, newest first.
func (a *AccountController) Transactions(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	items, total, err := a.accounts.Transactions(ctx.Request.Context(), userID, page, pageSize)
	if err != nil {
		respondError(ctx, err, 50071, "failed to list transactions")
		return
	}
	utils.Success(ctx, gin.H{"items": items, "pagination": utils.Page(page, pageSize, total)})
}
