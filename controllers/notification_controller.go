package controllers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/cppla/cashx/config"
	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

// NotificationController builds the notification feed: the configured
// notice plus reminders derived from the reader's engagement state.
type NotificationController struct {
	cfg     config.AppConfig
	streaks *services.StreakEngine
	games   *services.GameEngine
}

func NewNotificationController(cfg config.AppConfig, streaks *services.StreakEngine, games *services.GameEngine) *NotificationController {
	return &NotificationController{cfg: cfg, streaks: streaks, games: games}
}

type notification struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	HTML  string `json:"html,omitempty"`
}

func (n *NotificationController) List(ctx *gin.Context) {
	items := []notification{{Kind: "notice", Title: n.cfg.NoticeTitle, HTML: n.cfg.NoticeHTML}}

	acc, ok := currentAccount(ctx)
	if !ok {
		utils.Success(ctx, gin.H{"items": items})
		return
	}
	rctx := ctx.Request.Context()
	name := acc.FullName
	if name == "" {
		name = acc.Username
	}
	if preview, err := n.streaks.Preview(rctx, acc.ID); err == nil && !preview.AlreadyCheckedIn {
		items = append(items, notification{
			Kind:  "checkin",
			Title: fmt.Sprintf("Hi %s, check in today to earn %d and reach a %d-day streak.", name, preview.Reward, preview.Streak),
		})
	}
	if state, err := n.games.State(rctx, acc.ID); err == nil && state.Quota.PlaysLeft > 0 {
		items = append(items, notification{
			Kind:  "game",
			Title: fmt.Sprintf("You have %d game plays left today.", state.Quota.PlaysLeft),
		})
	}
	utils.Success(ctx, gin.H{"items": items})
}
