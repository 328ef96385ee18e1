package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

// CheckinController exposes the daily streak check-in.
type CheckinController struct {
	streaks *services.StreakEngine
}

func NewCheckinController(streaks *services.StreakEngine) *CheckinController {
	return &CheckinController{streaks: streaks}
}

// Preview shows what checking in right now would pay, without committing.
func (c *CheckinController) Preview(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	res, err := c.streaks.Preview(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, 50030, "failed to load check-in status")
		return
	}
	utils.Success(ctx, res)
}

// Checkin records today's check-in. Repeating it the same day is a no-op.
func (c *CheckinController) Checkin(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	res, err := c.streaks.Checkin(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, 50031, "failed to record check-in")
		return
	}
	utils.Success(ctx, res)
}
