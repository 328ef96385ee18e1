package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

// GameController serves the daily matching game.
type GameController struct {
	games *services.GameEngine
}

func NewGameController(games *services.GameEngine) *GameController {
	return &GameController{games: games}
}

type finishGameRequest struct {
	SessionID string `json:"session_id" binding:"required,uuid"`
	// pointer so that a score of 0 still passes "required"
	Score *int `json:"score" binding:"required"`
}

func (g *GameController) State(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	res, err := g.games.State(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, 50040, "failed to load game state")
		return
	}
	utils.Success(ctx, res)
}

func (g *GameController) Start(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	res, err := g.games.Start(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, 50041, "failed to start game")
		return
	}
	utils.Success(ctx, res)
}

func (g *GameController) Finish(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var req finishGameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid game result payload")
		return
	}
	res, err := g.games.Finish(ctx.Request.Context(), userID, req.SessionID, *req.Score)
	if err != nil {
		respondError(ctx, err, 50042, "failed to finish game")
		return
	}
	utils.Success(ctx, res)
}
