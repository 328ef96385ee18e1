package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

var articleListCache = utils.NewJSONCache("cache:articles:list:", 5*time.Minute)

// ArticleController serves readable articles and their reading rewards.
type ArticleController struct {
	articles *services.ArticleService
}

func NewArticleController(articles *services.ArticleService) *ArticleController {
	return &ArticleController{articles: articles}
}

// List returns a page of articles, served from cache when possible.
func (a *ArticleController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	key := fmt.Sprintf("%d:%d", page, pageSize)
	if b, ok := articleListCache.Get(ctx.Request.Context(), key); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}
	items, total, err := a.articles.List(ctx.Request.Context(), page, pageSize)
	if err != nil {
		respondError(ctx, err, 50060, "failed to list articles")
		return
	}
	payload := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{
		"items":      items,
		"pagination": utils.Page(page, pageSize, total),
	}}
	articleListCache.Put(ctx.Request.Context(), key, payload)
	ctx.JSON(http.StatusOK, payload)
}

// Get opens an article and starts the reading countdown.
func (a *ArticleController) Get(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	view, err := a.articles.Open(ctx.Request.Context(), userID, id)
	if err != nil {
		respondError(ctx, err, 50061, "failed to load article")
		return
	}
	utils.Success(ctx, view)
}

func (a *ArticleController) Claim(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	res, err := a.articles.Claim(ctx.Request.Context(), userID, id)
	if err != nil {
		respondError(ctx, err, 50062, "failed to claim article reward")
		return
	}
	utils.Success(ctx, res)
}
