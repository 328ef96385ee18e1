package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

// AdminController covers coupon issuing, user review and article authoring.
type AdminController struct {
	accounts *services.AccountService
	coupons  *services.CouponService
	articles *services.ArticleService
	ledger   *services.Ledger
}

func NewAdminController(accounts *services.AccountService, coupons *services.CouponService, articles *services.ArticleService, ledger *services.Ledger) *AdminController {
	return &AdminController{accounts: accounts, coupons: coupons, articles: articles, ledger: ledger}
}

type issueCouponsRequest struct {
	PlanID   string `json:"plan_id" binding:"required,max=64"`
	PlanName string `json:"plan_name" binding:"omitempty,max=64"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Count    int    `json:"count" binding:"omitempty,min=1,max=100"`
}

type createArticleRequest struct {
	Title         string `json:"title" binding:"required,max=255"`
	Description   string `json:"description" binding:"omitempty,max=1024"`
	BodyHTML      string `json:"body_html" binding:"required"`
	CoverImageURL string `json:"cover_image_url" binding:"omitempty,url,max=512"`
	RewardAmount  int64  `json:"reward_amount" binding:"omitempty,gt=0"`
}

func (a *AdminController) ListUsers(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	items, total, err := a.accounts.List(ctx.Request.Context(), page, pageSize)
	if err != nil {
		respondError(ctx, err, 50080, "failed to list users")
		return
	}
	utils.Success(ctx, gin.H{"items": items, "pagination": utils.Page(page, pageSize, total)})
}

// ReviewUser returns the account with a ledger audit of both balances.
func (a *AdminController) ReviewUser(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	acc, audit, err := a.ledger.Audit(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, 50081, "failed to review user")
		return
	}
	utils.Success(ctx, gin.H{"account": acc, "audit": audit})
}

func (a *AdminController) IssueCoupons(ctx *gin.Context) {
	var req issueCouponsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid coupon payload")
		return
	}
	items, err := a.coupons.Issue(ctx.Request.Context(), services.IssueCouponInput{
		PlanID:   req.PlanID,
		PlanName: req.PlanName,
		Amount:   req.Amount,
		Count:    req.Count,
	})
	if err != nil {
		respondError(ctx, err, 50082, "failed to issue coupons")
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

func (a *AdminController) ListCoupons(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	items, total, err := a.coupons.List(ctx.Request.Context(), page, pageSize)
	if err != nil {
		respondError(ctx, err, 50083, "failed to list coupons")
		return
	}
	utils.Success(ctx, gin.H{"items": items, "pagination": utils.Page(page, pageSize, total)})
}

func (a *AdminController) CreateArticle(ctx *gin.Context) {
	var req createArticleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40081, "invalid article payload")
		return
	}
	art, err := a.articles.Create(ctx.Request.Context(), services.ArticleInput{
		Title:         req.Title,
		Description:   req.Description,
		BodyHTML:      req.BodyHTML,
		CoverImageURL: req.CoverImageURL,
		RewardAmount:  req.RewardAmount,
	})
	if err != nil {
		respondError(ctx, err, 50084, "failed to create article")
		return
	}
	articleListCache.Purge(ctx.Request.Context())
	utils.Success(ctx, art)
}
