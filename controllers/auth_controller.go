package controllers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/cashx/config"
	"github.com/cppla/cashx/middleware"
	"github.com/cppla/cashx/models"
	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

// AuthController handles registration, login and the out-of-band admin login.
type AuthController struct {
	accounts *services.AccountService
	issuer   *utils.TokenIssuer
	cfg      config.AppConfig
}

func NewAuthController(accounts *services.AccountService, issuer *utils.TokenIssuer, cfg config.AppConfig) *AuthController {
	return &AuthController{accounts: accounts, issuer: issuer, cfg: cfg}
}

type registerRequest struct {
	Username   string `json:"username" binding:"required,min=3,max=64"`
	Email      string `json:"email" binding:"required,email,max=255"`
	FullName   string `json:"full_name" binding:"required,max=128"`
	Phone      string `json:"phone" binding:"omitempty,max=32"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
	CouponCode string `json:"coupon_code" binding:"required,max=64"`
	Country    string `json:"country" binding:"omitempty,len=2,alpha"`
	Referrer   string `json:"referrer" binding:"omitempty,max=64"`
}

type loginRequest struct {
	Login    string `json:"login" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=72"`
}

func (a *AuthController) issue(ctx *gin.Context, acc *models.Account) {
	token, err := a.issuer.Issue(acc.ID, acc.Username, acc.Role, acc.SessionFingerprint)
	if err != nil {
		respondError(ctx, err, 50010, "failed to issue token")
		return
	}
	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_in": int(a.issuer.TTL().Seconds()),
		"account":    acc,
	})
}

// Register creates an account from a coupon and signs it in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid registration payload")
		return
	}
	acc, err := a.accounts.Register(ctx.Request.Context(), services.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		Phone:      req.Phone,
		Password:   req.Password,
		CouponCode: req.CouponCode,
		Country:    req.Country,
		Referrer:   req.Referrer,
	})
	if err != nil {
		respondError(ctx, err, 50011, "failed to register")
		return
	}
	acc, err = a.accounts.Login(ctx.Request.Context(), acc.Username, req.Password)
	if err != nil {
		respondError(ctx, err, 50012, "failed to sign in")
		return
	}
	a.issue(ctx, acc)
}

// Login rotates the session fingerprint; older tokens stop working.
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid login payload")
		return
	}
	acc, err := a.accounts.Login(ctx.Request.Context(), req.Login, req.Password)
	if err != nil {
		respondError(ctx, err, 50012, "failed to sign in")
		return
	}
	a.issue(ctx, acc)
}

// AdminLogin signs in the configured administrator. Its token carries no
// session fingerprint.
func (a *AuthController) AdminLogin(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid login payload")
		return
	}
	known := false
	for _, u := range a.cfg.AdminUsernames {
		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(u)), []byte(strings.TrimSpace(req.Login))) == 1 {
			known = true
		}
	}
	if !known || !utils.CheckPassword(a.cfg.AdminPasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid credentials")
		return
	}
	token, err := a.issuer.Issue(0, strings.TrimSpace(req.Login), models.RoleAdmin, "")
	if err != nil {
		respondError(ctx, err, 50010, "failed to issue token")
		return
	}
	utils.Success(ctx, gin.H{"token": token, "expires_in": int(a.issuer.TTL().Seconds()), "role": models.RoleAdmin})
}

// Logout revokes the presented token.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	if v, ok := ctx.Get(middleware.ContextClaimsKey); ok {
		if claims, ok := v.(*utils.Claims); ok && claims.ExpiresAt != nil {
			utils.RevokeToken(token, claims.ExpiresAt.Time)
		}
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the signed-in account, or the admin identity.
func (a *AuthController) Me(ctx *gin.Context) {
	if acc, ok := currentAccount(ctx); ok {
		utils.Success(ctx, acc)
		return
	}
	utils.Success(ctx, gin.H{
		"username": ctx.GetString(middleware.ContextUsernameKey),
		"role":     ctx.GetString(middleware.ContextRoleKey),
	})
}
