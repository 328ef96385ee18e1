package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/cashx/middleware"
	"github.com/cppla/cashx/models"
	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(strings.TrimSpace(pageStr)); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(strings.TrimSpace(sizeStr)); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	v, ok := value.(uint)
	return v, ok && v > 0
}

func currentAccount(ctx *gin.Context) (*models.Account, bool) {
	value, exists := ctx.Get(middleware.ContextAccountKey)
	if !exists {
		return nil, false
	}
	acc, ok := value.(*models.Account)
	return acc, ok && acc != nil
}

func parseID(ctx *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || n == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid "+name)
		return 0, false
	}
	return uint(n), true
}

// respondError maps the service error taxonomy onto the response envelope.
// Anything unrecognised is logged and reported as a server error with fallbackCode.
func respondError(ctx *gin.Context, err error, fallbackCode int, fallbackMsg string) {
	var linkErr *services.InvalidLinkError
	switch {
	case errors.As(err, &linkErr):
		utils.ErrorWithData(ctx, http.StatusUnprocessableEntity, 42201, "link could not be verified", gin.H{
			"platform":    linkErr.Platform,
			"url":         linkErr.URL,
			"status_code": linkErr.StatusCode,
		})
	case errors.Is(err, services.ErrQuotaExceeded):
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "daily play limit reached, come back tomorrow")
	case errors.Is(err, services.ErrNoActiveGame):
		utils.Error(ctx, http.StatusConflict, 40910, "no active game session")
	case errors.Is(err, services.ErrAlreadyClaimed):
		utils.Error(ctx, http.StatusConflict, 40911, "reward already claimed")
	case errors.Is(err, services.ErrDuplicate):
		utils.Error(ctx, http.StatusConflict, 40912, "username or email already registered")
	case errors.Is(err, services.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40913, "account busy, please retry")
	case errors.Is(err, services.ErrReadTooShort):
		utils.Error(ctx, http.StatusUnprocessableEntity, 42202, "keep reading to earn this reward")
	case errors.Is(err, services.ErrCouponInvalid):
		utils.Error(ctx, http.StatusUnprocessableEntity, 42203, "coupon invalid or already used")
	case errors.Is(err, services.ErrInvalidInput):
		utils.Error(ctx, http.StatusBadRequest, 40002, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
	case errors.Is(err, services.ErrBadCredentials):
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid credentials")
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "not found")
	default:
		utils.Sugar.Errorw(fallbackMsg, "path", ctx.FullPath(), "err", err)
		utils.Error(ctx, http.StatusInternalServerError, fallbackCode, fallbackMsg)
	}
}
