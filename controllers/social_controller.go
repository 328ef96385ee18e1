package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

// SocialController links external profiles for a one-time reward.
type SocialController struct {
	social *services.SocialEngine
}

func NewSocialController(social *services.SocialEngine) *SocialController {
	return &SocialController{social: social}
}

type linkSocialRequest struct {
	Platform string `json:"platform" binding:"required,platform"`
	Value    string `json:"value" binding:"required,max=512"`
}

// RegisterValidators installs the custom binding tags used by request types.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		return services.IsPlatform(fl.Field().String())
	})
}

func (s *SocialController) Link(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var req linkSocialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "platform and value are required")
		return
	}
	res, err := s.social.Link(ctx.Request.Context(), userID, services.Platform(req.Platform), req.Value)
	if err != nil {
		respondError(ctx, err, 50050, "failed to link profile")
		return
	}
	utils.Success(ctx, res)
}
