package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/cashx/config"
	"github.com/cppla/cashx/controllers"
	"github.com/cppla/cashx/middleware"
	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

// Deps are the wired services the HTTP layer needs.
type Deps struct {
	Issuer   *utils.TokenIssuer
	Guard    *services.SessionGuard
	Ledger   *services.Ledger
	Accounts *services.AccountService
	Streaks  *services.StreakEngine
	Games    *services.GameEngine
	Social   *services.SocialEngine
	Articles *services.ArticleService
	Coupons  *services.CouponService
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, d Deps) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	if err := controllers.RegisterValidators(); err != nil {
		utils.Sugar.Errorf("register validators: %v", err)
	}

	r := gin.New()
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(utils.MetricsHandler()))

	authController := controllers.NewAuthController(d.Accounts, d.Issuer, cfg)
	checkinController := controllers.NewCheckinController(d.Streaks)
	gameController := controllers.NewGameController(d.Games)
	socialController := controllers.NewSocialController(d.Social)
	articleController := controllers.NewArticleController(d.Articles)
	accountController := controllers.NewAccountController(d.Accounts, d.Streaks, d.Games)
	adminController := controllers.NewAdminController(d.Accounts, d.Coupons, d.Articles, d.Ledger)
	notificationController := controllers.NewNotificationController(cfg, d.Streaks, d.Games)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	authRequired := middleware.AuthRequired(d.Issuer, d.Guard)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(limiter.Middleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", authRequired, authController.Logout)
	authGroup.GET("/me", authRequired, authController.Me)

	api.POST("/admin/login", limiter.Middleware(), authController.AdminLogin)

	api.GET("/articles", articleController.List)

	protected := api.Group("")
	protected.Use(authRequired, limiter.Middleware())
	protected.GET("/notifications", notificationController.List)

	user := protected.Group("")
	user.Use(middleware.RequireAccount())
	user.GET("/dashboard", accountController.Dashboard)
	user.GET("/transactions", accountController.Transactions)
	user.GET("/checkin", checkinController.Preview)
	user.POST("/checkin", checkinController.Checkin)
	user.GET("/game", gameController.State)
	user.POST("/game/start", gameController.Start)
	user.POST("/game/finish", gameController.Finish)
	user.POST("/social/link", socialController.Link)
	user.GET("/articles/:id", articleController.Get)
	user.POST("/articles/:id/claim", articleController.Claim)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/users", adminController.ListUsers)
	admin.GET("/users/:id", adminController.ReviewUser)
	admin.POST("/coupons", adminController.IssueCoupons)
	admin.GET("/coupons", adminController.ListCoupons)
	admin.POST("/articles", adminController.CreateArticle)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
