package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/cppla/cashx/config"
	"github.com/cppla/cashx/models"
	"github.com/cppla/cashx/routes"
	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	rc := utils.InitRedis(cfg)
	db, err := config.OpenDatabase(cfg, zap.NewStdLog(utils.Logger.Named("gorm")),
		&models.Account{}, &models.Transaction{}, &models.Coupon{}, &models.Article{})
	if err != nil {
		utils.Sugar.Fatalw("database unavailable", "err", err)
	}
	store := services.NewGormStore(db)

	rw := cfg.Rewards
	logger := utils.Logger
	oracle := services.NewHTTPTimeOracle(rw.TimeOracleURL, rw.TimeOracleField, time.Duration(rw.TimeOracleTimeoutSec)*time.Second)
	clock := services.NewClock(oracle, rw.Location(), logger.Named("clock"))
	ledger := services.NewLedger(store)
	prober := services.NewHTTPProber(rw.SocialUserAgent, time.Duration(rw.SocialProbeTimeoutSec)*time.Second)

	r := routes.SetupRouter(cfg, routes.Deps{
		Issuer:   utils.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour),
		Guard:    services.NewSessionGuard(store, cfg.AdminUsernames),
		Ledger:   ledger,
		Accounts: services.NewAccountService(store, logger.Named("accounts")),
		Streaks:  services.NewStreakEngine(store, clock, ledger, rw, logger.Named("streak")),
		Games:    services.NewGameEngine(store, clock, ledger, rw, logger.Named("game")),
		Social:   services.NewSocialEngine(store, clock, ledger, prober, rw, logger.Named("social")),
		Articles: services.NewArticleService(store, store, ledger, services.NewReadTimer(rc), clock, rw, logger.Named("articles")),
		Coupons:  services.NewCouponService(store, logger.Named("coupons")),
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
