package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/cashx/config"
	"github.com/cppla/cashx/models"
)

// GameQuota reports the daily play counters after lazy rollover.
type GameQuota struct {
	DateKey        string `json:"date_key"`
	PlaysToday     int    `json:"plays_today"`
	MaxPlaysPerDay int    `json:"max_plays_per_day"`
	PlaysLeft      int    `json:"plays_left"`
	EarnedToday    int64  `json:"earned_today"`
}

// GameLimits are the rules a client plays by.
type GameLimits struct {
	TimeLimitSec int   `json:"time_limit_sec"`
	MovesLimit   int   `json:"moves_limit"`
	TargetScore  int   `json:"target_score"`
	RewardPerWin int64 `json:"reward_per_win"`
}

type GameStateView struct {
	Quota         GameQuota  `json:"quota"`
	Limits        GameLimits `json:"limits"`
	SessionActive bool       `json:"session_active"`
	TaskBalance   int64      `json:"task_balance"`
}

type GameStartResult struct {
	SessionID  string     `json:"session_id"`
	Board      Board      `json:"board"`
	CandyTypes int        `json:"candy_types"`
	Limits     GameLimits `json:"limits"`
	Quota      GameQuota  `json:"quota"`
}

type GameFinishResult struct {
	Win           bool      `json:"win"`
	Score         int       `json:"score"`
	TargetScore   int       `json:"target_score"`
	Reward        int64     `json:"reward"`
	Quota         GameQuota `json:"quota"`
	TaskBalance   int64     `json:"task_balance"`
	DailyEarnings int64     `json:"daily_earnings"`
}

// GameEngine runs the time-boxed matching game and its daily quota.
type GameEngine struct {
	store  AccountStore
	clock  DayResolver
	ledger *Ledger
	cfg    config.RewardConfig
	log    *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewGameEngine(store AccountStore, clock DayResolver, ledger *Ledger, cfg config.RewardConfig, logger *zap.Logger) *GameEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameEngine{
		store:  store,
		clock:  clock,
		ledger: ledger,
		cfg:    cfg,
		log:    logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// rolloverGame resets the counters when the stored day is not today.
func rolloverGame(g *models.GameState, dateKey string) {
	if g.LastPlayDate != dateKey {
		g.LastPlayDate = dateKey
		g.PlaysToday = 0
		g.EarnedToday = 0
	}
}

func (e *GameEngine) quota(g models.GameState) GameQuota {
	left := e.cfg.GameMaxPlaysPerDay - g.PlaysToday
	if left < 0 {
		left = 0
	}
	return GameQuota{
		DateKey:        g.LastPlayDate,
		PlaysToday:     g.PlaysToday,
		MaxPlaysPerDay: e.cfg.GameMaxPlaysPerDay,
		PlaysLeft:      left,
		EarnedToday:    g.EarnedToday,
	}
}

func (e *GameEngine) limits() GameLimits {
	return GameLimits{
		TimeLimitSec: e.cfg.GameTimeLimitSec,
		MovesLimit:   e.cfg.GameMovesLimit,
		TargetScore:  e.cfg.GameTargetScore,
		RewardPerWin: e.cfg.GameRewardPerWin,
	}
}

// State reports today's quota. The rollover is applied to the view only.
func (e *GameEngine) State(ctx context.Context, accountID uint) (*GameStateView, error) {
	acc, err := e.store.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	today := e.clock.Today(ctx)
	rolloverGame(&acc.Game, today.DateKey)
	return &GameStateView{
		Quota:         e.quota(acc.Game),
		Limits:        e.limits(),
		SessionActive: acc.Game.ActiveSessionID != "",
		TaskBalance:   acc.TaskBalance,
	}, nil
}

// Start consumes one play and deals a fresh board.
func (e *GameEngine) Start(ctx context.Context, accountID uint) (*GameStartResult, error) {
	today := e.clock.Today(ctx)
	acc, err := mutateAccount(ctx, e.store, accountID, func(acc *models.Account) ([]*models.Transaction, error) {
		rolloverGame(&acc.Game, today.DateKey)
		if acc.Game.PlaysToday >= e.cfg.GameMaxPlaysPerDay {
			return nil, ErrQuotaExceeded
		}
		acc.Game.PlaysToday++
		acc.Game.ActiveSessionID = uuid.NewString()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	board := GenerateBoard(e.rng, e.cfg.GameBoardWidth, e.cfg.GameCandyTypes)
	e.mu.Unlock()

	e.log.Info("game started",
		zap.Uint("account_id", accountID),
		zap.String("date_key", today.DateKey),
		zap.Int("plays_today", acc.Game.PlaysToday))
	return &GameStartResult{
		SessionID:  acc.Game.ActiveSessionID,
		Board:      board,
		CandyTypes: e.cfg.GameCandyTypes,
		Limits:     e.limits(),
		Quota:      e.quota(acc.Game),
	}, nil
}

// clampScore applies the non-negative floor and, when configured, the
// moves x max-points-per-move ceiling.
func (e *GameEngine) clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if e.cfg.GameMaxPointsPerMove > 0 {
		if ceiling := e.cfg.GameMovesLimit * e.cfg.GameMaxPointsPerMove; score > ceiling {
			return ceiling
		}
	}
	return score
}

// Finish closes the open session with a client-reported score and credits
// the win reward when score reaches the target.
func (e *GameEngine) Finish(ctx context.Context, accountID uint, sessionID string, score int) (*GameFinishResult, error) {
	today := e.clock.Today(ctx)
	score = e.clampScore(score)
	win := score >= e.cfg.GameTargetScore
	acc, err := mutateAccount(ctx, e.store, accountID, func(acc *models.Account) ([]*models.Transaction, error) {
		rolloverGame(&acc.Game, today.DateKey)
		if acc.Game.ActiveSessionID == "" || acc.Game.ActiveSessionID != sessionID {
			return nil, ErrNoActiveGame
		}
		acc.Game.ActiveSessionID = ""
		if !win {
			return nil, nil
		}
		txn, err := e.ledger.Credit(acc, Entry{
			Kind:        models.KindGame,
			Bucket:      models.BucketTask,
			Amount:      e.cfg.GameRewardPerWin,
			Source:      "candy_game",
			Description: fmt.Sprintf("Candy game win, score %d", score),
			DateKey:     today.DateKey,
		})
		if err != nil {
			return nil, err
		}
		acc.Game.EarnedToday += e.cfg.GameRewardPerWin
		acc.DailyEarnings += e.cfg.GameRewardPerWin
		return []*models.Transaction{txn}, nil
	})
	if err != nil {
		return nil, err
	}

	res := &GameFinishResult{
		Win:           win,
		Score:         score,
		TargetScore:   e.cfg.GameTargetScore,
		Quota:         e.quota(acc.Game),
		TaskBalance:   acc.TaskBalance,
		DailyEarnings: acc.DailyEarnings,
	}
	if win {
		res.Reward = e.cfg.GameRewardPerWin
		e.log.Info("game win credited", zap.Uint("account_id", accountID), zap.Int("score", score))
	}
	return res, nil
}
