package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cppla/cashx/config"
	"github.com/cppla/cashx/models"
)

// CheckinResult is what both the preview and the commit report.
type CheckinResult struct {
	DateKey          string `json:"date_key"`
	Streak           int    `json:"streak"`
	Reward           int64  `json:"reward"`
	IsBonus          bool   `json:"is_bonus"`
	AlreadyCheckedIn bool   `json:"already_checked_in"`
	DaysThisMonth    int    `json:"days_this_month"`
	EarnedThisMonth  int64  `json:"earned_this_month"`
	TaskBalance      int64  `json:"task_balance"`
	SpendableBalance int64  `json:"spendable_balance"`
}

// StreakEngine decides check-in eligibility, continuity and bonus cadence.
type StreakEngine struct {
	store  AccountStore
	clock  DayResolver
	ledger *Ledger
	cfg    config.RewardConfig
	log    *zap.Logger
}

func NewStreakEngine(store AccountStore, clock DayResolver, ledger *Ledger, cfg config.RewardConfig, logger *zap.Logger) *StreakEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreakEngine{store: store, clock: clock, ledger: ledger, cfg: cfg, log: logger}
}

// StreakReward is the bonus for every positive multiple of bonusEvery, else base.
func StreakReward(streak int, cfg config.RewardConfig) int64 {
	if streak > 0 && streak%cfg.CheckinBonusEvery == 0 {
		return cfg.CheckinBonusReward
	}
	return cfg.CheckinBaseReward
}

type checkinTransition struct {
	already    bool
	streak     int
	reward     int64
	bonus      bool
	monthReset bool
}

func planCheckin(s models.StreakState, today Today, cfg config.RewardConfig) checkinTransition {
	samePeriod := s.Year == today.Year && s.Month == today.Month
	if s.LastCheckinDate == today.DateKey && samePeriod {
		return checkinTransition{already: true, streak: s.Current}
	}
	streak := 1
	if samePeriod && s.LastCheckinDate != "" && s.LastCheckinDate == previousDateKey(today.DateKey) {
		streak = s.Current + 1
	}
	reward := StreakReward(streak, cfg)
	return checkinTransition{
		streak:     streak,
		reward:     reward,
		bonus:      streak%cfg.CheckinBonusEvery == 0,
		monthReset: !samePeriod,
	}
}

func (t checkinTransition) apply(s *models.StreakState, today Today) {
	if t.already {
		return
	}
	if t.monthReset {
		s.DaysThisMonth = 0
		s.EarnedThisMonth = 0
	}
	s.Current = t.streak
	s.LastCheckinDate = today.DateKey
	s.Year = today.Year
	s.Month = today.Month
	s.DaysThisMonth++
	s.EarnedThisMonth += t.reward
	s.TotalCheckins++
	if s.Current > s.LongestStreak {
		s.LongestStreak = s.Current
	}
}

func (e *StreakEngine) result(acc *models.Account, today Today, t checkinTransition) *CheckinResult {
	return &CheckinResult{
		DateKey:          today.DateKey,
		Streak:           t.streak,
		Reward:           t.reward,
		IsBonus:          t.bonus,
		AlreadyCheckedIn: t.already,
		DaysThisMonth:    acc.Streak.DaysThisMonth,
		EarnedThisMonth:  acc.Streak.EarnedThisMonth,
		TaskBalance:      acc.TaskBalance,
		SpendableBalance: acc.SpendableBalance,
	}
}

// Preview computes the transition a check-in would make right now without
// persisting or crediting anything.
func (e *StreakEngine) Preview(ctx context.Context, accountID uint) (*CheckinResult, error) {
	acc, err := e.store.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	today := e.clock.Today(ctx)
	t := planCheckin(acc.Streak, today, e.cfg)
	t.apply(&acc.Streak, today)
	res := e.result(acc, today, t)
	// balances stay as stored
	return res, nil
}

// Checkin commits today's check-in. A second call on the same day is a no-op.
func (e *StreakEngine) Checkin(ctx context.Context, accountID uint) (*CheckinResult, error) {
	today := e.clock.Today(ctx)
	var t checkinTransition
	acc, err := mutateAccount(ctx, e.store, accountID, func(acc *models.Account) ([]*models.Transaction, error) {
		t = planCheckin(acc.Streak, today, e.cfg)
		if t.already {
			return nil, errNoChange
		}
		t.apply(&acc.Streak, today)
		txn, err := e.ledger.Credit(acc, Entry{
			Kind:        models.KindCheckin,
			Bucket:      models.BucketTask,
			Amount:      t.reward,
			Source:      "daily_checkin",
			Description: fmt.Sprintf("Daily check-in, day %d streak", t.streak),
			DateKey:     today.DateKey,
		})
		if err != nil {
			return nil, err
		}
		return []*models.Transaction{txn}, nil
	})
	if err != nil {
		return nil, err
	}
	if !t.already {
		e.log.Info("check-in credited",
			zap.Uint("account_id", accountID),
			zap.String("date_key", today.DateKey),
			zap.Int("streak", t.streak),
			zap.Int64("reward", t.reward))
	}
	return e.result(acc, today, t), nil
}
