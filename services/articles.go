package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/cashx/config"
	"github.com/cppla/cashx/models"
	"github.com/cppla/cashx/utils"
)

type ArticleInput struct {
	Title         string
	Description   string
	BodyHTML      string
	CoverImageURL string
	RewardAmount  int64
}

// ArticleView is an article as seen by one reader.
type ArticleView struct {
	models.Article
	CanEarn        bool `json:"can_earn"`
	MinReadSeconds int  `json:"min_read_seconds"`
}

type ArticleClaimResult struct {
	ArticleID        uint  `json:"article_id"`
	Reward           int64 `json:"reward"`
	TaskBalance      int64 `json:"task_balance"`
	SpendableBalance int64 `json:"spendable_balance"`
}

// ArticleService pays a one-time reward for reading an article long enough.
type ArticleService struct {
	articles ArticleStore
	accounts AccountStore
	ledger   *Ledger
	timer    ReadTimer
	clock    DayResolver
	cfg      config.RewardConfig
	log      *zap.Logger
}

func NewArticleService(articles ArticleStore, accounts AccountStore, ledger *Ledger, timer ReadTimer, clock DayResolver, cfg config.RewardConfig, logger *zap.Logger) *ArticleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleService{articles: articles, accounts: accounts, ledger: ledger, timer: timer, clock: clock, cfg: cfg, log: logger}
}

func articleSource(id uint) string { return fmt.Sprintf("article:%d", id) }

// Create stores a new article with a sanitised body.
func (s *ArticleService) Create(ctx context.Context, in ArticleInput) (*models.Article, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	if in.RewardAmount < 0 {
		return nil, fmt.Errorf("%w: negative reward", ErrInvalidInput)
	}
	reward := in.RewardAmount
	if reward == 0 {
		reward = s.cfg.ArticleDefaultReward
	}
	a := &models.Article{
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		BodyHTML:      utils.Sanitize(in.BodyHTML),
		CoverImageURL: strings.TrimSpace(in.CoverImageURL),
		RewardAmount:  reward,
	}
	if err := s.articles.CreateArticle(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ArticleService) List(ctx context.Context, page, pageSize int) ([]models.Article, int64, error) {
	return s.articles.ListArticles(ctx, page, pageSize)
}

// Open returns the article and starts the read countdown when it can still pay.
func (s *ArticleService) Open(ctx context.Context, accountID, articleID uint) (*ArticleView, error) {
	a, err := s.articles.FindArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	claimed, err := s.accounts.HasTransaction(ctx, accountID, articleSource(articleID))
	if err != nil {
		return nil, err
	}
	view := &ArticleView{Article: *a, CanEarn: !claimed, MinReadSeconds: s.cfg.ArticleMinReadSeconds}
	if view.CanEarn {
		if err := s.timer.Start(ctx, accountID, articleID); err != nil {
			s.log.Warn("read timer start failed", zap.Uint("article_id", articleID), zap.Error(err))
		}
	}
	return view, nil
}

// Claim credits the article reward once per account after the minimum read time.
func (s *ArticleService) Claim(ctx context.Context, accountID, articleID uint) (*ArticleClaimResult, error) {
	a, err := s.articles.FindArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	elapsed, opened, err := s.timer.Since(ctx, accountID, articleID)
	if err != nil {
		return nil, err
	}
	if !opened || elapsed < time.Duration(s.cfg.ArticleMinReadSeconds)*time.Second {
		return nil, ErrReadTooShort
	}

	today := s.clock.Today(ctx)
	source := articleSource(articleID)
	acc, err := mutateAccount(ctx, s.accounts, accountID, func(acc *models.Account) ([]*models.Transaction, error) {
		claimed, err := s.accounts.HasTransaction(ctx, acc.ID, source)
		if err != nil {
			return nil, err
		}
		if claimed {
			return nil, ErrAlreadyClaimed
		}
		txn, err := s.ledger.Credit(acc, Entry{
			Kind:        models.KindTask,
			Bucket:      models.BucketTask,
			Amount:      a.RewardAmount,
			Source:      source,
			Description: "Read: " + a.Title,
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
	s.log.Info("article reward credited", zap.Uint("account_id", accountID), zap.Uint("article_id", articleID))
	return &ArticleClaimResult{
		ArticleID:        articleID,
		Reward:           a.RewardAmount,
		TaskBalance:      acc.TaskBalance,
		SpendableBalance: acc.SpendableBalance,
	}, nil
}
