package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/cashx/models"
	"github.com/cppla/cashx/utils"
)

// AccountStore is the document store every engine reads and writes through.
type AccountStore interface {
	FindByID(ctx context.Context, id uint) (*models.Account, error)
	FindByLogin(ctx context.Context, login string) (*models.Account, error)
	// CreateAccount inserts acc, consuming couponCode in the same unit of work.
	CreateAccount(ctx context.Context, acc *models.Account, couponCode string) error
	// Commit writes acc if its version is unchanged since it was read and
	// appends txns atomically. It returns ErrConflict on a lost race.
	Commit(ctx context.Context, acc *models.Account, txns []*models.Transaction) error
	HasTransaction(ctx context.Context, accountID uint, source string) (bool, error)
	ListTransactions(ctx context.Context, accountID uint, page, pageSize int) ([]models.Transaction, int64, error)
	NetByBucket(ctx context.Context, accountID uint) (map[string]int64, error)
	ListAccounts(ctx context.Context, page, pageSize int) ([]models.Account, int64, error)
}

// CouponStore persists admin-issued coupons.
type CouponStore interface {
	CreateCoupons(ctx context.Context, coupons []*models.Coupon) error
	ListCoupons(ctx context.Context, page, pageSize int) ([]models.Coupon, int64, error)
}

// ArticleStore persists readable articles.
type ArticleStore interface {
	CreateArticle(ctx context.Context, a *models.Article) error
	FindArticle(ctx context.Context, id uint) (*models.Article, error)
	ListArticles(ctx context.Context, page, pageSize int) ([]models.Article, int64, error)
}

// Store bundles every persistence concern of the service.
type Store interface {
	AccountStore
	CouponStore
	ArticleStore
}

const maxCommitAttempts = 3

// errNoChange lets a transition report that nothing needs to be persisted.
var errNoChange = errors.New("no change")

// mutateAccount runs read -> transition -> versioned write, retrying on
// ErrConflict. fn may run more than once and must only touch acc.
func mutateAccount(ctx context.Context, store AccountStore, id uint, fn func(acc *models.Account) ([]*models.Transaction, error)) (*models.Account, error) {
	for attempt := 1; ; attempt++ {
		acc, err := store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		txns, err := fn(acc)
		if errors.Is(err, errNoChange) {
			return acc, nil
		}
		if err != nil {
			return nil, err
		}
		err = store.Commit(ctx, acc, txns)
		if err == nil {
			for _, t := range txns {
				utils.ObserveReward(t.Kind, t.Amount)
			}
			return acc, nil
		}
		if !errors.Is(err, ErrConflict) || attempt >= maxCommitAttempts {
			return nil, err
		}
	}
}

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an initialised gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByID(ctx context.Context, id uint) (*models.Account, error) {
	var acc models.Account
	if err := s.db.WithContext(ctx).First(&acc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (s *GormStore) FindByLogin(ctx context.Context, login string) (*models.Account, error) {
	login = strings.TrimSpace(login)
	var acc models.Account
	if err := s.db.WithContext(ctx).Where("username = ? OR email = ?", login, strings.ToLower(login)).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (s *GormStore) CreateAccount(ctx context.Context, acc *models.Account, couponCode string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Account{}).Where("username = ? OR email = ?", acc.Username, acc.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		if couponCode != "" {
			now := time.Now()
			res := tx.Model(&models.Coupon{}).
				Where("code = ? AND used = ?", couponCode, false).
				Updates(map[string]interface{}{"used": true, "used_by": acc.Username, "used_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return ErrCouponInvalid
			}
			var c models.Coupon
			if err := tx.Where("code = ?", couponCode).First(&c).Error; err != nil {
				return err
			}
			acc.Plan = c.PlanName
			acc.CouponCode = c.Code
		}
		if err := tx.Create(acc).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicate
			}
			return err
		}
		return nil
	})
}

func (s *GormStore) Commit(ctx context.Context, acc *models.Account, txns []*models.Transaction) error {
	prev := acc.Version
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acc.Version = prev + 1
		res := tx.Model(acc).Where("version = ?", prev).Select("*").Omit("ID", "CreatedAt").Updates(acc)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		if len(txns) == 0 {
			return nil
		}
		for _, t := range txns {
			t.AccountID = acc.ID
		}
		return tx.Create(&txns).Error
	})
	if err != nil {
		acc.Version = prev
	}
	return err
}

func (s *GormStore) HasTransaction(ctx context.Context, accountID uint, source string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("account_id = ? AND source = ?", accountID, source).
		Count(&n).Error
	return n > 0, err
}

func (s *GormStore) ListTransactions(ctx context.Context, accountID uint, page, pageSize int) ([]models.Transaction, int64, error) {
	var total int64
	q := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("account_id = ?", accountID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Transaction
	err := q.Order("created_at DESC, id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error
	return items, total, err
}

func (s *GormStore) NetByBucket(ctx context.Context, accountID uint) (map[string]int64, error) {
	type row struct {
		Bucket string
		Net    int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("bucket, COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE -amount END),0) AS net", models.DirectionCredit).
		Where("account_id = ?", accountID).
		Group("bucket").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Bucket] = r.Net
	}
	return out, nil
}

func (s *GormStore) ListAccounts(ctx context.Context, page, pageSize int) ([]models.Account, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Account{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Account
	err := s.db.WithContext(ctx).Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error
	return items, total, err
}

func (s *GormStore) CreateCoupons(ctx context.Context, coupons []*models.Coupon) error {
	if len(coupons) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&coupons).Error
}

func (s *GormStore) ListCoupons(ctx context.Context, page, pageSize int) ([]models.Coupon, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Coupon{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Coupon
	err := s.db.WithContext(ctx).Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error
	return items, total, err
}

func (s *GormStore) CreateArticle(ctx context.Context, a *models.Article) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *GormStore) FindArticle(ctx context.Context, id uint) (*models.Article, error) {
	var a models.Article
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *GormStore) ListArticles(ctx context.Context, page, pageSize int) ([]models.Article, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Article{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Article
	err := s.db.WithContext(ctx).Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error
	return items, total, err
}
