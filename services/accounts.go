package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/cashx/models"
	"github.com/cppla/cashx/utils"
)

// RegisterInput carries the validated registration form.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Phone      string
	Password   string
	CouponCode string
	Country    string
	Referrer   string
}

// AccountService owns registration, login and read-only account views.
type AccountService struct {
	store AccountStore
	log   *zap.Logger
}

func NewAccountService(store AccountStore, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{store: store, log: logger}
}

// Register creates an account with zero balances, consuming the coupon.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	code := strings.ToUpper(strings.TrimSpace(in.CouponCode))
	if code == "" {
		return nil, ErrCouponInvalid
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = "NG"
	}
	referrer := strings.TrimSpace(in.Referrer)
	if referrer == "" {
		referrer = models.DefaultReferrer
	}
	username := strings.TrimSpace(in.Username)
	acc := &models.Account{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		Country:      country,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Referrer:     referrer,
		ReferralCode: username,
	}
	if err := s.store.CreateAccount(ctx, acc, code); err != nil {
		return nil, err
	}
	s.log.Info("account registered", zap.Uint("account_id", acc.ID), zap.String("plan", acc.Plan), zap.String("referrer", acc.Referrer))
	return acc, nil
}

// Login verifies the password and rotates the session fingerprint, which
// invalidates every credential issued before.
func (s *AccountService) Login(ctx context.Context, login, password string) (*models.Account, error) {
	acc, err := s.store.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(acc.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	return mutateAccount(ctx, s.store, acc.ID, func(acc *models.Account) ([]*models.Transaction, error) {
		acc.SessionFingerprint = uuid.NewString()
		return nil, nil
	})
}

func (s *AccountService) Get(ctx context.Context, id uint) (*models.Account, error) {
	return s.store.FindByID(ctx, id)
}

func (s *AccountService) Transactions(ctx context.Context, id uint, page, pageSize int) ([]models.Transaction, int64, error) {
	return s.store.ListTransactions(ctx, id, page, pageSize)
}

func (s *AccountService) List(ctx context.Context, page, pageSize int) ([]models.Account, int64, error) {
	return s.store.ListAccounts(ctx, page, pageSize)
}
