package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/cashx/models"
)

const maxCouponBatch = 100

type IssueCouponInput struct {
	PlanID   string
	PlanName string
	Amount   int64
	Count    int
}

// CouponService issues single-use registration coupons.
type CouponService struct {
	store CouponStore
	log   *zap.Logger
}

func NewCouponService(store CouponStore, logger *zap.Logger) *CouponService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CouponService{store: store, log: logger}
}

func newCouponCode() string {
	return "CX-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func (s *CouponService) Issue(ctx context.Context, in IssueCouponInput) ([]*models.Coupon, error) {
	if in.Count <= 0 {
		in.Count = 1
	}
	if in.Count > maxCouponBatch || in.Amount <= 0 || strings.TrimSpace(in.PlanID) == "" {
		return nil, fmt.Errorf("%w: coupon batch", ErrInvalidInput)
	}
	planName := strings.TrimSpace(in.PlanName)
	if planName == "" {
		planName = in.PlanID
	}
	out := make([]*models.Coupon, 0, in.Count)
	for i := 0; i < in.Count; i++ {
		out = append(out, &models.Coupon{
			Code:     newCouponCode(),
			PlanID:   strings.TrimSpace(in.PlanID),
			PlanName: planName,
			Amount:   in.Amount,
		})
	}
	if err := s.store.CreateCoupons(ctx, out); err != nil {
		return nil, err
	}
	s.log.Info("coupons issued", zap.String("plan", in.PlanID), zap.Int("count", len(out)))
	return out, nil
}

func (s *CouponService) List(ctx context.Context, page, pageSize int) ([]models.Coupon, int64, error) {
	return s.store.ListCoupons(ctx, page, pageSize)
}
