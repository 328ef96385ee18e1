package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cppla/cashx/models"
)

// MemoryStore is a process-local Store with the same versioned commit
// semantics as GormStore. It backs tests and single-node demos.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[uint]models.Account
	txns     []models.Transaction
	coupons  map[string]models.Coupon
	articles map[uint]models.Article
	nextID   uint
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: map[uint]models.Account{},
		coupons:  map[string]models.Coupon{},
		articles: map[uint]models.Article{},
	}
}

func (m *MemoryStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) FindByID(_ context.Context, id uint) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &acc, nil
}

func (m *MemoryStore) FindByLogin(_ context.Context, login string) (*models.Account, error) {
	login = strings.TrimSpace(login)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.Username == login || acc.Email == strings.ToLower(login) {
			a := acc
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateAccount(_ context.Context, acc *models.Account, couponCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.accounts {
		if other.Username == acc.Username || other.Email == acc.Email {
			return ErrDuplicate
		}
	}
	if couponCode != "" {
		c, ok := m.coupons[couponCode]
		if !ok || c.Used {
			return ErrCouponInvalid
		}
		now := time.Now()
		c.Used, c.UsedBy, c.UsedAt = true, acc.Username, &now
		m.coupons[couponCode] = c
		acc.Plan = c.PlanName
		acc.CouponCode = c.Code
	}
	acc.ID = m.id()
	if acc.Role == "" {
		acc.Role = models.RoleUser
	}
	acc.CreatedAt = time.Now()
	acc.UpdatedAt = acc.CreatedAt
	m.accounts[acc.ID] = *acc
	return nil
}

func (m *MemoryStore) Commit(_ context.Context, acc *models.Account, txns []*models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.accounts[acc.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != acc.Version {
		return ErrConflict
	}
	acc.Version++
	acc.UpdatedAt = time.Now()
	m.accounts[acc.ID] = *acc
	for _, t := range txns {
		t.ID = m.id()
		t.AccountID = acc.ID
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now()
		}
		m.txns = append(m.txns, *t)
	}
	return nil
}

func (m *MemoryStore) HasTransaction(_ context.Context, accountID uint, source string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.txns {
		if t.AccountID == accountID && t.Source == source {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListTransactions(_ context.Context, accountID uint, page, pageSize int) ([]models.Transaction, int64, error) {
	m.mu.Lock()
	var all []models.Transaction
	for i := len(m.txns) - 1; i >= 0; i-- {
		if m.txns[i].AccountID == accountID {
			all = append(all, m.txns[i])
		}
	}
	m.mu.Unlock()
	return paginate(all, page, pageSize), int64(len(all)), nil
}

func (m *MemoryStore) NetByBucket(_ context.Context, accountID uint) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int64{}
	for _, t := range m.txns {
		if t.AccountID != accountID {
			continue
		}
		if t.Direction == models.DirectionCredit {
			out[t.Bucket] += t.Amount
		} else {
			out[t.Bucket] -= t.Amount
		}
	}
	return out, nil
}

func (m *MemoryStore) ListAccounts(_ context.Context, page, pageSize int) ([]models.Account, int64, error) {
	m.mu.Lock()
	all := make([]models.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		all = append(all, a)
	}
	m.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, page, pageSize), int64(len(all)), nil
}

func (m *MemoryStore) CreateCoupons(_ context.Context, coupons []*models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range coupons {
		if _, exists := m.coupons[c.Code]; exists {
			return ErrDuplicate
		}
	}
	for _, c := range coupons {
		c.ID = m.id()
		c.CreatedAt = time.Now()
		m.coupons[c.Code] = *c
	}
	return nil
}

func (m *MemoryStore) ListCoupons(_ context.Context, page, pageSize int) ([]models.Coupon, int64, error) {
	m.mu.Lock()
	all := make([]models.Coupon, 0, len(m.coupons))
	for _, c := range m.coupons {
		all = append(all, c)
	}
	m.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, page, pageSize), int64(len(all)), nil
}

func (m *MemoryStore) CreateArticle(_ context.Context, a *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id()
	a.CreatedAt = time.Now()
	m.articles[a.ID] = *a
	return nil
}

func (m *MemoryStore) FindArticle(_ context.Context, id uint) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MemoryStore) ListArticles(_ context.Context, page, pageSize int) ([]models.Article, int64, error) {
	m.mu.Lock()
	all := make([]models.Article, 0, len(m.articles))
	for _, a := range m.articles {
		all = append(all, a)
	}
	m.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, page, pageSize), int64(len(all)), nil
}

func paginate[T any](all []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start < 0 || start >= len(all) {
		return []T{}
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
