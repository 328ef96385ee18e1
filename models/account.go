package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// DefaultReferrer attributes sign-ups that arrive without a referral code.
	DefaultReferrer = "admin"
)

// Account is the single document every reward engine reads and writes.
// Balances are minor currency units. Version backs optimistic concurrency.
type Account struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Username           string         `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email              string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName           string         `gorm:"size:128" json:"full_name"`
	Phone              string         `gorm:"size:32" json:"phone"`
	Country            string         `gorm:"size:8;default:'NG'" json:"country"`
	PasswordHash       string         `gorm:"size:255" json:"-"`
	Role               string         `gorm:"size:16;default:'user'" json:"role"`
	Plan               string         `gorm:"size:64" json:"plan"`
	CouponCode         string         `gorm:"size:64" json:"coupon_code"`
	Referrer           string         `gorm:"size:64;default:'admin'" json:"referrer"`
	ReferralCode       string         `gorm:"size:64;index" json:"referral_code"`
	SpendableBalance   int64          `gorm:"not null;default:0" json:"spendable_balance"`
	TaskBalance        int64          `gorm:"not null;default:0" json:"task_balance"`
	DailyEarnings      int64          `gorm:"not null;default:0" json:"daily_earnings"`
	Streak             StreakState    `gorm:"embedded;embeddedPrefix:streak_" json:"streak"`
	Game               GameState      `gorm:"embedded;embeddedPrefix:game_" json:"game"`
	Social             SocialLinks    `gorm:"embedded;embeddedPrefix:social_" json:"social"`
	SessionFingerprint string         `gorm:"size:64" json:"-"`
	Version            int64          `gorm:"not null;default:0" json:"-"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// StreakState tracks daily check-in continuity. LastCheckinDate is a
// YYYY-MM-DD key in the reference timezone, empty before the first check-in.
type StreakState struct {
	Current         int    `gorm:"not null;default:0" json:"current"`
	LastCheckinDate string `gorm:"size:10" json:"last_checkin_date"`
	Year            int    `json:"year"`
	Month           int    `json:"month"`
	DaysThisMonth   int    `gorm:"not null;default:0" json:"days_this_month"`
	EarnedThisMonth int64  `gorm:"not null;default:0" json:"earned_this_month"`
	TotalCheckins   int    `gorm:"not null;default:0" json:"total_checkins"`
	LongestStreak   int    `gorm:"not null;default:0" json:"longest_streak"`
}

// GameState holds the lazily rolled daily quota of the matching game.
type GameState struct {
	LastPlayDate    string `gorm:"size:10" json:"last_play_date"`
	PlaysToday      int    `gorm:"not null;default:0" json:"plays_today"`
	EarnedToday     int64  `gorm:"not null;default:0" json:"earned_today"`
	ActiveSessionID string `gorm:"size:64" json:"-"`
}

// SocialLinks are write-once: a field is set only while empty.
type SocialLinks struct {
	FacebookLink  string `gorm:"size:512" json:"facebook_link"`
	InstagramLink string `gorm:"size:128" json:"instagram_link"`
	TiktokLink    string `gorm:"size:128" json:"tiktok_link"`
	TwitterLink   string `gorm:"size:128" json:"twitter_link"`
	WhatsappLink  string `gorm:"size:32" json:"whatsapp_link"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Role == "" {
		a.Role = RoleUser
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (a *Account) BeforeUpdate(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}
