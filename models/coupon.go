package models

import "time"

// Coupon is an admin-issued, single-use registration code.
type Coupon struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Code      string     `gorm:"size:64;uniqueIndex;not null" json:"code"`
	PlanID    string     `gorm:"size:32;not null" json:"plan_id"`
	PlanName  string     `gorm:"size:64;not null" json:"plan_name"`
	Amount    int64      `gorm:"not null" json:"amount"`
	Used      bool       `gorm:"not null;default:false" json:"used"`
	UsedBy    string     `gorm:"size:64" json:"used_by"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
