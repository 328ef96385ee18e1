package models

import "time"

// Article is a readable piece that pays RewardAmount once per account.
type Article struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Description   string    `gorm:"size:512" json:"description"`
	BodyHTML      string    `gorm:"type:text" json:"body_html"`
	CoverImageURL string    `gorm:"size:1024" json:"cover_image_url"`
	RewardAmount  int64     `gorm:"not null" json:"reward_amount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
