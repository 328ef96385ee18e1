package models

import "time"

const (
	KindCheckin = "checkin"
	KindGame    = "game"
	KindTask    = "task"

	DirectionCredit = "credit"
	DirectionDebit  = "debit"

	BucketSpendable = "spendable"
	BucketTask      = "task"
)

// Transaction is an immutable ledger line owned by one account.
type Transaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AccountID   uint      `gorm:"index:idx_tx_account_source;not null" json:"account_id"`
	Kind        string    `gorm:"size:16;not null" json:"kind"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Direction   string    `gorm:"size:8;not null" json:"direction"`
	Bucket      string    `gorm:"size:16;not null" json:"bucket"`
	Source      string    `gorm:"size:64;index:idx_tx_account_source" json:"source"`
	Description string    `gorm:"size:255" json:"description"`
	DateKey     string    `gorm:"size:10" json:"date_key"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
