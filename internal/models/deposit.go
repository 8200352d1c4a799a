package models

import "time"

type Deposit struct {
	UserID      string `gorm:"primaryKey"`
	Amount      int
	DefendCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}
