package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a user's cash float. Balance never goes below zero; the
// transaction engine enforces that, not the schema.
type Account struct {
	ID        uint            `db:"id"`
	UserID    uint            `db:"user_id"`
	Balance   decimal.Decimal `db:"balance"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}
