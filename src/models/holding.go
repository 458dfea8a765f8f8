package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a user's aggregate position in one named asset. A holding whose
// quantity reaches zero is deleted, never stored at zero.
type Holding struct {
	ID         uint            `db:"id"`
	UserID     uint            `db:"user_id"`
	AssetName  string          `db:"asset_name"`
	Quantity   decimal.Decimal `db:"quantity"`
	TotalValue decimal.Decimal `db:"total_value"`
	Category   string          `db:"category"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}
