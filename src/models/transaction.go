package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeBuy  = "Buy"
	TransactionTypeSell = "Sell"
)

// Transaction is an append-only audit record for one accepted buy or sell.
// There is intentionally no update or delete path for these rows.
type Transaction struct {
	ID              uint            `db:"id"`
	UserID          uint            `db:"user_id"`
	AssetName       string          `db:"asset_name"`
	Quantity        decimal.Decimal `db:"quantity"`
	Amount          decimal.Decimal `db:"amount"`
	TransactionType string          `db:"transaction_type"`
	Category        string          `db:"category"`
	CreatedAt       time.Time       `db:"created_at"`
}
