package schemas

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var categories = map[string]struct{}{
	"crypto": {},
	"etf":    {},
	"stocks": {},
}

// ParseCategory validates the asset category against the recognized set. The
// check is strict: free-form categories would poison the per-category breakdowns
// downstream, so unknown values are rejected up front.
func ParseCategory(raw string) (string, error) {
	if _, ok := categories[raw]; !ok {
		return "", fmt.Errorf("invalid category %q", raw)
	}
	return raw, nil
}

// NormalizeTransactionType maps "buy"/"BUY"/... onto the canonical Buy/Sell.
func NormalizeTransactionType(raw string) string {
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

type CreateTransactionRequest struct {
	AssetName       string          `json:"asset_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transaction_type"`
	Category        string          `json:"category"`
}

type TransactionResponse struct {
	Message            string          `json:"message"`
	NewBalance         decimal.Decimal `json:"new_balance"`
	NewHoldingQuantity decimal.Decimal `json:"new_holding_quantity"`
}

type TransactionRecordResponse struct {
	ID              uint            `json:"id"`
	AssetName       string          `json:"asset_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transaction_type"`
	Category        string          `json:"category"`
	CreatedAt       time.Time       `json:"created_at"`
}

type TransactionListResponse struct {
	Transactions []TransactionRecordResponse `json:"transactions"`
	Page         int                         `json:"page"`
	PageSize     int                         `json:"page_size"`
}
