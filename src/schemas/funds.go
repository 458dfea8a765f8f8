package schemas

import "github.com/shopspring/decimal"

type FundsRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type FundsResponse struct {
	Amount decimal.Decimal `json:"amount"`
}
