package schemas

import "github.com/shopspring/decimal"

type HoldingResponse struct {
	AssetName  string          `json:"asset_name"`
	Quantity   decimal.Decimal `json:"quantity"`
	TotalValue decimal.Decimal `json:"total_value"`
	Category   string          `json:"category"`
}

type HoldingListResponse struct {
	Holdings []HoldingResponse `json:"holdings"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}
