package dto

import "github.com/shopspring/decimal"

type OrderLine struct {
	ProductID uint  `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CreateOrderRequest struct {
	Lines            []OrderLine `json:"lines"`
	RecipientName    string      `json:"recipient_name"`
	RecipientPhone   string      `json:"recipient_phone"`
	AddressLine      string      `json:"address_line"`
	City             string      `json:"city"`
	Region           string      `json:"region"`
	PaymentMethod    string      `json:"payment_method"`
	PaymentReference string      `json:"payment_reference"`
}

type ShipItemRequest struct {
	TrackingCode string `json:"tracking_code"`
	Carrier      string `json:"carrier"`
}

type VerifyPaymentRequest struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference"`
}

type ReviewRequest struct {
	ReviewID    uint   `json:"review_id"`
	ProductName string `json:"product_name"`
	Rating      int    `json:"rating"`
}

type AdjustPointsRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

type ProcessPayoutRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
}

type ConfirmPayoutRequest struct {
	Method    string `json:"method"`
	Reference string `json:"reference"`
}
