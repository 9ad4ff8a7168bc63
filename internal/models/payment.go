package models

import "github.com/shopspring/decimal"

type PaymentKind string // Вид платежа

const (
	DepositPayment PaymentKind = "DEPOSIT" // Предоплата
	FinalPayment   PaymentKind = "FINAL"   // Окончательный расчёт
)

// EstimateRequest представляет структуру запроса на установку сметы.
type EstimateRequest struct {
	EstimatedCost decimal.NullDecimal `json:"estimatedCost"`
}

// PaymentRequest представляет структуру запроса на открытие платежа.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
