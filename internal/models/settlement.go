package models

import (
	"time"

	"github.com/gocql/gocql"
)

// SettlementEntry est l'écriture financière inverse créée pour un
// remboursement approuvé. Amount est négatif pour un remboursement.
// Exactement une entrée par demande (idempotence garantie par le
// SettlementProcessor).
type SettlementEntry struct {
	ID              gocql.UUID `json:"id" db:"entry_id"`
	RequestID       gocql.UUID `json:"request_id" db:"request_id"`
	OrderID         gocql.UUID `json:"order_id" db:"order_id"`
	Amount          float64    `json:"amount" db:"amount"`
	Currency        string     `json:"currency" db:"currency"`
	PaymentIntentID string     `json:"payment_intent_id" db:"payment_intent_id"`
	StripeRefundID  string     `json:"stripe_refund_id,omitempty" db:"stripe_refund_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}
