package models

import (
	"time"

	"github.com/gocql/gocql"
)

type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusProcessing        OrderStatus = "processing"
	OrderStatusPreparing         OrderStatus = "preparing"
	OrderStatusReady             OrderStatus = "ready"
	OrderStatusInTransit         OrderStatus = "in_transit"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusRefunded          OrderStatus = "refunded"
	OrderStatusPartiallyRefunded OrderStatus = "partially_refunded"
)

// IsTerminal indique si la commande a atteint un état final
// (plus aucune annulation ni remboursement possible dessus via une nouvelle demande).
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusRefunded, OrderStatusPartiallyRefunded:
		return true
	}
	return false
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusPreparing,
		OrderStatusReady, OrderStatusInTransit, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusRefunded, OrderStatusPartiallyRefunded:
		return true
	}
	return false
}

type Order struct {
	ID              gocql.UUID  `json:"id" db:"order_id"`
	BusinessID      gocql.UUID  `json:"business_id" db:"business_id"`
	CustomerID      string      `json:"customer_id" db:"customer_id"`
	Status          OrderStatus `json:"status" db:"status"`
	TotalPrice      float64     `json:"total_price" db:"total_price"`
	PaymentIntentID string      `json:"payment_intent_id,omitempty" db:"payment_intent_id"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	DeliveredAt     *time.Time  `json:"delivered_at,omitempty" db:"delivered_at"`
	CancelledAt     *time.Time  `json:"cancelled_at,omitempty" db:"cancelled_at"`
	UpdatedAt       *time.Time  `json:"updated_at,omitempty" db:"updated_at"`
}
