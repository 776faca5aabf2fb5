package models

import (
	"time"

	"github.com/gocql/gocql"
)

// StatusRule définit si l'annulation est autorisée pour un statut de commande
// donné, et avec quels frais.
type StatusRule struct {
	AllowCancellation         bool    `json:"allow_cancellation"`
	CancellationFeePercentage float64 `json:"cancellation_fee_percentage"`
}

// FeeTier est un palier de frais d'annulation basé sur le temps écoulé depuis
// la création de la commande. MaxMinutes à nil = palier ouvert.
type FeeTier struct {
	MinMinutes    int     `json:"min_minutes"`
	MaxMinutes    *int    `json:"max_minutes,omitempty"`
	FeePercentage float64 `json:"fee_percentage"`
}

// ProductRule définit si une catégorie de produits est remboursable.
type ProductRule struct {
	Refundable bool `json:"refundable"`
}

// RefundPolicy est la politique d'annulation/remboursement configurée par un
// commerçant. Au plus une politique active par business (invariant garanti à
// l'écriture par le PolicyStore).
type RefundPolicy struct {
	ID         gocql.UUID `json:"id" db:"policy_id"`
	BusinessID gocql.UUID `json:"business_id" db:"business_id"`
	Name       string     `json:"name" db:"name"`
	IsActive   bool       `json:"is_active" db:"is_active"`

	// Fenêtre d'auto-approbation : minutes pour une annulation,
	// jours pour un remboursement. nil = jamais d'auto-approbation.
	AutoApproveTimeline *int `json:"auto_approve_timeline,omitempty" db:"auto_approve_timeline"`

	// Limite dure (en jours depuis la livraison) au-delà de laquelle toute
	// demande de remboursement est refusée. nil = pas de limite.
	TimeLimitDays *int `json:"time_limit_days,omitempty" db:"time_limit_days"`

	OrderStatusRules map[OrderStatus]StatusRule `json:"order_status_rules,omitempty"`
	CancellationFees []FeeTier                  `json:"cancellation_fees,omitempty"`
	ProductRules     map[string]ProductRule     `json:"product_rules,omitempty"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
