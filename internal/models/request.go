package models

import (
	"time"

	"github.com/gocql/gocql"
)

type RequestKind string

const (
	RequestKindCancellation RequestKind = "cancellation"
	RequestKindRefund       RequestKind = "refund"
)

type RequestStatus string

const (
	RequestStatusPending         RequestStatus = "pending"
	RequestStatusApproved        RequestStatus = "approved"
	RequestStatusAutoApproved    RequestStatus = "auto_approved"
	RequestStatusPartialApproved RequestStatus = "partial_approved"
	RequestStatusRejected        RequestStatus = "rejected"
)

// IsTerminal : une demande ne transitionne qu'une seule fois depuis pending.
func (s RequestStatus) IsTerminal() bool {
	return s != RequestStatusPending
}

// IsActive : une demande active bloque toute nouvelle demande sur la même
// commande. Seul un rejet libère la commande.
func (s RequestStatus) IsActive() bool {
	return s != RequestStatusRejected
}

// IsApproved couvre les trois issues approuvées (manuelle, auto, partielle).
func (s RequestStatus) IsApproved() bool {
	switch s {
	case RequestStatusApproved, RequestStatusAutoApproved, RequestStatusPartialApproved:
		return true
	}
	return false
}

// Motifs reconnus côté client. Toute autre valeur est rejetée à la soumission.
var cancellationReasons = map[string]bool{
	"changed_mind":      true,
	"delivery_too_long": true,
	"wrong_address":     true,
	"duplicate_order":   true,
	"price_issue":       true,
	"other":             true,
}

var refundReasons = map[string]bool{
	"damaged_item":  true,
	"wrong_item":    true,
	"missing_items": true,
	"quality_issue": true,
	"late_delivery": true,
	"other":         true,
}

// IsValidReason vérifie qu'un motif appartient à l'énumération du type de
// demande.
func IsValidReason(kind RequestKind, reason string) bool {
	if kind == RequestKindRefund {
		return refundReasons[reason]
	}
	return cancellationReasons[reason]
}

// Request est une demande d'annulation ou de remboursement. Une seule demande
// active par commande (invariant garanti par le RequestLedger).
type Request struct {
	ID         gocql.UUID    `json:"id" db:"request_id"`
	OrderID    gocql.UUID    `json:"order_id" db:"order_id"`
	BusinessID gocql.UUID    `json:"business_id" db:"business_id"`
	CustomerID string        `json:"customer_id" db:"customer_id"`
	Kind       RequestKind   `json:"kind" db:"kind"`
	Status     RequestStatus `json:"status" db:"status"`

	Reason        string `json:"reason" db:"reason"`
	OtherReason   string `json:"other_reason,omitempty" db:"other_reason"`
	CustomerNotes string `json:"customer_notes,omitempty" db:"customer_notes"`
	BusinessNotes string `json:"business_notes,omitempty" db:"business_notes"`

	// Remboursement : montant demandé par le client, montant accordé une fois
	// la demande résolue. Annulation : frais retenus.
	RequestedAmount float64  `json:"requested_amount,omitempty" db:"requested_amount"`
	ApprovedAmount  *float64 `json:"approved_amount,omitempty" db:"approved_amount"`
	CancellationFee float64  `json:"cancellation_fee,omitempty" db:"cancellation_fee"`
	FeePercentage   float64  `json:"fee_percentage,omitempty" db:"fee_percentage"`

	AutoProcessed bool `json:"auto_processed" db:"auto_processed"`

	// Catégorie non remboursable détectée par la politique. Purement
	// informatif : ne bloque pas la demande.
	// TODO(produit): décision en attente sur le blocage effectif des
	// catégories non remboursables.
	FlaggedNonRefundable bool `json:"flagged_non_refundable,omitempty" db:"flagged_non_refundable"`

	Items        []string `json:"items,omitempty" db:"items"`
	EvidenceURLs []string `json:"evidence_urls,omitempty" db:"evidence_urls"`

	StripeRefundID string     `json:"stripe_refund_id,omitempty" db:"stripe_refund_id"`
	SettledAt      *time.Time `json:"settled_at,omitempty" db:"settled_at"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
