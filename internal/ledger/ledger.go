package ledger

import (
	"context"
	"math"
	"time"

	"github.com/gocql/gocql"

	"sepettakip_back_end/internal/models"
	"sepettakip_back_end/internal/policy"
)

// PolicySource fournit la politique active d'un business (nil si aucune).
type PolicySource interface {
	ActivePolicy(ctx context.Context, businessID gocql.UUID) (*models.RefundPolicy, error)
}

// OrderStore lit les commandes et écrit leurs statuts terminaux.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID gocql.UUID) (*models.Order, error)
	// SetTerminalStatus est la seule voie d'écriture des statuts cancelled,
	// refunded et partially_refunded.
	SetTerminalStatus(ctx context.Context, order *models.Order, status models.OrderStatus, at time.Time) error
}

// ActiveClaim est la réservation d'une commande par une demande active.
type ActiveClaim struct {
	RequestID gocql.UUID
	Status    models.RequestStatus
}

// RequestStore persiste les demandes et porte l'invariant "une seule demande
// active par commande" via la réservation ClaimOrder.
type RequestStore interface {
	// ClaimOrder tente de réserver la commande pour une nouvelle demande de
	// façon atomique (LWT). Retourne la réservation existante si la commande
	// est déjà prise, nil si la réservation a réussi.
	ClaimOrder(ctx context.Context, orderID, requestID gocql.UUID, status models.RequestStatus) (*ActiveClaim, error)
	// ReleaseOrder libère la réservation (uniquement après un rejet).
	ReleaseOrder(ctx context.Context, orderID gocql.UUID) error
	UpdateClaimStatus(ctx context.Context, orderID gocql.UUID, status models.RequestStatus) error

	Insert(ctx context.Context, req *models.Request) error
	Get(ctx context.Context, requestID gocql.UUID) (*models.Request, error)
	UpdateDecision(ctx context.Context, req *models.Request) error
}

// RequestLedger orchestre la soumission et la décision des demandes
// d'annulation/remboursement. C'est lui qui invoque l'évaluateur de politique
// et qui garantit qu'une demande refusée n'est jamais persistée.
type RequestLedger struct {
	policies PolicySource
	orders   OrderStore
	requests RequestStore
	sync     *OrderStateSync
}

func NewRequestLedger(policies PolicySource, orders OrderStore, requests RequestStore) *RequestLedger {
	return &RequestLedger{
		policies: policies,
		orders:   orders,
		requests: requests,
		sync:     NewOrderStateSync(orders),
	}
}

// SubmitInput porte les champs d'une soumission client ou admin.
type SubmitInput struct {
	OrderID       gocql.UUID
	ActorID       string
	IsAdmin       bool
	Kind          models.RequestKind
	Reason        string
	OtherReason   string
	CustomerNotes string
	// Remboursement uniquement
	RequestedAmount float64
	Items           []string
	EvidenceURLs    []string
}

// Submit crée une demande après validation et évaluation de la politique.
// Erreurs possibles : NotFoundError, ValidationError, ConflictError,
// PolicyDenialError.
func (l *RequestLedger) Submit(ctx context.Context, in SubmitInput, now time.Time) (*models.Request, error) {
	order, err := l.orders.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &models.NotFoundError{Resource: "Commande"}
	}

	if !in.IsAdmin && order.CustomerID != in.ActorID {
		return nil, &models.ValidationError{Field: "actor", Message: "Cette commande ne vous appartient pas"}
	}

	if !models.IsValidReason(in.Kind, in.Reason) {
		return nil, &models.ValidationError{Field: "reason", Message: "Motif non reconnu"}
	}

	switch in.Kind {
	case models.RequestKindRefund:
		if order.Status != models.OrderStatusDelivered {
			return nil, &models.ValidationError{Field: "order_status", Message: "Seule une commande livrée peut être remboursée"}
		}
		if in.RequestedAmount <= 0 || in.RequestedAmount > order.TotalPrice {
			return nil, &models.ValidationError{Field: "refund_amount", Message: "Montant de remboursement invalide"}
		}
	case models.RequestKindCancellation:
		if order.Status.IsTerminal() {
			return nil, &models.ValidationError{Field: "order_status", Message: "Cette commande est déjà clôturée"}
		}
		if order.Status == models.OrderStatusDelivered {
			return nil, &models.ValidationError{Field: "order_status", Message: "Commande déjà livrée : passez par une demande de remboursement"}
		}
	default:
		return nil, &models.ValidationError{Field: "kind", Message: "Type de demande inconnu"}
	}

	pol, err := l.policies.ActivePolicy(ctx, order.BusinessID)
	if err != nil {
		return nil, err
	}

	dec := policy.Evaluate(pol, order, in.Kind, now, in.RequestedAmount, in.Items)

	// Une demande refusée d'office par la politique n'est jamais persistée,
	// même pas en pending.
	if !dec.Allowed {
		return nil, &models.PolicyDenialError{Reason: dec.Reason}
	}

	req := &models.Request{
		ID:                   gocql.TimeUUID(),
		OrderID:              order.ID,
		BusinessID:           order.BusinessID,
		CustomerID:           order.CustomerID,
		Kind:                 in.Kind,
		Status:               models.RequestStatusPending,
		Reason:               in.Reason,
		OtherReason:          in.OtherReason,
		CustomerNotes:        in.CustomerNotes,
		FeePercentage:        dec.FeePercentage,
		FlaggedNonRefundable: dec.NonRefundableCategory,
		Items:                in.Items,
		EvidenceURLs:         in.EvidenceURLs,
		CreatedAt:            now,
	}

	if in.Kind == models.RequestKindRefund {
		req.RequestedAmount = in.RequestedAmount
	} else {
		req.CancellationFee = roundCents(dec.FeeAmount)
	}

	if dec.AutoApprove {
		req.Status = models.RequestStatusAutoApproved
		req.AutoProcessed = true
		if dec.ApprovedAmount != nil {
			amount := roundCents(*dec.ApprovedAmount)
			req.ApprovedAmount = &amount
		}
	}

	// Section critique : la réservation LWT rejette la deuxième soumission
	// concurrente avec la demande existante, jamais un doublon silencieux.
	existing, err := l.requests.ClaimOrder(ctx, order.ID, req.ID, req.Status)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &models.ConflictError{ExistingID: existing.RequestID, ExistingStatus: existing.Status}
	}

	// Le statut terminal de la commande est écrit avant la demande terminale :
	// aucun lecteur ne peut voir une demande approuvée sans son effet sur la
	// commande.
	if req.Status.IsTerminal() {
		if _, err := l.sync.Apply(ctx, order, req, now); err != nil {
			l.requests.ReleaseOrder(ctx, order.ID)
			return nil, err
		}
	}

	if err := l.requests.Insert(ctx, req); err != nil {
		l.requests.ReleaseOrder(ctx, order.ID)
		return nil, err
	}

	return req, nil
}

// DecideInput porte la décision manuelle d'un commerçant ou d'un admin.
// AmountOrFee est optionnel : montant accordé pour un remboursement (permet
// une approbation partielle), frais retenus pour une annulation.
type DecideInput struct {
	RequestID       gocql.UUID
	ActorBusinessID string
	IsAdmin         bool
	Approve         bool
	BusinessNotes   string
	AmountOrFee     *float64
}

// Decide applique la décision manuelle sur une demande pending.
func (l *RequestLedger) Decide(ctx context.Context, in DecideInput, now time.Time) (*models.Request, error) {
	req, err := l.requests.Get(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &models.NotFoundError{Resource: "Demande"}
	}

	// Un commerçant ne décide que sur les demandes de son propre commerce.
	if !in.IsAdmin && in.ActorBusinessID != req.BusinessID.String() {
		return nil, &models.ValidationError{Field: "actor", Message: "Cette demande ne concerne pas votre commerce"}
	}

	// Les demandes terminales sont immuables.
	if req.Status.IsTerminal() {
		return nil, &models.InvalidStateError{Message: "Cette demande a déjà été traitée"}
	}

	req.BusinessNotes = in.BusinessNotes
	req.UpdatedAt = &now

	if !in.Approve {
		req.Status = models.RequestStatusRejected
		if err := l.requests.UpdateDecision(ctx, req); err != nil {
			return nil, err
		}
		// Un rejet libère la commande pour une nouvelle demande. Aucune
		// mutation de la commande.
		if err := l.requests.ReleaseOrder(ctx, req.OrderID); err != nil {
			return nil, err
		}
		return req, nil
	}

	order, err := l.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &models.NotFoundError{Resource: "Commande"}
	}

	switch req.Kind {
	case models.RequestKindRefund:
		amount := req.RequestedAmount
		if in.AmountOrFee != nil {
			amount = *in.AmountOrFee
		}
		if amount <= 0 || amount > order.TotalPrice {
			return nil, &models.ValidationError{Field: "approved_amount", Message: "Montant accordé invalide"}
		}
		amount = roundCents(amount)
		req.ApprovedAmount = &amount
		if amount < req.RequestedAmount {
			req.Status = models.RequestStatusPartialApproved
		} else {
			req.Status = models.RequestStatusApproved
		}
	case models.RequestKindCancellation:
		if in.AmountOrFee != nil {
			if *in.AmountOrFee < 0 || *in.AmountOrFee > order.TotalPrice {
				return nil, &models.ValidationError{Field: "cancellation_fee", Message: "Frais d'annulation invalides"}
			}
			req.CancellationFee = roundCents(*in.AmountOrFee)
		}
		req.Status = models.RequestStatusApproved
	}

	// Même ordre que Submit : commande d'abord, demande ensuite.
	if _, err := l.sync.Apply(ctx, order, req, now); err != nil {
		return nil, err
	}

	if err := l.requests.UpdateDecision(ctx, req); err != nil {
		return nil, err
	}
	if err := l.requests.UpdateClaimStatus(ctx, req.OrderID, req.Status); err != nil {
		return nil, err
	}

	return req, nil
}

// roundCents arrondit au centime. Utilisé uniquement au moment de persister :
// l'évaluation garde la précision complète.
func roundCents(x float64) float64 {
	return math.Round(x*100) / 100
}
