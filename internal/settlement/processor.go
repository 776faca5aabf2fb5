package settlement

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/gocql/gocql"

	"sepettakip_back_end/internal/models"
)

// RequestStore : vue du processeur sur les demandes.
type RequestStore interface {
	Get(ctx context.Context, requestID gocql.UUID) (*models.Request, error)
	// MarkSettled pose settled_at de façon atomique (LWT). applied=false avec
	// le settled_at existant si la demande était déjà réglée.
	MarkSettled(ctx context.Context, requestID gocql.UUID, at time.Time) (applied bool, settledAt *time.Time, err error)
	// UnmarkSettled libère la réservation settled_at posée par MarkSettled,
	// conditionnellement à l'horodatage posé. Appelé uniquement tant qu'aucun
	// remboursement Stripe n'a été créé : la demande redevient réglable.
	UnmarkSettled(ctx context.Context, requestID gocql.UUID, at time.Time) error
	SetStripeRefund(ctx context.Context, requestID gocql.UUID, stripeRefundID string) error
}

// EntryStore persiste les écritures de règlement.
type EntryStore interface {
	Insert(ctx context.Context, entry *models.SettlementEntry) error
}

// OrderStore : lecture seule, pour retrouver le moyen de paiement d'origine.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID gocql.UUID) (*models.Order, error)
}

// PaymentGateway crée le remboursement inverse chez le prestataire de
// paiement. Retourne l'identifiant du remboursement distant.
type PaymentGateway interface {
	Refund(ctx context.Context, paymentIntentID string, amountCents int64) (string, error)
}

// Processor convertit une demande de remboursement approuvée en exactement une
// écriture inverse. Idempotent par demande : le second appel échoue avec
// AlreadySettledError sans créer de doublon.
type Processor struct {
	requests RequestStore
	entries  EntryStore
	orders   OrderStore
	gateway  PaymentGateway
	currency string
}

func NewProcessor(requests RequestStore, entries EntryStore, orders OrderStore, gateway PaymentGateway) *Processor {
	return &Processor{
		requests: requests,
		entries:  entries,
		orders:   orders,
		gateway:  gateway,
		currency: "eur",
	}
}

// Settle règle une demande de remboursement approuvée.
// Erreurs possibles : NotFoundError, InvalidStateError, AlreadySettledError.
func (p *Processor) Settle(ctx context.Context, requestID gocql.UUID, now time.Time) (*models.SettlementEntry, error) {
	req, err := p.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &models.NotFoundError{Resource: "Demande"}
	}

	if req.Kind != models.RequestKindRefund {
		return nil, &models.InvalidStateError{Message: "Seule une demande de remboursement peut être réglée"}
	}
	if !req.Status.IsApproved() {
		return nil, &models.InvalidStateError{Message: "La demande n'est pas dans un état approuvé"}
	}
	if req.ApprovedAmount == nil {
		return nil, &models.InvalidStateError{Message: "Aucun montant accordé sur la demande"}
	}

	// Réserver settled_at avant l'appel Stripe : un retry après crash retombe
	// sur AlreadySettledError au lieu de créer une seconde écriture.
	applied, settledAt, err := p.requests.MarkSettled(ctx, requestID, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		when := now
		if settledAt != nil {
			when = *settledAt
		}
		return nil, &models.AlreadySettledError{RequestID: requestID, SettledAt: when}
	}

	order, err := p.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		p.release(ctx, requestID, now)
		return nil, err
	}
	if order == nil {
		p.release(ctx, requestID, now)
		return nil, &models.NotFoundError{Resource: "Commande"}
	}

	amountCents := int64(math.Round(*req.ApprovedAmount * 100))
	stripeRefundID, err := p.gateway.Refund(ctx, order.PaymentIntentID, amountCents)
	if err != nil {
		// Aucun remboursement créé : libérer la réservation pour qu'un retry
		// puisse régler la demande au lieu de tomber sur AlreadySettledError.
		p.release(ctx, requestID, now)
		return nil, err
	}

	// À partir d'ici l'argent est parti chez Stripe : la réservation n'est plus
	// jamais libérée, sinon un retry créerait un second remboursement.
	if err := p.requests.SetStripeRefund(ctx, requestID, stripeRefundID); err != nil {
		log.Printf("⚠️ Enregistrement stripe_refund_id sur %s: %v", requestID, err)
	}

	entry := &models.SettlementEntry{
		ID:              gocql.TimeUUID(),
		RequestID:       req.ID,
		OrderID:         req.OrderID,
		Amount:          -*req.ApprovedAmount,
		Currency:        p.currency,
		PaymentIntentID: order.PaymentIntentID,
		StripeRefundID:  stripeRefundID,
		CreatedAt:       now,
	}
	if err := p.entries.Insert(ctx, entry); err != nil {
		log.Printf("❌ Écriture de règlement perdue pour %s (Stripe: %s, montant: %.2f): %v",
			requestID, stripeRefundID, entry.Amount, err)
		return nil, err
	}

	log.Printf("💰 Règlement effectué: demande %s, montant %.2f (Stripe: %s)",
		requestID, entry.Amount, stripeRefundID)
	return entry, nil
}

// release rend la demande réglable après un échec survenu avant la création du
// remboursement Stripe. Un échec de libération est seulement loggé : la
// demande reste bloquée mais aucun argent n'a bougé.
func (p *Processor) release(ctx context.Context, requestID gocql.UUID, at time.Time) {
	if err := p.requests.UnmarkSettled(ctx, requestID, at); err != nil {
		log.Printf("⚠️ Libération settled_at sur %s: %v", requestID, err)
	}
}
