package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"sepettakip_back_end/internal/database"
	"sepettakip_back_end/internal/models"
)

// ScyllaRequestStore : accès règlement aux demandes (lecture + settled_at).
type ScyllaRequestStore struct{}

func NewScyllaRequestStore() *ScyllaRequestStore {
	return &ScyllaRequestStore{}
}

func (s *ScyllaRequestStore) Get(ctx context.Context, requestID gocql.UUID) (*models.Request, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	var r models.Request
	var kind, status string
	err = session.Query(`SELECT request_id, order_id, business_id, customer_id, kind, status,
		requested_amount, approved_amount, settled_at, stripe_refund_id, created_at
		FROM order_requests WHERE request_id = ?`, requestID).WithContext(ctx).Scan(
		&r.ID, &r.OrderID, &r.BusinessID, &r.CustomerID, &kind, &status,
		&r.RequestedAmount, &r.ApprovedAmount, &r.SettledAt, &r.StripeRefundID, &r.CreatedAt)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture demande: %w", err)
	}
	r.Kind = models.RequestKind(kind)
	r.Status = models.RequestStatus(status)
	return &r, nil
}

// MarkSettled pose settled_at via une transaction légère : la condition
// IF settled_at = null garantit qu'une demande déjà réglée n'est pas réglée
// une seconde fois, même sous appels concurrents.
func (s *ScyllaRequestStore) MarkSettled(ctx context.Context, requestID gocql.UUID, at time.Time) (bool, *time.Time, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, nil, err
	}

	previous := map[string]interface{}{}
	applied, err := session.Query(`UPDATE order_requests SET settled_at = ? WHERE request_id = ? IF settled_at = null`,
		at, requestID).WithContext(ctx).MapScanCAS(previous)
	if err != nil {
		return false, nil, fmt.Errorf("réservation settled_at: %w", err)
	}
	if applied {
		return true, nil, nil
	}

	var settledAt *time.Time
	if ts, ok := previous["settled_at"].(time.Time); ok && !ts.IsZero() {
		settledAt = &ts
	}
	return false, settledAt, nil
}

// UnmarkSettled remet settled_at à null, conditionnellement à l'horodatage
// posé par ce règlement. La condition évite d'effacer le settled_at d'un
// règlement concurrent qui aurait abouti entre temps.
func (s *ScyllaRequestStore) UnmarkSettled(ctx context.Context, requestID gocql.UUID, at time.Time) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	previous := map[string]interface{}{}
	applied, err := session.Query(`UPDATE order_requests SET settled_at = null WHERE request_id = ? IF settled_at = ?`,
		requestID, at).WithContext(ctx).MapScanCAS(previous)
	if err != nil {
		return fmt.Errorf("libération settled_at: %w", err)
	}
	if !applied {
		return fmt.Errorf("libération settled_at non appliquée pour %s", requestID)
	}
	return nil
}

func (s *ScyllaRequestStore) SetStripeRefund(ctx context.Context, requestID gocql.UUID, stripeRefundID string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`UPDATE order_requests SET stripe_refund_id = ?, updated_at = ? WHERE request_id = ?`,
		stripeRefundID, time.Now(), requestID).WithContext(ctx).Exec()
}

// ScyllaEntryStore persiste les écritures de règlement.
type ScyllaEntryStore struct{}

func NewScyllaEntryStore() *ScyllaEntryStore {
	return &ScyllaEntryStore{}
}

func (s *ScyllaEntryStore) Insert(ctx context.Context, entry *models.SettlementEntry) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`INSERT INTO settlement_entries (entry_id, request_id, order_id, amount,
		currency, payment_intent_id, stripe_refund_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.RequestID, entry.OrderID, entry.Amount, entry.Currency,
		entry.PaymentIntentID, entry.StripeRefundID, entry.CreatedAt,
	).WithContext(ctx).Exec()
}
