package ledger

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"sepettakip_back_end/internal/database"
	"sepettakip_back_end/internal/models"
)

// ScyllaOrderStore lit/écrit les commandes dans le keyspace orders.
type ScyllaOrderStore struct{}

func NewScyllaOrderStore() *ScyllaOrderStore {
	return &ScyllaOrderStore{}
}

func (s *ScyllaOrderStore) GetOrder(ctx context.Context, orderID gocql.UUID) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	var o models.Order
	err = session.Query(`SELECT order_id, business_id, customer_id, status, total_price,
		payment_intent_id, created_at, delivered_at, cancelled_at, updated_at
		FROM orders WHERE order_id = ?`, orderID).WithContext(ctx).Scan(
		&o.ID, &o.BusinessID, &o.CustomerID, &o.Status, &o.TotalPrice,
		&o.PaymentIntentID, &o.CreatedAt, &o.DeliveredAt, &o.CancelledAt, &o.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture commande: %w", err)
	}
	return &o, nil
}

func (s *ScyllaOrderStore) SetTerminalStatus(ctx context.Context, order *models.Order, status models.OrderStatus, at time.Time) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	var cancelledAt *time.Time
	if status == models.OrderStatusCancelled {
		cancelledAt = &at
	}

	if err := session.Query(`UPDATE orders SET status = ?, cancelled_at = ?, updated_at = ? WHERE order_id = ?`,
		status, cancelledAt, at, order.ID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("mise à jour commande: %w", err)
	}

	// Table dénormalisée pour les listes côté client
	if err := session.Query(`UPDATE orders_by_customer SET status = ? WHERE customer_id = ? AND order_id = ?`,
		status, order.CustomerID, order.ID).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Mise à jour orders_by_customer %s: %v", order.ID, err)
	}
	return nil
}

// ScyllaRequestStore persiste les demandes et la table de réservation
// active_request_by_order.
type ScyllaRequestStore struct{}

func NewScyllaRequestStore() *ScyllaRequestStore {
	return &ScyllaRequestStore{}
}

// ClaimOrder réserve la commande via une transaction légère. La clé primaire
// de active_request_by_order est order_id : une seule réservation possible,
// la deuxième insertion concurrente n'est pas appliquée et retourne la ligne
// existante.
func (s *ScyllaRequestStore) ClaimOrder(ctx context.Context, orderID, requestID gocql.UUID, status models.RequestStatus) (*ActiveClaim, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	previous := map[string]interface{}{}
	applied, err := session.Query(`INSERT INTO active_request_by_order (order_id, request_id, status)
		VALUES (?, ?, ?) IF NOT EXISTS`, orderID, requestID, string(status)).
		WithContext(ctx).MapScanCAS(previous)
	if err != nil {
		return nil, fmt.Errorf("réservation commande: %w", err)
	}
	if applied {
		return nil, nil
	}

	claim := &ActiveClaim{}
	if id, ok := previous["request_id"].(gocql.UUID); ok {
		claim.RequestID = id
	}
	if st, ok := previous["status"].(string); ok {
		claim.Status = models.RequestStatus(st)
	}
	return claim, nil
}

func (s *ScyllaRequestStore) ReleaseOrder(ctx context.Context, orderID gocql.UUID) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM active_request_by_order WHERE order_id = ?`, orderID).
		WithContext(ctx).Exec()
}

func (s *ScyllaRequestStore) UpdateClaimStatus(ctx context.Context, orderID gocql.UUID, status models.RequestStatus) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`UPDATE active_request_by_order SET status = ? WHERE order_id = ?`,
		string(status), orderID).WithContext(ctx).Exec()
}

func (s *ScyllaRequestStore) Insert(ctx context.Context, req *models.Request) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`INSERT INTO order_requests (request_id, order_id, business_id, customer_id,
		kind, status, reason, other_reason, customer_notes, business_notes, requested_amount,
		approved_amount, cancellation_fee, fee_percentage, auto_processed, flagged_non_refundable,
		items, evidence_urls, stripe_refund_id, settled_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.OrderID, req.BusinessID, req.CustomerID, string(req.Kind), string(req.Status),
		req.Reason, req.OtherReason, req.CustomerNotes, req.BusinessNotes, req.RequestedAmount,
		req.ApprovedAmount, req.CancellationFee, req.FeePercentage, req.AutoProcessed,
		req.FlaggedNonRefundable, req.Items, req.EvidenceURLs, req.StripeRefundID,
		req.SettledAt, req.CreatedAt, req.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (s *ScyllaRequestStore) Get(ctx context.Context, requestID gocql.UUID) (*models.Request, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	var r models.Request
	var kind, status string
	err = session.Query(`SELECT request_id, order_id, business_id, customer_id, kind, status,
		reason, other_reason, customer_notes, business_notes, requested_amount, approved_amount,
		cancellation_fee, fee_percentage, auto_processed, flagged_non_refundable, items,
		evidence_urls, stripe_refund_id, settled_at, created_at, updated_at
		FROM order_requests WHERE request_id = ?`, requestID).WithContext(ctx).Scan(
		&r.ID, &r.OrderID, &r.BusinessID, &r.CustomerID, &kind, &status,
		&r.Reason, &r.OtherReason, &r.CustomerNotes, &r.BusinessNotes, &r.RequestedAmount,
		&r.ApprovedAmount, &r.CancellationFee, &r.FeePercentage, &r.AutoProcessed,
		&r.FlaggedNonRefundable, &r.Items, &r.EvidenceURLs, &r.StripeRefundID,
		&r.SettledAt, &r.CreatedAt, &r.UpdatedAt)
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

func (s *ScyllaRequestStore) UpdateDecision(ctx context.Context, req *models.Request) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`UPDATE order_requests SET status = ?, business_notes = ?,
		approved_amount = ?, cancellation_fee = ?, updated_at = ? WHERE request_id = ?`,
		string(req.Status), req.BusinessNotes, req.ApprovedAmount, req.CancellationFee,
		req.UpdatedAt, req.ID).WithContext(ctx).Exec()
}

// ListByCustomer retourne les demandes d'un client.
func (s *ScyllaRequestStore) ListByCustomer(ctx context.Context, customerID string) ([]models.Request, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}
	iter := session.Query(`SELECT request_id, order_id, business_id, customer_id, kind, status,
		reason, requested_amount, approved_amount, cancellation_fee, auto_processed,
		stripe_refund_id, settled_at, created_at, updated_at
		FROM order_requests WHERE customer_id = ? ALLOW FILTERING`, customerID).
		WithContext(ctx).Iter()
	return scanRequests(iter)
}

// ListAll retourne toutes les demandes (admin).
func (s *ScyllaRequestStore) ListAll(ctx context.Context) ([]models.Request, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}
	iter := session.Query(`SELECT request_id, order_id, business_id, customer_id, kind, status,
		reason, requested_amount, approved_amount, cancellation_fee, auto_processed,
		stripe_refund_id, settled_at, created_at, updated_at
		FROM order_requests`).WithContext(ctx).Iter()
	return scanRequests(iter)
}

func scanRequests(iter *gocql.Iter) ([]models.Request, error) {
	var requests []models.Request
	var r models.Request
	var kind, status string

	for iter.Scan(&r.ID, &r.OrderID, &r.BusinessID, &r.CustomerID, &kind, &status,
		&r.Reason, &r.RequestedAmount, &r.ApprovedAmount, &r.CancellationFee, &r.AutoProcessed,
		&r.StripeRefundID, &r.SettledAt, &r.CreatedAt, &r.UpdatedAt) {
		r.Kind = models.RequestKind(kind)
		r.Status = models.RequestStatus(status)
		requests = append(requests, r)
		r = models.Request{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return requests, nil
}
