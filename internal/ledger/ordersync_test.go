package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/gocql/gocql"

	"sepettakip_back_end/internal/models"
)

func syncOrder(status models.OrderStatus, total float64) *models.Order {
	return &models.Order{
		ID:         gocql.TimeUUID(),
		Status:     status,
		TotalPrice: total,
		CreatedAt:  time.Now().Add(-time.Hour),
	}
}

func TestApplyRejetNeMutePasLaCommande(t *testing.T) {
	order := syncOrder(models.OrderStatusDelivered, 50)
	orders := newFakeOrders(order)
	sync := NewOrderStateSync(orders)

	req := &models.Request{Kind: models.RequestKindRefund, Status: models.RequestStatusRejected}
	status, err := sync.Apply(context.Background(), order, req, time.Now())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if status != models.OrderStatusDelivered {
		t.Fatalf("statut inchangé attendu, obtenu %s", status)
	}
	if len(orders.statusWrites) != 0 {
		t.Fatal("aucune écriture de statut attendue pour un rejet")
	}
}

func TestApplyAnnulationApprouvee(t *testing.T) {
	order := syncOrder(models.OrderStatusPending, 50)
	orders := newFakeOrders(order)
	sync := NewOrderStateSync(orders)
	now := time.Now()

	req := &models.Request{Kind: models.RequestKindCancellation, Status: models.RequestStatusApproved}
	status, err := sync.Apply(context.Background(), order, req, now)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if status != models.OrderStatusCancelled {
		t.Fatalf("cancelled attendu, obtenu %s", status)
	}
	if order.CancelledAt == nil || !order.CancelledAt.Equal(now) {
		t.Fatalf("cancelledAt doit être posé à l'instant de la décision, obtenu %v", order.CancelledAt)
	}
}

func TestApplyRemboursementComplet(t *testing.T) {
	order := syncOrder(models.OrderStatusDelivered, 50)
	orders := newFakeOrders(order)
	sync := NewOrderStateSync(orders)

	req := &models.Request{
		Kind:           models.RequestKindRefund,
		Status:         models.RequestStatusAutoApproved,
		ApprovedAmount: floatPtr(50),
	}
	status, err := sync.Apply(context.Background(), order, req, time.Now())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if status != models.OrderStatusRefunded {
		t.Fatalf("refunded attendu, obtenu %s", status)
	}
}

func TestApplyRemboursementPartiel(t *testing.T) {
	order := syncOrder(models.OrderStatusDelivered, 50)
	orders := newFakeOrders(order)
	sync := NewOrderStateSync(orders)

	req := &models.Request{
		Kind:           models.RequestKindRefund,
		Status:         models.RequestStatusPartialApproved,
		ApprovedAmount: floatPtr(20),
	}
	status, err := sync.Apply(context.Background(), order, req, time.Now())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if status != models.OrderStatusPartiallyRefunded {
		t.Fatalf("partially_refunded attendu, obtenu %s", status)
	}
	if order.CancelledAt != nil {
		t.Fatal("cancelledAt réservé aux annulations")
	}
}
