package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gocql/gocql"

	"sepettakip_back_end/internal/models"
)

type fakeRequests struct {
	rows map[gocql.UUID]*models.Request
}

func newFakeRequests(reqs ...*models.Request) *fakeRequests {
	f := &fakeRequests{rows: make(map[gocql.UUID]*models.Request)}
	for _, r := range reqs {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeRequests) Get(_ context.Context, requestID gocql.UUID) (*models.Request, error) {
	return f.rows[requestID], nil
}

func (f *fakeRequests) MarkSettled(_ context.Context, requestID gocql.UUID, at time.Time) (bool, *time.Time, error) {
	req := f.rows[requestID]
	if req.SettledAt != nil {
		return false, req.SettledAt, nil
	}
	req.SettledAt = &at
	return true, nil, nil
}

func (f *fakeRequests) UnmarkSettled(_ context.Context, requestID gocql.UUID, at time.Time) error {
	req := f.rows[requestID]
	if req.SettledAt != nil && req.SettledAt.Equal(at) {
		req.SettledAt = nil
	}
	return nil
}

func (f *fakeRequests) SetStripeRefund(_ context.Context, requestID gocql.UUID, stripeRefundID string) error {
	f.rows[requestID].StripeRefundID = stripeRefundID
	return nil
}

type fakeEntries struct {
	entries []*models.SettlementEntry
}

func (f *fakeEntries) Insert(_ context.Context, entry *models.SettlementEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeOrders struct {
	orders map[gocql.UUID]*models.Order
}

func newFakeOrders(orders ...*models.Order) *fakeOrders {
	f := &fakeOrders{orders: make(map[gocql.UUID]*models.Order)}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) GetOrder(_ context.Context, orderID gocql.UUID) (*models.Order, error) {
	return f.orders[orderID], nil
}

type fakeGateway struct {
	calls   int
	lastPI  string
	lastAmt int64
	fail    error
}

func (f *fakeGateway) Refund(_ context.Context, paymentIntentID string, amountCents int64) (string, error) {
	f.calls++
	f.lastPI = paymentIntentID
	f.lastAmt = amountCents
	if f.fail != nil {
		return "", f.fail
	}
	return "re_test_123", nil
}

func floatPtr(v float64) *float64 { return &v }

func approvedRefund(amount float64) (*models.Request, *models.Order) {
	order := &models.Order{
		ID:              gocql.TimeUUID(),
		Status:          models.OrderStatusRefunded,
		TotalPrice:      amount,
		PaymentIntentID: "pi_test_456",
	}
	req := &models.Request{
		ID:              gocql.TimeUUID(),
		OrderID:         order.ID,
		Kind:            models.RequestKindRefund,
		Status:          models.RequestStatusApproved,
		RequestedAmount: amount,
		ApprovedAmount:  floatPtr(amount),
	}
	return req, order
}

func TestSettleCreeUneEcritureInverse(t *testing.T) {
	req, order := approvedRefund(45.67)
	requests := newFakeRequests(req)
	entries := &fakeEntries{}
	gateway := &fakeGateway{}
	p := NewProcessor(requests, entries, newFakeOrders(order), gateway)

	entry, err := p.Settle(context.Background(), req.ID, time.Now())
	if err != nil {
		t.Fatalf("règlement: %v", err)
	}

	if len(entries.entries) != 1 {
		t.Fatalf("exactement une écriture attendue, obtenu %d", len(entries.entries))
	}
	if entry.Amount != -45.67 {
		t.Fatalf("montant inverse -45.67 attendu, obtenu %v", entry.Amount)
	}
	if entry.PaymentIntentID != "pi_test_456" {
		t.Fatalf("l'écriture doit référencer le paiement d'origine, obtenu %q", entry.PaymentIntentID)
	}
	if gateway.lastAmt != 4567 {
		t.Fatalf("4567 centimes attendus côté Stripe, obtenu %d", gateway.lastAmt)
	}
	if entry.StripeRefundID != "re_test_123" {
		t.Fatalf("identifiant Stripe manquant sur l'écriture: %q", entry.StripeRefundID)
	}
}

func TestSettleSecondAppelIdempotent(t *testing.T) {
	req, order := approvedRefund(50)
	requests := newFakeRequests(req)
	entries := &fakeEntries{}
	gateway := &fakeGateway{}
	p := NewProcessor(requests, entries, newFakeOrders(order), gateway)

	if _, err := p.Settle(context.Background(), req.ID, time.Now()); err != nil {
		t.Fatalf("premier règlement: %v", err)
	}

	_, err := p.Settle(context.Background(), req.ID, time.Now())

	var already *models.AlreadySettledError
	if !errors.As(err, &already) {
		t.Fatalf("AlreadySettledError attendue, obtenu %v", err)
	}
	if len(entries.entries) != 1 {
		t.Fatalf("le second appel ne doit pas créer de doublon, obtenu %d écritures", len(entries.entries))
	}
	if gateway.calls != 1 {
		t.Fatalf("un seul appel Stripe attendu, obtenu %d", gateway.calls)
	}
}

func TestSettleRefuseUneAnnulation(t *testing.T) {
	req, order := approvedRefund(50)
	req.Kind = models.RequestKindCancellation
	p := NewProcessor(newFakeRequests(req), &fakeEntries{}, newFakeOrders(order), &fakeGateway{})

	_, err := p.Settle(context.Background(), req.ID, time.Now())

	var invalid *models.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("InvalidStateError attendue, obtenu %v", err)
	}
}

func TestSettleRefuseUneDemandeEnAttente(t *testing.T) {
	req, order := approvedRefund(50)
	req.Status = models.RequestStatusPending
	p := NewProcessor(newFakeRequests(req), &fakeEntries{}, newFakeOrders(order), &fakeGateway{})

	_, err := p.Settle(context.Background(), req.ID, time.Now())

	var invalid *models.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("InvalidStateError attendue, obtenu %v", err)
	}
}

func TestSettleRefuseSansMontantAccorde(t *testing.T) {
	req, order := approvedRefund(50)
	req.ApprovedAmount = nil
	p := NewProcessor(newFakeRequests(req), &fakeEntries{}, newFakeOrders(order), &fakeGateway{})

	_, err := p.Settle(context.Background(), req.ID, time.Now())

	var invalid *models.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("InvalidStateError attendue, obtenu %v", err)
	}
}

func TestSettleDemandeIntrouvable(t *testing.T) {
	p := NewProcessor(newFakeRequests(), &fakeEntries{}, newFakeOrders(), &fakeGateway{})

	_, err := p.Settle(context.Background(), gocql.TimeUUID(), time.Now())

	var notFound *models.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("NotFoundError attendue, obtenu %v", err)
	}
}

func TestSettleEchecStripeSansEcriture(t *testing.T) {
	req, order := approvedRefund(50)
	entries := &fakeEntries{}
	gateway := &fakeGateway{fail: errors.New("stripe indisponible")}
	p := NewProcessor(newFakeRequests(req), entries, newFakeOrders(order), gateway)

	_, err := p.Settle(context.Background(), req.ID, time.Now())
	if err == nil {
		t.Fatal("erreur Stripe attendue")
	}
	if len(entries.entries) != 0 {
		t.Fatal("aucune écriture ne doit exister si le remboursement Stripe a échoué")
	}
	if req.SettledAt != nil {
		t.Fatal("settled_at doit être libéré après un échec Stripe")
	}
}

func TestSettleRetryApresPanneStripe(t *testing.T) {
	req, order := approvedRefund(50)
	entries := &fakeEntries{}
	gateway := &fakeGateway{fail: errors.New("stripe indisponible")}
	p := NewProcessor(newFakeRequests(req), entries, newFakeOrders(order), gateway)

	if _, err := p.Settle(context.Background(), req.ID, time.Now()); err == nil {
		t.Fatal("erreur Stripe attendue au premier appel")
	}

	// La panne était transitoire : le retry doit régler la demande, pas tomber
	// sur AlreadySettledError.
	gateway.fail = nil
	entry, err := p.Settle(context.Background(), req.ID, time.Now())
	if err != nil {
		t.Fatalf("le retry après une panne transitoire doit aboutir: %v", err)
	}

	if len(entries.entries) != 1 {
		t.Fatalf("exactement une écriture attendue après le retry, obtenu %d", len(entries.entries))
	}
	if entry.Amount != -50 {
		t.Fatalf("montant inverse -50 attendu, obtenu %v", entry.Amount)
	}
	if gateway.calls != 2 {
		t.Fatalf("deux appels Stripe attendus (échec puis succès), obtenu %d", gateway.calls)
	}
}
