package policy

import (
	"testing"
	"time"

	"sepettakip_back_end/internal/models"
)

func intPtr(v int) *int { return &v }

func orderAt(status models.OrderStatus, createdAt time.Time, total float64) *models.Order {
	return &models.Order{
		Status:     status,
		TotalPrice: total,
		CreatedAt:  createdAt,
	}
}

func TestEvaluateSansPolitiqueActive(t *testing.T) {
	now := time.Now()
	order := orderAt(models.OrderStatusPending, now.Add(-5*time.Minute), 50)

	dec := Evaluate(nil, order, models.RequestKindCancellation, now, 0, nil)

	if !dec.Allowed {
		t.Fatal("sans politique, la demande doit être autorisée")
	}
	if dec.AutoApprove {
		t.Fatal("sans politique, jamais d'auto-approbation")
	}
	if dec.FeeAmount != 0 || dec.FeePercentage != 0 {
		t.Fatalf("sans politique, zéro frais attendu, obtenu %.2f%% / %.2f", dec.FeePercentage, dec.FeeAmount)
	}
}

func TestEvaluateAutoApprobationDansLaFenetre(t *testing.T) {
	now := time.Now()
	p := &models.RefundPolicy{AutoApproveTimeline: intPtr(30)}
	order := orderAt(models.OrderStatusPending, now.Add(-29*time.Minute), 50)

	dec := Evaluate(p, order, models.RequestKindCancellation, now, 0, nil)

	if !dec.AutoApprove {
		t.Fatal("29 minutes avec une fenêtre de 30 : auto-approbation attendue")
	}
}

func TestEvaluateAutoApprobationHorsFenetre(t *testing.T) {
	now := time.Now()
	p := &models.RefundPolicy{AutoApproveTimeline: intPtr(30)}
	order := orderAt(models.OrderStatusPending, now.Add(-31*time.Minute), 50)

	dec := Evaluate(p, order, models.RequestKindCancellation, now, 0, nil)

	if dec.AutoApprove {
		t.Fatal("31 minutes avec une fenêtre de 30 : revue manuelle attendue")
	}
	if !dec.Allowed {
		t.Fatal("hors fenêtre la demande reste autorisée, seule l'auto-approbation tombe")
	}
}

func TestEvaluateFenetreRemboursementEnJours(t *testing.T) {
	now := time.Now()
	delivered := now.Add(-3 * 24 * time.Hour)
	p := &models.RefundPolicy{AutoApproveTimeline: intPtr(7)}
	order := orderAt(models.OrderStatusDelivered, now.Add(-10*24*time.Hour), 80)
	order.DeliveredAt = &delivered

	dec := Evaluate(p, order, models.RequestKindRefund, now, 80, nil)

	if !dec.AutoApprove {
		t.Fatal("3 jours après livraison avec une fenêtre de 7 jours : auto-approbation attendue")
	}
	if dec.ApprovedAmount == nil || *dec.ApprovedAmount != 80 {
		t.Fatalf("montant accordé = montant demandé attendu, obtenu %v", dec.ApprovedAmount)
	}
}

func TestEvaluateLimiteRemboursementPrimeSurAutoApprobation(t *testing.T) {
	now := time.Now()
	delivered := now.Add(-20 * 24 * time.Hour)
	p := &models.RefundPolicy{
		AutoApproveTimeline: intPtr(30),
		TimeLimitDays:       intPtr(14),
	}
	order := orderAt(models.OrderStatusDelivered, now.Add(-25*24*time.Hour), 80)
	order.DeliveredAt = &delivered

	dec := Evaluate(p, order, models.RequestKindRefund, now, 80, nil)

	if dec.Allowed {
		t.Fatal("20 jours après livraison avec une limite de 14 : refus attendu")
	}
	if dec.Reason != "Délai de remboursement dépassé" {
		t.Fatalf("motif de refus inattendu: %q", dec.Reason)
	}
}

func TestEvaluateRefusParStatutPrimeSurAutoApprobation(t *testing.T) {
	now := time.Now()
	p := &models.RefundPolicy{
		AutoApproveTimeline: intPtr(60),
		OrderStatusRules: map[models.OrderStatus]models.StatusRule{
			models.OrderStatusInTransit: {AllowCancellation: false},
		},
	}
	order := orderAt(models.OrderStatusInTransit, now.Add(-5*time.Minute), 50)

	dec := Evaluate(p, order, models.RequestKindCancellation, now, 0, nil)

	if dec.Allowed {
		t.Fatal("statut in_transit interdit : refus attendu même dans la fenêtre d'auto-approbation")
	}
	if dec.Reason != "Annulation non autorisée pour le statut actuel de la commande" {
		t.Fatalf("motif de refus inattendu: %q", dec.Reason)
	}
}

func TestEvaluateFraisParStatut(t *testing.T) {
	now := time.Now()
	p := &models.RefundPolicy{
		OrderStatusRules: map[models.OrderStatus]models.StatusRule{
			models.OrderStatusPreparing: {AllowCancellation: true, CancellationFeePercentage: 15},
		},
	}
	order := orderAt(models.OrderStatusPreparing, now.Add(-10*time.Minute), 200)

	dec := Evaluate(p, order, models.RequestKindCancellation, now, 0, nil)

	if dec.FeePercentage != 15 {
		t.Fatalf("15%% de frais attendus, obtenu %.2f", dec.FeePercentage)
	}
	if dec.FeeAmount != 30 {
		t.Fatalf("30 de frais attendus sur 200, obtenu %.2f", dec.FeeAmount)
	}
}

func TestEvaluatePremierPalierDeFraisGagne(t *testing.T) {
	now := time.Now()
	p := &models.RefundPolicy{
		CancellationFees: []models.FeeTier{
			{MinMinutes: 0, MaxMinutes: intPtr(60), FeePercentage: 10},
			{MinMinutes: 30, MaxMinutes: intPtr(90), FeePercentage: 20},
		},
	}
	// 45 minutes : les deux paliers correspondent, le premier de la liste gagne.
	order := orderAt(models.OrderStatusPending, now.Add(-45*time.Minute), 100)

	dec := Evaluate(p, order, models.RequestKindCancellation, now, 0, nil)

	if dec.FeePercentage != 10 {
		t.Fatalf("premier palier attendu (10%%), obtenu %.2f%%", dec.FeePercentage)
	}
}

func TestEvaluatePalierSansBorneSuperieure(t *testing.T) {
	now := time.Now()
	p := &models.RefundPolicy{
		CancellationFees: []models.FeeTier{
			{MinMinutes: 0, MaxMinutes: intPtr(60), FeePercentage: 5},
			{MinMinutes: 61, FeePercentage: 25},
		},
	}
	order := orderAt(models.OrderStatusPending, now.Add(-5*time.Hour), 100)

	dec := Evaluate(p, order, models.RequestKindCancellation, now, 0, nil)

	if dec.FeePercentage != 25 {
		t.Fatalf("palier ouvert attendu (25%%), obtenu %.2f%%", dec.FeePercentage)
	}
}

func TestEvaluateFraisGardentLaPrecisionComplete(t *testing.T) {
	now := time.Now()
	p := &models.RefundPolicy{
		CancellationFees: []models.FeeTier{
			{MinMinutes: 0, FeePercentage: 15},
		},
	}
	order := orderAt(models.OrderStatusPending, now.Add(-10*time.Minute), 19.99)

	dec := Evaluate(p, order, models.RequestKindCancellation, now, 0, nil)

	// 19.99 * 15% = 2.9985 : pas d'arrondi pendant l'évaluation.
	if dec.FeeAmount != 19.99*15/100 {
		t.Fatalf("précision complète attendue, obtenu %v", dec.FeeAmount)
	}
}

func TestEvaluateCategorieNonRemboursableInformative(t *testing.T) {
	now := time.Now()
	delivered := now.Add(-time.Hour)
	p := &models.RefundPolicy{
		ProductRules: map[string]models.ProductRule{
			"produits_frais": {Refundable: false},
		},
	}
	order := orderAt(models.OrderStatusDelivered, now.Add(-2*time.Hour), 40)
	order.DeliveredAt = &delivered

	dec := Evaluate(p, order, models.RequestKindRefund, now, 40, []string{"epicerie", "produits_frais"})

	if !dec.Allowed {
		t.Fatal("la règle produit est informative, la demande doit rester autorisée")
	}
	if !dec.NonRefundableCategory {
		t.Fatal("catégorie non remboursable présente : le marqueur doit être posé")
	}
}

func TestEvaluateAncrageRemboursementSurLivraison(t *testing.T) {
	now := time.Now()
	// Commande créée il y a 30 jours mais livrée hier : la fenêtre se mesure
	// depuis la livraison.
	delivered := now.Add(-24 * time.Hour)
	p := &models.RefundPolicy{
		AutoApproveTimeline: intPtr(7),
		TimeLimitDays:       intPtr(14),
	}
	order := orderAt(models.OrderStatusDelivered, now.Add(-30*24*time.Hour), 60)
	order.DeliveredAt = &delivered

	dec := Evaluate(p, order, models.RequestKindRefund, now, 60, nil)

	if !dec.Allowed || !dec.AutoApprove {
		t.Fatalf("livraison hier : auto-approbation attendue, obtenu allowed=%v auto=%v", dec.Allowed, dec.AutoApprove)
	}
}
