package policy

import (
	"time"

	"sepettakip_back_end/internal/models"
)

// Decision est le résultat de l'évaluation d'une politique pour une demande.
// Les montants gardent leur précision complète : l'arrondi au centime se fait
// uniquement à la persistance / au passage vers Stripe, jamais pendant
// l'évaluation.
type Decision struct {
	Allowed       bool
	AutoApprove   bool
	FeePercentage float64
	FeeAmount     float64
	// Remboursement : montant accordé si auto-approuvé, nil sinon (en attente
	// de décision manuelle).
	ApprovedAmount *float64
	Reason         string
	// Au moins un article appartient à une catégorie marquée non remboursable.
	// Informatif uniquement, la demande reste autorisée.
	NonRefundableCategory bool
}

// DefaultPolicy est la politique appliquée quand le commerçant n'a aucune
// politique active : demande autorisée, revue manuelle obligatoire, aucun
// frais. Jamais d'auto-approbation sans politique explicite.
var DefaultPolicy = &models.RefundPolicy{}

// Evaluate calcule la décision pour une demande d'annulation ou de
// remboursement. Fonction pure : déterministe pour des entrées données, aucun
// effet de bord. requestedAmount n'est utilisé que pour les remboursements et
// doit avoir été borné par l'appelant (0 < montant <= total).
func Evaluate(p *models.RefundPolicy, order *models.Order, kind models.RequestKind, now time.Time, requestedAmount float64, categories []string) Decision {
	if p == nil {
		p = DefaultPolicy
	}

	dec := Decision{Allowed: true}

	anchor := order.CreatedAt
	if kind == models.RequestKindRefund && order.DeliveredAt != nil {
		anchor = *order.DeliveredAt
	}
	elapsed := now.Sub(anchor)

	// Limite dure de remboursement : vérifiée avant toute auto-approbation,
	// jamais contournable.
	if kind == models.RequestKindRefund && p.TimeLimitDays != nil {
		if elapsed > time.Duration(*p.TimeLimitDays)*24*time.Hour {
			return Decision{Allowed: false, Reason: "Délai de remboursement dépassé"}
		}
	}

	// Fenêtre d'auto-approbation : minutes depuis la création pour une
	// annulation, jours depuis la livraison pour un remboursement.
	if p.AutoApproveTimeline != nil {
		window := time.Duration(*p.AutoApproveTimeline) * time.Minute
		if kind == models.RequestKindRefund {
			window = time.Duration(*p.AutoApproveTimeline) * 24 * time.Hour
		}
		if elapsed <= window {
			dec.AutoApprove = true
		}
	}

	if kind == models.RequestKindCancellation {
		// Règle par statut de commande : un refus explicite prime sur
		// l'auto-approbation.
		if rule, ok := p.OrderStatusRules[order.Status]; ok {
			if !rule.AllowCancellation {
				return Decision{Allowed: false, Reason: "Annulation non autorisée pour le statut actuel de la commande"}
			}
			dec.FeePercentage = rule.CancellationFeePercentage
		}

		// Paliers de frais : le premier palier correspondant dans l'ordre de
		// la liste gagne, même si les plages se chevauchent.
		minutes := elapsed.Minutes()
		for _, tier := range p.CancellationFees {
			if minutes >= float64(tier.MinMinutes) && (tier.MaxMinutes == nil || minutes <= float64(*tier.MaxMinutes)) {
				dec.FeePercentage = tier.FeePercentage
				break
			}
		}

		dec.FeeAmount = order.TotalPrice * dec.FeePercentage / 100
		return dec
	}

	// Remboursement : catégories non remboursables détectées mais non
	// bloquantes.
	// TODO(produit): décision en attente sur le blocage effectif.
	for _, cat := range categories {
		if rule, ok := p.ProductRules[cat]; ok && !rule.Refundable {
			dec.NonRefundableCategory = true
			break
		}
	}

	if dec.AutoApprove {
		amount := requestedAmount
		dec.ApprovedAmount = &amount
	}
	return dec
}
