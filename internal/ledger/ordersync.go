package ledger

import (
	"context"
	"time"

	"sepettakip_back_end/internal/models"
)

// OrderStateSync est l'unique composant autorisé à écrire les statuts
// terminaux cancelled, refunded et partially_refunded sur une commande. Tout
// autre chemin d'écriture de ces statuts est une violation de contrat.
type OrderStateSync struct {
	orders OrderStore
}

func NewOrderStateSync(orders OrderStore) *OrderStateSync {
	return &OrderStateSync{orders: orders}
}

// Apply fait transiter la commande vers le statut terminal cohérent avec
// l'issue de la demande. Un rejet ne mute jamais la commande.
func (s *OrderStateSync) Apply(ctx context.Context, order *models.Order, req *models.Request, now time.Time) (models.OrderStatus, error) {
	if !req.Status.IsApproved() {
		return order.Status, nil
	}

	var target models.OrderStatus
	switch req.Kind {
	case models.RequestKindCancellation:
		target = models.OrderStatusCancelled
	case models.RequestKindRefund:
		if req.ApprovedAmount != nil && *req.ApprovedAmount < order.TotalPrice {
			target = models.OrderStatusPartiallyRefunded
		} else {
			target = models.OrderStatusRefunded
		}
	default:
		return order.Status, &models.InvalidStateError{Message: "Type de demande inconnu"}
	}

	if err := s.orders.SetTerminalStatus(ctx, order, target, now); err != nil {
		return order.Status, err
	}
	order.Status = target
	if target == models.OrderStatusCancelled {
		order.CancelledAt = &now
	}
	return target, nil
}
