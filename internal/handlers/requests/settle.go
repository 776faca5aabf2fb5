package rq

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// SettleRequest déclenche le règlement d'une demande de remboursement
// approuvée : création du remboursement Stripe et de l'écriture inverse.
// Idempotent : un second appel renvoie 400 sans créer de doublon.
func SettleRequest(c *gin.Context) {
	requestID := c.Param("requestId")

	requestUUID, err := uuid.Parse(requestID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID demande invalide"})
		return
	}

	entry, err := Processor.Settle(c.Request.Context(), gocql.UUID(requestUUID), time.Now())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	log.Printf("✅ Règlement créé: %s (Stripe: %s)", entry.ID, entry.StripeRefundID)

	c.JSON(http.StatusOK, gin.H{
		"message":          "Remboursement réglé avec succès",
		"entry_id":         entry.ID,
		"request_id":       entry.RequestID,
		"amount":           entry.Amount,
		"stripe_refund_id": entry.StripeRefundID,
	})
}
