package rq

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"sepettakip_back_end/internal/ledger"
	"sepettakip_back_end/internal/models"
	"sepettakip_back_end/internal/service"
)

// SubmitCancellation permet à un client de demander l'annulation d'une
// commande non livrée.
func SubmitCancellation(c *gin.Context) {
	userID := c.GetString("user_id")
	orderID := c.Param("orderId")

	var req struct {
		Reason      string `json:"reason" binding:"required"`
		OtherReason string `json:"other_reason"`
		Notes       string `json:"notes" binding:"max=500"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	orderUUID, err := uuid.Parse(orderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	request, err := Ledger.Submit(c.Request.Context(), ledger.SubmitInput{
		OrderID:       gocql.UUID(orderUUID),
		ActorID:       userID,
		IsAdmin:       c.GetString("role") == "admin",
		Kind:          models.RequestKindCancellation,
		Reason:        req.Reason,
		OtherReason:   req.OtherReason,
		CustomerNotes: req.Notes,
	}, time.Now())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	log.Printf("📝 Demande d'annulation créée: %s pour commande %s (auto: %v)",
		request.ID, orderID, request.AutoProcessed)

	go service.IndexRequest(request)
	if request.Status.IsTerminal() {
		go notifyCustomer(request)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":          "Demande d'annulation créée",
		"request_id":       request.ID,
		"status":           request.Status,
		"auto_approved":    request.AutoProcessed,
		"cancellation_fee": request.CancellationFee,
	})
}
