package rq

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"sepettakip_back_end/internal/ledger"
	"sepettakip_back_end/internal/service"
)

// DecideRequest applique la décision manuelle du commerçant (approve/reject)
// sur une demande en attente.
func DecideRequest(c *gin.Context) {
	requestID := c.Param("requestId")

	var req struct {
		Decision    string   `json:"decision" binding:"required"` // approve, reject
		Notes       string   `json:"notes" binding:"max=500"`
		AmountOrFee *float64 `json:"amount_or_fee"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if req.Decision != "approve" && req.Decision != "reject" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Décision invalide (approve ou reject)"})
		return
	}

	requestUUID, err := uuid.Parse(requestID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID demande invalide"})
		return
	}

	request, err := Ledger.Decide(c.Request.Context(), ledger.DecideInput{
		RequestID:       gocql.UUID(requestUUID),
		ActorBusinessID: c.GetString("business_id"),
		IsAdmin:         c.GetString("role") == "admin",
		Approve:         req.Decision == "approve",
		BusinessNotes:   req.Notes,
		AmountOrFee:     req.AmountOrFee,
	}, time.Now())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	log.Printf("⚖️ Décision appliquée: %s → %s", requestID, request.Status)

	go service.IndexRequest(request)
	go notifyCustomer(request)

	resp := gin.H{
		"message":    "Décision enregistrée",
		"request_id": request.ID,
		"status":     request.Status,
	}
	if request.ApprovedAmount != nil {
		resp["approved_amount"] = *request.ApprovedAmount
	}
	if request.Kind == "cancellation" {
		resp["cancellation_fee"] = request.CancellationFee
	}
	c.JSON(http.StatusOK, resp)
}
