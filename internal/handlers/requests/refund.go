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
	"sepettakip_back_end/internal/services"
)

// SubmitRefund permet à un client de demander le remboursement d'une commande
// livrée.
func SubmitRefund(c *gin.Context) {
	userID := c.GetString("user_id")
	orderID := c.Param("orderId")

	var req struct {
		Reason       string   `json:"reason" binding:"required"`
		OtherReason  string   `json:"other_reason"`
		RefundAmount float64  `json:"refund_amount" binding:"required"`
		Items        []string `json:"items"`
		EvidenceURLs []string `json:"evidence_urls"`
		Notes        string   `json:"notes" binding:"max=500"`
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
		OrderID:         gocql.UUID(orderUUID),
		ActorID:         userID,
		IsAdmin:         c.GetString("role") == "admin",
		Kind:            models.RequestKindRefund,
		Reason:          req.Reason,
		OtherReason:     req.OtherReason,
		CustomerNotes:   req.Notes,
		RequestedAmount: req.RefundAmount,
		Items:           req.Items,
		EvidenceURLs:    req.EvidenceURLs,
	}, time.Now())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	log.Printf("💰 Demande de remboursement créée: %s pour commande %s (auto: %v)",
		request.ID, orderID, request.AutoProcessed)

	go service.IndexRequest(request)
	if request.Status.IsTerminal() {
		go notifyCustomer(request)
	}

	resp := gin.H{
		"message":       "Demande de remboursement créée",
		"request_id":    request.ID,
		"status":        request.Status,
		"auto_approved": request.AutoProcessed,
		"amount":        request.RequestedAmount,
	}
	if request.ApprovedAmount != nil {
		resp["approved_amount"] = *request.ApprovedAmount
	}
	c.JSON(http.StatusCreated, resp)
}

// UploadEvidence reçoit les photos de preuve (multipart) et retourne leurs
// URLs, à joindre ensuite à la soumission de remboursement.
func UploadEvidence(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Formulaire multipart invalide"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun fichier fourni"})
		return
	}
	if len(files) > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Maximum 5 fichiers par demande"})
		return
	}

	var urls []string
	for _, file := range files {
		if file.Size > 10<<20 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier trop volumineux (max 10 Mo)"})
			return
		}
		url, err := services.UploadEvidenceFile(file)
		if err != nil {
			log.Printf("❌ Erreur upload preuve: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de l'upload"})
			return
		}
		urls = append(urls, url)
	}

	c.JSON(http.StatusCreated, gin.H{"evidence_urls": urls})
}
