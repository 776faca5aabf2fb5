package rq

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"sepettakip_back_end/internal/database"
	"sepettakip_back_end/internal/models"
	"sepettakip_back_end/internal/service"
)

// GetMyRequests récupère les demandes de l'utilisateur connecté
func GetMyRequests(c *gin.Context) {
	userID := c.GetString("user_id")

	requests, err := RequestRepo.ListByCustomer(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture demandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// GetAllRequests récupère toutes les demandes (admin)
func GetAllRequests(c *gin.Context) {
	requests, err := RequestRepo.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture demandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// SearchRequests recherche des demandes via Elasticsearch (admin)
func SearchRequests(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre de recherche requis"})
		return
	}

	results, err := service.SearchRequests(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

// GetActiveRequest retourne la demande active d'une commande, s'il y en a
// une. Permet au client de vérifier avant de soumettre.
func GetActiveRequest(c *gin.Context) {
	orderID := c.Param("orderId")

	orderUUID, err := uuid.Parse(orderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	stmtStatus := database.GetPreparedGetOrderStatus()
	stmtClaim := database.GetPreparedGetActiveRequest()
	if stmtStatus == nil || stmtClaim == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	var orderStatus string
	if err := stmtStatus.Bind(gocql.UUID(orderUUID)).Scan(&orderStatus); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	var requestID gocql.UUID
	var status string
	err = stmtClaim.Bind(gocql.UUID(orderUUID)).Scan(&requestID, &status)
	if err == gocql.ErrNotFound || (err == nil && !models.RequestStatus(status).IsActive()) {
		c.JSON(http.StatusOK, gin.H{"active": false, "order_status": orderStatus})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture réservation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active":       true,
		"request_id":   requestID,
		"status":       status,
		"order_status": orderStatus,
	})
}
