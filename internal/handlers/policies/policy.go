package po

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"sepettakip_back_end/internal/cache"
	"sepettakip_back_end/internal/models"
	"sepettakip_back_end/internal/policy"
)

var Store *policy.Store

// Init câble le store de politiques. À appeler après
// database.ConnectDatabases().
func Init() {
	Store = policy.NewStore()
}

// CreatePolicy crée une politique d'annulation/remboursement pour un business.
// La politique est créée inactive ; l'activation est une opération séparée.
func CreatePolicy(c *gin.Context) {
	businessID := c.Param("businessId")

	var req struct {
		Name                string                                   `json:"name" binding:"required"`
		AutoApproveTimeline *int                                     `json:"auto_approve_timeline"`
		TimeLimitDays       *int                                     `json:"time_limit_days"`
		OrderStatusRules    map[models.OrderStatus]models.StatusRule `json:"order_status_rules"`
		CancellationFees    []models.FeeTier                         `json:"cancellation_fees"`
		ProductRules        map[string]models.ProductRule            `json:"product_rules"`
		Activate            bool                                     `json:"activate"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	businessUUID, err := uuid.Parse(businessID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID business invalide"})
		return
	}

	if req.AutoApproveTimeline != nil && *req.AutoApproveTimeline < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fenêtre d'auto-approbation négative"})
		return
	}
	if req.TimeLimitDays != nil && *req.TimeLimitDays < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Limite de temps négative"})
		return
	}
	for _, tier := range req.CancellationFees {
		if tier.FeePercentage < 0 || tier.FeePercentage > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Pourcentage de frais doit être entre 0 et 100"})
			return
		}
		if tier.MaxMinutes != nil && *tier.MaxMinutes < tier.MinMinutes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Palier de frais incohérent (max < min)"})
			return
		}
	}
	for status, rule := range req.OrderStatusRules {
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Statut de commande inconnu: " + string(status)})
			return
		}
		if rule.CancellationFeePercentage < 0 || rule.CancellationFeePercentage > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Pourcentage de frais doit être entre 0 et 100"})
			return
		}
	}

	now := time.Now()
	p := &models.RefundPolicy{
		ID:                  gocql.TimeUUID(),
		BusinessID:          gocql.UUID(businessUUID),
		Name:                req.Name,
		AutoApproveTimeline: req.AutoApproveTimeline,
		TimeLimitDays:       req.TimeLimitDays,
		OrderStatusRules:    req.OrderStatusRules,
		CancellationFees:    req.CancellationFees,
		ProductRules:        req.ProductRules,
		CreatedAt:           now,
	}

	if err := Store.Save(c.Request.Context(), p); err != nil {
		log.Printf("❌ Erreur création politique: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la création"})
		return
	}

	if req.Activate {
		if err := Store.Activate(c.Request.Context(), p.BusinessID, p.ID); err != nil {
			log.Printf("❌ Erreur activation politique: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Politique créée mais activation échouée"})
			return
		}
		p.IsActive = true
		cache.InvalidatePolicyCache(p.BusinessID)
	}

	log.Printf("✅ Politique créée: %s pour business %s (active: %v)", p.ID, businessID, p.IsActive)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Politique créée avec succès",
		"policy":  p,
	})
}

// GetActivePolicy retourne la politique active d'un business
func GetActivePolicy(c *gin.Context) {
	businessID := c.Param("businessId")

	businessUUID, err := uuid.Parse(businessID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID business invalide"})
		return
	}

	p, err := Store.ActivePolicy(c.Request.Context(), gocql.UUID(businessUUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture politique"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucune politique active"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"policy": p})
}

// ListPolicies retourne toutes les politiques d'un business
func ListPolicies(c *gin.Context) {
	businessID := c.Param("businessId")

	businessUUID, err := uuid.Parse(businessID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID business invalide"})
		return
	}

	policies, err := Store.ListByBusiness(c.Request.Context(), gocql.UUID(businessUUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture politiques"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"policies": policies,
		"count":    len(policies),
	})
}

// ActivatePolicy active une politique existante. L'ancienne politique active
// est désactivée dans la même opération.
func ActivatePolicy(c *gin.Context) {
	businessID := c.Param("businessId")
	policyID := c.Param("policyId")

	businessUUID, err := uuid.Parse(businessID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID business invalide"})
		return
	}
	policyUUID, err := uuid.Parse(policyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID politique invalide"})
		return
	}

	// Vérifier que la politique existe et appartient bien au business
	p, err := Store.GetPolicy(c.Request.Context(), gocql.UUID(policyUUID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Politique introuvable"})
		return
	}
	if p.BusinessID != gocql.UUID(businessUUID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette politique n'appartient pas à ce business"})
		return
	}

	if err := Store.Activate(c.Request.Context(), p.BusinessID, p.ID); err != nil {
		log.Printf("❌ Erreur activation politique: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de l'activation"})
		return
	}
	cache.InvalidatePolicyCache(p.BusinessID)

	log.Printf("✅ Politique activée: %s pour business %s", policyID, businessID)
	c.JSON(http.StatusOK, gin.H{"message": "Politique activée"})
}

// DeactivatePolicy supprime la politique active d'un business. Les demandes
// retombent alors sur la politique par défaut (revue manuelle, zéro frais).
func DeactivatePolicy(c *gin.Context) {
	businessID := c.Param("businessId")

	businessUUID, err := uuid.Parse(businessID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID business invalide"})
		return
	}

	if err := Store.Deactivate(c.Request.Context(), gocql.UUID(businessUUID)); err != nil {
		log.Printf("❌ Erreur désactivation politique: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la désactivation"})
		return
	}
	cache.InvalidatePolicyCache(gocql.UUID(businessUUID))

	c.JSON(http.StatusOK, gin.H{"message": "Politique désactivée"})
}
