package rq

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"sepettakip_back_end/internal/cache"
	"sepettakip_back_end/internal/ledger"
	"sepettakip_back_end/internal/models"
	"sepettakip_back_end/internal/policy"
	"sepettakip_back_end/internal/settlement"
	"sepettakip_back_end/internal/utils"
)

var (
	Ledger      *ledger.RequestLedger
	Processor   *settlement.Processor
	RequestRepo *ledger.ScyllaRequestStore
)

// Init câble le moteur sur ScyllaDB, Redis et Stripe. À appeler après
// database.ConnectDatabases().
func Init() {
	policyStore := policy.NewStore()
	policyCache := cache.NewPolicyCache(policyStore)
	orderStore := ledger.NewScyllaOrderStore()
	RequestRepo = ledger.NewScyllaRequestStore()

	Ledger = ledger.NewRequestLedger(policyCache, orderStore, RequestRepo)
	Processor = settlement.NewProcessor(
		settlement.NewScyllaRequestStore(),
		settlement.NewScyllaEntryStore(),
		orderStore,
		settlement.NewStripeGateway(),
	)

	log.Println("✅ Moteur annulation/remboursement initialisé")
}

// notifyCustomer envoie l'email de décision au client de la demande.
// Fire-and-forget : appelé dans une goroutine, un échec est seulement loggé.
func notifyCustomer(request *models.Request) {
	email, err := cache.GetCustomerEmail(request.CustomerID)
	if err != nil || email == "" {
		log.Printf("⚠️ Email client introuvable pour %s: %v", request.CustomerID, err)
		return
	}
	utils.SendRequestDecisionEmail(request, email)
}

// respondEngineError traduit les erreurs typées du moteur en réponses HTTP.
// Toute erreur non reconnue est une panne d'infrastructure : loggée et rendue
// générique, sans fuite d'internals.
func respondEngineError(c *gin.Context, err error) {
	var (
		validationErr     *models.ValidationError
		conflictErr       *models.ConflictError
		denialErr         *models.PolicyDenialError
		notFoundErr       *models.NotFoundError
		invalidStateErr   *models.InvalidStateError
		alreadySettledErr *models.AlreadySettledError
	)

	switch {
	case errors.As(err, &validationErr):
		status := http.StatusBadRequest
		if validationErr.Field == "actor" {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": validationErr.Message})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "Une demande existe déjà pour cette commande",
			"existing_request_id": conflictErr.ExistingID.String(),
			"existing_status":     conflictErr.ExistingStatus,
		})
	case errors.As(err, &denialErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": denialErr.Reason, "policy_denial": true})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &invalidStateErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidStateErr.Message})
	case errors.As(err, &alreadySettledErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Cette demande a déjà été réglée",
			"settled_at": alreadySettledErr.SettledAt,
		})
	default:
		log.Printf("❌ Erreur interne: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
	}
}
