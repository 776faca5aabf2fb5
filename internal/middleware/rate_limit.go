package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sepettakip_back_end/internal/database"
)

const (
	// Limites par endpoint
	SubmitMaxAttempts = 5
	APIMaxRequests    = 100 // Par minute pour les endpoints généraux

	// Durées de cooldown
	SubmitCooldown = 10 * time.Minute
	APICooldown    = 1 * time.Minute
)

// SubmitRateLimit limite les soumissions de demandes par utilisateur. Les
// doublons légitimes sont déjà bloqués par le ledger ; ce garde-fou protège
// contre le spam de soumissions sur des commandes différentes.
func SubmitRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.Next()
			return
		}

		ctx := context.Background()
		key := "submit_attempts:" + userID
		cooldownKey := "submit_cooldown:" + userID

		// Vérifier si l'utilisateur est en cooldown
		if database.Redis.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := database.Redis.TTL(ctx, cooldownKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de demandes. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		// Vérifier le nombre de tentatives
		attempts, _ := database.Redis.Get(ctx, key).Int()
		if attempts >= SubmitMaxAttempts {
			// Activer le cooldown
			database.Redis.Set(ctx, cooldownKey, "1", SubmitCooldown)
			database.Redis.Del(ctx, key)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de demandes. Réessayez dans %d minutes", int(SubmitCooldown.Minutes())),
				"retry_after": int(SubmitCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		database.Redis.Incr(ctx, key)
		database.Redis.Expire(ctx, key, SubmitCooldown)

		c.Next()
	}
}

// APIRateLimit limite les requêtes générales par IP
func APIRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		key := "api_requests:" + c.ClientIP()

		requests, _ := database.Redis.Get(ctx, key).Int()
		if requests >= APIMaxRequests {
			ttl := database.Redis.TTL(ctx, key).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes, ralentissez",
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		database.Redis.Incr(ctx, key)
		if requests == 0 {
			database.Redis.Expire(ctx, key, APICooldown)
		}

		c.Next()
	}
}
