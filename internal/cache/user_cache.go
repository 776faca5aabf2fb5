package cache

import (
	"context"
	"time"

	"sepettakip_back_end/internal/database"
)

const UserEmailCacheTTL = 5 * time.Minute

// GetCustomerEmail récupère l'email d'un client depuis Redis ou ScyllaDB.
// Utilisé uniquement pour les notifications de décision.
func GetCustomerEmail(userID string) (string, error) {
	ctx := context.Background()
	key := "user:email:" + userID

	// 1. Essayer le cache Redis
	email, err := database.Redis.Get(ctx, key).Result()
	if err == nil && email != "" {
		return email, nil
	}

	// 2. Récupérer de ScyllaDB
	session, err := database.GetUsersSession()
	if err != nil {
		return "", err
	}

	err = session.Query(`SELECT email FROM users WHERE user_id = ?`, userID).Scan(&email)
	if err != nil {
		return "", err
	}

	// 3. Mettre en cache
	database.Redis.Set(ctx, key, email, UserEmailCacheTTL)

	return email, nil
}
