package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gocql/gocql"

	"sepettakip_back_end/internal/database"
	"sepettakip_back_end/internal/models"
	"sepettakip_back_end/internal/policy"
)

const PolicyCacheTTL = 5 * time.Minute

// Valeur sentinelle cachée quand un business n'a aucune politique active,
// pour éviter de retaper ScyllaDB à chaque soumission.
const noActivePolicy = "none"

// PolicyCache sert la politique active d'un business depuis Redis, avec repli
// sur ScyllaDB. C'est l'implémentation de PolicySource utilisée en production.
type PolicyCache struct {
	store *policy.Store
}

func NewPolicyCache(store *policy.Store) *PolicyCache {
	return &PolicyCache{store: store}
}

// ActivePolicy récupère la politique active depuis Redis ou ScyllaDB.
// Retourne nil sans erreur si le business n'a aucune politique active.
func (c *PolicyCache) ActivePolicy(ctx context.Context, businessID gocql.UUID) (*models.RefundPolicy, error) {
	key := "policy:active:" + businessID.String()

	// 1. Essayer le cache Redis
	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		if data == noActivePolicy {
			return nil, nil
		}
		var p models.RefundPolicy
		if json.Unmarshal([]byte(data), &p) == nil {
			return &p, nil
		}
	}

	// 2. Récupérer de ScyllaDB
	p, err := c.store.ActivePolicy(ctx, businessID)
	if err != nil {
		return nil, err
	}

	// 3. Mettre en cache
	if p == nil {
		database.Redis.Set(ctx, key, noActivePolicy, PolicyCacheTTL)
		return nil, nil
	}
	jsonData, _ := json.Marshal(p)
	database.Redis.Set(ctx, key, jsonData, PolicyCacheTTL)

	return p, nil
}

// InvalidatePolicyCache invalide le cache après toute écriture de politique.
func InvalidatePolicyCache(businessID gocql.UUID) {
	ctx := context.Background()
	database.Redis.Del(ctx, "policy:active:"+businessID.String())
}
