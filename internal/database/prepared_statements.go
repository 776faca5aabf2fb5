package database

import (
	"log"
	"sync"

	"github.com/gocql/gocql"
)

// Requêtes des chemins chauds de soumission de demandes. gocql prépare chaque
// requête côté serveur au premier passage et réutilise le prepared statement
// pour la même chaîne CQL : construire la *gocql.Query à chaque appel reste
// donc préparé, sans partager de valeur mutable entre goroutines (Bind mute la
// query).
const (
	cqlGetOrderStatus   = "SELECT status FROM orders WHERE order_id = ?"
	cqlGetActiveRequest = "SELECT request_id, status FROM active_request_by_order WHERE order_id = ?"
)

var (
	hotPathSession *gocql.Session
	preparedOnce   sync.Once
)

// InitPreparedStatements résout la session des chemins chauds et pré-prépare
// les requêtes côté serveur.
func InitPreparedStatements() {
	preparedOnce.Do(func() {
		session, err := GetOrdersSession()
		if err != nil {
			log.Printf("⚠️ Impossible d'initialiser les prepared statements: %v", err)
			return
		}
		hotPathSession = session

		// Premier passage : force la préparation côté serveur
		session.Query(cqlGetOrderStatus, gocql.TimeUUID()).Exec()
		session.Query(cqlGetActiveRequest, gocql.TimeUUID()).Exec()

		log.Println("✅ Prepared statements initialisés")
	})
}

// GetPreparedGetOrderStatus retourne une query fraîche sur le statut d'une
// commande (pré-contrôle avant soumission).
func GetPreparedGetOrderStatus() *gocql.Query {
	if hotPathSession == nil {
		return nil
	}
	return hotPathSession.Query(cqlGetOrderStatus)
}

// GetPreparedGetActiveRequest retourne une query fraîche sur la réservation
// active d'une commande.
func GetPreparedGetActiveRequest() *gocql.Query {
	if hotPathSession == nil {
		return nil
	}
	return hotPathSession.Query(cqlGetActiveRequest)
}
