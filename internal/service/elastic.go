package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"sepettakip_back_end/internal/database"
	"sepettakip_back_end/internal/models"
)

//
// --- INDEXATION DANS ELASTICSEARCH ---
//

// IndexRequest indexe une demande d'annulation/remboursement pour la recherche
// admin. Best-effort : un échec d'indexation n'affecte jamais la demande.
func IndexRequest(req *models.Request) {
	if database.Elastic == nil {
		log.Println("⚠️ Elastic non initialisé, impossible d'indexer:", req.ID)
		return
	}

	data, _ := json.Marshal(req)
	indexReq := esapi.IndexRequest{
		Index:      "order_requests",
		DocumentID: req.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := indexReq.Do(context.Background(), database.Elastic)
	if err != nil {
		log.Println("❌ Erreur envoi Elastic:", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("⚠️ Elastic a renvoyé une erreur pour %s: %s", req.ID, res.String())
	} else {
		log.Printf("✅ Demande indexée dans Elasticsearch: %s", req.ID)
	}
}

//
// --- RECHERCHE DANS ELASTICSEARCH ---
//

// SearchRequests recherche des demandes par motif, notes ou statut.
func SearchRequests(query string) ([]map[string]interface{}, error) {
	if database.Elastic == nil {
		return nil, errors.New("client Elasticsearch non initialisé")
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"reason", "customer_notes", "business_notes", "status", "kind"},
			},
		},
	}

	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %v", err)
	}

	searchReq := esapi.SearchRequest{
		Index: []string{"order_requests"},
		Body:  &buf,
	}
	res, err := searchReq.Do(context.Background(), database.Elastic)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		json.NewDecoder(res.Body).Decode(&e)
		log.Printf("❌ Elasticsearch erreur: %+v", e)
		return nil, errors.New("index non trouvé ou vide")
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %v", err)
	}

	hitsData, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("réponse Elastic invalide (pas de hits)")
	}

	hitsArray, ok := hitsData["hits"].([]interface{})
	if !ok {
		return nil, errors.New("réponse Elastic invalide (hits malformés)")
	}

	var results []map[string]interface{}
	for _, h := range hitsArray {
		hit, ok := h.(map[string]interface{})
		if !ok {
			continue
		}
		if source, ok := hit["_source"].(map[string]interface{}); ok {
			results = append(results, source)
		}
	}

	return results, nil
}
