package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"sepettakip_back_end/internal/database"
	"sepettakip_back_end/internal/models"
)

// Store lit et écrit les politiques dans ScyllaDB.
//
// Invariant : au plus une politique active par business. Il est porté par la
// table active_policy_by_business (une seule ligne par business_id, clé
// primaire) et garanti à l'écriture par Activate/Deactivate — jamais découvert
// par une requête "premier actif trouvé".
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// ActivePolicy retourne la politique active d'un business, ou nil s'il n'y en
// a aucune.
func (s *Store) ActivePolicy(ctx context.Context, businessID gocql.UUID) (*models.RefundPolicy, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	var policyID gocql.UUID
	err = session.Query(`SELECT policy_id FROM active_policy_by_business WHERE business_id = ?`,
		businessID).WithContext(ctx).Scan(&policyID)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture politique active: %w", err)
	}

	return s.GetPolicy(ctx, policyID)
}

// GetPolicy charge une politique par identifiant.
func (s *Store) GetPolicy(ctx context.Context, policyID gocql.UUID) (*models.RefundPolicy, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	var (
		p                                       models.RefundPolicy
		statusRulesJSON, feesJSON, productsJSON string
	)
	err = session.Query(`SELECT policy_id, business_id, name, is_active, auto_approve_timeline,
		time_limit_days, order_status_rules, cancellation_fees, product_rules, created_at, updated_at
		FROM refund_policies WHERE policy_id = ?`, policyID).WithContext(ctx).Scan(
		&p.ID, &p.BusinessID, &p.Name, &p.IsActive, &p.AutoApproveTimeline,
		&p.TimeLimitDays, &statusRulesJSON, &feesJSON, &productsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, &models.NotFoundError{Resource: "Politique"}
	}
	if err != nil {
		return nil, fmt.Errorf("lecture politique: %w", err)
	}

	if err := decodeRules(statusRulesJSON, feesJSON, productsJSON, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save insère ou remplace une politique (inactive par défaut ; l'activation
// passe par Activate).
func (s *Store) Save(ctx context.Context, p *models.RefundPolicy) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	statusRulesJSON, feesJSON, productsJSON, err := encodeRules(p)
	if err != nil {
		return err
	}

	return session.Query(`INSERT INTO refund_policies (policy_id, business_id, name, is_active,
		auto_approve_timeline, time_limit_days, order_status_rules, cancellation_fees,
		product_rules, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.BusinessID, p.Name, p.IsActive, p.AutoApproveTimeline, p.TimeLimitDays,
		statusRulesJSON, feesJSON, productsJSON, p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx).Exec()
}

// Activate rend une politique active pour son business. L'ancienne politique
// active, s'il y en a une, est désactivée dans la même opération : la ligne
// unique de active_policy_by_business est simplement remplacée.
func (s *Store) Activate(ctx context.Context, businessID, policyID gocql.UUID) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	now := time.Now()

	// Désactiver l'ancienne politique si présente
	var previousID gocql.UUID
	err = session.Query(`SELECT policy_id FROM active_policy_by_business WHERE business_id = ?`,
		businessID).WithContext(ctx).Scan(&previousID)
	if err == nil && previousID != policyID {
		if err := session.Query(`UPDATE refund_policies SET is_active = false, updated_at = ? WHERE policy_id = ?`,
			now, previousID).WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Désactivation ancienne politique %s: %v", previousID, err)
		}
	}

	if err := session.Query(`INSERT INTO active_policy_by_business (business_id, policy_id) VALUES (?, ?)`,
		businessID, policyID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("activation politique: %w", err)
	}

	return session.Query(`UPDATE refund_policies SET is_active = true, updated_at = ? WHERE policy_id = ?`,
		now, policyID).WithContext(ctx).Exec()
}

// Deactivate supprime la politique active d'un business.
func (s *Store) Deactivate(ctx context.Context, businessID gocql.UUID) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	var policyID gocql.UUID
	err = session.Query(`SELECT policy_id FROM active_policy_by_business WHERE business_id = ?`,
		businessID).WithContext(ctx).Scan(&policyID)
	if err == gocql.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	if err := session.Query(`UPDATE refund_policies SET is_active = false, updated_at = ? WHERE policy_id = ?`,
		time.Now(), policyID).WithContext(ctx).Exec(); err != nil {
		return err
	}
	return session.Query(`DELETE FROM active_policy_by_business WHERE business_id = ?`,
		businessID).WithContext(ctx).Exec()
}

// ListByBusiness retourne toutes les politiques d'un business.
func (s *Store) ListByBusiness(ctx context.Context, businessID gocql.UUID) ([]models.RefundPolicy, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT policy_id, business_id, name, is_active, auto_approve_timeline,
		time_limit_days, order_status_rules, cancellation_fees, product_rules, created_at, updated_at
		FROM refund_policies WHERE business_id = ? ALLOW FILTERING`, businessID).WithContext(ctx).Iter()

	var policies []models.RefundPolicy
	var p models.RefundPolicy
	var statusRulesJSON, feesJSON, productsJSON string

	for iter.Scan(&p.ID, &p.BusinessID, &p.Name, &p.IsActive, &p.AutoApproveTimeline,
		&p.TimeLimitDays, &statusRulesJSON, &feesJSON, &productsJSON, &p.CreatedAt, &p.UpdatedAt) {
		if err := decodeRules(statusRulesJSON, feesJSON, productsJSON, &p); err != nil {
			log.Printf("⚠️ Politique %s illisible: %v", p.ID, err)
			continue
		}
		policies = append(policies, p)
		p = models.RefundPolicy{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return policies, nil
}

// Les structures de règles sont stockées en JSON dans des colonnes text.
func encodeRules(p *models.RefundPolicy) (string, string, string, error) {
	statusRules, err := json.Marshal(p.OrderStatusRules)
	if err != nil {
		return "", "", "", err
	}
	fees, err := json.Marshal(p.CancellationFees)
	if err != nil {
		return "", "", "", err
	}
	products, err := json.Marshal(p.ProductRules)
	if err != nil {
		return "", "", "", err
	}
	return string(statusRules), string(fees), string(products), nil
}

func decodeRules(statusRulesJSON, feesJSON, productsJSON string, p *models.RefundPolicy) error {
	if statusRulesJSON != "" {
		if err := json.Unmarshal([]byte(statusRulesJSON), &p.OrderStatusRules); err != nil {
			return fmt.Errorf("décodage order_status_rules: %w", err)
		}
	}
	if feesJSON != "" {
		if err := json.Unmarshal([]byte(feesJSON), &p.CancellationFees); err != nil {
			return fmt.Errorf("décodage cancellation_fees: %w", err)
		}
	}
	if productsJSON != "" {
		if err := json.Unmarshal([]byte(productsJSON), &p.ProductRules); err != nil {
			return fmt.Errorf("décodage product_rules: %w", err)
		}
	}
	return nil
}
