package models

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

// ValidationError : entrée malformée ou état de commande incompatible avec
// l'opération demandée. Toujours corrigeable par l'appelant.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError : une demande active existe déjà pour la commande. Contient
// l'identifiant et le statut de la demande existante pour que l'appelant
// puisse reprendre au lieu de réessayer à l'aveugle.
type ConflictError struct {
	ExistingID     gocql.UUID
	ExistingStatus RequestStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("une demande existe déjà pour cette commande (id=%s, statut=%s)",
		e.ExistingID, e.ExistingStatus)
}

// PolicyDenialError : la politique du commerçant refuse explicitement
// l'action. C'est une issue métier, pas une requête malformée.
type PolicyDenialError struct {
	Reason string
}

func (e *PolicyDenialError) Error() string {
	return e.Reason
}

// NotFoundError : commande, demande ou politique inconnue.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " introuvable"
}

// InvalidStateError : opération de règlement sur une demande dans un état
// incompatible. Signale un bug de programmation ou une double soumission.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// AlreadySettledError : la demande a déjà été réglée. Aucune seconde écriture
// inverse n'est créée.
type AlreadySettledError struct {
	RequestID gocql.UUID
	SettledAt time.Time
}

func (e *AlreadySettledError) Error() string {
	return fmt.Sprintf("demande %s déjà réglée le %s", e.RequestID, e.SettledAt.Format(time.RFC3339))
}
