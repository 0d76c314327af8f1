package models

import (
	"time"

	"github.com/lib/pq"
)

// Relationship is a typed edge between two persons in the same dossier. The pair
// is stored ordered but queried as undirected.
type Relationship struct {
	ID               string         `json:"id" db:"id"`
	DossierID        string         `json:"dossier_id" db:"dossier_id"`
	PersonAID        string         `json:"person_a_id" db:"person_a_id"`
	PersonBID        string         `json:"person_b_id" db:"person_b_id"`
	RelationshipType string         `json:"relationship_type" db:"relationship_type"`
	Description      *string        `json:"description,omitempty" db:"description"`
	ConfidenceScore  float64        `json:"confidence_score" db:"confidence_score"`
	EvidenceRefs     pq.StringArray `json:"evidence_refs" db:"evidence_refs"`
	ValidFrom        *time.Time     `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo          *time.Time     `json:"valid_to,omitempty" db:"valid_to"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// CreateRelationshipRequest is the request for creating a relationship in a dossier
type CreateRelationshipRequest struct {
	PersonAID        string     `json:"person_a_id" validate:"required,uuid4"`
	PersonBID        string     `json:"person_b_id" validate:"required,uuid4"`
	RelationshipType string     `json:"relationship_type" validate:"required"`
	Description      *string    `json:"description,omitempty"`
	ConfidenceScore  *float64   `json:"confidence_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	EvidenceRefs     []string   `json:"evidence_refs,omitempty"`
	ValidFrom        *time.Time `json:"valid_from,omitempty"`
	ValidTo          *time.Time `json:"valid_to,omitempty"`
}

// RelationshipPatch holds the updatable relationship fields; nil fields are left untouched
type RelationshipPatch struct {
	RelationshipType *string    `json:"relationship_type,omitempty"`
	Description      *string    `json:"description,omitempty"`
	ConfidenceScore  *float64   `json:"confidence_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	ValidFrom        *time.Time `json:"valid_from,omitempty"`
	ValidTo          *time.Time `json:"valid_to,omitempty"`
}

// RelationshipFilter narrows relationship listings; person matches either endpoint
type RelationshipFilter struct {
	DossierID        string
	PersonID         string
	RelationshipType string
}
