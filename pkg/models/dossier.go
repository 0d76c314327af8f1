package models

import "time"

const (
	DossierStatusActive    = "active"
	DossierStatusArchived  = "archived"
	DossierStatusCompleted = "completed"
)

// Dossier is a case file owning persons, attributes and relationships
type Dossier struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	Status      string    `json:"status" db:"status"`
	CreatedBy   *string   `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateDossierRequest is the request for creating a dossier
type CreateDossierRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status" validate:"omitempty,oneof=active archived completed"`
}

// DossierPatch holds the updatable dossier fields; nil fields are left untouched
type DossierPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=active archived completed"`
}

// DossierStats aggregates per-dossier counts for the case overview
type DossierStats struct {
	DossierID          string  `json:"dossier_id"`
	PersonCount        int     `json:"person_count"`
	AttributeCount     int     `json:"attribute_count"`
	VerifiedAttributes int     `json:"verified_attributes"`
	RelationshipCount  int     `json:"relationship_count"`
	MergeCount         int     `json:"merge_count"`
	AvgConfidence      float64 `json:"avg_confidence"`
}
