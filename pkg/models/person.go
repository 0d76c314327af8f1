package models

import (
	"time"

	"github.com/lib/pq"
)

// Person is an identity record inside a dossier. merged_from accumulates the ids
// of persons that were folded into this record.
type Person struct {
	ID              string         `json:"id" db:"id"`
	DossierID       string         `json:"dossier_id" db:"dossier_id"`
	CanonicalName   string         `json:"canonical_name" db:"canonical_name"`
	Aliases         pq.StringArray `json:"aliases" db:"aliases"`
	Description     *string        `json:"description,omitempty" db:"description"`
	ConfidenceScore float64        `json:"confidence_score" db:"confidence_score"`
	MergedFrom      pq.StringArray `json:"merged_from" db:"merged_from"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// CreatePersonRequest is the request for creating a person in a dossier
type CreatePersonRequest struct {
	CanonicalName   string   `json:"canonical_name" validate:"required"`
	Aliases         []string `json:"aliases,omitempty"`
	Description     *string  `json:"description,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// PersonPatch holds the updatable person fields; nil fields are left untouched
type PersonPatch struct {
	CanonicalName   *string   `json:"canonical_name,omitempty"`
	Aliases         *[]string `json:"aliases,omitempty"`
	Description     *string   `json:"description,omitempty"`
	ConfidenceScore *float64  `json:"confidence_score,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// PersonListResponse is the response for listing persons
type PersonListResponse struct {
	Items      []Person `json:"items"`
	TotalCount int      `json:"total_count"`
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
}

// MergePersonsRequest consolidates merged_person_id into primary_person_id
type MergePersonsRequest struct {
	PrimaryPersonID string `json:"primary_person_id" validate:"required,uuid4"`
	MergedPersonID  string `json:"merged_person_id" validate:"required,uuid4"`
	Reason          string `json:"reason,omitempty"`
}

// MergePersonsResponse is the response for a successful merge
type MergePersonsResponse struct {
	Success         bool   `json:"success"`
	PrimaryPersonID string `json:"primary_person_id"`
	MergedPersonID  string `json:"merged_person_id"`
}

// MergeLogEntry records one applied merge; rows are insert-only
type MergeLogEntry struct {
	ID              string    `json:"id" db:"id"`
	DossierID       string    `json:"dossier_id" db:"dossier_id"`
	PrimaryPersonID string    `json:"primary_person_id" db:"primary_person_id"`
	MergedPersonID  string    `json:"merged_person_id" db:"merged_person_id"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	MergedBy        *string   `json:"merged_by,omitempty" db:"merged_by"`
	MergedAt        time.Time `json:"merged_at" db:"merged_at"`
}
