package models

import (
	"time"

	"github.com/lib/pq"
)

// Attribute is a time-bounded fact about a person with provenance and confidence
type Attribute struct {
	ID              string         `json:"id" db:"id"`
	PersonID        string         `json:"person_id" db:"person_id"`
	AttributeType   string         `json:"attribute_type" db:"attribute_type"`
	AttributeValue  string         `json:"attribute_value" db:"attribute_value"`
	ConfidenceScore float64        `json:"confidence_score" db:"confidence_score"`
	ValidFrom       *time.Time     `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo         *time.Time     `json:"valid_to,omitempty" db:"valid_to"`
	SourceType      *string        `json:"source_type,omitempty" db:"source_type"`
	EvidenceRefs    pq.StringArray `json:"evidence_refs" db:"evidence_refs"`
	Notes           *string        `json:"notes,omitempty" db:"notes"`
	Verified        bool           `json:"verified" db:"verified"`
	CreatedBy       *string        `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// CreateAttributeRequest is the request for attaching an attribute to a person
type CreateAttributeRequest struct {
	AttributeType   string     `json:"attribute_type" validate:"required"`
	AttributeValue  string     `json:"attribute_value" validate:"required"`
	ConfidenceScore *float64   `json:"confidence_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidTo         *time.Time `json:"valid_to,omitempty"`
	SourceType      *string    `json:"source_type,omitempty"`
	EvidenceRefs    []string   `json:"evidence_refs,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Verified        *bool      `json:"verified,omitempty"`
}

// AttributePatch holds the updatable attribute fields; nil fields are left untouched
type AttributePatch struct {
	AttributeValue  *string    `json:"attribute_value,omitempty"`
	ConfidenceScore *float64   `json:"confidence_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidTo         *time.Time `json:"valid_to,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Verified        *bool      `json:"verified,omitempty"`
}
