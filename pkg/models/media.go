package models

import "time"

// MediaLink references an evidence file attached to a person. Binary storage
// lives outside this service; only the pointer is tracked here.
type MediaLink struct {
	ID        string    `json:"id" db:"id"`
	PersonID  string    `json:"person_id" db:"person_id"`
	FilePath  string    `json:"file_path" db:"file_path"`
	Caption   *string   `json:"caption,omitempty" db:"caption"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateMediaLinkRequest attaches a file reference to a person
type CreateMediaLinkRequest struct {
	FilePath string  `json:"file_path" validate:"required"`
	Caption  *string `json:"caption,omitempty"`
}
