package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createPersonInput struct {
	DossierID       string   `json:"dossier_id" validate:"required,uuid4"`
	CanonicalName   string   `json:"canonical_name" validate:"required"`
	ConfidenceScore *float64 `json:"confidence_score" validate:"omitempty,gte=0,lte=1"`
}

func TestValidate(t *testing.T) {
	t.Run("valid input passes", func(t *testing.T) {
		score := 0.8
		input := createPersonInput{
			DossierID:       "6ba7b810-9dad-41d1-80b4-00c04fd430c8",
			CanonicalName:   "Irene Adler",
			ConfidenceScore: &score,
		}

		_, err := Validate(input)
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		input := createPersonInput{
			DossierID: "6ba7b810-9dad-41d1-80b4-00c04fd430c8",
		}

		_, err := Validate(input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CanonicalName")
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("malformed uuid", func(t *testing.T) {
		input := createPersonInput{
			DossierID:     "not-a-uuid",
			CanonicalName: "Irene Adler",
		}

		_, err := Validate(input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "uuid4")
	})

	t.Run("confidence score out of range", func(t *testing.T) {
		score := 1.5
		input := createPersonInput{
			DossierID:       "6ba7b810-9dad-41d1-80b4-00c04fd430c8",
			CanonicalName:   "Irene Adler",
			ConfidenceScore: &score,
		}

		_, err := Validate(input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lte")
	})
}

func TestValidateValue(t *testing.T) {
	assert.NoError(t, ValidateValue("6ba7b810-9dad-41d1-80b4-00c04fd430c8", "uuid4"))
	assert.Error(t, ValidateValue("nope", "uuid4"))
	assert.Error(t, ValidateValue("", "required"))
}
