package attribute

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

var attributeColumns = []string{"id", "person_id", "attribute_type", "attribute_value", "confidence_score", "valid_from", "valid_to", "source_type", "evidence_refs", "notes", "verified", "created_by", "created_at", "updated_at"}

// Repository handles person attribute persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new attribute repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create attaches an attribute to a person.
// Fails with 400 when the person does not exist.
func (r *Repository) Create(ctx context.Context, personID string, req models.CreateAttributeRequest, createdBy *string) (*models.Attribute, error) {
	ctx, span := tracing.StartSpan(ctx, "attribute.Repository.Create")
	defer span.End()

	var personCount int
	if err := r.db.GetContext(ctx, &personCount, "SELECT COUNT(*) FROM persons WHERE id = $1", personID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": personID}).Error("Failed to check person for attribute create")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create attribute")
	}
	if personCount == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "person %s does not exist", personID)
	}

	now := time.Now().UTC()
	confidence := 0.5
	if req.ConfidenceScore != nil {
		confidence = *req.ConfidenceScore
	}
	verified := false
	if req.Verified != nil {
		verified = *req.Verified
	}
	evidenceRefs := req.EvidenceRefs
	if evidenceRefs == nil {
		evidenceRefs = []string{}
	}

	attribute := &models.Attribute{
		ID:              uuid.New().String(),
		PersonID:        personID,
		AttributeType:   req.AttributeType,
		AttributeValue:  req.AttributeValue,
		ConfidenceScore: confidence,
		ValidFrom:       req.ValidFrom,
		ValidTo:         req.ValidTo,
		SourceType:      req.SourceType,
		EvidenceRefs:    pq.StringArray(evidenceRefs),
		Notes:           req.Notes,
		Verified:        verified,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("person_attributes")
	sb.Cols(attributeColumns...)
	sb.Values(attribute.ID, attribute.PersonID, attribute.AttributeType, attribute.AttributeValue, attribute.ConfidenceScore, attribute.ValidFrom, attribute.ValidTo, attribute.SourceType, attribute.EvidenceRefs, attribute.Notes, attribute.Verified, attribute.CreatedBy, attribute.CreatedAt, attribute.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": personID, "attribute_type": req.AttributeType}).Error("Failed to create attribute")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create attribute")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": attribute.ID, "person_id": personID}).Info("Created attribute")
	return attribute, nil
}

// Get retrieves an attribute by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Attribute, error) {
	ctx, span := tracing.StartSpan(ctx, "attribute.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(attributeColumns...)
	sb.From("person_attributes")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var attribute models.Attribute
	if err := r.db.GetContext(ctx, &attribute, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "attribute %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get attribute")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get attribute")
	}

	return &attribute, nil
}

// ListByPerson retrieves attributes for a person, optionally filtered by type
// and verified state. Ordering is by creation time descending.
func (r *Repository) ListByPerson(ctx context.Context, personID string, attributeType *string, verified *bool) ([]models.Attribute, error) {
	ctx, span := tracing.StartSpan(ctx, "attribute.Repository.ListByPerson")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(attributeColumns...)
	sb.From("person_attributes")
	where := []string{sb.Equal("person_id", personID)}
	if attributeType != nil {
		where = append(where, sb.Equal("attribute_type", *attributeType))
	}
	if verified != nil {
		where = append(where, sb.Equal("verified", *verified))
	}
	sb.Where(where...)
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	attributes := []models.Attribute{}
	if err := r.db.SelectContext(ctx, &attributes, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": personID}).Error("Failed to list attributes")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list attributes")
	}
	return attributes, nil
}

// Update applies the patch fields to an attribute; nil fields are left untouched
func (r *Repository) Update(ctx context.Context, id string, patch models.AttributePatch) (*models.Attribute, error) {
	ctx, span := tracing.StartSpan(ctx, "attribute.Repository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("person_attributes")
	assignments := []string{sb.Assign("updated_at", time.Now().UTC())}
	if patch.AttributeValue != nil {
		assignments = append(assignments, sb.Assign("attribute_value", *patch.AttributeValue))
	}
	if patch.ConfidenceScore != nil {
		assignments = append(assignments, sb.Assign("confidence_score", *patch.ConfidenceScore))
	}
	if patch.ValidFrom != nil {
		assignments = append(assignments, sb.Assign("valid_from", *patch.ValidFrom))
	}
	if patch.ValidTo != nil {
		assignments = append(assignments, sb.Assign("valid_to", *patch.ValidTo))
	}
	if patch.Notes != nil {
		assignments = append(assignments, sb.Assign("notes", *patch.Notes))
	}
	if patch.Verified != nil {
		assignments = append(assignments, sb.Assign("verified", *patch.Verified))
	}
	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to update attribute")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update attribute")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("attribute %s not found", id))
	}

	return r.Get(ctx, id)
}

// Delete removes an attribute
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "attribute.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("person_attributes")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to delete attribute")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete attribute")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("attribute %s not found", id))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted attribute")
	return nil
}

// ReassignPerson moves every attribute owned by fromPersonID to toPersonID.
// Joins the transaction bound to ctx when one is open.
func (r *Repository) ReassignPerson(ctx context.Context, fromPersonID, toPersonID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "attribute.Repository.ReassignPerson")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
	}
	defer tx.Rollback(ctx)

	result, err := tx.ExecContext(ctx, "UPDATE person_attributes SET person_id = $1, updated_at = $2 WHERE person_id = $3", toPersonID, time.Now().UTC(), fromPersonID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"from": fromPersonID, "to": toPersonID}).Error("Failed to reassign attributes")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign attributes")
	}

	rows, _ := result.RowsAffected()
	if err := tx.Commit(ctx); err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign attributes")
	}
	return rows, nil
}
