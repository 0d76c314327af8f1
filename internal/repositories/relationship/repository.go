package relationship

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

var relationshipColumns = []string{"id", "dossier_id", "person_a_id", "person_b_id", "relationship_type", "description", "confidence_score", "evidence_refs", "valid_from", "valid_to", "created_at", "updated_at"}

// Repository handles relationship persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new relationship repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) DB() database.DB {
	return r.db
}

// Create inserts a relationship. Both endpoints must exist and belong to
// dossierID (400 otherwise); a duplicate (dossier, a, b, type) tuple is a 409.
// Merge reassignment bypasses this check on purpose, so duplicates created by
// merges survive.
func (r *Repository) Create(ctx context.Context, dossierID string, req models.CreateRelationshipRequest) (*models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.Create")
	defer span.End()

	var endpointCount int
	query := "SELECT COUNT(*) FROM persons WHERE id IN ($1, $2) AND dossier_id = $3"
	if err := r.db.GetContext(ctx, &endpointCount, query, req.PersonAID, req.PersonBID, dossierID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dossier_id": dossierID}).Error("Failed to check relationship endpoints")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create relationship")
	}
	if endpointCount != 2 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "both persons must exist in the dossier")
	}

	var duplicateCount int
	query = "SELECT COUNT(*) FROM person_relationships WHERE dossier_id = $1 AND person_a_id = $2 AND person_b_id = $3 AND relationship_type = $4"
	if err := r.db.GetContext(ctx, &duplicateCount, query, dossierID, req.PersonAID, req.PersonBID, req.RelationshipType); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dossier_id": dossierID}).Error("Failed to check duplicate relationship")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create relationship")
	}
	if duplicateCount > 0 {
		return nil, httperror.NewHTTPError(http.StatusConflict, "relationship already exists")
	}

	now := time.Now().UTC()
	confidence := 0.5
	if req.ConfidenceScore != nil {
		confidence = *req.ConfidenceScore
	}
	evidenceRefs := req.EvidenceRefs
	if evidenceRefs == nil {
		evidenceRefs = []string{}
	}

	relationship := &models.Relationship{
		ID:               uuid.New().String(),
		DossierID:        dossierID,
		PersonAID:        req.PersonAID,
		PersonBID:        req.PersonBID,
		RelationshipType: req.RelationshipType,
		Description:      req.Description,
		ConfidenceScore:  confidence,
		EvidenceRefs:     pq.StringArray(evidenceRefs),
		ValidFrom:        req.ValidFrom,
		ValidTo:          req.ValidTo,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("person_relationships")
	sb.Cols(relationshipColumns...)
	sb.Values(relationship.ID, relationship.DossierID, relationship.PersonAID, relationship.PersonBID, relationship.RelationshipType, relationship.Description, relationship.ConfidenceScore, relationship.EvidenceRefs, relationship.ValidFrom, relationship.ValidTo, relationship.CreatedAt, relationship.UpdatedAt)

	insertQuery, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, insertQuery, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dossier_id": dossierID, "person_a_id": req.PersonAID, "person_b_id": req.PersonBID}).Error("Failed to create relationship")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create relationship")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": relationship.ID, "dossier_id": dossierID}).Info("Created relationship")
	return relationship, nil
}

// Get retrieves a relationship by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(relationshipColumns...)
	sb.From("person_relationships")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var relationship models.Relationship
	if err := r.db.GetContext(ctx, &relationship, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "relationship %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get relationship")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get relationship")
	}

	return &relationship, nil
}

// List retrieves relationships matching the filter. A person filter matches
// either endpoint position. Ordering is by creation time descending.
func (r *Repository) List(ctx context.Context, filter models.RelationshipFilter) ([]models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(relationshipColumns...)
	sb.From("person_relationships")
	where := []string{}
	if filter.DossierID != "" {
		where = append(where, sb.Equal("dossier_id", filter.DossierID))
	}
	if filter.PersonID != "" {
		where = append(where, sb.Or(sb.Equal("person_a_id", filter.PersonID), sb.Equal("person_b_id", filter.PersonID)))
	}
	if filter.RelationshipType != "" {
		where = append(where, sb.Equal("relationship_type", filter.RelationshipType))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	relationships := []models.Relationship{}
	if err := r.db.SelectContext(ctx, &relationships, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dossier_id": filter.DossierID, "person_id": filter.PersonID}).Error("Failed to list relationships")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list relationships")
	}
	return relationships, nil
}

// Update applies the patch fields to a relationship; nil fields are left untouched
func (r *Repository) Update(ctx context.Context, id string, patch models.RelationshipPatch) (*models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("person_relationships")
	assignments := []string{sb.Assign("updated_at", time.Now().UTC())}
	if patch.RelationshipType != nil {
		assignments = append(assignments, sb.Assign("relationship_type", *patch.RelationshipType))
	}
	if patch.Description != nil {
		assignments = append(assignments, sb.Assign("description", *patch.Description))
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
	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to update relationship")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update relationship")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("relationship %s not found", id))
	}

	return r.Get(ctx, id)
}

// Delete removes a relationship. Hard delete, no cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("person_relationships")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to delete relationship")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete relationship")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("relationship %s not found", id))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted relationship")
	return nil
}

// ReassignEndpoints rewrites every endpoint that references fromPersonID to
// reference toPersonID, in either position. Joins the transaction bound to ctx
// when one is open. Collapsed duplicates are kept to preserve evidence trails.
func (r *Repository) ReassignEndpoints(ctx context.Context, fromPersonID, toPersonID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.ReassignEndpoints")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	resultA, err := tx.ExecContext(ctx, "UPDATE person_relationships SET person_a_id = $1, updated_at = $2 WHERE person_a_id = $3", toPersonID, now, fromPersonID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"from": fromPersonID, "to": toPersonID}).Error("Failed to reassign relationship person_a endpoints")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign relationships")
	}

	resultB, err := tx.ExecContext(ctx, "UPDATE person_relationships SET person_b_id = $1, updated_at = $2 WHERE person_b_id = $3", toPersonID, now, fromPersonID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"from": fromPersonID, "to": toPersonID}).Error("Failed to reassign relationship person_b endpoints")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign relationships")
	}

	rowsA, _ := resultA.RowsAffected()
	rowsB, _ := resultB.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign relationships")
	}
	return rowsA + rowsB, nil
}
