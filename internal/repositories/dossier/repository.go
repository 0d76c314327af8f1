package dossier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

var dossierColumns = []string{"id", "title", "description", "status", "created_by", "created_at", "updated_at"}

// Repository handles dossier persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new dossier repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) DB() database.DB {
	return r.db
}

// Create inserts a new dossier
func (r *Repository) Create(ctx context.Context, req models.CreateDossierRequest, createdBy *string) (*models.Dossier, error) {
	ctx, span := tracing.StartSpan(ctx, "dossier.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	status := req.Status
	if status == "" {
		status = models.DossierStatusActive
	}

	dossier := &models.Dossier{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("dossiers")
	sb.Cols(dossierColumns...)
	sb.Values(dossier.ID, dossier.Title, dossier.Description, dossier.Status, dossier.CreatedBy, dossier.CreatedAt, dossier.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"title": req.Title}).Error("Failed to create dossier")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create dossier")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": dossier.ID}).Info("Created dossier")
	return dossier, nil
}

// Get retrieves a dossier by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Dossier, error) {
	ctx, span := tracing.StartSpan(ctx, "dossier.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(dossierColumns...)
	sb.From("dossiers")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var dossier models.Dossier
	if err := r.db.GetContext(ctx, &dossier, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "dossier %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get dossier")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get dossier")
	}

	return &dossier, nil
}

// Exists reports whether a dossier row exists
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "dossier.Repository.Exists")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM dossiers WHERE id = $1", id); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to check dossier existence")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check dossier")
	}
	return count > 0, nil
}

// List retrieves all dossiers, optionally filtered by status
func (r *Repository) List(ctx context.Context, status *string) ([]models.Dossier, error) {
	ctx, span := tracing.StartSpan(ctx, "dossier.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(dossierColumns...)
	sb.From("dossiers")
	if status != nil {
		sb.Where(sb.Equal("status", *status))
	}
	sb.OrderBy("updated_at DESC")

	query, args := sb.Build()
	dossiers := []models.Dossier{}
	if err := r.db.SelectContext(ctx, &dossiers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dossiers")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dossiers")
	}
	return dossiers, nil
}

// Update applies the patch fields to a dossier; nil fields are left untouched
func (r *Repository) Update(ctx context.Context, id string, patch models.DossierPatch) (*models.Dossier, error) {
	ctx, span := tracing.StartSpan(ctx, "dossier.Repository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("dossiers")
	assignments := []string{sb.Assign("updated_at", time.Now().UTC())}
	if patch.Title != nil {
		assignments = append(assignments, sb.Assign("title", *patch.Title))
	}
	if patch.Description != nil {
		assignments = append(assignments, sb.Assign("description", *patch.Description))
	}
	if patch.Status != nil {
		assignments = append(assignments, sb.Assign("status", *patch.Status))
	}
	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to update dossier")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update dossier")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("dossier %s not found", id))
	}

	return r.Get(ctx, id)
}

// Delete removes a dossier; persons, attributes, relationships and merge log
// rows follow via FK cascade
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "dossier.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("dossiers")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to delete dossier")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete dossier")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("dossier %s not found", id))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted dossier")
	return nil
}

// Stats aggregates per-dossier counts for the case overview
func (r *Repository) Stats(ctx context.Context, id string) (*models.DossierStats, error) {
	ctx, span := tracing.StartSpan(ctx, "dossier.Repository.Stats")
	defer span.End()

	exists, err := r.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "dossier %s not found", id)
	}

	query := `
		SELECT
			COUNT(DISTINCT p.id) AS person_count,
			COUNT(DISTINCT a.id) AS attribute_count,
			COUNT(DISTINCT a.id) FILTER (WHERE a.verified) AS verified_attributes,
			COUNT(DISTINCT r.id) AS relationship_count,
			COUNT(DISTINCT ml.id) AS merge_count,
			COALESCE(AVG(p.confidence_score), 0) AS avg_confidence
		FROM dossiers d
		LEFT JOIN persons p ON p.dossier_id = d.id
		LEFT JOIN person_attributes a ON a.person_id = p.id
		LEFT JOIN person_relationships r ON r.dossier_id = d.id
		LEFT JOIN person_merge_log ml ON ml.dossier_id = d.id
		WHERE d.id = $1
	`

	var stats struct {
		PersonCount        int     `db:"person_count"`
		AttributeCount     int     `db:"attribute_count"`
		VerifiedAttributes int     `db:"verified_attributes"`
		RelationshipCount  int     `db:"relationship_count"`
		MergeCount         int     `db:"merge_count"`
		AvgConfidence      float64 `db:"avg_confidence"`
	}
	if err := r.db.GetContext(ctx, &stats, query, id); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get dossier stats")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get dossier stats")
	}

	return &models.DossierStats{
		DossierID:          id,
		PersonCount:        stats.PersonCount,
		AttributeCount:     stats.AttributeCount,
		VerifiedAttributes: stats.VerifiedAttributes,
		RelationshipCount:  stats.RelationshipCount,
		MergeCount:         stats.MergeCount,
		AvgConfidence:      stats.AvgConfidence,
	}, nil
}
