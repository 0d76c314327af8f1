package mergelog

import (
	"context"
	"database/sql"
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

var mergeLogColumns = []string{"id", "dossier_id", "primary_person_id", "merged_person_id", "reason", "merged_by", "merged_at"}

// Repository handles the merge audit log. Rows are insert-only from
// application code; they are removed only via the dossier cascade.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new merge log repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Insert records one applied merge. Joins the transaction bound to ctx when
// one is open.
func (r *Repository) Insert(ctx context.Context, dossierID, primaryID, mergedID string, reason, mergedBy *string) (*models.MergeLogEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "mergelog.Repository.Insert")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
	}
	defer tx.Rollback(ctx)

	entry := &models.MergeLogEntry{
		ID:              uuid.New().String(),
		DossierID:       dossierID,
		PrimaryPersonID: primaryID,
		MergedPersonID:  mergedID,
		Reason:          reason,
		MergedBy:        mergedBy,
		MergedAt:        time.Now().UTC(),
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("person_merge_log")
	sb.Cols(mergeLogColumns...)
	sb.Values(entry.ID, entry.DossierID, entry.PrimaryPersonID, entry.MergedPersonID, entry.Reason, entry.MergedBy, entry.MergedAt)

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dossier_id": dossierID, "primary_person_id": primaryID, "merged_person_id": mergedID}).Error("Failed to insert merge log entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert merge log entry")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert merge log entry")
	}
	return entry, nil
}

// ListByDossier retrieves the merge history for a dossier, newest first
func (r *Repository) ListByDossier(ctx context.Context, dossierID string) ([]models.MergeLogEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "mergelog.Repository.ListByDossier")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(mergeLogColumns...)
	sb.From("person_merge_log")
	sb.Where(sb.Equal("dossier_id", dossierID))
	sb.OrderBy("merged_at DESC")

	query, args := sb.Build()
	entries := []models.MergeLogEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dossier_id": dossierID}).Error("Failed to list merge log entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list merge log entries")
	}
	return entries, nil
}
