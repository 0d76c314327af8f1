package media

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

var mediaColumns = []string{"id", "person_id", "file_path", "caption", "created_at"}

// Repository handles person media link persistence. Binary storage lives
// outside this service.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new media link repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create attaches a file reference to a person
func (r *Repository) Create(ctx context.Context, personID string, req models.CreateMediaLinkRequest) (*models.MediaLink, error) {
	ctx, span := tracing.StartSpan(ctx, "media.Repository.Create")
	defer span.End()

	var personCount int
	if err := r.db.GetContext(ctx, &personCount, "SELECT COUNT(*) FROM persons WHERE id = $1", personID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": personID}).Error("Failed to check person for media create")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create media link")
	}
	if personCount == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "person %s does not exist", personID)
	}

	link := &models.MediaLink{
		ID:        uuid.New().String(),
		PersonID:  personID,
		FilePath:  req.FilePath,
		Caption:   req.Caption,
		CreatedAt: time.Now().UTC(),
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("person_media")
	sb.Cols(mediaColumns...)
	sb.Values(link.ID, link.PersonID, link.FilePath, link.Caption, link.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": personID}).Error("Failed to create media link")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create media link")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": link.ID, "person_id": personID}).Info("Created media link")
	return link, nil
}

// ListByPerson retrieves media links for a person, newest first
func (r *Repository) ListByPerson(ctx context.Context, personID string) ([]models.MediaLink, error) {
	ctx, span := tracing.StartSpan(ctx, "media.Repository.ListByPerson")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(mediaColumns...)
	sb.From("person_media")
	sb.Where(sb.Equal("person_id", personID))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	links := []models.MediaLink{}
	if err := r.db.SelectContext(ctx, &links, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": personID}).Error("Failed to list media links")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list media links")
	}
	return links, nil
}

// ReassignPerson moves every media link owned by fromPersonID to toPersonID.
// Joins the transaction bound to ctx when one is open.
func (r *Repository) ReassignPerson(ctx context.Context, fromPersonID, toPersonID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "media.Repository.ReassignPerson")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
	}
	defer tx.Rollback(ctx)

	result, err := tx.ExecContext(ctx, "UPDATE person_media SET person_id = $1 WHERE person_id = $2", toPersonID, fromPersonID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"from": fromPersonID, "to": toPersonID}).Error("Failed to reassign media links")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign media links")
	}

	rows, _ := result.RowsAffected()
	if err := tx.Commit(ctx); err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign media links")
	}
	return rows, nil
}
