package person

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

var personColumns = []string{"id", "dossier_id", "canonical_name", "aliases", "description", "confidence_score", "merged_from", "created_at", "updated_at"}

// Repository handles person persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new person repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) DB() database.DB {
	return r.db
}

// Create inserts a new person into a dossier.
// Fails with 400 when the dossier does not exist.
func (r *Repository) Create(ctx context.Context, dossierID string, req models.CreatePersonRequest) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Create")
	defer span.End()

	var dossierCount int
	if err := r.db.GetContext(ctx, &dossierCount, "SELECT COUNT(*) FROM dossiers WHERE id = $1", dossierID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dossier_id": dossierID}).Error("Failed to check dossier for person create")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create person")
	}
	if dossierCount == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "dossier %s does not exist", dossierID)
	}

	now := time.Now().UTC()
	confidence := 0.5
	if req.ConfidenceScore != nil {
		confidence = *req.ConfidenceScore
	}
	aliases := req.Aliases
	if aliases == nil {
		aliases = []string{}
	}

	person := &models.Person{
		ID:              uuid.New().String(),
		DossierID:       dossierID,
		CanonicalName:   req.CanonicalName,
		Aliases:         pq.StringArray(aliases),
		Description:     req.Description,
		ConfidenceScore: confidence,
		MergedFrom:      pq.StringArray{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("persons")
	sb.Cols(personColumns...)
	sb.Values(person.ID, person.DossierID, person.CanonicalName, person.Aliases, person.Description, person.ConfidenceScore, person.MergedFrom, person.CreatedAt, person.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dossier_id": dossierID, "canonical_name": req.CanonicalName}).Error("Failed to create person")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create person")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": person.ID, "dossier_id": dossierID}).Info("Created person")
	return person, nil
}

// Get retrieves a person by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(personColumns...)
	sb.From("persons")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "person %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get person")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get person")
	}

	return &person, nil
}

// List retrieves persons in a dossier. search matches case-insensitively
// against the canonical name or exactly against any alias. Ordering is by
// canonical name ascending.
func (r *Repository) List(ctx context.Context, dossierID string, search string, limit, offset int) (*models.PersonListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.List")
	defer span.End()

	if limit < 1 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("persons")
	countWhere := []string{countSb.Equal("dossier_id", dossierID)}
	if search != "" {
		countWhere = append(countWhere, fmt.Sprintf("(canonical_name ILIKE %s OR %s = ANY(aliases))", countSb.Var("%"+search+"%"), countSb.Var(search)))
	}
	countSb.Where(countWhere...)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dossier_id": dossierID, "search": search}).Error("Failed to count persons")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count persons")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(personColumns...)
	sb.From("persons")
	where := []string{sb.Equal("dossier_id", dossierID)}
	if search != "" {
		where = append(where, fmt.Sprintf("(canonical_name ILIKE %s OR %s = ANY(aliases))", sb.Var("%"+search+"%"), sb.Var(search)))
	}
	sb.Where(where...)
	sb.OrderBy("canonical_name ASC")
	sb.Limit(limit).Offset(offset)

	query, args := sb.Build()
	persons := []models.Person{}
	if err := r.db.SelectContext(ctx, &persons, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dossier_id": dossierID, "search": search}).Error("Failed to list persons")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list persons")
	}

	return &models.PersonListResponse{
		Items:      persons,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// Update applies the patch fields to a person; nil fields are left untouched
func (r *Repository) Update(ctx context.Context, id string, patch models.PersonPatch) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("persons")
	assignments := []string{sb.Assign("updated_at", time.Now().UTC())}
	if patch.CanonicalName != nil {
		assignments = append(assignments, sb.Assign("canonical_name", *patch.CanonicalName))
	}
	if patch.Aliases != nil {
		assignments = append(assignments, sb.Assign("aliases", pq.StringArray(*patch.Aliases)))
	}
	if patch.Description != nil {
		assignments = append(assignments, sb.Assign("description", *patch.Description))
	}
	if patch.ConfidenceScore != nil {
		assignments = append(assignments, sb.Assign("confidence_score", *patch.ConfidenceScore))
	}
	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to update person")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update person")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("person %s not found", id))
	}

	return r.Get(ctx, id)
}

// Delete removes a person; attributes, relationships and media follow via FK cascade
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Delete")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
	}
	defer tx.Rollback(ctx)

	result, err := tx.ExecContext(ctx, "DELETE FROM persons WHERE id = $1", id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to delete person")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete person")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("person %s not found", id))
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete person")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted person")
	return nil
}

// AppendMergedFrom appends mergedID to the person's merged_from array.
// Joins the transaction bound to ctx when one is open.
func (r *Repository) AppendMergedFrom(ctx context.Context, primaryID, mergedID string) error {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.AppendMergedFrom")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE persons
		SET merged_from = array_append(COALESCE(merged_from, ARRAY[]::UUID[]), $1),
		    updated_at = $2
		WHERE id = $3
	`
	result, err := tx.ExecContext(ctx, query, mergedID, time.Now().UTC(), primaryID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"primary_id": primaryID, "merged_id": mergedID}).Error("Failed to append merged_from")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to append merged_from")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("person %s not found", primaryID))
	}

	return tx.Commit(ctx)
}
