// Package merging implements the person merge engine
package merging

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aster/internal/repositories/attribute"
	"github.com/Ramsey-B/aster/internal/repositories/media"
	"github.com/Ramsey-B/aster/internal/repositories/mergelog"
	"github.com/Ramsey-B/aster/internal/repositories/person"
	"github.com/Ramsey-B/aster/internal/repositories/relationship"
	"github.com/Ramsey-B/aster/pkg/events"
	"github.com/Ramsey-B/aster/pkg/metrics"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Engine folds one person record into another. All writes for a merge run in
// a single transaction; the merged person no longer exists once the merge
// commits, so a repeated request reports not found rather than success.
type Engine struct {
	logger           ectologger.Logger
	personRepo       *person.Repository
	attributeRepo    *attribute.Repository
	relationshipRepo *relationship.Repository
	mediaRepo        *media.Repository
	mergeLogRepo     *mergelog.Repository
	emitter          *events.Emitter
}

// NewEngine creates a new merge engine. The emitter may be nil when event
// publishing is disabled.
func NewEngine(
	logger ectologger.Logger,
	personRepo *person.Repository,
	attributeRepo *attribute.Repository,
	relationshipRepo *relationship.Repository,
	mediaRepo *media.Repository,
	mergeLogRepo *mergelog.Repository,
	emitter *events.Emitter,
) *Engine {
	return &Engine{
		logger:           logger,
		personRepo:       personRepo,
		attributeRepo:    attributeRepo,
		relationshipRepo: relationshipRepo,
		mediaRepo:        mediaRepo,
		mergeLogRepo:     mergeLogRepo,
		emitter:          emitter,
	}
}

// Merge absorbs the merged person into the primary person.
//
// Within one transaction it:
//   - appends the merged person's id to the primary's merged_from
//   - reassigns the merged person's attributes to the primary
//   - rewrites relationship endpoints on both sides
//   - reassigns media links
//   - records the merge in the audit log
//   - deletes the merged person row
//
// Either every step applies or none do.
func (e *Engine) Merge(ctx context.Context, req models.MergePersonsRequest, actor string) (*models.MergePersonsResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.Merge")
	defer span.End()

	started := time.Now()

	if req.PrimaryPersonID == req.MergedPersonID {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "cannot merge a person with itself")
	}

	primary, err := e.personRepo.Get(ctx, req.PrimaryPersonID)
	if err != nil {
		return nil, err
	}

	merged, err := e.personRepo.Get(ctx, req.MergedPersonID)
	if err != nil {
		return nil, err
	}

	if err := checkMergeable(primary, merged); err != nil {
		return nil, err
	}

	ctxTx, tx, err := e.personRepo.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to open merge transaction")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
	}
	defer tx.Rollback(ctxTx)

	if err := e.personRepo.AppendMergedFrom(ctxTx, primary.ID, merged.ID); err != nil {
		return nil, err
	}

	attrRows, err := e.attributeRepo.ReassignPerson(ctxTx, merged.ID, primary.ID)
	if err != nil {
		return nil, err
	}

	relRows, err := e.relationshipRepo.ReassignEndpoints(ctxTx, merged.ID, primary.ID)
	if err != nil {
		return nil, err
	}

	mediaRows, err := e.mediaRepo.ReassignPerson(ctxTx, merged.ID, primary.ID)
	if err != nil {
		return nil, err
	}

	var reason *string
	if req.Reason != "" {
		reason = &req.Reason
	}
	var mergedBy *string
	if actor != "" {
		mergedBy = &actor
	}

	if _, err := e.mergeLogRepo.Insert(ctxTx, primary.DossierID, primary.ID, merged.ID, reason, mergedBy); err != nil {
		return nil, err
	}

	if err := e.personRepo.Delete(ctxTx, merged.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctxTx); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"primary_person_id": primary.ID,
			"merged_person_id":  merged.ID,
		}).Error("Failed to commit merge transaction")
		metrics.RecordMerge("error", time.Since(started).Seconds())
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to merge persons")
	}

	metrics.RecordMerge("success", time.Since(started).Seconds())
	metrics.RecordReassigned("attribute", attrRows)
	metrics.RecordReassigned("relationship", relRows)
	metrics.RecordReassigned("media", mediaRows)

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"primary_person_id":        primary.ID,
		"merged_person_id":         merged.ID,
		"attributes_reassigned":    attrRows,
		"relationships_reassigned": relRows,
		"media_reassigned":         mediaRows,
	}).Info("Merged person records")

	e.emitMerged(ctx, primary.ID, merged.ID, req.Reason, actor)

	return &models.MergePersonsResponse{
		Success:         true,
		PrimaryPersonID: primary.ID,
		MergedPersonID:  merged.ID,
	}, nil
}

// checkMergeable rejects pairs that cannot be merged. Both records must
// belong to the same dossier; a person from another dossier is reported as
// not found rather than leaked across dossier boundaries.
func checkMergeable(primary, merged *models.Person) error {
	if primary.DossierID != merged.DossierID {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "person %s not found in dossier %s", merged.ID, primary.DossierID)
	}
	return nil
}

// emitMerged publishes the person.merged event after the merge has
// committed. Publish failures are logged and do not fail the merge.
func (e *Engine) emitMerged(ctx context.Context, primaryID, mergedID, reason, actor string) {
	if e.emitter == nil {
		return
	}

	primary, err := e.personRepo.Get(ctx, primaryID)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("Failed to reload primary person for merge event")
		return
	}

	if err := e.emitter.EmitPersonMerged(ctx, primary, mergedID, reason, actor); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"primary_person_id": primaryID,
			"merged_person_id":  mergedID,
		}).Warn("Failed to publish merge event")
	}
}
