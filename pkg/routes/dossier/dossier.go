// Package dossier exposes the dossier API surface
package dossier

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/aster/pkg/context"
	"github.com/Ramsey-B/aster/pkg/cache"
	"github.com/Ramsey-B/aster/pkg/events"
	"github.com/Ramsey-B/aster/pkg/graph"
	"github.com/Ramsey-B/aster/pkg/graphview"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
	"github.com/Ramsey-B/aster/pkg/utils"

	dossierrepo "github.com/Ramsey-B/aster/internal/repositories/dossier"
	mergelogrepo "github.com/Ramsey-B/aster/internal/repositories/mergelog"
	personrepo "github.com/Ramsey-B/aster/internal/repositories/person"
	relationshiprepo "github.com/Ramsey-B/aster/internal/repositories/relationship"
)

// Handler handles dossier routes. The emitter, mirror, and graph cache are
// nil when their subsystems are disabled.
type Handler struct {
	logger           ectologger.Logger
	dossierRepo      *dossierrepo.Repository
	personRepo       *personrepo.Repository
	relationshipRepo *relationshiprepo.Repository
	mergeLogRepo     *mergelogrepo.Repository
	graphService     *graphview.Service
	emitter          *events.Emitter
	mirror           *graph.Mirror
	graphCache       *cache.GraphCache
}

// NewHandler creates a new dossier handler
func NewHandler(
	logger ectologger.Logger,
	dossierRepo *dossierrepo.Repository,
	personRepo *personrepo.Repository,
	relationshipRepo *relationshiprepo.Repository,
	mergeLogRepo *mergelogrepo.Repository,
	graphService *graphview.Service,
	emitter *events.Emitter,
	mirror *graph.Mirror,
	graphCache *cache.GraphCache,
) *Handler {
	return &Handler{
		logger:           logger,
		dossierRepo:      dossierRepo,
		personRepo:       personRepo,
		relationshipRepo: relationshipRepo,
		mergeLogRepo:     mergeLogRepo,
		graphService:     graphService,
		emitter:          emitter,
		mirror:           mirror,
		graphCache:       graphCache,
	}
}

// Register registers dossier routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/stats", h.Stats)
	g.GET("/:id/persons", h.ListPersons)
	g.POST("/:id/persons", h.CreatePerson)
	g.GET("/:id/relationships", h.ListRelationships)
	g.POST("/:id/relationships", h.CreateRelationship)
	g.GET("/:id/relationship-graph", h.RelationshipGraph)
	g.GET("/:id/merge-log", h.MergeLog)
}

// List returns all dossiers, optionally filtered by status
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dossier.Handler.List")
	defer span.End()

	var status *string
	if s := c.QueryParam("status"); s != "" {
		status = &s
	}

	dossiers, err := h.dossierRepo.List(ctx, status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"dossiers": dossiers})
}

// Create creates a new dossier owned by the acting investigator
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dossier.Handler.Create")
	defer span.End()

	req, err := utils.BindRequest[models.CreateDossierRequest](c)
	if err != nil {
		return err
	}

	var createdBy *string
	if actor := appctx.GetUserID(ctx); actor != "" {
		createdBy = &actor
	}

	dossier, err := h.dossierRepo.Create(ctx, req, createdBy)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{"dossier": dossier})
}

// Get returns a dossier by id
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dossier.Handler.Get")
	defer span.End()

	dossier, err := h.dossierRepo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"dossier": dossier})
}

// Update applies a partial update to a dossier
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dossier.Handler.Update")
	defer span.End()

	patch, err := utils.BindRequest[models.DossierPatch](c)
	if err != nil {
		return err
	}

	dossier, err := h.dossierRepo.Update(ctx, c.Param("id"), patch)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"dossier": dossier})
}

// Delete removes a dossier and everything scoped to it
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dossier.Handler.Delete")
	defer span.End()

	id := c.Param("id")
	if err := h.dossierRepo.Delete(ctx, id); err != nil {
		return err
	}

	if h.graphCache != nil {
		h.graphCache.Invalidate(ctx, id)
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Dossier deleted"})
}

// Stats returns aggregate counts for a dossier
func (h *Handler) Stats(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dossier.Handler.Stats")
	defer span.End()

	stats, err := h.dossierRepo.Stats(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

// ListPersons returns the persons in a dossier
func (h *Handler) ListPersons(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dossier.Handler.ListPersons")
	defer span.End()

	id := c.Param("id")
	if err := h.requireDossier(ctx, id); err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	page, err := h.personRepo.List(ctx, id, c.QueryParam("search"), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

// CreatePerson adds a person to a dossier
func (h *Handler) CreatePerson(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dossier.Handler.CreatePerson")
	defer span.End()

	req, err := utils.BindRequest[models.CreatePersonRequest](c)
	if err != nil {
		return err
	}

	person, err := h.personRepo.Create(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}

	h.afterPersonWrite(c, person)

	return c.JSON(http.StatusCreated, map[string]any{"person": person})
}

// ListRelationships returns a dossier's relationships
func (h *Handler) ListRelationships(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dossier.Handler.ListRelationships")
	defer span.End()

	id := c.Param("id")
	if err := h.requireDossier(ctx, id); err != nil {
		return err
	}

	relationships, err := h.relationshipRepo.List(ctx, models.RelationshipFilter{
		DossierID:        id,
		PersonID:         c.QueryParam("person_id"),
		RelationshipType: c.QueryParam("relationship_type"),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"relationships": relationships})
}

// CreateRelationship links two persons in a dossier
func (h *Handler) CreateRelationship(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dossier.Handler.CreateRelationship")
	defer span.End()

	id := c.Param("id")
	if err := h.requireDossier(ctx, id); err != nil {
		return err
	}

	req, err := utils.BindRequest[models.CreateRelationshipRequest](c)
	if err != nil {
		return err
	}

	relationship, err := h.relationshipRepo.Create(ctx, id, req)
	if err != nil {
		return err
	}

	h.afterRelationshipWrite(c, relationship)

	return c.JSON(http.StatusCreated, map[string]any{"relationship": relationship})
}

// RelationshipGraph returns the renderable graph, optionally focused on one
// person's two-hop neighborhood
func (h *Handler) RelationshipGraph(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dossier.Handler.RelationshipGraph")
	defer span.End()

	graphResp, err := h.graphService.BuildGraph(ctx, c.Param("id"), c.QueryParam("focus"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, graphResp)
}

// MergeLog returns the merge audit log for a dossier
func (h *Handler) MergeLog(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dossier.Handler.MergeLog")
	defer span.End()

	id := c.Param("id")
	if err := h.requireDossier(ctx, id); err != nil {
		return err
	}

	entries, err := h.mergeLogRepo.ListByDossier(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"merge_log": entries})
}

func (h *Handler) requireDossier(ctx context.Context, id string) error {
	exists, err := h.dossierRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "dossier %s not found", id)
	}
	return nil
}

// afterPersonWrite fans the new person out to the optional event stream,
// graph mirror, and cache. Failures are logged by the subsystems themselves.
func (h *Handler) afterPersonWrite(c echo.Context, person *models.Person) {
	ctx := c.Request().Context()
	actor := appctx.GetUserID(ctx)

	if h.emitter != nil {
		_ = h.emitter.EmitPersonCreated(ctx, person, actor)
	}
	if h.mirror != nil {
		_ = h.mirror.UpsertPerson(ctx, person)
	}
	if h.graphCache != nil {
		h.graphCache.Invalidate(ctx, person.DossierID)
	}
}

func (h *Handler) afterRelationshipWrite(c echo.Context, rel *models.Relationship) {
	ctx := c.Request().Context()
	actor := appctx.GetUserID(ctx)

	if h.emitter != nil {
		_ = h.emitter.EmitRelationshipCreated(ctx, rel, actor)
	}
	if h.mirror != nil {
		_ = h.mirror.UpsertRelationship(ctx, rel)
	}
	if h.graphCache != nil {
		h.graphCache.Invalidate(ctx, rel.DossierID)
	}
}
