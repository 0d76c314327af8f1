// Package person exposes the person API surface
package person

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/aster/pkg/context"
	"github.com/Ramsey-B/aster/pkg/cache"
	"github.com/Ramsey-B/aster/pkg/events"
	"github.com/Ramsey-B/aster/pkg/graph"
	"github.com/Ramsey-B/aster/pkg/merging"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/timeline"
	"github.com/Ramsey-B/aster/pkg/tracing"
	"github.com/Ramsey-B/aster/pkg/utils"

	attributerepo "github.com/Ramsey-B/aster/internal/repositories/attribute"
	mediarepo "github.com/Ramsey-B/aster/internal/repositories/media"
	personrepo "github.com/Ramsey-B/aster/internal/repositories/person"
)

// Handler handles person routes. The emitter, mirror, and graph cache are
// nil when their subsystems are disabled.
type Handler struct {
	logger          ectologger.Logger
	personRepo      *personrepo.Repository
	attributeRepo   *attributerepo.Repository
	mediaRepo       *mediarepo.Repository
	mergeEngine     *merging.Engine
	timelineService *timeline.Service
	emitter         *events.Emitter
	mirror          *graph.Mirror
	graphCache      *cache.GraphCache
}

// NewHandler creates a new person handler
func NewHandler(
	logger ectologger.Logger,
	personRepo *personrepo.Repository,
	attributeRepo *attributerepo.Repository,
	mediaRepo *mediarepo.Repository,
	mergeEngine *merging.Engine,
	timelineService *timeline.Service,
	emitter *events.Emitter,
	mirror *graph.Mirror,
	graphCache *cache.GraphCache,
) *Handler {
	return &Handler{
		logger:          logger,
		personRepo:      personRepo,
		attributeRepo:   attributeRepo,
		mediaRepo:       mediaRepo,
		mergeEngine:     mergeEngine,
		timelineService: timelineService,
		emitter:         emitter,
		mirror:          mirror,
		graphCache:      graphCache,
	}
}

// CreatePersonBody is the request body for creating a person outside the
// dossier-scoped route
type CreatePersonBody struct {
	DossierID       string   `json:"dossier_id" validate:"required,uuid4"`
	CanonicalName   string   `json:"canonical_name" validate:"required"`
	Aliases         []string `json:"aliases,omitempty"`
	Description     *string  `json:"description,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// MergeBody is the request body for merging another person into the one
// addressed by the path
type MergeBody struct {
	MergedPersonID string `json:"merged_person_id" validate:"required,uuid4"`
	Reason         string `json:"reason,omitempty"`
}

// Register registers person routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/merge", h.Merge)
	g.GET("/:id/timeline", h.Timeline)
	g.GET("/:id/attributes", h.ListAttributes)
	g.POST("/:id/attributes", h.CreateAttribute)
	g.GET("/:id/media", h.ListMedia)
	g.POST("/:id/media", h.CreateMedia)
}

// List returns persons in a dossier with optional name/alias search
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "person.Handler.List")
	defer span.End()

	dossierID := c.QueryParam("dossier_id")
	if dossierID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "dossier_id is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	page, err := h.personRepo.List(ctx, dossierID, c.QueryParam("search"), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

// Create adds a person to the dossier named in the body
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "person.Handler.Create")
	defer span.End()

	body, err := utils.BindRequest[CreatePersonBody](c)
	if err != nil {
		return err
	}

	person, err := h.personRepo.Create(ctx, body.DossierID, models.CreatePersonRequest{
		CanonicalName:   body.CanonicalName,
		Aliases:         body.Aliases,
		Description:     body.Description,
		ConfidenceScore: body.ConfidenceScore,
	})
	if err != nil {
		return err
	}

	h.afterPersonWrite(c, person)

	return c.JSON(http.StatusCreated, map[string]any{"person": person})
}

// Get returns a person by id
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "person.Handler.Get")
	defer span.End()

	person, err := h.personRepo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"person": person})
}

// Update applies a partial update to a person
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "person.Handler.Update")
	defer span.End()

	patch, err := utils.BindRequest[models.PersonPatch](c)
	if err != nil {
		return err
	}

	person, err := h.personRepo.Update(ctx, c.Param("id"), patch)
	if err != nil {
		return err
	}

	if h.mirror != nil {
		_ = h.mirror.UpsertPerson(ctx, person)
	}
	if h.graphCache != nil {
		h.graphCache.Invalidate(ctx, person.DossierID)
	}

	return c.JSON(http.StatusOK, map[string]any{"person": person})
}

// Delete removes a person and its attributes, relationships, and media
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "person.Handler.Delete")
	defer span.End()

	id := c.Param("id")

	person, err := h.personRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := h.personRepo.Delete(ctx, id); err != nil {
		return err
	}

	actor := appctx.GetUserID(ctx)
	if h.emitter != nil {
		_ = h.emitter.EmitPersonDeleted(ctx, person.DossierID, id, actor)
	}
	if h.mirror != nil {
		_ = h.mirror.DeletePerson(ctx, id)
	}
	if h.graphCache != nil {
		h.graphCache.Invalidate(ctx, person.DossierID)
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Person deleted"})
}

// Merge folds the person named in the body into the person addressed by the
// path
func (h *Handler) Merge(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "person.Handler.Merge")
	defer span.End()

	primaryID := c.Param("id")

	body, err := utils.BindRequest[MergeBody](c)
	if err != nil {
		return err
	}

	resp, err := h.mergeEngine.Merge(ctx, models.MergePersonsRequest{
		PrimaryPersonID: primaryID,
		MergedPersonID:  body.MergedPersonID,
		Reason:          body.Reason,
	}, appctx.GetUserID(ctx))
	if err != nil {
		return err
	}

	if h.mirror != nil {
		_ = h.mirror.MergePersons(ctx, resp.PrimaryPersonID, resp.MergedPersonID)
	}
	if h.graphCache != nil {
		if person, err := h.personRepo.Get(ctx, resp.PrimaryPersonID); err == nil {
			h.graphCache.Invalidate(ctx, person.DossierID)
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// Timeline returns the person's validity-window event sequence
func (h *Handler) Timeline(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "person.Handler.Timeline")
	defer span.End()

	resp, err := h.timelineService.BuildTimeline(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// ListAttributes returns a person's attributes with optional filters
func (h *Handler) ListAttributes(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "person.Handler.ListAttributes")
	defer span.End()

	id := c.Param("id")
	if _, err := h.personRepo.Get(ctx, id); err != nil {
		return err
	}

	var attributeType *string
	if at := c.QueryParam("attribute_type"); at != "" {
		attributeType = &at
	}
	var verified *bool
	if v := c.QueryParam("verified"); v != "" {
		parsed := v == "true"
		verified = &parsed
	}

	attributes, err := h.attributeRepo.ListByPerson(ctx, id, attributeType, verified)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"attributes": attributes})
}

// CreateAttribute records a fact about a person
func (h *Handler) CreateAttribute(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "person.Handler.CreateAttribute")
	defer span.End()

	req, err := utils.BindRequest[models.CreateAttributeRequest](c)
	if err != nil {
		return err
	}

	var createdBy *string
	if actor := appctx.GetUserID(ctx); actor != "" {
		createdBy = &actor
	}

	attribute, err := h.attributeRepo.Create(ctx, c.Param("id"), req, createdBy)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{"attribute": attribute})
}

// ListMedia returns media links attached to a person
func (h *Handler) ListMedia(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "person.Handler.ListMedia")
	defer span.End()

	id := c.Param("id")
	if _, err := h.personRepo.Get(ctx, id); err != nil {
		return err
	}

	media, err := h.mediaRepo.ListByPerson(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"media": media})
}

// CreateMedia attaches a media link to a person
func (h *Handler) CreateMedia(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "person.Handler.CreateMedia")
	defer span.End()

	req, err := utils.BindRequest[models.CreateMediaLinkRequest](c)
	if err != nil {
		return err
	}

	media, err := h.mediaRepo.Create(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{"media": media})
}

// afterPersonWrite fans the person out to the optional event stream, graph
// mirror, and cache
func (h *Handler) afterPersonWrite(c echo.Context, person *models.Person) {
	ctx := c.Request().Context()

	if h.emitter != nil {
		_ = h.emitter.EmitPersonCreated(ctx, person, appctx.GetUserID(ctx))
	}
	if h.mirror != nil {
		_ = h.mirror.UpsertPerson(ctx, person)
	}
	if h.graphCache != nil {
		h.graphCache.Invalidate(ctx, person.DossierID)
	}
}
