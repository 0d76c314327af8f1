// Package relationship exposes the relationship API surface
package relationship

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/aster/pkg/context"
	"github.com/Ramsey-B/aster/pkg/cache"
	"github.com/Ramsey-B/aster/pkg/events"
	"github.com/Ramsey-B/aster/pkg/graph"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
	"github.com/Ramsey-B/aster/pkg/utils"

	relationshiprepo "github.com/Ramsey-B/aster/internal/repositories/relationship"
)

// Handler handles relationship routes. The emitter, mirror, and graph cache
// are nil when their subsystems are disabled.
type Handler struct {
	logger           ectologger.Logger
	relationshipRepo *relationshiprepo.Repository
	emitter          *events.Emitter
	mirror           *graph.Mirror
	graphCache       *cache.GraphCache
}

// NewHandler creates a new relationship handler
func NewHandler(
	logger ectologger.Logger,
	relationshipRepo *relationshiprepo.Repository,
	emitter *events.Emitter,
	mirror *graph.Mirror,
	graphCache *cache.GraphCache,
) *Handler {
	return &Handler{
		logger:           logger,
		relationshipRepo: relationshipRepo,
		emitter:          emitter,
		mirror:           mirror,
		graphCache:       graphCache,
	}
}

// Register registers relationship routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// Get returns a relationship by id
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "relationship.Handler.Get")
	defer span.End()

	relationship, err := h.relationshipRepo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"relationship": relationship})
}

// Update applies a partial update to a relationship
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "relationship.Handler.Update")
	defer span.End()

	patch, err := utils.BindRequest[models.RelationshipPatch](c)
	if err != nil {
		return err
	}

	relationship, err := h.relationshipRepo.Update(ctx, c.Param("id"), patch)
	if err != nil {
		return err
	}

	if h.mirror != nil {
		_ = h.mirror.UpsertRelationship(ctx, relationship)
	}
	if h.graphCache != nil {
		h.graphCache.Invalidate(ctx, relationship.DossierID)
	}

	return c.JSON(http.StatusOK, map[string]any{"relationship": relationship})
}

// Delete removes a relationship
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "relationship.Handler.Delete")
	defer span.End()

	id := c.Param("id")

	relationship, err := h.relationshipRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := h.relationshipRepo.Delete(ctx, id); err != nil {
		return err
	}

	if h.emitter != nil {
		_ = h.emitter.EmitRelationshipDeleted(ctx, relationship.DossierID, id, relationship.RelationshipType, appctx.GetUserID(ctx))
	}
	if h.mirror != nil {
		_ = h.mirror.DeleteRelationship(ctx, id)
	}
	if h.graphCache != nil {
		h.graphCache.Invalidate(ctx, relationship.DossierID)
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Relationship deleted"})
}
