// Package attribute exposes the attribute API surface
package attribute

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
	"github.com/Ramsey-B/aster/pkg/utils"

	attributerepo "github.com/Ramsey-B/aster/internal/repositories/attribute"
)

// Handler handles attribute routes
type Handler struct {
	logger        ectologger.Logger
	attributeRepo *attributerepo.Repository
}

// NewHandler creates a new attribute handler
func NewHandler(logger ectologger.Logger, attributeRepo *attributerepo.Repository) *Handler {
	return &Handler{
		logger:        logger,
		attributeRepo: attributeRepo,
	}
}

// Register registers attribute routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// Get returns an attribute by id
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "attribute.Handler.Get")
	defer span.End()

	attribute, err := h.attributeRepo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"attribute": attribute})
}

// Update applies a partial update to an attribute
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "attribute.Handler.Update")
	defer span.End()

	patch, err := utils.BindRequest[models.AttributePatch](c)
	if err != nil {
		return err
	}

	attribute, err := h.attributeRepo.Update(ctx, c.Param("id"), patch)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"attribute": attribute})
}

// Delete removes an attribute
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "attribute.Handler.Delete")
	defer span.End()

	if err := h.attributeRepo.Delete(ctx, c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Attribute deleted"})
}
