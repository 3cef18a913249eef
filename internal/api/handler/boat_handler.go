package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marina/marina-system/internal/api/metrics"
	"github.com/marina/marina-system/internal/core/domain"
	"github.com/marina/marina-system/internal/core/ports"
)

// BoatHandler handles HTTP requests for boats and their owner and harbour
// relationships.
type BoatHandler struct {
	service ports.MarinaService
}

func NewBoatHandler(service ports.MarinaService) *BoatHandler {
	return &BoatHandler{service: service}
}

// List handles GET /api/boats.
//
// @Summary      List boats
// @Tags         boats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   boatResponse
// @Router       /api/boats [get]
func (h *BoatHandler) List(c echo.Context) error {
	boats, err := h.service.ListBoats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBoatResponses(boats))
}

// Get handles GET /api/boats/:id.
//
// @Summary      Get a boat
// @Tags         boats
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Boat id"
// @Success      200  {object}  boatResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/boats/{id} [get]
func (h *BoatHandler) Get(c echo.Context) error {
	boat, err := h.service.GetBoat(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBoatResponse(boat))
}

// Owners handles GET /api/boats/:id/owners.
//
// @Summary      List the owners of a boat
// @Tags         boats
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Boat id"
// @Success      200  {array}   ownerResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/boats/{id}/owners [get]
func (h *BoatHandler) Owners(c echo.Context) error {
	owners, err := h.service.OwnersOfBoat(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOwnerResponses(owners))
}

// Create handles POST /api/boats.
//
// @Summary      Create a boat
// @Tags         boats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      boatRequest  true  "Boat details"
// @Success      201   {object}  boatResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/boats [post]
func (h *BoatHandler) Create(c echo.Context) error {
	var req boatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	boat, err := h.service.CreateBoat(c.Request().Context(), toBoatInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toBoatResponse(boat))
}

// Update handles PUT /api/boats/:id.
//
// @Summary      Update a boat
// @Tags         boats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Boat id"
// @Param        body  body      boatRequest  true  "Boat details"
// @Success      200   {object}  boatResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/boats/{id} [put]
func (h *BoatHandler) Update(c echo.Context) error {
	var req boatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	boat, err := h.service.UpdateBoat(c.Request().Context(), c.Param("id"), toBoatInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBoatResponse(boat))
}

// Delete handles DELETE /api/boats/:id.
//
// @Summary      Delete a boat
// @Tags         boats
// @Security     BearerAuth
// @Param        id  path  string  true  "Boat id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/boats/{id} [delete]
func (h *BoatHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteBoat(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// LinkOwner handles PUT /api/boats/:id/owners/:ownerId. Linking an existing
// pair succeeds without change.
//
// @Summary      Link a boat to an owner
// @Tags         boats
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Boat id"
// @Param        ownerId  path      string  true  "Owner id"
// @Success      200      {object}  boatResponse
// @Failure      404      {object}  errorResponse
// @Router       /api/boats/{id}/owners/{ownerId} [put]
func (h *BoatHandler) LinkOwner(c echo.Context) error {
	boat, err := h.service.LinkBoatToOwner(c.Request().Context(), c.Param("id"), c.Param("ownerId"))
	if err != nil {
		return err
	}
	metrics.RelationshipChangesTotal.WithLabelValues("link_owner").Inc()
	return c.JSON(http.StatusOK, toBoatResponse(boat))
}

// UnlinkOwner handles DELETE /api/boats/:id/owners/:ownerId.
//
// @Summary      Unlink a boat from an owner
// @Tags         boats
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Boat id"
// @Param        ownerId  path      string  true  "Owner id"
// @Success      200      {object}  boatResponse
// @Failure      404      {object}  errorResponse
// @Router       /api/boats/{id}/owners/{ownerId} [delete]
func (h *BoatHandler) UnlinkOwner(c echo.Context) error {
	boat, err := h.service.UnlinkBoatFromOwner(c.Request().Context(), c.Param("id"), c.Param("ownerId"))
	if err != nil {
		return err
	}
	metrics.RelationshipChangesTotal.WithLabelValues("unlink_owner").Inc()
	return c.JSON(http.StatusOK, toBoatResponse(boat))
}

// AssignHarbour handles PUT /api/boats/:id/harbour/:harbourId.
//
// @Summary      Berth a boat in a harbour
// @Tags         boats
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string  true  "Boat id"
// @Param        harbourId  path      string  true  "Harbour id"
// @Success      200        {object}  harbourResponse
// @Failure      400        {object}  errorResponse  "harbour full"
// @Failure      404        {object}  errorResponse
// @Router       /api/boats/{id}/harbour/{harbourId} [put]
func (h *BoatHandler) AssignHarbour(c echo.Context) error {
	harbour, err := h.service.AssignBoatToHarbour(c.Request().Context(), c.Param("id"), c.Param("harbourId"))
	if err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			metrics.CapacityRejectionsTotal.Inc()
		}
		return err
	}
	metrics.RelationshipChangesTotal.WithLabelValues("assign_harbour").Inc()
	return c.JSON(http.StatusOK, toHarbourResponse(harbour))
}

// ReleaseHarbour handles DELETE /api/boats/:id/harbour.
//
// @Summary      Remove a boat from its harbour
// @Tags         boats
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Boat id"
// @Success      200  {object}  boatResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/boats/{id}/harbour [delete]
func (h *BoatHandler) ReleaseHarbour(c echo.Context) error {
	boat, err := h.service.RemoveBoatFromHarbour(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	metrics.RelationshipChangesTotal.WithLabelValues("release_harbour").Inc()
	return c.JSON(http.StatusOK, toBoatResponse(boat))
}
