package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marina/marina-system/internal/core/ports"
)

// HarbourHandler handles HTTP requests for harbours.
type HarbourHandler struct {
	service ports.MarinaService
}

func NewHarbourHandler(service ports.MarinaService) *HarbourHandler {
	return &HarbourHandler{service: service}
}

// List handles GET /api/harbours.
//
// @Summary      List harbours
// @Tags         harbours
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   harbourResponse
// @Router       /api/harbours [get]
func (h *HarbourHandler) List(c echo.Context) error {
	harbours, err := h.service.ListHarbours(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toHarbourResponses(harbours))
}

// Get handles GET /api/harbours/:id.
//
// @Summary      Get a harbour
// @Tags         harbours
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Harbour id"
// @Success      200  {object}  harbourResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/harbours/{id} [get]
func (h *HarbourHandler) Get(c echo.Context) error {
	harbour, err := h.service.GetHarbour(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toHarbourResponse(harbour))
}

// Boats handles GET /api/harbours/:id/boats.
//
// @Summary      List the boats berthed in a harbour
// @Tags         harbours
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Harbour id"
// @Success      200  {array}   boatResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/harbours/{id}/boats [get]
func (h *HarbourHandler) Boats(c echo.Context) error {
	boats, err := h.service.BoatsInHarbour(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBoatResponses(boats))
}

// Create handles POST /api/harbours.
//
// @Summary      Create a harbour
// @Tags         harbours
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      harbourRequest  true  "Harbour details"
// @Success      201   {object}  harbourResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/harbours [post]
func (h *HarbourHandler) Create(c echo.Context) error {
	var req harbourRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	harbour, err := h.service.CreateHarbour(c.Request().Context(), toHarbourInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toHarbourResponse(harbour))
}

// Update handles PUT /api/harbours/:id. Capacity cannot drop below the
// number of boats already berthed.
//
// @Summary      Update a harbour
// @Tags         harbours
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Harbour id"
// @Param        body  body      harbourRequest  true  "Harbour details"
// @Success      200   {object}  harbourResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/harbours/{id} [put]
func (h *HarbourHandler) Update(c echo.Context) error {
	var req harbourRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	harbour, err := h.service.UpdateHarbour(c.Request().Context(), c.Param("id"), toHarbourInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toHarbourResponse(harbour))
}

// Delete handles DELETE /api/harbours/:id. Berthed boats are released.
//
// @Summary      Delete a harbour
// @Tags         harbours
// @Security     BearerAuth
// @Param        id  path  string  true  "Harbour id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/harbours/{id} [delete]
func (h *HarbourHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteHarbour(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
