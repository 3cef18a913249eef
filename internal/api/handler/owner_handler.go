package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marina/marina-system/internal/core/ports"
)

// OwnerHandler handles HTTP requests for owners.
type OwnerHandler struct {
	service ports.MarinaService
}

func NewOwnerHandler(service ports.MarinaService) *OwnerHandler {
	return &OwnerHandler{service: service}
}

// List handles GET /api/owners.
//
// @Summary      List owners
// @Tags         owners
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ownerResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/owners [get]
func (h *OwnerHandler) List(c echo.Context) error {
	owners, err := h.service.ListOwners(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOwnerResponses(owners))
}

// Get handles GET /api/owners/:id.
//
// @Summary      Get an owner
// @Tags         owners
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Owner id"
// @Success      200  {object}  ownerResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/owners/{id} [get]
func (h *OwnerHandler) Get(c echo.Context) error {
	owner, err := h.service.GetOwner(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOwnerResponse(owner))
}

// Boats handles GET /api/owners/:id/boats.
//
// @Summary      List the boats of an owner
// @Tags         owners
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Owner id"
// @Success      200  {array}   boatResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/owners/{id}/boats [get]
func (h *OwnerHandler) Boats(c echo.Context) error {
	boats, err := h.service.BoatsOfOwner(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBoatResponses(boats))
}

// Create handles POST /api/owners.
//
// @Summary      Create an owner
// @Tags         owners
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      ownerRequest  true  "Owner details"
// @Success      201   {object}  ownerResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/owners [post]
func (h *OwnerHandler) Create(c echo.Context) error {
	var req ownerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	owner, err := h.service.CreateOwner(c.Request().Context(), toOwnerInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toOwnerResponse(owner))
}

// Update handles PUT /api/owners/:id.
//
// @Summary      Update an owner
// @Tags         owners
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Owner id"
// @Param        body  body      ownerRequest  true  "Owner details"
// @Success      200   {object}  ownerResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/owners/{id} [put]
func (h *OwnerHandler) Update(c echo.Context) error {
	var req ownerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	owner, err := h.service.UpdateOwner(c.Request().Context(), c.Param("id"), toOwnerInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOwnerResponse(owner))
}

// Delete handles DELETE /api/owners/:id. The owner's boats are kept.
//
// @Summary      Delete an owner
// @Tags         owners
// @Security     BearerAuth
// @Param        id  path  string  true  "Owner id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/owners/{id} [delete]
func (h *OwnerHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteOwner(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
