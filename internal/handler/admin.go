package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/thefaces/checkout-service/internal/dto"
	"github.com/thefaces/checkout-service/internal/repository"
	"github.com/thefaces/checkout-service/internal/service"
)

type AdminHandler struct {
	catalogService service.CatalogService
	regRepo        repository.RegistrationRepository
}

func NewAdminHandler(catalogService service.CatalogService, regRepo repository.RegistrationRepository) *AdminHandler {
	return &AdminHandler{
		catalogService: catalogService,
		regRepo:        regRepo,
	}
}

func checkoutIDFromPath(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid checkout id")
	}
	return uint(id), nil
}

func (h *AdminHandler) ListCheckouts(c echo.Context) error {
	cfgs, err := h.catalogService.List(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cfgs)
}

func (h *AdminHandler) CreateCheckout(c echo.Context) error {
	var req dto.CheckoutConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	cfg, err := h.catalogService.Create(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNegativePrice) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusCreated, cfg)
}

func (h *AdminHandler) UpdateCheckout(c echo.Context) error {
	id, err := checkoutIDFromPath(c)
	if err != nil {
		return err
	}

	var req dto.CheckoutConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	cfg, err := h.catalogService.Update(c.Request().Context(), id, &req)
	switch {
	case errors.Is(err, service.ErrNegativePrice):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCheckoutNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "checkout not found")
	case err != nil:
		return err
	}

	return c.JSON(http.StatusOK, cfg)
}

func (h *AdminHandler) DeactivateCheckout(c echo.Context) error {
	id, err := checkoutIDFromPath(c)
	if err != nil {
		return err
	}

	err = h.catalogService.Deactivate(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCheckoutNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "checkout not found")
		}
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListRegistrations(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	regs, err := h.regRepo.List(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, regs)
}
