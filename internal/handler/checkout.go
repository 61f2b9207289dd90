package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/thefaces/checkout-service/internal/dto"
	"github.com/thefaces/checkout-service/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// Submit runs the checkout pipeline. The response is always 200 with a
// result object; business failures travel in result.Error so the form can
// render them inline.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, &dto.CheckoutResult{Error: service.MsgInvalidData})
	}

	result := h.checkoutService.Submit(ctx, &req)

	return c.JSON(http.StatusOK, result)
}

// HostedRedirect sends the buyer of a redirect-only package to its
// external checkout URL.
func (h *CheckoutHandler) HostedRedirect(c echo.Context) error {
	ctx := c.Request().Context()

	key := c.QueryParam("key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Checkout key is required"})
	}

	url, err := h.checkoutService.HostedRedirect(ctx, key)
	switch {
	case errors.Is(err, service.ErrCheckoutNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Checkout not found"})
	case errors.Is(err, service.ErrCheckoutInactive):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "This checkout is not available"})
	case err != nil:
		return err
	}

	return c.Redirect(http.StatusFound, url)
}

func (h *CheckoutHandler) ThankYou(c echo.Context) error {
	ctx := c.Request().Context()

	key := c.QueryParam("key")
	if key == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Checkout key is required"})
	}

	info, err := h.checkoutService.ThankYouInfo(ctx, key)
	if err != nil {
		if errors.Is(err, service.ErrCheckoutNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Checkout not found"})
		}
		return err
	}

	return c.JSON(http.StatusOK, info)
}
