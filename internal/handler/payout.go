package handler

import (
	"club-marketplace/internal/dto"
	"club-marketplace/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type PayoutHandler struct {
	payoutService service.PayoutService
}

func NewPayoutHandler(payoutService service.PayoutService) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
	}
}

func (h *PayoutHandler) Project(c echo.Context) error {
	ctx := c.Request().Context()

	clubID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	proj, err := h.payoutService.ProjectPendingPayout(ctx, clubID)
	if err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, proj)
}

func (h *PayoutHandler) Process(c echo.Context) error {
	ctx := c.Request().Context()

	clubID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req dto.ProcessPayoutRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	payout, err := h.payoutService.ProcessPayout(ctx, clubID, req.Amount, req.Method, req.Reference)
	if err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusCreated, payout)
}

func (h *PayoutHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	clubID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	payouts, err := h.payoutService.ListPayouts(ctx, clubID)
	if err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, payouts)
}

func (h *PayoutHandler) BatchSettle(c echo.Context) error {
	ctx := c.Request().Context()

	created, err := h.payoutService.BatchSettle(ctx)
	if err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, created)
}

func (h *PayoutHandler) Confirm(c echo.Context) error {
	ctx := c.Request().Context()

	payoutID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req dto.ConfirmPayoutRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.payoutService.ConfirmPayout(ctx, payoutID, req.Method, req.Reference); err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "paid"})
}

func (h *PayoutHandler) Fail(c echo.Context) error {
	ctx := c.Request().Context()

	payoutID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.payoutService.FailPayout(ctx, payoutID); err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "failed"})
}
