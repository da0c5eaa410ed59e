package handler

import (
	"club-marketplace/internal/dto"
	"club-marketplace/internal/middleware"
	"club-marketplace/internal/model"
	"club-marketplace/internal/service"
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func (h *OrderHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	lines := make([]service.LineRequest, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.LineRequest{ProductID: l.ProductID, Quantity: l.Quantity}
	}

	order, err := h.orderService.CreateOrder(ctx, middleware.ActorID(c), lines,
		service.DeliveryInfo{
			RecipientName:  req.RecipientName,
			RecipientPhone: req.RecipientPhone,
			AddressLine:    req.AddressLine,
			City:           req.City,
			Region:         req.Region,
		},
		model.PaymentMethod(req.PaymentMethod),
		req.PaymentReference,
	)
	if err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.GetOrder(ctx, orderID)
	if err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.orderService.CancelOrder, "cancelled")
}

func (h *OrderHandler) Confirm(c echo.Context) error {
	return h.transition(c, h.orderService.ConfirmOrder, "confirmed")
}

func (h *OrderHandler) StartProcessing(c echo.Context) error {
	return h.transition(c, h.orderService.StartProcessing, "processing")
}

func (h *OrderHandler) ConfirmDelivery(c echo.Context) error {
	return h.transition(c, h.orderService.ConfirmDelivery, "delivered")
}

func (h *OrderHandler) transition(c echo.Context, fn func(ctx context.Context, orderID uint) error, status string) error {
	orderID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := fn(c.Request().Context(), orderID); err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

func (h *OrderHandler) ShipItem(c echo.Context) error {
	ctx := c.Request().Context()

	itemID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req dto.ShipItemRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.orderService.ShipLineItem(ctx, itemID, req.TrackingCode, req.Carrier); err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "shipped"})
}

func (h *OrderHandler) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req dto.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.orderService.VerifyPayment(ctx, orderID, req.Success, req.Reference); err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "recorded"})
}
