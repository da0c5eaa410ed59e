package handler

import (
	"club-marketplace/internal/dto"
	"club-marketplace/internal/middleware"
	"club-marketplace/internal/service"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type ClubHandler struct {
	clubService   service.ClubService
	rewardService service.RewardService
}

func NewClubHandler(clubService service.ClubService, rewardService service.RewardService) *ClubHandler {
	return &ClubHandler{
		clubService:   clubService,
		rewardService: rewardService,
	}
}

func (h *ClubHandler) GetTierInfo(c echo.Context) error {
	ctx := c.Request().Context()

	clubID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	info, err := h.clubService.GetTierInfo(ctx, clubID)
	if err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, info)
}

func (h *ClubHandler) GetLedger(c echo.Context) error {
	ctx := c.Request().Context()

	clubID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	entries, err := h.rewardService.GetLedger(ctx, clubID, limit, offset)
	if err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, entries)
}

func (h *ClubHandler) RecordReview(c echo.Context) error {
	ctx := c.Request().Context()

	clubID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req dto.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.rewardService.RecordReview(ctx, clubID, req.ReviewID, req.ProductName, req.Rating); err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *ClubHandler) AdjustPoints(c echo.Context) error {
	ctx := c.Request().Context()

	clubID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req dto.AdjustPointsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.rewardService.AdjustPoints(ctx, clubID, req.Delta, req.Reason, middleware.ActorID(c)); err != nil {
		return toHTTP(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "adjusted"})
}
