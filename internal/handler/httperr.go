package handler

import (
	"club-marketplace/internal/apperror"
	"net/http"

	"github.com/labstack/echo/v4"
)

// toHTTP maps core error kinds to status codes; anything unrecognized stays a
// 500 handled by echo.
func toHTTP(err error) error {
	kind, ok := apperror.KindOf(err)
	if !ok {
		return err
	}

	status := http.StatusInternalServerError
	switch kind {
	case apperror.KindValidation:
		status = http.StatusBadRequest
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindInsufficientStock, apperror.KindProductUnavailable,
		apperror.KindInvalidTransition, apperror.KindConcurrencyConflict:
		status = http.StatusUnprocessableEntity
	case apperror.KindConflict:
		status = http.StatusConflict
	}

	return echo.NewHTTPError(status, err.Error())
}
