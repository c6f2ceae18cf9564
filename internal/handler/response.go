package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/zeroup-initiative/partner-backend/internal/cache"
	"github.com/zeroup-initiative/partner-backend/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// serviceError maps service sentinels onto status codes. Anything unknown is
// a 500 carrying fallback as its message.
func serviceError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", err.Error()))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", err.Error()))
	case errors.Is(err, service.ErrInvalidAmount):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_amount", err.Error()))
	case errors.Is(err, service.ErrAlreadyDecided), errors.Is(err, service.ErrNotDeclined):
		return c.JSON(http.StatusConflict, NewErrorResponse("conflict", err.Error()))
	case errors.Is(err, service.ErrUserDeleted):
		return c.JSON(http.StatusGone, NewErrorResponse("user_deleted", err.Error()))
	case errors.Is(err, service.ErrSuspended):
		return c.JSON(http.StatusForbidden, NewErrorResponse("suspended", err.Error()))
	case errors.Is(err, service.ErrDBNotReady):
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("db_unavailable", "database not ready"))
	case errors.Is(err, cache.ErrLockTimeout):
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("busy", "try again shortly"))
	}
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", fallback))
}
