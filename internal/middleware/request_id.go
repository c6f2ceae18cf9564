package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/zeroup-initiative/partner-backend/internal/reqctx"
)

// RequestID reuses an incoming X-Request-ID or mints one, echoes it back and
// stores it on the request context for log lines.
func RequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Request().Header.Get(echo.HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, rid)
		c.SetRequest(c.Request().WithContext(reqctx.WithRID(c.Request().Context(), rid)))
		return next(c)
	}
}
