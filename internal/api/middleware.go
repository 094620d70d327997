package api

import (
	"errors"
	"net/http"

	"contribution-scout/internal/logging"
	"contribution-scout/internal/session"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// ClientIDHeader names the header carrying the session id.
const ClientIDHeader = "x-client-id"

// RequireClientID rejects requests without a live client session.
func RequireClientID(sessions Sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := sessions.Verify(c.Request().Context(), c.Request().Header.Get(ClientIDHeader))
			switch {
			case err == nil:
				return next(c)
			case errors.Is(err, session.ErrMissingClientID):
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing x-client-id header"})
			default:
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired clientId"})
			}
		}
	}
}

// RequestLogger logs one line per request through the structured logger.
func RequestLogger(log *logging.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			kv := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency.String()}
			if v.Error != nil {
				log.Error("request failed", append(kv, "error", v.Error)...)
				return nil
			}
			log.Info("request", kv...)
			return nil
		},
	})
}

// ErrorHandler renders unhandled errors as the JSON error envelope.
func ErrorHandler(log *logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code != http.StatusInternalServerError {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok {
				msg = s
			}
			_ = c.JSON(he.Code, errorBody{Error: msg})
			return
		}

		log.Error("unhandled request error", "path", c.Path(), "error", err)
		_ = c.JSON(http.StatusInternalServerError, errorBody{Error: "Internal server error", Detail: detailOf(err)})
	}
}
