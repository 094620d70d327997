package api

import (
	"net/http"

	"contribution-scout/internal/logging"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type ServerOptions struct {
	AllowedOrigins  []string
	RequireClientID bool
}

// NewServer builds the echo instance with middleware and routes attached.
func NewServer(h *Handler, log *logging.Logger, opts ServerOptions) *echo.Echo {
	if log == nil {
		log = logging.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(log)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e.Use(middleware.Recover())
	e.Use(RequestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderContentType, ClientIDHeader},
	}))

	SetupRoutes(e, h, opts.RequireClientID)
	return e
}

func SetupRoutes(e *echo.Echo, h *Handler, requireClientID bool) {
	e.GET("/health", h.Health)

	api := e.Group("/api")

	// Session issuance stays reachable without a session.
	api.GET("/generate/clientId", h.IssueClientID)

	protected := api.Group("")
	if requireClientID {
		protected.Use(RequireClientID(h.sessions))
	}

	protected.GET("/generate/userId", h.IssueUserID)
	protected.POST("/generate/recommendations", h.GenerateRecommendations)
	protected.GET("/recommendations/:userId", h.ListRecommendations)
	protected.POST("/chatbot/message", h.ChatMessage)
	protected.GET("/repos/validate", h.ValidateRepo)
}
