package handler

import (
	"github.com/horologium/ledger-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers groups the HTTP handlers served under /api/v1
type Handlers struct {
	Ledger    *LedgerHandler
	COB       *COBHandler
	Entry     *EntryHandler
	WebSocket *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// API docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", ServeOpenAPI3Spec)

	// WebSocket authenticates with ?token= during the upgrade
	e.GET("/ws", h.WebSocket.HandleWS)

	// API version 1 (protected)
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Ledger routes
	ledger := api.Group("/ledger")
	ledger.GET("/:date", h.Ledger.GetLedger)
	ledger.GET("/:date/export", h.Ledger.ExportLedger)

	// Close-of-business routes
	cob := api.Group("/cob")
	cob.POST("", h.COB.CloseBusinessDay)
	cob.GET("", h.COB.ListRecords)
	cob.GET("/:date", h.COB.GetRecord)
	cob.GET("/:date/status", h.COB.GetDayStatus)

	// Entry routes
	entries := api.Group("/entries")
	entries.POST("", h.Entry.CreateEntry)
	entries.GET("", h.Entry.ListEntries)
	entries.GET("/:id", h.Entry.GetEntry)
	entries.PATCH("/:id/status", h.Entry.UpdateEntryStatus)
}
