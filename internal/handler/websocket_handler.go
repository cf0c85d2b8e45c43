package handler

import (
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/horologium/ledger-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades dashboard connections that receive ledger events
type WebSocketHandler struct {
	hub       *websocket.Hub
	validator websocket.TokenValidator
	origins   map[string]struct{}
	upgrader  ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler accepting browsers from allowedOrigins
func NewWebSocketHandler(hub *websocket.Hub, validator websocket.TokenValidator, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:       hub,
		validator: validator,
		origins:   make(map[string]struct{}, len(allowedOrigins)),
	}
	for _, origin := range allowedOrigins {
		h.origins[origin] = struct{}{}
	}
	h.upgrader = ws.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// checkOrigin accepts non-browser clients, which send no Origin
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.origins[origin]; ok {
		return true
	}
	log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
	return false
}

// HandleWS upgrades GET /ws. Browsers cannot set headers on the upgrade
// request, so the access token travels as ?token=.
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return NewUnauthorizedError(c, "Missing token query parameter")
	}

	actor, err := h.validator.ValidateToken(c.Request().Context(), token)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket token rejected")
		return NewUnauthorizedError(c, "Invalid or expired token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		log.Warn().Err(err).Str("actor", actor).Msg("WebSocket upgrade failed")
		return nil
	}

	client := websocket.NewClient(conn, actor, h.hub)
	h.hub.Register(client)
	go client.Serve()

	log.Info().Str("actor", actor).Str("client_id", client.ID()).Msg("WebSocket client connected")
	return nil
}
