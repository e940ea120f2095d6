package testhelpers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebsocketEchoHandler upgrades the connection and echoes every message
// straight back, which is all an upstream needs to do for verifying that a
// proxy in front of it passes the protocol switch and both data directions
// through.
type WebsocketEchoHandler struct {
	upgrader websocket.Upgrader
}

func NewWebsocketEchoHandler() *WebsocketEchoHandler {
	return &WebsocketEchoHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *WebsocketEchoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket echo: not a websocket handshake: %s", err)
		return
	}
	defer func() { _ = ws.Close() }()

	for {
		messageType, message, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if err := ws.WriteMessage(messageType, message); err != nil {
			return
		}
	}
}
