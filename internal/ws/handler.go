package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Периметр уже закрыт session-middleware; Origin дашборда может
	// отличаться от API-хоста, поэтому сам upgrade Origin не фильтрует
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS апгрейдит запрос и запускает насосы подключения.
// GET /ws (токен сессии — в query, см. auth.NewSessionMiddleware)
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newConn(wsConn)
	h.register(c)

	go h.WritePump(c)
	go h.ReadPump(c)
}
