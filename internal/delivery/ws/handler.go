package ws

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ndmlinh/campusmeet-gateway/config"
	"github.com/ndmlinh/campusmeet-gateway/internal/gateway"
	"github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

// Handler upgrades HTTP requests to gateway websocket connections and
// pumps inbound frames into the session manager.
type Handler struct {
	mgr      *gateway.Manager
	cfg      config.GatewayConfig
	l        logger.Logger
	upgrader websocket.Upgrader
}

func NewHandler(mgr *gateway.Manager, cfg config.GatewayConfig, l logger.Logger) *Handler {
	return &Handler{
		mgr: mgr,
		cfg: cfg,
		l:   l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Token auth happens over the socket via IDENTIFY, not at
			// upgrade time; origins are not restricted here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Warnf(r.Context(), "ws.Handler.ServeWS: upgrade failed: %v", err)
		return
	}

	client := NewClient(uuid.New().String(), conn, h.cfg.SendBuffer)

	conn.SetPongHandler(func(string) error {
		h.mgr.HandlePong(client)
		return nil
	})

	h.l.Infof(r.Context(), "ws: connection %s accepted from %s", client.ID(), r.RemoteAddr)

	go client.writePump()
	go h.readPump(client)
}

// readPump feeds inbound frames to the manager until the socket dies,
// then runs the disconnect path. Uses a background context: teardown must
// not be cancelled by the upgrade request ending.
func (h *Handler) readPump(client *Client) {
	ctx := context.Background()

	defer func() {
		client.Close()
		h.mgr.HandleDisconnect(ctx, client)
	}()

	for {
		msgType, data, err := client.ws.ReadMessage()
		if err != nil {
			h.l.Debugf(ctx, "ws: connection %s read error: %v", client.ID(), err)
			return
		}

		switch msgType {
		case websocket.TextMessage:
			h.mgr.HandleRaw(ctx, client, string(data))
		case websocket.BinaryMessage:
			h.mgr.HandleRaw(ctx, client, data)
		}
	}
}
