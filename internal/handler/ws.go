package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"wingo/internal/broadcast"
)

// WSHandler upgrades clients onto the event stream. The endpoint is public:
// frames carry user ids, but nothing secret, exactly like the status board a
// betting floor would show everyone.
type WSHandler struct {
	Hub    *broadcast.Hub
	Logger *zap.Logger

	SendTimeout time.Duration
}

func (h *WSHandler) Register(r *gin.Engine) {
	r.GET("/api/game/ws", h.serve)
}

func (h *WSHandler) serve(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("websocket accept failed", zap.Error(err))
		}
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	sub := h.Hub.Subscribe()
	defer sub.Close()

	// CloseRead keeps the connection liveness-checked while we only write.
	ctx := conn.CloseRead(c.Request.Context())

	timeout := h.SendTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-sub.C:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, timeout)
			err := wsjson.Write(writeCtx, conn, frame)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
