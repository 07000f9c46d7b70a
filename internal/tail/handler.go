package tail

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

const writeTimeout = 5 * time.Second

// Handler upgrades the request to a websocket and streams the hub's feed
// as one JSON event per text message. The connection is write-only; client
// frames are discarded.
func Handler(hub *Hub, buffer int, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Warn("tail accept failed", "error", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "tail aborted")

		sub := hub.Subscribe(buffer)
		defer sub.Close()

		log.Debug("tail client connected", "remote", r.RemoteAddr)
		ctx := c.CloseRead(r.Context())

		for {
			select {
			case <-ctx.Done():
				c.Close(websocket.StatusNormalClosure, "")
				return
			case e, ok := <-sub.Events():
				if !ok {
					c.Close(websocket.StatusNormalClosure, "feed closed")
					return
				}
				data, err := json.Marshal(e)
				if err != nil {
					log.Warn("tail encode failed", "error", err)
					continue
				}
				if err := writeText(ctx, c, data); err != nil {
					log.Debug("tail client gone", "remote", r.RemoteAddr, "error", err)
					return
				}
			}
		}
	}
}

func writeText(ctx context.Context, c *websocket.Conn, data []byte) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(wctx, websocket.MessageText, data)
}
