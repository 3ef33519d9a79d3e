package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ev-fleet/optimizer/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard is served from anywhere during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveFeed bridges the redis telemetry pub/sub channel to websocket
// clients. Each connection gets its own subscription; a slow client only
// stalls itself.
type LiveFeed struct {
	redis  *redis.Client
	logger *zerolog.Logger
}

func NewLiveFeed(client *redis.Client, logger *zerolog.Logger) *LiveFeed {
	return &LiveFeed{redis: client, logger: logger}
}

func (f *LiveFeed) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := f.redis.Subscribe(r.Context(), store.TelemetryChannel, store.CommandChannel)
	defer sub.Close()

	// Upgrade hijacks the connection, so the request context no longer
	// covers client disconnects. A read loop is the only way to see the
	// peer's close (and ping/pong) frames; it doubles as the exit signal
	// when the subscription is quiet.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
