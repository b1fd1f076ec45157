package server

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ayusman/hasta/internal/app"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LiveFeed is the source of live updates, implemented by the app pipeline.
type LiveFeed interface {
	Subscribe() (string, <-chan app.LiveUpdate)
	Unsubscribe(id string)
}

// LiveHandler broadcasts real-time landmarks and metrics via WebSocket. Each
// connection gets its own pipeline subscription; slow clients drop updates
// instead of stalling the pipeline.
type LiveHandler struct {
	feed LiveFeed
}

// NewLiveHandler creates a new LiveHandler fed by the given source.
func NewLiveHandler(feed LiveFeed) *LiveHandler {
	return &LiveHandler{feed: feed}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id, updates := h.feed.Subscribe()
	defer h.feed.Unsubscribe(id)

	// Reader goroutine: the read loop detects the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				return
			}
		}
	}
}
