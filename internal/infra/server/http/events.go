package httpserver

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	json "github.com/goccy/go-json"

	"github.com/coachpo/eobrowser/internal/observability"
)

const (
	eventWriteTimeout = 5 * time.Second
	eventPingInterval = 30 * time.Second
)

// Event is one message on the change stream.
type Event struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
}

type subscriber struct {
	wake chan struct{}
}

// Hub fans registry version changes out to websocket clients. Slow clients skip
// intermediate versions and always receive the latest one.
type Hub struct {
	logger  observability.Logger
	origins []string
	latest  atomic.Uint64

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
}

// NewHub constructs a hub accepting websocket upgrades from the given origin patterns.
func NewHub(origins []string, logger observability.Logger) *Hub {
	if logger == nil {
		logger = observability.Log()
	}
	return &Hub{logger: logger, origins: origins, subscribers: make(map[*subscriber]struct{})}
}

// Publish records version and wakes every client.
func (h *Hub) Publish(version uint64) {
	for {
		current := h.latest.Load()
		if version <= current || h.latest.CompareAndSwap(current, version) {
			break
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		select {
		case sub.wake <- struct{}{}:
		default:
		}
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) add() *subscriber {
	sub := &subscriber{wake: make(chan struct{}, 1)}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
}

// ServeHTTP upgrades the request and streams change events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns()})
	if err != nil {
		h.logger.Warn("websocket accept failed", observability.F("error", err))
		return
	}
	defer func() {
		_ = conn.Close(websocket.StatusNormalClosure, "shutdown")
	}()

	sub := h.add()
	defer h.remove(sub)

	ctx := conn.CloseRead(r.Context())
	sent := h.latest.Load()
	if err := h.send(ctx, conn, "hello", sent); err != nil {
		return
	}

	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case <-sub.wake:
			version := h.latest.Load()
			if version == sent {
				continue
			}
			if err := h.send(ctx, conn, "changed", version); err != nil {
				h.logger.Debug("websocket client dropped", observability.F("error", err))
				return
			}
			sent = version
		}
	}
}

func (h *Hub) send(ctx context.Context, conn *websocket.Conn, kind string, version uint64) error {
	payload, err := json.Marshal(Event{Type: kind, Version: version})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, payload)
}

func (h *Hub) originPatterns() []string {
	patterns := make([]string, 0, len(h.origins))
	for _, origin := range h.origins {
		if origin == "*" {
			return []string{"*"}
		}
		host := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
		patterns = append(patterns, host)
	}
	return patterns
}
