package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	liveapp "plantwatch/internal/liveupdate/application"
	telemetryapp "plantwatch/internal/telemetry/application"
)

// SSE event names.
const (
	EventSensor = "sensor"
	EventAlert  = "alert"
)

const clientBuffer = 32

type message struct {
	event   string
	plantID string
	payload []byte
}

// Subscriber is one connected stream client.
type Subscriber struct {
	plantID string
	ch      chan message
}

// Broker fans out sensor and alert events to connected SSE clients. Slow
// clients drop messages instead of blocking publishers.
type Broker struct {
	mu      sync.Mutex
	clients map[*Subscriber]struct{}
	logger  *zap.Logger
}

// NewBroker constructs a broker.
func NewBroker(logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{clients: make(map[*Subscriber]struct{}), logger: logger}
}

// PublishSensor implements liveupdate.Publisher.
func (b *Broker) PublishSensor(_ context.Context, event liveapp.SensorUpdated) {
	if b == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Warn("encode sensor event", zap.Error(err))
		return
	}
	b.broadcast(message{event: EventSensor, plantID: event.PlantID, payload: payload})
}

// Notify implements telemetry.AlertNotifier.
func (b *Broker) Notify(_ context.Context, event telemetryapp.AlertEvent) {
	if b == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Warn("encode alert event", zap.Error(err))
		return
	}
	b.broadcast(message{event: EventAlert, plantID: event.Alert.PlantID, payload: payload})
}

// Subscribe registers a client. An empty plantID receives every plant.
func (b *Broker) Subscribe(plantID string) *Subscriber {
	c := &Subscriber{plantID: plantID, ch: make(chan message, clientBuffer)}
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()
	return c
}

// Unsubscribe removes a client.
func (b *Broker) Unsubscribe(c *Subscriber) {
	if c == nil {
		return
	}
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.ch)
	}
	b.mu.Unlock()
}

// Clients returns the number of connected clients.
func (b *Broker) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broker) broadcast(msg message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		if c.plantID != "" && c.plantID != msg.plantID {
			continue
		}
		select {
		case c.ch <- msg:
		default:
		}
	}
}

// StreamHandler serves the SSE stream.
type StreamHandler struct {
	broker *Broker
}

// NewStreamHandler constructs a stream handler.
func NewStreamHandler(broker *Broker) *StreamHandler {
	return &StreamHandler{broker: broker}
}

// ServeHTTP handles GET /api/v1/live/stream[?plant_id=...].
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.broker == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := h.broker.Subscribe(r.URL.Query().Get("plant_id"))
	defer h.broker.Unsubscribe(c)

	_, _ = w.Write([]byte("event: ready\ndata: {}\n\n"))
	flusher.Flush()

	done := r.Context().Done()
	for {
		select {
		case msg, ok := <-c.ch:
			if !ok {
				return
			}
			_, _ = w.Write([]byte("event: " + msg.event + "\n"))
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(msg.payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-done:
			return
		}
	}
}
