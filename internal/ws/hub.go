// Package ws exposes the running pipeline to UI clients: a status stream,
// a control socket for settings changes, and a plain health endpoint.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/example/dxlight/internal/config"
	"github.com/example/dxlight/internal/led"
	"github.com/example/dxlight/internal/pipeline"
)

// broadcastEvery paces status pushes; UI previews do not need full frame rate.
const broadcastEvery = 100 * time.Millisecond

// Event is a one-shot notice pushed alongside status frames (pattern
// started, control rejected, device reconnected).
type Event struct {
	Severity string `json:"severity"` // "info" | "warn"
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
}

// Hub fans pipeline status out to websocket clients and feeds control
// commands back into the config store.
type Hub struct {
	store      *config.Store
	pipe       *pipeline.Pipeline
	configPath string
	startTime  time.Time

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub(store *config.Store, pipe *pipeline.Pipeline, configPath string) *Hub {
	return &Hub{
		store:      store,
		pipe:       pipe,
		configPath: configPath,
		startTime:  time.Now(),
		clients:    map[*websocket.Conn]bool{},
	}
}

// Routes registers the hub's handlers on mux.
func (h *Hub) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.handleStatusWS)
	mux.HandleFunc("/control", h.handleControlWS)
	mux.HandleFunc("/health", h.handleHealth)
}

// Run broadcasts status until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(broadcastEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.broadcast(h.pipe.Status())
		}
	}
}

func (h *Hub) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	// Send the greeting before registering: once the connection is in
	// h.clients the broadcast loop owns writes to it, and gorilla allows
	// only one writer per connection.
	h.sendStatus(conn, h.pipe.Status())
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) handleControlWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if ev := h.applyControl(msg); ev != nil {
			b, _ := json.Marshal(ev)
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}
		h.sendStatus(conn, h.pipe.Status())
	}
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := h.pipe.Status()
	cfg := h.store.Snapshot()
	resp := map[string]any{
		"uptime_s":   time.Since(h.startTime).Seconds(),
		"mode":       st.Mode,
		"connection": st.Connection,
		"fps":        st.FPS,
		"zone_count": cfg.ZoneCount,
		"brightness": cfg.Brightness,
	}
	if st.LastError != "" {
		resp["last_error"] = st.LastError
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// applyControl mutates the config store from a control message. Unknown keys
// are ignored; a rejected update leaves the old config live and reports why.
func (h *Hub) applyControl(msg map[string]any) *Event {
	err := h.store.Update(func(c *config.Config) {
		if v, ok := msg["mode"].(string); ok {
			c.Mode = v
		}
		if v, ok := msg["brightness"].(float64); ok {
			c.Brightness = v
		}
		if v, ok := msg["smoothing"].(float64); ok {
			c.Smoothing = v
		}
		if v, ok := msg["fps"].(float64); ok {
			c.FPS = v
		}
		if v, ok := msg["border"].(float64); ok {
			c.Border = v
		}
		if v, ok := msg["aspect"].(string); ok {
			c.Capture.Aspect = v
		}
		if v, ok := msg["static_color"].([]any); ok && len(v) == 3 {
			for i := 0; i < 3; i++ {
				if f, ok2 := v[i].(float64); ok2 {
					c.Static[i] = uint8(f)
				}
			}
		}
	})
	if err != nil {
		log.Warn().Err(err).Msg("control update rejected")
		return &Event{Severity: "warn", Code: "CONTROL.REJECTED", Detail: err.Error()}
	}

	if v, ok := msg["pattern"].(string); ok {
		switch led.PatternKind(v) {
		case led.IndexSweep, led.RGBChannels, led.GroupSweep:
			h.pipe.RunPattern(led.PatternKind(v))
			return &Event{Severity: "info", Code: "PATTERN.RUNNING", Detail: v}
		case led.PatternNone:
			h.pipe.RunPattern(led.PatternNone)
		default:
			return &Event{Severity: "warn", Code: "PATTERN.UNKNOWN", Detail: v}
		}
	}

	// Persist after any accepted change so the last mode survives restarts.
	h.saveConfig()
	return nil
}

func (h *Hub) saveConfig() {
	if h.configPath == "" {
		return
	}
	cfg := h.store.Snapshot()
	if err := config.Save(h.configPath, &cfg); err != nil {
		log.Warn().Err(err).Str("path", h.configPath).Msg("config save failed")
	}
}

func (h *Hub) sendStatus(conn *websocket.Conn, st pipeline.Status) {
	b, _ := json.Marshal(st)
	conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Debug().Err(err).Msg("write status")
	}
}

func (h *Hub) broadcast(st pipeline.Status) {
	b, _ := json.Marshal(st)
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write status")
		}
	}
}
