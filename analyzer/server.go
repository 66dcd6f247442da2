package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// maxRecentLimit caps the /api/recent page size.
const maxRecentLimit = 20

// WebServer provides the REST endpoints and the websocket live feed.
type WebServer struct {
	analyzer  *SiteAnalyzer
	server    *http.Server
	port      int
	startTime time.Time
	upgrader  websocket.Upgrader
	clients   sync.Map
	broadcast chan []byte
	done      chan struct{}
}

// wsEnvelope wraps one completed analysis for the live feed.
type wsEnvelope struct {
	Type      string  `json:"type"`
	RequestID string  `json:"request_id"`
	At        string  `json:"at"`
	Payload   *Result `json:"payload"`
}

// NewWebServer creates a new web server. A port of 0 disables it.
func NewWebServer(analyzer *SiteAnalyzer, port int) *WebServer {
	if port <= 0 {
		return nil // Web server disabled
	}

	mux := http.NewServeMux()
	ws := &WebServer{
		analyzer:  analyzer,
		port:      port,
		startTime: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // The map UI is served from another origin
			},
		},
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  65 * time.Second,
			WriteTimeout: 65 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}

	mux.HandleFunc("/api/analyze", ws.analyzeHandler)
	mux.HandleFunc("/api/recent", ws.recentHandler)
	mux.HandleFunc("/api/seasonal", ws.seasonalHandler)
	mux.HandleFunc("/api/heatmap", ws.heatmapHandler)
	mux.HandleFunc("/api/roi/sensitivity", ws.sensitivityHandler)
	mux.HandleFunc("/health", ws.healthHandler)
	mux.HandleFunc("/ready", ws.readinessHandler)
	mux.HandleFunc("/status", ws.statusHandler)
	mux.HandleFunc("/ws", ws.wsHandler)
	mux.HandleFunc("/", ws.rootHandler)

	return ws
}

// Start starts the web server
func (ws *WebServer) Start() error {
	if ws == nil {
		return nil // Web server disabled
	}

	go ws.handleBroadcasts()

	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.analyzer.logger.Printf("Web server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully stops the web server
func (ws *WebServer) Stop(ctx context.Context) error {
	if ws == nil {
		return nil // Web server disabled
	}

	close(ws.done)

	ws.clients.Range(func(key, value any) bool {
		if conn, ok := key.(*websocket.Conn); ok {
			conn.Close()
		}
		return true
	})

	return ws.server.Shutdown(ctx)
}

// BroadcastAnalysis pushes one completed analysis to every websocket
// client. A full broadcast buffer drops the message rather than
// blocking the pipeline.
func (ws *WebServer) BroadcastAnalysis(result *Result) {
	if ws == nil {
		return
	}

	envelope := wsEnvelope{
		Type:      "analysis",
		RequestID: result.RequestID,
		At:        time.Now().UTC().Format(time.RFC3339),
		Payload:   result,
	}
	message, err := json.Marshal(envelope)
	if err != nil {
		ws.analyzer.logger.Printf("[WS] failed to marshal broadcast: %v", err)
		return
	}

	select {
	case ws.broadcast <- message:
	default:
		ws.analyzer.logger.Printf("[WS] broadcast buffer full, dropping message")
	}
}

// analyzeHandler handles POST /api/analyze
func (ws *WebServer) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var query Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeError(w, inputInvalid("malformed request body: %v", err))
		return
	}

	result, err := ws.analyzer.Analyze(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, result)
}

// recentHandler handles GET /api/recent?limit=
func (ws *WebServer) recentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := maxRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, inputInvalid("limit must be a positive integer, got %q", raw))
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	records, err := ws.analyzer.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

// seasonalHandler handles GET /api/seasonal?lat=&lng=&plant_size_kw=
func (ws *WebServer) seasonalHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, inputInvalid("lat and lng must be numeric"))
		return
	}

	plantSizeKW := 1.0
	if raw := r.URL.Query().Get("plant_size_kw"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, inputInvalid("plant_size_kw must be numeric, got %q", raw))
			return
		}
		plantSizeKW = parsed
	}

	analysis, err := ws.analyzer.Seasonal(r.Context(), lat, lng, plantSizeKW)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, analysis)
}

// heatmapHandler handles POST /api/heatmap
func (ws *WebServer) heatmapHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req HeatmapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, inputInvalid("malformed request body: %v", err))
		return
	}

	result, err := ws.analyzer.Heatmap(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, result)
}

// sensitivityHandler handles POST /api/roi/sensitivity
func (ws *WebServer) sensitivityHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, inputInvalid("malformed request body: %v", err))
		return
	}

	points, err := ws.analyzer.Sensitivity(req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{"points": points})
}

// healthHandler handles GET /health
func (ws *WebServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := ws.analyzer.GetStatus()

	health := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   status.Version,
		"uptime":    formatUptime(time.Since(ws.startTime)),
	}

	if !status.IsRunning {
		health["status"] = "unhealthy"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	writeJSON(w, health)
}

// readinessHandler handles GET /ready. Ready means running and warmed:
// before warm-up, scores would be served without calibration.
func (ws *WebServer) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := ws.analyzer.GetStatus()
	ready := status.IsRunning && status.Calibrator.Warmed

	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	writeJSON(w, map[string]any{
		"ready":     ready,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// statusHandler handles GET /status (detailed status)
func (ws *WebServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := ws.analyzer.GetStatus()
	config := ws.analyzer.GetConfig()

	writeJSON(w, map[string]any{
		"analyzer": status,
		"config": map[string]any{
			"provider_timeout":      config.ProviderTimeout.String(),
			"request_hard_deadline": config.RequestHardDeadline.String(),
			"warmup_days":           config.WarmupDays,
			"dry_run":               config.DryRun,
		},
		"uptime":    formatUptime(time.Since(ws.startTime)),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// rootHandler answers the service banner and 404s everything else.
func (ws *WebServer) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeErrorStatus(w, http.StatusNotFound, "not_found", "unknown path "+r.URL.Path)
		return
	}

	writeJSON(w, map[string]any{
		"service": "solar-site-analyzer",
		"version": Version,
	})
}

// wsHandler upgrades /ws connections and registers them for the feed.
func (ws *WebServer) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.analyzer.logger.Printf("[WS] upgrade error: %v", err)
		return
	}

	ws.clients.Store(conn, true)
	ws.analyzer.logger.Printf("[WS] client connected (%d total)", ws.clientCount())

	defer func() {
		ws.clients.Delete(conn)
		conn.Close()
		ws.analyzer.logger.Printf("[WS] client disconnected (%d total)", ws.clientCount())
	}()

	// Read loop only services control frames; the feed is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				ws.analyzer.logger.Printf("[WS] read error: %v", err)
			}
			break
		}
	}
}

// handleBroadcasts fans queued messages out to all connected clients,
// dropping clients whose writes fail.
func (ws *WebServer) handleBroadcasts() {
	for {
		select {
		case message := <-ws.broadcast:
			ws.clients.Range(func(key, value any) bool {
				conn, ok := key.(*websocket.Conn)
				if !ok {
					return true
				}

				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					ws.analyzer.logger.Printf("[WS] write error, dropping client: %v", err)
					conn.Close()
					ws.clients.Delete(conn)
				}
				return true
			})
		case <-ws.done:
			return
		}
	}
}

func (ws *WebServer) clientCount() int {
	count := 0
	ws.clients.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

// Helper functions

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeErrorStatus(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: code, Detail: detail})
}

// formatUptime formats a duration as a string with seconds rounded to integer
func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
