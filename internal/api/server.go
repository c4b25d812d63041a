package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bryanchriswhite/SnapShooter/internal/capture"
	"github.com/bryanchriswhite/SnapShooter/internal/config"
	"github.com/bryanchriswhite/SnapShooter/internal/logger"
	"github.com/bryanchriswhite/SnapShooter/internal/output"
	"github.com/bryanchriswhite/SnapShooter/internal/shutter"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const version = "0.1.0"

// Server represents the HTTP API server
type Server struct {
	router     *mux.Router
	shutter    *shutter.Shutter
	route      shutter.Router
	configMgr  *config.Manager
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// ShotInfo describes a shot without its pixels.
type ShotInfo struct {
	ID      uint64    `json:"id"`
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	TakenAt time.Time `json:"taken_at"`
	TookMS  int64     `json:"took_ms"`
	Session string    `json:"session,omitempty"`
	Source  string    `json:"source"`
}

// NewServer creates a new API server. route may be nil, in which case
// /api/session reports only the detected session kind.
func NewServer(sh *shutter.Shutter, route shutter.Router, configMgr *config.Manager) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		shutter:   sh,
		route:     route,
		configMgr: configMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Preview page may be opened from any origin
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/session", s.handleSession).Methods("GET")

	// Shots
	api.HandleFunc("/shots", s.handleShoot).Methods("POST")
	api.HandleFunc("/shots/latest", s.handleLatest).Methods("GET")
	api.HandleFunc("/shots/latest/preview", s.handlePreview).Methods("GET")
	api.HandleFunc("/shots/latest/save", s.handleSave).Methods("POST")

	// Shutter events
	api.HandleFunc("/events", s.handleEvents)

	s.router.PathPrefix("/").HandlerFunc(s.handleIndex)
}

// Handler returns the root handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.WithComponent("api").Info().
		Str("url", "http://localhost"+addr).
		Msg("Starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithComponent("api").Debug().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]string{"error": err.Error()}
	if kind := capture.KindOf(err); kind != 0 {
		body["kind"] = kind.String()
	}
	writeJSON(w, status, body)
}

func writePNG(w http.ResponseWriter, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := output.EncodePNG(w, img); err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("Failed to stream PNG")
	}
}

func info(shot *shutter.Shot) ShotInfo {
	b := shot.Image.Bounds()
	return ShotInfo{
		ID:      shot.ID,
		Width:   b.Dx(),
		Height:  b.Dy(),
		TakenAt: shot.TakenAt,
		TookMS:  shot.Took.Milliseconds(),
		Session: shot.Session,
		Source:  shot.Source,
	}
}

// HTTP Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": version,
		"busy":    s.shutter.Busy(),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.route == nil {
		writeJSON(w, http.StatusOK, map[string]string{"kind": "unknown"})
		return
	}
	kind, c := s.route.Route()
	writeJSON(w, http.StatusOK, map[string]string{
		"kind":     kind.String(),
		"capturer": c.Name(),
	})
}

func (s *Server) handleShoot(w http.ResponseWriter, r *http.Request) {
	shot, err := s.shutter.Shoot()
	switch {
	case errors.Is(err, shutter.ErrBusy):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusCreated, info(shot))
}

func (s *Server) latest(w http.ResponseWriter) (*shutter.Shot, bool) {
	shot, ok := s.shutter.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no screenshot taken yet"))
	}
	return shot, ok
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	shot, ok := s.latest(w)
	if !ok {
		return
	}
	writePNG(w, shot.Image)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	shot, ok := s.latest(w)
	if !ok {
		return
	}

	scale := s.configMgr.Get().Preview.Scale
	if raw := r.URL.Query().Get("scale"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid scale %q", raw))
			return
		}
		scale = v
	}

	thumb, err := output.Thumbnail(shot.Image, scale)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writePNG(w, thumb)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	// The body is optional.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	shot, ok := s.latest(w)
	if !ok {
		return
	}

	cfg := s.configMgr.Get()
	name := req.Name
	if name == "" {
		name = output.DefaultFileName(cfg.Output.Prefix, shot.TakenAt)
	}
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid file name %q", name))
		return
	}

	path := filepath.Join(cfg.Output.Dir, name)
	if err := output.SavePNG(path, shot.Image); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	// Subscribe before the handshake completes so no event published after
	// the client connects is missed.
	events := s.shutter.Subscribe()
	defer s.shutter.Unsubscribe(events)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	// The client never sends anything; reading only detects disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Msg("WebSocket write error")
				return
			}
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>SnapShooter</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Ubuntu, sans-serif;
            max-width: 800px;
            margin: 50px auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        #preview {
            display: block;
            margin: 20px 0;
            max-width: 100%;
            border: 1px solid #ddd;
        }
        #status { color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h1>SnapShooter</h1>
        <button id="shoot">Take screenshot</button>
        <button id="save" disabled>Save</button>
        <p id="status">Idle</p>
        <img id="preview" alt="">
    </div>
    <script>
        const shoot = document.getElementById('shoot');
        const save = document.getElementById('save');
        const status = document.getElementById('status');
        const preview = document.getElementById('preview');

        shoot.onclick = async () => {
            const res = await fetch('/api/shots', {method: 'POST'});
            const body = await res.json();
            if (!res.ok) {
                status.textContent = 'Failed: ' + body.error;
            }
        };
        save.onclick = async () => {
            const res = await fetch('/api/shots/latest/save', {method: 'POST'});
            const body = await res.json();
            status.textContent = res.ok ? 'Saved to ' + body.path : 'Failed: ' + body.error;
        };

        const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/api/events');
        ws.onmessage = (msg) => {
            const ev = JSON.parse(msg.data);
            switch (ev.type) {
            case 'started':
                shoot.disabled = true;
                status.textContent = 'Capturing...';
                break;
            case 'completed':
                shoot.disabled = false;
                save.disabled = false;
                status.textContent = 'Captured ' + ev.width + 'x' + ev.height;
                preview.src = '/api/shots/latest/preview?t=' + ev.shot_id;
                break;
            case 'failed':
                shoot.disabled = false;
                status.textContent = 'Failed (' + ev.kind + '): ' + ev.error;
                break;
            }
        };
    </script>
</body>
</html>`
