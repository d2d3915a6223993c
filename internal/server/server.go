// Package server serves a built site over HTTP, with an index API and live
// TOC sessions over websockets.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/tocsync/internal/db"
	"github.com/ziadkadry99/tocsync/internal/host"
	"github.com/ziadkadry99/tocsync/internal/session"
	"github.com/ziadkadry99/tocsync/internal/toc"
)

// Config holds server configuration.
type Config struct {
	Port     int
	SiteDir  string // built site served as static files and loaded into sessions
	AllowAll bool   // allow all CORS and websocket origins (dev mode)

	// Site overrides SiteDir when set.
	Site   fs.FS
	Schema *toc.Schema
}

// Server serves a built site together with its live TOC sessions.
type Server struct {
	cfg        Config
	db         *db.DB
	site       fs.FS
	loader     host.Loader
	log        *zap.Logger
	router     chi.Router
	upgrader   websocket.Upgrader
	httpServer *http.Server

	mu   sync.Mutex
	live map[string]*websocket.Conn
}

// New creates a server. database may be nil, in which case the index
// endpoints answer 503.
func New(cfg Config, database *db.DB, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Schema == nil {
		cfg.Schema = toc.DefaultSchema()
	}
	site := cfg.Site
	if site == nil {
		site = os.DirFS(cfg.SiteDir)
	}
	s := &Server{
		cfg:    cfg,
		db:     database,
		site:   site,
		loader: host.DirLoader{FS: site},
		log:    log,
		live:   make(map[string]*websocket.Conn),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	if cfg.AllowAll {
		s.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// The websocket outlives any request timeout.
	r.Get("/ws", s.handleLive)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/api/pages", s.handleListPages)
		r.Get("/api/pages/*", s.handlePage)
		r.Get("/api/anchors/{anchor}", s.handleAnchor)
		r.Get("/api/toc", s.handleTOC)
		r.Handle("/*", http.FileServerFS(s.site))
	})

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Sessions reports the number of open live sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("tocsync server listening", zap.String("addr", ln.Addr().String()))
	err := s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server. Live connections are closed so
// their sessions end.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.mu.Lock()
	for _, conn := range s.live {
		_ = conn.Close()
	}
	s.mu.Unlock()
	return err
}

func (s *Server) track(sess *session.Session, conn *websocket.Conn) {
	s.mu.Lock()
	s.live[sess.ID] = conn
	s.mu.Unlock()
}

func (s *Server) untrack(sess *session.Session) {
	s.mu.Lock()
	delete(s.live, sess.ID)
	s.mu.Unlock()
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug("request",
					zap.String("id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("took", time.Since(start)))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
