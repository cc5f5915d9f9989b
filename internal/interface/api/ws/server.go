// Package ws publica el dispatcher por HTTP y websocket.
package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pladderBot/internal/domain"
	"pladderBot/internal/script"
)

const DefaultRate = 5.0

type Dispatcher interface {
	RunCommand(ctx context.Context, msg domain.Message) domain.Result
	LastContext(network, channel string) (script.Context, bool)
}

type CommandLister interface {
	ListCommands(ctx context.Context) ([]string, error)
}

type EventSource interface {
	Subscribe(topic string) (<-chan any, func())
}

type Config struct {
	Addr       string
	Dispatcher Dispatcher
	Commands   CommandLister
	Events     EventSource
	Metrics    http.Handler
	// Rate es el máximo de comandos por segundo por conexión.
	Rate   float64
	Logger *zap.Logger
}

func (c *Config) addr() string {
	if c.Addr == "" {
		return ":8080"
	}
	return c.Addr
}

type Server struct {
	cfg      Config
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	httpSrv *http.Server
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

const writeTimeout = 10 * time.Second

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	return &Server{
		cfg: cfg,
		log: logger.Named("ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// Handler arma el router; se usa tal cual en tests con httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.cfg.Dispatcher != nil {
		r.Get("/ws/command", s.handleCommandWS)
		r.Get("/api/last-context", s.handleLastContext)
	}
	if s.cfg.Events != nil {
		r.Get("/ws/events", s.handleEventsWS)
	}
	if s.cfg.Commands != nil {
		r.Get("/api/commands", s.handleCommands)
	}
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}
	return r
}

// Start levanta el HTTP server y se bloquea hasta que el contexto se cancela.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("shutdown error", zap.Error(err))
		}
		s.closeClients()
	}()

	s.log.Info("listening", zap.String("addr", srv.Addr))
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*wsClient, error) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("upgrade error", zap.Error(err))
		return nil, err
	}
	client := &wsClient{conn: conn}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()

	s.log.Info("client connected", zap.String("path", r.URL.Path), zap.String("remote", r.RemoteAddr), zap.Int("clients", count))
	return client, nil
}

func (s *Server) release(client *wsClient) {
	_ = client.conn.Close()

	s.mu.Lock()
	delete(s.clients, client)
	count := len(s.clients)
	s.mu.Unlock()

	s.log.Info("client disconnected", zap.Int("clients", count))
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		_ = c.conn.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
