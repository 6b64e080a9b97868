package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gravitas-games/freepath/internal/config"
	"github.com/gravitas-games/freepath/internal/routecache"
	"github.com/gravitas-games/freepath/internal/routing"
	"github.com/gravitas-games/freepath/internal/simulation"
	"github.com/gravitas-games/freepath/pkg/hex"
	"github.com/gravitas-games/freepath/pkg/models"
)

// Server represents the routing server
type Server struct {
	config   *config.Config
	session  *Session
	upgrader websocket.Upgrader
	httpSrv  *http.Server
	auth     Authenticator
	redis    *redis.Client

	// Connection tracking
	connections map[*Connection]bool
	connMu      sync.RWMutex

	// Shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) (*Server, error) {
	log.Println("Initializing server...")

	ctx, cancel := context.WithCancel(context.Background())

	var (
		redisClient *redis.Client
		cache       routecache.Cache
	)
	if !cfg.JWT.Disabled || cfg.RouteCache.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Println("Connected to Redis")
	}
	if cfg.RouteCache.Enabled {
		cache = routecache.NewRedisCache(redisClient, cfg.RouteCache.Prefix, cfg.RouteCache.TTL)
	}

	var auth Authenticator = openAuthenticator{}
	if !cfg.JWT.Disabled {
		jwtValidator, err := NewJWTValidator(ctx, cfg, redisClient)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to initialize JWT validator: %w", err)
		}
		auth = jwtValidator
	} else {
		log.Println("JWT validation disabled, trusting player ids from requests")
	}

	srv, err := newServer(ctx, cancel, cfg, auth, cache)
	if err != nil {
		cancel()
		return nil, err
	}
	srv.redis = redisClient

	log.Println("Server initialized successfully")
	return srv, nil
}

func newServer(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, auth Authenticator, cache routecache.Cache) (*Server, error) {
	session, err := NewSession(cfg, cache)
	if err != nil {
		return nil, err
	}
	return &Server{
		config:      cfg,
		session:     session,
		auth:        auth,
		connections: make(map[*Connection]bool),
		ctx:         ctx,
		cancel:      cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Add proper origin checking in production
				return true
			},
		},
	}, nil
}

// Routes builds the HTTP handler of the server.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.config.Metrics.Enabled {
		r.Handle(s.config.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
	}

	debug := r.PathPrefix("/debug").Subrouter()
	debug.Use(s.requirePermission(models.PermDebug))
	debug.HandleFunc("/map", s.handleDebugMap).Methods(http.MethodGet)
	debug.HandleFunc("/route/{kind}", s.handleDebugRoute).Methods(http.MethodGet)
	return r
}

// Start begins listening for connections
func (s *Server) Start(addr string) error {
	log.Printf("Starting WebSocket server on %s", addr)

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.session.Run(s.ctx)

	log.Printf("WebSocket endpoint: ws://%s/ws", addr)
	log.Printf("Health endpoint: http://%s/health", addr)

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	log.Println("Shutting down server...")

	// Cancel context to stop the session loop and the write pumps
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}

	// Closing the socket ends the read pump, which cleans up the connection
	s.connMu.RLock()
	for conn := range s.connections {
		conn.ws.Close()
	}
	s.connMu.RUnlock()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("Redis close error: %v", err)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

// handleWebSocket handles WebSocket connection requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log.Printf("New WebSocket connection request from %s", r.RemoteAddr)

	player, err := s.auth.Authenticate(r)
	if err != nil {
		log.Printf("Authentication failed for %s: %v", r.RemoteAddr, err)
		http.Error(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
		return
	}

	log.Printf("Authenticated user: %s (%s) from %s", player.Username, player.ID, r.RemoteAddr)

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn := NewConnection(ws, s, player)

	s.connMu.Lock()
	s.connections[conn] = true
	s.connMu.Unlock()

	// Handle connection (blocking)
	conn.Handle()

	s.connMu.Lock()
	delete(s.connections, conn)
	s.connMu.Unlock()

	log.Printf("WebSocket connection closed: %s (%s)", player.Username, r.RemoteAddr)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"session": s.session.GetStatus(),
	})
}

func (s *Server) requirePermission(perm int64) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			player, err := s.auth.Authenticate(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			if !player.Can(perm) {
				http.Error(w, errNotPermitted.Error(), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// handleDebugMap returns the map layout.
func (s *Server) handleDebugMap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.MapState())
}

// handleDebugRoute searches a route and returns it as GeoJSON.
// Query: from=q,r&to=q,r
func (s *Server) handleDebugRoute(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(mux.Vars(r)["kind"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	from, err := parseAxial(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, fmt.Sprintf("from: %v", err), http.StatusBadRequest)
		return
	}
	to, err := parseAxial(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, fmt.Sprintf("to: %v", err), http.StatusBadRequest)
		return
	}

	res, ok, err := s.session.DebugRoute(r.Context(), kind, from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !ok {
		http.Error(w, "no route", http.StatusNotFound)
		return
	}

	var data []byte
	s.session.Do(func(world *simulation.World) {
		data, err = routing.RouteGeoJSON(world.Map(), from, res.Route, kind).MarshalJSON()
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func parseAxial(s string) (hex.Axial, error) {
	qs, rs, ok := strings.Cut(s, ",")
	if !ok {
		return hex.Axial{}, fmt.Errorf("expected q,r, got %q", s)
	}
	q, err := strconv.Atoi(strings.TrimSpace(qs))
	if err != nil {
		return hex.Axial{}, err
	}
	r, err := strconv.Atoi(strings.TrimSpace(rs))
	if err != nil {
		return hex.Axial{}, err
	}
	return hex.Axial{Q: q, R: r}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
