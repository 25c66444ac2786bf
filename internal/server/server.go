package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/patrickmn/go-cache"

	"github.com/bernatvadell/muonline-sub002/internal/auditlog"
	"github.com/bernatvadell/muonline-sub002/internal/config"
	"github.com/bernatvadell/muonline-sub002/internal/item"
	"github.com/bernatvadell/muonline-sub002/internal/mix"
)

// RecipeCounter reports the size of the loaded recipe database
type RecipeCounter interface {
	Count() int
}

// Mix bundles the crafting collaborators shared by all connections
type Mix struct {
	Engine   *mix.Engine
	Registry *item.Registry
	Recipes  RecipeCounter
}

// Server represents the mix server
type Server struct {
	config       *config.Config
	session      *Session
	upgrader     websocket.Upgrader
	httpSrv      *http.Server
	jwtValidator *JWTValidator
	redis        *redis.Client

	// Crafting
	mix     Mix
	results *cache.Cache
	audit   *auditlog.Writer

	// Connection tracking
	connections map[*Connection]bool
	connMu      sync.RWMutex

	// Shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config, m Mix) (*Server, error) {
	log.Println("Initializing server...")

	if m.Engine == nil {
		return nil, fmt.Errorf("mix engine is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	if err := redisClient.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("Connected to Redis")

	ttl := time.Duration(cfg.Mix.CacheTTLSeconds) * time.Second
	srv := &Server{
		config:      cfg,
		session:     NewSession("main", cfg),
		connections: make(map[*Connection]bool),
		ctx:         ctx,
		cancel:      cancel,
		redis:       redisClient,
		mix:         m,
		results:     cache.New(ttl, 2*ttl),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	if cfg.Mix.AuditDir != "" {
		srv.audit = auditlog.NewWriter(cfg.Mix.AuditDir)
		log.Printf("Mix audit log enabled in %s", cfg.Mix.AuditDir)
	}

	// Initialize JWT validator
	jwtValidator, err := NewJWTValidator(cfg, redisClient)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize JWT validator: %w", err)
	}
	srv.jwtValidator = jwtValidator

	log.Println("Server initialized successfully")
	return srv, nil
}

// Start begins listening for connections
func (s *Server) Start(addr string) error {
	log.Printf("Starting WebSocket server on %s", addr)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("WebSocket endpoint: ws://%s/ws", addr)
	log.Printf("Health endpoint: http://%s/health", addr)

	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	log.Println("Shutting down server...")

	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}

	// Close all WebSocket connections
	s.connMu.Lock()
	for conn := range s.connections {
		conn.Close()
	}
	s.connMu.Unlock()

	if s.audit != nil {
		if err := s.audit.Close(); err != nil {
			log.Printf("Audit log close error: %v", err)
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("Redis close error: %v", err)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

// newMixer creates the mix window state for one player
func (s *Server) newMixer(playerID string) *mixer {
	var sink auditSink
	if s.audit != nil {
		sink = s.audit
	}
	return newMixer(s.mix.Engine, s.mix.Registry, s.results, sink, playerID, s.config.Mix)
}

func (s *Server) recipeCount() int {
	if s.mix.Recipes == nil {
		return 0
	}
	return s.mix.Recipes.Count()
}

// handleWebSocket handles WebSocket connection requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenString := extractTokenFromHeader(r)
	if tokenString == "" {
		log.Printf("Missing JWT token from %s", r.RemoteAddr)
		http.Error(w, "Missing authentication token", http.StatusUnauthorized)
		return
	}

	player, err := s.jwtValidator.ValidateToken(r.Context(), tokenString)
	if err != nil {
		log.Printf("Invalid JWT token from %s: %v", r.RemoteAddr, err)
		http.Error(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn := NewConnection(ws, s, player)

	s.connMu.Lock()
	s.connections[conn] = true
	s.connMu.Unlock()

	log.Printf("WebSocket connection established: %s (%s)", player.Username, r.RemoteAddr)

	// Handle connection (blocking)
	conn.Handle()

	s.connMu.Lock()
	delete(s.connections, conn)
	s.connMu.Unlock()

	log.Printf("WebSocket connection closed: %s (%s)", player.Username, r.RemoteAddr)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","recipes":%d}`, s.recipeCount())
}
