package server

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bernatvadell/muonline-sub002/internal/config"
	"github.com/bernatvadell/muonline-sub002/internal/network"
	"github.com/bernatvadell/muonline-sub002/pkg/models"
)

// Session groups the connected players
type Session struct {
	ID        string
	CreatedAt time.Time

	// Player management
	players     map[string]*models.Player // playerID -> Player
	connections map[string]*Connection    // playerID -> Connection
	maxPlayers  int
	mu          sync.RWMutex
}

// NewSession creates a new session
func NewSession(id string, cfg *config.Config) *Session {
	log.Printf("Creating session: %s", id)
	return &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		players:     make(map[string]*models.Player),
		connections: make(map[string]*Connection),
		maxPlayers:  cfg.Session.MaxPlayers,
	}
}

// AddPlayer adds a player to the session
func (s *Session) AddPlayer(player *models.Player, conn *Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.players[player.ID]; !exists && s.maxPlayers > 0 && len(s.players) >= s.maxPlayers {
		return fmt.Errorf("session %s is full (%d players)", s.ID, s.maxPlayers)
	}
	s.players[player.ID] = player
	s.connections[player.ID] = conn

	log.Printf("Player %s (%s) joined session %s", player.Username, player.ID, s.ID)
	return nil
}

// RemovePlayer removes a player from the session and reports whether it
// was present
func (s *Session) RemovePlayer(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, exists := s.players[playerID]
	if !exists {
		return false
	}
	log.Printf("Player %s (%s) left session %s", player.Username, playerID, s.ID)
	delete(s.players, playerID)
	delete(s.connections, playerID)
	return true
}

// GetPlayer retrieves a player by ID
func (s *Session) GetPlayer(playerID string) (*models.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, exists := s.players[playerID]
	return player, exists
}

// PlayerCount returns the number of players in the session
func (s *Session) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// MaxPlayers returns the configured player limit
func (s *Session) MaxPlayers() int { return s.maxPlayers }

// BroadcastExcept sends a message to all players except the specified connection
func (s *Session) BroadcastExcept(exclude *Connection, msg *network.ServerMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conn := range s.connections {
		if conn != exclude {
			conn.SendMessage(msg)
		}
	}
}
