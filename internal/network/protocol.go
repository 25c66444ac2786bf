package network

import (
	"encoding/json"

	"github.com/bernatvadell/muonline-sub002/internal/inventory"
	"github.com/bernatvadell/muonline-sub002/internal/item"
	"github.com/bernatvadell/muonline-sub002/internal/mix"
)

// Message types - Client → Server
const (
	MsgTypeJoin        = "join"
	MsgTypeLeave       = "leave"
	MsgTypePing        = "ping"
	MsgTypeMixOpen     = "mix_open"
	MsgTypeMixAdd      = "mix_add"
	MsgTypeMixRemove   = "mix_remove"
	MsgTypeMixClear    = "mix_clear"
	MsgTypeMixEvaluate = "mix_evaluate"
)

// Message types - Server → Client
const (
	MsgTypeWelcome      = "welcome"
	MsgTypePlayerJoined = "player_joined"
	MsgTypePlayerLeft   = "player_left"
	MsgTypeError        = "error"
	MsgTypePong         = "pong"
	MsgTypeMixState     = "mix_state"
	MsgTypeMixResult    = "mix_result"
)

// ClientMessage represents any message from client to server
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage represents any message from server to client
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// --- Client Message Payloads ---

// MixOpenPayload opens the mix window of a facility
type MixOpenPayload struct {
	Facility       string `json:"facility"`
	CharacterLevel int    `json:"character_level"`
}

// MixAddPayload places an item in the mix box. Without X/Y the server picks
// the first free position.
type MixAddPayload struct {
	Item item.Item `json:"item"`
	X    *int      `json:"x,omitempty"`
	Y    *int      `json:"y,omitempty"`
}

// Position returns the requested placement, or nil for automatic placement.
func (p MixAddPayload) Position() *inventory.Point {
	if p.X == nil || p.Y == nil {
		return nil
	}
	return &inventory.Point{X: *p.X, Y: *p.Y}
}

// MixRemovePayload removes the stack at Index
type MixRemovePayload struct {
	Index int `json:"index"`
}

// --- Server Message Payloads ---

// WelcomePayload is sent to client after a successful join
type WelcomePayload struct {
	PlayerID   string `json:"player_id"`
	Username   string `json:"username"`
	SessionID  string `json:"session_id"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	Recipes    int    `json:"recipes"`
}

// PlayerJoinedPayload notifies clients when a player joins
type PlayerJoinedPayload struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

// PlayerLeftPayload notifies clients when a player leaves
type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

// MixStatePayload describes the contents of the mix box
type MixStatePayload struct {
	Facility string            `json:"facility"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Items    []inventory.Stack `json:"items"`
}

// RecipeSummary identifies a recipe for the client
type RecipeSummary struct {
	Category      string `json:"category"`
	Index         int    `json:"index"`
	MixID         int32  `json:"mix_id"`
	NameKey       int32  `json:"name_key"`
	AdviceKey     int32  `json:"advice_key"`
	RequiredLevel int32  `json:"required_level"`
}

// NewRecipeSummary returns nil for a nil recipe
func NewRecipeSummary(r *mix.Recipe) *RecipeSummary {
	if r == nil {
		return nil
	}
	return &RecipeSummary{
		Category:      r.Category.String(),
		Index:         r.Index,
		MixID:         r.MixID,
		NameKey:       r.Name[0],
		AdviceKey:     r.Advice[0],
		RequiredLevel: r.RequiredLevel,
	}
}

// MixResultPayload is the outcome of evaluating the mix box
type MixResultPayload struct {
	Matched     *RecipeSummary `json:"matched"`
	Similar     *RecipeSummary `json:"similar"`
	SuccessRate int            `json:"success_rate"`
	RequiredZen uint64         `json:"required_zen"`
	LevelShort  bool           `json:"level_short"`
}

// NewMixResult converts an engine result for a character of charLevel
func NewMixResult(res mix.Result, charLevel int) MixResultPayload {
	return MixResultPayload{
		Matched:     NewRecipeSummary(res.Matched),
		Similar:     NewRecipeSummary(res.Similar),
		SuccessRate: res.SuccessRate,
		RequiredZen: res.RequiredCurrency,
		LevelShort:  res.LevelShort(charLevel),
	}
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
