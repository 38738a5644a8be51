package types

import "encoding/json"

// GameState is the per-room game payload. GameData is owned by the game
// and is never inspected by the sync core.
type GameState struct {
	RoomID      string          `json:"roomId"`
	GameData    json.RawMessage `json:"gameData"`
	LastUpdated int64           `json:"lastUpdated"`
}

// Copy returns a deep copy of the game state.
func (g *GameState) Copy() *GameState {
	if g == nil {
		return nil
	}
	copy := *g
	copy.GameData = make(json.RawMessage, len(g.GameData))
	for i, b := range g.GameData {
		copy.GameData[i] = b
	}
	return &copy
}
