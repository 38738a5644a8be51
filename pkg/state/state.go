package state

import (
	"github.com/cbodonnell/roomsync/pkg/types"
)

// Store provides shared access to the authoritative in-memory room and
// game-state collections. Implementations must be thread-safe.
type Store interface {
	// GetRoom returns a copy of the room with the given id.
	GetRoom(id string) (*types.Room, bool)
	// ListRooms returns copies of all rooms ordered by creation time.
	ListRooms() []*types.Room
	// SetRoom inserts or replaces a room.
	SetRoom(room *types.Room)
	// DeleteRoom removes a room.
	DeleteRoom(id string)
	// GetGameState returns a copy of the game state for the given room.
	GetGameState(roomID string) (*types.GameState, bool)
	// ListGameStates returns copies of all game states.
	ListGameStates() []*types.GameState
	// SetGameState inserts or replaces a game state.
	SetGameState(gameState *types.GameState)
	// DeleteGameState removes the game state for the given room.
	DeleteGameState(roomID string)
}
