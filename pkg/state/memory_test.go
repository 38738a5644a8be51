package state

import (
	"encoding/json"
	"testing"

	"github.com/cbodonnell/roomsync/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryStore_Rooms(t *testing.T) {
	store := NewInMemoryStore()

	_, ok := store.GetRoom("ABC123")
	assert.False(t, ok)

	room := &types.Room{
		ID:          "ABC123",
		Name:        "Friends",
		Host:        "alice",
		Players:     []string{"alice"},
		Status:      types.RoomStatusWaiting,
		MaxPlayers:  4,
		CreatedAt:   100,
		LastUpdated: 100,
	}
	store.SetRoom(room)

	got, ok := store.GetRoom("ABC123")
	assert.True(t, ok)
	assert.Equal(t, room, got)

	// mutating the returned copy must not affect the stored room
	got.Players = append(got.Players, "bob")
	again, ok := store.GetRoom("ABC123")
	assert.True(t, ok)
	assert.Equal(t, []string{"alice"}, again.Players)

	store.DeleteRoom("ABC123")
	_, ok = store.GetRoom("ABC123")
	assert.False(t, ok)
}

func TestInMemoryStore_ListRoomsOrderedByCreation(t *testing.T) {
	store := NewInMemoryStore()
	store.SetRoom(&types.Room{ID: "BBB222", CreatedAt: 200})
	store.SetRoom(&types.Room{ID: "AAA111", CreatedAt: 100})
	store.SetRoom(&types.Room{ID: "CCC333", CreatedAt: 100})

	rooms := store.ListRooms()
	ids := make([]string, len(rooms))
	for i, room := range rooms {
		ids[i] = room.ID
	}

	assert.Equal(t, []string{"AAA111", "CCC333", "BBB222"}, ids)
}

func TestInMemoryStore_GameStates(t *testing.T) {
	store := NewInMemoryStore()

	_, ok := store.GetGameState("ABC123")
	assert.False(t, ok)

	gameState := &types.GameState{
		RoomID:      "ABC123",
		GameData:    json.RawMessage(`{"round":1}`),
		LastUpdated: 100,
	}
	store.SetGameState(gameState)

	got, ok := store.GetGameState("ABC123")
	assert.True(t, ok)
	assert.Equal(t, gameState, got)

	store.DeleteGameState("ABC123")
	_, ok = store.GetGameState("ABC123")
	assert.False(t, ok)
}
