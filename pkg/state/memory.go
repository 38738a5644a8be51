package state

import (
	"sort"
	"sync"

	"github.com/cbodonnell/roomsync/pkg/types"
)

type InMemoryStore struct {
	lock       sync.RWMutex
	rooms      map[string]*types.Room
	gameStates map[string]*types.GameState
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rooms:      make(map[string]*types.Room),
		gameStates: make(map[string]*types.GameState),
	}
}

func (s *InMemoryStore) GetRoom(id string) (*types.Room, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, false
	}
	return room.Copy(), true
}

func (s *InMemoryStore) ListRooms() []*types.Room {
	s.lock.RLock()
	defer s.lock.RUnlock()
	rooms := make([]*types.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room.Copy())
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt != rooms[j].CreatedAt {
			return rooms[i].CreatedAt < rooms[j].CreatedAt
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms
}

func (s *InMemoryStore) SetRoom(room *types.Room) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.rooms[room.ID] = room.Copy()
}

func (s *InMemoryStore) DeleteRoom(id string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.rooms, id)
}

func (s *InMemoryStore) GetGameState(roomID string) (*types.GameState, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	gameState, ok := s.gameStates[roomID]
	if !ok {
		return nil, false
	}
	return gameState.Copy(), true
}

func (s *InMemoryStore) ListGameStates() []*types.GameState {
	s.lock.RLock()
	defer s.lock.RUnlock()
	gameStates := make([]*types.GameState, 0, len(s.gameStates))
	for _, gameState := range s.gameStates {
		gameStates = append(gameStates, gameState.Copy())
	}
	sort.Slice(gameStates, func(i, j int) bool {
		return gameStates[i].RoomID < gameStates[j].RoomID
	})
	return gameStates
}

func (s *InMemoryStore) SetGameState(gameState *types.GameState) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.gameStates[gameState.RoomID] = gameState.Copy()
}

func (s *InMemoryStore) DeleteGameState(roomID string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.gameStates, roomID)
}
