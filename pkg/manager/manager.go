package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/roomsync/pkg/events"
	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/state"
	"github.com/cbodonnell/roomsync/pkg/storage"
	"github.com/cbodonnell/roomsync/pkg/types"
	"github.com/cbodonnell/roomsync/pkg/workers"
)

const (
	// DefaultReconcileInterval is the default reconcile timer interval.
	DefaultReconcileInterval = 2 * time.Second
	// MinRoomCapacity is the smallest allowed room capacity.
	MinRoomCapacity = 2
	// MaxRoomCapacity is the largest allowed room capacity.
	MaxRoomCapacity = 20
)

// Manager is the shared-state synchronization core. It owns the
// authoritative in-memory room and game-state collections, write-through
// persists them via the storage adapter, and publishes change
// notifications on the event bus. A reconcile worker started by Start
// merges externally persisted state back in on a fixed interval.
//
// Operations run to completion under the manager's lock, so API calls
// and reconcile ticks never interleave within one process. Event
// callbacks are invoked while the lock is held and must not call back
// into the manager. The external snapshot itself is not transactional:
// independent processes writing through separate managers can lose
// updates to each other, and that race is resolved only by the
// last-write-wins merge.
type Manager struct {
	lock              sync.Mutex
	store             state.Store
	adapter           storage.Adapter
	bus               *events.Bus
	reconcileInterval time.Duration
	cancel            context.CancelFunc
}

// NewManagerOptions contains options for creating a new Manager.
type NewManagerOptions struct {
	// Store is the in-memory state store. Defaults to a new InMemoryStore.
	Store state.Store
	// Adapter is the external persistence adapter.
	Adapter storage.Adapter
	// Bus is the event channel registry. Defaults to a new Bus.
	Bus *events.Bus
	// ReconcileInterval is the reconcile timer interval. Defaults to
	// DefaultReconcileInterval.
	ReconcileInterval time.Duration
}

func NewManager(opts NewManagerOptions) *Manager {
	store := opts.Store
	if store == nil {
		store = state.NewInMemoryStore()
	}
	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus()
	}
	interval := opts.ReconcileInterval
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &Manager{
		store:             store,
		adapter:           opts.Adapter,
		bus:               bus,
		reconcileInterval: interval,
	}
}

// Bus returns the event channel registry consumers subscribe on.
func (m *Manager) Bus() *events.Bus {
	return m.bus
}

// Start launches the reconcile worker. It returns immediately; the
// worker runs until Stop is called or the context is canceled.
func (m *Manager) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	worker := workers.NewReconcileWorker(workers.NewReconcileWorkerOptions{
		Store:    m.store,
		Adapter:  m.adapter,
		Bus:      m.bus,
		Interval: m.reconcileInterval,
		Lock:     &m.lock,
	})
	go worker.Start(ctx)
}

// Stop stops the reconcile worker and clears all event subscriptions.
// Teardown is all-or-nothing: there is no per-operation cancellation.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.bus.Clear()
}

// CreateRoomParams describes a room to create. The room id is generated
// internally.
type CreateRoomParams struct {
	Name       string
	Host       string
	Game       string
	MaxPlayers int
}

// CreateRoom creates a room with the host as its only player and
// status waiting.
func (m *Manager) CreateRoom(ctx context.Context, params CreateRoomParams) (*types.Room, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if params.MaxPlayers < MinRoomCapacity || params.MaxPlayers > MaxRoomCapacity {
		return nil, fmt.Errorf("max players must be between %d and %d, got %d", MinRoomCapacity, MaxRoomCapacity, params.MaxPlayers)
	}

	id, err := generateRoomID(m.store, RoomIDMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to generate room id: %v", err)
	}

	now := time.Now().UnixMilli()
	room := &types.Room{
		ID:          id,
		Name:        params.Name,
		Host:        params.Host,
		Players:     []string{params.Host},
		Game:        params.Game,
		Status:      types.RoomStatusWaiting,
		MaxPlayers:  params.MaxPlayers,
		CreatedAt:   now,
		LastUpdated: now,
	}
	m.store.SetRoom(room)
	m.persist(ctx)
	m.publishRoom(room)

	return room, nil
}

// JoinRoom adds a player to a room. Joining a room the player is
// already in returns the unchanged room. Joining a full room returns
// ErrRoomFull without mutation.
func (m *Manager) JoinRoom(ctx context.Context, id string, player string) (*types.Room, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	room, ok := m.store.GetRoom(id)
	if !ok {
		return nil, &ErrNotFound{}
	}
	if room.HasPlayer(player) {
		return room, nil
	}
	if room.IsFull() {
		return nil, &ErrRoomFull{}
	}

	room.Players = append(room.Players, player)
	room.LastUpdated = nextTimestamp(room.LastUpdated)
	m.store.SetRoom(room)
	m.persist(ctx)
	m.publishRoom(room)

	return room, nil
}

// LeaveRoom removes a player from a room. When the last player leaves,
// the room and its game state are deleted and (nil, nil) is returned.
// If the departing player was host, the first remaining player becomes
// the new host. Leaving a room the player is not in returns the
// unchanged room, mirroring the idempotent join.
func (m *Manager) LeaveRoom(ctx context.Context, id string, player string) (*types.Room, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	room, ok := m.store.GetRoom(id)
	if !ok {
		return nil, &ErrNotFound{}
	}
	if !room.HasPlayer(player) {
		return room, nil
	}

	players := make([]string, 0, len(room.Players))
	for _, p := range room.Players {
		if p != player {
			players = append(players, p)
		}
	}

	if len(players) == 0 {
		m.store.DeleteRoom(id)
		m.store.DeleteGameState(id)
		m.persist(ctx)
		m.publishRooms()
		return nil, nil
	}

	wasHost := room.Host == player
	room.Players = players
	if wasHost {
		room.Host = players[0]
	}
	room.LastUpdated = nextTimestamp(room.LastUpdated)
	m.store.SetRoom(room)
	m.persist(ctx)
	m.publishRoom(room)

	return room, nil
}

// UpdateRoomStatus overwrites the room status. Any of the declared
// statuses is accepted in any order; transitions are not validated.
func (m *Manager) UpdateRoomStatus(ctx context.Context, id string, status types.RoomStatus) (*types.Room, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	room, ok := m.store.GetRoom(id)
	if !ok {
		return nil, &ErrNotFound{}
	}

	room.Status = status
	room.LastUpdated = nextTimestamp(room.LastUpdated)
	m.store.SetRoom(room)
	m.persist(ctx)
	m.publishRoom(room)

	return room, nil
}

// UpdateGameState replaces the entire game payload for a room. The
// payload is opaque to the core and is not validated.
func (m *Manager) UpdateGameState(ctx context.Context, roomID string, gameData json.RawMessage) (*types.GameState, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.store.GetRoom(roomID); !ok {
		return nil, &ErrNotFound{}
	}

	var last int64
	if prev, ok := m.store.GetGameState(roomID); ok {
		last = prev.LastUpdated
	}
	gameState := &types.GameState{
		RoomID:      roomID,
		GameData:    gameData,
		LastUpdated: nextTimestamp(last),
	}
	m.store.SetGameState(gameState)
	m.persist(ctx)
	m.bus.Publish(events.GameChannel(roomID), gameState)

	return gameState, nil
}

// GetGameState returns the game state for a room, or ErrNotFound.
func (m *Manager) GetGameState(ctx context.Context, roomID string) (*types.GameState, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	gameState, ok := m.store.GetGameState(roomID)
	if !ok {
		return nil, &ErrNotFound{}
	}
	return gameState, nil
}

// GetRoom returns the room with the given id, or ErrNotFound.
func (m *Manager) GetRoom(ctx context.Context, id string) (*types.Room, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	room, ok := m.store.GetRoom(id)
	if !ok {
		return nil, &ErrNotFound{}
	}
	return room, nil
}

// ListRooms returns all rooms ordered by creation time.
func (m *Manager) ListRooms(ctx context.Context) []*types.Room {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.store.ListRooms()
}

// persist write-through persists the full state to the adapter. A
// persistence failure is logged and swallowed: the in-memory store
// remains authoritative and serving continues from memory until the
// next successful write.
func (m *Manager) persist(ctx context.Context) {
	rooms := m.store.ListRooms()
	gameStates := m.store.ListGameStates()

	roomsJSON, err := json.Marshal(rooms)
	if err != nil {
		log.Error("Failed to marshal rooms: %v", err)
		return
	}
	gameStatesJSON, err := json.Marshal(gameStates)
	if err != nil {
		log.Error("Failed to marshal game states: %v", err)
		return
	}
	snapshotJSON, err := json.Marshal(&types.Snapshot{
		Rooms:      rooms,
		GameStates: gameStates,
		SyncedAt:   time.Now().UnixMilli(),
	})
	if err != nil {
		log.Error("Failed to marshal snapshot: %v", err)
		return
	}

	if err := m.adapter.Write(ctx, storage.KeyRooms, string(roomsJSON)); err != nil {
		log.Error("Failed to persist rooms: %v", err)
	}
	if err := m.adapter.Write(ctx, storage.KeyGameStates, string(gameStatesJSON)); err != nil {
		log.Error("Failed to persist game states: %v", err)
	}
	if err := m.adapter.Write(ctx, storage.KeySnapshot, string(snapshotJSON)); err != nil {
		log.Error("Failed to persist snapshot: %v", err)
	}
}

func (m *Manager) publishRoom(room *types.Room) {
	m.bus.Publish(events.RoomChannel(room.ID), room)
	m.publishRooms()
}

func (m *Manager) publishRooms() {
	m.bus.Publish(events.ChannelRooms, m.store.ListRooms())
}

// nextTimestamp returns the current wall-clock time in milliseconds,
// bumped past prev so the conflict-resolution clock strictly increases
// on every mutation.
func nextTimestamp(prev int64) int64 {
	now := time.Now().UnixMilli()
	if now <= prev {
		now = prev + 1
	}
	return now
}
