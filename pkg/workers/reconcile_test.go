package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/cbodonnell/roomsync/pkg/events"
	"github.com/cbodonnell/roomsync/pkg/state"
	"github.com/cbodonnell/roomsync/pkg/storage"
	"github.com/cbodonnell/roomsync/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(store state.Store, adapter storage.Adapter, bus *events.Bus) *ReconcileWorker {
	return NewReconcileWorker(NewReconcileWorkerOptions{
		Store:    store,
		Adapter:  adapter,
		Bus:      bus,
		Interval: time.Second,
	})
}

func writeSnapshot(t *testing.T, adapter storage.Adapter, snapshot *types.Snapshot) {
	t.Helper()
	b, err := json.Marshal(snapshot)
	require.NoError(t, err)
	require.NoError(t, adapter.Write(context.Background(), storage.KeySnapshot, string(b)))
}

func TestReconcileWorker_MergeLaw(t *testing.T) {
	tests := []struct {
		name       string
		localTime  int64
		remoteTime int64
		wantRemote bool
	}{
		{name: "remote newer wins", localTime: 100, remoteTime: 200, wantRemote: true},
		{name: "remote older loses", localTime: 200, remoteTime: 100, wantRemote: false},
		{name: "tie keeps local", localTime: 100, remoteTime: 100, wantRemote: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := state.NewInMemoryStore()
			adapter := storage.NewInMemoryAdapter()
			bus := events.NewBus()

			store.SetRoom(&types.Room{
				ID:          "ABC123",
				Name:        "local",
				LastUpdated: tt.localTime,
			})
			writeSnapshot(t, adapter, &types.Snapshot{
				Rooms: []*types.Room{{
					ID:          "ABC123",
					Name:        "remote",
					LastUpdated: tt.remoteTime,
				}},
				SyncedAt: time.Now().UnixMilli(),
			})

			worker := newTestWorker(store, adapter, bus)
			require.NoError(t, worker.reconcile(ctx))

			room, ok := store.GetRoom("ABC123")
			require.True(t, ok)
			if tt.wantRemote {
				assert.Equal(t, "remote", room.Name)
				assert.Equal(t, tt.remoteTime, room.LastUpdated)
			} else {
				assert.Equal(t, "local", room.Name)
				assert.Equal(t, tt.localTime, room.LastUpdated)
			}
		})
	}
}

func TestReconcileWorker_AddsUnknownRemoteEntities(t *testing.T) {
	ctx := context.Background()
	store := state.NewInMemoryStore()
	adapter := storage.NewInMemoryAdapter()
	bus := events.NewBus()

	writeSnapshot(t, adapter, &types.Snapshot{
		Rooms: []*types.Room{{
			ID:          "ABC123",
			Name:        "remote",
			LastUpdated: 100,
		}},
		GameStates: []*types.GameState{{
			RoomID:      "ABC123",
			GameData:    json.RawMessage(`{"round":1}`),
			LastUpdated: 100,
		}},
	})

	worker := newTestWorker(store, adapter, bus)
	require.NoError(t, worker.reconcile(ctx))

	room, ok := store.GetRoom("ABC123")
	require.True(t, ok)
	assert.Equal(t, "remote", room.Name)

	gameState, ok := store.GetGameState("ABC123")
	require.True(t, ok)
	assert.JSONEq(t, `{"round":1}`, string(gameState.GameData))
}

func TestReconcileWorker_MergeIsAdditiveOnly(t *testing.T) {
	ctx := context.Background()
	store := state.NewInMemoryStore()
	adapter := storage.NewInMemoryAdapter()
	bus := events.NewBus()

	// local-only room, absent from the remote snapshot
	store.SetRoom(&types.Room{
		ID:          "LOCAL1",
		LastUpdated: 100,
	})
	writeSnapshot(t, adapter, &types.Snapshot{
		Rooms: []*types.Room{{
			ID:          "REMOTE",
			LastUpdated: 100,
		}},
	})

	worker := newTestWorker(store, adapter, bus)
	require.NoError(t, worker.reconcile(ctx))

	_, ok := store.GetRoom("LOCAL1")
	assert.True(t, ok)
	_, ok = store.GetRoom("REMOTE")
	assert.True(t, ok)
}

func TestReconcileWorker_PublishesPerEntityNotifications(t *testing.T) {
	ctx := context.Background()
	store := state.NewInMemoryStore()
	adapter := storage.NewInMemoryAdapter()
	bus := events.NewBus()

	var roomUpdates []*types.Room
	bus.Subscribe(events.RoomChannel("ABC123"), func(payload interface{}) {
		update, ok := payload.(*types.Room)
		require.True(t, ok)
		roomUpdates = append(roomUpdates, update)
	})
	var gameUpdates []*types.GameState
	bus.Subscribe(events.GameChannel("ABC123"), func(payload interface{}) {
		update, ok := payload.(*types.GameState)
		require.True(t, ok)
		gameUpdates = append(gameUpdates, update)
	})

	writeSnapshot(t, adapter, &types.Snapshot{
		Rooms: []*types.Room{{
			ID:          "ABC123",
			Name:        "remote",
			LastUpdated: 100,
		}},
		GameStates: []*types.GameState{{
			RoomID:      "ABC123",
			GameData:    json.RawMessage(`{"round":1}`),
			LastUpdated: 100,
		}},
	})

	worker := newTestWorker(store, adapter, bus)
	require.NoError(t, worker.reconcile(ctx))

	require.Len(t, roomUpdates, 1)
	assert.Equal(t, "remote", roomUpdates[0].Name)
	require.Len(t, gameUpdates, 1)

	// a second tick with no remote changes publishes nothing per-entity
	require.NoError(t, worker.reconcile(ctx))
	assert.Len(t, roomUpdates, 1)
	assert.Len(t, gameUpdates, 1)
}

func TestReconcileWorker_AlwaysPublishesRoomsAggregate(t *testing.T) {
	ctx := context.Background()
	store := state.NewInMemoryStore()
	adapter := storage.NewInMemoryAdapter()
	bus := events.NewBus()

	var aggregates [][]*types.Room
	bus.Subscribe(events.ChannelRooms, func(payload interface{}) {
		rooms, ok := payload.([]*types.Room)
		require.True(t, ok)
		aggregates = append(aggregates, rooms)
	})

	worker := newTestWorker(store, adapter, bus)

	// no snapshot yet: still publishes the aggregate
	require.NoError(t, worker.reconcile(ctx))
	require.Len(t, aggregates, 1)
	assert.Empty(t, aggregates[0])

	writeSnapshot(t, adapter, &types.Snapshot{
		Rooms: []*types.Room{{
			ID:          "ABC123",
			LastUpdated: 100,
		}},
	})

	require.NoError(t, worker.reconcile(ctx))
	require.Len(t, aggregates, 2)
	assert.Len(t, aggregates[1], 1)

	// unchanged snapshot: aggregate is published regardless
	require.NoError(t, worker.reconcile(ctx))
	assert.Len(t, aggregates, 3)
}

func TestReconcileWorker_MergesLargeSnapshotInOneTick(t *testing.T) {
	ctx := context.Background()
	store := state.NewInMemoryStore()
	adapter := storage.NewInMemoryAdapter()
	bus := events.NewBus()

	const numRooms = 1500
	rooms := make([]*types.Room, numRooms)
	for i := 0; i < numRooms; i++ {
		rooms[i] = &types.Room{
			ID:          fmt.Sprintf("ROOM%04d", i),
			LastUpdated: 100,
		}
	}
	writeSnapshot(t, adapter, &types.Snapshot{
		Rooms: rooms,
	})

	worker := newTestWorker(store, adapter, bus)

	done := make(chan error, 1)
	go func() {
		done <- worker.reconcile(ctx)
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reconcile did not finish merging the snapshot")
	}

	assert.Len(t, store.ListRooms(), numRooms)
}

func TestReconcileWorker_CorruptSnapshotReturnsError(t *testing.T) {
	ctx := context.Background()
	store := state.NewInMemoryStore()
	adapter := storage.NewInMemoryAdapter()
	bus := events.NewBus()

	store.SetRoom(&types.Room{
		ID:          "ABC123",
		LastUpdated: 100,
	})
	require.NoError(t, adapter.Write(ctx, storage.KeySnapshot, "not json"))

	var aggregates [][]*types.Room
	bus.Subscribe(events.ChannelRooms, func(payload interface{}) {
		rooms, ok := payload.([]*types.Room)
		require.True(t, ok)
		aggregates = append(aggregates, rooms)
	})

	worker := newTestWorker(store, adapter, bus)
	assert.Error(t, worker.reconcile(ctx))

	// the aggregate still goes out from local state on a faulted tick
	require.Len(t, aggregates, 1)
	assert.Len(t, aggregates[0], 1)
}

func TestReconcileWorker_StartStopsOnContextCancel(t *testing.T) {
	store := state.NewInMemoryStore()
	adapter := storage.NewInMemoryAdapter()
	bus := events.NewBus()

	worker := NewReconcileWorker(NewReconcileWorkerOptions{
		Store:    store,
		Adapter:  adapter,
		Bus:      bus,
		Interval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
