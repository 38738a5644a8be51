package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/roomsync/pkg/events"
	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/queue"
	"github.com/cbodonnell/roomsync/pkg/state"
	"github.com/cbodonnell/roomsync/pkg/storage"
	"github.com/cbodonnell/roomsync/pkg/types"
)

type ReconcileWorker struct {
	store    state.Store
	adapter  storage.Adapter
	bus      *events.Bus
	interval time.Duration
	lock     sync.Locker
}

type NewReconcileWorkerOptions struct {
	Store   state.Store
	Adapter storage.Adapter
	Bus     *events.Bus
	// Interval is the fixed reconcile timer interval.
	Interval time.Duration
	// Lock serializes reconcile ticks with API operations. The manager
	// passes its own mutex so ticks and operations run to completion
	// with respect to each other.
	Lock sync.Locker
}

type changeNotification struct {
	channel string
	payload interface{}
}

// NewReconcileWorker creates a new ReconcileWorker.
// The worker periodically reads the externally persisted snapshot,
// merges strictly-newer remote entities into the local store, and
// publishes change notifications on the bus.
func NewReconcileWorker(opts NewReconcileWorkerOptions) *ReconcileWorker {
	lock := opts.Lock
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &ReconcileWorker{
		store:    opts.Store,
		adapter:  opts.Adapter,
		bus:      opts.Bus,
		interval: opts.Interval,
		lock:     lock,
	}
}

// Start runs the reconcile loop until the context is canceled. Ticks
// never overlap: the next tick does not start until the previous one
// has returned.
func (w *ReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.reconcile(ctx); err != nil {
				log.Error("Failed to reconcile: %v", err)
			}
		}
	}
}

// reconcile runs one merge of the external snapshot into the local
// store. A remote entity wins only if its LastUpdated is strictly
// greater than the local one; ties keep the local copy. Entities absent
// from the snapshot are never removed here, deletions propagate only
// through the lifecycle API's own write-through. The rooms aggregate is
// published every tick, after any per-entity notifications, even when
// nothing changed or the snapshot could not be read.
func (w *ReconcileWorker) reconcile(ctx context.Context) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	defer func() {
		w.bus.Publish(events.ChannelRooms, w.store.ListRooms())
	}()

	raw, err := w.adapter.Read(ctx, storage.KeySnapshot)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to read snapshot: %v", err)
	}

	var snapshot types.Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot: %v", err)
	}

	// sized to the snapshot so staging never blocks the merge
	notifications := queue.NewInMemoryQueue(len(snapshot.Rooms) + len(snapshot.GameStates))

	for _, remote := range snapshot.Rooms {
		local, ok := w.store.GetRoom(remote.ID)
		if ok && remote.LastUpdated <= local.LastUpdated {
			continue
		}
		w.store.SetRoom(remote)
		notifications.Enqueue(&changeNotification{
			channel: events.RoomChannel(remote.ID),
			payload: remote,
		})
	}

	for _, remote := range snapshot.GameStates {
		local, ok := w.store.GetGameState(remote.RoomID)
		if ok && remote.LastUpdated <= local.LastUpdated {
			continue
		}
		w.store.SetGameState(remote)
		notifications.Enqueue(&changeNotification{
			channel: events.GameChannel(remote.RoomID),
			payload: remote,
		})
	}

	for _, item := range notifications.ReadAllMessages() {
		notification, ok := item.(*changeNotification)
		if !ok {
			log.Error("Unexpected notification type: %T", item)
			continue
		}
		w.bus.Publish(notification.channel, notification.payload)
	}

	return nil
}
