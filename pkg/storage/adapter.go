package storage

import "context"

// Logical keys used by the sync core. KeySnapshot holds the combined
// record (rooms + game states + sync timestamp) read by the reconciler.
const (
	KeyRooms      = "roomsync:rooms"
	KeyGameStates = "roomsync:game_states"
	KeySnapshot   = "roomsync:snapshot"
)

// Adapter is the external persistence contract: a synchronous key/value
// store over named string keys. Values are serialized structured text.
// Access across independent contexts is not transactional; two contexts
// can race on read-modify-write and silently lose one side's update.
type Adapter interface {
	// Read returns the value stored at key, or ErrNotFound if absent.
	Read(ctx context.Context, key string) (string, error)
	// Write stores the value at key, replacing any previous value.
	Write(ctx context.Context, key string, value string) error
	// Close releases any resources held by the adapter.
	Close(ctx context.Context) error
}
