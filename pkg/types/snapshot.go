package types

// Snapshot is the combined record written to external storage and read
// back by the reconciler: the full room and game-state collections plus
// the time the snapshot was taken.
type Snapshot struct {
	Rooms      []*Room      `json:"rooms"`
	GameStates []*GameState `json:"gameStates"`
	SyncedAt   int64        `json:"syncedAt"`
}
