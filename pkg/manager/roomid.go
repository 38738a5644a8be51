package manager

import (
	"crypto/rand"
	"fmt"

	"github.com/cbodonnell/roomsync/pkg/state"
)

const (
	// RoomIDLength is the length of a generated room id.
	RoomIDLength = 6
	// RoomIDMaxRetries represents the maximum number of retries when generating a unique room id
	RoomIDMaxRetries = 1024

	roomIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// generateRoomID generates a room id that is not already present in the
// store, with a maximum number of retries.
func generateRoomID(store state.Store, maxRetries int) (string, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id, err := randomRoomID()
		if err != nil {
			return "", err
		}
		if _, ok := store.GetRoom(id); !ok {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique room id after %d attempts", maxRetries)
}

func randomRoomID() (string, error) {
	b := make([]byte, RoomIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %v", err)
	}
	for i := range b {
		b[i] = roomIDCharset[int(b[i])%len(roomIDCharset)]
	}
	return string(b), nil
}
