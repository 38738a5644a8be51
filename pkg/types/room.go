package types

// RoomStatus represents the lifecycle status of a room.
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"
	RoomStatusPlaying  RoomStatus = "playing"
	RoomStatusFinished RoomStatus = "finished"
)

// Room represents a joinable game session with bounded capacity.
// LastUpdated is the conflict-resolution clock: it strictly increases
// on every mutation and the reconciler compares it across contexts.
type Room struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Host        string     `json:"host"`
	Players     []string   `json:"players"`
	Game        string     `json:"game"`
	Status      RoomStatus `json:"status"`
	MaxPlayers  int        `json:"maxPlayers"`
	CreatedAt   int64      `json:"createdAt"`
	LastUpdated int64      `json:"lastUpdated"`
}

// Copy returns a deep copy of the room.
func (r *Room) Copy() *Room {
	if r == nil {
		return nil
	}
	copy := *r
	copy.Players = make([]string, len(r.Players))
	for i, p := range r.Players {
		copy.Players[i] = p
	}
	return &copy
}

// HasPlayer reports whether the given player is a member of the room.
func (r *Room) HasPlayer(player string) bool {
	for _, p := range r.Players {
		if p == player {
			return true
		}
	}
	return false
}

// IsFull reports whether the room is at capacity.
func (r *Room) IsFull() bool {
	return len(r.Players) >= r.MaxPlayers
}
