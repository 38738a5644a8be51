package manager

// ErrNotFound and ErrRoomFull are ordinary operation outcomes, not
// faults: callers branch on them with the predicate helpers.

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

type ErrRoomFull struct {
}

func (e *ErrRoomFull) Error() string {
	return "room is full"
}

func IsRoomFull(err error) bool {
	_, ok := err.(*ErrRoomFull)
	return ok
}
