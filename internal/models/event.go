package models

import "fmt"

// EventKind says which document a change event refers to
type EventKind string

const (
	// EventKindRoom signals the room document changed
	EventKindRoom EventKind = "room"

	// EventKindPlayer signals a player document changed
	EventKindPlayer EventKind = "player"
)

// Event is published on a room's channel after every store write so that
// mirrors know which document to refetch.
type Event struct {
	// Kind is the changed document kind
	Kind EventKind `json:"kind"`

	// ID is the room code for room events, the player id for player events
	ID string `json:"id"`
}

// EventChannel returns the pub/sub channel for a room's change events
func EventChannel(code string) string {
	return fmt.Sprintf("trinque:room:%s:events", code)
}
