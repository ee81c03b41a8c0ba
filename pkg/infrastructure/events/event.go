package events

import (
	"time"
)

// Event is one recorded step of a planning run. Seq counts from 1 within
// the run.
type Event struct {
	Run  string    `json:"run"`
	Seq  int       `json:"seq"`
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// Listener is called with every stored event it subscribed to
type Listener func(Event)

// EventStore keeps the event log of each planning run
type EventStore interface {
	Append(run, eventType string, data any) (Event, error)
	Run(run string) ([]Event, error)
}
