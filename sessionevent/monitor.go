// Package sessionevent records command-monitoring-style events for the
// admin commands the transaction core issues (commitTransaction,
// abortTransaction), using the real event.CommandStartedEvent /
// CommandSucceededEvent / CommandFailedEvent shapes as the payload so a
// caller already wired to the driver's command monitoring can consume them
// unchanged.
package sessionevent

import (
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/event"
)

// EventType distinguishes the phase a RecordedEvent was captured at.
type EventType int

const (
	EventCommandStarted EventType = iota
	EventCommandSucceeded
	EventCommandFailed
)

// RecordedEvent is one entry in a Recorder's event log.
type RecordedEvent struct {
	Type  EventType
	Event any
}

// Recorder accumulates command-started/succeeded/failed events for the
// commitTransaction and abortTransaction commands the core dispatches. The
// zero value is an empty Recorder ready to use; NewRecorder returns one.
//
// Unlike monitor.Monitor, Recorder carries no pool/connection events and no
// *testing.T dependency: it is wired into production Transaction dispatch,
// not just tests.
type Recorder struct {
	mu        sync.Mutex
	allEvents []RecordedEvent
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordStarted logs a command-started event.
func (r *Recorder) RecordStarted(requestID int64, db, commandName string, cmd bson.Raw) {
	evt := &event.CommandStartedEvent{
		Command:      cmd,
		DatabaseName: db,
		CommandName:  commandName,
		RequestID:    requestID,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.allEvents = append(r.allEvents, RecordedEvent{Type: EventCommandStarted, Event: evt})
}

// RecordSucceeded logs a command-succeeded event.
func (r *Recorder) RecordSucceeded(requestID int64, commandName string, reply bson.Raw, duration time.Duration) {
	evt := &event.CommandSucceededEvent{
		CommandFinishedEvent: event.CommandFinishedEvent{
			CommandName: commandName,
			RequestID:   requestID,
			Duration:    duration,
		},
		Reply: reply,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.allEvents = append(r.allEvents, RecordedEvent{Type: EventCommandSucceeded, Event: evt})
}

// RecordFailed logs a command-failed event.
func (r *Recorder) RecordFailed(requestID int64, commandName string, err error, duration time.Duration) {
	evt := &event.CommandFailedEvent{
		CommandFinishedEvent: event.CommandFinishedEvent{
			CommandName: commandName,
			RequestID:   requestID,
			Duration:    duration,
		},
		Failure: err,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.allEvents = append(r.allEvents, RecordedEvent{Type: EventCommandFailed, Event: evt})
}

// Events returns a copy of every recorded event, in order.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]RecordedEvent(nil), r.allEvents...)
}

// StartedEvents returns all command-started events, in order.
func (r *Recorder) StartedEvents() []*event.CommandStartedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []*event.CommandStartedEvent
	for _, e := range r.allEvents {
		if e.Type == EventCommandStarted {
			events = append(events, e.Event.(*event.CommandStartedEvent))
		}
	}
	return events
}

// SucceededEvents returns all command-succeeded events, in order.
func (r *Recorder) SucceededEvents() []*event.CommandSucceededEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []*event.CommandSucceededEvent
	for _, e := range r.allEvents {
		if e.Type == EventCommandSucceeded {
			events = append(events, e.Event.(*event.CommandSucceededEvent))
		}
	}
	return events
}

// FailedEvents returns all command-failed events, in order.
func (r *Recorder) FailedEvents() []*event.CommandFailedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []*event.CommandFailedEvent
	for _, e := range r.allEvents {
		if e.Type == EventCommandFailed {
			events = append(events, e.Event.(*event.CommandFailedEvent))
		}
	}
	return events
}
