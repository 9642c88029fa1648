// Package mongoevent bridges the real mongo-driver event.CommandMonitor to
// a sessionevent.Recorder, for embedders that dispatch through an actual
// mongo.Client and want the transaction core's commit/abort commands
// recorded by the same Recorder the core's in-process tests use.
package mongoevent

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/event"

	"github.com/jingjingxyk/mongo-session-core/sessionevent"
)

// transactionCommands is the set of admin commands the core issues; other
// commands an embedder's mongo.Client happens to run are not forwarded.
var transactionCommands = map[string]bool{
	"commitTransaction": true,
	"abortTransaction":  true,
}

// NewCommandMonitor returns an event.CommandMonitor that forwards
// commitTransaction/abortTransaction started, succeeded, and failed events
// into recorder, so a real mongo.Client wired with this monitor produces
// the same event trail dispatchertest produces in unit tests.
func NewCommandMonitor(recorder *sessionevent.Recorder) *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(_ context.Context, evt *event.CommandStartedEvent) {
			if !transactionCommands[evt.CommandName] {
				return
			}
			recorder.RecordStarted(evt.RequestID, evt.DatabaseName, evt.CommandName, evt.Command)
		},
		Succeeded: func(_ context.Context, evt *event.CommandSucceededEvent) {
			if !transactionCommands[evt.CommandName] {
				return
			}
			recorder.RecordSucceeded(evt.RequestID, evt.CommandName, evt.Reply, evt.Duration)
		},
		Failed: func(_ context.Context, evt *event.CommandFailedEvent) {
			if !transactionCommands[evt.CommandName] {
				return
			}
			recorder.RecordFailed(evt.RequestID, evt.CommandName, evt.Failure, evt.Duration)
		},
	}
}
