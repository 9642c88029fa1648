// Package dispatchertest provides an in-process fake implementing
// session.Dispatcher, scripted the way the failCommand server fail point
// scripts a real mongod: a command name, a number of times to fail, and the
// error labels/code to fail it with. It lets the retry-on-transient-failure
// and abort-swallows-errors behaviors of the transaction core be exercised
// without a live deployment.
package dispatchertest

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Error is returned by Dispatcher.Execute for a scripted failure. It
// implements the session.labeled interface via Labels so that
// IsNetworkError/IsRetryableCommitError classify it correctly.
type Error struct {
	Code    int32
	Message string
	labels  []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("command failed (code %d): %s", e.Code, e.Message)
}

// Labels reports the error labels this scripted failure was configured with.
func (e *Error) Labels() []string {
	return e.labels
}

// ErrorCode reports the numeric server error code this scripted failure was
// configured with, satisfying session.coded.
func (e *Error) ErrorCode() int32 {
	return e.Code
}

// NetworkError builds a scripted failure labeled "NetworkError", the
// classification a stream/connection-level failure carries in the real
// driver's extractError.
func NetworkError(message string) *Error {
	return &Error{Code: 6, Message: message, labels: []string{"NetworkError"}}
}

// NotMasterError builds a scripted failure carrying the "not master" error
// code a stale primary returns; txnFinish classifies it as retryable by
// code even though the server attaches no error label to it.
func NotMasterError(message string) *Error {
	return &Error{Code: 10107, Message: message}
}

// PlainError builds a scripted failure with no retryable classification.
func PlainError(message string) *Error {
	return &Error{Code: 1, Message: message}
}

// script is the queued behavior for one command name: fail the next n
// invocations with err, then succeed with reply.
type script struct {
	failuresRemaining int
	err               error
	reply             bson.Raw
}

// Dispatcher is a scriptable fake session.Dispatcher. The zero value
// dispatches every command successfully with an empty reply document.
type Dispatcher struct {
	mu       sync.Mutex
	scripts  map[string]*script
	executed []Invocation
}

// Invocation records one Execute call, for assertions like "exactly two
// commitTransaction dispatches".
type Invocation struct {
	DB      string
	Command bson.Raw
}

// New constructs an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{scripts: make(map[string]*script)}
}

// FailNext scripts the next n invocations of the named command (matched
// against the command document's first element key, mirroring
// failCommand's failCommands matching) to fail with err. Subsequent
// invocations succeed.
func (d *Dispatcher) FailNext(commandName string, n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.scripts[commandName] = &script{failuresRemaining: n, err: err}
}

// SucceedWith scripts every invocation of the named command to return reply
// once any scripted failures are exhausted.
func (d *Dispatcher) SucceedWith(commandName string, reply bson.Raw) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.scripts[commandName]
	if !ok {
		s = &script{}
		d.scripts[commandName] = s
	}
	s.reply = reply
}

// Execute implements session.Dispatcher.
func (d *Dispatcher) Execute(_ context.Context, db string, cmd bson.Raw) (bson.Raw, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.executed = append(d.executed, Invocation{DB: db, Command: append(bson.Raw(nil), cmd...)})

	name := firstKey(cmd)
	s, ok := d.scripts[name]
	if !ok {
		return bson.Raw{}, nil
	}

	if s.failuresRemaining > 0 {
		s.failuresRemaining--
		return bson.Raw{}, s.err
	}

	return s.reply, nil
}

// Invocations returns every recorded Execute call, in order.
func (d *Dispatcher) Invocations() []Invocation {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]Invocation(nil), d.executed...)
}

// CountInvocations reports how many times the named command was dispatched.
func (d *Dispatcher) CountInvocations(commandName string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	count := 0
	for _, inv := range d.executed {
		if firstKey(inv.Command) == commandName {
			count++
		}
	}
	return count
}

func firstKey(cmd bson.Raw) string {
	elements, err := cmd.Elements()
	if err != nil || len(elements) == 0 {
		return ""
	}
	return elements[0].Key()
}
