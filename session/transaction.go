package session

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/jingjingxyk/mongo-session-core/sessionevent"
)

// transactionState is the tag of the five-state transaction variant. Modeling
// the state as an explicit enum, rather than scattering boolean flags across
// Transaction, makes illegal combinations unrepresentable at the type level.
type transactionState int

const (
	transactionNone transactionState = iota
	transactionStarting
	transactionInProgress
	transactionCommitted
	transactionAborted
)

func (s transactionState) String() string {
	switch s {
	case transactionNone:
		return "none"
	case transactionStarting:
		return "starting"
	case transactionInProgress:
		return "in_progress"
	case transactionCommitted:
		return "committed"
	case transactionAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Transaction is the per-session, five-state transaction state machine. It
// is not safe for concurrent use: a ClientSession, and therefore its
// Transaction, belongs to a single goroutine at a time.
type Transaction struct {
	state      transactionState
	opts       *TransactionOptions
	dispatcher Dispatcher
	serverSess *ServerSession
	sessionID  int64
	log        logr.Logger
	recorder   *sessionevent.Recorder
	nextReqID  int64
}

// SetRecorder attaches a sessionevent.Recorder that observes every
// commitTransaction/abortTransaction dispatch, including retries. A nil
// recorder (the default) disables event recording entirely.
func (t *Transaction) SetRecorder(recorder *sessionevent.Recorder) {
	t.recorder = recorder
}

// newTransaction constructs a Transaction in the NONE state.
func newTransaction(serverSess *ServerSession, sessionID int64, dispatcher Dispatcher, log logr.Logger) *Transaction {
	return &Transaction{
		state:      transactionNone,
		dispatcher: dispatcher,
		serverSess: serverSess,
		sessionID:  sessionID,
		log:        log,
	}
}

// State reports the current transaction state, for tests and diagnostics.
func (t *Transaction) State() string {
	return t.state.String()
}

// StartTransaction begins a new transaction, seeding its options from
// sessionDefault and layering override on top (override may be nil).
func (t *Transaction) StartTransaction(sessionDefault, override *TransactionOptions) error {
	switch t.state {
	case transactionNone, transactionCommitted, transactionAborted:
		t.opts = MergeTransactionOptions(sessionDefault, override)
		t.state = transactionStarting
		return nil
	default:
		return newInvalidStateError(transactionAlreadyInProgress)
	}
}

// AppendTxnFields decorates cmd with the fields required by the current
// transaction state, called on every operation issued while a session is
// attached. It is the sole path by which the state machine
// advances from STARTING to IN_PROGRESS.
func (t *Transaction) AppendTxnFields(cmd bson.D) (bson.D, error) {
	switch t.state {
	case transactionNone:
		return cmd, nil

	case transactionStarting:
		t.state = transactionInProgress
		t.serverSess.TxnNumber++

		if t.opts != nil && !isDefaultReadConcern(t.opts.ReadConcern) {
			rcBytes, err := bson.Marshal(t.opts.ReadConcern)
			if err != nil {
				return cmd, newInvalidStateError(invalidReadConcernInTxn)
			}
			var rcDoc bson.Raw
			if err := bson.Unmarshal(rcBytes, &rcDoc); err != nil {
				return cmd, newInvalidStateError(invalidReadConcernInTxn)
			}
			cmd = append(cmd, bson.E{Key: "readConcern", Value: rcDoc})
		}

		cmd = append(cmd, bson.E{Key: "startTransaction", Value: true})

		return t.appendInProgressFields(cmd), nil

	case transactionInProgress:
		return t.appendInProgressFields(cmd), nil

	case transactionCommitted, transactionAborted:
		t.opts = nil
		t.state = transactionNone
		return cmd, nil

	default:
		return cmd, nil
	}
}

func (t *Transaction) appendInProgressFields(cmd bson.D) bson.D {
	cmd = append(cmd, bson.E{Key: "txnNumber", Value: t.serverSess.TxnNumber})
	cmd = append(cmd, bson.E{Key: "autocommit", Value: false})
	return cmd
}

// CommitTransaction runs the commit side of the state machine.
func (t *Transaction) CommitTransaction(ctx context.Context) error {
	switch t.state {
	case transactionNone:
		return newInvalidStateError(noTransactionStarted)

	case transactionStarting:
		t.state = transactionCommitted
		return nil

	case transactionInProgress, transactionCommitted:
		err := t.txnFinish(ctx, "commitTransaction")
		t.state = transactionCommitted
		return err

	case transactionAborted:
		return newInvalidStateError(cannotCommitAfterAbort)

	default:
		return nil
	}
}

// AbortTransaction runs the abort side of the state machine. Errors from the
// server-side abort command are swallowed (logged as a warning):
// the caller always observes success once an abort was legal to attempt.
func (t *Transaction) AbortTransaction(ctx context.Context) error {
	switch t.state {
	case transactionStarting:
		t.state = transactionAborted
		return nil

	case transactionInProgress:
		if err := t.txnFinish(ctx, "abortTransaction"); err != nil {
			t.log.V(0).Info("abortTransaction failed, ignoring", "error", err.Error())
		}
		t.state = transactionAborted
		return nil

	case transactionCommitted:
		return newInvalidStateError(cannotAbortAfterCommit)

	case transactionAborted:
		return newInvalidStateError(cannotAbortTwice)

	case transactionNone:
		return newInvalidStateError(noTransactionStarted)

	default:
		return nil
	}
}

// txnFinish implements the commit/abort retry protocol: build the
// sessionId/writeConcern options, issue the named admin command, and retry
// exactly once if the failure is classified as retryable.
func (t *Transaction) txnFinish(ctx context.Context, commandName string) error {
	cmd := bson.D{{Key: commandName, Value: 1}}

	if t.opts != nil && t.opts.WriteConcern != nil {
		wcBytes, err := bson.Marshal(t.opts.WriteConcern)
		if err != nil {
			return newInvalidStateError("Invalid transaction write concern")
		}
		var wcDoc bson.Raw
		if err := bson.Unmarshal(wcBytes, &wcDoc); err != nil {
			return newInvalidStateError("Invalid transaction write concern")
		}
		cmd = append(cmd, bson.E{Key: "writeConcern", Value: wcDoc})
	}

	cmd = append(cmd, bson.E{Key: "sessionId", Value: t.sessionID})

	cmdDoc, err := bson.Marshal(cmd)
	if err != nil {
		return &BSONError{Message: "failed to marshal " + commandName, Err: err}
	}

	_, err = t.dispatchAndRecord(ctx, commandName, cmdDoc)
	if err != nil && IsRetryableCommitError(err) {
		_, err = t.dispatchAndRecord(ctx, commandName, cmdDoc)
	}

	return err
}

// dispatchAndRecord issues cmdDoc through the Dispatcher and, if a Recorder
// is attached, brackets the call with started/succeeded/failed events the
// way the real driver's command monitor brackets wire roundtrips.
func (t *Transaction) dispatchAndRecord(ctx context.Context, commandName string, cmdDoc bson.Raw) (bson.Raw, error) {
	reqID := t.nextReqID
	t.nextReqID++

	if t.recorder != nil {
		t.recorder.RecordStarted(reqID, "admin", commandName, cmdDoc)
	}

	start := time.Now()
	reply, err := t.dispatcher.Execute(ctx, "admin", cmdDoc)
	duration := time.Since(start)

	if t.recorder != nil {
		if err != nil {
			t.recorder.RecordFailed(reqID, commandName, err, duration)
		} else {
			t.recorder.RecordSucceeded(reqID, commandName, reply, duration)
		}
	}

	return reply, err
}
