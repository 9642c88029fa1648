package session

import (
	"context"

	"github.com/go-logr/logr"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/jingjingxyk/mongo-session-core/sessionevent"
)

// Client is this module's ClientSession: the object an embedding driver
// hands back from StartSession. It composes a ServerSession, a causal-
// consistency clock, and a Transaction state machine, and owns outbound
// command decoration plus inbound reply absorption.
type Client struct {
	// Handle is the 32-bit registry key this session is reachable by.
	Handle uint32

	serverSession *ServerSession
	dispatcher    Dispatcher
	registry      Registry
	log           logr.Logger

	causalConsistency bool
	clusterTime       bson.Raw
	operationTime     bson.Timestamp

	defaultTxnOpts *TransactionOptions
	txn            *Transaction
}

// NewClient constructs a Client over serverSess, identified by handle on the
// wire as sessionId (the handle widened to int64). clientDefault is
// the client-wide transaction option set (read/write concern, read
// preference); opts, if non-nil, layers its DefaultTransactionOptions over
// clientDefault and overrides CausalConsistency.
func NewClient(
	dispatcher Dispatcher,
	registry Registry,
	serverSess *ServerSession,
	handle uint32,
	clientDefault *TransactionOptions,
	opts *SessionOptions,
	log logr.Logger,
) *Client {
	defaultTxnOpts := MergeTransactionOptions(clientDefault, opts.resolvedDefaultTransactionOptions())

	c := &Client{
		Handle:            handle,
		serverSession:     serverSess,
		dispatcher:        dispatcher,
		registry:          registry,
		log:               log,
		causalConsistency: opts.causalConsistency(),
		defaultTxnOpts:    defaultTxnOpts,
	}

	sessionID := widenHandle(handle)
	c.txn = newTransaction(serverSess, sessionID, dispatcher, log)

	return c
}

// resolvedDefaultTransactionOptions returns s.DefaultTransactionOptions, or
// nil if s itself is nil.
func (s *SessionOptions) resolvedDefaultTransactionOptions() *TransactionOptions {
	if s == nil {
		return nil
	}
	return s.DefaultTransactionOptions
}

// widenHandle produces the int64 sessionId field value from a 32-bit
// registry handle.
func widenHandle(handle uint32) int64 {
	return int64(handle)
}

// Append decorates cmd with the sessionId field identifying this session,
// on every operation. It is the caller's responsibility to also call AppendTxnFields
// when a transaction may be in progress.
func (c *Client) Append(cmd bson.D) (bson.D, error) {
	return append(cmd, bson.E{Key: "sessionId", Value: widenHandle(c.Handle)}), nil
}

// AppendTxnFields delegates to the session's Transaction state machine.
func (c *Client) AppendTxnFields(cmd bson.D) (bson.D, error) {
	return c.txn.AppendTxnFields(cmd)
}

// HandleReply absorbs cluster time and, if isAcknowledged, operation time
// from reply. Unknown fields are ignored; there is no error path.
func (c *Client) HandleReply(reply bson.Raw, isAcknowledged bool) {
	if len(reply) == 0 {
		return
	}

	elements, err := reply.Elements()
	if err != nil {
		return
	}

	for _, elem := range elements {
		key := elem.Key()
		val := elem.Value()

		switch key {
		case "$clusterTime":
			if val.Type == bson.TypeEmbeddedDocument {
				doc, ok := val.DocumentOK()
				if ok {
					advanceClusterTime(&c.clusterTime, bson.Raw(doc))
				}
			}
		case "operationTime":
			if isAcknowledged {
				if t, i, ok := val.TimestampOK(); ok {
					advanceOperationTime(&c.operationTime, bson.Timestamp{T: t, I: i})
				}
			}
		}
	}
}

// GetClusterTime returns the session-scoped cluster time document, or nil
// if none has been observed yet.
func (c *Client) GetClusterTime() bson.Raw {
	return c.clusterTime
}

// GetOperationTime returns the session-scoped operation time.
func (c *Client) GetOperationTime() bson.Timestamp {
	return c.operationTime
}

// GetLSID returns the server session's lsid document.
func (c *Client) GetLSID() bson.Raw {
	return c.serverSession.LSID
}

// CausalConsistency reports whether this session was started with causal
// consistency enabled.
func (c *Client) CausalConsistency() bool {
	return c.causalConsistency
}

// StartTransaction starts a new transaction on this session, layering
// override on top of the session's default transaction options.
func (c *Client) StartTransaction(override *TransactionOptions) error {
	return c.txn.StartTransaction(c.defaultTxnOpts, override)
}

// CommitTransaction commits the session's in-progress transaction.
func (c *Client) CommitTransaction(ctx context.Context) error {
	return c.txn.CommitTransaction(ctx)
}

// AbortTransaction aborts the session's in-progress transaction.
func (c *Client) AbortTransaction(ctx context.Context) error {
	return c.txn.AbortTransaction(ctx)
}

// TransactionState reports the current transaction state, for tests and
// diagnostics.
func (c *Client) TransactionState() string {
	return c.txn.State()
}

// SetRecorder attaches a sessionevent.Recorder that observes every
// commitTransaction/abortTransaction dispatch this session performs.
func (c *Client) SetRecorder(recorder *sessionevent.Recorder) {
	c.txn.SetRecorder(recorder)
}

// Destroy tears the session down: any in-progress transaction is
// best-effort aborted (errors ignored), then the session
// deregisters itself and returns its ServerSession to the pool.
func (c *Client) Destroy(ctx context.Context) {
	switch c.txn.state {
	case transactionStarting, transactionInProgress:
		_ = c.txn.AbortTransaction(ctx)
	}

	if c.registry != nil {
		c.registry.Unregister(c)
		c.registry.PushServerSession(c.serverSession)
	}
}
