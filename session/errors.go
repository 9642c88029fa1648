package session

import "fmt"

// TransactionError reports an illegal transaction state transition or a
// misconfigured transaction option. Code is a short machine-readable
// category such as "TRANSACTION_INVALID_STATE".
type TransactionError struct {
	Code    string
	Message string
}

func (e *TransactionError) Error() string {
	return e.Message
}

// CommandArgError reports a malformed argument passed by the caller, such
// as a sessionId value that does not fit in an unsigned 32-bit handle.
type CommandArgError struct {
	Message string
}

func (e *CommandArgError) Error() string {
	return e.Message
}

// BSONError wraps a failure encountered while marshaling or unmarshaling a
// BSON document the core constructs or reads.
type BSONError struct {
	Message string
	Err     error
}

func (e *BSONError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BSONError) Unwrap() error {
	return e.Err
}

// ClientSessionFailureError reports that a client session could not be
// constructed, most commonly because the underlying UUID generator failed.
type ClientSessionFailureError struct {
	Err error
}

func (e *ClientSessionFailureError) Error() string {
	return fmt.Sprintf("client session failure: %v", e.Err)
}

func (e *ClientSessionFailureError) Unwrap() error {
	return e.Err
}

const (
	transactionAlreadyInProgress = "Transaction already in progress"
	invalidReadConcernInTxn      = "Invalid read concern in transaction"
	noTransactionStarted         = "No transaction started"
	cannotCommitAfterAbort       = "Cannot call commit after abort"
	cannotAbortAfterCommit       = "Cannot call abort after commit"
	cannotAbortTwice             = "Cannot call abort twice"
)

func newInvalidStateError(message string) *TransactionError {
	return &TransactionError{Code: "TRANSACTION_INVALID_STATE", Message: message}
}

// labeled is satisfied by any error a Dispatcher returns that can classify
// itself with the server's errorLabels array, e.g. "TransientTransactionError"
// or "NetworkError". Errors that don't implement it are treated as having no
// labels; they are retried only if they carry a not-master code (see coded).
type labeled interface {
	Labels() []string
}

const (
	transientTransactionErrorLabel = "TransientTransactionError"
	networkErrorLabel              = "NetworkError"
)

func hasLabel(err error, label string) bool {
	le, ok := err.(labeled)
	if !ok {
		return false
	}
	for _, l := range le.Labels() {
		if l == label {
			return true
		}
	}
	return false
}

// coded is satisfied by any error a Dispatcher returns that can classify
// itself with the server's numeric error code, mirroring how the error
// labels array works for string classification.
type coded interface {
	ErrorCode() int32
}

// notMasterCodes holds the three codes a stale or stepped-down primary
// returns, matching mongoc_cluster_is_not_master_error: NotMaster,
// NotMasterNoSlaveOk, and NotMasterOrSecondary.
var notMasterCodes = map[int32]bool{
	10107: true,
	13435: true,
	10058: true,
}

const notMasterErrorLabel = "NotMasterError"

func hasCode(err error, codes map[int32]bool) bool {
	ce, ok := err.(coded)
	if !ok {
		return false
	}
	return codes[ce.ErrorCode()]
}

// IsNetworkError reports whether err is labeled as a network error by the
// Dispatcher that produced it.
func IsNetworkError(err error) bool {
	return hasLabel(err, networkErrorLabel)
}

// IsTransientTransactionError reports whether err is labeled as a transient
// transaction error by the Dispatcher that produced it.
func IsTransientTransactionError(err error) bool {
	return hasLabel(err, transientTransactionErrorLabel)
}

// IsNotMasterError reports whether err is a not-master-class error: a
// stale or stepped-down primary rejecting a write because it no longer
// holds (or never held) the primary role. Classification prefers the
// server's numeric error code (10107, 13435, 10058), falling back to the
// "NotMasterError" label for dispatchers that only expose one.
func IsNotMasterError(err error) bool {
	return hasCode(err, notMasterCodes) || hasLabel(err, notMasterErrorLabel)
}

// IsRetryableCommitError reports whether err qualifies for the single
// commitTransaction/abortTransaction retry attempt: a network error, an
// error explicitly labeled as a transient transaction error, or a
// not-master error.
func IsRetryableCommitError(err error) bool {
	return IsNetworkError(err) || IsTransientTransactionError(err) || IsNotMasterError(err)
}
