package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type labeledErr struct {
	labels []string
}

func (e *labeledErr) Error() string    { return "labeled error" }
func (e *labeledErr) Labels() []string { return e.labels }

type codedErr struct {
	code int32
}

func (e *codedErr) Error() string     { return "coded error" }
func (e *codedErr) ErrorCode() int32 { return e.code }

func TestTransactionErrorAsTypedError(t *testing.T) {
	var err error = newInvalidStateError(transactionAlreadyInProgress)

	var txnErr *TransactionError
	require.True(t, errors.As(err, &txnErr))
	require.Equal(t, "TRANSACTION_INVALID_STATE", txnErr.Code)
	require.Equal(t, transactionAlreadyInProgress, txnErr.Error())
}

func TestBSONErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &BSONError{Message: "failed to marshal", Err: cause}

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "boom")
}

func TestClientSessionFailureErrorUnwrap(t *testing.T) {
	cause := errors.New("uuid generation failed")
	err := &ClientSessionFailureError{Err: cause}

	require.ErrorIs(t, err, cause)
}

func TestIsNetworkError(t *testing.T) {
	require.True(t, IsNetworkError(&labeledErr{labels: []string{networkErrorLabel}}))
	require.False(t, IsNetworkError(&labeledErr{labels: []string{"SomethingElse"}}))
	require.False(t, IsNetworkError(errors.New("plain error")))
}

func TestIsNotMasterError(t *testing.T) {
	require.True(t, IsNotMasterError(&codedErr{code: 10107}))
	require.True(t, IsNotMasterError(&codedErr{code: 13435}))
	require.True(t, IsNotMasterError(&codedErr{code: 10058}))
	require.True(t, IsNotMasterError(&labeledErr{labels: []string{notMasterErrorLabel}}))
	require.False(t, IsNotMasterError(&codedErr{code: 1}))
	require.False(t, IsNotMasterError(errors.New("plain error")))
}

func TestIsRetryableCommitError(t *testing.T) {
	require.True(t, IsRetryableCommitError(&labeledErr{labels: []string{networkErrorLabel}}))
	require.True(t, IsRetryableCommitError(&labeledErr{labels: []string{transientTransactionErrorLabel}}))
	require.True(t, IsRetryableCommitError(&codedErr{code: 10107}))
	require.False(t, IsRetryableCommitError(&labeledErr{labels: []string{"WriteConflict"}}))
	require.False(t, IsRetryableCommitError(errors.New("plain error")))
}
