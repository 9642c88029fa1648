package session

import (
	"reflect"

	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

// TransactionOptions configures the commands issued while a transaction is
// in progress. Each field is an opaque pointer into the real driver's
// concern/preference types; a nil field means "inherit the client default"
// at the point the transaction starts.
type TransactionOptions struct {
	ReadConcern    *readconcern.ReadConcern
	WriteConcern   *writeconcern.WriteConcern
	ReadPreference *readpref.ReadPref
}

// NewTransactionOptions returns a zero-value TransactionOptions, mirroring
// the options.TransactionOptions() constructor pattern used throughout the
// reference driver code.
func NewTransactionOptions() *TransactionOptions {
	return &TransactionOptions{}
}

// SetReadConcern sets the read concern and returns the receiver for chaining.
func (t *TransactionOptions) SetReadConcern(rc *readconcern.ReadConcern) *TransactionOptions {
	t.ReadConcern = rc
	return t
}

// SetWriteConcern sets the write concern and returns the receiver for chaining.
func (t *TransactionOptions) SetWriteConcern(wc *writeconcern.WriteConcern) *TransactionOptions {
	t.WriteConcern = wc
	return t
}

// SetReadPreference sets the read preference and returns the receiver for chaining.
func (t *TransactionOptions) SetReadPreference(rp *readpref.ReadPref) *TransactionOptions {
	t.ReadPreference = rp
	return t
}

// Clone returns a shallow copy of t. Because readconcern.ReadConcern,
// writeconcern.WriteConcern, and readpref.ReadPref are treated as immutable
// once built, copying the pointers is sufficient: no caller mutates a
// *readconcern.ReadConcern in place after handing it to SetReadConcern.
func (t *TransactionOptions) Clone() *TransactionOptions {
	if t == nil {
		return NewTransactionOptions()
	}
	clone := *t
	return &clone
}

// MergeTransactionOptions layers override on top of defaults: any field left
// nil in override falls back to the corresponding field in defaults.
func MergeTransactionOptions(defaults, override *TransactionOptions) *TransactionOptions {
	merged := defaults.Clone()
	if override == nil {
		return merged
	}
	if override.ReadConcern != nil {
		merged.ReadConcern = override.ReadConcern
	}
	if override.WriteConcern != nil {
		merged.WriteConcern = override.WriteConcern
	}
	if override.ReadPreference != nil {
		merged.ReadPreference = override.ReadPreference
	}
	return merged
}

// isDefaultReadConcern reports whether rc is nil or the zero value. There is
// no exported IsDefault method on readconcern.ReadConcern, so the zero-value
// comparison is done structurally against the type's zero value.
func isDefaultReadConcern(rc *readconcern.ReadConcern) bool {
	if rc == nil {
		return true
	}
	return reflect.DeepEqual(*rc, readconcern.ReadConcern{})
}

// SessionOptions configures a ClientSession at creation time.
type SessionOptions struct {
	// CausalConsistency is tri-state: nil means "use the default", which is
	// true.
	CausalConsistency *bool

	// DefaultTransactionOptions is layered under the TransactionOptions of
	// every transaction started on the session: each field the transaction's
	// options leave nil falls back to the field set here.
	DefaultTransactionOptions *TransactionOptions
}

// NewSessionOptions returns a zero-value SessionOptions.
func NewSessionOptions() *SessionOptions {
	return &SessionOptions{}
}

// SetCausalConsistency sets the tri-state causal consistency flag.
func (s *SessionOptions) SetCausalConsistency(causal bool) *SessionOptions {
	s.CausalConsistency = &causal
	return s
}

// SetDefaultTransactionOptions merges opts onto the session's existing
// default transaction options, replacing each field opts sets and leaving
// the rest untouched: a partial update, not a full overwrite.
func (s *SessionOptions) SetDefaultTransactionOptions(opts *TransactionOptions) *SessionOptions {
	s.DefaultTransactionOptions = MergeTransactionOptions(s.DefaultTransactionOptions, opts)
	return s
}

// causalConsistency resolves the tri-state flag to its effective value.
func (s *SessionOptions) causalConsistency() bool {
	if s == nil || s.CausalConsistency == nil {
		return true
	}
	return *s.CausalConsistency
}
