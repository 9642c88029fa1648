package session

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

func TestTransactionOptionsClone(t *testing.T) {
	opts := NewTransactionOptions().SetReadConcern(readconcern.Majority())

	clone := opts.Clone()
	require.Equal(t, opts.ReadConcern, clone.ReadConcern)

	clone.SetWriteConcern(writeconcern.Majority())
	require.Nil(t, opts.WriteConcern, "mutating the clone must not affect the original")
}

func TestMergeTransactionOptionsOverridesOnlySetFields(t *testing.T) {
	defaults := NewTransactionOptions().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())

	override := NewTransactionOptions().SetReadConcern(readconcern.Local())

	merged := MergeTransactionOptions(defaults, override)
	require.Equal(t, readconcern.Local(), merged.ReadConcern)
	require.Equal(t, writeconcern.Majority(), merged.WriteConcern)
}

func TestMergeTransactionOptionsNilOverride(t *testing.T) {
	defaults := NewTransactionOptions().SetReadConcern(readconcern.Majority())

	merged := MergeTransactionOptions(defaults, nil)
	require.Equal(t, defaults.ReadConcern, merged.ReadConcern)
}

func TestIsDefaultReadConcern(t *testing.T) {
	require.True(t, isDefaultReadConcern(nil))
	require.True(t, isDefaultReadConcern(&readconcern.ReadConcern{}))
	require.False(t, isDefaultReadConcern(readconcern.Majority()))
}

func TestSetDefaultTransactionOptionsMergesRatherThanOverwrites(t *testing.T) {
	opts := NewSessionOptions().
		SetDefaultTransactionOptions(NewTransactionOptions().SetReadConcern(readconcern.Majority()))

	opts.SetDefaultTransactionOptions(NewTransactionOptions().SetWriteConcern(writeconcern.Majority()))

	require.Equal(t, readconcern.Majority(), opts.DefaultTransactionOptions.ReadConcern,
		"a later call setting only write concern must not erase the read concern set earlier")
	require.Equal(t, writeconcern.Majority(), opts.DefaultTransactionOptions.WriteConcern)
}

func TestSessionOptionsCausalConsistencyDefault(t *testing.T) {
	var opts *SessionOptions
	require.True(t, opts.causalConsistency())

	opts = NewSessionOptions()
	require.True(t, opts.causalConsistency())

	opts.SetCausalConsistency(false)
	require.False(t, opts.causalConsistency())
}
