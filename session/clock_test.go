package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/jingjingxyk/mongo-session-core/timeutil"
)

func clusterTimeDoc(t *testing.T, ts bson.Timestamp) bson.Raw {
	t.Helper()

	doc, err := bson.Marshal(bson.D{{Key: clusterTimeKey, Value: ts}})
	require.NoError(t, err)

	return doc
}

func TestLogicalTimeGreater(t *testing.T) {
	require.True(t, logicalTimeGreater(bson.Timestamp{T: 10, I: 3}, bson.Timestamp{T: 10, I: 2}))
	require.True(t, logicalTimeGreater(bson.Timestamp{T: 11, I: 0}, bson.Timestamp{T: 10, I: 999}))
	require.False(t, logicalTimeGreater(bson.Timestamp{T: 10, I: 2}, bson.Timestamp{T: 10, I: 2}))
	require.False(t, logicalTimeGreater(bson.Timestamp{T: 9, I: 99}, bson.Timestamp{T: 11, I: 0}))
}

func TestParseClusterTime(t *testing.T) {
	doc := clusterTimeDoc(t, bson.Timestamp{T: 10, I: 3})
	ts, ok := parseClusterTime(doc)
	require.True(t, ok)
	require.Equal(t, bson.Timestamp{T: 10, I: 3}, ts)

	_, ok = parseClusterTime(nil)
	require.False(t, ok)

	garbage, err := bson.Marshal(bson.D{{Key: "other", Value: "field"}})
	require.NoError(t, err)
	_, ok = parseClusterTime(garbage)
	require.False(t, ok)
}

func TestAdvanceClusterTimeMonotonic(t *testing.T) {
	var stored bson.Raw

	advanceClusterTime(&stored, clusterTimeDoc(t, bson.Timestamp{T: 10, I: 3}))
	advanceClusterTime(&stored, clusterTimeDoc(t, bson.Timestamp{T: 10, I: 2}))
	advanceClusterTime(&stored, clusterTimeDoc(t, bson.Timestamp{T: 11, I: 0}))
	advanceClusterTime(&stored, clusterTimeDoc(t, bson.Timestamp{T: 9, I: 99}))

	final, ok := parseClusterTime(stored)
	require.True(t, ok)
	require.Equal(t, bson.Timestamp{T: 11, I: 0}, final)
}

func TestAdvanceClusterTimeIgnoresUnparseable(t *testing.T) {
	stored := clusterTimeDoc(t, bson.Timestamp{T: 5, I: 1})

	garbage, err := bson.Marshal(bson.D{{Key: "other", Value: "field"}})
	require.NoError(t, err)

	advanceClusterTime(&stored, garbage)

	final, ok := parseClusterTime(stored)
	require.True(t, ok)
	require.Equal(t, bson.Timestamp{T: 5, I: 1}, final)
}

func TestAdvanceOperationTime(t *testing.T) {
	var stored bson.Timestamp

	advanceOperationTime(&stored, bson.Timestamp{T: 10, I: 3})
	require.Equal(t, bson.Timestamp{T: 10, I: 3}, stored)

	advanceOperationTime(&stored, bson.Timestamp{T: 10, I: 1})
	require.Equal(t, bson.Timestamp{T: 10, I: 3}, stored, "lesser value must not overwrite")

	advanceOperationTime(&stored, bson.Timestamp{T: 11, I: 0})
	require.Equal(t, bson.Timestamp{T: 11, I: 0}, stored)
}

func TestClusterClockAdvance(t *testing.T) {
	clock := &ClusterClock{}

	require.Nil(t, clock.GetClusterTime())

	clock.AdvanceClusterTime(clusterTimeDoc(t, bson.Timestamp{T: 1, I: 0}))
	clock.AdvanceClusterTime(clusterTimeDoc(t, bson.Timestamp{T: 2, I: 0}))
	clock.AdvanceClusterTime(clusterTimeDoc(t, bson.Timestamp{T: 1, I: 5}))

	final, ok := parseClusterTime(clock.GetClusterTime())
	require.True(t, ok)
	require.Equal(t, bson.Timestamp{T: 2, I: 0}, final)
}

func TestClusterClockAdvanceFromWallClock(t *testing.T) {
	clock := &ClusterClock{}

	earlier := timeutil.ClusterTimeDocument(time.Unix(1_700_000_000, 0), 1)
	later := timeutil.ClusterTimeDocument(time.Unix(1_700_000_010, 0), 0)

	clock.AdvanceClusterTime(earlier)
	clock.AdvanceClusterTime(later)

	final, ok := parseClusterTime(clock.GetClusterTime())
	require.True(t, ok)
	expected, _ := parseClusterTime(later)
	require.Equal(t, expected, final)
}

func TestMaxClusterTime(t *testing.T) {
	a := clusterTimeDoc(t, bson.Timestamp{T: 5, I: 0})
	b := clusterTimeDoc(t, bson.Timestamp{T: 10, I: 0})

	require.Equal(t, b, MaxClusterTime(a, b))
	require.Equal(t, b, MaxClusterTime(b, a))
	require.Equal(t, b, MaxClusterTime(nil, b))
	require.Equal(t, a, MaxClusterTime(a, nil))
}
