package timeutil

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// BSONTimestampFromTime creates a bson.Timestamp from a time.Time and an
// increment value.
func BSONTimestampFromTime(t time.Time, i uint32) bson.Timestamp {
	t = t.UTC()

	return bson.Timestamp{
		T: uint32(t.Unix()), // seconds since 1970-01-01T00:00:00Z
		I: i,                // caller-provided increment
	}
}

// ClusterTimeDocument builds a {clusterTime: Timestamp(t, i)} gossip
// document of the shape a $clusterTime reply field or a session's stored
// cluster time carries. It panics only if bson.Marshal itself would, which
// does not happen for this fixed shape.
func ClusterTimeDocument(t time.Time, i uint32) bson.Raw {
	doc, err := bson.Marshal(bson.D{{Key: "clusterTime", Value: BSONTimestampFromTime(t, i)}})
	if err != nil {
		panic(err)
	}

	return doc
}
