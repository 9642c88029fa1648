package session

import (
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// clusterTimeKey is the document field that carries the logical time inside
// a $clusterTime gossip document.
const clusterTimeKey = "clusterTime"

// logicalTimeGreater reports whether t is strictly greater than u under the
// (T, I) lexicographic order used for both cluster time and operation time.
func logicalTimeGreater(t, u bson.Timestamp) bool {
	return t.T > u.T || (t.T == u.T && t.I > u.I)
}

// parseClusterTime extracts the (T, I) pair from a $clusterTime gossip
// document. It succeeds iff doc is non-empty and holds a "clusterTime" field
// of BSON timestamp type.
func parseClusterTime(doc bson.Raw) (bson.Timestamp, bool) {
	if len(doc) == 0 {
		return bson.Timestamp{}, false
	}

	val, err := doc.LookupErr(clusterTimeKey)
	if err != nil {
		return bson.Timestamp{}, false
	}

	t, i, ok := val.TimestampOK()
	if !ok {
		return bson.Timestamp{}, false
	}

	return bson.Timestamp{T: t, I: i}, true
}

// clusterTimeGreater reports whether newTime is strictly greater than
// oldTime. If either document fails to parse, it conservatively returns
// false: unparseable gossip must never overwrite a known-good value.
func clusterTimeGreater(newTime, oldTime bson.Raw) bool {
	n, ok := parseClusterTime(newTime)
	if !ok {
		return false
	}

	o, ok := parseClusterTime(oldTime)
	if !ok {
		return false
	}

	return logicalTimeGreater(n, o)
}

// advanceClusterTime adopts incoming as the new stored value of *stored when
// either stored is empty (and incoming parses) or incoming is strictly
// greater than the current value. The raw document is always retained
// byte-for-byte so it can be re-gossiped verbatim.
func advanceClusterTime(stored *bson.Raw, incoming bson.Raw) {
	if len(incoming) == 0 {
		return
	}

	if len(*stored) == 0 {
		if _, ok := parseClusterTime(incoming); ok {
			*stored = append(bson.Raw(nil), incoming...)
		}
		return
	}

	if clusterTimeGreater(incoming, *stored) {
		*stored = append(bson.Raw(nil), incoming...)
	}
}

// advanceOperationTime replaces *stored with t iff t is strictly greater
// than the current value under the (T, I) order.
func advanceOperationTime(stored *bson.Timestamp, t bson.Timestamp) {
	if logicalTimeGreater(t, *stored) {
		*stored = t
	}
}

// ClusterClock is the client-wide gossiped cluster time, shared by every
// session and server selection the client performs. It is analogous to
// session.ClusterClock in the upstream driver, referenced by name from
// addClusterTime in the retrieved x/mongo/driver/driverx reference code.
//
// ClusterClock is safe for concurrent use; unlike a Client, the clock really
// is shared across goroutines in a multi-threaded embedder.
type ClusterClock struct {
	mu   sync.Mutex
	time bson.Raw
}

// GetClusterTime returns the current gossiped cluster time document, or nil
// if none has been observed yet.
func (c *ClusterClock) GetClusterTime() bson.Raw {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.time
}

// AdvanceClusterTime gossips incoming into the clock, adopting it only if
// it is strictly greater than (or the clock has no) current value.
func (c *ClusterClock) AdvanceClusterTime(incoming bson.Raw) {
	c.mu.Lock()
	defer c.mu.Unlock()

	advanceClusterTime(&c.time, incoming)
}

// MaxClusterTime returns whichever of a and b is greater, preferring a when
// both are equal or when either one fails to parse. A nil input is treated
// as the lesser value.
func MaxClusterTime(a, b bson.Raw) bson.Raw {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	if clusterTimeGreater(b, a) {
		return b
	}
	return a
}
