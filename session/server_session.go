package session

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// NeverUsed is the sentinel value of ServerSession.LastUsedUsec meaning the
// session has not yet been used for an operation.
const NeverUsed int64 = -1

// NoSessions is the sentinel value passed to IsTimedOut to mean "not
// currently connected to a deployment / session timeout unknown". A
// ServerSession is never considered timed out in that case.
const NoSessions int64 = -1

const minuteToUsec = int64(60 * time.Second / time.Microsecond)

// ServerSession is a logical session id, a transaction number, and a
// last-used timestamp: the unit the Pool recycles. It corresponds to
// mongoc_server_session_t in the C driver.
type ServerSession struct {
	// LSID is the {id: Binary(subtype=4, <16 bytes>)} document sent to the
	// server to identify this logical session.
	LSID bson.Raw

	// TxnNumber is incremented exactly once per transaction, at the
	// STARTING -> IN_PROGRESS transition (see Transaction.AppendTxnFields).
	TxnNumber int64

	// LastUsedUsec is the Unix time, in microseconds, of the time passed to
	// the last MarkUsed call, or NeverUsed. It is a wall-clock value; no
	// monotonic clock reading is kept.
	LastUsedUsec int64
}

// newServerSessionID builds a new {id: Binary(subtype=4, ...)} LSID document
// from 16 random bytes carrying RFC 4122 v4 variant/version bits.
//
// uuid.NewRandom already sets those bits; it is the idiomatic Go source for
// this value rather than hand-rolled bit twiddling over crypto/rand.
func newServerSessionID() (bson.Raw, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, &ClientSessionFailureError{Err: err}
	}

	idBytes := id[:]

	doc, err := bson.Marshal(bson.D{
		{Key: "id", Value: bson.Binary{Subtype: 0x04, Data: idBytes}},
	})
	if err != nil {
		return nil, &ClientSessionFailureError{Err: err}
	}

	return doc, nil
}

// NewServerSession generates a new ServerSession with a fresh LSID. It fails
// with a ClientSessionFailureError if UUID generation fails.
func NewServerSession() (*ServerSession, error) {
	lsid, err := newServerSessionID()
	if err != nil {
		return nil, err
	}

	return &ServerSession{
		LSID:         lsid,
		TxnNumber:    0,
		LastUsedUsec: NeverUsed,
	}, nil
}

// MarkUsed stamps the session's last-used timestamp with now, as Unix
// microseconds (now.UnixMicro(); the monotonic reading of now is not used).
func (s *ServerSession) MarkUsed(now time.Time) {
	s.LastUsedUsec = now.UnixMicro()
}

// IsTimedOut reports whether s should be discarded rather than reused,
// given the deployment's advertised session timeout (in minutes) and now,
// compared as Unix microseconds against LastUsedUsec.
//
// Per the Driver Sessions spec: a session with less than one full minute
// remaining before it would expire server-side must never be handed out
// again, since it could expire mid-flight.
func (s *ServerSession) IsTimedOut(timeoutMinutes int64, now time.Time) bool {
	if timeoutMinutes == NoSessions {
		return false
	}
	if s.LastUsedUsec == NeverUsed {
		return false
	}

	expiresAtUsec := s.LastUsedUsec + timeoutMinutes*minuteToUsec
	return expiresAtUsec-now.UnixMicro() < minuteToUsec
}
