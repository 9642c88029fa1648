package session

import (
	"sync"
	"time"
)

// Pool recycles ServerSessions across ClientSessions, trading the cost of
// generating a fresh LSID for the cost of a mutex-guarded slice operation.
// It plays the role of mongoc_topology_t's server session list and of the
// sessionPool field on mongo.Client in the reference driver, but is
// implemented as an owned LIFO stack rather than an intrusive doubly-linked
// list: Go gives no reason to intrude a next/prev pointer pair into
// ServerSession just to avoid one slice append.
type Pool struct {
	mu             sync.Mutex
	sessions       []*ServerSession
	timeoutMinutes int64
	now            func() time.Time
}

// NewPool constructs an empty Pool. timeoutMinutes is the deployment's
// advertised logicalSessionTimeoutMinutes, or NoSessions if unknown.
func NewPool(timeoutMinutes int64) *Pool {
	return &Pool{
		timeoutMinutes: timeoutMinutes,
		now:            time.Now,
	}
}

// SetTimeoutMinutes updates the session timeout the pool checks against,
// for example after a topology description refresh changes the advertised
// value.
func (p *Pool) SetTimeoutMinutes(timeoutMinutes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.timeoutMinutes = timeoutMinutes
}

// GetSession pops the most recently returned non-timed-out session, or
// mints a new one if the pool is empty or every pooled session has expired.
//
// Popping from the back (LIFO) matters: the most recently used session is
// the least likely to be near the server's idle timeout, so preferring it
// minimizes the chance of handing out a session that times out mid-use.
func (p *Pool) GetSession() (*ServerSession, error) {
	p.mu.Lock()
	now := p.now()
	for len(p.sessions) > 0 {
		last := len(p.sessions) - 1
		candidate := p.sessions[last]
		p.sessions = p.sessions[:last]

		if !candidate.IsTimedOut(p.timeoutMinutes, now) {
			p.mu.Unlock()
			return candidate, nil
		}
	}
	p.mu.Unlock()

	return NewServerSession()
}

// ReturnSession pushes ss back onto the pool unless it has already timed
// out, in which case it is discarded silently: a session too old to reuse
// is simply not worth keeping.
func (p *Pool) ReturnSession(ss *ServerSession) {
	if ss == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if ss.IsTimedOut(p.timeoutMinutes, p.now()) {
		return
	}

	p.sessions = append(p.sessions, ss)
}

// Close drains the pool and returns the LSIDs of every session it held, for
// the caller to batch into an endSessions admin command the way
// Client.endSessions does in the reference mongo/client.go. Close does not
// issue that command itself: command dispatch belongs to the embedder's
// Dispatcher, not to Pool.
func (p *Pool) Close() []*ServerSession {
	p.mu.Lock()
	defer p.mu.Unlock()

	drained := p.sessions
	p.sessions = nil
	return drained
}

// Len reports the number of sessions currently pooled, for diagnostics and
// tests.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.sessions)
}
