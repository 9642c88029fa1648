package session

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Dispatcher is the one capability the transaction core needs from the
// transport layer: execute an admin command against a database and get the
// raw reply document back. A real embedder implements this over its
// connection pool and server selection logic; dispatchertest.Dispatcher
// implements it over an in-process script for tests.
type Dispatcher interface {
	Execute(ctx context.Context, db string, cmd bson.Raw) (bson.Raw, error)
}

// Registry is implemented by the embedding client to let a Client look
// itself up by its public handle, deregister on Destroy, and return its
// ServerSession to the shared Pool on Destroy.
type Registry interface {
	// Lookup resolves a public session handle to the Client it names, or
	// returns a CommandArgError if handle does not identify a live session.
	Lookup(handle uint32) (*Client, error)

	// Unregister removes sess from the registry. Called once, from Destroy.
	Unregister(sess *Client)

	// PushServerSession returns ss to the shared Pool. Called once, from
	// Destroy, after any pending transaction has been best-effort aborted.
	PushServerSession(ss *ServerSession)
}
