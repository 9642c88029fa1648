package session

const maxHandle = int64(0xffffffff)

// SessionFromHandleField resolves the int64 sessionId field value carried on
// the wire back to the live Client it names, delegating the 32-bit lookup to
// registry.Lookup. It fails with CommandArgError if field does not fit in an
// unsigned 32-bit value, mirroring the range check
// _mongoc_client_session_from_iter performs in the C driver.
func SessionFromHandleField(registry Registry, field int64) (*Client, error) {
	if field < 0 || field > maxHandle {
		return nil, &CommandArgError{Message: "Invalid sessionId"}
	}

	return registry.Lookup(uint32(field))
}
