package xid

import "github.com/google/uuid"

// New returns a random record id. Ids are opaque to storage: every backend
// keys documents by this string, never by an internal row id.
func New() string {
	return uuid.NewString()
}

