package wire

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SessionID is a 128-bit opaque identifier for a broker↔client connection
// (spec.md §3: "128-bit opaque; printable as 32 lowercase hex").
type SessionID [16]byte

// NewSessionID draws a fresh random session id.
func NewSessionID() SessionID {
	var id SessionID
	if _, err := rand.Read(id[:]); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is broken,
		// which is unrecoverable for a process that mints session ids.
		panic(fmt.Sprintf("wire: read random session id: %v", err))
	}
	return id
}

// String renders the session id as 32 lowercase hex characters.
func (id SessionID) String() string {
	return hex.EncodeToString(id[:])
}

// Short renders a truncated form suitable for logs and UX (first 8 hex chars).
func (id SessionID) Short() string {
	return id.String()[:8]
}

// ParseSessionID parses a 32-character lowercase hex session id.
func ParseSessionID(s string) (SessionID, error) {
	var id SessionID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("parse session id %q: %w", s, err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("parse session id %q: want %d bytes, got %d", s, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}
