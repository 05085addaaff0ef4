package ws

import (
	"crypto/rand"
	"encoding/hex"
)

// newConnID returns a random 128-bit hex id used to correlate one
// connection's lifecycle events in the event stream.
func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
