// Package ulid provides the 128-bit, lexicographically sortable
// identity type used for every entity key across the control plane.
package ulid

import (
	"bytes"
	"crypto/rand"
	"encoding"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a 16-byte sortable identifier.
type ID [16]byte

var (
	_ encoding.TextMarshaler   = ID{}
	_ encoding.TextUnmarshaler = (*ID)(nil)
)

// Nil is the zero-value ID.
var Nil ID

// entropy is shared by every New call, so IDs generated within the
// same millisecond still sort in generation order.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New generates a new time-ordered ID using a monotonic entropy
// source, matching ulid/v2's recommended non-repeating-entropy setup.
func New() ID {
	entropyMu.Lock()
	u := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	var id ID
	copy(id[:], u[:])
	return id
}

// Parse decodes the canonical 26-character Crockford base32 text form.
func Parse(s string) (ID, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return ID{}, err
	}
	var id ID
	copy(id[:], u[:])
	return id, nil
}

func (id ID) String() string {
	var u ulid.ULID
	copy(u[:], id[:])
	return u.String()
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Compare orders two IDs, which for ULIDs is also chronological order.
func Compare(a, b ID) int {
	return bytes.Compare(a[:], b[:])
}

// IsNil reports whether id is the zero value.
func (id ID) IsNil() bool {
	return id == Nil
}
