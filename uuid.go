package central

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// A UUID is a BLE UUID: either a 16-bit SIG-assigned value or a full
// 128-bit value, stored in the little-endian wire order.
type UUID struct {
	b []byte
}

// UUID16 converts a SIG-assigned 16-bit value to a UUID.
func UUID16(i uint16) UUID {
	return UUID{[]byte{byte(i), byte(i >> 8)}}
}

// ParseUUID parses a standard-format hex UUID string, with or without
// dashes, into a 16-bit or 128-bit UUID.
func ParseUUID(s string) (UUID, error) {
	s = strings.ReplaceAll(s, "-", "")
	b, err := hex.DecodeString(s)
	if err != nil {
		return UUID{}, err
	}
	if len(b) != 2 && len(b) != 16 {
		return UUID{}, fmt.Errorf("UUIDs must have length 2 or 16, got %d", len(b))
	}
	return UUID{reverse(b)}, nil
}

// MustParseUUID parses a standard-format UUID string, panicking on error.
func MustParseUUID(s string) UUID {
	u, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Len returns the length of the UUID in bytes: 2 or 16.
func (u UUID) Len() int {
	return len(u.b)
}

// Equal reports whether two UUIDs are equal.
func (u UUID) Equal(v UUID) bool {
	if len(u.b) != len(v.b) {
		return false
	}
	for i := range u.b {
		if u.b[i] != v.b[i] {
			return false
		}
	}
	return true
}

func (u UUID) String() string {
	return hex.EncodeToString(reverse(u.b))
}

// reverse returns a reversed copy of u, for converting between the
// little-endian storage order and the big-endian display form.
func reverse(u []byte) []byte {
	b := make([]byte, len(u))
	for i := 0; i < len(u); i++ {
		b[i] = u[len(u)-i-1]
	}
	return b
}
