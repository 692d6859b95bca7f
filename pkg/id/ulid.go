// Package id generates request identifiers.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Crockford's Base32 alphabet, without I, L, O and U.
const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// ULIDLen is the length of the strings returned by NewULID.
const ULIDLen = 26

// NewULID returns a ULID for the current time: 26 Crockford Base32 chars
// encoding a 48-bit millisecond timestamp and 80 random bits. ULIDs of
// different milliseconds sort by creation time.
func NewULID() string {
	return NewULIDAt(time.Now())
}

// NewULIDAt returns a ULID carrying the timestamp of t.
func NewULIDAt(t time.Time) string {
	var raw [16]byte
	binary.BigEndian.PutUint64(raw[:8], uint64(t.UnixMilli())<<16)
	_, _ = rand.Read(raw[6:])
	return encode(raw)
}

// encode writes the 128 bits of raw as 26 base32 digits, most significant
// first. The first digit carries only the top 3 bits.
func encode(raw [16]byte) string {
	hi := binary.BigEndian.Uint64(raw[:8])
	lo := binary.BigEndian.Uint64(raw[8:])

	var out [ULIDLen]byte
	for i := ULIDLen - 1; i >= 0; i-- {
		out[i] = crockford[lo&0x1F]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
