package store

import (
	"crypto/rand"
	"sync/atomic"
	"time"
)

// Child ids sort lexicographically by creation time: 8 chars of millisecond
// timestamp, 3 chars of a process-local counter (orders ids minted in the
// same millisecond), 9 random chars. Question ordering relies on this: the
// projector enumerates question keys in lexicographic order and gets
// insertion order for free, without a sort field in the record.

// idAlphabet is 64 symbols in ASCII order, so encoded values compare the
// same way the underlying integers do.
const idAlphabet = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

var idCounter atomic.Uint64

// NewChildID returns a 20-character id for a pushed child node.
func NewChildID() string {
	var b [20]byte

	ms := uint64(time.Now().UnixMilli())
	for i := 7; i >= 0; i-- {
		b[i] = idAlphabet[ms&0x3f]
		ms >>= 6
	}

	n := idCounter.Add(1) & 0x3ffff
	for i := 10; i >= 8; i-- {
		b[i] = idAlphabet[n&0x3f]
		n >>= 6
	}

	var tail [9]byte
	if _, err := rand.Read(tail[:]); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	for i, t := range tail {
		b[11+i] = idAlphabet[int(t)&0x3f]
	}

	return string(b[:])
}
