package vcd

import (
	"fmt"
	"math"
)

// identBase is the number of printable ASCII digits, '!' through '~'.
const identBase = 94

// identAllocator hands out compact identifier codes for registered
// variables. Codes are issued sequentially starting from 0 and encoded
// in bijective base-94, so they are unique for the life of one writer.
type identAllocator struct {
	next uint64 // Next code to issue
}

// alloc returns a fresh identifier code and advances the counter.
func (a *identAllocator) alloc() string {
	id := encodeIdent(a.next)
	a.next++

	return id
}

// encodeIdent encodes n in bijective base-94 over '!'..'~', least
// significant digit first. Code 0 is "!", 93 is "~", 94 rolls over to
// two characters the way spreadsheet column letters do.
func encodeIdent(n uint64) string {
	var buf [16]byte
	i := 0
	for n++; n != 0; n /= identBase {
		n--
		buf[i] = byte(n%identBase) + '!'
		i++
	}

	return string(buf[:i])
}

// decodeIdent is the inverse of encodeIdent.
func decodeIdent(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty identifier", ErrValue)
	}

	var n uint64
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '!' || c > '~' {
			return 0, fmt.Errorf("%w: identifier byte %q out of range", ErrValue, c)
		}
		d := uint64(c-'!') + 1
		if n > (math.MaxUint64-d)/identBase {
			return 0, fmt.Errorf("%w: identifier %q exceeds the code space", ErrValue, s)
		}
		n = n*identBase + d
	}

	return n - 1, nil
}
