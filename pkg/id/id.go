package id

import (
	"crypto/rand"
	"encoding/binary"
	"strings"
	"time"
)

const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewULID returns a 26 character ULID: 48 bits of milliseconds followed by 80 random bits.
func NewULID() string {
	return generate(48, 10)
}

// NewShortID returns a 16 character id: the low 30 bits of the millisecond clock followed
// by 48 random bits. The clock wraps every ~12 days, so ids sort by time only within that window.
func NewShortID() string {
	return generate(30, 6)
}

// Fallback returns prefix joined to a lower-case short id with a hyphen.
// An empty prefix yields the bare id.
func Fallback(prefix string) string {
	s := strings.ToLower(NewShortID())
	if prefix == "" {
		return s
	}
	return prefix + "-" + s
}

// generate encodes tsBits of the current millisecond clock and n random bytes.
func generate(tsBits uint, n int) string {
	random := make([]byte, n)
	if _, err := rand.Read(random); err != nil {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(time.Now().UnixNano()))
		copy(random, buf[:])
	}

	ms := uint64(time.Now().UnixMilli()) & (1<<tsBits - 1)
	tsChars := int((tsBits + 4) / 5)
	out := make([]byte, 0, tsChars+(n*8+4)/5)

	for i := tsChars - 1; i >= 0; i-- {
		out = append(out, crockfordBase32[(ms>>(uint(i)*5))&0x1F])
	}
	return string(appendBase32(out, random))
}

// appendBase32 packs src five bits at a time, padding the final group with zero bits.
func appendBase32(dst, src []byte) []byte {
	var acc uint16
	var bits uint
	for _, b := range src {
		acc = acc<<8 | uint16(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			dst = append(dst, crockfordBase32[(acc>>bits)&0x1F])
		}
	}
	if bits > 0 {
		dst = append(dst, crockfordBase32[(acc<<(5-bits))&0x1F])
	}
	return dst
}
