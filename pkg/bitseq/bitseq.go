// Package bitseq packs logical bit sequences into bytes, eight bits per byte,
// least-significant bit first. Bit i lives in byte i/8 at position i%8.
package bitseq

import (
	"fmt"

	"github.com/boljen/go-bitmap"
)

// Buffer is an N-bit sequence backed by ceil(N/8) bytes. Bits beyond N in the
// last byte are don't-care and are never read.
type Buffer struct {
	data []byte
	n    int
}

// New allocates a zeroed buffer for n bits.
func New(n int) *Buffer {
	if n < 0 {
		n = 0
	}
	return &Buffer{data: make([]byte, ByteLen(n)), n: n}
}

// Wrap views an existing byte slice as an n-bit sequence without copying. It
// fails if data is too short to hold n bits.
func Wrap(data []byte, n int) (*Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("bitseq: negative length %d", n)
	}
	if len(data) < ByteLen(n) {
		return nil, fmt.Errorf("bitseq: %d bytes cannot hold %d bits", len(data), n)
	}
	return &Buffer{data: data, n: n}, nil
}

// ByteLen reports how many bytes an n-bit sequence occupies.
func ByteLen(n int) int {
	return (n + 7) / 8
}

// Len returns the logical number of bits.
func (b *Buffer) Len() int {
	return b.n
}

// Bytes returns the backing storage.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Get reports bit i. It panics when i is outside [0, Len()).
func (b *Buffer) Get(i int) bool {
	b.check(i)
	return bitmap.Get(b.data, i)
}

// Set assigns bit i. It panics when i is outside [0, Len()).
func (b *Buffer) Set(i int, v bool) {
	b.check(i)
	bitmap.Set(b.data, i, v)
}

// Bools unpacks the sequence.
func (b *Buffer) Bools() []bool {
	return Unpack(b.data, b.n)
}

// String renders the sequence in shift order, first bit leftmost.
func (b *Buffer) String() string {
	out := make([]byte, b.n)
	for i := 0; i < b.n; i++ {
		out[i] = '0'
		if bitmap.Get(b.data, i) {
			out[i] = '1'
		}
	}
	return string(out)
}

func (b *Buffer) check(i int) {
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("bitseq: index %d out of range [0,%d)", i, b.n))
	}
}

// Pack converts bools into packed bytes.
func Pack(bits []bool) []byte {
	if len(bits) == 0 {
		return nil
	}
	buf := make([]byte, ByteLen(len(bits)))
	for i, bit := range bits {
		if bit {
			bitmap.Set(buf, i, true)
		}
	}
	return buf
}

// Unpack reads the first n bits of buf.
func Unpack(buf []byte, n int) []bool {
	if n <= 0 {
		return nil
	}
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = bitmap.Get(buf, i)
	}
	return out
}

// FromUint32 packs the low n bits of v, which must not exceed 32.
func FromUint32(v uint32, n int) []bool {
	if n > 32 {
		n = 32
	}
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = v&(1<<uint(i)) != 0
	}
	return out
}

// ToUint32 folds up to 32 bits, first bit as the LSB.
func ToUint32(bits []bool) uint32 {
	var v uint32
	for i, bit := range bits {
		if i >= 32 {
			break
		}
		if bit {
			v |= 1 << uint(i)
		}
	}
	return v
}
