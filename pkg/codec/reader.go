package codec

import (
	"fmt"
	"math"
)

// Reader is a cursor over a byte buffer. The cursor only advances on
// successful reads.
type Reader struct {
	buf   []byte
	pos   int
	order ByteOrder
}

func NewReader(buf []byte, order ByteOrder) *Reader {
	return &Reader{
		buf:   buf,
		order: order,
	}
}

func (r *Reader) SetOrder(order ByteOrder) {
	r.order = order
}

func (r *Reader) Order() ByteOrder {
	return r.order
}

// Pos returns the cursor offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

func (r *Reader) peek(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w", n, r.pos, r.Len(), ErrTruncatedInput)
	}

	return r.buf[r.pos : r.pos+n], nil
}

func (r *Reader) take(n int) ([]byte, error) {
	b, err := r.peek(n)
	if err != nil {
		return nil, err
	}

	r.pos += n

	return b, nil
}

func (r *Reader) fixed(n int) ([]byte, byteOrder, error) {
	order, err := r.order.binary()
	if err != nil {
		return nil, nil, fmt.Errorf("reader: %w", err)
	}

	b, err := r.take(n)
	if err != nil {
		return nil, nil, err
	}

	return b, order, nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

func (r *Reader) Uint16() (uint16, error) {
	b, order, err := r.fixed(2)
	if err != nil {
		return 0, err
	}

	return order.Uint16(b), nil
}

func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

func (r *Reader) Uint32() (uint32, error) {
	b, order, err := r.fixed(4)
	if err != nil {
		return 0, err
	}

	return order.Uint32(b), nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Uint64() (uint64, error) {
	b, order, err := r.fixed(8)
	if err != nil {
		return 0, err
	}

	return order.Uint64(b), nil
}

func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(v), nil
}

// Octets reads a compact-uint length followed by that many raw bytes. The
// returned slice is a copy.
func (r *Reader) Octets() ([]byte, error) {
	start := r.pos

	n, err := r.CUInt()
	if err != nil {
		return nil, err
	}

	b, err := r.take(int(n))
	if err != nil {
		r.pos = start
		return nil, err
	}

	out := make([]byte, len(b))
	copy(out, b)

	return out, nil
}
