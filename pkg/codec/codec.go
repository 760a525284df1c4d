// Package codec implements the primitive wire encoding of the game protocol:
// fixed-width integers with a selectable byte order, IEEE-754 floats,
// length-prefixed octets, count-prefixed record lists and the compact
// variable-length unsigned integer.
package codec

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrTruncatedInput is returned when the buffer is shorter than a field
	// demands.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrInvalidCodecState is returned when a fixed-width value is read or
	// written before a byte order was set.
	ErrInvalidCodecState = errors.New("invalid codec state")
)

// ByteOrder selects the endianness of fixed-width values.
type ByteOrder uint8

const (
	OrderUnset ByteOrder = iota
	BigEndian
	LittleEndian
)

func (o ByteOrder) String() string {
	switch o {
	case BigEndian:
		return "big-endian"
	case LittleEndian:
		return "little-endian"
	default:
		return "unset"
	}
}

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

func (o ByteOrder) binary() (byteOrder, error) {
	switch o {
	case BigEndian:
		return binary.BigEndian, nil
	case LittleEndian:
		return binary.LittleEndian, nil
	default:
		return nil, ErrInvalidCodecState
	}
}

// Marshaler is a record that can write itself to a Writer.
type Marshaler interface {
	MarshalTo(w *Writer) error
}

// Unmarshaler is a record that can read itself from a Reader.
type Unmarshaler interface {
	UnmarshalFrom(r *Reader) error
}
