package codec

import "encoding/binary"

const (
	cuintMax1 = 0x80
	cuintMax2 = 0x4000
	cuintMax4 = 0x20000000

	cuintTag2      = 0x8000
	cuintTag4      = 0xC0000000
	cuintMarker5   = 0xE0
	cuintLeadMask  = 0xE0
	cuintLeadTag4  = 0xC0
	cuintLeadTag2a = 0x80
	cuintLeadTag2b = 0xA0
)

// CUIntSize returns the number of bytes PutCUInt writes for v.
func CUIntSize(v uint32) int {
	switch {
	case v < cuintMax1:
		return 1
	case v < cuintMax2:
		return 2
	case v < cuintMax4:
		return 4
	default:
		return 5
	}
}

// PutCUInt writes v as a compact unsigned integer. The width tag lives in the
// top bits of the first byte and the value is always big-endian.
func (w *Writer) PutCUInt(v uint32) {
	switch CUIntSize(v) {
	case 1:
		w.buf = append(w.buf, byte(v))
	case 2:
		w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v)|cuintTag2)
	case 4:
		w.buf = binary.BigEndian.AppendUint32(w.buf, v|cuintTag4)
	default:
		w.buf = append(w.buf, cuintMarker5)
		w.buf = binary.BigEndian.AppendUint32(w.buf, v)
	}
}

// CUInt reads a compact unsigned integer. On truncated input the cursor is
// left untouched.
func (r *Reader) CUInt() (uint32, error) {
	lead, err := r.peek(1)
	if err != nil {
		return 0, err
	}

	switch lead[0] & cuintLeadMask {
	case cuintMarker5:
		b, err := r.peek(5)
		if err != nil {
			return 0, err
		}

		r.pos += 5

		return binary.BigEndian.Uint32(b[1:]), nil
	case cuintLeadTag4:
		b, err := r.take(4)
		if err != nil {
			return 0, err
		}

		return binary.BigEndian.Uint32(b) &^ cuintTag4, nil
	case cuintLeadTag2a, cuintLeadTag2b:
		b, err := r.take(2)
		if err != nil {
			return 0, err
		}

		return uint32(binary.BigEndian.Uint16(b) &^ cuintTag2), nil
	default:
		r.pos++

		return uint32(lead[0]), nil
	}
}
