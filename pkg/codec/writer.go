package codec

import (
	"fmt"
	"math"
)

// Writer appends encoded values to an internal buffer.
type Writer struct {
	buf   []byte
	order ByteOrder
}

func NewWriter(order ByteOrder) *Writer {
	return &Writer{order: order}
}

func (w *Writer) SetOrder(order ByteOrder) {
	w.order = order
}

// Bytes returns the encoded buffer. The slice aliases the writer's storage.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) binaryOrder() (byteOrder, error) {
	order, err := w.order.binary()
	if err != nil {
		return nil, fmt.Errorf("writer: %w", err)
	}

	return order, nil
}

func (w *Writer) PutUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutInt8(v int8) {
	w.PutUint8(uint8(v))
}

func (w *Writer) PutUint16(v uint16) error {
	order, err := w.binaryOrder()
	if err != nil {
		return err
	}

	w.buf = order.AppendUint16(w.buf, v)

	return nil
}

func (w *Writer) PutInt16(v int16) error {
	return w.PutUint16(uint16(v))
}

func (w *Writer) PutUint32(v uint32) error {
	order, err := w.binaryOrder()
	if err != nil {
		return err
	}

	w.buf = order.AppendUint32(w.buf, v)

	return nil
}

func (w *Writer) PutInt32(v int32) error {
	return w.PutUint32(uint32(v))
}

func (w *Writer) PutUint64(v uint64) error {
	order, err := w.binaryOrder()
	if err != nil {
		return err
	}

	w.buf = order.AppendUint64(w.buf, v)

	return nil
}

func (w *Writer) PutInt64(v int64) error {
	return w.PutUint64(uint64(v))
}

func (w *Writer) PutFloat32(v float32) error {
	return w.PutUint32(math.Float32bits(v))
}

// PutOctets writes a compact-uint length followed by the raw bytes.
func (w *Writer) PutOctets(b []byte) {
	w.PutCUInt(uint32(len(b)))
	w.buf = append(w.buf, b...)
}
