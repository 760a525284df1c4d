package codec_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeowExort/pw-hub-relics-backend/pkg/codec"
)

func TestCUIntRoundTrip(t *testing.T) {
	rq := require.New(t)

	testCases := []struct {
		name  string
		value uint32
		bytes []byte
	}{
		{name: "Zero", value: 0, bytes: []byte{0x00}},
		{name: "One byte max", value: 0x7F, bytes: []byte{0x7F}},
		{name: "Two bytes min", value: 0x80, bytes: []byte{0x80, 0x80}},
		{name: "Two bytes max", value: 0x3FFF, bytes: []byte{0xBF, 0xFF}},
		{name: "Four bytes min", value: 0x4000, bytes: []byte{0xC0, 0x00, 0x40, 0x00}},
		{name: "Four bytes max", value: 0x1FFFFFFF, bytes: []byte{0xDF, 0xFF, 0xFF, 0xFF}},
		{name: "Five bytes min", value: 0x20000000, bytes: []byte{0xE0, 0x20, 0x00, 0x00, 0x00}},
		{name: "Max uint32", value: math.MaxUint32, bytes: []byte{0xE0, 0xFF, 0xFF, 0xFF, 0xFF}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			w := codec.NewWriter(codec.BigEndian)
			w.PutCUInt(tc.value)

			rq.Equal(tc.bytes, w.Bytes())
			rq.Equal(len(tc.bytes), codec.CUIntSize(tc.value))

			r := codec.NewReader(w.Bytes(), codec.BigEndian)

			got, err := r.CUInt()
			rq.NoError(err)
			rq.Equal(tc.value, got)
			rq.Zero(r.Len())
		})
	}
}

func TestCUIntIgnoresStreamOrder(t *testing.T) {
	rq := require.New(t)

	w := codec.NewWriter(codec.OrderUnset)
	w.PutCUInt(0x1234)

	rq.Equal([]byte{0x92, 0x34}, w.Bytes())

	got, err := codec.NewReader(w.Bytes(), codec.LittleEndian).CUInt()
	rq.NoError(err)
	rq.Equal(uint32(0x1234), got)
}

func TestCUIntTruncated(t *testing.T) {
	rq := require.New(t)

	values := []uint32{0x80, 0x3FFF, 0x4000, 0x1FFFFFFF, 0x20000000, math.MaxUint32}

	for _, v := range values {
		w := codec.NewWriter(codec.BigEndian)
		w.PutCUInt(v)
		encoded := w.Bytes()

		for cut := 0; cut < len(encoded); cut++ {
			r := codec.NewReader(encoded[:cut], codec.BigEndian)

			_, err := r.CUInt()
			rq.ErrorIs(err, codec.ErrTruncatedInput, "value %#x cut at %d", v, cut)
			rq.Zero(r.Pos())
		}
	}
}

func TestCUIntSweep(t *testing.T) {
	rq := require.New(t)

	for v := uint64(0); v <= math.MaxUint32; v = v*3 + 1 {
		w := codec.NewWriter(codec.BigEndian)
		w.PutCUInt(uint32(v))

		got, err := codec.NewReader(w.Bytes(), codec.BigEndian).CUInt()
		rq.NoError(err)
		rq.Equal(uint32(v), got)
	}
}
