package codec

import "fmt"

// ReadList reads a compact-uint count followed by that many records.
func ReadList[T any, PT interface {
	*T
	Unmarshaler
}](r *Reader) ([]T, error) {
	count, err := r.CUInt()
	if err != nil {
		return nil, fmt.Errorf("list count: %w", err)
	}

	// Every record takes at least one byte, so a count larger than the
	// remaining buffer is already known to be truncated.
	if int(count) > r.Len() {
		return nil, fmt.Errorf("list of %d records with %d bytes left: %w", count, r.Len(), ErrTruncatedInput)
	}

	items := make([]T, count)

	for i := range items {
		if err := PT(&items[i]).UnmarshalFrom(r); err != nil {
			return nil, fmt.Errorf("list item %d: %w", i, err)
		}
	}

	return items, nil
}

// WriteList writes a compact-uint count followed by every record.
func WriteList[T Marshaler](w *Writer, items []T) error {
	w.PutCUInt(uint32(len(items)))

	for i, item := range items {
		if err := item.MarshalTo(w); err != nil {
			return fmt.Errorf("list item %d: %w", i, err)
		}
	}

	return nil
}
