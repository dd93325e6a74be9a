package writebuffer

import (
	"encoding/binary"

	"github.com/ryogrid/flashdbsim/errs"
)

// ParsePage reverses GetPage's serialization, reconstructing a page of the
// given kind (and, for a Hilbert internal node, srid) from raw bytes — the
// format a PageStore reads back off physical storage.
func ParsePage(kind NodeKind, srid int, data []byte) (UIPage, error) {
	withHilbert := kind == HilbertInternalKind
	entries, err := parseEntries(data, withHilbert)
	if err != nil {
		return nil, err
	}
	p, err := NewPage(kind, srid)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := p.AddEntry(e, false); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func parseEntries(data []byte, withHilbert bool) ([]*Entry, error) {
	var out []*Entry
	pos := 0
	for pos < len(data) {
		if pos+8 > len(data) {
			return nil, errs.ErrIoOverflow
		}
		ptr := Pointer(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8

		var hilbert uint64
		if withHilbert {
			if pos+8 > len(data) {
				return nil, errs.ErrIoOverflow
			}
			hilbert = binary.BigEndian.Uint64(data[pos : pos+8])
			pos += 8
		}

		if pos+4 > len(data) {
			return nil, errs.ErrIoOverflow
		}
		size := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4

		if pos+size > len(data) {
			return nil, errs.ErrIoOverflow
		}
		payload := make([]byte, size)
		copy(payload, data[pos:pos+size])
		pos += size

		out = append(out, &Entry{Ptr: ptr, Hilbert: hilbert, Data: payload})
	}
	return out, nil
}
