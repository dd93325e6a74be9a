// Package writebuffer implements the eFIND in-memory write buffer
// (spec.md C4-C7): a UIPage/UIEntry capability abstraction over spatial
// index nodes, a per-node ordered modification set, a two-pointer merge
// engine, and an index adapter tying the two together.
package writebuffer

// Pointer is a node-relative entry identity (the original's RRN — record
// reference number / child pointer).
type Pointer int64

// NodeKind distinguishes the three page shapes eFIND's capability set must
// serve (spec.md §3): a Hilbert internal node carries an ordering key
// (Hilbert value, pointer); every other kind orders by pointer alone.
type NodeKind uint8

const (
	RNodeKind NodeKind = iota
	RStarNodeKind
	HilbertLeafKind
	HilbertInternalKind
)

// Entry is the single concrete UIEntry implementation: an R-tree/R*-tree
// leaf or internal entry, a Hilbert leaf entry, or a Hilbert internal
// entry (Hilbert is only meaningful for the last case, and is left zero
// otherwise so a single ordering key works for every kind).
type Entry struct {
	Ptr     Pointer
	Hilbert uint64
	Data    []byte
}

// GetPointer returns the entry's node-relative identity.
func (e *Entry) GetPointer() Pointer { return e.Ptr }

// Get returns the entry's raw payload bytes.
func (e *Entry) Get() []byte { return e.Data }

// Size returns the entry's payload size in bytes.
func (e *Entry) Size() int { return len(e.Data) }

// Destroy releases the entry's payload.
func (e *Entry) Destroy() { e.Data = nil }

func cloneEntry(e *Entry) *Entry {
	if e == nil {
		return nil
	}
	data := make([]byte, len(e.Data))
	copy(data, e.Data)
	return &Entry{Ptr: e.Ptr, Hilbert: e.Hilbert, Data: data}
}

// ModKey is the modification-set ordering key (spec.md §3 "Modification
// set"): pointer order for R-tree/R*-tree, (hilbert, pointer) order for
// Hilbert internal nodes. Hilbert is zero for every other kind, so a
// single lexicographic comparison serves both orderings.
type ModKey struct {
	Hilbert uint64
	Pointer Pointer
}

func keyOf(e *Entry) ModKey {
	return ModKey{Hilbert: e.Hilbert, Pointer: e.Ptr}
}

func lessKey(a, b ModKey) bool {
	if a.Hilbert != b.Hilbert {
		return a.Hilbert < b.Hilbert
	}
	return a.Pointer < b.Pointer
}
