package writebuffer

import (
	"encoding/binary"

	"github.com/ryogrid/flashdbsim/errs"
)

// UIPage is the capability set every node kind exposes to the merge engine
// and the index adapter, matching efind_page_handler.h's UIPageInterface:
// destroy, add_entry, set_entry, get_numberofentries, get_entry_at,
// get_pointerofentry_at, clone_page, get_page, get_size, copy_page. The
// original's function-pointer vtable becomes ordinary Go interface dispatch.
type UIPage interface {
	Kind() NodeKind
	Destroy()
	AddEntry(e *Entry, clone bool) error
	SetEntry(e *Entry, pos int, clone bool, freeOld bool) error
	NumberOfEntries() int
	EntryAt(pos int) (*Entry, error)
	PointerOfEntryAt(pos int) (Pointer, error)
	ClonePage() UIPage
	GetPage() []byte
	Size() int
	CopyPage(src UIPage) error
}

// baseNode holds the entry slice and operations shared by every concrete
// page kind; concrete types embed it and override Kind/ClonePage/GetPage.
type baseNode struct {
	entries []*Entry
}

func (b *baseNode) Destroy() {
	for _, e := range b.entries {
		e.Destroy()
	}
	b.entries = nil
}

func (b *baseNode) AddEntry(e *Entry, clone bool) error {
	if e == nil {
		return errs.ErrUnsupportedObject
	}
	if clone {
		e = cloneEntry(e)
	}
	b.entries = append(b.entries, e)
	return nil
}

func (b *baseNode) SetEntry(e *Entry, pos int, clone bool, freeOld bool) error {
	if pos < 0 || pos >= len(b.entries) {
		return errs.ErrInvalidPageState
	}
	if e == nil {
		return errs.ErrUnsupportedObject
	}
	if clone {
		e = cloneEntry(e)
	}
	if freeOld {
		b.entries[pos].Destroy()
	}
	b.entries[pos] = e
	return nil
}

func (b *baseNode) NumberOfEntries() int { return len(b.entries) }

func (b *baseNode) EntryAt(pos int) (*Entry, error) {
	if pos < 0 || pos >= len(b.entries) {
		return nil, errs.ErrInvalidPageState
	}
	return b.entries[pos], nil
}

func (b *baseNode) PointerOfEntryAt(pos int) (Pointer, error) {
	e, err := b.EntryAt(pos)
	if err != nil {
		return 0, err
	}
	return e.Ptr, nil
}

func (b *baseNode) Size() int {
	total := 0
	for _, e := range b.entries {
		total += e.Size()
	}
	return total
}

func (b *baseNode) cloneEntries() []*Entry {
	out := make([]*Entry, len(b.entries))
	for i, e := range b.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

func serializeEntries(entries []*Entry, withHilbert bool) []byte {
	var out []byte
	var hdr [8]byte
	for _, e := range entries {
		binary.BigEndian.PutUint64(hdr[:], uint64(e.Ptr))
		out = append(out, hdr[:]...)
		if withHilbert {
			binary.BigEndian.PutUint64(hdr[:], e.Hilbert)
			out = append(out, hdr[:]...)
		}
		binary.BigEndian.PutUint32(hdr[:4], uint32(len(e.Data)))
		out = append(out, hdr[:4]...)
		out = append(out, e.Data...)
	}
	return out
}

// RNode is an R-tree or R*-tree node: entries ordered by pointer alone.
type RNode struct {
	baseNode
	kind NodeKind // RNodeKind or RStarNodeKind
}

var _ UIPage = (*RNode)(nil)

func NewRNode(kind NodeKind) *RNode { return &RNode{kind: kind} }

func (n *RNode) Kind() NodeKind { return n.kind }

func (n *RNode) ClonePage() UIPage {
	return &RNode{kind: n.kind, baseNode: baseNode{entries: n.cloneEntries()}}
}

func (n *RNode) GetPage() []byte { return serializeEntries(n.entries, false) }

func (n *RNode) CopyPage(src UIPage) error {
	s, ok := src.(*RNode)
	if !ok || s.kind != n.kind {
		return errs.ErrUnsupportedObject
	}
	n.entries = s.cloneEntries()
	return nil
}

// HilbertLeafNode is a Hilbert R-tree leaf: entries ordered by pointer
// alone (the Hilbert value lives on the parent's entry for this child, not
// on the leaf's own entries).
type HilbertLeafNode struct {
	baseNode
}

var _ UIPage = (*HilbertLeafNode)(nil)

func NewHilbertLeafNode() *HilbertLeafNode { return &HilbertLeafNode{} }

func (n *HilbertLeafNode) Kind() NodeKind { return HilbertLeafKind }

func (n *HilbertLeafNode) ClonePage() UIPage {
	return &HilbertLeafNode{baseNode: baseNode{entries: n.cloneEntries()}}
}

func (n *HilbertLeafNode) GetPage() []byte { return serializeEntries(n.entries, false) }

func (n *HilbertLeafNode) CopyPage(src UIPage) error {
	s, ok := src.(*HilbertLeafNode)
	if !ok {
		return errs.ErrUnsupportedObject
	}
	n.entries = s.cloneEntries()
	return nil
}

// HilbertInternalNode is a Hilbert R-tree internal node: entries ordered by
// (hilbert, pointer). SRID is carried as an explicit field set at
// construction/merge time, never through a module-level setter (spec.md §9
// redesign flag).
type HilbertInternalNode struct {
	baseNode
	SRID int
}

var _ UIPage = (*HilbertInternalNode)(nil)

func NewHilbertInternalNode(srid int) *HilbertInternalNode {
	return &HilbertInternalNode{SRID: srid}
}

func (n *HilbertInternalNode) Kind() NodeKind { return HilbertInternalKind }

func (n *HilbertInternalNode) ClonePage() UIPage {
	return &HilbertInternalNode{SRID: n.SRID, baseNode: baseNode{entries: n.cloneEntries()}}
}

func (n *HilbertInternalNode) GetPage() []byte { return serializeEntries(n.entries, true) }

func (n *HilbertInternalNode) CopyPage(src UIPage) error {
	s, ok := src.(*HilbertInternalNode)
	if !ok {
		return errs.ErrUnsupportedObject
	}
	n.entries = s.cloneEntries()
	n.SRID = s.SRID
	return nil
}

// NewPage constructs an empty page of kind, carrying srid through for
// Hilbert internal nodes (ignored otherwise).
func NewPage(kind NodeKind, srid int) (UIPage, error) {
	switch kind {
	case RNodeKind, RStarNodeKind:
		return NewRNode(kind), nil
	case HilbertLeafKind:
		return NewHilbertLeafNode(), nil
	case HilbertInternalKind:
		return NewHilbertInternalNode(srid), nil
	default:
		return nil, errs.ErrWrongModuleId
	}
}
