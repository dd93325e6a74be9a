package writebuffer

import "github.com/google/btree"

// OpKind is the kind of change buffered against a node entry.
type OpKind uint8

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

// Mod is one buffered change, keyed the same way the owning page's entries
// are ordered (spec.md §3/§4.5). Entry is nil for OpDelete.
type Mod struct {
	Key   ModKey
	Op    OpKind
	Entry *Entry
}

func modLess(a, b Mod) bool { return lessKey(a.Key, b.Key) }

// ModSet is the per-node ordered modification set (spec.md C5), backed by a
// generic B-tree instead of the original's Linux-kernel-style red-black
// tree (efind_mod_handler.h) — same ordered-map role, idiomatic Go container.
type ModSet struct {
	kind NodeKind
	tree *btree.BTreeG[Mod]
}

const modSetDegree = 32

// modNodeOverhead is the fixed per-record bookkeeping cost of buffering one
// modification, charged only on a fresh insert (sizeof(eFIND_Modification):
// an rb_node — left/right/parent pointers plus a packed color bit, ~24
// bytes on a 64-bit platform — plus one entry pointer).
const modNodeOverhead = 32

// NewModSet creates an empty modification set for the given node kind.
func NewModSet(kind NodeKind) *ModSet {
	return &ModSet{kind: kind, tree: btree.NewG(modSetDegree, modLess)}
}

func (s *ModSet) Kind() NodeKind { return s.kind }

func (s *ModSet) Len() int { return s.tree.Len() }

// InsertOrReplace buffers m, returning the net size delta it introduces —
// can be negative (a smaller update or a delete), mirroring
// efind_writebuffer_add_mod's "can even return 0 if a replacement was done."
func (s *ModSet) InsertOrReplace(m Mod) int64 {
	old, existed := s.tree.ReplaceOrInsert(m)
	delta := int64(modSize(m))
	if existed {
		delta -= int64(modSize(old))
		if old.Entry != nil && old.Entry != m.Entry {
			old.Entry.Destroy()
		}
	} else {
		delta += modNodeOverhead
	}
	return delta
}

func modSize(m Mod) int {
	if m.Entry == nil {
		return 0
	}
	return m.Entry.Size()
}

// Ascend visits every buffered modification in key order.
func (s *ModSet) Ascend(fn func(Mod) bool) {
	s.tree.Ascend(func(m Mod) bool { return fn(m) })
}

// Destroy releases every buffered entry and empties the set.
func (s *ModSet) Destroy() {
	s.tree.Ascend(func(m Mod) bool {
		if m.Entry != nil {
			m.Entry.Destroy()
		}
		return true
	})
	s.tree = btree.NewG(modSetDegree, modLess)
}
