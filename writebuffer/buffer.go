package writebuffer

import (
	"sync"

	"github.com/google/uuid"
)

// PageStore is the small adapter interface decoupling the write buffer from
// its page-store backing (grounded on the teacher's
// interfaces.ParentPage/ParentBufMgr pattern: a consumer depends only on a
// narrow interface, never on a concrete foreign buffer-pool manager).
// The root package's PageStore implements this over a Facade, fetching and
// writing whole pages through its FTL-backed logical address space.
type PageStore interface {
	FetchPage(pageNo int64) (UIPage, error)
	WritePage(pageNo int64, page UIPage) error
}

// pageKey identifies one node's modification set across multiple
// concurrently-open (but single-task-used, spec.md §5) indices.
type pageKey struct {
	indexID uuid.UUID
	pageNo  int64
}

// WriteBuffer holds one ModSet per (index, page) pair that has buffered,
// unflushed changes (spec.md C4/C5).
type WriteBuffer struct {
	mu    sync.Mutex
	store PageStore
	kind  NodeKind
	srid  int
	sets  map[pageKey]*ModSet
}

// NewWriteBuffer creates a write buffer over store for nodes of kind kind.
// srid is only meaningful for HilbertInternalKind and is carried explicitly
// rather than through any package-level setter (spec.md §9 redesign flag).
func NewWriteBuffer(store PageStore, kind NodeKind, srid int) *WriteBuffer {
	return &WriteBuffer{store: store, kind: kind, srid: srid, sets: make(map[pageKey]*ModSet)}
}

// AddMod buffers m against (indexID, pageNo), returning the size delta it
// introduces (spec.md §4.5).
func (w *WriteBuffer) AddMod(indexID uuid.UUID, pageNo int64, m Mod) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := pageKey{indexID: indexID, pageNo: pageNo}
	set, ok := w.sets[key]
	if !ok {
		set = NewModSet(w.kind)
		w.sets[key] = set
	}
	return set.InsertOrReplace(m)
}

// Peek merges any buffered modifications for (indexID, pageNo) into the
// stored page and returns the merged result, without writing anything back
// to the page store or touching the modification set (spec.md §2: a read
// that needs a node merges in-memory and yields; it does not persist).
func (w *WriteBuffer) Peek(indexID uuid.UUID, pageNo int64) (UIPage, error) {
	w.mu.Lock()
	set, ok := w.sets[pageKey{indexID: indexID, pageNo: pageNo}]
	w.mu.Unlock()

	fetched, err := w.store.FetchPage(pageNo)
	if err != nil {
		return nil, err
	}
	if !ok || set.Len() == 0 {
		return fetched, nil
	}
	return MergePage(fetched, set)
}

// Flush merges any buffered modifications for (indexID, pageNo) into the
// stored page, writes the merged result back, and clears the modification
// set. If nothing was buffered, it just fetches.
func (w *WriteBuffer) Flush(indexID uuid.UUID, pageNo int64) (UIPage, error) {
	w.mu.Lock()
	key := pageKey{indexID: indexID, pageNo: pageNo}
	set, ok := w.sets[key]
	w.mu.Unlock()

	fetched, err := w.store.FetchPage(pageNo)
	if err != nil {
		return nil, err
	}
	if !ok || set.Len() == 0 {
		return fetched, nil
	}

	merged, err := MergePage(fetched, set)
	if err != nil {
		return nil, err
	}
	if err := w.store.WritePage(pageNo, merged); err != nil {
		return nil, err
	}

	w.mu.Lock()
	set.Destroy()
	delete(w.sets, key)
	w.mu.Unlock()

	return merged, nil
}

// FlushAllFor flushes every page with buffered modifications belonging to
// indexID (used by IndexAdapter.Close).
func (w *WriteBuffer) FlushAllFor(indexID uuid.UUID) error {
	w.mu.Lock()
	var pending []int64
	for key := range w.sets {
		if key.indexID == indexID {
			pending = append(pending, key.pageNo)
		}
	}
	w.mu.Unlock()

	for _, pageNo := range pending {
		if _, err := w.Flush(indexID, pageNo); err != nil {
			return err
		}
	}
	return nil
}

// Pending reports whether (indexID, pageNo) currently has buffered,
// unflushed modifications.
func (w *WriteBuffer) Pending(indexID uuid.UUID, pageNo int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	set, ok := w.sets[pageKey{indexID: indexID, pageNo: pageNo}]
	return ok && set.Len() > 0
}
