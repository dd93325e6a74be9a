package writebuffer

import "github.com/google/uuid"

// IndexAdapter is the index adapter (spec.md C7): it gives one spatial
// index instance an identity distinct from every other index sharing the
// same WriteBuffer, and translates entry-level operations into buffered
// modifications.
type IndexAdapter struct {
	ID uuid.UUID
	wb *WriteBuffer
}

// NewIndexAdapter attaches a freshly identified index instance to wb.
func NewIndexAdapter(wb *WriteBuffer) *IndexAdapter {
	return &IndexAdapter{ID: uuid.New(), wb: wb}
}

// InsertEntry buffers the addition of e to pageNo, returning the size delta.
func (a *IndexAdapter) InsertEntry(pageNo int64, e *Entry) int64 {
	return a.wb.AddMod(a.ID, pageNo, Mod{Key: keyOf(e), Op: OpInsert, Entry: e})
}

// UpdateEntry buffers replacing the entry at e's key on pageNo with e.
func (a *IndexAdapter) UpdateEntry(pageNo int64, e *Entry) int64 {
	return a.wb.AddMod(a.ID, pageNo, Mod{Key: keyOf(e), Op: OpUpdate, Entry: e})
}

// DeleteEntry buffers removing the entry at key from pageNo.
func (a *IndexAdapter) DeleteEntry(pageNo int64, key ModKey) int64 {
	return a.wb.AddMod(a.ID, pageNo, Mod{Key: key, Op: OpDelete})
}

// FetchPage returns pageNo merged with any modifications buffered so far.
// This is a read: it does not write anything back to the page store or
// clear the modification set (spec.md §2). Use Flush to persist explicitly.
func (a *IndexAdapter) FetchPage(pageNo int64) (UIPage, error) {
	return a.wb.Peek(a.ID, pageNo)
}

// Flush merges pageNo's buffered modifications into the stored page, writes
// the result back through the page store, and clears the modification set.
func (a *IndexAdapter) Flush(pageNo int64) (UIPage, error) {
	return a.wb.Flush(a.ID, pageNo)
}

// Close flushes every page with modifications still buffered for this
// index. It does not affect other indices sharing the same write buffer.
func (a *IndexAdapter) Close() error {
	return a.wb.FlushAllFor(a.ID)
}
