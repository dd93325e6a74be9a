package writebuffer

import "testing"

type fakeStore struct {
	pages map[int64]UIPage
}

func newFakeStore() *fakeStore { return &fakeStore{pages: make(map[int64]UIPage)} }

func (s *fakeStore) FetchPage(pageNo int64) (UIPage, error) {
	if p, ok := s.pages[pageNo]; ok {
		return p.ClonePage(), nil
	}
	return NewRNode(RNodeKind), nil
}

func (s *fakeStore) WritePage(pageNo int64, page UIPage) error {
	s.pages[pageNo] = page.ClonePage()
	return nil
}

func TestFetchPageMergesWithoutClearing(t *testing.T) {
	store := newFakeStore()
	wb := NewWriteBuffer(store, RNodeKind, 0)
	idx := NewIndexAdapter(wb)

	idx.InsertEntry(7, &Entry{Ptr: 1, Data: []byte("a")})
	idx.InsertEntry(7, &Entry{Ptr: 2, Data: []byte("b")})

	if !wb.Pending(idx.ID, 7) {
		t.Fatal("expected pending modifications before fetch")
	}

	merged, err := idx.FetchPage(7)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if merged.NumberOfEntries() != 2 {
		t.Fatalf("NumberOfEntries = %d, want 2", merged.NumberOfEntries())
	}
	if !wb.Pending(idx.ID, 7) {
		t.Fatal("FetchPage must not clear buffered modifications")
	}
	if _, ok := store.pages[7]; ok {
		t.Fatal("FetchPage must not write back to the page store")
	}
}

func TestFlushMergesWritesBackAndClears(t *testing.T) {
	store := newFakeStore()
	wb := NewWriteBuffer(store, RNodeKind, 0)
	idx := NewIndexAdapter(wb)

	idx.InsertEntry(7, &Entry{Ptr: 1, Data: []byte("a")})
	idx.InsertEntry(7, &Entry{Ptr: 2, Data: []byte("b")})

	merged, err := idx.Flush(7)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if merged.NumberOfEntries() != 2 {
		t.Fatalf("NumberOfEntries = %d, want 2", merged.NumberOfEntries())
	}
	if wb.Pending(idx.ID, 7) {
		t.Fatal("expected no pending modifications after flush")
	}

	again, err := idx.FetchPage(7)
	if err != nil {
		t.Fatalf("second FetchPage: %v", err)
	}
	if again.NumberOfEntries() != 2 {
		t.Fatalf("second FetchPage NumberOfEntries = %d, want 2 (written back by flush)", again.NumberOfEntries())
	}
}

func TestIndexAdaptersAreIsolated(t *testing.T) {
	store := newFakeStore()
	wb := NewWriteBuffer(store, RNodeKind, 0)
	a := NewIndexAdapter(wb)
	b := NewIndexAdapter(wb)

	a.InsertEntry(1, &Entry{Ptr: 1, Data: []byte("a")})
	if wb.Pending(b.ID, 1) {
		t.Fatal("index b should not see index a's buffered modifications")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("a.Close: %v", err)
	}
	if wb.Pending(a.ID, 1) {
		t.Fatal("Close should flush all of a's pending modifications")
	}
}
