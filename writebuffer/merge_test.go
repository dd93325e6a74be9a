package writebuffer

import "testing"

func buildFetched(t *testing.T, ptrs ...Pointer) UIPage {
	t.Helper()
	p := NewRNode(RNodeKind)
	for _, ptr := range ptrs {
		if err := p.AddEntry(&Entry{Ptr: ptr, Data: []byte{byte(ptr)}}, false); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}
	return p
}

func TestMergePageInsertOnly(t *testing.T) {
	fetched := buildFetched(t, 1, 3, 5)
	mods := NewModSet(RNodeKind)
	mods.InsertOrReplace(Mod{Key: ModKey{Pointer: 2}, Op: OpInsert, Entry: &Entry{Ptr: 2, Data: []byte{9}}})
	mods.InsertOrReplace(Mod{Key: ModKey{Pointer: 4}, Op: OpInsert, Entry: &Entry{Ptr: 4, Data: []byte{9}}})

	merged, err := MergePage(fetched, mods)
	if err != nil {
		t.Fatalf("MergePage: %v", err)
	}
	want := []Pointer{1, 2, 3, 4, 5}
	if merged.NumberOfEntries() != len(want) {
		t.Fatalf("NumberOfEntries = %d, want %d", merged.NumberOfEntries(), len(want))
	}
	for i, w := range want {
		p, _ := merged.PointerOfEntryAt(i)
		if p != w {
			t.Fatalf("entry %d pointer = %d, want %d", i, p, w)
		}
	}
}

func TestMergePageReplacement(t *testing.T) {
	fetched := buildFetched(t, 1, 2, 3)
	mods := NewModSet(RNodeKind)
	mods.InsertOrReplace(Mod{Key: ModKey{Pointer: 2}, Op: OpUpdate, Entry: &Entry{Ptr: 2, Data: []byte("replaced")}})

	merged, err := MergePage(fetched, mods)
	if err != nil {
		t.Fatalf("MergePage: %v", err)
	}
	if merged.NumberOfEntries() != 3 {
		t.Fatalf("NumberOfEntries = %d, want 3", merged.NumberOfEntries())
	}
	e, _ := merged.EntryAt(1)
	if string(e.Data) != "replaced" {
		t.Fatalf("entry 1 data = %q, want %q", e.Data, "replaced")
	}
}

func TestMergePageDelete(t *testing.T) {
	fetched := buildFetched(t, 1, 2, 3)
	mods := NewModSet(RNodeKind)
	mods.InsertOrReplace(Mod{Key: ModKey{Pointer: 2}, Op: OpDelete})

	merged, err := MergePage(fetched, mods)
	if err != nil {
		t.Fatalf("MergePage: %v", err)
	}
	if merged.NumberOfEntries() != 2 {
		t.Fatalf("NumberOfEntries = %d, want 2", merged.NumberOfEntries())
	}
	for i := 0; i < merged.NumberOfEntries(); i++ {
		p, _ := merged.PointerOfEntryAt(i)
		if p == 2 {
			t.Fatal("deleted pointer 2 is still present after merge")
		}
	}
}

func TestModSetInsertOrReplaceDelta(t *testing.T) {
	s := NewModSet(RNodeKind)
	delta := s.InsertOrReplace(Mod{Key: ModKey{Pointer: 1}, Op: OpInsert, Entry: &Entry{Ptr: 1, Data: make([]byte, 10)}})
	if delta != 10+modNodeOverhead {
		t.Fatalf("first insert delta = %d, want %d", delta, 10+modNodeOverhead)
	}
	delta = s.InsertOrReplace(Mod{Key: ModKey{Pointer: 1}, Op: OpUpdate, Entry: &Entry{Ptr: 1, Data: make([]byte, 4)}})
	if delta != -6 {
		t.Fatalf("replacement delta = %d, want -6", delta)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (replace, not append)", s.Len())
	}
}
