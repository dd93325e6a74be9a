package writebuffer

// MergePage implements the eFIND merge engine (spec.md §4.6,
// efind_writebuffer_merge_mods): a two-pointer walk over fetched's entries
// (assumed already stored in key order) and mods' buffered changes in the
// same key order, producing a new page of the same kind holding the
// combined result.
//
// Ownership: MergePage takes ownership of fetched and destroys it once the
// walk completes — by the time a page reaches merge, in this single-task
// core, nothing else holds a reference to it. mods is left untouched; the
// caller (WriteBuffer.Flush) destroys it only after the merged page has
// been durably written back.
func MergePage(fetched UIPage, mods *ModSet) (UIPage, error) {
	out, err := NewPage(fetched.Kind(), pageSRID(fetched))
	if err != nil {
		return nil, err
	}

	n := fetched.NumberOfEntries()
	i := 0
	var pending []Mod
	mods.Ascend(func(m Mod) bool {
		pending = append(pending, m)
		return true
	})
	j := 0

	for i < n || j < len(pending) {
		switch {
		case j >= len(pending):
			e, err := fetched.EntryAt(i)
			if err != nil {
				fetched.Destroy()
				return nil, err
			}
			if err := out.AddEntry(e, true); err != nil {
				fetched.Destroy()
				return nil, err
			}
			i++

		case i >= n:
			if pending[j].Op != OpDelete {
				if err := out.AddEntry(pending[j].Entry, true); err != nil {
					fetched.Destroy()
					return nil, err
				}
			}
			j++

		default:
			fe, err := fetched.EntryAt(i)
			if err != nil {
				fetched.Destroy()
				return nil, err
			}
			fk := keyOf(fe)
			mk := pending[j].Key

			switch {
			case lessKey(fk, mk):
				if err := out.AddEntry(fe, true); err != nil {
					fetched.Destroy()
					return nil, err
				}
				i++
			case lessKey(mk, fk):
				if pending[j].Op != OpDelete {
					if err := out.AddEntry(pending[j].Entry, true); err != nil {
						fetched.Destroy()
						return nil, err
					}
				}
				j++
			default: // equal keys: the buffered change supersedes the stored entry
				if pending[j].Op != OpDelete {
					if err := out.AddEntry(pending[j].Entry, true); err != nil {
						fetched.Destroy()
						return nil, err
					}
				}
				i++
				j++
			}
		}
	}

	fetched.Destroy()
	return out, nil
}

func pageSRID(p UIPage) int {
	if h, ok := p.(*HilbertInternalNode); ok {
		return h.SRID
	}
	return 0
}
