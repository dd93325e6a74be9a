package ftl

import (
	"github.com/ryogrid/flashdbsim/errs"
	"github.com/ryogrid/flashdbsim/vfd"
)

func vfdPageID(p int) vfd.PageID { return vfd.PageID(p) }

// Reclaim runs one garbage-collection/wear-leveling pass. The facade's
// optional cron-driven scheduler calls this during caller-declared idle
// windows; allocNewPage also calls it inline, once, when no physical page is
// otherwise available.
func (f *FTL) Reclaim() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reclaimLocked()
}

// allocNewPage finds a physical page for one logical allocation: scan
// dirty_list for a block with a free slot, else pop free_list (which moves
// the block into dirty_list, since "free" only means "fully erased," not
// "available forever"), else reclaim once and retry.
func (f *FTL) allocNewPage() (int32, error) {
	if p, ok := f.tryAllocFromDirty(); ok {
		return p, nil
	}
	if p, ok := f.tryAllocFromFree(); ok {
		return p, nil
	}
	if err := f.reclaimLocked(); err != nil {
		return noPBA, errs.ErrNoMemory
	}
	if p, ok := f.tryAllocFromDirty(); ok {
		return p, nil
	}
	if p, ok := f.tryAllocFromFree(); ok {
		return p, nil
	}
	return noPBA, errs.ErrNoMemory
}

func (f *FTL) tryAllocFromDirty() (int32, bool) {
	for _, b := range f.dirtyList {
		if page, ok := f.findFreePage(b); ok {
			return f.pba(b, page), true
		}
	}
	return noPBA, false
}

func (f *FTL) tryAllocFromFree() (int32, bool) {
	if len(f.freeList) == 0 {
		return noPBA, false
	}
	b := f.freeList[0]
	f.freeList = f.freeList[1:]
	f.dirtyList = append(f.dirtyList, b)
	page, ok := f.findFreePage(b)
	if !ok {
		// A block popped from free_list is fully erased by construction.
		panic("ftl: free-list block has no free page")
	}
	return f.pba(b, page), true
}

func (f *FTL) findFreePage(b BlockID) (int, bool) {
	base := int(b) * f.pagesPerBlock
	for p := 0; p < f.pagesPerBlock; p++ {
		if f.pageState[base+p] == PageFree {
			return p, true
		}
	}
	return 0, false
}

// reclaimLocked implements ReclaimBlock: a dead-list fast path (erase every
// fully-garbage block), a wear-leveling swap (step 4: most_dirty and
// least_erased both drawn from dirty_list, evaluated regardless of
// most_dirty's own garbage, relocating least_erased's data out before
// most_dirty's), and a plain-GC fallback (step 5: reclaim most_dirty itself
// when it has garbage to collect). Both relocations funnel through the
// single reserved scratch block.
func (f *FTL) reclaimLocked() error {
	if len(f.deadList) > 0 {
		for len(f.deadList) > 0 {
			b := f.deadList[0]
			f.deadList = f.deadList[1:]
			if err := f.eraseAndFree(b); err != nil {
				return err
			}
		}
		return nil
	}

	// Wear-leveling evaluation below compares erase counts, which requires
	// a counter-capable device; this precondition is checked here, at
	// reclaim time, not at Init time (a non-counting device can still use
	// every other FTL operation).
	if f.counters == nil {
		return errs.ErrUnsupportedObject
	}

	victim, found := f.mostDirty()
	if !found {
		return errs.ErrNotDirty
	}

	if least, ok := f.leastErasedDirty(victim); ok {
		if f.eraseCount(victim)-f.eraseCount(least) > f.cfg.WearLevelThreshold {
			if err := f.relocateAndSwap(least); err != nil {
				return err
			}
			return f.relocateAndSwap(victim)
		}
	}

	if f.deadCount[victim] <= 0 {
		return errs.ErrNotDirty
	}
	return f.relocateAndSwap(victim)
}

// mostDirty returns the dirty_list block with the greatest dead-page count,
// ties resolved to the first one found.
func (f *FTL) mostDirty() (BlockID, bool) {
	if len(f.dirtyList) == 0 {
		return 0, false
	}
	best := f.dirtyList[0]
	for _, b := range f.dirtyList[1:] {
		if f.deadCount[b] > f.deadCount[best] {
			best = b
		}
	}
	return best, true
}

// leastErasedDirty returns the dirty_list block, other than exclude, with
// the smallest erase count, ties resolved to the first one found.
func (f *FTL) leastErasedDirty(exclude BlockID) (BlockID, bool) {
	var best BlockID
	found := false
	for _, b := range f.dirtyList {
		if b == exclude {
			continue
		}
		if !found || f.eraseCount(b) < f.eraseCount(best) {
			best = b
			found = true
		}
	}
	return best, found
}

func (f *FTL) eraseCount(b BlockID) int {
	return f.counters.EraseCount(b)
}

// relocateAndSwap moves victim's LIVE and ALLOCATED pages into the reserved
// block, erases victim, and rotates the reserved slot: victim (now empty
// and freshly erased) becomes the new reserved block, while the old
// reserved block (now holding victim's relocated data) is appended to the
// tail of dirty_list. Called once for a plain-GC reclaim, or twice in a
// row (least_erased, then most_dirty) for a wear-leveling swap.
func (f *FTL) relocateAndSwap(victim BlockID) error {
	oldReserved := f.reserved
	base := int(victim) * f.pagesPerBlock
	resBase := int(oldReserved) * f.pagesPerBlock

	buf := make([]byte, f.dev.Geometry().PageBytes)
	nextResPage := 0
	for p := 0; p < f.pagesPerBlock; p++ {
		srcPBA := int32(base + p)
		state := f.pageState[srcPBA]
		if state != PageLive && state != PageAllocated {
			continue
		}
		if nextResPage >= f.pagesPerBlock {
			panic("ftl: reserved block has no room for relocated pages")
		}
		dstPBA := int32(resBase + nextResPage)
		nextResPage++

		if state == PageLive {
			if err := f.dev.ReadPage(victim, vfdPageID(p), buf, 0, len(buf)); err != nil {
				return err
			}
			if err := f.dev.WritePage(oldReserved, vfdPageID(int(dstPBA)-resBase), buf, 0, len(buf)); err != nil {
				return err
			}
			f.liveCount[oldReserved]++
		}

		lba := f.reverseMap[srcPBA]
		f.forwardMap[lba] = dstPBA
		f.reverseMap[dstPBA] = lba
		f.pageState[dstPBA] = state
	}

	if err := f.removeFromDirty(victim); err != nil {
		return err
	}
	if err := f.eraseAndFree(victim); err != nil {
		return err
	}
	// eraseAndFree pushed victim onto free_list; it is the new reserved.
	f.freeList = f.freeList[:len(f.freeList)-1]
	f.reserved = victim
	f.dirtyList = append(f.dirtyList, oldReserved)
	return nil
}

func (f *FTL) removeFromDirty(b BlockID) error {
	for i, id := range f.dirtyList {
		if id == b {
			f.dirtyList = append(f.dirtyList[:i], f.dirtyList[i+1:]...)
			return nil
		}
	}
	return errs.ErrInvalidPageState
}

// eraseAndFree erases b on the device and resets its bookkeeping to fully
// free, appending it to free_list.
func (f *FTL) eraseAndFree(b BlockID) error {
	if err := f.dev.EraseBlock(b); err != nil {
		return err
	}
	base := int(b) * f.pagesPerBlock
	for p := 0; p < f.pagesPerBlock; p++ {
		f.pageState[base+p] = PageFree
	}
	f.liveCount[b] = 0
	f.deadCount[b] = 0
	f.freeList = append(f.freeList, b)
	return nil
}
