// Package ftl implements the Flash Translation Layer (spec.md C2, "FTL01"):
// a logical-address space backed by a vfd.Device, with out-of-place writes,
// garbage collection and wear leveling carried out by reclaim.go.
package ftl

import (
	"fmt"
	"sync"

	"github.com/ryogrid/flashdbsim/errs"
	"github.com/ryogrid/flashdbsim/vfd"
)

// LBA is a logical page address handed out by AllocPage and used by every
// subsequent Read/Write/Release call.
type LBA int32

const unmapped LBA = -1
const noPBA int32 = -1

// PageState mirrors spec.md's page state machine: FREE -> ALLOCATED -> LIVE
// -> DEAD, reset to FREE only by erasing the whole containing block.
type PageState uint8

const (
	PageFree PageState = iota
	PageAllocated
	PageLive
	PageDead
)

// BlockID identifies one physical erase unit.
type BlockID = vfd.BlockID

// Config configures the logical address space and reclaim policy.
type Config struct {
	WearLevelThreshold int // erase-count skew that triggers a wear-level swap
}

// Algorithm selects a mapping/reclaim algorithm. FTL01 is the only one
// implemented (spec.md §4.2 heading); the type exists so the facade's
// selector validation is symmetric with vfd.Variant's.
type Algorithm uint8

const (
	FTL01 Algorithm = iota + 1
)

// FTL is the single-task, single-owner mapping instance (spec.md §5: no
// concurrent callers are supported by the core; the mutex here only guards
// against accidental concurrent use, it does not make the algorithms
// safe for interleaved callers).
type FTL struct {
	mu  sync.Mutex
	dev vfd.Device
	cfg Config

	blockCount    int
	pagesPerBlock int

	pageState []PageState // indexed by flattened PBA
	liveCount []int       // indexed by BlockID
	deadCount []int       // indexed by BlockID

	forwardMap []int32 // indexed by LBA -> flattened PBA, noPBA if unmapped
	reverseMap []LBA   // indexed by flattened PBA -> LBA, unmapped if none
	mapCursor  int

	freeList  []BlockID
	dirtyList []BlockID
	deadList  []BlockID
	reserved  BlockID

	counters vfd.CounterCapability
}

// Init binds the FTL to dev (already vfd.Device.Init'd by the caller) and
// reserves the last block as scratch space for reclaim/wear-leveling.
func (f *FTL) Init(dev vfd.Device, cfg Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	geo := dev.Geometry()
	if geo.BlockCount < 2 {
		return fmt.Errorf("%w: ftl needs at least 2 blocks (1 reserved)", errs.ErrModuleInitFailed)
	}
	// Counter capability is optional at bind time: it is only required once
	// a reclaim actually needs to compare erase counts, checked lazily in
	// reclaimLocked (spec.md §4.2.5/§7).
	counters, _ := dev.(vfd.CounterCapability)

	f.dev = dev
	f.cfg = cfg
	f.counters = counters
	f.blockCount = geo.BlockCount
	f.pagesPerBlock = geo.PagesPerBlock

	totalPages := f.blockCount * f.pagesPerBlock
	f.pageState = make([]PageState, totalPages)
	f.liveCount = make([]int, f.blockCount)
	f.deadCount = make([]int, f.blockCount)

	mapListSize := (f.blockCount - 1) * f.pagesPerBlock
	f.forwardMap = make([]int32, mapListSize)
	for i := range f.forwardMap {
		f.forwardMap[i] = noPBA
	}
	f.reverseMap = make([]LBA, totalPages)
	for i := range f.reverseMap {
		f.reverseMap[i] = unmapped
	}
	f.mapCursor = 0

	f.reserved = BlockID(f.blockCount - 1)
	f.freeList = make([]BlockID, 0, f.blockCount-1)
	for b := 0; b < f.blockCount-1; b++ {
		f.freeList = append(f.freeList, BlockID(b))
	}
	f.dirtyList = nil
	f.deadList = nil
	return nil
}

// Release clears the mapping state. It does not touch the underlying
// device, which the caller owns.
func (f *FTL) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	*f = FTL{}
}

func (f *FTL) pba(b BlockID, p int) int32 {
	return int32(int(b)*f.pagesPerBlock + p)
}

func (f *FTL) blockOf(pba int32) BlockID {
	return BlockID(int(pba) / f.pagesPerBlock)
}

func (f *FTL) pageOf(pba int32) vfd.PageID {
	return vfd.PageID(int(pba) % f.pagesPerBlock)
}

func (f *FTL) mapListSize() int {
	return len(f.forwardMap)
}

// AllocPage allocates up to n fresh logical addresses, returning however
// many it actually managed to place (spec.md's Open Question: a partial
// result is not itself an error — callers compare len(result) against n).
func (f *FTL) AllocPage(n int) ([]LBA, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n <= 0 {
		return nil, nil
	}
	out := make([]LBA, 0, n)
	size := f.mapListSize()
	for probes := 0; probes < size && len(out) < n; probes++ {
		cursor := f.mapCursor
		f.mapCursor = (f.mapCursor + 1) % size

		if f.forwardMap[cursor] != noPBA {
			continue
		}
		p, err := f.allocNewPage()
		if err != nil {
			// No physical page available anywhere right now; further
			// probes of the logical map won't change that.
			break
		}
		lba := LBA(cursor)
		f.forwardMap[cursor] = p
		f.reverseMap[p] = lba
		f.pageState[p] = PageAllocated
		out = append(out, lba)
	}
	return out, nil
}

// ReleasePage invalidates lba's current mapping, marking its physical page
// DEAD without allocating a replacement.
func (f *FTL) ReleasePage(lba LBA) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releaseLocked(lba)
}

func (f *FTL) releaseLocked(lba LBA) error {
	if int(lba) < 0 || int(lba) >= f.mapListSize() {
		return errs.ErrInvalidLBA
	}
	p := f.forwardMap[lba]
	if p == noPBA {
		return errs.ErrInvalidLBA
	}
	f.markDead(p)
	f.forwardMap[lba] = noPBA
	f.reverseMap[p] = unmapped
	return nil
}

func (f *FTL) markDead(pba int32) {
	b := f.blockOf(pba)
	switch f.pageState[pba] {
	case PageLive:
		f.liveCount[b]--
	case PageAllocated:
		// allocated but never written; no live accounting to undo
	default:
		return
	}
	f.pageState[pba] = PageDead
	f.deadCount[b]++
	if f.deadCount[b] == f.pagesPerBlock {
		f.moveDirtyToDead(b)
	}
}

func (f *FTL) moveDirtyToDead(b BlockID) {
	for i, id := range f.dirtyList {
		if id == b {
			f.dirtyList = append(f.dirtyList[:i], f.dirtyList[i+1:]...)
			break
		}
	}
	f.deadList = append(f.deadList, b)
}

// ReadPage reads size bytes at offset from lba's current physical page.
// Reading an ALLOCATED-but-unwritten page is legal and returns whatever the
// underlying device holds there; only the LBA itself is validated.
func (f *FTL) ReadPage(lba LBA, buf []byte, offset, size int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if int(lba) < 0 || int(lba) >= f.mapListSize() {
		return errs.ErrInvalidLBA
	}
	p := f.forwardMap[lba]
	if p == noPBA {
		return errs.ErrInvalidLBA
	}
	return f.dev.ReadPage(f.blockOf(p), f.pageOf(p), buf, offset, size)
}

// WritePage writes size bytes at offset to lba. The first write to a freshly
// allocated lba lands in place; every subsequent write is out-of-place: a
// new physical page is allocated, the old one is marked DEAD.
func (f *FTL) WritePage(lba LBA, buf []byte, offset, size int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if int(lba) < 0 || int(lba) >= f.mapListSize() {
		return errs.ErrInvalidLBA
	}
	p := f.forwardMap[lba]
	if p == noPBA {
		return errs.ErrInvalidLBA
	}

	switch f.pageState[p] {
	case PageAllocated:
		if err := f.dev.WritePage(f.blockOf(p), f.pageOf(p), buf, offset, size); err != nil {
			return err
		}
		f.pageState[p] = PageLive
		f.liveCount[f.blockOf(p)]++
		return nil

	case PageLive:
		newP, err := f.allocNewPage()
		if err != nil {
			return err
		}
		// allocNewPage may have run a reclaim that relocated lba's page.
		p = f.forwardMap[lba]
		if err := f.dev.WritePage(f.blockOf(newP), f.pageOf(newP), buf, offset, size); err != nil {
			// newP was never marked ALLOCATED, so it stays FREE and
			// unreferenced; lba keeps its old mapping.
			return err
		}
		f.pageState[newP] = PageLive
		f.liveCount[f.blockOf(newP)]++
		f.forwardMap[lba] = newP
		f.reverseMap[newP] = lba
		f.markDead(p)
		f.reverseMap[p] = unmapped
		return nil

	default:
		return errs.ErrInvalidPageState
	}
}

// Stats reports list sizes, useful for tests and for the facade's metrics.
type Stats struct {
	FreeBlocks  int
	DirtyBlocks int
	DeadBlocks  int
	Reserved    BlockID
}

func (f *FTL) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		FreeBlocks:  len(f.freeList),
		DirtyBlocks: len(f.dirtyList),
		DeadBlocks:  len(f.deadList),
		Reserved:    f.reserved,
	}
}
