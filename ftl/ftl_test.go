package ftl

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ryogrid/flashdbsim/errs"
	"github.com/ryogrid/flashdbsim/vfd"
)

func newTestFTL(t *testing.T, blockCount, pagesPerBlock, pageBytes, eraseLimit, threshold int) (*FTL, vfd.Device) {
	t.Helper()
	dev, err := vfd.New(vfd.NAND03)
	if err != nil {
		t.Fatalf("vfd.New: %v", err)
	}
	cfg := vfd.Config{
		BlockCount:    blockCount,
		PagesPerBlock: pagesPerBlock,
		PageBytes:     pageBytes,
		EraseLimit:    eraseLimit,
	}
	if err := dev.Init(cfg); err != nil {
		t.Fatalf("dev.Init: %v", err)
	}
	f := &FTL{}
	if err := f.Init(dev, Config{WearLevelThreshold: threshold}); err != nil {
		t.Fatalf("FTL.Init: %v", err)
	}
	return f, dev
}

func TestAllocWriteReadRoundTrip(t *testing.T) {
	f, _ := newTestFTL(t, 3, 4, 16, 100, 4)

	lbas, err := f.AllocPage(2)
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	if len(lbas) != 2 {
		t.Fatalf("AllocPage returned %d addresses, want 2", len(lbas))
	}

	want := bytes.Repeat([]byte{0xAB}, 16)
	if err := f.WritePage(lbas[0], want, 0, 16); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	got := make([]byte, 16)
	if err := f.ReadPage(lbas[0], got, 0, 16); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("ReadPage = %x, want %x", got, want)
	}
}

func TestReadBeforeWriteSucceeds(t *testing.T) {
	f, _ := newTestFTL(t, 3, 4, 16, 100, 4)
	lbas, err := f.AllocPage(1)
	if err != nil || len(lbas) != 1 {
		t.Fatalf("AllocPage: %v, %v", lbas, err)
	}
	buf := make([]byte, 16)
	if err := f.ReadPage(lbas[0], buf, 0, 16); err != nil {
		t.Fatalf("ReadPage before write = %v, want nil (ALLOCATED pages are readable)", err)
	}
}

func TestOverwriteIsOutOfPlace(t *testing.T) {
	f, _ := newTestFTL(t, 3, 4, 16, 100, 4)
	lbas, _ := f.AllocPage(1)
	lba := lbas[0]

	v1 := bytes.Repeat([]byte{0x11}, 16)
	if err := f.WritePage(lba, v1, 0, 16); err != nil {
		t.Fatalf("first write: %v", err)
	}
	firstPBA := f.forwardMap[lba]

	v2 := bytes.Repeat([]byte{0x22}, 16)
	if err := f.WritePage(lba, v2, 0, 16); err != nil {
		t.Fatalf("second write: %v", err)
	}
	secondPBA := f.forwardMap[lba]

	if firstPBA == secondPBA {
		t.Fatal("overwrite reused the same physical page; want out-of-place relocation")
	}
	if f.pageState[firstPBA] != PageDead {
		t.Fatalf("old physical page state = %v, want PageDead", f.pageState[firstPBA])
	}

	got := make([]byte, 16)
	if err := f.ReadPage(lba, got, 0, 16); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.Equal(got, v2) {
		t.Fatalf("ReadPage = %x, want %x", got, v2)
	}
}

func TestReclaimViaDeadList(t *testing.T) {
	// pagesPerBlock=1 so a single release makes the block fully dead.
	f, _ := newTestFTL(t, 3, 1, 16, 100, 4)

	lbas, err := f.AllocPage(2)
	if err != nil || len(lbas) != 2 {
		t.Fatalf("AllocPage: %v, %v", lbas, err)
	}
	for _, lba := range lbas {
		if err := f.WritePage(lba, bytes.Repeat([]byte{0x55}, 16), 0, 16); err != nil {
			t.Fatalf("WritePage: %v", err)
		}
	}
	// Both non-reserved blocks are now fully used (dirty_list, 1 page each).
	if got := f.Stats().FreeBlocks; got != 0 {
		t.Fatalf("FreeBlocks = %d, want 0", got)
	}

	if err := f.ReleasePage(lbas[0]); err != nil {
		t.Fatalf("ReleasePage: %v", err)
	}
	if got := f.Stats().DeadBlocks; got != 1 {
		t.Fatalf("DeadBlocks = %d, want 1 (block should be fully dead with 1 page)", got)
	}

	if err := f.Reclaim(); err != nil {
		t.Fatalf("Reclaim: %v", err)
	}
	if got := f.Stats().FreeBlocks; got != 1 {
		t.Fatalf("FreeBlocks after reclaim = %d, want 1", got)
	}
	if got := f.Stats().DeadBlocks; got != 0 {
		t.Fatalf("DeadBlocks after reclaim = %d, want 0", got)
	}
}

func TestWearLevelSwapRelocatesBothBlocks(t *testing.T) {
	f, dev := newTestFTL(t, 3, 2, 16, 100, 2)

	// Pre-age block 0 so it carries a much higher erase count than block 1,
	// while both are still virgin from the FTL's point of view.
	for i := 0; i < 3; i++ {
		if err := dev.EraseBlock(vfd.BlockID(0)); err != nil {
			t.Fatalf("EraseBlock: %v", err)
		}
	}

	lbas, err := f.AllocPage(3)
	if err != nil || len(lbas) != 3 {
		t.Fatalf("AllocPage: %v, %v", lbas, err)
	}
	for i, lba := range lbas {
		data := bytes.Repeat([]byte{byte(0x30 + i)}, 16)
		if err := f.WritePage(lba, data, 0, 16); err != nil {
			t.Fatalf("WritePage(%d): %v", i, err)
		}
	}

	// lbas[0],[1] land in block 0 (erase count 3, no garbage); lbas[2]
	// lands in block 1 (erase count 0, no garbage). Neither block has
	// anything for plain GC to collect; only the erase-count skew between
	// them can justify reclaiming either one.
	if f.blockOf(f.forwardMap[lbas[0]]) != 0 || f.blockOf(f.forwardMap[lbas[1]]) != 0 {
		t.Fatalf("setup: lbas[0],[1] expected in block 0")
	}
	if f.blockOf(f.forwardMap[lbas[2]]) != 1 {
		t.Fatalf("setup: lbas[2] expected in block 1")
	}

	if err := f.Reclaim(); err != nil {
		t.Fatalf("Reclaim: %v", err)
	}

	// A true wear-leveling swap erases block 1 even though it held no
	// garbage at all; plain GC would never touch it.
	if got := f.counters.EraseCount(1); got != 1 {
		t.Fatalf("block 1 erase count = %d, want 1 (relocated by wear leveling)", got)
	}
	if got := f.counters.EraseCount(0); got != 4 {
		t.Fatalf("block 0 erase count = %d, want 4 (3 pre-aged + 1 from the swap)", got)
	}

	for i, lba := range lbas {
		got := make([]byte, 16)
		if err := f.ReadPage(lba, got, 0, 16); err != nil {
			t.Fatalf("ReadPage(%d) after wear-level swap: %v", i, err)
		}
		want := bytes.Repeat([]byte{byte(0x30 + i)}, 16)
		if !bytes.Equal(got, want) {
			t.Fatalf("ReadPage(%d) = %x, want %x", i, got, want)
		}
	}
}

func TestReclaimWithNoGarbageAndNoSkewIsNotDirty(t *testing.T) {
	f, _ := newTestFTL(t, 3, 2, 16, 100, 4)

	lbas, err := f.AllocPage(1)
	if err != nil || len(lbas) != 1 {
		t.Fatalf("AllocPage: %v, %v", lbas, err)
	}
	if err := f.WritePage(lbas[0], bytes.Repeat([]byte{0x7}, 16), 0, 16); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	if err := f.Reclaim(); !errors.Is(err, errs.ErrNotDirty) {
		t.Fatalf("Reclaim = %v, want ErrNotDirty", err)
	}
}

func TestAllocPagePartialWhenExhausted(t *testing.T) {
	f, _ := newTestFTL(t, 2, 1, 16, 100, 4)
	// mapListSize = (blockCount-1)*pagesPerBlock = 1
	lbas, err := f.AllocPage(5)
	if err != nil {
		t.Fatalf("AllocPage returned an error instead of a partial count: %v", err)
	}
	if len(lbas) != 1 {
		t.Fatalf("AllocPage returned %d, want 1 (partial, not an error)", len(lbas))
	}
}

func TestInvalidLBA(t *testing.T) {
	f, _ := newTestFTL(t, 3, 4, 16, 100, 4)
	buf := make([]byte, 16)
	if err := f.ReadPage(LBA(999), buf, 0, 16); !errors.Is(err, errs.ErrInvalidLBA) {
		t.Fatalf("ReadPage(out-of-range) = %v, want ErrInvalidLBA", err)
	}
	if err := f.WritePage(LBA(-1), buf, 0, 16); !errors.Is(err, errs.ErrInvalidLBA) {
		t.Fatalf("WritePage(negative) = %v, want ErrInvalidLBA", err)
	}
}
