package vfd

import (
	"fmt"
	"sync"

	"github.com/ryogrid/flashdbsim/errs"
)

// NandDevice01 is the baseline variant: structural read/program/erase with
// per-page and per-block counters, no payload image, no latency accounting.
type NandDevice01 struct {
	mu  sync.Mutex
	cfg Config

	readCount  []int // flattened [block*pagesPerBlock+page]
	writeCount []int
	eraseCount []int
}

var _ Device = (*NandDevice01)(nil)
var _ CounterCapability = (*NandDevice01)(nil)

func (d *NandDevice01) Init(cfg Config) error {
	d.Release()
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.cfg = cfg
	n := cfg.BlockCount * cfg.PagesPerBlock
	d.readCount = make([]int, n)
	d.writeCount = make([]int, n)
	d.eraseCount = make([]int, cfg.BlockCount)
	return nil
}

func (d *NandDevice01) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readCount = nil
	d.writeCount = nil
	d.eraseCount = nil
	d.cfg = Config{}
}

func (d *NandDevice01) Geometry() Config {
	return d.cfg
}

func (d *NandDevice01) checkBlock(b BlockID) error {
	if int(b) < 0 || int(b) >= d.cfg.BlockCount {
		return fmt.Errorf("%w: block %d out of range", errs.ErrInvalidLBA, b)
	}
	return nil
}

func (d *NandDevice01) checkPage(b BlockID, p PageID) error {
	if err := d.checkBlock(b); err != nil {
		return err
	}
	if int(p) < 0 || int(p) >= d.cfg.PagesPerBlock {
		return fmt.Errorf("%w: page %d out of range", errs.ErrInvalidLBA, p)
	}
	return nil
}

func (d *NandDevice01) checkBounds(offset, size int) error {
	if offset < 0 || size < 0 || offset+size > d.cfg.PageBytes {
		return fmt.Errorf("%w: offset=%d size=%d page_bytes=%d", errs.ErrIoOverflow, offset, size, d.cfg.PageBytes)
	}
	return nil
}

// EraseBlock rejects a broken block (erase_count already at the limit)
// without incrementing the counter — a rejected erase makes no progress.
func (d *NandDevice01) EraseBlock(b BlockID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkBlock(b); err != nil {
		return err
	}
	if d.eraseCount[b] >= d.cfg.EraseLimit {
		return errs.ErrBlockBroken
	}
	d.eraseCount[b]++
	return nil
}

func (d *NandDevice01) ReadPage(b BlockID, p PageID, buf []byte, offset, size int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkPage(b, p); err != nil {
		return err
	}
	if err := d.checkBounds(offset, size); err != nil {
		return err
	}
	if d.eraseCount[b] >= d.cfg.EraseLimit {
		return errs.ErrBlockBroken
	}
	d.readCount[pageIndex(d.cfg, b, p)]++
	return nil
}

func (d *NandDevice01) WritePage(b BlockID, p PageID, buf []byte, offset, size int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkPage(b, p); err != nil {
		return err
	}
	if err := d.checkBounds(offset, size); err != nil {
		return err
	}
	if d.eraseCount[b] >= d.cfg.EraseLimit {
		return errs.ErrBlockBroken
	}
	d.writeCount[pageIndex(d.cfg, b, p)]++
	return nil
}

func (d *NandDevice01) ReadCount(b BlockID, p PageID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readCount[pageIndex(d.cfg, b, p)]
}

func (d *NandDevice01) WriteCount(b BlockID, p PageID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeCount[pageIndex(d.cfg, b, p)]
}

func (d *NandDevice01) EraseCount(b BlockID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eraseCount[b]
}

func (d *NandDevice01) ReadCountTotal() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, c := range d.readCount {
		total += c
	}
	return total
}

func (d *NandDevice01) WriteCountTotal() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, c := range d.writeCount {
		total += c
	}
	return total
}

func (d *NandDevice01) EraseCountTotal() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, c := range d.eraseCount {
		total += c
	}
	return total
}

func (d *NandDevice01) ResetReadCount() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.readCount {
		d.readCount[i] = 0
	}
}

func (d *NandDevice01) ResetWriteCount() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.writeCount {
		d.writeCount[i] = 0
	}
}

func (d *NandDevice01) ResetEraseCount() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.eraseCount {
		d.eraseCount[i] = 0
	}
}

func (d *NandDevice01) ResetCounter() {
	d.ResetReadCount()
	d.ResetWriteCount()
	d.ResetEraseCount()
}
