package vfd

import (
	"sync"

	"github.com/dsnet/golib/memfile"
)

// NandDevice03 adds an in-memory byte image on top of NandDevice02's
// counters and latency: erase fills a block with 0xFF, program ANDs the
// incoming bytes into the existing page content (true NAND semantics — a
// program can only flip bits 1->0; only erase can flip 0->1).
type NandDevice03 struct {
	NandDevice02

	imgMu sync.Mutex
	raw   []byte
	img   *memfile.File
}

var _ Device = (*NandDevice03)(nil)

func (d *NandDevice03) Init(cfg Config) error {
	if err := d.NandDevice02.Init(cfg); err != nil {
		return err
	}
	d.imgMu.Lock()
	defer d.imgMu.Unlock()
	total := cfg.BlockCount * cfg.PagesPerBlock * cfg.PageBytes
	d.raw = make([]byte, total)
	for i := range d.raw {
		d.raw[i] = 0xFF
	}
	d.img = memfile.New(d.raw)
	return nil
}

func (d *NandDevice03) Release() {
	d.NandDevice02.Release()
	d.imgMu.Lock()
	d.raw = nil
	d.img = nil
	d.imgMu.Unlock()
}

func (d *NandDevice03) blockOffset(b BlockID) (int64, int) {
	n := d.cfg.PagesPerBlock * d.cfg.PageBytes
	return int64(int(b) * n), n
}

func (d *NandDevice03) pageOffset(b BlockID, p PageID, offset int) int64 {
	return int64(pageIndex(d.cfg, b, p)*d.cfg.PageBytes + offset)
}

func (d *NandDevice03) EraseBlock(b BlockID) error {
	if err := d.NandDevice02.EraseBlock(b); err != nil {
		return err
	}
	d.imgMu.Lock()
	defer d.imgMu.Unlock()
	off, n := d.blockOffset(b)
	fill := make([]byte, n)
	for i := range fill {
		fill[i] = 0xFF
	}
	_, err := d.img.WriteAt(fill, off)
	return err
}

func (d *NandDevice03) ReadPage(b BlockID, p PageID, buf []byte, offset, size int) error {
	if err := d.NandDevice02.ReadPage(b, p, buf, offset, size); err != nil {
		return err
	}
	if size == 0 {
		return nil
	}
	d.imgMu.Lock()
	defer d.imgMu.Unlock()
	_, err := d.img.ReadAt(buf[:size], d.pageOffset(b, p, offset))
	return err
}

func (d *NandDevice03) WritePage(b BlockID, p PageID, buf []byte, offset, size int) error {
	if err := d.NandDevice02.WritePage(b, p, buf, offset, size); err != nil {
		return err
	}
	if size == 0 {
		return nil
	}
	d.imgMu.Lock()
	defer d.imgMu.Unlock()
	off := d.pageOffset(b, p, offset)
	existing := make([]byte, size)
	if _, err := d.img.ReadAt(existing, off); err != nil {
		return err
	}
	for i := 0; i < size; i++ {
		existing[i] &= buf[i]
	}
	_, err := d.img.WriteAt(existing, off)
	return err
}
