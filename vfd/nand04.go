package vfd

import (
	"os"
	"sync"

	"github.com/ncw/directio"

	"github.com/ryogrid/flashdbsim/errs"
)

// NandDevice04 adds a file-backed byte image, using unbuffered aligned I/O
// (github.com/ncw/directio) so every program/erase actually leaves the page
// cache, flushed (Sync) after Init and after every program/erase per spec.md §6. It shares
// NandDevice03's AND-program / 0xFF-erase semantics rather than the
// overwrite semantics spec.md §9 flags as a likely bug in the original.
//
// Direct I/O requires block-aligned offsets and buffer sizes; callers must
// configure page_bytes as a multiple of directio.AlignSize for this variant.
type NandDevice04 struct {
	NandDevice02

	fileMu sync.Mutex
	f      *os.File
}

var _ Device = (*NandDevice04)(nil)

func (d *NandDevice04) Init(cfg Config) error {
	d.Release()
	if err := d.NandDevice02.Init(cfg); err != nil {
		return err
	}
	if cfg.Path == "" {
		return errs.ErrModuleInitFailed
	}
	f, err := directio.OpenFile(cfg.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	d.fileMu.Lock()
	d.f = f
	d.fileMu.Unlock()

	blank := directio.AlignedBlock(cfg.PageBytes)
	for i := range blank {
		blank[i] = 0xFF
	}
	for bi := 0; bi < cfg.BlockCount; bi++ {
		for pi := 0; pi < cfg.PagesPerBlock; pi++ {
			off := int64(pageIndex(cfg, BlockID(bi), PageID(pi))) * int64(cfg.PageBytes)
			if _, err := d.f.WriteAt(blank, off); err != nil {
				return err
			}
		}
	}
	return d.f.Sync()
}

func (d *NandDevice04) Release() {
	d.NandDevice02.Release()
	d.fileMu.Lock()
	defer d.fileMu.Unlock()
	if d.f != nil {
		d.f.Close()
		d.f = nil
	}
}

func (d *NandDevice04) pageOffset(b BlockID, p PageID) int64 {
	return int64(pageIndex(d.cfg, b, p)) * int64(d.cfg.PageBytes)
}

func (d *NandDevice04) EraseBlock(b BlockID) error {
	if err := d.NandDevice02.EraseBlock(b); err != nil {
		return err
	}
	d.fileMu.Lock()
	defer d.fileMu.Unlock()
	blank := directio.AlignedBlock(d.cfg.PageBytes)
	for i := range blank {
		blank[i] = 0xFF
	}
	for pi := 0; pi < d.cfg.PagesPerBlock; pi++ {
		off := d.pageOffset(b, PageID(pi))
		if _, err := d.f.WriteAt(blank, off); err != nil {
			return err
		}
	}
	return d.f.Sync()
}

func (d *NandDevice04) ReadPage(b BlockID, p PageID, buf []byte, offset, size int) error {
	if err := d.NandDevice02.ReadPage(b, p, buf, offset, size); err != nil {
		return err
	}
	if size == 0 {
		return nil
	}
	d.fileMu.Lock()
	defer d.fileMu.Unlock()
	page := directio.AlignedBlock(d.cfg.PageBytes)
	if _, err := d.f.ReadAt(page, d.pageOffset(b, p)); err != nil {
		return err
	}
	copy(buf[:size], page[offset:offset+size])
	return nil
}

func (d *NandDevice04) WritePage(b BlockID, p PageID, buf []byte, offset, size int) error {
	if err := d.NandDevice02.WritePage(b, p, buf, offset, size); err != nil {
		return err
	}
	if size == 0 {
		return nil
	}
	d.fileMu.Lock()
	defer d.fileMu.Unlock()
	off := d.pageOffset(b, p)
	page := directio.AlignedBlock(d.cfg.PageBytes)
	if _, err := d.f.ReadAt(page, off); err != nil {
		return err
	}
	for i := 0; i < size; i++ {
		page[offset+i] &= buf[i]
	}
	if _, err := d.f.WriteAt(page, off); err != nil {
		return err
	}
	return d.f.Sync()
}
