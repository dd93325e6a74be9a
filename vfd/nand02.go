package vfd

import "sync"

// NandDevice02 adds latency accounting on top of NandDevice01's counters:
// read latency is random+serial*size, write latency is a flat program time,
// erase latency is a flat erase time, each accumulated only on success.
type NandDevice02 struct {
	NandDevice01

	latMu              sync.Mutex
	readLatencyTotal   int64
	writeLatencyTotal  int64
	eraseLatencyTotal  int64
}

var _ Device = (*NandDevice02)(nil)
var _ CounterCapability = (*NandDevice02)(nil)
var _ LatencyCapability = (*NandDevice02)(nil)

func (d *NandDevice02) Init(cfg Config) error {
	if err := d.NandDevice01.Init(cfg); err != nil {
		return err
	}
	d.latMu.Lock()
	d.readLatencyTotal, d.writeLatencyTotal, d.eraseLatencyTotal = 0, 0, 0
	d.latMu.Unlock()
	return nil
}

func (d *NandDevice02) Release() {
	d.NandDevice01.Release()
	d.latMu.Lock()
	d.readLatencyTotal, d.writeLatencyTotal, d.eraseLatencyTotal = 0, 0, 0
	d.latMu.Unlock()
}

func (d *NandDevice02) EraseBlock(b BlockID) error {
	if err := d.NandDevice01.EraseBlock(b); err != nil {
		return err
	}
	d.latMu.Lock()
	d.eraseLatencyTotal += int64(d.cfg.EraseTime)
	d.latMu.Unlock()
	return nil
}

func (d *NandDevice02) ReadPage(b BlockID, p PageID, buf []byte, offset, size int) error {
	if err := d.NandDevice01.ReadPage(b, p, buf, offset, size); err != nil {
		return err
	}
	d.latMu.Lock()
	d.readLatencyTotal += int64(d.cfg.ReadRandomTime) + int64(d.cfg.ReadSerialTime)*int64(size)
	d.latMu.Unlock()
	return nil
}

func (d *NandDevice02) WritePage(b BlockID, p PageID, buf []byte, offset, size int) error {
	if err := d.NandDevice01.WritePage(b, p, buf, offset, size); err != nil {
		return err
	}
	d.latMu.Lock()
	d.writeLatencyTotal += int64(d.cfg.ProgramTime)
	d.latMu.Unlock()
	return nil
}

func (d *NandDevice02) ReadLatencyTotal() int64 {
	d.latMu.Lock()
	defer d.latMu.Unlock()
	return d.readLatencyTotal
}

func (d *NandDevice02) WriteLatencyTotal() int64 {
	d.latMu.Lock()
	defer d.latMu.Unlock()
	return d.writeLatencyTotal
}

func (d *NandDevice02) EraseLatencyTotal() int64 {
	d.latMu.Lock()
	defer d.latMu.Unlock()
	return d.eraseLatencyTotal
}

func (d *NandDevice02) ResetReadLatencyTotal() {
	d.latMu.Lock()
	d.readLatencyTotal = 0
	d.latMu.Unlock()
}

func (d *NandDevice02) ResetWriteLatencyTotal() {
	d.latMu.Lock()
	d.writeLatencyTotal = 0
	d.latMu.Unlock()
}

func (d *NandDevice02) ResetEraseLatencyTotal() {
	d.latMu.Lock()
	d.eraseLatencyTotal = 0
	d.latMu.Unlock()
}

func (d *NandDevice02) ResetLatencyTotal() {
	d.ResetReadLatencyTotal()
	d.ResetWriteLatencyTotal()
	d.ResetEraseLatencyTotal()
}
