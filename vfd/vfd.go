// Package vfd implements the Virtual Flash Device layer (spec.md C1):
// page-granular read/program and block-granular erase, with erase-limit
// wear-out and optional counter/latency accounting, across four variants of
// progressive capability (NAND01..NAND04).
package vfd

import (
	"fmt"

	"github.com/ryogrid/flashdbsim/errs"
)

type BlockID int32
type PageID int32

// Config is the flash geometry, fixed at Init (spec.md §3 "Flash geometry").
type Config struct {
	BlockCount     int `yaml:"block_count"`
	PagesPerBlock  int `yaml:"pages_per_block"`
	PageBytes      int `yaml:"page_bytes"`
	EraseLimit     int `yaml:"erase_limit"`
	ReadRandomTime int `yaml:"read_random_time"`
	ReadSerialTime int `yaml:"read_serial_time"`
	ProgramTime    int `yaml:"program_time"`
	EraseTime      int `yaml:"erase_time"`

	// Path is only consulted by NAND04 (file-backed image).
	Path string `yaml:"path"`
}

func (c Config) Validate() error {
	if c.BlockCount < 2 {
		return fmt.Errorf("%w: block_count must be >= 2", errs.ErrModuleInitFailed)
	}
	if c.PagesPerBlock < 1 {
		return fmt.Errorf("%w: pages_per_block must be >= 1", errs.ErrModuleInitFailed)
	}
	if c.PageBytes <= 0 {
		return fmt.Errorf("%w: page_bytes must be > 0", errs.ErrModuleInitFailed)
	}
	if c.EraseLimit < 1 {
		return fmt.Errorf("%w: erase_limit must be >= 1", errs.ErrModuleInitFailed)
	}
	return nil
}

// Variant selects one of the four NAND device implementations.
type Variant uint8

const (
	NAND01 Variant = iota + 1 // counters only
	NAND02                    // + latency
	NAND03                    // + in-memory image
	NAND04                    // + file-backed image
)

// Device is the public contract of every VFD variant (spec.md §4.1).
type Device interface {
	Init(cfg Config) error
	Release()
	EraseBlock(b BlockID) error
	ReadPage(b BlockID, p PageID, buf []byte, offset, size int) error
	WritePage(b BlockID, p PageID, buf []byte, offset, size int) error
	Geometry() Config
}

// CounterCapability is advertised by every variant (D1..D4).
type CounterCapability interface {
	ReadCount(b BlockID, p PageID) int
	WriteCount(b BlockID, p PageID) int
	EraseCount(b BlockID) int

	ReadCountTotal() int
	WriteCountTotal() int
	EraseCountTotal() int

	ResetReadCount()
	ResetWriteCount()
	ResetEraseCount()
	ResetCounter()
}

// LatencyCapability is advertised by D2, D3, D4 (not D1).
type LatencyCapability interface {
	ReadLatencyTotal() int64
	WriteLatencyTotal() int64
	EraseLatencyTotal() int64

	ResetReadLatencyTotal()
	ResetWriteLatencyTotal()
	ResetEraseLatencyTotal()
	ResetLatencyTotal()
}

// Capability is the identity-coded capability query of spec.md §6.
type Capability int

const (
	CapCounter Capability = iota
	CapLatency
)

// QueryCapability mirrors the original's QueryInterface: an unknown or
// unsupported capability returns ErrUnsupportedInterface rather than a nil
// interface, so callers never need a second nil check.
func QueryCapability(d Device, cap Capability) (interface{}, error) {
	switch cap {
	case CapCounter:
		if c, ok := d.(CounterCapability); ok {
			return c, nil
		}
	case CapLatency:
		if c, ok := d.(LatencyCapability); ok {
			return c, nil
		}
	}
	return nil, errs.ErrUnsupportedInterface
}

// New constructs the requested variant, uninitialized (caller must still
// call Init).
func New(v Variant) (Device, error) {
	switch v {
	case NAND01:
		return &NandDevice01{}, nil
	case NAND02:
		return &NandDevice02{}, nil
	case NAND03:
		return &NandDevice03{}, nil
	case NAND04:
		return &NandDevice04{}, nil
	default:
		return nil, errs.ErrWrongModuleId
	}
}

func pageIndex(cfg Config, b BlockID, p PageID) int {
	return int(b)*cfg.PagesPerBlock + int(p)
}
