// Package flashdbsim is the root facade (spec.md C3): it wires a selected
// VFD variant together with the FTL01 translation layer and exposes the
// plain alloc/release/read/write surface a caller needs, plus an adapter
// that lets the eFIND write buffer use this stack as its page store.
package flashdbsim

import (
	"github.com/ryogrid/flashdbsim/ftl"
	"github.com/ryogrid/flashdbsim/vfd"
)

// LBA is the logical page address handed out by AllocPage.
type LBA = ftl.LBA

// Geometry is the flash device's fixed shape.
type Geometry = vfd.Config
