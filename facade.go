package flashdbsim

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ryogrid/flashdbsim/errs"
	"github.com/ryogrid/flashdbsim/ftl"
	"github.com/ryogrid/flashdbsim/vfd"
)

// Facade is the single-task, single-owner handle a caller constructs once
// (spec.md §5, §9's "process-local facade-owned handle instead of global
// singleton FTL" redesign flag — there is no package-level FTL instance
// anywhere in this module).
type Facade struct {
	dev     vfd.Device
	ftl     *ftl.FTL
	metrics *vfd.Metrics
	logger  zerolog.Logger
}

// New selects vfdVariant and ftlAlgo, initializes the device with geo, and
// binds an FTL instance on top of it. An unknown selector is
// errs.ErrWrongModuleId; a failing underlying Init is wrapped as
// errs.ErrModuleInitFailed.
func New(vfdVariant vfd.Variant, ftlAlgo ftl.Algorithm, geo vfd.Config, ftlCfg ftl.Config, logger zerolog.Logger) (*Facade, error) {
	if ftlAlgo != ftl.FTL01 {
		return nil, errs.ErrWrongModuleId
	}
	dev, err := vfd.New(vfdVariant)
	if err != nil {
		return nil, err
	}
	if err := dev.Init(geo); err != nil {
		return nil, fmt.Errorf("%w: vfd init: %v", errs.ErrModuleInitFailed, err)
	}

	f := &ftl.FTL{}
	if err := f.Init(dev, ftlCfg); err != nil {
		dev.Release()
		return nil, fmt.Errorf("%w: ftl init: %v", errs.ErrModuleInitFailed, err)
	}

	facade := &Facade{
		dev:     dev,
		ftl:     f,
		metrics: vfd.NewMetrics(fmt.Sprintf("nand%02d", vfdVariant), dev),
		logger:  logger,
	}
	facade.logger.Info().
		Int("block_count", geo.BlockCount).
		Int("pages_per_block", geo.PagesPerBlock).
		Msg("flashdbsim: facade initialized")
	return facade, nil
}

// Release tears down the FTL mapping and the underlying device, in that
// order (mirrors the teacher's NewBufMgr/Close construct-then-own-teardown
// pattern).
func (f *Facade) Release() {
	f.ftl.Release()
	f.dev.Release()
	f.logger.Info().Msg("flashdbsim: facade released")
}

// AllocPage allocates up to n fresh logical addresses.
func (f *Facade) AllocPage(n int) ([]LBA, error) {
	return f.ftl.AllocPage(n)
}

// ReleasePage invalidates lba's mapping.
func (f *Facade) ReleasePage(lba LBA) error {
	return f.ftl.ReleasePage(lba)
}

// ReadPage reads size bytes at offset from lba.
func (f *Facade) ReadPage(lba LBA, buf []byte, offset, size int) error {
	return f.ftl.ReadPage(lba, buf, offset, size)
}

// WritePage writes size bytes at offset to lba.
func (f *Facade) WritePage(lba LBA, buf []byte, offset, size int) error {
	return f.ftl.WritePage(lba, buf, offset, size)
}

// Reclaim runs one garbage-collection/wear-leveling pass immediately.
func (f *Facade) Reclaim() error {
	return f.ftl.Reclaim()
}

// Stats reports current free/dirty/dead block counts.
func (f *Facade) Stats() ftl.Stats {
	return f.ftl.Stats()
}

// Geometry returns the device's fixed shape.
func (f *Facade) Geometry() vfd.Config {
	return f.dev.Geometry()
}

// Metrics returns the Prometheus collector set for this facade's device.
func (f *Facade) Metrics() *vfd.Metrics {
	return f.metrics
}

// GetFTL returns the facade's bound FTL instance (spec.md §6's
// get_ftl external operation).
func (f *Facade) GetFTL() *ftl.FTL {
	return f.ftl
}

// GetVFD returns the facade's bound device (spec.md §6's get_vfd external
// operation).
func (f *Facade) GetVFD() vfd.Device {
	return f.dev
}
