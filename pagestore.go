package flashdbsim

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ryogrid/flashdbsim/errs"
	"github.com/ryogrid/flashdbsim/writebuffer"
)

// PageStore adapts a Facade into writebuffer.PageStore (spec.md C4-C7's
// consumer side of the adapter pattern borrowed from the teacher's
// interfaces.ParentPage/ParentBufMgr — see DESIGN.md's dropped-dependency
// note on github.com/ryogrid/SamehadaDB/lib). Each logical page number gets
// its physical LBA lazily, on first write.
type PageStore struct {
	mu        sync.Mutex
	facade    *Facade
	kind      writebuffer.NodeKind
	srid      int
	pageBytes int
	lbas      map[int64]LBA
}

// NewPageStore builds a PageStore for node kind over facade's address
// space. srid is only meaningful for writebuffer.HilbertInternalKind.
func NewPageStore(facade *Facade, kind writebuffer.NodeKind, srid int) *PageStore {
	return &PageStore{
		facade:    facade,
		kind:      kind,
		srid:      srid,
		pageBytes: facade.Geometry().PageBytes,
		lbas:      make(map[int64]LBA),
	}
}

var _ writebuffer.PageStore = (*PageStore)(nil)

const lengthPrefixBytes = 4

// FetchPage returns an empty page for a pageNo that has never been written,
// and the decoded stored page otherwise.
func (s *PageStore) FetchPage(pageNo int64) (writebuffer.UIPage, error) {
	s.mu.Lock()
	lba, ok := s.lbas[pageNo]
	s.mu.Unlock()
	if !ok {
		return writebuffer.NewPage(s.kind, s.srid)
	}

	buf := make([]byte, s.pageBytes)
	if err := s.facade.ReadPage(lba, buf, 0, s.pageBytes); err != nil {
		return nil, err
	}
	length := int(binary.BigEndian.Uint32(buf[:lengthPrefixBytes]))
	if lengthPrefixBytes+length > len(buf) {
		return nil, errs.ErrIoOverflow
	}
	return writebuffer.ParsePage(s.kind, s.srid, buf[lengthPrefixBytes:lengthPrefixBytes+length])
}

// WritePage serializes page and writes it to pageNo's (lazily allocated)
// physical page as a single length-prefixed blob, sized to exactly one
// flash page. pageNo is only recorded as present (visible to a later
// FetchPage) once the underlying write actually succeeds, since reading an
// ALLOCATED-but-unwritten physical page is legal and would otherwise
// decode whatever the device's erased fill value happens to be.
func (s *PageStore) WritePage(pageNo int64, page writebuffer.UIPage) error {
	lba, err := s.lbaFor(pageNo)
	if err != nil {
		return err
	}
	data := page.GetPage()
	if lengthPrefixBytes+len(data) > s.pageBytes {
		return fmt.Errorf("%w: serialized page %d bytes exceeds page_bytes %d", errs.ErrIoOverflow, len(data), s.pageBytes)
	}
	buf := make([]byte, s.pageBytes)
	binary.BigEndian.PutUint32(buf[:lengthPrefixBytes], uint32(len(data)))
	copy(buf[lengthPrefixBytes:], data)
	if err := s.facade.WritePage(lba, buf, 0, s.pageBytes); err != nil {
		return err
	}
	s.mu.Lock()
	s.lbas[pageNo] = lba
	s.mu.Unlock()
	return nil
}

func (s *PageStore) lbaFor(pageNo int64) (LBA, error) {
	s.mu.Lock()
	if lba, ok := s.lbas[pageNo]; ok {
		s.mu.Unlock()
		return lba, nil
	}
	s.mu.Unlock()
	allocated, err := s.facade.AllocPage(1)
	if err != nil {
		return 0, err
	}
	if len(allocated) == 0 {
		return 0, errs.ErrNoMemory
	}
	return allocated[0], nil
}
