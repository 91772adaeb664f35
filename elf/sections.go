package elf

import (
	"bytes"
	"debug/elf"
	"fmt"
	"sync"
)

// Section is a named section whose contents are read on first Load.
type Section struct {
	Name   string
	Header *SectionHeader

	mu     sync.Mutex
	data   []byte
	loaded bool
}

// Sections owns every named section of one file. Null sections occupy
// an index but have no Section.
type Sections struct {
	src     ByteSource
	info    *Info
	byName  map[string]*Section
	byIndex []*Section
	order   []*Section
}

func newSections(src ByteSource, info *Info, h *Header, shdrs []SectionHeader) (*Sections, error) {
	s := &Sections{
		src:     src,
		info:    info,
		byName:  make(map[string]*Section, len(shdrs)),
		byIndex: make([]*Section, len(shdrs)),
	}

	strHdr := &shdrs[h.Shstrndx]
	if err := span("section name table", strHdr.Offset, strHdr.Size, info.FileSize); err != nil {
		return nil, err
	}
	strtab, err := readFull(src, strHdr.Offset, int(strHdr.Size))
	if err != nil {
		return nil, err
	}

	for i := range shdrs {
		sh := &shdrs[i]
		if sh.Type == elf.SHT_NULL {
			continue
		}
		name, err := sectionName(strtab, sh)
		if err != nil {
			return nil, err
		}
		if prev, ok := s.byName[name]; ok {
			return nil, &FormatError{Field: "sh_name", Offset: sh.Loc.Offset, Expected: fmt.Sprintf("unique name, %q is section %d", name, prev.Header.Loc.Index), Actual: name, Err: ErrDuplicateSection}
		}
		sec := &Section{Name: name, Header: sh}
		if i == int(h.Shstrndx) {
			sec.data = strtab
			sec.loaded = true
		}
		s.byName[name] = sec
		s.byIndex[i] = sec
		s.order = append(s.order, sec)
	}
	return s, nil
}

func sectionName(strtab []byte, sh *SectionHeader) (string, error) {
	off := uint64(sh.Name)
	if off >= uint64(len(strtab)) {
		return "", &FormatError{Field: "sh_name", Offset: sh.Loc.Offset, Expected: fmt.Sprintf("< %d", len(strtab)), Actual: sh.Name, Err: fmt.Errorf("%w: %w", ErrInvalidName, ErrNameOutOfRange)}
	}
	end := bytes.IndexByte(strtab[off:], 0)
	if end < 0 {
		return "", &FormatError{Field: "sh_name", Offset: sh.Loc.Offset, Actual: "unterminated string", Err: ErrInvalidName}
	}
	return string(strtab[off : off+uint64(end)]), nil
}

// Load returns the contents of sec, reading them on the first call.
// Later calls return the same buffer.
func (s *Sections) Load(sec *Section) ([]byte, error) {
	sec.mu.Lock()
	defer sec.mu.Unlock()
	if sec.loaded {
		return sec.data, nil
	}
	h := sec.Header
	if h.Type == elf.SHT_NOBITS {
		sec.data = []byte{}
		sec.loaded = true
		return sec.data, nil
	}
	if err := span(fmt.Sprintf("section %s", sec.Name), h.Offset, h.Size, s.info.FileSize); err != nil {
		return nil, err
	}
	data, err := readFull(s.src, h.Offset, int(h.Size))
	if err != nil {
		return nil, err
	}
	sec.data = data
	sec.loaded = true
	return data, nil
}

// Lookup returns the section named name.
func (s *Sections) Lookup(name string) (*Section, bool) {
	sec, ok := s.byName[name]
	return sec, ok
}

// ByIndex returns the section at header index i, or nil for null and
// out-of-range indexes.
func (s *Sections) ByIndex(i int) *Section {
	if i < 0 || i >= len(s.byIndex) {
		return nil
	}
	return s.byIndex[i]
}

// All returns the named sections in header order.
func (s *Sections) All() []*Section {
	return s.order
}

func (s *Sections) Len() int {
	return len(s.order)
}
