// Package elf reads the layout of ELF object files: identification,
// file header, program and section headers, named sections with lazily
// loaded contents, and symbol tables.
//
// Decoding is strict. Any structural or validation failure aborts the
// parse and no partial result is returned.
package elf

import (
	"debug/elf"
	"fmt"
	"io"
	"sort"
)

// File is the result of parsing one ELF file.
type File struct {
	Ident          *Ident
	Info           *Info
	Header         *Header
	Progs          []ProgHeader
	SectionHeaders []SectionHeader
	Sections       *Sections
	Symbols        *SymbolTable

	// LinkedFunctions are the names of defined global or weak function
	// symbols from dynamic symbol tables, sorted.
	LinkedFunctions []string

	closer io.Closer
}

// Parse decodes the ELF file behind src. src must not be shared with
// another parse while the File is in use, since section contents are
// loaded from it on demand.
func Parse(src ByteSource) (*File, error) {
	ident, info, err := readIdent(src)
	if err != nil {
		return nil, err
	}
	h, err := readHeader(src, info)
	if err != nil {
		return nil, err
	}
	progs, err := readProgHeaders(src, info, h)
	if err != nil {
		return nil, err
	}
	shdrs, err := readSectionHeaders(src, info, h)
	if err != nil {
		return nil, err
	}
	secs, err := newSections(src, info, h, shdrs)
	if err != nil {
		return nil, err
	}
	symtab, err := readSymbols(info, shdrs, secs)
	if err != nil {
		return nil, err
	}

	return &File{
		Ident:           ident,
		Info:            info,
		Header:          h,
		Progs:           progs,
		SectionHeaders:  shdrs,
		Sections:        secs,
		Symbols:         symtab,
		LinkedFunctions: linkedFunctions(symtab),
	}, nil
}

func linkedFunctions(t *SymbolTable) []string {
	var names []string
	for _, s := range t.Symbols {
		if !s.Defined() || s.Type() != elf.STT_FUNC || !s.Dynamic() {
			continue
		}
		if b := s.Bind(); b != elf.STB_GLOBAL && b != elf.STB_WEAK {
			continue
		}
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// Load returns the contents of the section named name.
func (f *File) Load(name string) ([]byte, error) {
	sec, ok := f.Sections.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("elf: no section named %q", name)
	}
	return f.Sections.Load(sec)
}

// Close releases the byte source if the File opened it.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	err := f.closer.Close()
	f.closer = nil
	return err
}
