package elf

import (
	"bytes"
	"debug/elf"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Symbol is one symbol table entry. Name is empty when NameOff is zero.
type Symbol struct {
	Name    string
	NameOff uint32
	Info    uint8
	Other   uint8
	Shndx   elf.SectionIndex
	Value   uint64
	Size    uint64

	Loc Provenance
	// Section is the symbol table the entry was read from.
	Section *Section
}

func (s *Symbol) Bind() elf.SymBind { return elf.ST_BIND(s.Info) }
func (s *Symbol) Type() elf.SymType { return elf.ST_TYPE(s.Info) }

// Anonymous reports whether the entry has no name.
func (s *Symbol) Anonymous() bool { return s.NameOff == 0 }

// Defined reports whether the symbol refers to a section of this file.
func (s *Symbol) Defined() bool { return s.Shndx != elf.SHN_UNDEF }

// Dynamic reports whether the entry came from a dynamic symbol table.
func (s *Symbol) Dynamic() bool {
	return s.Section != nil && s.Section.Header.Type == elf.SHT_DYNSYM
}

// SymbolTable holds the entries of every symbol table in the file, in
// section header order and file order within each section.
//
// The name index keeps every entry that carries a name. A name seen
// again does not replace the earlier entry; both are kept in discovery
// order.
type SymbolTable struct {
	Symbols []*Symbol
	byName  map[string][]*Symbol
}

func newSymbolTable(syms []*Symbol) *SymbolTable {
	t := &SymbolTable{
		Symbols: syms,
		byName:  make(map[string][]*Symbol, len(syms)),
	}
	for _, s := range syms {
		if s.Anonymous() {
			continue
		}
		t.byName[s.Name] = append(t.byName[s.Name], s)
	}
	return t
}

// Lookup returns every entry named name, in discovery order.
func (t *SymbolTable) Lookup(name string) []*Symbol {
	return t.byName[name]
}

// Unique returns the entry named name if exactly one exists.
func (t *SymbolTable) Unique(name string) (*Symbol, bool) {
	syms := t.byName[name]
	if len(syms) != 1 {
		return nil, false
	}
	return syms[0], true
}

// Names returns the distinct symbol names, sorted.
func (t *SymbolTable) Names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func symEntrySize(info *Info) int {
	return 4 + 1 + 1 + 2 + 2*info.WordSize
}

type symbolJob struct {
	sec    *Section
	strtab *Section
}

func readSymbols(info *Info, shdrs []SectionHeader, secs *Sections) (*SymbolTable, error) {
	var jobs []symbolJob
	for i := range shdrs {
		sh := &shdrs[i]
		if sh.Type != elf.SHT_SYMTAB && sh.Type != elf.SHT_DYNSYM {
			continue
		}
		sec := secs.ByIndex(i)
		link := int(sh.Link)
		if link >= len(shdrs) || shdrs[link].Type != elf.SHT_STRTAB {
			actual := "out of range"
			if link < len(shdrs) {
				actual = shdrs[link].Type.String()
			}
			return nil, &FormatError{Field: fmt.Sprintf("sh_link of %s", sec.Name), Offset: sh.Loc.Offset, Expected: elf.SHT_STRTAB.String(), Actual: actual, Err: ErrInvalidLink}
		}
		jobs = append(jobs, symbolJob{sec: sec, strtab: secs.ByIndex(link)})
	}

	// Each job writes only its own slot, so the merge below follows
	// section order no matter which job finishes first.
	results := make([][]*Symbol, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			syms, err := readSymbolSection(info, secs, job)
			if err != nil {
				return err
			}
			results[i] = syms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*Symbol
	for _, syms := range results {
		all = append(all, syms...)
	}
	return newSymbolTable(all), nil
}

func readSymbolSection(info *Info, secs *Sections, job symbolJob) ([]*Symbol, error) {
	strtab, err := secs.Load(job.strtab)
	if err != nil {
		return nil, err
	}
	data, err := secs.Load(job.sec)
	if err != nil {
		return nil, err
	}

	h := job.sec.Header
	size := symEntrySize(info)
	if len(data)%size != 0 {
		return nil, &FormatError{Field: fmt.Sprintf("sh_size of %s", job.sec.Name), Offset: h.Loc.Offset, Expected: fmt.Sprintf("multiple of %d", size), Actual: len(data), Err: ErrSymbolTableSize}
	}
	if len(data) == 0 {
		return nil, nil
	}
	if !bytes.Equal(data[:size], make([]byte, size)) {
		return nil, &FormatError{Field: fmt.Sprintf("%s[0]", job.sec.Name), Offset: h.Offset, Expected: "all zero", Actual: data[:size], Err: ErrCorruptNullEntry}
	}

	syms := make([]*Symbol, 0, len(data)/size-1)
	for i := 1; i*size < len(data); i++ {
		off := h.Offset + uint64(i*size)
		sym := decodeSymbol(info, data[i*size:(i+1)*size])
		sym.Loc = Provenance{Offset: off, Size: uint64(size), Index: i}
		sym.Section = job.sec
		if !sym.Anonymous() {
			name, ok := cstring(strtab, sym.NameOff)
			if !ok {
				return nil, &FormatError{Field: fmt.Sprintf("st_name of %s[%d]", job.sec.Name, i), Offset: off, Expected: fmt.Sprintf("< %d", len(strtab)), Actual: sym.NameOff, Err: ErrNameOutOfRange}
			}
			sym.Name = name
		}
		syms = append(syms, sym)
	}
	return syms, nil
}

func decodeSymbol(info *Info, buf []byte) *Symbol {
	d := newDecoder(info, buf)
	sym := &Symbol{NameOff: d.u32()}
	if info.Bit64 {
		sym.Info = d.u8()
		sym.Other = d.u8()
		sym.Shndx = elf.SectionIndex(d.u16())
		sym.Value = d.u64()
		sym.Size = d.u64()
	} else {
		sym.Value = uint64(d.u32())
		sym.Size = uint64(d.u32())
		sym.Info = d.u8()
		sym.Other = d.u8()
		sym.Shndx = elf.SectionIndex(d.u16())
	}
	d.finish("symbol")
	return sym
}

// cstring returns the NUL-terminated string at off in strtab.
func cstring(strtab []byte, off uint32) (string, bool) {
	if uint64(off) >= uint64(len(strtab)) {
		return "", false
	}
	end := bytes.IndexByte(strtab[off:], 0)
	if end < 0 {
		return "", false
	}
	return string(strtab[off : int(off)+end]), true
}
