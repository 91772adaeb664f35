package elf

import (
	"debug/elf"
	"math/bits"
)

// SectionHeader is one section header table entry. Name is still the
// offset into the section name string table.
type SectionHeader struct {
	Name      uint32
	Type      elf.SectionType
	Flags     elf.SectionFlag
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64

	Loc Provenance
}

func sectionEntrySize(info *Info) int {
	if info.Bit64 {
		return 64
	}
	return 40
}

// validAlignment reports whether a is zero or a power of two.
func validAlignment(a uint64) bool {
	return a == 0 || bits.OnesCount64(a) == 1
}

func readSectionHeaders(src ByteSource, info *Info, h *Header) ([]SectionHeader, error) {
	shdrs := make([]SectionHeader, 0, h.Shnum)
	err := readTable(src, info, "e_shentsize", h.Shoff, h.Shnum, h.Shentsize, sectionEntrySize(info), func(d *decoder, loc Provenance) error {
		sh := SectionHeader{
			Name:   d.u32(),
			Type:   elf.SectionType(d.u32()),
			Flags:  elf.SectionFlag(d.addr()),
			Addr:   d.addr(),
			Offset: d.addr(),
			Size:   d.addr(),
			Link:   d.u32(),
			Info:   d.u32(),
		}
		alignAt := loc.Offset + uint64(d.pos)
		sh.Addralign = d.addr()
		sh.Entsize = d.addr()
		sh.Loc = loc
		if !validAlignment(sh.Addralign) {
			return &FormatError{Field: "sh_addralign", Offset: alignAt, Expected: "zero or a power of two", Actual: sh.Addralign, Err: ErrInvalidAlignment}
		}
		shdrs = append(shdrs, sh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shdrs, nil
}
