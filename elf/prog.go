package elf

import (
	"debug/elf"
)

// Provenance records where a decoded record lives in the file.
type Provenance struct {
	Offset uint64
	Size   uint64
	Index  int
}

// ProgHeader is one program header table entry.
type ProgHeader struct {
	Type   elf.ProgType
	Flags  elf.ProgFlag
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64

	Loc Provenance
}

func progEntrySize(info *Info) int {
	if info.Bit64 {
		return 56
	}
	return 32
}

// readTable decodes count records of entSize bytes starting at off. The
// cursor advances by what each record consumed, which must match the
// stride the file header declares.
func readTable(src ByteSource, info *Info, field string, off uint64, count, stride uint16, entSize int, decode func(d *decoder, loc Provenance) error) error {
	if count == 0 {
		return nil
	}
	if int(stride) != entSize {
		return &FormatError{Field: field, Expected: entSize, Actual: stride, Err: ErrInvalidEntrySize}
	}
	for i := 0; i < int(count); i++ {
		buf, err := readFull(src, off, entSize)
		if err != nil {
			return err
		}
		d := newDecoder(info, buf)
		if err := decode(d, Provenance{Offset: off, Size: uint64(entSize), Index: i}); err != nil {
			return err
		}
		d.finish(field)
		off += uint64(d.pos)
	}
	return nil
}

func readProgHeaders(src ByteSource, info *Info, h *Header) ([]ProgHeader, error) {
	progs := make([]ProgHeader, 0, h.Phnum)
	err := readTable(src, info, "e_phentsize", h.Phoff, h.Phnum, h.Phentsize, progEntrySize(info), func(d *decoder, loc Provenance) error {
		ph := ProgHeader{Loc: loc}
		ph.Type = elf.ProgType(d.u32())
		if info.Bit64 {
			ph.Flags = elf.ProgFlag(d.u32())
		}
		ph.Off = d.addr()
		ph.Vaddr = d.addr()
		ph.Paddr = d.addr()
		ph.Filesz = d.addr()
		ph.Memsz = d.addr()
		if !info.Bit64 {
			ph.Flags = elf.ProgFlag(d.u32())
		}
		ph.Align = d.addr()
		progs = append(progs, ph)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return progs, nil
}
