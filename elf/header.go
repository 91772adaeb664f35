package elf

import (
	"debug/elf"
	"fmt"
)

// Header is the ELF file header that follows the identification block.
type Header struct {
	Type      elf.Type
	Machine   elf.Machine
	Version   elf.Version
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

// headerSize is the size of the header after e_ident.
func headerSize(info *Info) int {
	if info.Bit64 {
		return 0x30
	}
	return 0x24
}

func readHeader(src ByteSource, info *Info) (*Header, error) {
	buf, err := readFull(src, identSize, headerSize(info))
	if err != nil {
		return nil, err
	}

	d := newDecoder(info, buf)
	h := &Header{
		Type:    elf.Type(d.u16()),
		Machine: elf.Machine(d.u16()),
		Version: elf.Version(d.u32()),
		Entry:   d.addr(),
		Phoff:   d.addr(),
		Shoff:   d.addr(),
	}
	h.Flags = d.u32()
	h.Ehsize = d.u16()
	h.Phentsize = d.u16()
	h.Phnum = d.u16()
	h.Shentsize = d.u16()
	h.Shnum = d.u16()
	h.Shstrndx = d.u16()
	d.finish("file header")

	if _, err := narrow("e_phoff", h.Phoff); err != nil {
		return nil, err
	}
	if _, err := narrow("e_shoff", h.Shoff); err != nil {
		return nil, err
	}

	if h.Version != elf.EV_CURRENT {
		return nil, &FormatError{Field: "e_version", Offset: identSize + 4, Expected: uint32(elf.EV_CURRENT), Actual: uint32(h.Version), Err: ErrInvalidVersion}
	}
	if consumed := identSize + d.pos; int(h.Ehsize) != consumed {
		return nil, &FormatError{Field: "e_ehsize", Offset: identSize + uint64(d.pos) - 12, Expected: consumed, Actual: h.Ehsize, Err: ErrHeaderSize}
	}
	if h.Shstrndx >= h.Shnum {
		return nil, &FormatError{Field: "e_shstrndx", Offset: identSize + uint64(d.pos) - 2, Expected: fmt.Sprintf("< %d", h.Shnum), Actual: h.Shstrndx, Err: ErrInvalidShstrndx}
	}
	return h, nil
}
