package elf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"math"
)

const (
	identSize = 16
	magic     = 0x7f454c46 // "\x7fELF" read big-endian
)

// Ident is the e_ident block at the start of every ELF file.
type Ident struct {
	Magic      uint32
	Class      elf.Class
	Data       elf.Data
	Version    elf.Version
	OSABI      elf.OSABI
	ABIVersion uint8
	Pad        [7]byte
}

// Info is derived once from the identification header and consulted by
// every later decoding step.
type Info struct {
	Bit64        bool
	WordSize     int
	MaxPointer   uint64
	LittleEndian bool
	ByteOrder    binary.ByteOrder
	FileSize     uint64
}

func readIdent(src ByteSource) (*Ident, *Info, error) {
	buf, err := readFull(src, 0, identSize)
	if err != nil {
		return nil, nil, err
	}

	id := &Ident{
		Magic:      binary.BigEndian.Uint32(buf[0:]),
		Class:      elf.Class(buf[elf.EI_CLASS]),
		Data:       elf.Data(buf[elf.EI_DATA]),
		Version:    elf.Version(buf[elf.EI_VERSION]),
		OSABI:      elf.OSABI(buf[elf.EI_OSABI]),
		ABIVersion: buf[elf.EI_ABIVERSION],
	}
	copy(id.Pad[:], buf[elf.EI_PAD:])

	if id.Magic != magic {
		return nil, nil, &FormatError{Field: "EI_MAG", Offset: 0, Expected: uint32(magic), Actual: id.Magic, Err: ErrInvalidMagic}
	}
	switch id.Class {
	case elf.ELFCLASS32, elf.ELFCLASS64:
	default:
		return nil, nil, &FormatError{Field: "EI_CLASS", Offset: elf.EI_CLASS, Actual: uint8(id.Class), Err: ErrInvalidClass}
	}
	switch id.Data {
	case elf.ELFDATA2LSB, elf.ELFDATA2MSB:
	default:
		return nil, nil, &FormatError{Field: "EI_DATA", Offset: elf.EI_DATA, Actual: uint8(id.Data), Err: ErrInvalidEncoding}
	}
	if id.Version != elf.EV_CURRENT {
		return nil, nil, &FormatError{Field: "EI_VERSION", Offset: elf.EI_VERSION, Expected: uint8(elf.EV_CURRENT), Actual: uint8(id.Version), Err: ErrInvalidVersion}
	}
	if !bytes.Equal(id.Pad[:], make([]byte, len(id.Pad))) {
		return nil, nil, &FormatError{Field: "EI_PAD", Offset: elf.EI_PAD, Actual: id.Pad, Err: ErrInvalidPadding}
	}

	size, err := src.Size()
	if err != nil {
		return nil, nil, err
	}

	info := &Info{
		Bit64:        id.Class == elf.ELFCLASS64,
		WordSize:     4,
		MaxPointer:   math.MaxUint32,
		LittleEndian: id.Data == elf.ELFDATA2LSB,
		ByteOrder:    binary.BigEndian,
		FileSize:     size,
	}
	if info.Bit64 {
		info.WordSize = 8
		info.MaxPointer = math.MaxUint64
	}
	if info.LittleEndian {
		info.ByteOrder = binary.LittleEndian
	}
	return id, info, nil
}
