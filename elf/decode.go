package elf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// maxOffset is the largest offset or size this host can index.
const maxOffset = math.MaxInt

// decoder walks a fixed-size record field by field. The record layouts
// are fixed per class, so reading past the buffer or leaving bytes
// unread is a bug in the layout code, not in the input.
type decoder struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
	word  int
}

func newDecoder(info *Info, buf []byte) *decoder {
	return &decoder{buf: buf, order: info.ByteOrder, word: info.WordSize}
}

func (d *decoder) u8() uint8 {
	v := d.buf[d.pos]
	d.pos++
	return v
}

func (d *decoder) u16() uint16 {
	v := d.order.Uint16(d.buf[d.pos:])
	d.pos += 2
	return v
}

func (d *decoder) u32() uint32 {
	v := d.order.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v
}

func (d *decoder) u64() uint64 {
	v := d.order.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v
}

// addr reads an Elf32_Addr/Elf32_Off/Elf32_Word sized field or its
// 64-bit counterpart.
func (d *decoder) addr() uint64 {
	if d.word == 8 {
		return d.u64()
	}
	return uint64(d.u32())
}

// finish asserts the record was consumed exactly.
func (d *decoder) finish(what string) {
	if d.pos != len(d.buf) {
		panic(fmt.Sprintf("elf: %s decoder consumed %d bytes, layout declares %d", what, d.pos, len(d.buf)))
	}
}

// narrow converts a file offset or size to int.
func narrow(field string, v uint64) (int, error) {
	if v > maxOffset {
		return 0, &RangeError{Field: field, Value: v, Max: maxOffset}
	}
	return int(v), nil
}

// span checks that [off, off+size) lies within the file.
func span(field string, off, size, fileSize uint64) error {
	if _, err := narrow(field+" offset", off); err != nil {
		return err
	}
	if _, err := narrow(field+" size", size); err != nil {
		return err
	}
	if off > fileSize || size > fileSize-off {
		return &ReadError{Offset: off, Length: size, Limit: fileSize, Err: ErrOffsetOutOfRange}
	}
	return nil
}

// readFull reads exactly n bytes at off. A short read is a ReadError.
func readFull(src ByteSource, off uint64, n int) ([]byte, error) {
	if _, err := narrow("read offset", off); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	got, err := src.Read(buf, off)
	if err != nil {
		return nil, fmt.Errorf("elf: read 0x%x bytes at 0x%x: %w", n, off, err)
	}
	if got < n {
		return nil, &ReadError{Offset: off, Length: uint64(n), Limit: uint64(got), Err: ErrShortRead}
	}
	return buf, nil
}
