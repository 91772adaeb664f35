package elf

import (
	"errors"
	"fmt"
)

var (
	ErrShortRead        = errors.New("short read")
	ErrOffsetOutOfRange = errors.New("offset out of range")

	ErrInvalidMagic     = errors.New("invalid magic")
	ErrInvalidClass     = errors.New("invalid class")
	ErrInvalidEncoding  = errors.New("invalid data encoding")
	ErrInvalidVersion   = errors.New("invalid version")
	ErrInvalidPadding   = errors.New("invalid identification padding")
	ErrHeaderSize       = errors.New("invalid header size")
	ErrInvalidEntrySize = errors.New("invalid entry size")
	ErrInvalidShstrndx  = errors.New("invalid section name table index")
	ErrInvalidAlignment = errors.New("invalid alignment")
	ErrInvalidName      = errors.New("invalid section name")
	ErrNameOutOfRange   = errors.New("name out of range")
	ErrDuplicateSection = errors.New("duplicate section")
	ErrInvalidLink      = errors.New("invalid link")
	ErrCorruptNullEntry = errors.New("corrupt null symbol entry")
	ErrSymbolTableSize  = errors.New("symbol table size is not a multiple of the entry size")

	// ErrOffsetTooLarge is reported when a file offset or size does not fit
	// the host's int. The file may well be valid.
	ErrOffsetTooLarge = errors.New("offset too large for this host")
)

// ReadError is a structural failure: the range [Offset, Offset+Length)
// could not be supplied. Limit is the number of bytes that were
// available, or the declared file size.
type ReadError struct {
	Offset uint64
	Length uint64
	Limit  uint64
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("elf: %v: range 0x%x+0x%x, limit 0x%x", e.Err, e.Offset, e.Length, e.Limit)
}

func (e *ReadError) Unwrap() error { return e.Err }

// FormatError is a decoded field that violates the format.
type FormatError struct {
	Field    string
	Offset   uint64
	Expected interface{}
	Actual   interface{}
	Err      error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("elf: %v: %s at 0x%x", e.Err, e.Field, e.Offset)
	if e.Expected != nil {
		msg += fmt.Sprintf(": expected %v, got %v", e.Expected, e.Actual)
	} else if e.Actual != nil {
		msg += fmt.Sprintf(": got %v", e.Actual)
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// RangeError is a 64-bit offset or size that the host cannot index.
type RangeError struct {
	Field string
	Value uint64
	Max   uint64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("elf: %s 0x%x exceeds 0x%x", e.Field, e.Value, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrOffsetTooLarge }
