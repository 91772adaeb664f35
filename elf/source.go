package elf

import (
	"errors"
	"io"
)

// ByteSource is random access to the bytes of one file.
//
// Read fills buf from absolute offset off and returns the number of bytes
// read. Reading fewer bytes than requested, including zero at end of
// file, is not an error; callers decide whether a short read is fatal.
type ByteSource interface {
	Read(buf []byte, off uint64) (int, error)
	Size() (uint64, error)
}

// ReaderAtSource adapts an io.ReaderAt of known size, such as a
// *bytes.Reader or an *io.SectionReader.
type ReaderAtSource struct {
	r    io.ReaderAt
	size int64
}

func NewReaderAtSource(r io.ReaderAt, size int64) *ReaderAtSource {
	return &ReaderAtSource{r: r, size: size}
}

func (s *ReaderAtSource) Read(buf []byte, off uint64) (int, error) {
	if off >= uint64(s.size) {
		return 0, nil
	}
	n, err := s.r.ReadAt(buf, int64(off))
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

func (s *ReaderAtSource) Size() (uint64, error) {
	return uint64(s.size), nil
}
