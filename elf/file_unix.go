//go:build unix

package elf

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FileSource reads an open file with pread(2), so concurrent readers
// never share a file cursor.
type FileSource struct {
	f *os.File
}

func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{f: f}, nil
}

func (s *FileSource) Read(buf []byte, off uint64) (int, error) {
	if off > maxOffset {
		return 0, &RangeError{Field: "read offset", Value: off, Max: maxOffset}
	}
	fd := int(s.f.Fd())
	total := 0
	for total < len(buf) {
		n, err := unix.Pread(fd, buf[total:], int64(off)+int64(total))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return total, fmt.Errorf("pread %s: %w", s.f.Name(), err)
		}
		if n == 0 {
			break
		}
		total += n
	}
	return total, nil
}

func (s *FileSource) Size() (uint64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(s.f.Fd()), &st); err != nil {
		return 0, fmt.Errorf("fstat %s: %w", s.f.Name(), err)
	}
	return uint64(st.Size), nil
}

func (s *FileSource) Close() error {
	return s.f.Close()
}

// Open parses the ELF file at path. The file stays open for lazy
// section loads until Close.
func Open(path string) (*File, error) {
	src, err := OpenFileSource(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(src)
	if err != nil {
		src.Close()
		return nil, err
	}
	f.closer = src
	return f, nil
}
