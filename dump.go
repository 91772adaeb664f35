package main

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
)

const (
	ColorReadWriteExecutable = ColorYellow
	ColorReadExecutable      = ColorRed
	ColorReadWrite           = ColorCyan
	ColorExecutable          = ColorPurple
	ColorRead                = ColorBlue
	ColorWrite               = ColorGreen
	ColorDefault             = ColorReset
)

func perm2color(r, w, x bool) string {
	if r && w && x {
		return ColorReadWriteExecutable
	}
	if r && w && !x {
		return ColorReadWrite
	}
	if x {
		return ColorExecutable
	}
	if r && !w {
		return ColorRead
	}
	if w && !r {
		return ColorWrite
	}
	return ColorDefault
}

// sectionColor colors allocated sections by how they are mapped.
func sectionColor(flags elf.SectionFlag) string {
	if flags&elf.SHF_ALLOC == 0 {
		return ColorDefault
	}
	return perm2color(true, flags&elf.SHF_WRITE != 0, flags&elf.SHF_EXECINSTR != 0)
}

func segmentColor(flags elf.ProgFlag) string {
	return perm2color(flags&elf.PF_R != 0, flags&elf.PF_W != 0, flags&elf.PF_X != 0)
}

func hexdump(w io.Writer, addr uint64, data []byte) {
	for i := 0; i < len(data); i += 16 {
		fmt.Fprintf(w, "%016x: ", addr+uint64(i))

		for j := 0; j < 16; j++ {
			if i+j < len(data) {
				fmt.Fprintf(w, "%02x ", data[i+j])
			} else {
				fmt.Fprintf(w, "   ")
			}
		}

		fmt.Fprintf(w, " |")

		for j := 0; j < 16 && i+j < len(data); j++ {
			b := data[i+j]
			if b >= 32 && b <= 126 {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprintf(w, ".")
			}
		}

		fmt.Fprintf(w, "|\n")
	}
}

// tableStrings splits a string table into its NUL-terminated strings,
// keyed by offset. The leading empty string is skipped.
func tableStrings(data []byte) ([]uint64, []string) {
	var offs []uint64
	var strs []string
	for off := 0; off < len(data); {
		end := bytes.IndexByte(data[off:], 0)
		if end < 0 {
			end = len(data) - off
		}
		if end > 0 {
			offs = append(offs, uint64(off))
			strs = append(strs, string(data[off:off+end]))
		}
		off += end + 1
	}
	return offs, strs
}
