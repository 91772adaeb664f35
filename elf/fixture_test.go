package elf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"sync/atomic"
	"time"
)

// fixture builds small ELF images for tests. Section headers are laid out
// as: null, the added sections in order, then .shstrtab.
type fixture struct {
	class    elf.Class
	order    binary.ByteOrder
	typ      elf.Type
	machine  elf.Machine
	entry    uint64
	flags    uint32
	progs    []ProgHeader
	sections []fixtureSection
}

type fixtureSection struct {
	name    string
	typ     elf.SectionType
	flags   elf.SectionFlag
	addr    uint64
	data    []byte
	link    uint32
	info    uint32
	align   uint64
	entsize uint64
}

type fixtureSymbol struct {
	name  string
	info  uint8
	other uint8
	shndx uint16
	value uint64
	size  uint64
}

func newFixture(class elf.Class, order binary.ByteOrder) *fixture {
	return &fixture{class: class, order: order, typ: elf.ET_DYN, machine: elf.EM_X86_64}
}

func (f *fixture) bit64() bool { return f.class == elf.ELFCLASS64 }

func (f *fixture) sizes() (ehsize, phentsize, shentsize, symsize int) {
	if f.bit64() {
		return 64, 56, 64, 24
	}
	return 52, 32, 40, 16
}

// add appends a section and returns its header index.
func (f *fixture) add(s fixtureSection) int {
	f.sections = append(f.sections, s)
	return len(f.sections)
}

// addSymbols appends a string table and a symbol table linked to it and
// returns the symbol table's header index.
func (f *fixture) addSymbols(symName, strName string, typ elf.SectionType, syms []fixtureSymbol) int {
	symtab, strtab := f.encodeSymbols(syms)
	str := f.add(fixtureSection{name: strName, typ: elf.SHT_STRTAB, data: strtab, align: 1})
	_, _, _, symsize := f.sizes()
	return f.add(fixtureSection{name: symName, typ: typ, data: symtab, link: uint32(str), align: 8, entsize: uint64(symsize)})
}

func (f *fixture) encodeSymbols(syms []fixtureSymbol) (symtab, strtab []byte) {
	_, _, _, symsize := f.sizes()
	strtab = []byte{0}
	w := f.writer()
	w.b = make([]byte, symsize)
	for _, s := range syms {
		var name uint32
		if s.name != "" {
			name = uint32(len(strtab))
			strtab = append(strtab, s.name...)
			strtab = append(strtab, 0)
		}
		w.u32(name)
		if f.bit64() {
			w.u8(s.info)
			w.u8(s.other)
			w.u16(s.shndx)
			w.u64(s.value)
			w.u64(s.size)
		} else {
			w.u32(uint32(s.value))
			w.u32(uint32(s.size))
			w.u8(s.info)
			w.u8(s.other)
			w.u16(s.shndx)
		}
	}
	return w.b, strtab
}

type writer struct {
	b     []byte
	order binary.AppendByteOrder
	bit64 bool
}

func (f *fixture) writer() *writer {
	return &writer{order: f.order.(binary.AppendByteOrder), bit64: f.bit64()}
}

func (w *writer) u8(v uint8)   { w.b = append(w.b, v) }
func (w *writer) u16(v uint16) { w.b = w.order.AppendUint16(w.b, v) }
func (w *writer) u32(v uint32) { w.b = w.order.AppendUint32(w.b, v) }
func (w *writer) u64(v uint64) { w.b = w.order.AppendUint64(w.b, v) }

func (w *writer) word(v uint64) {
	if w.bit64 {
		w.u64(v)
	} else {
		w.u32(uint32(v))
	}
}

// image is a built fixture plus the layout facts tests patch against.
type image struct {
	f       *fixture
	data    []byte
	shoff   uint64
	shnum   int
	dataOff []uint64
}

func (f *fixture) build() *image {
	ehsize, phentsize, shentsize, _ := f.sizes()

	shstr := []byte{0}
	names := make([]uint32, len(f.sections))
	for i, s := range f.sections {
		names[i] = uint32(len(shstr))
		shstr = append(shstr, s.name...)
		shstr = append(shstr, 0)
	}
	shstrName := uint32(len(shstr))
	shstr = append(shstr, ".shstrtab\x00"...)

	var phoff uint64
	if len(f.progs) > 0 {
		phoff = uint64(ehsize)
	}
	start := ehsize + len(f.progs)*phentsize

	img := &image{f: f, shnum: len(f.sections) + 2, dataOff: make([]uint64, len(f.sections)+2)}
	var body []byte
	for i, s := range f.sections {
		img.dataOff[i+1] = uint64(start + len(body))
		body = append(body, s.data...)
	}
	shstrOff := uint64(start + len(body))
	img.dataOff[len(f.sections)+1] = shstrOff
	body = append(body, shstr...)
	img.shoff = uint64(start + len(body))

	data := byte(elf.ELFDATA2LSB)
	if f.order == binary.BigEndian {
		data = byte(elf.ELFDATA2MSB)
	}
	w := f.writer()
	w.b = append(w.b, 0x7f, 'E', 'L', 'F', byte(f.class), data, byte(elf.EV_CURRENT), 0, 0, 0, 0, 0, 0, 0, 0, 0)
	w.u16(uint16(f.typ))
	w.u16(uint16(f.machine))
	w.u32(uint32(elf.EV_CURRENT))
	w.word(f.entry)
	w.word(phoff)
	w.word(img.shoff)
	w.u32(f.flags)
	w.u16(uint16(ehsize))
	w.u16(uint16(phentsize))
	w.u16(uint16(len(f.progs)))
	w.u16(uint16(shentsize))
	w.u16(uint16(img.shnum))
	w.u16(uint16(img.shnum - 1))

	for _, p := range f.progs {
		w.u32(uint32(p.Type))
		if f.bit64() {
			w.u32(uint32(p.Flags))
		}
		w.word(p.Off)
		w.word(p.Vaddr)
		w.word(p.Paddr)
		w.word(p.Filesz)
		w.word(p.Memsz)
		if !f.bit64() {
			w.u32(uint32(p.Flags))
		}
		w.word(p.Align)
	}

	w.b = append(w.b, body...)

	w.b = append(w.b, make([]byte, shentsize)...)
	for i, s := range f.sections {
		w.section(names[i], s, img.dataOff[i+1])
	}
	w.section(shstrName, fixtureSection{typ: elf.SHT_STRTAB, data: shstr, align: 1}, shstrOff)

	img.data = w.b
	return img
}

func (w *writer) section(name uint32, s fixtureSection, off uint64) {
	w.u32(name)
	w.u32(uint32(s.typ))
	w.word(uint64(s.flags))
	w.word(s.addr)
	w.word(off)
	w.word(uint64(len(s.data)))
	w.u32(s.link)
	w.u32(s.info)
	w.word(s.align)
	w.word(s.entsize)
}

// Offsets of e_* fields in the complete file header.
func (img *image) ehsizeAt() uint64 {
	ehsize, _, _, _ := img.f.sizes()
	return uint64(ehsize - 12)
}

func (img *image) phentsizeAt() uint64 { return img.ehsizeAt() + 2 }
func (img *image) shstrndxAt() uint64  { return img.ehsizeAt() + 10 }

// Offsets of fields inside section header i.
func (img *image) shdrAt(i int) uint64 {
	_, _, shentsize, _ := img.f.sizes()
	return img.shoff + uint64(i*shentsize)
}

func (img *image) shSizeAt(i int) uint64 {
	if img.f.bit64() {
		return img.shdrAt(i) + 32
	}
	return img.shdrAt(i) + 20
}

func (img *image) shLinkAt(i int) uint64 {
	if img.f.bit64() {
		return img.shdrAt(i) + 40
	}
	return img.shdrAt(i) + 24
}

func (img *image) shAlignAt(i int) uint64 {
	if img.f.bit64() {
		return img.shdrAt(i) + 48
	}
	return img.shdrAt(i) + 32
}

func (img *image) put16(off uint64, v uint16) { img.f.order.PutUint16(img.data[off:], v) }
func (img *image) put32(off uint64, v uint32) { img.f.order.PutUint32(img.data[off:], v) }

func (img *image) putWord(off uint64, v uint64) {
	if img.f.bit64() {
		img.f.order.PutUint64(img.data[off:], v)
	} else {
		img.f.order.PutUint32(img.data[off:], uint32(v))
	}
}

func (img *image) source() ByteSource {
	return NewReaderAtSource(bytes.NewReader(img.data), int64(len(img.data)))
}

// countingSource counts calls to Read.
type countingSource struct {
	ByteSource
	reads atomic.Int64
}

func (s *countingSource) Read(buf []byte, off uint64) (int, error) {
	s.reads.Add(1)
	return s.ByteSource.Read(buf, off)
}

// slowSource delays reads that start at slowAt.
type slowSource struct {
	ByteSource
	slowAt uint64
}

func (s *slowSource) Read(buf []byte, off uint64) (int, error) {
	if off == s.slowAt {
		time.Sleep(20 * time.Millisecond)
	}
	return s.ByteSource.Read(buf, off)
}

var fixtureClasses = []struct {
	name  string
	class elf.Class
	order binary.ByteOrder
}{
	{"32LE", elf.ELFCLASS32, binary.LittleEndian},
	{"32BE", elf.ELFCLASS32, binary.BigEndian},
	{"64LE", elf.ELFCLASS64, binary.LittleEndian},
	{"64BE", elf.ELFCLASS64, binary.BigEndian},
}

func symInfo(bind elf.SymBind, typ elf.SymType) uint8 {
	return elf.ST_INFO(bind, typ)
}
