package main

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/manifoldco/promptui"

	elfreader "fastElf/elf"
)

type cmdHandler struct {
	regex *regexp.Regexp
	fn    func(*TypeElf, interface{}) error
}

var compiledCmds = []cmdHandler{
	{regexp.MustCompile(`^\s*(h|header|HEADER)\s*$`), (*TypeElf).cmdHeader},
	{regexp.MustCompile(`^\s*(l|segments|phdr|SEGMENTS)\s*$`), (*TypeElf).cmdSegments},
	{regexp.MustCompile(`^\s*(S|sections|shdr|SECTIONS)\s*$`), (*TypeElf).cmdSections},
	{regexp.MustCompile(`^\s*(s|sym|symbol|SYM|SYMBOL)(?:\s+(\S+))?\s*$`), (*TypeElf).cmdSym},
	{regexp.MustCompile(`^\s*(i|info|INFO)\s+(\S+)\s*$`), (*TypeElf).cmdSymInfo},
	{regexp.MustCompile(`^\s*(L|linked|LINKED)\s*$`), (*TypeElf).cmdLinked},
	{regexp.MustCompile(`^\s*(d|needed|NEEDED)\s*$`), (*TypeElf).cmdNeeded},
	{regexp.MustCompile(`^\s*(x|xxd|dump)\s+(\S+)(?:\s+(0[xX][0-9a-fA-F]+|0[0-7]+|[1-9][0-9]*|0))?\s*$`), (*TypeElf).cmdDump},
	{regexp.MustCompile(`^\s*(strings|STRINGS)\s+(\S+)\s*$`), (*TypeElf).cmdStrings},
	{regexp.MustCompile(`^\s*(pick|PICK)\s*$`), (*TypeElf).cmdPick},
	{regexp.MustCompile(`^\s*(color|COLOR)\s*$`), (*TypeElf).cmdColor},
	{regexp.MustCompile(`^\s*(help|\?)\s*$`), (*TypeElf).cmdHelp},
}

func (e *TypeElf) cmdExec(req string) error {
	for _, handler := range compiledCmds {
		if m := handler.regex.FindStringSubmatch(req); m != nil {
			return handler.fn(e, m)
		}
	}
	return errors.New("unknown command")
}

func (e *TypeElf) cmdHeader(_ interface{}) error {
	id, h := e.file.Ident, e.file.Header
	hLine("ELF Header")
	Printf("Magic:                %s\n", fmt.Sprintf("%08x", id.Magic))
	Printf("Class:                %s\n", id.Class)
	Printf("Data:                 %s\n", id.Data)
	Printf("OS/ABI:               %s (abi version %d)\n", id.OSABI, id.ABIVersion)
	Printf("Type:                 %s\n", h.Type)
	Printf("Machine:              %s\n", h.Machine)
	Printf("Version:              %s\n", h.Version)
	Printf("Entry:                0x%x\n", h.Entry)
	Printf("Program headers:      0x%x (%d entries of %d bytes)\n", h.Phoff, h.Phnum, h.Phentsize)
	Printf("Section headers:      0x%x (%d entries of %d bytes)\n", h.Shoff, h.Shnum, h.Shentsize)
	Printf("Flags:                0x%x\n", h.Flags)
	Printf("Header size:          %d\n", h.Ehsize)
	Printf("Section names index:  %d\n", h.Shstrndx)
	return nil
}

func (e *TypeElf) cmdSegments(_ interface{}) error {
	hLine("Program Headers")
	fmt.Fprintf(out, "%-14s %-18s %-18s %-18s %-10s %-10s %-4s %s\n",
		"[type]", "[offset]", "[vaddr]", "[paddr]", "[filesz]", "[memsz]", "[rwx]", "[align]")
	for _, p := range e.file.Progs {
		color := segmentColor(p.Flags)
		fmt.Fprintf(out, "%s%-14s 0x%016x 0x%016x 0x%016x 0x%08x 0x%08x %-4s 0x%x%s\n",
			color, strings.TrimPrefix(p.Type.String(), "PT_"), p.Off, p.Vaddr, p.Paddr, p.Filesz, p.Memsz,
			segmentFlagString(p.Flags), p.Align, ColorReset)
	}
	return nil
}

func (e *TypeElf) cmdSections(_ interface{}) error {
	hLine("Section Headers")
	fmt.Fprintf(out, "%-5s %-20s %-14s %-18s %-10s %-10s %-6s %-5s %-5s %s\n",
		"[nr]", "[name]", "[type]", "[addr]", "[offset]", "[size]", "[flg]", "[lk]", "[inf]", "[align]")
	for i := range e.file.SectionHeaders {
		sh := &e.file.SectionHeaders[i]
		name := ""
		if sec := e.file.Sections.ByIndex(i); sec != nil {
			name = sec.Name
		}
		fmt.Fprintf(out, "%s[%3d] %-20s %-14s 0x%016x 0x%08x 0x%08x %-6s %-5d %-5d %d%s\n",
			sectionColor(sh.Flags), i, name, strings.TrimPrefix(sh.Type.String(), "SHT_"),
			sh.Addr, sh.Offset, sh.Size, sectionFlagString(sh.Flags), sh.Link, sh.Info, sh.Addralign, ColorReset)
	}
	return nil
}

func (e *TypeElf) cmdSym(a interface{}) error {
	args, ok := a.([]string)
	if !ok {
		return errors.New("invalid arguments")
	}
	filter := ""
	if len(args) > 2 {
		filter = args[2]
	}
	if filter == "" && e.interactive {
		return e.pageSymbols()
	}
	return e.ListSymbols(filter)
}

// pageSymbols shows the whole symbol table in less.
func (e *TypeElf) pageSymbols() error {
	tempFile := filepath.Join(os.TempDir(), fmt.Sprintf("fastElf_%d_%d", os.Getpid(), time.Now().Unix()))
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}
	defer func() {
		file.Close()
		os.Remove(tempFile)
	}()

	writeSymbols(file, e.file.Symbols.Symbols, "")
	file.Close()

	cmd := exec.Command("less", "-SR", tempFile)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (e *TypeElf) ListSymbols(filter string) error {
	if n := writeSymbols(out, e.file.Symbols.Symbols, filter); n == 0 && filter != "" {
		Printf("No symbols found matching '%s'\n", filter)
	}
	return nil
}

func writeSymbols(w io.Writer, syms []*elfreader.Symbol, filter string) int {
	fmt.Fprintf(w, "%-18s %-8s %-8s %-8s %-12s %s\n", "ADDRESS", "SIZE", "TYPE", "BIND", "SECTION", "NAME")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 100))
	count := 0
	for _, sym := range syms {
		if filter != "" && !strings.Contains(strings.ToLower(sym.Name), strings.ToLower(filter)) {
			continue
		}
		fmt.Fprintf(w, "0x%016x %-8d %-8s %-8s %-12s %s\n", sym.Value, sym.Size,
			symbolTypeString(sym.Type()), symbolBindString(sym.Bind()), sym.Section.Name, sym.Name)
		count++
	}
	return count
}

func (e *TypeElf) cmdSymInfo(a interface{}) error {
	args, ok := a.([]string)
	if !ok || len(args) < 3 {
		return errors.New("invalid arguments")
	}
	syms := e.file.Symbols.Lookup(args[2])
	if len(syms) == 0 {
		return fmt.Errorf("symbol '%s' not found", args[2])
	}
	for _, sym := range syms {
		hLine(sym.Name)
		Printf("Value: 0x%016x\n", sym.Value)
		Printf("Size: %d bytes\n", sym.Size)
		Printf("Type: %s\n", symbolTypeString(sym.Type()))
		Printf("Bind: %s\n", symbolBindString(sym.Bind()))
		Printf("Visibility: %s\n", elf.ST_VISIBILITY(sym.Other))
		Printf("Section index: %s\n", sectionIndexString(e.file, sym.Shndx))
		Printf("Table: %s [%d] @ 0x%x\n", sym.Section.Name, sym.Loc.Index, sym.Loc.Offset)
	}
	return nil
}

func (e *TypeElf) cmdLinked(_ interface{}) error {
	hLine("Linked Functions")
	for _, name := range e.file.LinkedFunctions {
		Printf("%s\n", name)
	}
	return nil
}

func (e *TypeElf) cmdNeeded(_ interface{}) error {
	info, err := readDynamic(e.file)
	if errors.Is(err, errNoDynamic) {
		LogWarn("%s is statically linked", e.path)
		return nil
	}
	if err != nil {
		return err
	}
	hLine("Needed")
	for _, lib := range info.Needed {
		Printf("%s\n", lib)
	}
	if info.PLTRelSize != 0 {
		Printf("PLT relocations: %d bytes\n", info.PLTRelSize)
	}
	return nil
}

func (e *TypeElf) cmdDump(a interface{}) error {
	args, ok := a.([]string)
	if !ok || len(args) < 3 {
		return errors.New("invalid arguments")
	}
	var n uint64 = 256
	if len(args) > 3 && args[3] != "" {
		var err error
		n, err = strconv.ParseUint(args[3], 0, 64)
		if err != nil {
			return err
		}
	}
	return e.dumpSection(args[2], n)
}

func (e *TypeElf) dumpSection(name string, n uint64) error {
	sec, ok := e.file.Sections.Lookup(name)
	if !ok {
		return fmt.Errorf("section '%s' not found", name)
	}
	data, err := e.file.Sections.Load(sec)
	if err != nil {
		return err
	}
	if n < uint64(len(data)) {
		data = data[:n]
	}
	base := sec.Header.Addr
	if base == 0 {
		base = sec.Header.Offset
	}
	hLine(name)
	hexdump(out, base, data)
	return nil
}

func (e *TypeElf) cmdStrings(a interface{}) error {
	args, ok := a.([]string)
	if !ok || len(args) < 3 {
		return errors.New("invalid arguments")
	}
	sec, ok := e.file.Sections.Lookup(args[2])
	if !ok {
		return fmt.Errorf("section '%s' not found", args[2])
	}
	if sec.Header.Type != elf.SHT_STRTAB {
		return fmt.Errorf("section '%s' is %s, not a string table", args[2], sec.Header.Type)
	}
	data, err := e.file.Sections.Load(sec)
	if err != nil {
		return err
	}
	offs, strs := tableStrings(data)
	for i, s := range strs {
		Printf("0x%x: %s\n", offs[i], s)
	}
	return nil
}

func (e *TypeElf) cmdPick(_ interface{}) error {
	var names []string
	for _, sec := range e.file.Sections.All() {
		names = append(names, sec.Name)
	}
	prompt := promptui.Select{
		Label: "Section",
		Items: names,
		Size:  15,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(names[index]), strings.ToLower(input))
		},
	}
	_, name, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		return err
	}
	return e.dumpSection(name, 256)
}

func (e *TypeElf) cmdColor(_ interface{}) error {
	fmt.Fprintf(out, "%s[r  ]: readonly				%s\n", ColorRead, ColorReset)
	fmt.Fprintf(out, "%s[ w ]: writeonly				%s\n", ColorWrite, ColorReset)
	fmt.Fprintf(out, "%s[  x]: executable				%s\n", ColorExecutable, ColorReset)
	fmt.Fprintf(out, "%s[rw ]: read/write				%s\n", ColorReadWrite, ColorReset)
	fmt.Fprintf(out, "%s[r x]: read/executable			%s\n", ColorReadExecutable, ColorReset)
	fmt.Fprintf(out, "%s[rwx]: read/write/executable	%s\n", ColorReadWriteExecutable, ColorReset)
	fmt.Fprintf(out, "%s[---]: not mapped				%s\n", ColorDefault, ColorReset)
	return nil
}

func (e *TypeElf) cmdHelp(_ interface{}) error {
	fmt.Fprintln(out, "header (h)              ELF header")
	fmt.Fprintln(out, "segments (l)            program headers")
	fmt.Fprintln(out, "sections (S)            section headers")
	fmt.Fprintln(out, "sym (s) [filter]        symbols")
	fmt.Fprintln(out, "info (i) <name>         every symbol with this name")
	fmt.Fprintln(out, "linked (L)              exported dynamic functions")
	fmt.Fprintln(out, "needed (d)              DT_NEEDED libraries")
	fmt.Fprintln(out, "dump (x) <section> [n]  hexdump of a section")
	fmt.Fprintln(out, "strings <section>       strings of a string table")
	fmt.Fprintln(out, "pick                    choose a section to dump")
	fmt.Fprintln(out, "color                   color legend")
	return nil
}

func symbolTypeString(t elf.SymType) string {
	switch t {
	case elf.STT_NOTYPE:
		return "NOTYPE"
	case elf.STT_OBJECT:
		return "OBJECT"
	case elf.STT_FUNC:
		return "FUNC"
	case elf.STT_SECTION:
		return "SECTION"
	case elf.STT_FILE:
		return "FILE"
	case elf.STT_COMMON:
		return "COMMON"
	case elf.STT_TLS:
		return "TLS"
	case elf.STT_LOOS: // STT_GNU_IFUNC (10)
		return "IFUNC"
	default:
		return "UNKNOWN"
	}
}

func symbolBindString(b elf.SymBind) string {
	switch b {
	case elf.STB_LOCAL:
		return "LOCAL"
	case elf.STB_GLOBAL:
		return "GLOBAL"
	case elf.STB_WEAK:
		return "WEAK"
	case elf.STB_LOOS: // STB_GNU_UNIQUE (10)
		return "UNIQUE"
	default:
		return "UNKNOWN"
	}
}

func sectionIndexString(f *elfreader.File, idx elf.SectionIndex) string {
	switch idx {
	case elf.SHN_UNDEF:
		return "UND"
	case elf.SHN_ABS:
		return "ABS"
	case elf.SHN_COMMON:
		return "COM"
	}
	if sec := f.Sections.ByIndex(int(idx)); sec != nil {
		return fmt.Sprintf("%d (%s)", idx, sec.Name)
	}
	return fmt.Sprintf("%d", idx)
}

func sectionFlagString(flags elf.SectionFlag) string {
	var sb strings.Builder
	for _, f := range []struct {
		flag elf.SectionFlag
		c    byte
	}{
		{elf.SHF_WRITE, 'W'},
		{elf.SHF_ALLOC, 'A'},
		{elf.SHF_EXECINSTR, 'X'},
		{elf.SHF_MERGE, 'M'},
		{elf.SHF_STRINGS, 'S'},
		{elf.SHF_INFO_LINK, 'I'},
		{elf.SHF_LINK_ORDER, 'L'},
		{elf.SHF_GROUP, 'G'},
		{elf.SHF_TLS, 'T'},
	} {
		if flags&f.flag != 0 {
			sb.WriteByte(f.c)
		}
	}
	return sb.String()
}

func segmentFlagString(flags elf.ProgFlag) string {
	rwx := []byte("---")
	if flags&elf.PF_R != 0 {
		rwx[0] = 'r'
	}
	if flags&elf.PF_W != 0 {
		rwx[1] = 'w'
	}
	if flags&elf.PF_X != 0 {
		rwx[2] = 'x'
	}
	return string(rwx)
}
