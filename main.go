package main

import (
	"flag"
	"fmt"
	"os"

	elfreader "fastElf/elf"
)

func main() {
	fn := flag.String("f", "", "filename")
	interactive := flag.Bool("i", false, "interactive shell")
	header := flag.Bool("h", false, "print the ELF header")
	segments := flag.Bool("l", false, "print program headers")
	sections := flag.Bool("S", false, "print section headers")
	symbols := flag.Bool("s", false, "print symbols")
	linked := flag.Bool("L", false, "print linked functions")
	needed := flag.Bool("d", false, "print needed libraries")
	dump := flag.String("x", "", "hexdump a section")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] <file>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *fn == "" && flag.NArg() == 1 {
		*fn = flag.Arg(0)
	}
	if *fn == "" {
		fmt.Fprintf(os.Stderr, "Invalid arguments\n")
		flag.Usage()
		os.Exit(1)
	}

	f, err := elfreader.Open(*fn)
	if err != nil {
		LogError("%s: %v", *fn, err)
		os.Exit(1)
	}
	defer f.Close()

	e := &TypeElf{path: *fn, file: f}
	if *verbose {
		Printf("%s: %s %s, %d segments, %d sections, %d symbols\n", *fn, f.Ident.Class, f.Ident.Data,
			len(f.Progs), f.Sections.Len(), len(f.Symbols.Symbols))
	}

	var cmds []string
	if *header {
		cmds = append(cmds, "header")
	}
	if *segments {
		cmds = append(cmds, "segments")
	}
	if *sections {
		cmds = append(cmds, "sections")
	}
	if *symbols {
		cmds = append(cmds, "sym")
	}
	if *linked {
		cmds = append(cmds, "linked")
	}
	if *needed {
		cmds = append(cmds, "needed")
	}
	if *dump != "" {
		cmds = append(cmds, "dump "+*dump)
	}

	if len(cmds) == 0 && !*interactive {
		cmds = append(cmds, "linked")
	}
	failed := false
	for _, cmd := range cmds {
		if err := e.cmdExec(cmd); err != nil {
			LogError("%s: %v", cmd, err)
			failed = true
		}
	}
	if *interactive {
		e.Interactive()
	}
	if failed {
		f.Close()
		os.Exit(1)
	}
}
