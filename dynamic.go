package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"

	elfreader "fastElf/elf"
)

var errNoDynamic = errors.New("no .dynamic section")

type dynEntry struct {
	Tag elf.DynTag
	Val uint64
}

// parseDynamic decodes dynamic entries up to and excluding DT_NULL.
func parseDynamic(data []byte, order binary.ByteOrder, wordSize int) ([]dynEntry, error) {
	size := 2 * wordSize
	var entries []dynEntry
	for off := 0; off+size <= len(data); off += size {
		var e dynEntry
		if wordSize == 8 {
			e.Tag = elf.DynTag(int64(order.Uint64(data[off:])))
			e.Val = order.Uint64(data[off+8:])
		} else {
			e.Tag = elf.DynTag(int32(order.Uint32(data[off:])))
			e.Val = uint64(order.Uint32(data[off+4:]))
		}
		if e.Tag == elfreader.DT_NULL {
			return entries, nil
		}
		entries = append(entries, e)
	}
	return nil, fmt.Errorf("dynamic section has no %v terminator", elfreader.DT_NULL)
}

// dynamicInfo is what the CLI reports about the dynamic section.
type dynamicInfo struct {
	Needed     []string
	PLTRelSize uint64
}

func readDynamic(f *elfreader.File) (*dynamicInfo, error) {
	dyn, ok := f.Sections.Lookup(".dynamic")
	if !ok {
		return nil, errNoDynamic
	}
	data, err := f.Sections.Load(dyn)
	if err != nil {
		return nil, err
	}
	strsec := f.Sections.ByIndex(int(dyn.Header.Link))
	if strsec == nil || strsec.Header.Type != elf.SHT_STRTAB {
		return nil, fmt.Errorf(".dynamic links to section %d, not a string table", dyn.Header.Link)
	}
	strtab, err := f.Sections.Load(strsec)
	if err != nil {
		return nil, err
	}

	entries, err := parseDynamic(data, f.Info.ByteOrder, f.Info.WordSize)
	if err != nil {
		return nil, err
	}
	needed, err := neededLibraries(entries, strtab)
	if err != nil {
		return nil, err
	}
	return &dynamicInfo{Needed: needed, PLTRelSize: pltRelSize(entries)}, nil
}

// neededLibraries lists the DT_NEEDED names in table order.
func neededLibraries(entries []dynEntry, strtab []byte) ([]string, error) {
	var libs []string
	for _, e := range entries {
		if e.Tag != elfreader.DT_NEEDED {
			continue
		}
		if e.Val >= uint64(len(strtab)) {
			return nil, fmt.Errorf("DT_NEEDED name offset 0x%x outside string table", e.Val)
		}
		end := bytes.IndexByte(strtab[e.Val:], 0)
		if end < 0 {
			return nil, fmt.Errorf("DT_NEEDED name at 0x%x is unterminated", e.Val)
		}
		libs = append(libs, string(strtab[e.Val:e.Val+uint64(end)]))
	}
	return libs, nil
}

// pltRelSize returns DT_PLTRELSZ, or 0 when absent.
func pltRelSize(entries []dynEntry) uint64 {
	for _, e := range entries {
		if e.Tag == elfreader.DT_PLTRELSZ {
			return e.Val
		}
	}
	return 0
}
