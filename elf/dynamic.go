package elf

import "debug/elf"

// Dynamic section tags needed to walk a dynamic section. The reader
// itself does not interpret the dynamic section.
const (
	DT_NULL     = elf.DT_NULL
	DT_NEEDED   = elf.DT_NEEDED
	DT_PLTRELSZ = elf.DT_PLTRELSZ
)
