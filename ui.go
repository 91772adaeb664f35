package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"

	elfreader "fastElf/elf"
)

type TypeElf struct {
	path        string
	file        *elfreader.File
	interactive bool
}

func (e *TypeElf) sectionNames(string) []string {
	var names []string
	for _, sec := range e.file.Sections.All() {
		names = append(names, sec.Name)
	}
	return names
}

func (e *TypeElf) symbolNames(string) []string {
	return e.file.Symbols.Names()
}

func (e *TypeElf) completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("header"),
		readline.PcItem("segments"),
		readline.PcItem("sections"),
		readline.PcItem("sym"),
		readline.PcItem("info", readline.PcItemDynamic(e.symbolNames)),
		readline.PcItem("linked"),
		readline.PcItem("needed"),
		readline.PcItem("dump", readline.PcItemDynamic(e.sectionNames)),
		readline.PcItem("strings", readline.PcItemDynamic(e.sectionNames)),
		readline.PcItem("pick"),
		readline.PcItem("color"),
		readline.PcItem("help"),
	)
}

func (e *TypeElf) Interactive() {
	e.interactive = true
	prev := ""

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            fmt.Sprintf("[%sfastElf%s:%s%s%s]$ ", ColorCyan, ColorReset, ColorCyan, filepath.Base(e.path), ColorReset),
		HistoryFile:       filepath.Join(os.TempDir(), "fastelf_history.txt"),
		AutoComplete:      e.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			switch r {
			case readline.CharCtrlZ:
				return r, false
			}
			return r, true
		},
	})
	if err != nil {
		LogError("readline: %v", err)
		return
	}
	defer rl.Close()

	for {
		req, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				break
			}
			continue
		}

		if req == "" {
			if prev == "" {
				continue
			}
			req = prev
		}

		if req == "q" || req == "exit" || req == "quit" {
			break
		}

		prev = req

		if err := e.cmdExec(req); err != nil {
			LogError(err.Error())
		}
	}
}
