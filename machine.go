// machine.go - top-level machine: state + MMU + code cache (spec §3,
// component C3/C9 glue). Grounded on original_source/src/machine.c.
package main

import "os"

// Machine ties together everything a running guest needs: its register
// file, its address space, and the code cache the dispatcher consults.
type Machine struct {
	State *State
	MMU   *MMU
	Cache *Cache
}

// NewMachine returns a Machine with no program loaded.
func NewMachine() *Machine {
	return &Machine{
		State: &State{},
		MMU:   NewMMU(),
		Cache: NewCache(),
	}
}

// LoadProgram loads the RV64 static executable at path and points the
// program counter at its entry, mirroring machine_load_program.
func (mc *Machine) LoadProgram(path string) {
	f, err := os.Open(path)
	if err != nil {
		fatalf("machine: %v", err)
	}
	defer f.Close()

	g := LoadGuestELF(path)
	mc.MMU.LoadELF(g, int(f.Fd()))
	mc.State.PC = mc.MMU.Entry
}

const defaultStackSize = 32 * 1024 * 1024

// Setup builds a guest stack carrying argc/argv/envp/auxv in the layout
// the RISC-V Linux startup code (_start/__libc_start_main) expects, and
// points the stack pointer at it. original_source's machine_setup is
// referenced but not defined anywhere in the retained sources, so this
// follows the standard ELF process-startup convention instead (argv
// strings, then a NULL-terminated argv vector, a NULL-terminated (empty)
// envp vector, a single AT_NULL auxv entry, then argc at the lowest
// address, 16-byte aligned).
func (mc *Machine) Setup(args []string) {
	base := mc.MMU.Alloc(defaultStackSize)
	top := base + GuestAddr(defaultStackSize)

	strAddrs := make([]GuestAddr, len(args))
	cur := top
	for i := len(args) - 1; i >= 0; i-- {
		s := args[i]
		cur -= GuestAddr(len(s) + 1)
		mc.MMU.Write(cur, append([]byte(s), 0))
		strAddrs[i] = cur
	}
	// Below this point 5+len(args) 8-byte words follow (auxv pair, envp
	// NULL, argv NULL, argv entries, argc); pad so argc lands 16-aligned.
	cur = GuestAddr(roundDown(uint64(cur), 16))
	if (5+len(args))%2 != 0 {
		cur -= 8
	}

	// auxv: a single AT_NULL (type 0, value 0) terminator.
	cur -= 16
	writeWordsAt(mc.MMU, cur, 0, 0)

	// envp: empty, NULL-terminated.
	cur -= 8
	writeWordsAt(mc.MMU, cur, 0)

	// argv: NULL-terminated vector of guest string addresses.
	cur -= 8 // NULL terminator
	writeWordsAt(mc.MMU, cur, 0)
	for i := len(args) - 1; i >= 0; i-- {
		cur -= 8
		writeWordsAt(mc.MMU, cur, uint64(strAddrs[i]))
	}

	// argc.
	cur -= 8
	writeWordsAt(mc.MMU, cur, uint64(len(args)))

	mc.State.GP[RegSP] = uint64(cur)
}

func writeWordsAt(mmu *MMU, addr GuestAddr, words ...uint64) {
	buf := make([]byte, 8*len(words))
	for i, w := range words {
		for b := 0; b < 8; b++ {
			buf[i*8+b] = byte(w >> (8 * b))
		}
	}
	mmu.Write(addr, buf)
}
