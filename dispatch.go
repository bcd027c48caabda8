// dispatch.go - outer/inner dispatch loop chaining interpreted and
// compiled blocks (spec §4.8, component C9). Grounded on spec.md's
// description of machine_step's two-level loop and the teacher's
// Execute() outer-loop shape in cpu_ie64.go (a flat "keep going until
// something says stop" loop with no interface dispatch in the hot path).
// original_source never defines machine_step itself (like machine_setup,
// it's declared in rvemu.h but its body isn't present in the filtered
// corpus); the call-through-a-function-pointer shape for compiled code is
// the well-known rvemu idiom: `((void (*)(state_t *))code)(state)`.
package main

import "unsafe"

// Run drives the guest to completion: each Step runs until it services a
// syscall (and keeps going) or, for sysExit/sysExitGroup, never returns at
// all (os.Exit).
func (mc *Machine) Run() {
	for {
		mc.Step()
	}
}

// Step runs blocks until the guest issues an ecall, per spec §4.8's
// outer/inner loop: the outer loop picks a block function for the current
// pc (a cached compiled block, a freshly compiled one once the pc goes
// hot, or the interpreter); the inner loop keeps executing and chaining
// blocks through their exit reason without returning to the outer pc
// lookup, as long as each successive reenter_pc already has compiled code
// cached. A cache miss on reenter_pc breaks back out to the outer loop,
// which retries pc through the full promotion path.
func (mc *Machine) Step() {
	for {
		pc := mc.State.PC
		code := mc.Cache.Lookup(pc)
		if code == nil && mc.Cache.Hot(pc) {
			code = mc.Compile(mc.discoverRegion(pc))
		}

		for {
			mc.State.Exit = ExitNone
			if code != nil {
				mc.execCompiled(code)
			} else {
				mc.InterpretBlock()
			}
			assertf(mc.State.Exit != ExitNone, "dispatch: block entered at pc %#x left exit_reason none", pc)

			switch mc.State.Exit {
			case ExitECall:
				mc.State.PC = mc.State.ReenterPC
				mc.State.Exit = ExitNone
				ret := mc.doSyscall(mc.State.GetGP(RegA7))
				mc.State.SetGP(RegA0, ret)
				return

			case ExitDirectBranch, ExitIndirectBranch:
				pc = mc.State.ReenterPC
				mc.State.PC = pc
				if next := mc.Cache.Lookup(pc); next != nil {
					code = next
					continue
				}
			}
			break
		}
	}
}

// execCompiled jumps into a compiled block's native code, which operates
// directly on mc.State through the state_t* pointer emit.go's generated
// C assumes. This is the one deliberately unsafe operation in the core:
// code is trusted because it was produced by compile.go from our own
// generated C source, never from guest-controlled bytes.
func (mc *Machine) execCompiled(code []byte) {
	assertf(len(code) > 0, "dispatch: empty compiled block")
	fnPtr := uintptr(unsafe.Pointer(&code[0]))
	fn := *(*func(*State))(unsafe.Pointer(&fnPtr))
	fn(mc.State)
}
