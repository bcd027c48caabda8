// discover.go - static block discovery (spec §4.6, component C6).
//
// Grounded on original_source/src/codegen.c's machine_genblock loop and
// the stack.c/set.c structures it walks with: the worklist holds one
// guest pc per reachable instruction (not a straight-line run of several),
// and each popped pc becomes one labeled node in the region, chained to
// its fall-through successor only. Every JAL and every taken conditional
// branch now always leaves the region through exit_reason (spec §4.3),
// the same as jalr/ecall/ebreak, so no direct-control-flow target is ever
// internalized as a same-region node; a not-taken conditional branch
// still falls through within the region. This matches
// dedup-on-push stack.c (cap 256) and open-addressed set.c (cap 32K)
// exactly; emit.go walks region.nodes in discovery order to produce the
// same "inst_<pc>: { ... }" shape codegen.c emits.
package main

const (
	blockStackCap = 256
	visitedSetCap = 32 * 1024
)

// blockStack is a small dedup-on-push LIFO worklist of guest addresses.
type blockStack struct {
	elems []GuestAddr
}

func (s *blockStack) push(pc GuestAddr) {
	assertf(len(s.elems) < blockStackCap, "discover: worklist overflow %d", blockStackCap)
	for _, e := range s.elems {
		if e == pc {
			return
		}
	}
	s.elems = append(s.elems, pc)
}

func (s *blockStack) pop() (GuestAddr, bool) {
	if len(s.elems) == 0 {
		return 0, false
	}
	n := len(s.elems) - 1
	pc := s.elems[n]
	s.elems = s.elems[:n]
	return pc, true
}

// visitedSet is an open-addressed hash set of guest addresses, matching
// set.c's fixed-size linear-probe table.
type visitedSet struct {
	table [visitedSetCap]GuestAddr
}

func visitedHash(pc uint64) uint64 { return pc % visitedSetCap }

// add reports whether pc was newly inserted (false if already present).
func (v *visitedSet) add(pc GuestAddr) bool {
	assertf(pc != 0, "discover: pc 0 cannot be visited")

	index := visitedHash(uint64(pc))
	searchCount := 0
	for v.table[index] != 0 {
		if v.table[index] == pc {
			return false
		}
		index = visitedHash(index + 1)
		searchCount++
		assertf(searchCount <= maxSearchCount, "discover: visited-set probe chain exceeded %d", maxSearchCount)
	}
	v.table[index] = pc
	return true
}

// node is one statically reachable instruction within a region: its
// address and decoded form. The fall-through successor, when the
// instruction isn't a terminator, is pc+len(inst) — emit.go recomputes
// that rather than storing it here, exactly as codegen.c recomputes it
// from inst.rvc at emission time.
type node struct {
	pc   GuestAddr
	inst Inst
}

// region is the full statically-reachable instruction graph rooted at an
// entry pc: every node its fall-through edge leads to, stopping at every
// Cont instruction (jal, jalr, ecall, ebreak) and at the taken edge of a
// conditional branch, all of which exit the region through exit_reason
// (spec §4.6). fence/fence.i are ordinary fall-through nodes: this core
// has no pipeline/cache state for them to order, so they never leave the
// region. Discovery order is preserved because emit.go's label layout
// should be stable across runs for the same guest code.
type region struct {
	nodes []node
}

// discoverRegion walks the reachability graph from entry exactly as
// machine_genblock does: pop a pc, decode one instruction there, push its
// fall-through successor when the instruction doesn't terminate the
// region, and stop pushing new work once a pc has already been visited.
func (mc *Machine) discoverRegion(entry GuestAddr) *region {
	var stack blockStack
	var visited visitedSet
	r := &region{}

	stack.push(entry)

	for {
		pc, ok := stack.pop()
		if !ok {
			break
		}
		if !visited.add(pc) {
			continue
		}

		word := mc.fetch32(pc)
		inst := Decode(word)
		r.nodes = append(r.nodes, node{pc: pc, inst: inst})

		if !inst.Cont {
			stack.push(pc + instLen(&inst))
		}
	}

	return r
}
