// cache.go - code cache (spec §4.5, component C5).
//
// Open-addressed, linear-probed, direct-mapped by pc%CacheEntrySize, with
// a monotonic bump allocator over a 64 MiB anonymous RWX mapping.
// Grounded line-for-line on original_source/src/cache.c and
// include/cache.h (cache_lookup, cache_add, cache_hot).
package main

import "golang.org/x/sys/unix"

const (
	cacheEntrySize = 64 * 1024
	cacheSize      = 64 * 1024 * 1024
	maxSearchCount = 32
	cacheHotCount  = 100_000
)

type cacheItem struct {
	pc     GuestAddr
	hot    uint64
	offset uint64
	valid  bool
}

// Cache is the code cache: a hash table of guest pc to offset into a
// single RWX arena, plus a per-entry execution counter that gates
// promotion from interpreted to compiled (spec §4.5).
type Cache struct {
	jitcode []byte
	offset  uint64
	table   [cacheEntrySize]cacheItem
}

// NewCache allocates the RWX arena backing compiled code. Unlike the
// guest address space (mmu.go), this region has no fixed address
// requirement, so it uses the portable golang.org/x/sys/unix.Mmap rather
// than a raw MAP_FIXED syscall.
func NewCache() *Cache {
	jitcode, err := unix.Mmap(-1, 0, cacheSize,
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		fatalf("cache: mmap RWX arena failed: %v", err)
	}
	return &Cache{jitcode: jitcode}
}

func cacheHash(pc uint64) uint64 { return pc % cacheEntrySize }

// Lookup returns the host address of compiled code for pc if pc is both
// present and hot, or nil otherwise (cold or absent).
func (c *Cache) Lookup(pc GuestAddr) []byte {
	assertf(pc != 0, "cache: lookup of pc 0")

	index := cacheHash(uint64(pc))
	for c.table[index].valid {
		if c.table[index].pc == pc {
			if c.table[index].hot >= cacheHotCount {
				return c.jitcode[c.table[index].offset:]
			}
			break
		}
		index = cacheHash(index + 1)
	}
	return nil
}

// Add copies code into the arena at an alignment-respecting offset and
// records it under pc, evicting nothing: a full arena is a fatal error,
// matching cache_add's assert.
func (c *Cache) Add(pc GuestAddr, code []byte, align uint64) []byte {
	c.offset = alignTo(c.offset, align)
	assertf(c.offset+uint64(len(code)) <= cacheSize, "cache: arena exhausted")

	index := cacheHash(uint64(pc))
	searchCount := 0
	for c.table[index].valid && c.table[index].pc != pc {
		index = cacheHash(index + 1)
		searchCount++
		assertf(searchCount <= maxSearchCount, "cache: probe chain exceeded %d", maxSearchCount)
	}

	copy(c.jitcode[c.offset:], code)
	c.table[index] = cacheItem{pc: pc, offset: c.offset, valid: true, hot: c.table[index].hot}
	off := c.offset
	c.offset += uint64(len(code))
	return c.jitcode[off : off+uint64(len(code))]
}

// Hot increments pc's execution counter and reports whether it has
// crossed the promotion threshold, inserting a fresh zero-offset entry
// the first time pc is seen (cache_hot).
func (c *Cache) Hot(pc GuestAddr) bool {
	index := cacheHash(uint64(pc))
	searchCount := 0
	for c.table[index].valid {
		if c.table[index].pc == pc {
			if c.table[index].hot < cacheHotCount {
				c.table[index].hot++
			}
			return c.table[index].hot >= cacheHotCount
		}
		index = cacheHash(index + 1)
		searchCount++
		assertf(searchCount <= maxSearchCount, "cache: probe chain exceeded %d", maxSearchCount)
	}

	c.table[index] = cacheItem{pc: pc, hot: 1, valid: true}
	return false
}

func alignTo(val, align uint64) uint64 {
	if align == 0 {
		return val
	}
	return (val + align - 1) &^ (align - 1)
}
