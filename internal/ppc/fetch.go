// fetch.go - segment-aware fetch pointer shared by the interpreter and the
// IR decoder.
package ppc

import (
	"encoding/binary"
	"fmt"

	"github.com/retrosys/drppc/internal/mmap"
)

// ErrBadPC is returned when PC (or a branch target) resolves to no fetch
// region.
var ErrBadPC = fmt.Errorf("ppc: BadPC")

// UpdateFetchPtr resolves the fetch region containing pc if the cached
// region does not already contain it, and caches the in-region offset so
// Fetch() can avoid a table lookup on every instruction.
func (c *Context) UpdateFetchPtr(m *mmap.Map, pc uint32) error {
	if c.fetchRegion != nil && pc >= c.fetchRegion.Start && pc < c.fetchRegion.End {
		c.fetchOffset = pc - c.fetchRegion.Start
		return nil
	}
	r := m.FindFetchRegion(pc)
	if r == nil {
		c.fetchRegion = nil
		return fmt.Errorf("%w: fetch at %#08x", ErrBadPC, pc)
	}
	c.fetchRegion = r
	c.fetchOffset = pc - r.Start
	return nil
}

// HasFetchRegion reports whether pc currently resolves to a fetch region,
// without mutating the cached pointer. Used by the BB directory's BadPC
// check before allocating a fresh entry.
func HasFetchRegion(m *mmap.Map, pc uint32) bool {
	return m.FindFetchRegion(pc) != nil
}

// Fetch returns the 32-bit instruction word at the context's cached fetch
// position. UpdateFetchPtr must have been called with the current PC first;
// Fetch does not itself advance PC (the caller does that, per the
// top-level loop: `PC += 4`).
func (c *Context) Fetch() (uint32, error) {
	r := c.fetchRegion
	if r == nil {
		return 0, ErrBadPC
	}
	if r.Ptr == nil {
		// Handler-backed fetch region: four single-byte handler reads,
		// big-endian assembled. The BigEndian flag is a buffer-backed
		// field and is not consulted here; the buffer path below does
		// byte-swap the fetched word when BigEndian is false.
		addr := r.Start + c.fetchOffset
		b0 := uint32(r.ReadFn8(addr))
		b1 := uint32(r.ReadFn8(addr + 1))
		b2 := uint32(r.ReadFn8(addr + 2))
		b3 := uint32(r.ReadFn8(addr + 3))
		return b0<<24 | b1<<16 | b2<<8 | b3, nil
	}

	off := c.fetchOffset
	if int(off)+4 > len(r.Ptr) {
		return 0, fmt.Errorf("%w: fetch crosses region boundary at offset %d", ErrBadPC, off)
	}
	word := binary.BigEndian.Uint32(r.Ptr[off:])
	if !r.BigEndian {
		word = swap32(word)
	}
	return word, nil
}

func swap32(v uint32) uint32 {
	return v<<24 | (v&0xFF00)<<8 | (v>>8)&0xFF00 | v>>24
}
