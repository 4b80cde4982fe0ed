// bbdir.go - sparse three-level paged directory mapping a PowerPC
// instruction address to a BlockInfo record: page1 and page2 index
// lazily-allocated intermediate tables, offs indexes the leaf array of
// per-address records, and ignore drops the low alignment bits.
//
// The intermediate tables and leaves live on the Go heap; the BlockInfo
// records themselves are carved out of the engine's intermediate arena via
// Grab, so Invalidate reclaims them all with a single arena Reset.
package bbdir

import (
	"fmt"
	"unsafe"

	"github.com/retrosys/drppc/internal/arena"
)

// BlockInfo is the directory's payload: an execution counter, the native
// entry point once translated, and optional profiling data.
type BlockInfo struct {
	Count     uint32
	NativePtr uintptr // 0 until Decode fills it
	Cycles    uint32  // the translated block's total SYNC cost, valid iff NativePtr != 0
	Profile   uint64  // rdtsc delta, valid only when profiling is enabled
}

// Config partitions a 32-bit address into ignore|page1|page2|offset fields.
// The four bit widths must sum to AddressBits.
type Config struct {
	AddressBits int
	Page1Bits   int
	Page2Bits   int
	OffsBits    int
	IgnoreBits  int
}

func (c Config) validate() error {
	sum := c.Page1Bits + c.Page2Bits + c.OffsBits + c.IgnoreBits
	if sum != c.AddressBits {
		return fmt.Errorf("bbdir: page1(%d)+page2(%d)+offs(%d)+ignore(%d) = %d != address_bits(%d)",
			c.Page1Bits, c.Page2Bits, c.OffsBits, c.IgnoreBits, sum, c.AddressBits)
	}
	if c.AddressBits <= 0 || c.AddressBits > 32 {
		return fmt.Errorf("bbdir: address_bits %d out of range", c.AddressBits)
	}
	return nil
}

type leaf []*BlockInfo // indexed by offs field, length 1<<OffsBits
type page2 []leaf      // indexed by page2 field, length 1<<Page2Bits
type page1 []page2     // indexed by page1 field, length 1<<Page1Bits

// Directory is the default three-level paged BB lookup table. Hosts may
// substitute their own implementation satisfying the same Lookup/Invalidate
// contract; Directory is what the engine uses when none is
// supplied.
type Directory struct {
	cfg   Config
	pages page1
	a     *arena.Arena

	page1Bits, page2Bits, offsBits, ignoreBits uint
	page1Mask, page2Mask, offsMask             uint32
}

// Setup builds an empty Directory for cfg, backed by a (initially empty)
// top-level page slice. Lookup's fetchOK argument keeps a directory entry
// from being created for an address with no fetch region (the BadPC check).
func Setup(cfg Config, a *arena.Arena) (*Directory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	d := &Directory{
		cfg:        cfg,
		a:          a,
		page1Bits:  uint(cfg.Page1Bits),
		page2Bits:  uint(cfg.Page2Bits),
		offsBits:   uint(cfg.OffsBits),
		ignoreBits: uint(cfg.IgnoreBits),
	}
	d.page1Mask = (1 << uint(cfg.Page1Bits)) - 1
	d.page2Mask = (1 << uint(cfg.Page2Bits)) - 1
	d.offsMask = (1 << uint(cfg.OffsBits)) - 1
	d.pages = make(page1, 1<<uint(cfg.Page1Bits))
	return d, nil
}

func (d *Directory) split(addr uint32) (p1, p2, offs uint32) {
	shifted := addr >> d.ignoreBits
	offs = shifted & d.offsMask
	p2 = (shifted >> d.offsBits) & d.page2Mask
	p1 = (shifted >> (d.offsBits + d.page2Bits)) & d.page1Mask
	return
}

// Lookup returns the BlockInfo for addr, allocating intermediate pages and
// the BlockInfo itself on first touch. fetchOK must be true for a fresh
// BlockInfo to be created; an address with no fetch region never gets an
// entry, and neither does one with bits set above the configured
// address_bits (both are the BadPC check).
func (d *Directory) Lookup(addr uint32, fetchOK bool) (*BlockInfo, error) {
	if d.cfg.AddressBits < 32 && addr>>uint(d.cfg.AddressBits) != 0 {
		return nil, fmt.Errorf("bbdir: BadPC at %#08x (outside the %d-bit address space)", addr, d.cfg.AddressBits)
	}
	p1, p2, offs := d.split(addr)

	if d.pages[p1] == nil {
		if !fetchOK {
			return nil, fmt.Errorf("bbdir: BadPC at %#08x (no fetch region)", addr)
		}
		d.pages[p1] = make(page2, 1<<d.page2Bits)
	}

	lvl2 := d.pages[p1]
	if lvl2[p2] == nil {
		if !fetchOK {
			return nil, fmt.Errorf("bbdir: BadPC at %#08x (no fetch region)", addr)
		}
		lvl2[p2] = make(leaf, 1<<d.offsBits)
	}

	lvl3 := lvl2[p2]
	if lvl3[offs] == nil {
		if !fetchOK {
			return nil, fmt.Errorf("bbdir: BadPC at %#08x (no fetch region)", addr)
		}
		info, err := d.newBlockInfo()
		if err != nil {
			return nil, err
		}
		lvl3[offs] = info
	}
	return lvl3[offs], nil
}

// newBlockInfo carves a single zeroed BlockInfo out of the directory's
// arena, 8-byte aligned so the uintptr/uint64 fields never straddle a word
// the host can't atomically touch.
func (d *Directory) newBlockInfo() (*BlockInfo, error) {
	if err := d.a.Align(8); err != nil {
		return nil, err
	}
	buf, err := d.a.Grab(int(unsafe.Sizeof(BlockInfo{})))
	if err != nil {
		return nil, err
	}
	info := (*BlockInfo)(unsafe.Pointer(&buf[0]))
	*info = BlockInfo{}
	return info, nil
}

// Invalidate walks the table freeing everything and zeroing the top level.
// It is the sole recovery primitive for code-cache overflow and for any
// self-modifying-code event the host declares. The backing
// arena is reset too: every BlockInfo handed out so far was carved
// from it (the page tables themselves are Go heap slices), so leaving it untouched would let repeated overflow-recovery
// cycles exhaust it even though the directory above it is logically empty
// (testable property §8.7 depends on this — no BlockInfo.NativePtr survives
// past Invalidate).
func (d *Directory) Invalidate() {
	for i := range d.pages {
		d.pages[i] = nil
	}
	d.a.Reset()
}

// Clean releases the directory entirely; the Directory must not be used
// afterward.
func (d *Directory) Clean() {
	d.pages = nil
}
