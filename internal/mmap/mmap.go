// mmap.go - typed memory map for the PowerPC core: address-to-region lookup
// with big/little-endian fix-up, and the generic slow-path read/write shared
// by the interpreter and the emitted code.
//
// Modeled on a region-table/first-match-lookup/endian-aware-buffer-access
// design, generalized from a single 32-bit little-endian bus to seven
// typed fetch/read/write tables.
package mmap

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// Region is a half-open [Start, End) range in the 32-bit address space with
// one of two personalities: buffer-backed (a host byte slice) or
// handler-backed (read/write callback functions).
type Region struct {
	Start, End uint32

	// Buffer-backed fields. Ptr is nil for a handler-backed region.
	Ptr         []byte
	BigEndian   bool
	Volatile    bool // pointer may not be inlined into emitted code

	// Handler-backed fields, used when Ptr is nil. Setup does not check
	// that they are set on a handler-backed entry or unset on a buffer one.
	ReadFn8   func(addr uint32) uint8
	ReadFn16  func(addr uint32) uint16
	ReadFn32  func(addr uint32) uint32
	ReadFn64  func(addr uint32) uint64
	WriteFn8  func(addr uint32, v uint8)
	WriteFn16 func(addr uint32, v uint16)
	WriteFn32 func(addr uint32, v uint32)
	WriteFn64 func(addr uint32, v uint64)
}

func (r *Region) contains(addr uint32) bool {
	return addr >= r.Start && addr < r.End
}

func (r *Region) handlerBacked() bool { return r.Ptr == nil }

// Config carries the seven region tables: one for fetch, three for reads
// (byte/half/word), three for writes (byte/half/word). 64-bit load/store is
// routed through two 32-bit accesses by this package's GenericRead64 and
// GenericWrite64, so there is no separate 64-bit
// table.
type Config struct {
	Fetch      []Region
	Read8      []Region
	Read16     []Region
	Read32     []Region
	Write8     []Region
	Write16    []Region
	Write32    []Region
	HostIsBig  bool // endianness of the executing host; informs byte-swap decisions
}

// Map is the runtime memory map built from a Config. It must be non-empty
// and free of overlaps in every table, checked once at Setup.
type Map struct {
	fetch, read8, read16, read32 []Region
	write8, write16, write32     []Region
	hostIsBig                    bool
}

// ErrBadAddress is returned (wrapped with the offending address) when no
// region in the requested table contains the address.
var ErrBadAddress = fmt.Errorf("mmap: bad address")

// ErrInvalidConfig is returned by Setup when a table is empty or contains
// overlapping regions.
var ErrInvalidConfig = fmt.Errorf("mmap: invalid configuration")

// Setup validates cfg and returns a ready-to-use Map. Every table must be
// non-empty; no two regions in the same table may overlap. This must be
// called before the engine starts: a malformed table is a fatal
// configuration error, not a deferred runtime one.
func Setup(cfg Config) (*Map, error) {
	tables := []struct {
		name string
		rs   []Region
	}{
		{"fetch", cfg.Fetch},
		{"read8", cfg.Read8}, {"read16", cfg.Read16}, {"read32", cfg.Read32},
		{"write8", cfg.Write8}, {"write16", cfg.Write16}, {"write32", cfg.Write32},
	}
	for _, t := range tables {
		if len(t.rs) == 0 {
			return nil, fmt.Errorf("%w: table %q is empty", ErrInvalidConfig, t.name)
		}
		if err := checkOverlaps(t.rs); err != nil {
			return nil, fmt.Errorf("%w: table %q: %v", ErrInvalidConfig, t.name, err)
		}
	}
	return &Map{
		fetch: cfg.Fetch, read8: cfg.Read8, read16: cfg.Read16, read32: cfg.Read32,
		write8: cfg.Write8, write16: cfg.Write16, write32: cfg.Write32,
		hostIsBig: cfg.HostIsBig,
	}, nil
}

func checkOverlaps(rs []Region) error {
	for i := range rs {
		if rs[i].Start >= rs[i].End {
			return fmt.Errorf("region %d has empty or inverted range [%#x,%#x)", i, rs[i].Start, rs[i].End)
		}
		for j := i + 1; j < len(rs); j++ {
			if rs[i].Start < rs[j].End && rs[j].Start < rs[i].End {
				return fmt.Errorf("regions %d and %d overlap", i, j)
			}
		}
	}
	return nil
}

func find(rs []Region, addr uint32) *Region {
	for i := range rs {
		if rs[i].contains(addr) {
			return &rs[i]
		}
	}
	return nil
}

// FindFetchRegion returns the region containing addr in the fetch table, or
// nil if none matches.
func (m *Map) FindFetchRegion(addr uint32) *Region { return find(m.fetch, addr) }

// FindReadRegion returns the region containing addr in the read table for
// the given access width (8, 16 or 32), or nil.
func (m *Map) FindReadRegion(width int, addr uint32) *Region {
	switch width {
	case 8:
		return find(m.read8, addr)
	case 16:
		return find(m.read16, addr)
	case 32:
		return find(m.read32, addr)
	default:
		panic("mmap: invalid read width")
	}
}

// FindWriteRegion returns the region containing addr in the write table for
// the given access width, or nil.
func (m *Map) FindWriteRegion(width int, addr uint32) *Region {
	switch width {
	case 8:
		return find(m.write8, addr)
	case 16:
		return find(m.write16, addr)
	case 32:
		return find(m.write32, addr)
	default:
		panic("mmap: invalid write width")
	}
}

// InlineLoadTarget and InlineStoreTarget resolve addr at translate time
// rather than at run time: they are the one way a caller outside this
// package may bypass GenericReadN/WriteN, used by internal/x86emit's
// constant-address lowering to inline a buffer-backed load/store as a plain
// mov instead of a call back into the generic path. ok is false — and the
// caller must fall back to the generic path — whenever addr resolves to no
// region, a handler-backed region, a region marked Volatile (its pointer
// must not be baked into emitted code), or an access that is not wholly
// contained in the region (the boundary-crossing case §8 calls out, which
// only the byte-granular generic path may stitch across regions). swap
// reports whether the returned bytes need a byte-swap to present
// host-native order, matching GenericReadN/WriteN's own fix-up rule.
func (m *Map) InlineLoadTarget(width int, addr uint32) (hostAddr uintptr, swap bool, ok bool) {
	return inlineTarget(m.FindReadRegion(width, addr), addr, width, m.hostIsBig)
}

func (m *Map) InlineStoreTarget(width int, addr uint32) (hostAddr uintptr, swap bool, ok bool) {
	return inlineTarget(m.FindWriteRegion(width, addr), addr, width, m.hostIsBig)
}

func inlineTarget(r *Region, addr uint32, width int, hostIsBig bool) (uintptr, bool, bool) {
	if r == nil || r.handlerBacked() || r.Volatile {
		return 0, false, false
	}
	if uint32(width/8) > r.End-addr {
		return 0, false, false
	}
	off := addr - r.Start
	return uintptr(unsafe.Pointer(&r.Ptr[off])), r.BigEndian != hostIsBig, true
}

// GenericRead8/16/32/64 and GenericWrite8/16/32/64 are the slow-path
// accessors used both by the interpreter and by emitted code whose
// effective address is not known at translate time. A missing region is a
// fatal RuntimeError(BadAddress), never a silent zero.

func (m *Map) GenericRead8(addr uint32) (uint8, error) {
	r := m.FindReadRegion(8, addr)
	if r == nil {
		return 0, fmt.Errorf("%w: read8 %#08x", ErrBadAddress, addr)
	}
	if r.handlerBacked() {
		return r.ReadFn8(addr), nil
	}
	off := addr - r.Start
	return r.Ptr[off], nil
}

func (m *Map) GenericWrite8(addr uint32, v uint8) error {
	r := m.FindWriteRegion(8, addr)
	if r == nil {
		return fmt.Errorf("%w: write8 %#08x", ErrBadAddress, addr)
	}
	if r.handlerBacked() {
		r.WriteFn8(addr, v)
		return nil
	}
	off := addr - r.Start
	r.Ptr[off] = v
	return nil
}

func (m *Map) GenericRead16(addr uint32) (uint16, error) {
	r := m.FindReadRegion(16, addr)
	if r == nil {
		return 0, fmt.Errorf("%w: read16 %#08x", ErrBadAddress, addr)
	}
	if r.handlerBacked() {
		return r.ReadFn16(addr), nil
	}
	off := addr - r.Start
	v := binary.LittleEndian.Uint16(r.Ptr[off:])
	if r.BigEndian != m.hostIsBig {
		v = swap16(v)
	}
	return v, nil
}

func (m *Map) GenericWrite16(addr uint32, v uint16) error {
	r := m.FindWriteRegion(16, addr)
	if r == nil {
		return fmt.Errorf("%w: write16 %#08x", ErrBadAddress, addr)
	}
	if r.handlerBacked() {
		r.WriteFn16(addr, v)
		return nil
	}
	if r.BigEndian != m.hostIsBig {
		v = swap16(v)
	}
	off := addr - r.Start
	binary.LittleEndian.PutUint16(r.Ptr[off:], v)
	return nil
}

func (m *Map) GenericRead32(addr uint32) (uint32, error) {
	r := m.FindReadRegion(32, addr)
	if r == nil {
		return 0, fmt.Errorf("%w: read32 %#08x", ErrBadAddress, addr)
	}
	if r.handlerBacked() {
		return r.ReadFn32(addr), nil
	}
	off := addr - r.Start
	v := binary.LittleEndian.Uint32(r.Ptr[off:])
	if r.BigEndian != m.hostIsBig {
		v = swap32(v)
	}
	return v, nil
}

func (m *Map) GenericWrite32(addr uint32, v uint32) error {
	r := m.FindWriteRegion(32, addr)
	if r == nil {
		return fmt.Errorf("%w: write32 %#08x", ErrBadAddress, addr)
	}
	if r.handlerBacked() {
		r.WriteFn32(addr, v)
		return nil
	}
	if r.BigEndian != m.hostIsBig {
		v = swap32(v)
	}
	off := addr - r.Start
	binary.LittleEndian.PutUint32(r.Ptr[off:], v)
	return nil
}

// GenericRead64/Write64 compose two 32-bit accesses at +0/+4 in big-endian
// order on the source side, matching the emitter's lowering for mismatched
// 64-bit memory ops.
func (m *Map) GenericRead64(addr uint32) (uint64, error) {
	hi, err := m.GenericRead32(addr)
	if err != nil {
		return 0, err
	}
	lo, err := m.GenericRead32(addr + 4)
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

func (m *Map) GenericWrite64(addr uint32, v uint64) error {
	if err := m.GenericWrite32(addr, uint32(v>>32)); err != nil {
		return err
	}
	return m.GenericWrite32(addr+4, uint32(v))
}

func swap16(v uint16) uint16 { return v<<8 | v>>8 }
func swap32(v uint32) uint32 {
	return v<<24 | (v&0xFF00)<<8 | (v>>8)&0xFF00 | v>>24
}
