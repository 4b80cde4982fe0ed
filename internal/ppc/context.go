// context.go - the PowerPC CPU context: every piece of architectural and
// engine-private state an engine instance owns exclusively between
// SetupContext and Shutdown.
package ppc

import (
	"github.com/retrosys/drppc/internal/dflow"
	"github.com/retrosys/drppc/internal/mmap"
)

// Model selects which PowerPC variant's exception vectors and MSR handling
// CheckIRQs uses — a runtime switch rather than a guessed single target.
type Model int

const (
	Model6xx Model = iota // 6xx/Gekko
	Model4xx
)

// Reservation is the single-address load-reserved/store-conditional latch
// used by lwarx/stwcx. No SMP arbitration is modeled.
type Reservation struct {
	Addr  uint32
	Valid bool
}

// FPR is one of the 32 floating-point registers, viewable as an int32,
// int64, float64, or a pair of float32s.
type FPR struct {
	Bits uint64
}

func (f FPR) AsInt32() int32     { return int32(uint32(f.Bits)) }
func (f FPR) AsInt64() int64     { return int64(f.Bits) }
func (f FPR) AsFloat64() float64 { return float64FromBits(f.Bits) }
func (f FPR) AsFloat32Pair() (hi, lo float32) {
	return float32FromBits(uint32(f.Bits >> 32)), float32FromBits(uint32(f.Bits))
}

func (f *FPR) SetFloat64(v float64)     { f.Bits = float64Bits(v) }
func (f *FPR) SetInt64(v int64)         { f.Bits = uint64(v) }
func (f *FPR) SetInt32(v int32)         { f.Bits = uint64(uint32(v)) }
func (f *FPR) SetFloat32Pair(hi, lo float32) {
	f.Bits = uint64(float32Bits(hi))<<32 | uint64(float32Bits(lo))
}

// CRField packs the four condition bits (LT, GT, EQ, SO) of one of the
// eight CR fields.
type CRField struct {
	LT, GT, EQ, SO bool
}

// XER packs the integer exception register's flag fields.
type XER struct {
	SO    bool
	OV    bool
	CA    bool
	Count uint8 // byte count field, used by string/multiple ops
}

// Timebase is the 56-bit source timebase counter stored in 56.2 fixed point
// so integer cycle counts never round away fractional ticks.
type Timebase struct {
	// raw holds the full 58-bit value (56 integer bits + 2 fractional bits)
	// in the low 58 bits of a uint64.
	raw uint64
}

const timebaseMask = (1 << 58) - 1

// Advance adds cycles (in whole ticks, shifted left 2 to align with the
// fractional field) to the timebase, wrapping modulo 58 bits per testable
// property §8.9.
func (t *Timebase) Advance(cycles uint32) {
	t.raw = (t.raw + uint64(cycles)<<2) & timebaseMask
}

// AdvanceFractional adds a sub-tick amount (0..3) directly to the
// fractional field, used when a SYNC's cycle cost does not evenly divide
// into whole timebase ticks.
func (t *Timebase) AdvanceFractional(subTicks uint32) {
	t.raw = (t.raw + uint64(subTicks)) & timebaseMask
}

// Integer56 returns the integer (56-bit) portion of the timebase.
func (t *Timebase) Integer56() uint64 { return t.raw >> 2 }

// ReadHi and ReadLo implement WriteTimebaseHi/Lo's round-trip partner,
// testable property §8.8.
func (t *Timebase) ReadHi() uint32 { return uint32(t.Integer56() >> 32) }
func (t *Timebase) ReadLo() uint32 { return uint32(t.Integer56()) }

// WriteHi/WriteLo replace the upper/lower 32 bits of the integer portion,
// preserving the fractional bits.
func (t *Timebase) WriteHi(v uint32) {
	cur := t.Integer56()
	cur = (uint64(v) << 32) | (cur & 0xFFFFFFFF)
	t.raw = ((cur << 2) | (t.raw & 0x3)) & timebaseMask
}

func (t *Timebase) WriteLo(v uint32) {
	cur := t.Integer56()
	cur = (cur &^ 0xFFFFFFFF) | uint64(v)
	t.raw = (cur << 2) | (t.raw & 0x3)
}

// Context is the complete PowerPC CPU state, owned exclusively by one
// engine instance. GetContext/SetContext perform a bulk
// copy of this struct; field order groups related state but carries no
// encoding meaning (the back-end computes displacements via
// unsafe.Offsetof, not positional assumptions).
type Context struct {
	GPR [32]uint32
	FPR [32]FPR
	CR  [8]CRField
	XER XER

	PC   uint32
	MSR  uint32
	FPSCR uint32

	LR  uint32
	CTR uint32

	SRR0 uint32 // saved PC on exception entry
	SRR1 uint32 // saved MSR on exception entry

	// Temp backs the IR's scratch dflow temporaries. The back-end keeps
	// every IR value context-memory-resident, including
	// temporaries, so each owning context carries its own scratch cells
	// rather than sharing a package-level array across concurrently running
	// contexts.
	Temp [dflow.TempCount]uint32

	SPR [1024]uint32
	SR  [16]uint32 // segment registers

	TB  Timebase
	DEC uint32

	Reservation Reservation

	IRQPending   bool
	DecExpired   bool

	// Fetch caching: the region and in-region pointer last resolved by
	// UpdateFetchPtr, so Fetch() need not re-resolve on every instruction.
	fetchRegion *mmap.Region
	fetchOffset uint32

	Model Model
}

// Reset zeroes architectural state back to power-on defaults. The reset PC
// is model-dependent
func (c *Context) Reset() {
	*c = Context{Model: c.Model}
	switch c.Model {
	case Model4xx:
		c.PC = 0xFFFFFFFC
	default:
		c.PC = 0xFFF00100
	}
}
