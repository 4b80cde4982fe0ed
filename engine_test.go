// engine_test.go - end-to-end behavior through the public Engine API: a
// minimal program's register effects, translation-threshold promotion,
// a byte-reversed store, decrementer exception entry, and native-cache
// exhaustion, plus the host-API round-trip laws (GetContext/SetContext),
// exercised against the real mmap/bbdir/ppc/x86emit stack the way
// cmd/drppcdemo does.
package drppc

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrosys/drppc/internal/mmap"
	"github.com/retrosys/drppc/internal/ppc"
)

func wordADDI(rd, ra uint32, simm int16) uint32 {
	return (14 << 26) | (rd&0x1F)<<21 | (ra&0x1F)<<16 | uint32(uint16(simm))
}

func wordBCLR() uint32 {
	return (19 << 26) | (20 << 21) | (16 << 1)
}

func wordXForm(primary, rS, rA, rB, ext uint32) uint32 {
	return (primary << 26) | (rS&0x1F)<<21 | (rA&0x1F)<<16 | (rB&0x1F)<<11 | (ext << 1)
}

// zeroPC returns c with PC reset to 0, for tests whose program sits at the
// start of a flatConfig RAM rather than at the power-on reset vector
// (0xFFF00100 for Model6xx, this package's default zero value) that
// flatConfig's small RAM buffers don't cover.
func zeroPC(c ppc.Context) ppc.Context {
	c.PC = 0
	return c
}

func flatConfig(ram []byte, hotThreshold uint32, interpretOnly bool) Config {
	r := mmap.Region{Start: 0, End: uint32(len(ram)), Ptr: ram, BigEndian: true}
	tbl := []mmap.Region{r}
	return Config{
		Print:                      func(string, ...any) {},
		NativeCacheSize:            1 << 16,
		NativeCacheGuardSize:       256,
		IntermediateCacheSize:      1 << 16,
		IntermediateCacheGuardSize: 256,
		HotThreshold:               hotThreshold,
		AddressBits:                32,
		Page1Bits:                  12,
		Page2Bits:                  12,
		OffsBits:                   6,
		IgnoreBits:                 2,
		InterpretOnly:              interpretOnly,
		MMap: mmap.Config{
			Fetch: tbl, Read8: tbl, Read16: tbl, Read32: tbl,
			Write8: tbl, Write16: tbl, Write32: tbl,
		},
	}
}

// TestHelloWorldPath runs "li r3, 0x2A; blr" at the default reset vector
// 0xFFF00100 with hot threshold 1, and must leave r3 = 0x2A and PC = LR (0).
func TestHelloWorldPath(t *testing.T) {
	ram := make([]byte, 0x1000)
	base := uint32(0xFFF00000)
	binary.BigEndian.PutUint32(ram[0x100:], wordADDI(3, 0, 0x2A))
	binary.BigEndian.PutUint32(ram[0x104:], wordBCLR())

	r := mmap.Region{Start: base, End: base + uint32(len(ram)), Ptr: ram, BigEndian: true}
	tbl := []mmap.Region{r}
	cfg := Config{
		Print:                      func(string, ...any) {},
		NativeCacheSize:            1 << 16,
		NativeCacheGuardSize:       256,
		IntermediateCacheSize:      1 << 16,
		IntermediateCacheGuardSize: 256,
		HotThreshold:               1,
		AddressBits:                32,
		Page1Bits:                  12,
		Page2Bits:                  12,
		OffsBits:                   6,
		IgnoreBits:                 2,
		MMap: mmap.Config{
			Fetch: tbl, Read8: tbl, Read16: tbl, Read32: tbl,
			Write8: tbl, Write16: tbl, Write32: tbl,
		},
	}

	eng, err := SetupContext(cfg, 0, func() int { return 0 })
	require.NoError(t, err)
	defer eng.Shutdown()

	// blr with the reset-default LR (0) returns to an address this test's
	// memory map leaves unmapped; a breakpoint there stops Run cleanly at
	// the return, the same role a caller's own return address plays for a
	// real boot ROM's first basic block.
	eng.SetBreakpoint(0)

	overrun, err := eng.Run(100)
	require.NoError(t, err)
	ctx := eng.GetContext()
	assert.Equal(t, uint32(0x2A), ctx.GPR[3])
	assert.Equal(t, ctx.LR, ctx.PC)
	assert.Equal(t, uint32(0), ctx.PC)
	assert.Less(t, overrun, uint32(100))
}

// TestTranslationThreshold runs the same program with hot threshold 3: it
// must leave BlockInfo untranslated for the first two runs (count 1, then
// 2) and translate before the third run's blr returns.
func TestTranslationThreshold(t *testing.T) {
	ram := make([]byte, 0x1000)
	binary.BigEndian.PutUint32(ram[0:], wordADDI(3, 0, 0x2A))
	binary.BigEndian.PutUint32(ram[4:], wordBCLR())

	cfg := flatConfig(ram, 3, false)
	eng, err := SetupContext(cfg, 0, func() int { return 0 })
	require.NoError(t, err)
	defer eng.Shutdown()
	eng.SetBreakpoint(0)
	require.NoError(t, eng.SetContext(zeroPC(eng.GetContext())))

	for i, wantCount := range []uint32{1, 2} {
		_, err := eng.Run(100)
		require.NoError(t, err, "run %d", i)
		info, lerr := eng.lookupBlock(0)
		require.NoError(t, lerr)
		assert.Equal(t, wantCount, info.Count, "run %d", i)
		assert.Equal(t, uintptr(0), info.NativePtr, "run %d: should not be translated yet", i)

		ctx := eng.GetContext()
		ctx.PC = 0
		require.NoError(t, eng.SetContext(ctx))
	}

	_, err = eng.Run(100)
	require.NoError(t, err)
	info, lerr := eng.lookupBlock(0)
	require.NoError(t, lerr)
	assert.NotEqual(t, uintptr(0), info.NativePtr, "third run should translate before blr returns")

	ctx := eng.GetContext()
	assert.Equal(t, uint32(0x2A), ctx.GPR[3])
}

// TestByteReverseStore verifies sthbrx r0, 0, r3 stores
// r0's low halfword (0xCCDD) byte-swapped at buffer address 0x1000 (held in
// r3) of the big-endian test RAM — bytes DD then CC — so a little-endian re-read of
// the same two bytes recovers the original 0xCCDD.
func TestByteReverseStore(t *testing.T) {
	ram := make([]byte, 0x2000)
	binary.BigEndian.PutUint32(ram[0:], wordADDI(0, 0, int16(uint16(0xCCDD))))
	binary.BigEndian.PutUint32(ram[4:], wordADDI(3, 0, 0x1000))
	binary.BigEndian.PutUint32(ram[8:], wordXForm(31, 0, 0, 3, 918)) // sthbrx r0, 0, r3
	binary.BigEndian.PutUint32(ram[12:], wordBCLR())

	cfg := flatConfig(ram, 1, true)
	eng, err := SetupContext(cfg, 0, func() int { return 0 })
	require.NoError(t, err)
	defer eng.Shutdown()
	eng.SetBreakpoint(0)
	require.NoError(t, eng.SetContext(zeroPC(eng.GetContext())))

	_, err = eng.Run(100)
	require.NoError(t, err)

	assert.Equal(t, byte(0xDD), ram[0x1000])
	assert.Equal(t, byte(0xCC), ram[0x1001])
	assert.Equal(t, uint16(0xCCDD), binary.LittleEndian.Uint16(ram[0x1000:]))
}

// TestDecrementerUnderflow sets DEC = 3 and MSR[EE], then runs four
// one-cycle instructions; after the fourth, PC must land on the decrementer
// vector, SRR0 must hold the post-increment PC, and DecExpired must clear
// (CheckIRQs both raises and immediately services the exception).
func TestDecrementerUnderflow(t *testing.T) {
	ram := make([]byte, 0x2000)
	for i := uint32(0); i < 4; i++ {
		binary.BigEndian.PutUint32(ram[i*4:], wordADDI(1, 1, 1))
	}

	cfg := flatConfig(ram, 1000, true)
	eng, err := SetupContext(cfg, 0, func() int { return 0 })
	require.NoError(t, err)
	defer eng.Shutdown()

	ctx := zeroPC(eng.GetContext())
	ctx.DEC = 3
	ctx.MSR |= 1 << 15 // MSR[EE]
	require.NoError(t, eng.SetContext(ctx))

	_, err = eng.Run(4)
	require.NoError(t, err)

	ctx = eng.GetContext()
	assert.Equal(t, uint32(0x00000900), ctx.PC)
	// PC is advanced past the fourth instruction (word offset 12) before
	// UpdateTimers/CheckIRQs run for it, so SRR0 captures the
	// already-incremented value, not the instruction's own address.
	assert.Equal(t, uint32(16), ctx.SRR0)
	assert.False(t, ctx.DecExpired)
}

// TestProfileRecordsBlockDelta checks the optional RDTSC bracketing: with
// Config.Profile set, a translated block's run must fill
// BlockInfo.Profile with a nonzero timestamp delta, invisibly to the
// emulated program.
func TestProfileRecordsBlockDelta(t *testing.T) {
	ram := make([]byte, 0x1000)
	binary.BigEndian.PutUint32(ram[0:], wordADDI(3, 0, 0x2A))
	binary.BigEndian.PutUint32(ram[4:], wordBCLR())

	cfg := flatConfig(ram, 1, false)
	cfg.Profile = true
	eng, err := SetupContext(cfg, 0, func() int { return 0 })
	require.NoError(t, err)
	defer eng.Shutdown()
	eng.SetBreakpoint(0)
	require.NoError(t, eng.SetContext(zeroPC(eng.GetContext())))

	_, err = eng.Run(100)
	require.NoError(t, err)

	info, lerr := eng.lookupBlock(0)
	require.NoError(t, lerr)
	require.NotEqual(t, uintptr(0), info.NativePtr)
	assert.NotZero(t, info.Profile)
	assert.Equal(t, uint32(0x2A), eng.GetContext().GPR[3], "profiling must not perturb the architectural result")
}

// TestGetSetContextRoundTrip checks the host-API round-trip law:
// GetContext; SetContext; GetContext again must yield an identical struct.
// go-spew dumps both sides on failure, pairing testify for the assertion
// with go-spew for the diagnostic.
func TestGetSetContextRoundTrip(t *testing.T) {
	ram := make([]byte, 0x1000)
	cfg := flatConfig(ram, 4, true)
	eng, err := SetupContext(cfg, 0, func() int { return 0 })
	require.NoError(t, err)
	defer eng.Shutdown()

	c := eng.GetContext()
	c.PC = 0x100 // within this test's RAM, so SetContext's UpdateFetchPtr succeeds
	c.GPR[5] = 0xDEADBEEF
	c.FPR[2].SetFloat64(3.5)
	c.CR[1] = ppc.CRField{LT: true, SO: true}
	c.LR = 0x4000
	c.TB.Advance(17)

	require.NoError(t, eng.SetContext(c))
	got := eng.GetContext()

	if !assert.Equal(t, c, got) {
		t.Logf("want:\n%s\ngot:\n%s", spew.Sdump(c), spew.Sdump(got))
	}
}

// TestConfigValidateRejectsMissingPrint exercises the InvalidConfig path
// for a missing mandatory host service.
func TestConfigValidateRejectsMissingPrint(t *testing.T) {
	cfg := flatConfig(make([]byte, 0x100), 1, true)
	cfg.Print = nil
	_, err := SetupContext(cfg, 0, func() int { return 0 })
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, InvalidConfig, derr.Code)
}

// TestRunBadPCSurfacesBadPC exercises the BadPC boundary: branching
// into an address with no fetch region.
func TestRunBadPCSurfacesBadPC(t *testing.T) {
	ram := make([]byte, 0x100)
	binary.BigEndian.PutUint32(ram[0:], wordBAbs(0xFFFF0000))

	cfg := flatConfig(ram, 1, true)
	eng, err := SetupContext(cfg, 0, func() int { return 0 })
	require.NoError(t, err)
	defer eng.Shutdown()
	require.NoError(t, eng.SetContext(zeroPC(eng.GetContext())))

	_, err = eng.Run(10)
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, BadPC, derr.Code)
}

// TestRunIllegalOpcodeReportsThroughPrint exercises both halves of spec's
// dual error-observability requirement: the RuntimeError code comes back
// through Run's own return, and the same failure is also handed to the
// host's Print sink.
func TestRunIllegalOpcodeReportsThroughPrint(t *testing.T) {
	ram := make([]byte, 0x100)
	binary.BigEndian.PutUint32(ram[0:], 0x00000000) // primary opcode 0 is unassigned

	cfg := flatConfig(ram, 1, true)
	var printed []string
	cfg.Print = func(format string, args ...any) {
		printed = append(printed, fmt.Sprintf(format, args...))
	}
	eng, err := SetupContext(cfg, 0, func() int { return 0 })
	require.NoError(t, err)
	defer eng.Shutdown()
	require.NoError(t, eng.SetContext(zeroPC(eng.GetContext())))

	_, err = eng.Run(10)
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, RuntimeError, derr.Code)
	require.Len(t, printed, 1, "the illegal-opcode failure must reach Print exactly once")
	assert.Contains(t, printed[0], "illegal opcode")
}

// TestRunTranslatedFaultReportsThroughPrint exercises hostcalls.go's fault
// path: a translated block's generic-handler call hits an address with no
// matching region, panics with badAddressPanic, and Run's recover turns
// that into a RuntimeError — the same Print sink the interpreter-tier
// illegal-opcode path above uses, reached through a different call chain.
func TestRunTranslatedFaultReportsThroughPrint(t *testing.T) {
	fetchRAM := make([]byte, 0x100)
	binary.BigEndian.PutUint32(fetchRAM[0:], wordLWZ(3, 0, 0))
	binary.BigEndian.PutUint32(fetchRAM[4:], wordBAbs(0x2000))

	fetchRegion := mmap.Region{Start: 0, End: uint32(len(fetchRAM)), Ptr: fetchRAM, BigEndian: true}
	// unreachable sits far outside fetchRAM: every access table must be
	// non-empty (mmap.Setup rejects an empty table), but a region that never
	// covers address 0 still leaves the lwz below with nowhere to resolve.
	unreachableRAM := make([]byte, 0x10)
	unreachable := mmap.Region{Start: 0x80000000, End: 0x80000010, Ptr: unreachableRAM, BigEndian: true}
	var printed []string
	cfg := Config{
		Print: func(format string, args ...any) {
			printed = append(printed, fmt.Sprintf(format, args...))
		},
		NativeCacheSize:            1 << 16,
		NativeCacheGuardSize:       256,
		IntermediateCacheSize:      1 << 16,
		IntermediateCacheGuardSize: 256,
		HotThreshold:               1,
		AddressBits:                32,
		Page1Bits:                  12,
		Page2Bits:                  12,
		OffsBits:                   6,
		IgnoreBits:                 2,
		MMap: mmap.Config{
			Fetch:  []mmap.Region{fetchRegion},
			Read8:  []mmap.Region{unreachable},
			Read16: []mmap.Region{unreachable},
			Read32: []mmap.Region{unreachable},
			Write8: []mmap.Region{unreachable}, Write16: []mmap.Region{unreachable}, Write32: []mmap.Region{unreachable},
		},
	}
	eng, err := SetupContext(cfg, 0, func() int { return 0 })
	require.NoError(t, err)
	defer eng.Shutdown()
	require.NoError(t, eng.SetContext(zeroPC(eng.GetContext())))

	_, err = eng.Run(10)
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, RuntimeError, derr.Code)
	require.Len(t, printed, 1, "a translated-code memory fault must reach Print exactly once")
	assert.Contains(t, printed[0], "memory fault")
}

func wordLWZ(rd, ra uint32, simm int16) uint32 {
	return (32 << 26) | (rd&0x1F)<<21 | (ra&0x1F)<<16 | uint32(uint16(simm))
}

// TestResetCyclesStopsAtNextBoundary exercises §5's cancellation contract: a
// handler-backed memory access synchronously calls ResetCycles, and Run must
// stop at the next instruction boundary rather than finishing the timeslice,
// with remaining + overrun still equal to the request. AddCycles then
// extends the (spent) budget, observable through GetCyclesLeft.
func TestResetCyclesStopsAtNextBoundary(t *testing.T) {
	ram := make([]byte, 0x100)
	binary.BigEndian.PutUint32(ram[0:], wordLWZ(3, 0, 0x1000))
	binary.BigEndian.PutUint32(ram[4:], wordBAbs(0)) // would spin forever without the cancellation

	var eng *Engine
	reads := 0
	ramRegion := mmap.Region{Start: 0, End: uint32(len(ram)), Ptr: ram, BigEndian: true}
	mmio := mmap.Region{
		Start: 0x1000, End: 0x1010,
		ReadFn32: func(addr uint32) uint32 {
			reads++
			eng.ResetCycles()
			return 0xABCD
		},
	}
	tbl := []mmap.Region{ramRegion}
	cfg := flatConfig(ram, 1, true)
	cfg.MMap = mmap.Config{
		Fetch: tbl, Read8: tbl, Read16: tbl,
		Read32: []mmap.Region{ramRegion, mmio},
		Write8: tbl, Write16: tbl, Write32: tbl,
	}

	eng, err := SetupContext(cfg, 0, func() int { return 0 })
	require.NoError(t, err)
	defer eng.Shutdown()
	require.NoError(t, eng.SetContext(zeroPC(eng.GetContext())))

	overrun, err := eng.Run(1000)
	require.NoError(t, err)
	assert.Equal(t, 1, reads, "the cancelling access must have run exactly once")
	assert.Equal(t, uint32(0xABCD), eng.GetContext().GPR[3])
	assert.Equal(t, uint32(0), eng.GetCyclesLeft())
	assert.Equal(t, uint32(1000), eng.GetCyclesLeft()+overrun)

	eng.AddCycles(7)
	assert.Equal(t, uint32(7), eng.GetCyclesLeft())
}

// TestCacheOverflowInvalidatesAndMakesProgress discovers many distinct
// ~256-byte-apart blocks under a small native cache, forcing at least one
// invalidate-and-reset, and checks the engine still makes forward progress
// afterward rather than wedging.
func TestCacheOverflowInvalidatesAndMakesProgress(t *testing.T) {
	ram := make([]byte, 1<<20)
	const blockSpan = 256
	const blocks = 32
	const haltAddr = uint32(0x00800000) // unmapped; the breakpoint below stops Run before it is ever fetched

	for b := 0; b < blocks; b++ {
		base := uint32(b * blockSpan)
		binary.BigEndian.PutUint32(ram[base:], wordADDI(3, 0, int16(b)))
		binary.BigEndian.PutUint32(ram[base+4:], wordADDI(4, 0, 1))
		binary.BigEndian.PutUint32(ram[base+8:], wordBAbs(haltAddr))
	}

	cfg := flatConfig(ram, 1, false)
	cfg.NativeCacheSize = 4096
	cfg.NativeCacheGuardSize = 64
	eng, err := SetupContext(cfg, 0, func() int { return 0 })
	require.NoError(t, err)
	defer eng.Shutdown()
	eng.SetBreakpoint(haltAddr)

	for b := 0; b < blocks; b++ {
		ctx := eng.GetContext()
		ctx.PC = uint32(b * blockSpan)
		require.NoError(t, eng.SetContext(ctx))

		_, err := eng.Run(100)
		require.NoError(t, err, "block %d", b)

		ctx = eng.GetContext()
		assert.Equal(t, uint32(b), ctx.GPR[3], "block %d", b)
		assert.Equal(t, haltAddr, ctx.PC, "block %d", b)
	}
}

// wordBAbs encodes an unconditional absolute branch to target, matching the
// AA-bit convention decodeLI/decodeB use (value 2, the architectural bit 30
// in the big-endian bit numbering).
func wordBAbs(target uint32) uint32 {
	return (18 << 26) | (target & 0x03FFFFFC) | (1 << 1)
}
