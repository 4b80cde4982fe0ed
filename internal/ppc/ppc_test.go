package ppc

import (
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrosys/drppc/internal/ir"
	"github.com/retrosys/drppc/internal/mmap"
)

// setupOnce guards SetupJumpTables: every test in this package shares the
// package-level dispatch tables, so building them twice concurrently would
// race (matches the real Init() call's sync.Once gate in the root package).
var setupOnce sync.Once

func ensureTables(t *testing.T) {
	t.Helper()
	var err error
	setupOnce.Do(func() { err = SetupJumpTables() })
	require.NoError(t, err)
}

func flatRAM(t *testing.T, size int) (*mmap.Map, []byte) {
	t.Helper()
	buf := make([]byte, size)
	r := mmap.Region{Start: 0, End: uint32(size), Ptr: buf, BigEndian: true}
	cfg := mmap.Config{
		Fetch: []mmap.Region{r}, Read8: []mmap.Region{r}, Read16: []mmap.Region{r},
		Read32: []mmap.Region{r}, Write8: []mmap.Region{r}, Write16: []mmap.Region{r},
		Write32: []mmap.Region{r},
	}
	m, err := mmap.Setup(cfg)
	require.NoError(t, err)
	return m, buf
}

func putWord(buf []byte, addr uint32, word uint32) {
	binary.BigEndian.PutUint32(buf[addr:], word)
}

func wordADDI(rd, ra uint32, simm int16) uint32 {
	return (14 << 26) | (rd&0x1F)<<21 | (ra&0x1F)<<16 | uint32(uint16(simm))
}

func wordADD(rd, ra, rb uint32) uint32 {
	return (31 << 26) | (rd&0x1F)<<21 | (ra&0x1F)<<16 | (rb&0x1F)<<11 | 266<<1
}

func wordBAbs(target uint32) uint32 {
	return (18 << 26) | (target & 0x03FFFFFC) | (1 << 1)
}

func TestTimebaseAdvanceWrapsAt58Bits(t *testing.T) {
	var tb Timebase
	tb.raw = timebaseMask
	tb.Advance(1)
	// The integer part wraps to zero; the two fractional bits (both set) stay.
	assert.Equal(t, uint64(3), tb.raw&timebaseMask)
}

func TestTimebaseHiLoRoundTrip(t *testing.T) {
	var tb Timebase
	tb.WriteHi(0xCAFEBABE)
	tb.WriteLo(0x12345678)
	// Only the low 24 bits of the high word fit the 56-bit integer part.
	assert.Equal(t, uint32(0x00FEBABE), tb.ReadHi())
	assert.Equal(t, uint32(0x12345678), tb.ReadLo())
}

func TestContextResetUsesModelDependentPC(t *testing.T) {
	var c Context
	c.Model = Model6xx
	c.GPR[3] = 99
	c.Reset()
	assert.Equal(t, uint32(0xFFF00100), c.PC)
	assert.Equal(t, uint32(0), c.GPR[3])

	c.Model = Model4xx
	c.Reset()
	assert.Equal(t, uint32(0xFFFFFFFC), c.PC)
}

func TestUpdateFetchPtrCachesRegionAndRejectsBadPC(t *testing.T) {
	m, _ := flatRAM(t, 0x1000)
	var c Context

	require.NoError(t, c.UpdateFetchPtr(m, 0x10))
	err := c.UpdateFetchPtr(m, 0x20000)
	require.ErrorIs(t, err, ErrBadPC)
}

func TestFetchReadsBigEndianWord(t *testing.T) {
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0x100, 0xDEADBEEF)

	var c Context
	require.NoError(t, c.UpdateFetchPtr(m, 0x100))
	word, err := c.Fetch()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), word)
}

func TestUpdateTimersLatchesDecExpiredOnUnderflow(t *testing.T) {
	var c Context
	c.DEC = 3
	UpdateTimers(&c, 5)
	assert.True(t, c.DecExpired)
}

func TestUpdateTimersNoUnderflow(t *testing.T) {
	var c Context
	c.DEC = 100
	UpdateTimers(&c, 5)
	assert.False(t, c.DecExpired)
	assert.Equal(t, uint32(95), c.DEC)
}

func TestCheckIRQsPrefersDecrementerOverExternal(t *testing.T) {
	var c Context
	c.MSR = msrEE
	c.DecExpired = true
	c.IRQPending = true
	e := &Env{Ctx: &c}

	taken := CheckIRQs(e)
	require.True(t, taken)
	assert.False(t, c.DecExpired)
	assert.True(t, c.IRQPending, "the external source must still be pending after a decrementer exception")
	assert.Equal(t, uint32(vector6xxDecLow), c.PC)
}

func TestCheckIRQsMaskedByMSR(t *testing.T) {
	var c Context
	c.DecExpired = true
	e := &Env{Ctx: &c}
	assert.False(t, CheckIRQs(e), "MSR[EE] clear must mask every pending exception source")
}

func TestCheckIRQsExternalInvokesCallbackAndEntersException(t *testing.T) {
	var c Context
	c.MSR = msrEE
	c.IRQPending = true
	calls := 0
	e := &Env{Ctx: &c, IRQCallback: func() int {
		calls++
		return 0
	}}

	taken := CheckIRQs(e)
	require.True(t, taken)
	assert.Equal(t, 1, calls)
	assert.False(t, c.IRQPending, "a callback returning 0 must auto-clear the line")
	assert.Equal(t, uint32(vector6xxExternalLow), c.PC)
	assert.Equal(t, c.MSR&msrEE, uint32(0), "MSR[EE] must be cleared on exception entry")
}

func TestCheckIRQsModel4xxUsesFixedVectors(t *testing.T) {
	var c Context
	c.Model = Model4xx
	c.MSR = msrEE
	c.DecExpired = true
	e := &Env{Ctx: &c}
	require.True(t, CheckIRQs(e))
	assert.Equal(t, uint32(vector4xxDec), c.PC)
}

func TestInterpretStepADDILeavesPCUnchanged(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, wordADDI(3, 0, 5))

	var c Context
	require.NoError(t, c.UpdateFetchPtr(m, 0))
	e := &Env{Ctx: &c, MMap: m}

	cycles, branched, err := InterpretStep(e)
	require.NoError(t, err)
	assert.False(t, branched)
	assert.Equal(t, 1, cycles)
	assert.Equal(t, uint32(5), c.GPR[3])
	assert.Equal(t, uint32(0), c.PC, "InterpretStep itself never advances PC for non-branch instructions")
}

func TestInterpretStepADDReadsBothOperands(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, wordADD(5, 3, 4))

	var c Context
	c.GPR[3] = 7
	c.GPR[4] = 9
	require.NoError(t, c.UpdateFetchPtr(m, 0))
	e := &Env{Ctx: &c, MMap: m}

	_, branched, err := InterpretStep(e)
	require.NoError(t, err)
	assert.False(t, branched)
	assert.Equal(t, uint32(16), c.GPR[5])
}

func TestInterpretStepBranchSetsBranchedTrue(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, wordBAbs(0x2000))

	var c Context
	require.NoError(t, c.UpdateFetchPtr(m, 0))
	e := &Env{Ctx: &c, MMap: m}

	_, branched, err := InterpretStep(e)
	require.NoError(t, err)
	assert.True(t, branched)
	assert.Equal(t, uint32(0x2000), c.PC)
}

func TestInterpretStepIllegalOpcode(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, 0x00000000) // primary opcode 0 is unassigned on every PowerPC variant

	var c Context
	require.NoError(t, c.UpdateFetchPtr(m, 0))
	e := &Env{Ctx: &c, MMap: m}

	_, _, err := InterpretStep(e)
	require.ErrorIs(t, err, ErrIllegalOpcode)
}

func TestDecodeBlockStopsAtBranchAndSumsCycles(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, wordADDI(3, 0, 5))
	putWord(buf, 4, wordADDI(4, 0, 9))
	putWord(buf, 8, wordBAbs(0x2000))

	blk, cycles, err := DecodeBlock(m, 0, Model6xx)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), cycles) // 1 + 1 + 2

	tail := blk.At(blk.Tail())
	assert.Equal(t, ir.BRANCH, tail.Op)
}

func TestDecodeBlockNotTranslatableFallsBackToInterpreter(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	// bc with BO[0] clear (CTR decrement-and-test): not lowered to IR.
	bcWord := uint32(16<<26) | (0<<21) | (0 << 16) | 0
	putWord(buf, 0, bcWord)

	_, _, err := DecodeBlock(m, 0, Model6xx)
	require.ErrorIs(t, err, ErrNotTranslatable)
}
