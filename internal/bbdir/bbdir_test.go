package bbdir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrosys/drppc/internal/arena"
)

func testConfig() Config {
	return Config{AddressBits: 32, Page1Bits: 10, Page2Bits: 10, OffsBits: 10, IgnoreBits: 2}
}

func TestConfigValidateRejectsMismatchedBitWidths(t *testing.T) {
	cfg := testConfig()
	cfg.OffsBits = 9
	err := cfg.validate()
	require.Error(t, err)
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	a, err := arena.Alloc(4096, 0, false)
	require.NoError(t, err)

	bad := testConfig()
	bad.Page1Bits = 0
	_, err = Setup(bad, a)
	require.Error(t, err)
}

func TestLookupAllocatesLazilyAndIsStable(t *testing.T) {
	a, err := arena.Alloc(1<<16, 0, false)
	require.NoError(t, err)
	d, err := Setup(testConfig(), a)
	require.NoError(t, err)

	info1, err := d.Lookup(0x1000, true)
	require.NoError(t, err)
	require.NotNil(t, info1)
	assert.Equal(t, uint32(0), info1.Count)

	info1.Count = 5
	info1.NativePtr = 0xdeadbeef

	info2, err := d.Lookup(0x1000, true)
	require.NoError(t, err)
	assert.Same(t, info1, info2, "repeated Lookup of the same address must return the same BlockInfo")
	assert.Equal(t, uint32(5), info2.Count)
}

func TestLookupDistinctAddressesGetDistinctBlockInfo(t *testing.T) {
	a, err := arena.Alloc(1<<16, 0, false)
	require.NoError(t, err)
	d, err := Setup(testConfig(), a)
	require.NoError(t, err)

	infoA, err := d.Lookup(0x1000, true)
	require.NoError(t, err)
	infoB, err := d.Lookup(0x2000, true)
	require.NoError(t, err)
	assert.NotSame(t, infoA, infoB)
}

func TestLookupAdjacentInstructionsGetDistinctBlockInfo(t *testing.T) {
	// two word-aligned addresses in the same leaf must not share a record:
	// only the ignore bits (instruction alignment) collapse.
	a, err := arena.Alloc(1<<16, 0, false)
	require.NoError(t, err)
	d, err := Setup(testConfig(), a)
	require.NoError(t, err)

	infoA, err := d.Lookup(0x0, true)
	require.NoError(t, err)
	infoB, err := d.Lookup(0x4, true)
	require.NoError(t, err)
	assert.NotSame(t, infoA, infoB)

	again, err := d.Lookup(0x4, true)
	require.NoError(t, err)
	assert.Same(t, infoB, again)
}

func TestLookupOutsideAddressBitsIsBadPC(t *testing.T) {
	a, err := arena.Alloc(1<<16, 0, false)
	require.NoError(t, err)
	cfg := Config{AddressBits: 24, Page1Bits: 8, Page2Bits: 8, OffsBits: 6, IgnoreBits: 2}
	d, err := Setup(cfg, a)
	require.NoError(t, err)

	_, err = d.Lookup(0xFFFFFFFF, true)
	require.Error(t, err, "an address above the configured address_bits must fail even with a fetch region")

	_, err = d.Lookup(0x00FFFFFC, true)
	require.NoError(t, err, "the top in-range address must still resolve")
}

func TestLookupWithoutFetchOKNeverCreatesAnEntry(t *testing.T) {
	a, err := arena.Alloc(1<<16, 0, false)
	require.NoError(t, err)
	d, err := Setup(testConfig(), a)
	require.NoError(t, err)

	_, err = d.Lookup(0x3000, false)
	require.Error(t, err)

	// a later fetchOK=true lookup at the same address starts fresh, proving
	// the earlier failed call left no entry behind.
	info, err := d.Lookup(0x3000, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), info.Count)
}

func TestInvalidateClearsEntriesAndResetsArena(t *testing.T) {
	a, err := arena.Alloc(1<<16, 0, false)
	require.NoError(t, err)
	d, err := Setup(testConfig(), a)
	require.NoError(t, err)

	info, err := d.Lookup(0x1000, true)
	require.NoError(t, err)
	info.NativePtr = 0x1234

	ptrBefore := a.Ptr()
	require.NotEqual(t, 0, ptrBefore)

	d.Invalidate()
	assert.Equal(t, 0, a.Ptr(), "Invalidate must reset the backing arena")

	fresh, err := d.Lookup(0x1000, true)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0), fresh.NativePtr, "no BlockInfo.NativePtr may survive Invalidate")
}

func TestInvalidateRecoversFromArenaExhaustion(t *testing.T) {
	// a deliberately tiny arena: a handful of BlockInfo allocations exhaust
	// it, and Invalidate must make it usable again.
	a, err := arena.Alloc(256, 0, false)
	require.NoError(t, err)
	d, err := Setup(testConfig(), a)
	require.NoError(t, err)

	var lastErr error
	addr := uint32(0)
	for i := 0; i < 64; i++ {
		_, lastErr = d.Lookup(addr, true)
		if lastErr != nil {
			break
		}
		addr += 1 << 20 // force a new page2 slot
	}
	require.Error(t, lastErr, "the tiny arena must eventually be exhausted")

	d.Invalidate()

	_, err = d.Lookup(0, true)
	require.NoError(t, err, "Lookup must succeed again after Invalidate")
}
