package dflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryBasesAreContiguous(t *testing.T) {
	assert.Equal(t, Reg(0), CRBase)
	assert.Equal(t, CRBase+Reg(CRCount), XERBase)
	assert.Equal(t, XERBase+Reg(XERCount), GPRBase)
	assert.Equal(t, GPRBase+Reg(GPRCount), LRReg)
	assert.Equal(t, LRReg+1, CTRReg)
	assert.Equal(t, CTRReg+1, FPRBase)
	assert.Equal(t, FPRBase+Reg(FPRCount), TempBase)
	assert.Equal(t, TempBase+Reg(TempCount), NativeBase)
	assert.Equal(t, int(NativeBase)+NativeCount, NumBits)
}

func TestCRFieldAddressing(t *testing.T) {
	// every (field, bit) pair must resolve to a distinct register within
	// the CR category, and round trip through the LT/GT/EQ/SO offsets.
	seen := map[Reg]bool{}
	for field := 0; field < 8; field++ {
		for _, bit := range []int{CRLT, CRGT, CREQ, CRSO} {
			r := CRField(field, bit)
			require.False(t, seen[r], "duplicate CR register for field %d bit %d", field, bit)
			seen[r] = true
			assert.True(t, r >= CRBase && r < XERBase)
		}
	}
	assert.Len(t, seen, CRCount)
}

func TestGPRFPRTempNativeRanges(t *testing.T) {
	for i := 0; i < 32; i++ {
		assert.True(t, GPR(i) >= GPRBase && GPR(i) < LRReg)
		assert.True(t, FPR(i) >= FPRBase && FPR(i) < TempBase)
	}
	for i := 0; i < TempCount; i++ {
		r := Temp(i)
		assert.True(t, IsTemp(r))
		assert.False(t, IsNative(r))
	}
	for i := 0; i < NativeCount; i++ {
		r := Native(i)
		assert.True(t, IsNative(r))
		assert.False(t, IsTemp(r))
	}
}

func TestTempAndNativePanicOutOfRange(t *testing.T) {
	assert.Panics(t, func() { Temp(-1) })
	assert.Panics(t, func() { Temp(TempCount) })
	assert.Panics(t, func() { Native(-1) })
	assert.Panics(t, func() { Native(NativeCount) })
}

func TestSetBasicOps(t *testing.T) {
	var s Set
	assert.True(t, s.Empty())

	r0 := GPR(0)
	r1 := GPR(1)
	s.Add(r0)
	assert.True(t, s.Test(r0))
	assert.False(t, s.Test(r1))
	assert.False(t, s.Empty())

	s.Remove(r0)
	assert.False(t, s.Test(r0))
	assert.True(t, s.Empty())
}

func TestSetUnionIntersectsAndNot(t *testing.T) {
	var a, b Set
	a.Add(GPR(3))
	b.Add(GPR(3))
	b.Add(GPR(4))

	assert.True(t, a.Intersects(&b))

	var c Set
	c.Add(GPR(5))
	assert.False(t, a.Intersects(&c))

	a.Union(&b)
	assert.True(t, a.Test(GPR(3)))
	assert.True(t, a.Test(GPR(4)))

	a.AndNot(&b)
	assert.True(t, a.Empty())
}

func TestSetClear(t *testing.T) {
	var s Set
	s.Add(FPR(0))
	s.Add(CTRReg)
	s.Clear()
	assert.True(t, s.Empty())
}
