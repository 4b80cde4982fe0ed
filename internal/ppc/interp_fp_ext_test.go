package ppc

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func wordA(primary, frd, fra, frb, frc, ext uint32) uint32 {
	return (primary&0x3F)<<26 | (frd&0x1F)<<21 | (fra&0x1F)<<16 | (frb&0x1F)<<11 | (frc&0x1F)<<6 | (ext&0x1F)<<1
}

func fprOf(v float64) FPR {
	var f FPR
	f.SetFloat64(v)
	return f
}

func TestInterpFPMoveFamily(t *testing.T) {
	cases := []struct {
		name string
		ext  uint32
		in   float64
		want float64
	}{
		{"fmr", 72, 2.5, 2.5},
		{"fneg", 40, 2.5, -2.5},
		{"fabs", 264, -2.5, 2.5},
		{"fnabs", 136, 2.5, -2.5},
	}
	for _, tc := range cases {
		var c Context
		c.FPR[4] = fprOf(tc.in)
		stepOne(t, &c, wordX(63, 3, 0, 4, tc.ext))
		if got := c.FPR[3].AsFloat64(); got != tc.want {
			t.Fatalf("%s(%v): got %v, want %v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestInterpFmaddFamily(t *testing.T) {
	cases := []struct {
		name string
		ext  uint32
		want float64
	}{
		{"fmadd", 29, 2*3 + 10},
		{"fmsub", 28, 2*3 - 10},
		{"fnmadd", 31, -(2*3 + 10)},
		{"fnmsub", 30, -(2*3 - 10)},
	}
	for _, tc := range cases {
		var c Context
		c.FPR[1] = fprOf(2) // frA
		c.FPR[2] = fprOf(3) // frC
		c.FPR[4] = fprOf(10) // frB
		stepOne(t, &c, wordA(63, 3, 1, 4, 2, tc.ext))
		if got := c.FPR[3].AsFloat64(); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestInterpFaddsRoundsToSingle(t *testing.T) {
	var c Context
	c.FPR[1] = fprOf(1)
	c.FPR[2] = fprOf(1e-9) // vanishes in float32 addition
	stepOne(t, &c, wordA(59, 3, 1, 2, 0, 21))
	assert.Equal(t, float64(float32(1+1e-9)), c.FPR[3].AsFloat64())
}

func TestInterpFctiwz(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want uint32
	}{
		{"truncates toward zero", -2.7, 0xFFFFFFFE},
		{"positive", 3.9, 3},
		{"saturates high", 3e9, 0x7FFFFFFF},
		{"saturates low", -3e9, 0x80000000},
		{"nan", math.NaN(), 0x80000000},
	}
	for _, tc := range cases {
		var c Context
		c.FPR[4] = fprOf(tc.in)
		stepOne(t, &c, wordX(63, 3, 0, 4, 15))
		if got := uint32(c.FPR[3].Bits); got != tc.want {
			t.Fatalf("fctiwz %s: got %#x, want %#x", tc.name, got, tc.want)
		}
	}
}

func TestInterpFctiwRoundsToNearestEven(t *testing.T) {
	var c Context
	c.FPR[4] = fprOf(2.5)
	stepOne(t, &c, wordX(63, 3, 0, 4, 14))
	assert.Equal(t, uint32(2), uint32(c.FPR[3].Bits))
}

func TestInterpSinglePrecisionLoadStore(t *testing.T) {
	var c Context
	c.GPR[4] = 0x100
	stepOneMem(t, &c, wordD(48, 3, 4, 0), func(buf []byte) { // lfs f3, 0(r4)
		binary.BigEndian.PutUint32(buf[0x100:], math.Float32bits(1.5))
	})
	assert.Equal(t, 1.5, c.FPR[3].AsFloat64())

	c2 := Context{}
	c2.FPR[3] = fprOf(-0.25)
	c2.GPR[4] = 0x100
	buf := stepOneMem(t, &c2, wordD(52, 3, 4, 8), nil) // stfs f3, 8(r4)
	assert.Equal(t, math.Float32bits(-0.25), binary.BigEndian.Uint32(buf[0x108:]))
}

func TestInterpLfduUpdatesBase(t *testing.T) {
	var c Context
	c.GPR[4] = 0x100
	stepOneMem(t, &c, wordD(51, 3, 4, 0x20), func(buf []byte) { // lfdu f3, 0x20(r4)
		binary.BigEndian.PutUint64(buf[0x120:], math.Float64bits(9.75))
	})
	assert.Equal(t, 9.75, c.FPR[3].AsFloat64())
	assert.Equal(t, uint32(0x120), c.GPR[4])
}

func TestInterpFcmpoMatchesFcmpu(t *testing.T) {
	var c Context
	c.FPR[1] = fprOf(1)
	c.FPR[2] = fprOf(2)
	stepOne(t, &c, wordX(63, 3<<2, 1, 2, 32)) // fcmpo cr3, f1, f2
	assert.True(t, c.CR[3].LT)
	assert.False(t, c.CR[3].GT)
}

func TestInterpMffsMtfsfRoundTrip(t *testing.T) {
	var c Context
	c.FPSCR = 0x00000003
	stepOne(t, &c, wordX(63, 3, 0, 0, 583)) // mffs f3
	assert.Equal(t, uint64(3), c.FPR[3].Bits)

	c.FPR[4] = FPR{Bits: 0x000000FF}
	// mtfsf with FM = 0xFF replaces the whole register
	stepOne(t, &c, (63<<26)|(0xFF<<17)|(4<<11)|(711<<1))
	assert.Equal(t, uint32(0xFF), c.FPSCR)
}
