package ppc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func wordD(primary, rd, ra uint32, imm uint16) uint32 {
	return (primary&0x3F)<<26 | (rd&0x1F)<<21 | (ra&0x1F)<<16 | uint32(imm)
}

func wordM(primary, rs, ra, sh, mb, me uint32, rc bool) uint32 {
	w := (primary&0x3F)<<26 | (rs&0x1F)<<21 | (ra&0x1F)<<16 | (sh&0x1F)<<11 | (mb&0x1F)<<6 | (me&0x1F)<<1
	if rc {
		w |= 1
	}
	return w
}

// stepOne executes a single instruction word at address 0 against c and
// fails the test on any interpreter error.
func stepOne(t *testing.T, c *Context, word uint32) (cycles int, branched bool) {
	t.Helper()
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, word)
	c.fetchRegion = nil // drop a region cached from an earlier call's map
	require.NoError(t, c.UpdateFetchPtr(m, 0))
	cycles, branched, err := InterpretStep(&Env{Ctx: c, MMap: m})
	require.NoError(t, err)
	return cycles, branched
}

func TestInterpLogicalOps(t *testing.T) {
	cases := []struct {
		name string
		word uint32
		rs   uint32
		rb   uint32
		want uint32
	}{
		{"ori", wordD(24, 3, 4, 0x00FF), 0x1200, 0, 0x12FF},
		{"oris", wordD(25, 3, 4, 0x00FF), 0x1200, 0, 0x00FF1200},
		{"xori", wordD(26, 3, 4, 0xFFFF), 0x0F0F, 0, 0xF0F0},
		{"xoris", wordD(27, 3, 4, 0x8000), 0, 0, 0x80000000},
		{"andi.", wordD(28, 3, 4, 0x00F0), 0x1234, 0, 0x0030},
		{"andis.", wordD(29, 3, 4, 0xFF00), 0x12345678, 0, 0x12000000},
		{"andc", wordX(31, 3, 4, 5, 60), 0xFF, 0x0F, 0xF0},
		{"orc", wordX(31, 3, 4, 5, 412), 0x01, 0xFFFFFFFE, 0x01},
		{"eqv", wordX(31, 3, 4, 5, 284), 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF},
		{"nand", wordX(31, 3, 4, 5, 476), 0xFFFFFFFF, 0xFFFFFFFF, 0},
		{"extsb", wordX(31, 3, 4, 0, 954), 0x80, 0, 0xFFFFFF80},
		{"extsh", wordX(31, 3, 4, 0, 922), 0x8000, 0, 0xFFFF8000},
		{"cntlzw", wordX(31, 3, 4, 0, 26), 0x00010000, 0, 15},
		{"neg", wordX(31, 4, 3, 0, 104), 5, 0, 0xFFFFFFFB},
	}
	for _, tc := range cases {
		var c Context
		c.GPR[3] = tc.rs
		c.GPR[5] = tc.rb
		stepOne(t, &c, tc.word)
		if c.GPR[4] != tc.want {
			t.Fatalf("%s: got %#x, want %#x", tc.name, c.GPR[4], tc.want)
		}
	}
}

func TestInterpAndiRecordsCR0(t *testing.T) {
	var c Context
	c.GPR[3] = 0x1234
	stepOne(t, &c, wordD(28, 3, 4, 0)) // andi. r4, r3, 0
	if !c.CR[0].EQ || c.CR[0].LT || c.CR[0].GT {
		t.Fatalf("andi. with a zero result must set CR0 EQ only, got %+v", c.CR[0])
	}
}

func TestInterpCarryChain64BitAdd(t *testing.T) {
	// 0xFFFFFFFF:FFFFFFFF + 1 via addc/adde: the low add carries into the
	// high word.
	var c Context
	c.GPR[3] = 0xFFFFFFFF // low a
	c.GPR[4] = 1          // low b
	c.GPR[5] = 0xFFFFFFFF // high a
	c.GPR[6] = 0          // high b
	stepOne(t, &c, wordX(31, 7, 3, 4, 10)) // addc r7, r3, r4
	if c.GPR[7] != 0 || !c.XER.CA {
		t.Fatalf("addc: got r7=%#x CA=%v, want 0 true", c.GPR[7], c.XER.CA)
	}
	stepOne(t, &c, wordX(31, 8, 5, 6, 138)) // adde r8, r5, r6
	if c.GPR[8] != 0 || !c.XER.CA {
		t.Fatalf("adde: got r8=%#x CA=%v, want 0 true", c.GPR[8], c.XER.CA)
	}
	stepOne(t, &c, wordX(31, 9, 0, 0, 202)) // addze r9, r0 (r0 = 0, CA = 1)
	if c.GPR[9] != 1 || c.XER.CA {
		t.Fatalf("addze: got r9=%#x CA=%v, want 1 false", c.GPR[9], c.XER.CA)
	}
}

func TestInterpSubfCarrySemantics(t *testing.T) {
	cases := []struct {
		name   string
		ra, rb uint32
		want   uint32
		wantCA bool
	}{
		{"no borrow", 3, 10, 7, true},
		{"borrow", 10, 3, 0xFFFFFFF9, false},
		{"equal", 9, 9, 0, true},
	}
	for _, tc := range cases {
		var c Context
		c.GPR[3] = tc.ra
		c.GPR[4] = tc.rb
		stepOne(t, &c, wordX(31, 5, 3, 4, 8)) // subfc r5, r3, r4
		if c.GPR[5] != tc.want || c.XER.CA != tc.wantCA {
			t.Fatalf("subfc %s: got r5=%#x CA=%v, want %#x %v", tc.name, c.GPR[5], c.XER.CA, tc.want, tc.wantCA)
		}
	}
}

func TestInterpSubficSetsCarry(t *testing.T) {
	var c Context
	c.GPR[3] = 3
	stepOne(t, &c, wordD(8, 4, 3, 10)) // subfic r4, r3, 10
	if c.GPR[4] != 7 || !c.XER.CA {
		t.Fatalf("subfic: got r4=%#x CA=%v, want 7 true", c.GPR[4], c.XER.CA)
	}
}

func TestInterpMulhwFamily(t *testing.T) {
	var c Context
	c.GPR[3] = 0x80000000
	c.GPR[4] = 2
	stepOne(t, &c, wordX(31, 5, 3, 4, 75)) // mulhw
	if c.GPR[5] != 0xFFFFFFFF {
		t.Fatalf("mulhw: got %#x, want 0xFFFFFFFF", c.GPR[5])
	}
	stepOne(t, &c, wordX(31, 5, 3, 4, 11)) // mulhwu
	if c.GPR[5] != 1 {
		t.Fatalf("mulhwu: got %#x, want 1", c.GPR[5])
	}
}

func TestInterpDivwBoundaryCases(t *testing.T) {
	cases := []struct {
		name   string
		ra, rb uint32
		want   uint32
	}{
		{"plain", 100, 7, 14},
		{"negative", 0xFFFFFF9C, 7, 0xFFFFFFF2}, // -100 / 7 = -14
		{"div by zero positive", 100, 0, 0},
		{"div by zero negative", 0x80000001, 0, 0xFFFFFFFF},
		{"int_min by minus one", 0x80000000, 0xFFFFFFFF, 0xFFFFFFFF},
	}
	for _, tc := range cases {
		var c Context
		c.GPR[3] = tc.ra
		c.GPR[4] = tc.rb
		stepOne(t, &c, wordX(31, 5, 3, 4, 491))
		if c.GPR[5] != tc.want {
			t.Fatalf("divw %s: got %#x, want %#x", tc.name, c.GPR[5], tc.want)
		}
	}

	var c Context
	c.GPR[3] = 100
	c.GPR[4] = 0
	stepOne(t, &c, wordX(31, 5, 3, 4, 459)) // divwu by zero
	if c.GPR[5] != 0 {
		t.Fatalf("divwu by zero: got %#x, want 0", c.GPR[5])
	}
}

func TestInterpRlwinm(t *testing.T) {
	cases := []struct {
		name           string
		src            uint32
		sh, mb, me     uint32
		want           uint32
	}{
		{"extract byte", 0x12345678, 8, 24, 31, 0x12},
		{"clear high", 0xFFFFFFFF, 0, 16, 31, 0x0000FFFF},
		{"wrapped mask", 0xFFFFFFFF, 0, 30, 1, 0xC0000003},
		{"slwi 4", 0x0000000F, 4, 0, 27, 0xF0},
	}
	for _, tc := range cases {
		var c Context
		c.GPR[3] = tc.src
		stepOne(t, &c, wordM(21, 3, 4, tc.sh, tc.mb, tc.me, false))
		if c.GPR[4] != tc.want {
			t.Fatalf("rlwinm %s: got %#x, want %#x", tc.name, c.GPR[4], tc.want)
		}
	}
}

func TestInterpRlwimiInsertsUnderMask(t *testing.T) {
	var c Context
	c.GPR[3] = 0x000000AB // source
	c.GPR[4] = 0x11223344 // destination keeps bits outside the mask
	// rotate left 8, insert into bits 16..23 (mask 0x0000FF00)
	stepOne(t, &c, wordM(20, 3, 4, 8, 16, 23, false))
	if c.GPR[4] != 0x1122AB44 {
		t.Fatalf("rlwimi: got %#x, want 0x1122AB44", c.GPR[4])
	}
}

func TestInterpRlwnmUsesRegisterAmount(t *testing.T) {
	var c Context
	c.GPR[3] = 0x80000001
	c.GPR[5] = 1 // rotate amount
	stepOne(t, &c, wordM(23, 3, 4, 5, 0, 31, false))
	if c.GPR[4] != 0x00000003 {
		t.Fatalf("rlwnm: got %#x, want 3", c.GPR[4])
	}
}

func TestInterpSrawiCarry(t *testing.T) {
	cases := []struct {
		name   string
		src    uint32
		sh     uint32
		want   uint32
		wantCA bool
	}{
		{"positive", 0x00000010, 2, 0x00000004, false},
		{"negative exact", 0xFFFFFFF0, 2, 0xFFFFFFFC, false},
		{"negative inexact", 0xFFFFFFF1, 2, 0xFFFFFFFC, true},
	}
	for _, tc := range cases {
		var c Context
		c.GPR[3] = tc.src
		stepOne(t, &c, wordX(31, 3, 4, tc.sh, 824))
		if c.GPR[4] != tc.want || c.XER.CA != tc.wantCA {
			t.Fatalf("srawi %s: got %#x CA=%v, want %#x %v", tc.name, c.GPR[4], c.XER.CA, tc.want, tc.wantCA)
		}
	}
}

func TestInterpSrawWideShift(t *testing.T) {
	var c Context
	c.GPR[3] = 0x80000000
	c.GPR[5] = 40 // >= 32: result is the sign fill
	stepOne(t, &c, wordX(31, 3, 4, 5, 792))
	if c.GPR[4] != 0xFFFFFFFF || !c.XER.CA {
		t.Fatalf("sraw: got %#x CA=%v, want 0xFFFFFFFF true", c.GPR[4], c.XER.CA)
	}
}
