package ppc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrosys/drppc/internal/ir"
)

func opsOf(blk *ir.Block) []ir.Op {
	var ops []ir.Op
	blk.Walk(func(n *ir.Instr) { ops = append(ops, n.Op) })
	return ops
}

func TestDecodeBlockConstantPropagatesThroughImmediateLogic(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, wordADDI(3, 0, 5))      // li r3, 5
	putWord(buf, 4, wordD(24, 3, 4, 0x10))  // ori r4, r3, 0x10
	putWord(buf, 8, wordBAbs(0x2000))

	blk, _, err := DecodeBlock(m, 0, Model6xx)
	require.NoError(t, err)

	for _, op := range opsOf(blk) {
		if op == ir.OR {
			t.Fatal("ori over a known-constant source must fold to LOADI, not emit OR")
		}
	}
}

func TestDecodeBlockRlwinmFoldsConstantSource(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, wordADDI(3, 0, 0x00F0))      // li r3, 0xF0
	putWord(buf, 4, wordM(21, 3, 4, 4, 0, 27, false)) // rlwinm r4, r3, 4, 0, 27
	putWord(buf, 8, wordBAbs(0x2000))

	blk, _, err := DecodeBlock(m, 0, Model6xx)
	require.NoError(t, err)

	for _, op := range opsOf(blk) {
		if op == ir.ROL || op == ir.AND {
			t.Fatalf("rlwinm of a constant must fold entirely, found %d node", op)
		}
	}
}

func TestDecodeBlockUpdateLoadEmitsWriteBack(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, wordD(33, 3, 4, 0x20)) // lwzu r3, 0x20(r4)
	putWord(buf, 4, wordBAbs(0x2000))

	blk, _, err := DecodeBlock(m, 0, Model6xx)
	require.NoError(t, err)

	var loads, moves int
	blk.Walk(func(n *ir.Instr) {
		switch n.Op {
		case ir.LOAD32:
			loads++
		case ir.MOVE, ir.ADD:
			moves++
		}
	})
	assert.Equal(t, 1, loads)
	assert.NotZero(t, moves, "the effective address must be written back to rA")
}

func TestDecodeBlockBarrierContributesCostWithoutIR(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, wordX(31, 0, 0, 0, 598)) // sync
	putWord(buf, 4, wordBAbs(0x2000))

	blk, cycles, err := DecodeBlock(m, 0, Model6xx)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), cycles)
	assert.Equal(t, []ir.Op{ir.SYNC, ir.BRANCH}, opsOf(blk), "a barrier adds cost but no IR of its own")
}

func TestDecodeBlockDcbzUnrollsToEightStores(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, wordX(31, 0, 0, 4, 1014)) // dcbz 0, r4
	putWord(buf, 4, wordBAbs(0x2000))

	blk, _, err := DecodeBlock(m, 0, Model6xx)
	require.NoError(t, err)

	stores := 0
	blk.Walk(func(n *ir.Instr) {
		if n.Op == ir.STORE32 {
			stores++
		}
	})
	assert.Equal(t, 8, stores)
}

func TestDecodeBlockCRLogicalIsTranslatable(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, crWord(449, 14, 4, 9)) // cror
	putWord(buf, 4, wordBAbs(0x2000))

	blk, _, err := DecodeBlock(m, 0, Model6xx)
	require.NoError(t, err)
	assert.Equal(t, ir.BRANCH, blk.At(blk.Tail()).Op)
}

func TestDecodeBlockInterpreterOnlyForms(t *testing.T) {
	cases := []struct {
		name string
		word uint32
	}{
		{"srawi", wordX(31, 3, 4, 2, 824)},
		{"extsb", wordX(31, 3, 4, 0, 954)},
		{"lha", wordD(42, 3, 4, 0)},
		{"sc", 17<<26 | 2},
		{"addic", wordD(12, 3, 4, 1)},
		{"mftb", wordX(31, 3, 0, 0, 371) | tbrSPRBits(268)},
		{"lfs", wordD(48, 3, 4, 0)},
	}
	ensureTables(t)
	for _, tc := range cases {
		m, buf := flatRAM(t, 0x1000)
		putWord(buf, 0, tc.word)
		_, _, err := DecodeBlock(m, 0, Model6xx)
		require.ErrorIs(t, err, ErrNotTranslatable, tc.name)
	}
}

func TestDecodeBlockFmaddAliasedAddendStaysInterpreted(t *testing.T) {
	ensureTables(t)
	m, buf := flatRAM(t, 0x1000)
	putWord(buf, 0, wordA(63, 3, 1, 3, 2, 29)) // fmadd f3, f1, f3, f2: frD == frB
	putWord(buf, 4, wordBAbs(0x2000))

	_, _, err := DecodeBlock(m, 0, Model6xx)
	require.ErrorIs(t, err, ErrNotTranslatable)

	putWord(buf, 0, wordA(63, 3, 1, 4, 2, 29)) // distinct registers translate
	blk, _, err := DecodeBlock(m, 0, Model6xx)
	require.NoError(t, err)
	var fmul, fadd int
	blk.Walk(func(n *ir.Instr) {
		switch n.Op {
		case ir.FMUL:
			fmul++
		case ir.FADD:
			fadd++
		}
	})
	assert.Equal(t, 1, fmul)
	assert.Equal(t, 1, fadd)
}
