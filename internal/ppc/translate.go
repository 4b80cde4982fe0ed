// translate.go - the front-end's block decoder: walks forward from a
// starting address, lowering one instruction at a time to IR until a branch
// terminates the block.
package ppc

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/retrosys/drppc/internal/ir"
	"github.com/retrosys/drppc/internal/mmap"
)

// maxBlockInstrs bounds how far DecodeBlock will walk before giving up on a
// block that never reaches a branch (pathological fetch-region content, or a
// run of illegal words past the code a real program would ever execute).
// Hitting it is a compile-time escape, not a crash: the caller interprets
// the block instead CompileError handling.
const maxBlockInstrs = 4096

// ErrBlockTooLong is returned when a candidate block runs past
// maxBlockInstrs without reaching a terminating branch.
var ErrBlockTooLong = errors.New("ppc: block exceeds maximum decode length")

// fetchWordAt reads the big-endian instruction word at addr directly from
// m, independent of any Context's cached fetch pointer — the decoder walks
// forward across many addresses in one call and has no single context to
// cache against.
func fetchWordAt(m *mmap.Map, addr uint32) (uint32, error) {
	r := m.FindFetchRegion(addr)
	if r == nil {
		return 0, fmt.Errorf("%w: fetch at %#08x", ErrBadPC, addr)
	}
	if r.Ptr == nil {
		b0 := uint32(r.ReadFn8(addr))
		b1 := uint32(r.ReadFn8(addr + 1))
		b2 := uint32(r.ReadFn8(addr + 2))
		b3 := uint32(r.ReadFn8(addr + 3))
		return b0<<24 | b1<<16 | b2<<8 | b3, nil
	}
	off := addr - r.Start
	if int(off)+4 > len(r.Ptr) {
		return 0, fmt.Errorf("%w: fetch crosses region boundary at %#08x", ErrBadPC, addr)
	}
	word := binary.BigEndian.Uint32(r.Ptr[off:])
	if !r.BigEndian {
		word = swap32(word)
	}
	return word, nil
}

// DecodeBlock lowers the instruction stream starting at startPC to IR,
// stopping as soon as a BRANCH or BCOND node is appended. It returns the
// finalized block (dead-code already removed, SYNC spliced ahead of the
// terminal branch) and the total interpreter-equivalent cycle cost the
// block's SYNC carries, matching the "interpreter cycle
// accounting and emitted SYNC sum differ by at most one per basic block."
//
// ErrNotTranslatable and ErrBlockTooLong are both non-fatal: the caller
// leaves the address untranslated and keeps interpreting. Any other error (ErrBadPC, illegal opcode) is fatal
// and propagates as-is.
func DecodeBlock(m *mmap.Map, startPC uint32, model Model) (*ir.Block, uint32, error) {
	block := ir.BeginBB()
	bd := NewBuilder(block, startPC, model)

	var totalCycles uint32
	for i := 0; ; i++ {
		if i >= maxBlockInstrs {
			return nil, 0, ErrBlockTooLong
		}
		word, err := fetchWordAt(m, bd.PC)
		if err != nil {
			return nil, 0, err
		}
		decode := lookupDecode(word)
		if decode == nil {
			if lookupInterp(word) == nil {
				return nil, 0, fmt.Errorf("%w: %#08x at %#08x", ErrIllegalOpcode, word, bd.PC)
			}
			return nil, 0, fmt.Errorf("%w: %#08x at %#08x", ErrNotTranslatable, word, bd.PC)
		}
		cycles, err := decode(bd, word)
		if err != nil {
			return nil, 0, err
		}
		totalCycles += uint32(cycles)

		tail := block.At(block.Tail())
		if tail.Op == ir.BRANCH || tail.Op == ir.BCOND {
			break
		}
		bd.PC += 4
	}

	block.EncodeSyncBeforeTail(totalCycles)
	return ir.EndBB(block), totalCycles, nil
}
