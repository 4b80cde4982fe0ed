// decode_branch.go - IR decoders for the branch subset registered in
// interp_branch.go's init().
//
// CTR-decrementing branches (BO[0] clear) are not lowered to IR: expressing
// the decrement-and-test against the architectural CTR register would need
// a second live value threaded through BCOND that the IR's single-CR-bit
// model doesn't carry. Those blocks fall back to the interpreter (the
// top-level loop treats ErrNotTranslatable as an interpret-only block,
// the translation path), which is rare in practice since
// bdnz-style loops are usually short and stay interpreted without costing
// measurable throughput.
package ppc

import (
	"errors"

	"github.com/retrosys/drppc/internal/dflow"
	"github.com/retrosys/drppc/internal/ir"
)

// ErrNotTranslatable is returned by a DecodeFunc for an instruction form
// this front-end does not lower to IR; the engine must interpret the
// containing block instead of compiling it.
var ErrNotTranslatable = errors.New("ppc: instruction not translatable to IR")

var crBitTab = [4]int{dflow.CRLT, dflow.CRGT, dflow.CREQ, dflow.CRSO}

func crFieldWhich(bi uint32) (field, which int) {
	return int(bi / 4), crBitTab[bi%4]
}

func decodeB(bd *Builder, word uint32) (int, error) {
	target := decodeLI(word)
	if word&2 == 0 {
		target += bd.PC
	}
	if word&1 != 0 {
		bd.Block.EncodeMOVE(bd.LR(), ir.ImmOperand(bd.PC+4))
	}
	bd.Block.EncodeBranch(ir.ImmOperand(target))
	return 2, nil
}

func decodeBC(bd *Builder, word uint32) (int, error) {
	bo, bi := decodeBO(word), decodeBI(word)
	if bo&0x10 == 0 {
		return 0, ErrNotTranslatable
	}
	target := decodeBD(word)
	if word&2 == 0 {
		target += bd.PC
	}
	fallthroughPC := bd.PC + 4
	if word&1 != 0 {
		bd.Block.EncodeMOVE(bd.LR(), ir.ImmOperand(fallthroughPC))
	}
	if bo&0x04 != 0 {
		// condition ignored and CTR ignored (bo checked above): unconditional.
		bd.Block.EncodeBranch(ir.ImmOperand(target))
		return 2, nil
	}
	field, which := crFieldWhich(bi)
	taken, fall := ir.ImmOperand(target), ir.ImmOperand(fallthroughPC)
	if bo&0x02 == 0 {
		// branch when the bit is clear: invert which operand is reached on
		// the "set" outcome.
		taken, fall = fall, taken
	}
	bd.Block.EncodeBCond(field, which, taken, fall)
	return 2, nil
}

func decodeBCLR(bd *Builder, word uint32) (int, error) {
	bo, bi := decodeBO(word), decodeBI(word)
	if bo&0x10 == 0 {
		return 0, ErrNotTranslatable
	}
	lr := bd.LR()
	target := bd.Temp()
	bd.Block.EncodeAND(target, ir.RegOperand(lr), ir.ImmOperand(^uint32(3)))
	fallthroughPC := bd.PC + 4
	if word&1 != 0 {
		// LR is both read (as the target) and written (as the link) here;
		// the write happens after the target has already been captured in
		// the temp above.
		bd.Block.EncodeMOVE(lr, ir.ImmOperand(fallthroughPC))
	}
	if bo&0x04 != 0 {
		bd.Block.EncodeBranch(ir.RegOperand(target))
		return 2, nil
	}
	field, which := crFieldWhich(bi)
	taken, fall := ir.RegOperand(target), ir.ImmOperand(fallthroughPC)
	if bo&0x02 == 0 {
		taken, fall = fall, taken
	}
	bd.Block.EncodeBCond(field, which, taken, fall)
	return 2, nil
}

func decodeBCCTR(bd *Builder, word uint32) (int, error) {
	bo, bi := decodeBO(word), decodeBI(word)
	ctr := bd.CTR()
	target := bd.Temp()
	bd.Block.EncodeAND(target, ir.RegOperand(ctr), ir.ImmOperand(^uint32(3)))
	fallthroughPC := bd.PC + 4
	if word&1 != 0 {
		bd.Block.EncodeMOVE(bd.LR(), ir.ImmOperand(fallthroughPC))
	}
	if bo&0x04 != 0 {
		bd.Block.EncodeBranch(ir.RegOperand(target))
		return 2, nil
	}
	field, which := crFieldWhich(bi)
	taken, fall := ir.RegOperand(target), ir.ImmOperand(fallthroughPC)
	if bo&0x02 == 0 {
		taken, fall = fall, taken
	}
	bd.Block.EncodeBCond(field, which, taken, fall)
	return 2, nil
}
