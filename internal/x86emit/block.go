// block.go - lowers one finalized ir.Block to executable x86-64: every
// DFLOW register's home is a context displacement, every floating-point op
// and every memory op the constant-address fast path does not inline reaches
// back into the Go host through a HostCalls entry, branches materialize their target into the context PC
// cell, and every block ends with ret.
package x86emit

import (
	"fmt"

	"github.com/retrosys/drppc/internal/arena"
	"github.com/retrosys/drppc/internal/dflow"
	"github.com/retrosys/drppc/internal/ir"
	"github.com/retrosys/drppc/internal/mmap"
)

// EmitBlock appends machine code for blk into a (an executable arena) and
// returns the block's entry offset — the value bbdir stores as native_ptr.
// fallthroughPC is the architectural address immediately after the block's
// last decoded instruction; it is only used when blk has no branch/bcond
// node of its own (a block that simply ran out of decode budget), in which
// case EmitBlock synthesizes the PC-write-and-return epilogue. mm, when
// non-nil, is consulted by LOAD8/16/32 and STORE8/16/32 nodes whose address
// is a compile-time constant, so a buffer-backed, non-volatile region can be
// inlined as a plain mov instead of a generic-handler call (§4.7); passing
// nil always takes the generic-handler path, matching a CALLREAD node.
// profileAddr, when non-zero, is the host address of a uint64 cell the block
// brackets with RDTSC reads; the dispatcher reads the delta from there after
// each run. Zero disables profiling.
func EmitBlock(a *arena.Arena, blk *ir.Block, fallthroughPC uint32, calls HostCalls, mm *mmap.Map, profileAddr uintptr) (entry int, err error) {
	e := NewEmitter(a)
	e.mm = mm
	e.profileAddr = uint64(profileAddr)
	if err = a.Align(4); err != nil {
		return 0, err
	}
	entry = a.Ptr()

	if err = e.emitProfileProlog(); err != nil {
		return 0, err
	}

	sawControl := false
	blk.Walk(func(n *ir.Instr) {
		if err != nil {
			return
		}
		if n.Op == ir.BRANCH || n.Op == ir.BCOND {
			sawControl = true
		}
		err = e.emitInstr(n, calls)
	})
	if err != nil {
		return 0, err
	}

	if !sawControl {
		if err = e.movImm32(scratch0, fallthroughPC); err != nil {
			return 0, err
		}
		if err = e.storeCtx(e.layout.PCOffset, scratch0); err != nil {
			return 0, err
		}
		if err = e.retWithProfile(); err != nil {
			return 0, err
		}
	}
	return entry, nil
}

// emitProfileProlog parks the entry timestamp in the profile cell; the
// stores and the subtraction touch only scratch registers and the host-side
// cell, so the bracketing is never observable from the emulated program.
func (e *Emitter) emitProfileProlog() error {
	if e.profileAddr == 0 {
		return nil
	}
	if err := e.movAbs64(scratch1, e.profileAddr); err != nil {
		return err
	}
	if err := e.rdtsc64(); err != nil {
		return err
	}
	return e.storeRAX64Indirect(scratch1)
}

// retWithProfile replaces the entry stamp with the elapsed delta, then
// returns. Every block exit funnels through here, so a profiled block always
// leaves its cell holding the delta of the most recent run.
func (e *Emitter) retWithProfile() error {
	if e.profileAddr != 0 {
		if err := e.movAbs64(scratch1, e.profileAddr); err != nil {
			return err
		}
		if err := e.rdtsc64(); err != nil {
			return err
		}
		if err := e.subRAX64Indirect(scratch1); err != nil {
			return err
		}
		if err := e.storeRAX64Indirect(scratch1); err != nil {
			return err
		}
	}
	return e.ret()
}

func (e *Emitter) dispOf(r dflow.Reg) (uint32, error) {
	disp, ok := e.layout.Displacement(r)
	if !ok {
		return 0, fmt.Errorf("x86emit: register %d has no context-resident home", r)
	}
	return disp, nil
}

func (e *Emitter) loadOperand(dst reg32, op ir.Operand) error {
	if op.IsImm() {
		return e.movImm32(dst, op.Imm)
	}
	disp, err := e.dispOf(op.Reg)
	if err != nil {
		return err
	}
	if e.layout.ByteWide(op.Reg) {
		return e.loadCtxZX8(dst, disp)
	}
	return e.loadCtx(dst, disp)
}

// storeDest writes src back to r's context home at r's cell width: the CR
// condition bits and XER flags live in single-byte cells, everything else in
// 32-bit words.
func (e *Emitter) storeDest(r dflow.Reg, src reg32) error {
	disp, err := e.dispOf(r)
	if err != nil {
		return err
	}
	if e.layout.ByteWide(r) {
		return e.storeCtx8(disp, src)
	}
	return e.storeCtx(disp, src)
}

func (e *Emitter) emitInstr(n *ir.Instr, calls HostCalls) error {
	switch n.Op {
	case ir.NOP:
		return nil

	case ir.LOADI:
		if err := e.movImm32(scratch0, n.Src0.Imm); err != nil {
			return err
		}
		return e.storeDest(n.Dest, scratch0)

	case ir.MOVE:
		if err := e.loadOperand(scratch0, n.Src0); err != nil {
			return err
		}
		return e.storeDest(n.Dest, scratch0)

	case ir.ADD, ir.SUB, ir.AND, ir.OR, ir.XOR:
		return e.emitAlu(n)

	case ir.NEG:
		return e.emitUnary(n, true)
	case ir.NOT:
		return e.emitUnary(n, false)

	case ir.MULU:
		return e.emitMul(n)

	case ir.SHL, ir.SHR, ir.ROL, ir.ROR:
		return e.emitShift(n)

	case ir.BREV:
		return e.emitBrev(n)

	case ir.CMP:
		return e.emitCmp(n)

	case ir.LOAD8, ir.LOAD16, ir.LOAD32:
		return e.emitLoad(n, calls)
	case ir.CALLREAD:
		return e.emitCallRead(n, calls)
	case ir.LOAD64:
		return e.emitLoad64(n, calls)
	case ir.STORE8, ir.STORE16, ir.STORE32:
		return e.emitStore(n, calls)
	case ir.STORE64:
		return e.emitStore64(n, calls)

	case ir.LOADPTR32:
		return e.emitLoadPtr32(n)
	case ir.STOREPTR32:
		return e.emitStorePtr32(n)

	case ir.BRANCH:
		return e.emitBranch(n)
	case ir.BCOND:
		return e.emitBCond(n)

	case ir.SYNC:
		return e.call(calls.UpdateTimers, immArg(n.Src0.Imm), immArg(0), immArg(0))

	case ir.CONVERT:
		return e.emitConvert(n, calls)

	case ir.FADD:
		return e.emitFPBin(n, calls.FAdd)
	case ir.FSUB:
		return e.emitFPBin(n, calls.FSub)
	case ir.FMUL:
		return e.emitFPBin(n, calls.FMul)
	case ir.FDIV:
		return e.emitFPBin(n, calls.FDiv)
	}
	return fmt.Errorf("x86emit: unhandled op %d", n.Op)
}

func (e *Emitter) emitAlu(n *ir.Instr) error {
	if err := e.loadOperand(scratch0, n.Src0); err != nil {
		return err
	}
	if err := e.loadOperand(scratch1, n.Src1); err != nil {
		return err
	}
	var op aluOp
	switch n.Op {
	case ir.ADD:
		op = aluAdd
	case ir.SUB:
		op = aluSub
	case ir.AND:
		op = aluAnd
	case ir.OR:
		op = aluOr
	case ir.XOR:
		op = aluXor
	}
	if err := e.alu(op, scratch0, scratch1); err != nil {
		return err
	}
	return e.storeDest(n.Dest, scratch0)
}

func (e *Emitter) emitUnary(n *ir.Instr, neg bool) error {
	if err := e.loadOperand(scratch0, n.Src0); err != nil {
		return err
	}
	if neg {
		if err := e.negReg(scratch0); err != nil {
			return err
		}
	} else if err := e.notReg(scratch0); err != nil {
		return err
	}
	return e.storeDest(n.Dest, scratch0)
}

func (e *Emitter) emitMul(n *ir.Instr) error {
	if err := e.loadOperand(scratch0, n.Src0); err != nil {
		return err
	}
	if err := e.loadOperand(scratch1, n.Src1); err != nil {
		return err
	}
	if err := e.imul(scratch0, scratch1); err != nil {
		return err
	}
	return e.storeDest(n.Dest, scratch0)
}

// emitShift loads the amount into scratch1 (ECX), which shiftByCL requires.
func (e *Emitter) emitShift(n *ir.Instr) error {
	if err := e.loadOperand(scratch0, n.Src0); err != nil {
		return err
	}
	if err := e.loadOperand(scratch1, n.Src1); err != nil {
		return err
	}
	var op shiftOp
	switch n.Op {
	case ir.SHL:
		op = shiftShl
	case ir.SHR:
		op = shiftShr
	case ir.ROL:
		op = shiftRol
	case ir.ROR:
		op = shiftRor
	}
	if err := e.shiftByCL(op, scratch0); err != nil {
		return err
	}
	return e.storeDest(n.Dest, scratch0)
}

func (e *Emitter) emitBrev(n *ir.Instr) error {
	if n.Size == ir.Size16 {
		if n.Src0.IsImm() {
			if err := e.movImm32(scratch0, n.Src0.Imm&0xFFFF); err != nil {
				return err
			}
		} else {
			disp, err := e.dispOf(n.Src0.Reg)
			if err != nil {
				return err
			}
			if err := e.loadCtxZX16(scratch0, disp); err != nil {
				return err
			}
		}
		if err := e.rol16Imm8(scratch0, 8); err != nil {
			return err
		}
	} else {
		if err := e.loadOperand(scratch0, n.Src0); err != nil {
			return err
		}
		if err := e.bswapReg(scratch0); err != nil {
			return err
		}
	}
	return e.storeDest(n.Dest, scratch0)
}

// crFieldFromDFlowOut recovers which CR field a live CMP node targets: the
// encoder never records crField on the Instr itself (CMP has no Dest),
// marking all four of a field's bits in DFlowOut instead, and dead-code
// removal only ever drops a CMP whole, never splits its four output bits.
func crFieldFromDFlowOut(out dflow.Set) (field int, ok bool) {
	return out.FirstCRLTField()
}

func (e *Emitter) emitCmp(n *ir.Instr) error {
	field, ok := crFieldFromDFlowOut(n.DFlowOut)
	if !ok {
		return fmt.Errorf("x86emit: CMP node carries no CR field in DFlowOut")
	}
	if err := e.loadOperand(scratch0, n.Src0); err != nil {
		return err
	}
	if err := e.loadOperand(scratch1, n.Src1); err != nil {
		return err
	}
	if err := e.alu(aluCmp, scratch0, scratch1); err != nil {
		return err
	}

	ltCC, gtCC := byte(0xC), byte(0xF) // SETL, SETG
	if n.Cond == ir.CondUnsignedLT || n.Cond == ir.CondUnsignedGT {
		ltCC, gtCC = 0x2, 0x7 // SETB, SETA
	}

	ltDisp, err := e.dispOf(dflow.CRField(field, dflow.CRLT))
	if err != nil {
		return err
	}
	gtDisp, err := e.dispOf(dflow.CRField(field, dflow.CRGT))
	if err != nil {
		return err
	}
	eqDisp, err := e.dispOf(dflow.CRField(field, dflow.CREQ))
	if err != nil {
		return err
	}
	soDisp, err := e.dispOf(dflow.CRField(field, dflow.CRSO))
	if err != nil {
		return err
	}

	// SETcc doesn't touch flags, so the one CMP above serves all three
	// condition tests.
	for _, step := range []struct {
		cc   byte
		disp uint32
	}{{ltCC, ltDisp}, {gtCC, gtDisp}, {0x4, eqDisp}} {
		if err := e.setCC(step.cc, scratch1); err != nil {
			return err
		}
		if err := e.storeCtx8(step.disp, scratch1); err != nil {
			return err
		}
	}
	// This engine's integer compares never track overflow, so SO is always cleared.
	if err := e.movImm32(scratch1, 0); err != nil {
		return err
	}
	return e.storeCtx8(soDisp, scratch1)
}

func (e *Emitter) callSizeRead(size ir.Size, calls HostCalls) uint64 {
	switch size {
	case ir.Size8:
		return calls.Read8
	case ir.Size16:
		return calls.Read16
	default:
		return calls.Read32
	}
}

func (e *Emitter) callSizeWrite(size ir.Size, calls HostCalls) uint64 {
	switch size {
	case ir.Size8:
		return calls.Write8
	case ir.Size16:
		return calls.Write16
	default:
		return calls.Write32
	}
}

// widthBits maps an IR memory size to the bit width mmap's InlineLoad/
// StoreTarget and generic-handler tables key on.
func widthBits(size ir.Size) int {
	switch size {
	case ir.Size8:
		return 8
	case ir.Size16:
		return 16
	default:
		return 32
	}
}

// tryInlineLoad inlines a LOAD8/16/32 whose address is a known constant
// resolving, at translate time, to a buffer-backed non-volatile region: a
// plain indirect mov plus a byte-swap for mismatched endianness, instead of
// the generic-handler call emitLoad otherwise falls back to. ok is false
// when no such region exists (handler-backed, Volatile, out of range, or no
// memory map was given to EmitBlock) and the caller must take the call path.
func (e *Emitter) tryInlineLoad(n *ir.Instr, destDisp uint32) (ok bool, err error) {
	if e.mm == nil || !n.Src0.IsImm() {
		return false, nil
	}
	hostAddr, swap, ok := e.mm.InlineLoadTarget(widthBits(n.Size), n.Src0.Imm)
	if !ok {
		return false, nil
	}
	if err := e.movAbs64(scratch1, uint64(hostAddr)); err != nil {
		return false, err
	}
	switch n.Size {
	case ir.Size8:
		if err := e.loadIndirect8ZX(scratch0, scratch1); err != nil {
			return false, err
		}
	case ir.Size16:
		if err := e.loadIndirect16ZX(scratch0, scratch1); err != nil {
			return false, err
		}
		if swap {
			if err := e.rol16Imm8(scratch0, 8); err != nil {
				return false, err
			}
		}
	default:
		if err := e.loadIndirect32(scratch0, scratch1); err != nil {
			return false, err
		}
		if swap {
			if err := e.bswapReg(scratch0); err != nil {
				return false, err
			}
		}
	}
	return true, e.storeCtx(destDisp, scratch0)
}

func (e *Emitter) emitLoad(n *ir.Instr, calls HostCalls) error {
	destDisp, err := e.dispOf(n.Dest)
	if err != nil {
		return err
	}
	if inlined, err := e.tryInlineLoad(n, destDisp); inlined || err != nil {
		return err
	}
	if err := e.loadOperand(scratch0, n.Src0); err != nil {
		return err
	}
	if err := e.call(e.callSizeRead(n.Size, calls), regArg(scratch0), immArg(0), immArg(0)); err != nil {
		return err
	}
	return e.storeCtx(destDisp, scratch0)
}

// emitCallRead lowers CALLREAD, which always takes the generic-handler
// path regardless of whether the address happens to be constant (known
// MMIO the front-end deliberately routes through the host).
func (e *Emitter) emitCallRead(n *ir.Instr, calls HostCalls) error {
	destDisp, err := e.dispOf(n.Dest)
	if err != nil {
		return err
	}
	if err := e.loadOperand(scratch0, n.Src0); err != nil {
		return err
	}
	if err := e.call(e.callSizeRead(n.Size, calls), regArg(scratch0), immArg(0), immArg(0)); err != nil {
		return err
	}
	return e.storeCtx(destDisp, scratch0)
}

func (e *Emitter) emitLoad64(n *ir.Instr, calls HostCalls) error {
	destDisp, err := e.dispOf(n.Dest)
	if err != nil {
		return err
	}
	if err := e.loadOperand(scratch0, n.Src0); err != nil {
		return err
	}
	return e.call(calls.Read64, regArg(scratch0), immArg(destDisp), immArg(0))
}

// tryInlineStore is tryInlineLoad's store-side counterpart: same region
// resolution, same fallback conditions, writing scratch0 (loaded first, so
// it is not clobbered by the pointer load into scratch1) through the
// inlined address instead of calling the generic handler.
func (e *Emitter) tryInlineStore(n *ir.Instr) (ok bool, err error) {
	if e.mm == nil || !n.Src0.IsImm() {
		return false, nil
	}
	hostAddr, swap, ok := e.mm.InlineStoreTarget(widthBits(n.Size), n.Src0.Imm)
	if !ok {
		return false, nil
	}
	if err := e.loadOperand(scratch0, n.Src1); err != nil {
		return false, err
	}
	if err := e.movAbs64(scratch1, uint64(hostAddr)); err != nil {
		return false, err
	}
	switch n.Size {
	case ir.Size8:
		return true, e.storeIndirect8(scratch1, scratch0)
	case ir.Size16:
		if swap {
			if err := e.rol16Imm8(scratch0, 8); err != nil {
				return false, err
			}
		}
		return true, e.storeIndirect16(scratch1, scratch0)
	default:
		if swap {
			if err := e.bswapReg(scratch0); err != nil {
				return false, err
			}
		}
		return true, e.storeIndirect32(scratch1, scratch0)
	}
}

func (e *Emitter) emitStore(n *ir.Instr, calls HostCalls) error {
	if inlined, err := e.tryInlineStore(n); inlined || err != nil {
		return err
	}
	if err := e.loadOperand(scratch0, n.Src0); err != nil {
		return err
	}
	if err := e.loadOperand(scratch1, n.Src1); err != nil {
		return err
	}
	return e.call(e.callSizeWrite(n.Size, calls), regArg(scratch0), regArg(scratch1), immArg(0))
}

func (e *Emitter) emitStore64(n *ir.Instr, calls HostCalls) error {
	if err := e.loadOperand(scratch0, n.Src0); err != nil {
		return err
	}
	if !n.Src1.IsReg() {
		return fmt.Errorf("x86emit: STORE64 requires a register source")
	}
	valDisp, err := e.dispOf(n.Src1.Reg)
	if err != nil {
		return err
	}
	return e.call(calls.Write64, regArg(scratch0), immArg(valDisp), immArg(0))
}

func (e *Emitter) emitLoadPtr32(n *ir.Instr) error {
	destDisp, err := e.dispOf(n.Dest)
	if err != nil {
		return err
	}
	if err := e.loadCtx(scratch0, n.Src0.Imm); err != nil {
		return err
	}
	return e.storeCtx(destDisp, scratch0)
}

func (e *Emitter) emitStorePtr32(n *ir.Instr) error {
	if err := e.loadOperand(scratch0, n.Src1); err != nil {
		return err
	}
	return e.storeCtx(n.Src0.Imm, scratch0)
}

func (e *Emitter) emitBranch(n *ir.Instr) error {
	if err := e.loadOperand(scratch0, n.Src0); err != nil {
		return err
	}
	if err := e.storeCtx(e.layout.PCOffset, scratch0); err != nil {
		return err
	}
	return e.retWithProfile()
}

// emitBCond writes the fall-through target first, tests the named CR bit,
// and conditionally overwrites PC with the taken target — the
// "materializes the condition-flag value, writes the fall-through target
// into PC, emits a je over the taken branch, writes the taken target".
func (e *Emitter) emitBCond(n *ir.Instr) error {
	if err := e.loadOperand(scratch0, n.Src1); err != nil {
		return err
	}
	if err := e.storeCtx(e.layout.PCOffset, scratch0); err != nil {
		return err
	}

	crDisp, err := e.dispOf(n.Dest)
	if err != nil {
		return err
	}
	if err := e.loadCtxZX8(scratch1, crDisp); err != nil {
		return err
	}
	if err := e.testRegSelf(scratch1); err != nil {
		return err
	}
	patchAt, err := e.jccRel32(0x4) // JE: bit clear -> not taken, skip the overwrite
	if err != nil {
		return err
	}

	if err := e.loadOperand(scratch0, n.Src0); err != nil {
		return err
	}
	if err := e.storeCtx(e.layout.PCOffset, scratch0); err != nil {
		return err
	}

	e.patchRel32(patchAt, e.a.Ptr())
	return e.retWithProfile()
}

func (e *Emitter) emitConvert(n *ir.Instr, calls HostCalls) error {
	destDisp, err := e.dispOf(n.Dest)
	if err != nil {
		return err
	}
	if !n.Src0.IsReg() {
		return fmt.Errorf("x86emit: CONVERT requires a register source")
	}
	srcDisp, err := e.dispOf(n.Src0.Reg)
	if err != nil {
		return err
	}
	return e.call(calls.FConvert, immArg(destDisp), immArg(srcDisp), immArg(uint32(n.Size)))
}

func (e *Emitter) emitFPBin(n *ir.Instr, addr uint64) error {
	destDisp, err := e.dispOf(n.Dest)
	if err != nil {
		return err
	}
	if !n.Src0.IsReg() || !n.Src1.IsReg() {
		return fmt.Errorf("x86emit: floating-point op requires register operands")
	}
	aDisp, err := e.dispOf(n.Src0.Reg)
	if err != nil {
		return err
	}
	bDisp, err := e.dispOf(n.Src1.Reg)
	if err != nil {
		return err
	}
	return e.call(addr, immArg(destDisp), immArg(aDisp), immArg(bDisp))
}
