// encode.go - per-op encoders. Each encoder's contract: if
// every non-literal source operand is statically constant, fold to
// LOADI dest,k and record dest as constant; otherwise append exactly one IR
// node and record dest as non-constant. Folding is greedy and happens only
// during encoding — there is no separate post-pass.
package ir

import "github.com/retrosys/drppc/internal/dflow"

// resolve substitutes a known-constant register operand with its literal
// value, so downstream folding (and, later, the back-end's inline-address
// fast path) sees the constant directly instead of chasing a dead LOADI.
func (b *Block) resolve(op Operand) Operand {
	if op.IsReg() {
		if v, ok := b.constKnown[op.Reg]; ok && v {
			return ImmOperand(b.constMap[op.Reg])
		}
	}
	return op
}

func (b *Block) setConst(r dflow.Reg, v uint32) {
	b.constMap[r] = v
	b.constKnown[r] = true
}

func (b *Block) clearConst(r dflow.Reg) {
	b.constKnown[r] = false
}

// EncodeLOADI loads a compile-time-known literal into dest. This is both an
// encoder in its own right (the decoder calls it directly for `li`-style
// instructions) and the terminal form every folding arithmetic encoder
// reduces to.
func (b *Block) EncodeLOADI(dest dflow.Reg, value uint32) int {
	b.setConst(dest, value)
	idx := b.append(Instr{Op: LOADI, Dest: dest, Src0: ImmOperand(value)})
	SetUpDFlowVectors(&b.nodes[idx], &dest)
	return idx
}

// EncodeMOVE copies src into dest.
func (b *Block) EncodeMOVE(dest dflow.Reg, src Operand) int {
	src = b.resolve(src)
	if src.IsImm() {
		return b.EncodeLOADI(dest, src.Imm)
	}
	b.clearConst(dest)
	idx := b.append(Instr{Op: MOVE, Dest: dest, Src0: src})
	SetUpDFlowVectors(&b.nodes[idx], &dest, src)
	return idx
}

type binOp func(a, b uint32) uint32

func (b *Block) encodeBin(op Op, dest dflow.Reg, s0, s1 Operand, fold binOp) int {
	s0 = b.resolve(s0)
	s1 = b.resolve(s1)
	if s0.IsImm() && s1.IsImm() {
		return b.EncodeLOADI(dest, fold(s0.Imm, s1.Imm))
	}
	b.clearConst(dest)
	idx := b.append(Instr{Op: op, Dest: dest, Src0: s0, Src1: s1})
	SetUpDFlowVectors(&b.nodes[idx], &dest, s0, s1)
	return idx
}

func (b *Block) EncodeADD(dest dflow.Reg, s0, s1 Operand) int {
	return b.encodeBin(ADD, dest, s0, s1, func(a, c uint32) uint32 { return a + c })
}

func (b *Block) EncodeSUB(dest dflow.Reg, s0, s1 Operand) int {
	return b.encodeBin(SUB, dest, s0, s1, func(a, c uint32) uint32 { return a - c })
}

func (b *Block) EncodeNEG(dest dflow.Reg, s0 Operand) int {
	s0 = b.resolve(s0)
	if s0.IsImm() {
		return b.EncodeLOADI(dest, uint32(-int32(s0.Imm)))
	}
	b.clearConst(dest)
	idx := b.append(Instr{Op: NEG, Dest: dest, Src0: s0})
	SetUpDFlowVectors(&b.nodes[idx], &dest, s0)
	return idx
}

func (b *Block) EncodeMULU(dest dflow.Reg, s0, s1 Operand) int {
	return b.encodeBin(MULU, dest, s0, s1, func(a, c uint32) uint32 { return a * c })
}

func (b *Block) EncodeAND(dest dflow.Reg, s0, s1 Operand) int {
	return b.encodeBin(AND, dest, s0, s1, func(a, c uint32) uint32 { return a & c })
}

func (b *Block) EncodeOR(dest dflow.Reg, s0, s1 Operand) int {
	return b.encodeBin(OR, dest, s0, s1, func(a, c uint32) uint32 { return a | c })
}

func (b *Block) EncodeXOR(dest dflow.Reg, s0, s1 Operand) int {
	return b.encodeBin(XOR, dest, s0, s1, func(a, c uint32) uint32 { return a ^ c })
}

func (b *Block) EncodeNOT(dest dflow.Reg, s0 Operand) int {
	s0 = b.resolve(s0)
	if s0.IsImm() {
		return b.EncodeLOADI(dest, ^s0.Imm)
	}
	b.clearConst(dest)
	idx := b.append(Instr{Op: NOT, Dest: dest, Src0: s0})
	SetUpDFlowVectors(&b.nodes[idx], &dest, s0)
	return idx
}

// shiftAmount masks a shift/rotate count to 5 bits; the decoder has already
// done this for any PowerPC-sourced amount, but folding re-applies the mask
// so a directly-encoded constant amount is never out of range.
func shiftAmount(v uint32) uint32 { return v & 0x1F }

func (b *Block) EncodeSHL(dest dflow.Reg, s0, s1 Operand) int {
	return b.encodeBin(SHL, dest, s0, s1, func(a, c uint32) uint32 { return a << shiftAmount(c) })
}

func (b *Block) EncodeSHR(dest dflow.Reg, s0, s1 Operand) int {
	return b.encodeBin(SHR, dest, s0, s1, func(a, c uint32) uint32 { return a >> shiftAmount(c) })
}

func rotl32(v, n uint32) uint32 {
	n &= 0x1F
	return v<<n | v>>(32-n)
}

func (b *Block) EncodeROL(dest dflow.Reg, s0, s1 Operand) int {
	return b.encodeBin(ROL, dest, s0, s1, func(a, c uint32) uint32 { return rotl32(a, c) })
}

func (b *Block) EncodeROR(dest dflow.Reg, s0, s1 Operand) int {
	return b.encodeBin(ROR, dest, s0, s1, func(a, c uint32) uint32 { return rotl32(a, 32-shiftAmount(c)) })
}

func brev16(v uint32) uint32 {
	lo := uint16(v)
	return uint32(lo>>8 | lo<<8)
}

func brev32(v uint32) uint32 {
	return v>>24 | (v&0xFF0000)>>8 | (v&0xFF00)<<8 | v<<24
}

// EncodeBREV byte-reverses s0 as either an 8-in-16 or 8-in-32 pattern,
// selected by size (Size16 or Size32).
func (b *Block) EncodeBREV(dest dflow.Reg, s0 Operand, size Size) int {
	s0 = b.resolve(s0)
	if s0.IsImm() {
		if size == Size16 {
			return b.EncodeLOADI(dest, brev16(s0.Imm))
		}
		return b.EncodeLOADI(dest, brev32(s0.Imm))
	}
	b.clearConst(dest)
	idx := b.append(Instr{Op: BREV, Dest: dest, Src0: s0, Size: size})
	SetUpDFlowVectors(&b.nodes[idx], &dest, s0)
	return idx
}

func evalCond(cond Cond, a, c uint32) bool {
	switch cond {
	case CondSignedLT:
		return int32(a) < int32(c)
	case CondSignedGT:
		return int32(a) > int32(c)
	case CondUnsignedLT:
		return a < c
	case CondUnsignedGT:
		return a > c
	case CondEQ:
		return a == c
	}
	return false
}

// EncodeCMP compares s0 against s1 per cond and writes the four CR bits at
// crField (LT, GT, EQ, SO — SO is always cleared, matching the approximate
// XER-SO-independent compare this engine implements). When both sources are
// constant the comparison folds to four LOADI nodes for the CR bits rather
// than a CMP, since the flag outcome itself is then compile-time known.
func (b *Block) EncodeCMP(crField int, s0, s1 Operand, cond Cond) int {
	s0 = b.resolve(s0)
	s1 = b.resolve(s1)
	if s0.IsImm() && s1.IsImm() {
		lt := evalCond(CondSignedLT, s0.Imm, s1.Imm)
		gt := evalCond(CondSignedGT, s0.Imm, s1.Imm)
		eq := s0.Imm == s1.Imm
		if cond == CondUnsignedLT || cond == CondUnsignedGT {
			lt = s0.Imm < s1.Imm
			gt = s0.Imm > s1.Imm
		}
		b.EncodeLOADI(dflow.CRField(crField, dflow.CRLT), b32(lt))
		b.EncodeLOADI(dflow.CRField(crField, dflow.CRGT), b32(gt))
		last := b.EncodeLOADI(dflow.CRField(crField, dflow.CREQ), b32(eq))
		b.EncodeLOADI(dflow.CRField(crField, dflow.CRSO), 0)
		return last
	}
	idx := b.append(Instr{Op: CMP, Src0: s0, Src1: s1, Cond: cond})
	n := &b.nodes[idx]
	for _, bit := range []int{dflow.CRLT, dflow.CRGT, dflow.CREQ, dflow.CRSO} {
		n.DFlowOut.Add(dflow.CRField(crField, bit))
	}
	if s0.IsReg() {
		n.DFlowIn.Add(s0.Reg)
	}
	if s1.IsReg() {
		n.DFlowIn.Add(s1.Reg)
	}
	b.clearConst(dflow.CRField(crField, dflow.CRLT))
	b.clearConst(dflow.CRField(crField, dflow.CRGT))
	b.clearConst(dflow.CRField(crField, dflow.CREQ))
	b.clearConst(dflow.CRField(crField, dflow.CRSO))
	return idx
}

func b32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// EncodeLoad appends a must-emit load of the given width from an address
// operand (which may already be a resolved constant) into dest. Memory
// content is never statically known, so loads are never folded — only the
// address operand benefits from constant propagation, which the back-end
// uses to decide whether it may inline a buffer pointer.
func (b *Block) EncodeLoad(op Op, size Size, dest dflow.Reg, addr Operand) int {
	addr = b.resolve(addr)
	b.clearConst(dest)
	idx := b.append(Instr{Op: op, Dest: dest, Src0: addr, Size: size, MustEmit: true})
	SetUpDFlowVectors(&b.nodes[idx], &dest, addr)
	return idx
}

// EncodeStore appends a must-emit store of val to addr.
func (b *Block) EncodeStore(op Op, size Size, addr, val Operand) int {
	addr = b.resolve(addr)
	val = b.resolve(val)
	idx := b.append(Instr{Op: op, Src0: addr, Src1: val, Size: size, MustEmit: true})
	SetUpDFlowVectors(&b.nodes[idx], nil, addr, val)
	return idx
}

// EncodeLoadPtr32/EncodeStorePtr32 access the context directly by field
// offset rather than through the memory map (LOADPTR32/STOREPTR32) — used
// for context-resident values the front-end addresses by a
// fixed host displacement (e.g. SPR file slots) instead of the emulated
// address space.
func (b *Block) EncodeLoadPtr32(dest dflow.Reg, fieldOffset uint32) int {
	b.clearConst(dest)
	idx := b.append(Instr{Op: LOADPTR32, Dest: dest, Src0: ImmOperand(fieldOffset), MustEmit: true})
	SetUpDFlowVectors(&b.nodes[idx], &dest)
	return idx
}

func (b *Block) EncodeStorePtr32(fieldOffset uint32, val Operand) int {
	val = b.resolve(val)
	idx := b.append(Instr{Op: STOREPTR32, Src0: ImmOperand(fieldOffset), Src1: val, MustEmit: true})
	SetUpDFlowVectors(&b.nodes[idx], nil, val)
	return idx
}

// EncodeCallRead appends a must-emit generic-handler read, used when the
// front-end knows an access must go through MMAP's slow path regardless of
// whether the address happens to be constant (e.g. known MMIO).
func (b *Block) EncodeCallRead(size Size, dest dflow.Reg, addr Operand) int {
	addr = b.resolve(addr)
	b.clearConst(dest)
	idx := b.append(Instr{Op: CALLREAD, Dest: dest, Src0: addr, Size: size, MustEmit: true})
	SetUpDFlowVectors(&b.nodes[idx], &dest, addr)
	return idx
}

// EncodeBranch appends an unconditional branch to target.
func (b *Block) EncodeBranch(target Operand) int {
	target = b.resolve(target)
	idx := b.append(Instr{Op: BRANCH, Src0: target, MustEmit: true})
	SetUpDFlowVectors(&b.nodes[idx], nil, target)
	return idx
}

// EncodeBCond appends a conditional branch: taken jumps to targetTaken when
// the CR bit named by crField/which is set, falls through to
// targetFallthrough otherwise.
func (b *Block) EncodeBCond(crField, which int, targetTaken, targetFallthrough Operand) int {
	targetTaken = b.resolve(targetTaken)
	targetFallthrough = b.resolve(targetFallthrough)
	idx := b.append(Instr{
		Op:   BCOND,
		Src0: targetTaken,
		Src1: targetFallthrough,
		Dest: dflow.CRField(crField, which),
		MustEmit: true,
	})
	n := &b.nodes[idx]
	n.DFlowIn.Add(dflow.CRField(crField, which))
	if targetTaken.IsReg() {
		n.DFlowIn.Add(targetTaken.Reg)
	}
	if targetFallthrough.IsReg() {
		n.DFlowIn.Add(targetFallthrough.Reg)
	}
	return idx
}

// EncodeSync appends a SYNC consuming cycles source cycles.
func (b *Block) EncodeSync(cycles uint32) int {
	return b.append(Instr{Op: SYNC, Src0: ImmOperand(cycles), MustEmit: true})
}

// EncodeSyncBeforeTail splices a SYNC immediately ahead of the block's
// current tail node rather than appending one after it. Every translated
// block ends in a BRANCH or BCOND (the front-end's decode loop stops only on
// one of those), and the back-end lowers both straight to a ret — anything
// appended after them would be dead x86 the emitter never reaches. The
// block's one cycle-accounting SYNC/§4.8 has to land before
// that terminator instead.
func (b *Block) EncodeSyncBeforeTail(cycles uint32) int {
	tail := b.Tail()
	if tail == sentinelIdx {
		return b.EncodeSync(cycles)
	}
	return b.insertBefore(tail, Instr{Op: SYNC, Src0: ImmOperand(cycles), MustEmit: true})
}

// EncodeConvert appends an FP single<->double conversion. FP values are not
// tracked in the integer constant map, so CONVERT (like FADD/FSUB/FMUL/FDIV)
// is never folded — consistent with the "approximate FPSCR" Non-goal,
// which rules out bit-exact FP constant evaluation on the host.
func (b *Block) EncodeConvert(dest dflow.Reg, src Operand, size Size) int {
	b.clearConst(dest)
	idx := b.append(Instr{Op: CONVERT, Dest: dest, Src0: src, Size: size, MustEmit: true})
	SetUpDFlowVectors(&b.nodes[idx], &dest, src)
	return idx
}

func (b *Block) encodeFPBin(op Op, dest dflow.Reg, s0, s1 Operand) int {
	b.clearConst(dest)
	idx := b.append(Instr{Op: op, Dest: dest, Src0: s0, Src1: s1, MustEmit: true})
	SetUpDFlowVectors(&b.nodes[idx], &dest, s0, s1)
	return idx
}

func (b *Block) EncodeFADD(dest dflow.Reg, s0, s1 Operand) int { return b.encodeFPBin(FADD, dest, s0, s1) }
func (b *Block) EncodeFSUB(dest dflow.Reg, s0, s1 Operand) int { return b.encodeFPBin(FSUB, dest, s0, s1) }
func (b *Block) EncodeFMUL(dest dflow.Reg, s0, s1 Operand) int { return b.encodeFPBin(FMUL, dest, s0, s1) }
func (b *Block) EncodeFDIV(dest dflow.Reg, s0, s1 Operand) int { return b.encodeFPBin(FDIV, dest, s0, s1) }
