// interp_branch.go - interpreter handlers for the implemented branch
// subset: b, bc, bclr, bcctr, with the AA/LK variants and BO/BI condition
// evaluation.
package ppc

func decodeLI(word uint32) uint32 {
	li := word & 0x03FFFFFC
	if li&0x02000000 != 0 {
		li |= 0xFC000000
	}
	return li
}

func decodeBD(word uint32) uint32 {
	bd := word & 0xFFFC
	if bd&0x8000 != 0 {
		bd |= 0xFFFF0000
	}
	return bd
}

func decodeBO(word uint32) uint32 { return (word >> 21) & 0x1F }
func decodeBI(word uint32) uint32 { return (word >> 16) & 0x1F }

// evalBranchCond implements the standard BO/BI condition test: bit 0x10
// (BO[0]) suppresses the CTR decrement-and-test, bit 0x08 (BO[1]) selects
// which CTR outcome branches, bit 0x04 (BO[2]) suppresses the CR bit test,
// bit 0x02 (BO[3]) is the value the CR bit must hold to take the branch.
func evalBranchCond(c *Context, bo, bi uint32) bool {
	ctrOK := true
	if bo&0x10 == 0 {
		c.CTR--
		ctrZero := c.CTR == 0
		if bo&0x08 == 0 {
			ctrOK = !ctrZero
		} else {
			ctrOK = ctrZero
		}
	}
	condOK := true
	if bo&0x04 == 0 {
		bit := crBitValue(c, bi)
		condOK = bit == (bo&0x02 != 0)
	}
	return ctrOK && condOK
}

func crBitValue(c *Context, bi uint32) bool {
	field := c.CR[bi/4]
	switch bi % 4 {
	case 0:
		return field.LT
	case 1:
		return field.GT
	case 2:
		return field.EQ
	default:
		return field.SO
	}
}

func interpB(e *Env, word uint32) (int, error) {
	target := decodeLI(word)
	if word&2 == 0 { // !AA
		target += e.Ctx.PC
	}
	if word&1 != 0 { // LK
		e.Ctx.LR = e.Ctx.PC + 4
	}
	e.Ctx.PC = target
	return 2, nil
}

func interpBC(e *Env, word uint32) (int, error) {
	bo, bi := decodeBO(word), decodeBI(word)
	take := evalBranchCond(e.Ctx, bo, bi)
	if word&1 != 0 {
		e.Ctx.LR = e.Ctx.PC + 4
	}
	if !take {
		e.Ctx.PC += 4
		return 2, nil
	}
	target := decodeBD(word)
	if word&2 == 0 {
		target += e.Ctx.PC
	}
	e.Ctx.PC = target
	return 2, nil
}

func interpBCLR(e *Env, word uint32) (int, error) {
	bo, bi := decodeBO(word), decodeBI(word)
	take := evalBranchCond(e.Ctx, bo, bi)
	target := e.Ctx.LR &^ 3
	if word&1 != 0 {
		e.Ctx.LR = e.Ctx.PC + 4
	}
	if !take {
		e.Ctx.PC += 4
		return 2, nil
	}
	e.Ctx.PC = target
	return 2, nil
}

func interpBCCTR(e *Env, word uint32) (int, error) {
	bo, bi := decodeBO(word), decodeBI(word)
	// BO[0] is forced for bcctr (no CTR test, CTR is the target): only the
	// CR-bit test applies.
	condOK := true
	if bo&0x04 == 0 {
		condOK = crBitValue(e.Ctx, bi) == (bo&0x02 != 0)
	}
	target := e.Ctx.CTR &^ 3
	if word&1 != 0 {
		e.Ctx.LR = e.Ctx.PC + 4
	}
	if !condOK {
		e.Ctx.PC += 4
		return 2, nil
	}
	e.Ctx.PC = target
	return 2, nil
}

func init() {
	register(descriptor{name: "b", primary: 18, interp: interpB, decode: decodeB})
	register(descriptor{name: "bc", primary: 16, interp: interpBC, decode: decodeBC})
	register(descriptor{name: "bclr", primary: 19, extMask: 0x3FF, extMatch: 16, interp: interpBCLR, decode: decodeBCLR})
	register(descriptor{name: "bcctr", primary: 19, extMask: 0x3FF, extMatch: 528, interp: interpBCCTR, decode: decodeBCCTR})
}
