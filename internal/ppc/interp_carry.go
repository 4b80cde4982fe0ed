// interp_carry.go - interpreter handlers for the carry-propagating
// arithmetic family (addic through subfme), the high-word multiplies and
// the integer divides. Interpreter-only: XER[CA] is not part of the IR's
// value space (the flags the IR models are the CR compare bits), so none of
// these carries a decode descriptor and a block containing one stays
// interpreted, same as lwarx/stwcx. in interp_atomic.go.
package ppc

// addCarry returns a+b+cin and latches the unsigned carry-out into XER[CA].
func addCarry(c *Context, a, b, cin uint32) uint32 {
	sum := uint64(a) + uint64(b) + uint64(cin)
	c.XER.CA = sum > 0xFFFFFFFF
	return uint32(sum)
}

func carryIn(c *Context) uint32 {
	if c.XER.CA {
		return 1
	}
	return 0
}

func interpADDIC(e *Env, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	e.SetGPR(rd, addCarry(e.Ctx, e.GPR(ra), uint32(decodeSIMM(word)), 0))
	return 1, nil
}

// addic. always records CR0 (the dot is part of the mnemonic, there is no
// Rc bit in the D-form encoding).
func interpADDICRecord(e *Env, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	result := addCarry(e.Ctx, e.GPR(ra), uint32(decodeSIMM(word)), 0)
	e.SetGPR(rd, result)
	setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	return 1, nil
}

func interpSUBFIC(e *Env, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	e.SetGPR(rd, addCarry(e.Ctx, ^e.GPR(ra), uint32(decodeSIMM(word)), 1))
	return 1, nil
}

func interpADDC(e *Env, word uint32) (int, error) {
	rd, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := addCarry(e.Ctx, e.GPR(ra), e.GPR(rb), 0)
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

// adde's carry-out is the OR of both addition steps' carries, so the sum is
// done in one 33-bit-equivalent pass through addCarry.
func interpADDE(e *Env, word uint32) (int, error) {
	rd, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := addCarry(e.Ctx, e.GPR(ra), e.GPR(rb), carryIn(e.Ctx))
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpADDZE(e *Env, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	result := addCarry(e.Ctx, e.GPR(ra), 0, carryIn(e.Ctx))
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpADDME(e *Env, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	result := addCarry(e.Ctx, e.GPR(ra), 0xFFFFFFFF, carryIn(e.Ctx))
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpSUBFC(e *Env, word uint32) (int, error) {
	rd, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := addCarry(e.Ctx, ^e.GPR(ra), e.GPR(rb), 1)
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpSUBFE(e *Env, word uint32) (int, error) {
	rd, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := addCarry(e.Ctx, ^e.GPR(ra), e.GPR(rb), carryIn(e.Ctx))
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpSUBFZE(e *Env, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	result := addCarry(e.Ctx, ^e.GPR(ra), 0, carryIn(e.Ctx))
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpSUBFME(e *Env, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	result := addCarry(e.Ctx, ^e.GPR(ra), 0xFFFFFFFF, carryIn(e.Ctx))
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpMULHW(e *Env, word uint32) (int, error) {
	rd, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := uint32((int64(int32(e.GPR(ra))) * int64(int32(e.GPR(rb)))) >> 32)
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 4, nil
}

func interpMULHWU(e *Env, word uint32) (int, error) {
	rd, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := uint32((uint64(e.GPR(ra)) * uint64(e.GPR(rb))) >> 32)
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 4, nil
}

// divw's boundary cases follow the hardware: a divide by zero of a
// non-negative dividend gives 0, a divide by zero of a negative dividend or
// the INT_MIN/-1 overflow gives all ones. No trap is raised either way.
func interpDIVW(e *Env, word uint32) (int, error) {
	rd := decodeRD(word)
	a, b := e.GPR(decodeRA(word)), e.GPR(decodeRB(word))
	var result uint32
	switch {
	case b == 0 && a < 0x80000000:
		result = 0
	case b == 0 || (b == 0xFFFFFFFF && a == 0x80000000):
		result = 0xFFFFFFFF
	default:
		result = uint32(int32(a) / int32(b))
	}
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 19, nil
}

func interpDIVWU(e *Env, word uint32) (int, error) {
	rd := decodeRD(word)
	a, b := e.GPR(decodeRA(word)), e.GPR(decodeRB(word))
	var result uint32
	if b != 0 {
		result = a / b
	}
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 19, nil
}

func init() {
	register(descriptor{name: "addic", primary: 12, interp: interpADDIC})
	register(descriptor{name: "addic.", primary: 13, interp: interpADDICRecord})
	register(descriptor{name: "subfic", primary: 8, interp: interpSUBFIC})
	register(descriptor{name: "addc", primary: 31, extMask: 0x1FF, extMatch: 10, interp: interpADDC})
	register(descriptor{name: "adde", primary: 31, extMask: 0x1FF, extMatch: 138, interp: interpADDE})
	register(descriptor{name: "addze", primary: 31, extMask: 0x1FF, extMatch: 202, interp: interpADDZE})
	register(descriptor{name: "addme", primary: 31, extMask: 0x1FF, extMatch: 234, interp: interpADDME})
	register(descriptor{name: "subfc", primary: 31, extMask: 0x1FF, extMatch: 8, interp: interpSUBFC})
	register(descriptor{name: "subfe", primary: 31, extMask: 0x1FF, extMatch: 136, interp: interpSUBFE})
	register(descriptor{name: "subfze", primary: 31, extMask: 0x1FF, extMatch: 200, interp: interpSUBFZE})
	register(descriptor{name: "subfme", primary: 31, extMask: 0x1FF, extMatch: 232, interp: interpSUBFME})
	register(descriptor{name: "mulhw", primary: 31, extMask: 0x1FF, extMatch: 75, interp: interpMULHW})
	register(descriptor{name: "mulhwu", primary: 31, extMask: 0x1FF, extMatch: 11, interp: interpMULHWU})
	register(descriptor{name: "divw", primary: 31, extMask: 0x1FF, extMatch: 491, interp: interpDIVW})
	register(descriptor{name: "divwu", primary: 31, extMask: 0x1FF, extMatch: 459, interp: interpDIVWU})
}
