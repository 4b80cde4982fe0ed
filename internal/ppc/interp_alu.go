// interp_alu.go - interpreter handlers for the implemented integer ALU
// subset: add/addi/addis/subf, and/or/xor/nor, slw/srw, mullw, and the
// compare family. Handler shape follows an op<Mnemonic> method convention,
// one function per opcode.
package ppc

func setCR0(c *Context, result int32, so bool) {
	c.CR[0] = CRField{
		LT: result < 0,
		GT: result > 0,
		EQ: result == 0,
		SO: so,
	}
}

func interpADD(e *Env, word uint32) (int, error) {
	rd, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := e.GPR(ra) + e.GPR(rb)
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpADDI(e *Env, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	simm := uint32(decodeSIMM(word))
	base := uint32(0)
	if ra != 0 {
		base = e.GPR(ra)
	}
	e.SetGPR(rd, base+simm)
	return 1, nil
}

func interpADDIS(e *Env, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	simm := decodeUIMM(word) << 16
	base := uint32(0)
	if ra != 0 {
		base = e.GPR(ra)
	}
	e.SetGPR(rd, base+simm)
	return 1, nil
}

func interpSUBF(e *Env, word uint32) (int, error) {
	rd, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := e.GPR(rb) - e.GPR(ra)
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpAND(e *Env, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := e.GPR(rs) & e.GPR(rb)
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpOR(e *Env, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := e.GPR(rs) | e.GPR(rb)
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpXOR(e *Env, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := e.GPR(rs) ^ e.GPR(rb)
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpNOR(e *Env, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := ^(e.GPR(rs) | e.GPR(rb))
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpSLW(e *Env, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	shift := e.GPR(rb) & 0x3F
	var result uint32
	if shift < 32 {
		result = e.GPR(rs) << shift
	}
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpSRW(e *Env, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	shift := e.GPR(rb) & 0x3F
	var result uint32
	if shift < 32 {
		result = e.GPR(rs) >> shift
	}
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 2, nil
}

func interpMULLW(e *Env, word uint32) (int, error) {
	rd, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := e.GPR(ra) * e.GPR(rb)
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 4, nil // memory-multiple/integer-multiply are costlier
}

func interpCMPI(e *Env, word uint32) (int, error) {
	crf := decodeCRF(word)
	ra := decodeRA(word)
	a := int32(e.GPR(ra))
	b := decodeSIMM(word)
	e.Ctx.CR[crf] = CRField{LT: a < b, GT: a > b, EQ: a == b, SO: e.Ctx.XER.SO}
	return 1, nil
}

func interpCMPLI(e *Env, word uint32) (int, error) {
	crf := decodeCRF(word)
	ra := decodeRA(word)
	a := e.GPR(ra)
	b := decodeUIMM(word)
	e.Ctx.CR[crf] = CRField{LT: a < b, GT: a > b, EQ: a == b, SO: e.Ctx.XER.SO}
	return 1, nil
}

func interpCMP(e *Env, word uint32) (int, error) {
	crf := decodeCRF(word)
	ra, rb := decodeRA(word), decodeRB(word)
	a, b := int32(e.GPR(ra)), int32(e.GPR(rb))
	e.Ctx.CR[crf] = CRField{LT: a < b, GT: a > b, EQ: a == b, SO: e.Ctx.XER.SO}
	return 1, nil
}

func interpCMPL(e *Env, word uint32) (int, error) {
	crf := decodeCRF(word)
	ra, rb := decodeRA(word), decodeRB(word)
	a, b := e.GPR(ra), e.GPR(rb)
	e.Ctx.CR[crf] = CRField{LT: a < b, GT: a > b, EQ: a == b, SO: e.Ctx.XER.SO}
	return 1, nil
}

func init() {
	register(descriptor{name: "add", primary: 31, extMask: 0x1FF, extMatch: 266, interp: interpADD, decode: decodeADD})
	register(descriptor{name: "addi", primary: 14, interp: interpADDI, decode: decodeADDI})
	register(descriptor{name: "addis", primary: 15, interp: interpADDIS, decode: decodeADDIS})
	register(descriptor{name: "subf", primary: 31, extMask: 0x1FF, extMatch: 40, interp: interpSUBF, decode: decodeSUBF})
	register(descriptor{name: "and", primary: 31, extMask: 0x3FF, extMatch: 28, interp: interpAND, decode: decodeAND})
	register(descriptor{name: "or", primary: 31, extMask: 0x3FF, extMatch: 444, interp: interpOR, decode: decodeOR})
	register(descriptor{name: "xor", primary: 31, extMask: 0x3FF, extMatch: 316, interp: interpXOR, decode: decodeXOR})
	register(descriptor{name: "nor", primary: 31, extMask: 0x3FF, extMatch: 124, interp: interpNOR, decode: decodeNOR})
	register(descriptor{name: "slw", primary: 31, extMask: 0x3FF, extMatch: 24, interp: interpSLW, decode: decodeSLW})
	register(descriptor{name: "srw", primary: 31, extMask: 0x3FF, extMatch: 536, interp: interpSRW, decode: decodeSRW})
	register(descriptor{name: "mullw", primary: 31, extMask: 0x1FF, extMatch: 235, interp: interpMULLW, decode: decodeMULLW})
	register(descriptor{name: "cmpi", primary: 11, interp: interpCMPI, decode: decodeCMPI})
	register(descriptor{name: "cmpli", primary: 10, interp: interpCMPLI, decode: decodeCMPLI})
	register(descriptor{name: "cmp", primary: 31, extMask: 0x3FF, extMatch: 0, interp: interpCMP, decode: decodeCMP})
	register(descriptor{name: "cmpl", primary: 31, extMask: 0x3FF, extMatch: 32, interp: interpCMPL, decode: decodeCMPL})
}
