// interp_logic.go - interpreter handlers for the remaining integer logical
// family: the D-form immediate pairs (ori/oris, xori/xoris, andi./andis.),
// the X-form complement variants (andc, orc, eqv, nand), neg, the
// sign-extension pair extsb/extsh, and cntlzw.
package ppc

import "math/bits"

func interpORI(e *Env, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	e.SetGPR(ra, e.GPR(rs)|decodeUIMM(word))
	return 1, nil
}

func interpORIS(e *Env, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	e.SetGPR(ra, e.GPR(rs)|decodeUIMM(word)<<16)
	return 1, nil
}

func interpXORI(e *Env, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	e.SetGPR(ra, e.GPR(rs)^decodeUIMM(word))
	return 1, nil
}

func interpXORIS(e *Env, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	e.SetGPR(ra, e.GPR(rs)^decodeUIMM(word)<<16)
	return 1, nil
}

// andi. and andis. always record CR0; they have no Rc bit (the dot is part
// of the mnemonic).
func interpANDI(e *Env, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	result := e.GPR(rs) & decodeUIMM(word)
	e.SetGPR(ra, result)
	setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	return 1, nil
}

func interpANDIS(e *Env, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	result := e.GPR(rs) & (decodeUIMM(word) << 16)
	e.SetGPR(ra, result)
	setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	return 1, nil
}

func interpANDC(e *Env, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := e.GPR(rs) &^ e.GPR(rb)
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpORC(e *Env, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := e.GPR(rs) | ^e.GPR(rb)
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpEQV(e *Env, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := ^(e.GPR(rs) ^ e.GPR(rb))
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpNAND(e *Env, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	result := ^(e.GPR(rs) & e.GPR(rb))
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpNEG(e *Env, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	result := uint32(-int32(e.GPR(ra)))
	e.SetGPR(rd, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpEXTSB(e *Env, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	result := uint32(int32(int8(e.GPR(rs))))
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpEXTSH(e *Env, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	result := uint32(int32(int16(e.GPR(rs))))
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func interpCNTLZW(e *Env, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	result := uint32(bits.LeadingZeros32(e.GPR(rs)))
	e.SetGPR(ra, result)
	if decodeRc(word) {
		setCR0(e.Ctx, int32(result), e.Ctx.XER.SO)
	}
	return 1, nil
}

func init() {
	register(descriptor{name: "ori", primary: 24, interp: interpORI, decode: decodeORI})
	register(descriptor{name: "oris", primary: 25, interp: interpORIS, decode: decodeORIS})
	register(descriptor{name: "xori", primary: 26, interp: interpXORI, decode: decodeXORI})
	register(descriptor{name: "xoris", primary: 27, interp: interpXORIS, decode: decodeXORIS})
	register(descriptor{name: "andi.", primary: 28, interp: interpANDI, decode: decodeANDI})
	register(descriptor{name: "andis.", primary: 29, interp: interpANDIS, decode: decodeANDIS})
	register(descriptor{name: "andc", primary: 31, extMask: 0x3FF, extMatch: 60, interp: interpANDC, decode: decodeANDC})
	register(descriptor{name: "orc", primary: 31, extMask: 0x3FF, extMatch: 412, interp: interpORC, decode: decodeORC})
	register(descriptor{name: "eqv", primary: 31, extMask: 0x3FF, extMatch: 284, interp: interpEQV, decode: decodeEQV})
	register(descriptor{name: "nand", primary: 31, extMask: 0x3FF, extMatch: 476, interp: interpNAND, decode: decodeNAND})
	register(descriptor{name: "neg", primary: 31, extMask: 0x1FF, extMatch: 104, interp: interpNEG, decode: decodeNEG})
	// extsb/extsh/cntlzw carry no IR decoder: the IR has no arithmetic
	// right shift or leading-zero-count node, so blocks containing them
	// stay interpreted.
	register(descriptor{name: "extsb", primary: 31, extMask: 0x3FF, extMatch: 954, interp: interpEXTSB})
	register(descriptor{name: "extsh", primary: 31, extMask: 0x3FF, extMatch: 922, interp: interpEXTSH})
	register(descriptor{name: "cntlzw", primary: 31, extMask: 0x3FF, extMatch: 26, interp: interpCNTLZW})
}
