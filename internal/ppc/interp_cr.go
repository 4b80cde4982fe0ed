// interp_cr.go - interpreter handlers for the condition-register logical
// family (crand through crorc) and the field copy mcrf. All of them address
// individual CR bits by their 0..31 big-endian bit number: crbD/crbA/crbB
// occupy the rD/rA/rB slots of the X-form encoding.
package ppc

func setCRBit(c *Context, bit uint32, v bool) {
	field := &c.CR[bit/4]
	switch bit % 4 {
	case 0:
		field.LT = v
	case 1:
		field.GT = v
	case 2:
		field.EQ = v
	default:
		field.SO = v
	}
}

func interpCRLogical(e *Env, word uint32, op func(a, b bool) bool) (int, error) {
	bd, ba, bb := decodeRD(word), decodeRA(word), decodeRB(word)
	setCRBit(e.Ctx, bd, op(crBitValue(e.Ctx, ba), crBitValue(e.Ctx, bb)))
	return 1, nil
}

func interpCRAND(e *Env, word uint32) (int, error) {
	return interpCRLogical(e, word, func(a, b bool) bool { return a && b })
}

func interpCROR(e *Env, word uint32) (int, error) {
	return interpCRLogical(e, word, func(a, b bool) bool { return a || b })
}

func interpCRXOR(e *Env, word uint32) (int, error) {
	return interpCRLogical(e, word, func(a, b bool) bool { return a != b })
}

func interpCRNAND(e *Env, word uint32) (int, error) {
	return interpCRLogical(e, word, func(a, b bool) bool { return !(a && b) })
}

func interpCRNOR(e *Env, word uint32) (int, error) {
	return interpCRLogical(e, word, func(a, b bool) bool { return !(a || b) })
}

func interpCREQV(e *Env, word uint32) (int, error) {
	return interpCRLogical(e, word, func(a, b bool) bool { return a == b })
}

func interpCRANDC(e *Env, word uint32) (int, error) {
	return interpCRLogical(e, word, func(a, b bool) bool { return a && !b })
}

func interpCRORC(e *Env, word uint32) (int, error) {
	return interpCRLogical(e, word, func(a, b bool) bool { return a || !b })
}

func interpMCRF(e *Env, word uint32) (int, error) {
	crfD := (word >> 23) & 0x7
	crfS := (word >> 18) & 0x7
	e.Ctx.CR[crfD] = e.Ctx.CR[crfS]
	return 1, nil
}

func init() {
	register(descriptor{name: "mcrf", primary: 19, extMask: 0x3FF, extMatch: 0, interp: interpMCRF, decode: decodeMCRF})
	register(descriptor{name: "crnor", primary: 19, extMask: 0x3FF, extMatch: 33, interp: interpCRNOR, decode: decodeCRNOR})
	register(descriptor{name: "crandc", primary: 19, extMask: 0x3FF, extMatch: 129, interp: interpCRANDC, decode: decodeCRANDC})
	register(descriptor{name: "crxor", primary: 19, extMask: 0x3FF, extMatch: 193, interp: interpCRXOR, decode: decodeCRXOR})
	register(descriptor{name: "crnand", primary: 19, extMask: 0x3FF, extMatch: 225, interp: interpCRNAND, decode: decodeCRNAND})
	register(descriptor{name: "crand", primary: 19, extMask: 0x3FF, extMatch: 257, interp: interpCRAND, decode: decodeCRAND})
	register(descriptor{name: "creqv", primary: 19, extMask: 0x3FF, extMatch: 289, interp: interpCREQV, decode: decodeCREQV})
	register(descriptor{name: "crorc", primary: 19, extMask: 0x3FF, extMatch: 417, interp: interpCRORC, decode: decodeCRORC})
	register(descriptor{name: "cror", primary: 19, extMask: 0x3FF, extMatch: 449, interp: interpCROR, decode: decodeCROR})
}
