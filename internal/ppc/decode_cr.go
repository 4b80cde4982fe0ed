// decode_cr.go - IR decoders for the CR-logical family. The CR bits are
// first-class dflow registers holding 0 or 1 in single-byte context cells,
// so the bit algebra lowers straight to AND/OR/XOR/NOT; the inverting forms
// mask the NOT result back down to bit 0 so a CR cell never holds anything
// but 0 or 1.
package ppc

import (
	"github.com/retrosys/drppc/internal/dflow"
	"github.com/retrosys/drppc/internal/ir"
)

func crBitReg(bd *Builder, bit uint32) dflow.Reg {
	return bd.CRBit(int(bit/4), crBitTab[bit%4])
}

func crOperands(bd *Builder, word uint32) (dst dflow.Reg, a, b ir.Operand) {
	dst = crBitReg(bd, decodeRD(word))
	a = ir.RegOperand(crBitReg(bd, decodeRA(word)))
	b = ir.RegOperand(crBitReg(bd, decodeRB(word)))
	return dst, a, b
}

// crInvert writes ^src & 1 into dst.
func crInvert(bd *Builder, dst dflow.Reg, src ir.Operand) {
	tmp := bd.Temp()
	bd.Block.EncodeNOT(tmp, src)
	bd.Block.EncodeAND(dst, ir.RegOperand(tmp), ir.ImmOperand(1))
}

func decodeCRAND(bd *Builder, word uint32) (int, error) {
	dst, a, b := crOperands(bd, word)
	bd.Block.EncodeAND(dst, a, b)
	return 1, nil
}

func decodeCROR(bd *Builder, word uint32) (int, error) {
	dst, a, b := crOperands(bd, word)
	bd.Block.EncodeOR(dst, a, b)
	return 1, nil
}

func decodeCRXOR(bd *Builder, word uint32) (int, error) {
	dst, a, b := crOperands(bd, word)
	bd.Block.EncodeXOR(dst, a, b)
	return 1, nil
}

func decodeCRNAND(bd *Builder, word uint32) (int, error) {
	dst, a, b := crOperands(bd, word)
	tmp := bd.Temp()
	bd.Block.EncodeAND(tmp, a, b)
	crInvert(bd, dst, ir.RegOperand(tmp))
	return 1, nil
}

func decodeCRNOR(bd *Builder, word uint32) (int, error) {
	dst, a, b := crOperands(bd, word)
	tmp := bd.Temp()
	bd.Block.EncodeOR(tmp, a, b)
	crInvert(bd, dst, ir.RegOperand(tmp))
	return 1, nil
}

func decodeCREQV(bd *Builder, word uint32) (int, error) {
	dst, a, b := crOperands(bd, word)
	tmp := bd.Temp()
	bd.Block.EncodeXOR(tmp, a, b)
	crInvert(bd, dst, ir.RegOperand(tmp))
	return 1, nil
}

func decodeCRANDC(bd *Builder, word uint32) (int, error) {
	dst, a, b := crOperands(bd, word)
	notB := bd.Temp()
	crInvert(bd, notB, b)
	bd.Block.EncodeAND(dst, a, ir.RegOperand(notB))
	return 1, nil
}

func decodeCRORC(bd *Builder, word uint32) (int, error) {
	dst, a, b := crOperands(bd, word)
	notB := bd.Temp()
	crInvert(bd, notB, b)
	bd.Block.EncodeOR(dst, a, ir.RegOperand(notB))
	return 1, nil
}

func decodeMCRF(bd *Builder, word uint32) (int, error) {
	crfD := int((word >> 23) & 0x7)
	crfS := int((word >> 18) & 0x7)
	for _, which := range crBitTab {
		bd.Block.EncodeMOVE(bd.CRBit(crfD, which), ir.RegOperand(bd.CRBit(crfS, which)))
	}
	return 1, nil
}
