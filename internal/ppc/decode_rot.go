// decode_rot.go - IR decoders for the rotate-and-mask family registered in
// interp_rot.go's init(). Each lowers to ROL plus the AND/OR mask algebra;
// the mask itself is always a compile-time literal.
package ppc

import "github.com/retrosys/drppc/internal/ir"

func decodeRLWINM(bd *Builder, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	mask := maskMBME(decodeMB(word), decodeME(word))
	dest := bd.GPR(ra)
	tmp := bd.Temp()
	bd.Block.EncodeROL(tmp, ir.RegOperand(bd.GPR(rs)), ir.ImmOperand(decodeSH(word)))
	bd.Block.EncodeAND(dest, ir.RegOperand(tmp), ir.ImmOperand(mask))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeRLWIMI(bd *Builder, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	mask := maskMBME(decodeMB(word), decodeME(word))
	dest := bd.GPR(ra)
	rotated := bd.Temp()
	kept := bd.Temp()
	bd.Block.EncodeROL(rotated, ir.RegOperand(bd.GPR(rs)), ir.ImmOperand(decodeSH(word)))
	bd.Block.EncodeAND(rotated, ir.RegOperand(rotated), ir.ImmOperand(mask))
	bd.Block.EncodeAND(kept, ir.RegOperand(dest), ir.ImmOperand(^mask))
	bd.Block.EncodeOR(dest, ir.RegOperand(rotated), ir.RegOperand(kept))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeRLWNM(bd *Builder, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	mask := maskMBME(decodeMB(word), decodeME(word))
	dest := bd.GPR(ra)
	tmp := bd.Temp()
	bd.Block.EncodeROL(tmp, ir.RegOperand(bd.GPR(rs)), ir.RegOperand(bd.GPR(rb)))
	bd.Block.EncodeAND(dest, ir.RegOperand(tmp), ir.ImmOperand(mask))
	crRecord(bd, word, dest)
	return 1, nil
}
