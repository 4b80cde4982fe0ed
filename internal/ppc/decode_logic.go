// decode_logic.go - IR decoders for the logical subset registered in
// interp_logic.go's init().
package ppc

import "github.com/retrosys/drppc/internal/ir"

func decodeORI(bd *Builder, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	bd.Block.EncodeOR(bd.GPR(ra), ir.RegOperand(bd.GPR(rs)), ir.ImmOperand(decodeUIMM(word)))
	return 1, nil
}

func decodeORIS(bd *Builder, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	bd.Block.EncodeOR(bd.GPR(ra), ir.RegOperand(bd.GPR(rs)), ir.ImmOperand(decodeUIMM(word)<<16))
	return 1, nil
}

func decodeXORI(bd *Builder, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	bd.Block.EncodeXOR(bd.GPR(ra), ir.RegOperand(bd.GPR(rs)), ir.ImmOperand(decodeUIMM(word)))
	return 1, nil
}

func decodeXORIS(bd *Builder, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	bd.Block.EncodeXOR(bd.GPR(ra), ir.RegOperand(bd.GPR(rs)), ir.ImmOperand(decodeUIMM(word)<<16))
	return 1, nil
}

func decodeANDI(bd *Builder, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	dest := bd.GPR(ra)
	bd.Block.EncodeAND(dest, ir.RegOperand(bd.GPR(rs)), ir.ImmOperand(decodeUIMM(word)))
	bd.Block.EncodeCMP(0, ir.RegOperand(dest), ir.ImmOperand(0), ir.CondSignedLT)
	return 1, nil
}

func decodeANDIS(bd *Builder, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	dest := bd.GPR(ra)
	bd.Block.EncodeAND(dest, ir.RegOperand(bd.GPR(rs)), ir.ImmOperand(decodeUIMM(word)<<16))
	bd.Block.EncodeCMP(0, ir.RegOperand(dest), ir.ImmOperand(0), ir.CondSignedLT)
	return 1, nil
}

func decodeANDC(bd *Builder, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(ra)
	tmp := bd.Temp()
	bd.Block.EncodeNOT(tmp, ir.RegOperand(bd.GPR(rb)))
	bd.Block.EncodeAND(dest, ir.RegOperand(bd.GPR(rs)), ir.RegOperand(tmp))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeORC(bd *Builder, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(ra)
	tmp := bd.Temp()
	bd.Block.EncodeNOT(tmp, ir.RegOperand(bd.GPR(rb)))
	bd.Block.EncodeOR(dest, ir.RegOperand(bd.GPR(rs)), ir.RegOperand(tmp))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeEQV(bd *Builder, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(ra)
	tmp := bd.Temp()
	bd.Block.EncodeXOR(tmp, ir.RegOperand(bd.GPR(rs)), ir.RegOperand(bd.GPR(rb)))
	bd.Block.EncodeNOT(dest, ir.RegOperand(tmp))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeNAND(bd *Builder, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(ra)
	tmp := bd.Temp()
	bd.Block.EncodeAND(tmp, ir.RegOperand(bd.GPR(rs)), ir.RegOperand(bd.GPR(rb)))
	bd.Block.EncodeNOT(dest, ir.RegOperand(tmp))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeNEG(bd *Builder, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	dest := bd.GPR(rd)
	bd.Block.EncodeNEG(dest, ir.RegOperand(bd.GPR(ra)))
	crRecord(bd, word, dest)
	return 1, nil
}
