// decode_alu.go - IR decoders for the ALU/compare instruction subset
// registered in interp_alu.go's init().
package ppc

import (
	"github.com/retrosys/drppc/internal/dflow"
	"github.com/retrosys/drppc/internal/ir"
)

// crRecord appends the IR that sets CR0 from dest's result when the
// instruction's Rc bit is set, matching interpADD's setCR0 semantics: a
// signed compare of the result against zero. SO is left to the emitter's
// XER-SO inheritance.
func crRecord(bd *Builder, word uint32, dest dflow.Reg) {
	if decodeRc(word) {
		bd.Block.EncodeCMP(0, ir.RegOperand(dest), ir.ImmOperand(0), ir.CondSignedLT)
	}
}

func decodeADD(bd *Builder, word uint32) (int, error) {
	rd, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(rd)
	bd.Block.EncodeADD(dest, ir.RegOperand(bd.GPR(ra)), ir.RegOperand(bd.GPR(rb)))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeADDI(bd *Builder, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	simm := ir.ImmOperand(uint32(decodeSIMM(word)))
	dest := bd.GPR(rd)
	if ra == 0 {
		bd.Block.EncodeMOVE(dest, simm)
	} else {
		bd.Block.EncodeADD(dest, ir.RegOperand(bd.GPR(ra)), simm)
	}
	return 1, nil
}

func decodeADDIS(bd *Builder, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	imm := ir.ImmOperand(decodeUIMM(word) << 16)
	dest := bd.GPR(rd)
	if ra == 0 {
		bd.Block.EncodeMOVE(dest, imm)
	} else {
		bd.Block.EncodeADD(dest, ir.RegOperand(bd.GPR(ra)), imm)
	}
	return 1, nil
}

func decodeSUBF(bd *Builder, word uint32) (int, error) {
	rd, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(rd)
	bd.Block.EncodeSUB(dest, ir.RegOperand(bd.GPR(rb)), ir.RegOperand(bd.GPR(ra)))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeAND(bd *Builder, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(ra)
	bd.Block.EncodeAND(dest, ir.RegOperand(bd.GPR(rs)), ir.RegOperand(bd.GPR(rb)))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeOR(bd *Builder, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(ra)
	bd.Block.EncodeOR(dest, ir.RegOperand(bd.GPR(rs)), ir.RegOperand(bd.GPR(rb)))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeXOR(bd *Builder, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(ra)
	bd.Block.EncodeXOR(dest, ir.RegOperand(bd.GPR(rs)), ir.RegOperand(bd.GPR(rb)))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeNOR(bd *Builder, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(ra)
	tmp := bd.Temp()
	bd.Block.EncodeOR(tmp, ir.RegOperand(bd.GPR(rs)), ir.RegOperand(bd.GPR(rb)))
	bd.Block.EncodeNOT(dest, ir.RegOperand(tmp))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeSLW(bd *Builder, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(ra)
	bd.Block.EncodeSHL(dest, ir.RegOperand(bd.GPR(rs)), ir.RegOperand(bd.GPR(rb)))
	crRecord(bd, word, dest)
	return 1, nil
}

func decodeSRW(bd *Builder, word uint32) (int, error) {
	rs, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(ra)
	bd.Block.EncodeSHR(dest, ir.RegOperand(bd.GPR(rs)), ir.RegOperand(bd.GPR(rb)))
	crRecord(bd, word, dest)
	return 2, nil
}

func decodeMULLW(bd *Builder, word uint32) (int, error) {
	rd, ra, rb := decodeRD(word), decodeRA(word), decodeRB(word)
	dest := bd.GPR(rd)
	bd.Block.EncodeMULU(dest, ir.RegOperand(bd.GPR(ra)), ir.RegOperand(bd.GPR(rb)))
	crRecord(bd, word, dest)
	return 4, nil
}

func decodeCMPI(bd *Builder, word uint32) (int, error) {
	crf := int(decodeCRF(word))
	ra := decodeRA(word)
	s1 := ir.ImmOperand(uint32(decodeSIMM(word)))
	bd.Block.EncodeCMP(crf, ir.RegOperand(bd.GPR(ra)), s1, ir.CondSignedLT)
	return 1, nil
}

func decodeCMPLI(bd *Builder, word uint32) (int, error) {
	crf := int(decodeCRF(word))
	ra := decodeRA(word)
	s1 := ir.ImmOperand(decodeUIMM(word))
	bd.Block.EncodeCMP(crf, ir.RegOperand(bd.GPR(ra)), s1, ir.CondUnsignedLT)
	return 1, nil
}

func decodeCMP(bd *Builder, word uint32) (int, error) {
	crf := int(decodeCRF(word))
	ra, rb := decodeRA(word), decodeRB(word)
	bd.Block.EncodeCMP(crf, ir.RegOperand(bd.GPR(ra)), ir.RegOperand(bd.GPR(rb)), ir.CondSignedLT)
	return 1, nil
}

func decodeCMPL(bd *Builder, word uint32) (int, error) {
	crf := int(decodeCRF(word))
	ra, rb := decodeRA(word), decodeRB(word)
	bd.Block.EncodeCMP(crf, ir.RegOperand(bd.GPR(ra)), ir.RegOperand(bd.GPR(rb)), ir.CondUnsignedLT)
	return 1, nil
}
