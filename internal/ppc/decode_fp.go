// decode_fp.go - IR decoders for the FP subset registered in
// interp_fp.go's init(). fcmpu is not representable in the IR (the
// CR-field-from-FP-compare path isn't one of the CMP encoder's integer
// conditions) and is left to the interpreter.
package ppc

import (
	"github.com/retrosys/drppc/internal/dflow"
	"github.com/retrosys/drppc/internal/ir"
)

func decodeLFD(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeLoad(ir.LOAD64, ir.Size64, bd.FPR(decodeFRD(word)), buildAddrD(bd, word))
	return 3, nil
}

func decodeSTFD(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeStore(ir.STORE64, ir.Size64, buildAddrD(bd, word), ir.RegOperand(bd.FPR(decodeFRD(word))))
	return 3, nil
}

func decodeFADD(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeFADD(bd.FPR(decodeFRD(word)), ir.RegOperand(bd.FPR(decodeFRA(word))), ir.RegOperand(bd.FPR(decodeFRB(word))))
	return 6, nil
}

func decodeFSUB(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeFSUB(bd.FPR(decodeFRD(word)), ir.RegOperand(bd.FPR(decodeFRA(word))), ir.RegOperand(bd.FPR(decodeFRB(word))))
	return 6, nil
}

func decodeFMUL(bd *Builder, word uint32) (int, error) {
	frC := (word >> 6) & 0x1F
	bd.Block.EncodeFMUL(bd.FPR(decodeFRD(word)), ir.RegOperand(bd.FPR(decodeFRA(word))), ir.RegOperand(bd.FPR(frC)))
	return 6, nil
}

func decodeFDIV(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeFDIV(bd.FPR(decodeFRD(word)), ir.RegOperand(bd.FPR(decodeFRA(word))), ir.RegOperand(bd.FPR(decodeFRB(word))))
	return 17, nil
}

func decodeFCMPU(bd *Builder, word uint32) (int, error) { return 0, ErrNotTranslatable }

func decodeFRSP(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeConvert(bd.FPR(decodeFRD(word)), ir.RegOperand(bd.FPR(decodeFRB(word))), ir.SizeSingle)
	return 2, nil
}

func decodeLFDX(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeLoad(ir.LOAD64, ir.Size64, bd.FPR(decodeFRD(word)), buildAddrX(bd, word))
	return 3, nil
}

func decodeSTFDX(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeStore(ir.STORE64, ir.Size64, buildAddrX(bd, word), ir.RegOperand(bd.FPR(decodeFRD(word))))
	return 3, nil
}

// The multiply-adds lower as a multiply into frD followed by the add or
// subtract, which only works when frD is not also the addend: the IR has no
// 64-bit FP temporary to stage the product in (the scratch temps are 32-bit
// integer cells), so the frD==frB aliasing forms stay interpreted.
func decodeMAdd(bd *Builder, word uint32, sub bool, single bool) (int, error) {
	frd, fra, frb := decodeFRD(word), decodeFRA(word), decodeFRB(word)
	frc := (word >> 6) & 0x1F
	if frd == frb {
		return 0, ErrNotTranslatable
	}
	dest := bd.FPR(frd)
	bd.Block.EncodeFMUL(dest, ir.RegOperand(bd.FPR(fra)), ir.RegOperand(bd.FPR(frc)))
	if sub {
		bd.Block.EncodeFSUB(dest, ir.RegOperand(dest), ir.RegOperand(bd.FPR(frb)))
	} else {
		bd.Block.EncodeFADD(dest, ir.RegOperand(dest), ir.RegOperand(bd.FPR(frb)))
	}
	if single {
		bd.Block.EncodeConvert(dest, ir.RegOperand(dest), ir.SizeSingle)
	}
	return 7, nil
}

func decodeFMADD(bd *Builder, word uint32) (int, error) { return decodeMAdd(bd, word, false, false) }
func decodeFMSUB(bd *Builder, word uint32) (int, error) { return decodeMAdd(bd, word, true, false) }
func decodeFMADDS(bd *Builder, word uint32) (int, error) { return decodeMAdd(bd, word, false, true) }
func decodeFMSUBS(bd *Builder, word uint32) (int, error) { return decodeMAdd(bd, word, true, true) }

// The single-precision arithmetic forms compute in double and round the
// result through CONVERT, matching the interpreter's roundSingle.
func decodeFPBinSingle(bd *Builder, word uint32, encode func(dest dflow.Reg, a, b ir.Operand) int, frcForm bool, cycles int) (int, error) {
	frd := decodeFRD(word)
	b := decodeFRB(word)
	if frcForm {
		b = (word >> 6) & 0x1F
	}
	dest := bd.FPR(frd)
	encode(dest, ir.RegOperand(bd.FPR(decodeFRA(word))), ir.RegOperand(bd.FPR(b)))
	bd.Block.EncodeConvert(dest, ir.RegOperand(dest), ir.SizeSingle)
	return cycles, nil
}

func decodeFADDS(bd *Builder, word uint32) (int, error) {
	return decodeFPBinSingle(bd, word, bd.Block.EncodeFADD, false, 6)
}

func decodeFSUBS(bd *Builder, word uint32) (int, error) {
	return decodeFPBinSingle(bd, word, bd.Block.EncodeFSUB, false, 6)
}

func decodeFMULS(bd *Builder, word uint32) (int, error) {
	return decodeFPBinSingle(bd, word, bd.Block.EncodeFMUL, true, 6)
}

func decodeFDIVS(bd *Builder, word uint32) (int, error) {
	return decodeFPBinSingle(bd, word, bd.Block.EncodeFDIV, false, 17)
}
