// decode_ldst.go - IR decoders for the load/store subset registered in
// interp_ldst.go's init().
package ppc

import (
	"github.com/retrosys/drppc/internal/dflow"
	"github.com/retrosys/drppc/internal/ir"
)

// buildAddrD computes rA + disp as an IR operand, folding to a constant when
// ra is r0 or already known address-only folding rule.
func buildAddrD(bd *Builder, word uint32) ir.Operand {
	ra := decodeRA(word)
	disp := uint32(decodeSIMM(word))
	if ra == 0 {
		return ir.ImmOperand(disp)
	}
	addr := bd.Temp()
	bd.Block.EncodeADD(addr, ir.RegOperand(bd.GPR(ra)), ir.ImmOperand(disp))
	return ir.RegOperand(addr)
}

func buildAddrX(bd *Builder, word uint32) ir.Operand {
	ra, rb := decodeRA(word), decodeRB(word)
	addr := bd.Temp()
	if ra == 0 {
		return ir.RegOperand(bd.GPR(rb))
	}
	bd.Block.EncodeADD(addr, ir.RegOperand(bd.GPR(ra)), ir.RegOperand(bd.GPR(rb)))
	return ir.RegOperand(addr)
}

func decodeLWZ(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeLoad(ir.LOAD32, ir.Size32, bd.GPR(decodeRD(word)), buildAddrD(bd, word))
	return 2, nil
}

func decodeLBZ(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeLoad(ir.LOAD8, ir.Size8, bd.GPR(decodeRD(word)), buildAddrD(bd, word))
	return 2, nil
}

func decodeLHZ(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeLoad(ir.LOAD16, ir.Size16, bd.GPR(decodeRD(word)), buildAddrD(bd, word))
	return 2, nil
}

func decodeSTW(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeStore(ir.STORE32, ir.Size32, buildAddrD(bd, word), ir.RegOperand(bd.GPR(decodeRD(word))))
	return 2, nil
}

func decodeSTB(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeStore(ir.STORE8, ir.Size8, buildAddrD(bd, word), ir.RegOperand(bd.GPR(decodeRD(word))))
	return 2, nil
}

func decodeSTH(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeStore(ir.STORE16, ir.Size16, buildAddrD(bd, word), ir.RegOperand(bd.GPR(decodeRD(word))))
	return 2, nil
}

// buildAddrDUpdate/buildAddrXUpdate compute the update-form effective
// address into a temp that stays available for the rA write-back; rA is the
// base even when it is r0, mirroring effectiveAddrDU.
func buildAddrDUpdate(bd *Builder, word uint32) dflow.Reg {
	addr := bd.Temp()
	bd.Block.EncodeADD(addr, ir.RegOperand(bd.GPR(decodeRA(word))), ir.ImmOperand(uint32(decodeSIMM(word))))
	return addr
}

func buildAddrXUpdate(bd *Builder, word uint32) dflow.Reg {
	addr := bd.Temp()
	bd.Block.EncodeADD(addr, ir.RegOperand(bd.GPR(decodeRA(word))), ir.RegOperand(bd.GPR(decodeRB(word))))
	return addr
}

func decodeLWZX(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeLoad(ir.LOAD32, ir.Size32, bd.GPR(decodeRD(word)), buildAddrX(bd, word))
	return 2, nil
}

func decodeLBZX(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeLoad(ir.LOAD8, ir.Size8, bd.GPR(decodeRD(word)), buildAddrX(bd, word))
	return 2, nil
}

func decodeLHZX(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeLoad(ir.LOAD16, ir.Size16, bd.GPR(decodeRD(word)), buildAddrX(bd, word))
	return 2, nil
}

func decodeSTWX(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeStore(ir.STORE32, ir.Size32, buildAddrX(bd, word), ir.RegOperand(bd.GPR(decodeRD(word))))
	return 2, nil
}

func decodeSTBX(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeStore(ir.STORE8, ir.Size8, buildAddrX(bd, word), ir.RegOperand(bd.GPR(decodeRD(word))))
	return 2, nil
}

func decodeSTHX(bd *Builder, word uint32) (int, error) {
	bd.Block.EncodeStore(ir.STORE16, ir.Size16, buildAddrX(bd, word), ir.RegOperand(bd.GPR(decodeRD(word))))
	return 2, nil
}

func decodeLWZU(bd *Builder, word uint32) (int, error) {
	addr := buildAddrDUpdate(bd, word)
	bd.Block.EncodeLoad(ir.LOAD32, ir.Size32, bd.GPR(decodeRD(word)), ir.RegOperand(addr))
	bd.Block.EncodeMOVE(bd.GPR(decodeRA(word)), ir.RegOperand(addr))
	return 2, nil
}

func decodeLBZU(bd *Builder, word uint32) (int, error) {
	addr := buildAddrDUpdate(bd, word)
	bd.Block.EncodeLoad(ir.LOAD8, ir.Size8, bd.GPR(decodeRD(word)), ir.RegOperand(addr))
	bd.Block.EncodeMOVE(bd.GPR(decodeRA(word)), ir.RegOperand(addr))
	return 2, nil
}

func decodeLHZU(bd *Builder, word uint32) (int, error) {
	addr := buildAddrDUpdate(bd, word)
	bd.Block.EncodeLoad(ir.LOAD16, ir.Size16, bd.GPR(decodeRD(word)), ir.RegOperand(addr))
	bd.Block.EncodeMOVE(bd.GPR(decodeRA(word)), ir.RegOperand(addr))
	return 2, nil
}

func decodeSTWU(bd *Builder, word uint32) (int, error) {
	addr := buildAddrDUpdate(bd, word)
	bd.Block.EncodeStore(ir.STORE32, ir.Size32, ir.RegOperand(addr), ir.RegOperand(bd.GPR(decodeRD(word))))
	bd.Block.EncodeMOVE(bd.GPR(decodeRA(word)), ir.RegOperand(addr))
	return 2, nil
}

func decodeSTBU(bd *Builder, word uint32) (int, error) {
	addr := buildAddrDUpdate(bd, word)
	bd.Block.EncodeStore(ir.STORE8, ir.Size8, ir.RegOperand(addr), ir.RegOperand(bd.GPR(decodeRD(word))))
	bd.Block.EncodeMOVE(bd.GPR(decodeRA(word)), ir.RegOperand(addr))
	return 2, nil
}

func decodeSTHU(bd *Builder, word uint32) (int, error) {
	addr := buildAddrDUpdate(bd, word)
	bd.Block.EncodeStore(ir.STORE16, ir.Size16, ir.RegOperand(addr), ir.RegOperand(bd.GPR(decodeRD(word))))
	bd.Block.EncodeMOVE(bd.GPR(decodeRA(word)), ir.RegOperand(addr))
	return 2, nil
}

func decodeLWZUX(bd *Builder, word uint32) (int, error) {
	addr := buildAddrXUpdate(bd, word)
	bd.Block.EncodeLoad(ir.LOAD32, ir.Size32, bd.GPR(decodeRD(word)), ir.RegOperand(addr))
	bd.Block.EncodeMOVE(bd.GPR(decodeRA(word)), ir.RegOperand(addr))
	return 2, nil
}

func decodeSTWUX(bd *Builder, word uint32) (int, error) {
	addr := buildAddrXUpdate(bd, word)
	bd.Block.EncodeStore(ir.STORE32, ir.Size32, ir.RegOperand(addr), ir.RegOperand(bd.GPR(decodeRD(word))))
	bd.Block.EncodeMOVE(bd.GPR(decodeRA(word)), ir.RegOperand(addr))
	return 2, nil
}

func decodeLWBRX(bd *Builder, word uint32) (int, error) {
	dest := bd.GPR(decodeRD(word))
	loaded := bd.Temp()
	bd.Block.EncodeLoad(ir.LOAD32, ir.Size32, loaded, buildAddrX(bd, word))
	bd.Block.EncodeBREV(dest, ir.RegOperand(loaded), ir.Size32)
	return 3, nil
}

func decodeSTWBRX(bd *Builder, word uint32) (int, error) {
	reversed := bd.Temp()
	bd.Block.EncodeBREV(reversed, ir.RegOperand(bd.GPR(decodeRD(word))), ir.Size32)
	bd.Block.EncodeStore(ir.STORE32, ir.Size32, buildAddrX(bd, word), ir.RegOperand(reversed))
	return 3, nil
}

// decodeLMW/decodeSTMW unroll the multiple transfer: the base address is
// computed once (registers loaded along the way must not perturb later
// effective addresses, including rA itself), then one load/store per
// register through a single reused address temp.
func decodeLMW(bd *Builder, word uint32) (int, error) {
	rd, ra := decodeRD(word), decodeRA(word)
	disp := uint32(decodeSIMM(word))
	var base ir.Operand
	if ra == 0 {
		base = ir.ImmOperand(disp)
	} else {
		baseTmp := bd.Temp()
		bd.Block.EncodeADD(baseTmp, ir.RegOperand(bd.GPR(ra)), ir.ImmOperand(disp))
		base = ir.RegOperand(baseTmp)
	}
	addr := bd.Temp()
	for r := rd; r < 32; r++ {
		bd.Block.EncodeADD(addr, base, ir.ImmOperand(4*(r-rd)))
		bd.Block.EncodeLoad(ir.LOAD32, ir.Size32, bd.GPR(r), ir.RegOperand(addr))
	}
	return int(32-rd) + 2, nil
}

func decodeSTMW(bd *Builder, word uint32) (int, error) {
	rs, ra := decodeRD(word), decodeRA(word)
	disp := uint32(decodeSIMM(word))
	var base ir.Operand
	if ra == 0 {
		base = ir.ImmOperand(disp)
	} else {
		baseTmp := bd.Temp()
		bd.Block.EncodeADD(baseTmp, ir.RegOperand(bd.GPR(ra)), ir.ImmOperand(disp))
		base = ir.RegOperand(baseTmp)
	}
	addr := bd.Temp()
	for r := rs; r < 32; r++ {
		bd.Block.EncodeADD(addr, base, ir.ImmOperand(4*(r-rs)))
		bd.Block.EncodeStore(ir.STORE32, ir.Size32, ir.RegOperand(addr), ir.RegOperand(bd.GPR(r)))
	}
	return int(32-rs) + 2, nil
}

func decodeLHBRX(bd *Builder, word uint32) (int, error) {
	dest := bd.GPR(decodeRD(word))
	loaded := bd.Temp()
	bd.Block.EncodeLoad(ir.LOAD16, ir.Size16, loaded, buildAddrX(bd, word))
	bd.Block.EncodeBREV(dest, ir.RegOperand(loaded), ir.Size16)
	return 3, nil
}

func decodeSTHBRX(bd *Builder, word uint32) (int, error) {
	reversed := bd.Temp()
	bd.Block.EncodeBREV(reversed, ir.RegOperand(bd.GPR(decodeRD(word))), ir.Size16)
	bd.Block.EncodeStore(ir.STORE16, ir.Size16, buildAddrX(bd, word), ir.RegOperand(reversed))
	return 3, nil
}
