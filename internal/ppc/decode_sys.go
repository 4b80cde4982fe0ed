// decode_sys.go - IR decoders for the system family. Only two shapes exist
// here: pure-cost instructions (barriers and cache hints, which contribute
// to the block's SYNC total without appending IR) and dcbz, which unrolls
// to eight word stores of zero. sc, rfi, mftb and the segment moves touch
// state outside the dflow space and stay interpreter-only.
package ppc

import "github.com/retrosys/drppc/internal/ir"

func decodeCostOnly1(bd *Builder, word uint32) (int, error) { return 1, nil }

func decodeDCBZ(bd *Builder, word uint32) (int, error) {
	ra, rb := decodeRA(word), decodeRB(word)
	base := bd.Temp()
	if ra == 0 {
		bd.Block.EncodeAND(base, ir.RegOperand(bd.GPR(rb)), ir.ImmOperand(^uint32(31)))
	} else {
		bd.Block.EncodeADD(base, ir.RegOperand(bd.GPR(ra)), ir.RegOperand(bd.GPR(rb)))
		bd.Block.EncodeAND(base, ir.RegOperand(base), ir.ImmOperand(^uint32(31)))
	}
	addr := bd.Temp()
	for i := uint32(0); i < 32; i += 4 {
		bd.Block.EncodeADD(addr, ir.RegOperand(base), ir.ImmOperand(i))
		bd.Block.EncodeStore(ir.STORE32, ir.Size32, ir.RegOperand(addr), ir.ImmOperand(0))
	}
	return 3, nil
}
