// decode_special.go - IR decoders for the SPR/special subset registered in
// interp_special.go's init().
//
// Only the LR/CTR forms of mfspr/mtspr are representable in the IR: they are
// the only two SPRs with a dedicated dflow register (dflow.LRReg/CTRReg).
// mtmsr/mfmsr, mtcrf/mfcr and any other SPR number touch state the dflow
// space doesn't model (MSR, the full CR-as-a-word view, the general SPR
// file) and fall back to the interpreter via ErrNotTranslatable, same as
// the CTR-decrementing branch forms in decode_branch.go.
package ppc

import "github.com/retrosys/drppc/internal/ir"

func decodeMFSPR(bd *Builder, word uint32) (int, error) {
	rd := bd.GPR(decodeRD(word))
	switch decodeSPRField(word) {
	case sprLR:
		bd.Block.EncodeMOVE(rd, ir.RegOperand(bd.LR()))
		return 2, nil
	case sprCTR:
		bd.Block.EncodeMOVE(rd, ir.RegOperand(bd.CTR()))
		return 2, nil
	default:
		return 0, ErrNotTranslatable
	}
}

func decodeMTSPR(bd *Builder, word uint32) (int, error) {
	rs := bd.GPR(decodeRD(word))
	switch decodeSPRField(word) {
	case sprLR:
		bd.Block.EncodeMOVE(bd.LR(), ir.RegOperand(rs))
		return 2, nil
	case sprCTR:
		bd.Block.EncodeMOVE(bd.CTR(), ir.RegOperand(rs))
		return 2, nil
	default:
		return 0, ErrNotTranslatable
	}
}

func decodeMTMSR(bd *Builder, word uint32) (int, error) { return 0, ErrNotTranslatable }
func decodeMFMSR(bd *Builder, word uint32) (int, error) { return 0, ErrNotTranslatable }
func decodeMTCRF(bd *Builder, word uint32) (int, error) { return 0, ErrNotTranslatable }
func decodeMFCR(bd *Builder, word uint32) (int, error)  { return 0, ErrNotTranslatable }
