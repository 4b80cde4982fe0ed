// interp_fp.go - interpreter handlers for the floating-point family:
// loads/stores in double and single precision (with indexed and update
// forms), the arithmetic and multiply-add groups in both precisions, the
// register moves, the integer conversions and the FPSCR accessors. FPSCR is
// approximated rather than fully modeled (a stated Non-goal), so exception
// and status bits are never raised and the paired-single Gekko forms are
// not implemented.
package ppc

import "math"

func interpLFD(e *Env, word uint32) (int, error) {
	bits, err := e.MMap.GenericRead64(effectiveAddrD(e, word))
	if err != nil {
		return 0, err
	}
	e.SetFPR(decodeFRD(word), FPR{Bits: bits})
	return 3, nil
}

func interpSTFD(e *Env, word uint32) (int, error) {
	return 3, e.MMap.GenericWrite64(effectiveAddrD(e, word), e.FPR(decodeFRD(word)).Bits)
}

func interpFADD(e *Env, word uint32) (int, error) {
	var r FPR
	r.SetFloat64(e.FPR(decodeFRA(word)).AsFloat64() + e.FPR(decodeFRB(word)).AsFloat64())
	e.SetFPR(decodeFRD(word), r)
	return 6, nil
}

func interpFSUB(e *Env, word uint32) (int, error) {
	var r FPR
	r.SetFloat64(e.FPR(decodeFRA(word)).AsFloat64() - e.FPR(decodeFRB(word)).AsFloat64())
	e.SetFPR(decodeFRD(word), r)
	return 6, nil
}

func interpFMUL(e *Env, word uint32) (int, error) {
	// fmul is A-form: the multiplier lives in frC (bits 10..6), not frB.
	frC := (word >> 6) & 0x1F
	var r FPR
	r.SetFloat64(e.FPR(decodeFRA(word)).AsFloat64() * e.FPR(frC).AsFloat64())
	e.SetFPR(decodeFRD(word), r)
	return 6, nil
}

func interpFDIV(e *Env, word uint32) (int, error) {
	var r FPR
	r.SetFloat64(e.FPR(decodeFRA(word)).AsFloat64() / e.FPR(decodeFRB(word)).AsFloat64())
	e.SetFPR(decodeFRD(word), r)
	return 17, nil
}

func interpFCMPU(e *Env, word uint32) (int, error) {
	crf := decodeCRF(word)
	a, b := e.FPR(decodeFRA(word)).AsFloat64(), e.FPR(decodeFRB(word)).AsFloat64()
	e.Ctx.CR[crf] = CRField{LT: a < b, GT: a > b, EQ: a == b, SO: a != a || b != b}
	return 2, nil
}

func interpFRSP(e *Env, word uint32) (int, error) {
	var r FPR
	r.SetFloat64(float64(float32(e.FPR(decodeFRB(word)).AsFloat64())))
	e.SetFPR(decodeFRD(word), r)
	return 2, nil
}

func interpLFDX(e *Env, word uint32) (int, error) {
	bits, err := e.MMap.GenericRead64(effectiveAddrX(e, word))
	if err != nil {
		return 0, err
	}
	e.SetFPR(decodeFRD(word), FPR{Bits: bits})
	return 3, nil
}

func interpSTFDX(e *Env, word uint32) (int, error) {
	return 3, e.MMap.GenericWrite64(effectiveAddrX(e, word), e.FPR(decodeFRD(word)).Bits)
}

func interpLFDU(e *Env, word uint32) (int, error) {
	ea := effectiveAddrDU(e, word)
	bits, err := e.MMap.GenericRead64(ea)
	if err != nil {
		return 0, err
	}
	e.SetFPR(decodeFRD(word), FPR{Bits: bits})
	e.SetGPR(decodeRA(word), ea)
	return 3, nil
}

func interpSTFDU(e *Env, word uint32) (int, error) {
	ea := effectiveAddrDU(e, word)
	if err := e.MMap.GenericWrite64(ea, e.FPR(decodeFRD(word)).Bits); err != nil {
		return 0, err
	}
	e.SetGPR(decodeRA(word), ea)
	return 3, nil
}

// The single-precision loads widen through float32 on the way in; stores
// round through float32 on the way out.
func loadSingle(e *Env, frd, ea uint32) (int, error) {
	v, err := e.MMap.GenericRead32(ea)
	if err != nil {
		return 0, err
	}
	var r FPR
	r.SetFloat64(float64(float32FromBits(v)))
	e.SetFPR(frd, r)
	return 3, nil
}

func storeSingle(e *Env, frd, ea uint32) (int, error) {
	return 3, e.MMap.GenericWrite32(ea, float32Bits(float32(e.FPR(frd).AsFloat64())))
}

func interpLFS(e *Env, word uint32) (int, error) {
	return loadSingle(e, decodeFRD(word), effectiveAddrD(e, word))
}

func interpLFSX(e *Env, word uint32) (int, error) {
	return loadSingle(e, decodeFRD(word), effectiveAddrX(e, word))
}

func interpLFSU(e *Env, word uint32) (int, error) {
	ea := effectiveAddrDU(e, word)
	cycles, err := loadSingle(e, decodeFRD(word), ea)
	if err != nil {
		return 0, err
	}
	e.SetGPR(decodeRA(word), ea)
	return cycles, nil
}

func interpSTFS(e *Env, word uint32) (int, error) {
	return storeSingle(e, decodeFRD(word), effectiveAddrD(e, word))
}

func interpSTFSX(e *Env, word uint32) (int, error) {
	return storeSingle(e, decodeFRD(word), effectiveAddrX(e, word))
}

func interpSTFSU(e *Env, word uint32) (int, error) {
	ea := effectiveAddrDU(e, word)
	cycles, err := storeSingle(e, decodeFRD(word), ea)
	if err != nil {
		return 0, err
	}
	e.SetGPR(decodeRA(word), ea)
	return cycles, nil
}

func interpFMR(e *Env, word uint32) (int, error) {
	e.SetFPR(decodeFRD(word), e.FPR(decodeFRB(word)))
	return 2, nil
}

func interpFNEG(e *Env, word uint32) (int, error) {
	e.SetFPR(decodeFRD(word), FPR{Bits: e.FPR(decodeFRB(word)).Bits ^ 1<<63})
	return 2, nil
}

func interpFABS(e *Env, word uint32) (int, error) {
	e.SetFPR(decodeFRD(word), FPR{Bits: e.FPR(decodeFRB(word)).Bits &^ (1 << 63)})
	return 2, nil
}

func interpFNABS(e *Env, word uint32) (int, error) {
	e.SetFPR(decodeFRD(word), FPR{Bits: e.FPR(decodeFRB(word)).Bits | 1<<63})
	return 2, nil
}

// A-form multiply-adds: frD = ±(frA*frC ± frB).
func madd(e *Env, word uint32, negProduct bool, subB bool) {
	frC := (word >> 6) & 0x1F
	product := e.FPR(decodeFRA(word)).AsFloat64() * e.FPR(frC).AsFloat64()
	b := e.FPR(decodeFRB(word)).AsFloat64()
	var result float64
	if subB {
		result = product - b
	} else {
		result = product + b
	}
	if negProduct {
		result = -result
	}
	var r FPR
	r.SetFloat64(result)
	e.SetFPR(decodeFRD(word), r)
}

func interpFMADD(e *Env, word uint32) (int, error) {
	madd(e, word, false, false)
	return 7, nil
}

func interpFMSUB(e *Env, word uint32) (int, error) {
	madd(e, word, false, true)
	return 7, nil
}

func interpFNMADD(e *Env, word uint32) (int, error) {
	madd(e, word, true, false)
	return 7, nil
}

func interpFNMSUB(e *Env, word uint32) (int, error) {
	madd(e, word, true, true)
	return 7, nil
}

func roundSingle(e *Env, frd uint32) {
	r := e.FPR(frd)
	r.SetFloat64(float64(float32(r.AsFloat64())))
	e.SetFPR(frd, r)
}

func interpFADDS(e *Env, word uint32) (int, error) {
	cycles, err := interpFADD(e, word)
	roundSingle(e, decodeFRD(word))
	return cycles, err
}

func interpFSUBS(e *Env, word uint32) (int, error) {
	cycles, err := interpFSUB(e, word)
	roundSingle(e, decodeFRD(word))
	return cycles, err
}

func interpFMULS(e *Env, word uint32) (int, error) {
	cycles, err := interpFMUL(e, word)
	roundSingle(e, decodeFRD(word))
	return cycles, err
}

func interpFDIVS(e *Env, word uint32) (int, error) {
	cycles, err := interpFDIV(e, word)
	roundSingle(e, decodeFRD(word))
	return cycles, err
}

func interpFMADDS(e *Env, word uint32) (int, error) {
	madd(e, word, false, false)
	roundSingle(e, decodeFRD(word))
	return 7, nil
}

func interpFMSUBS(e *Env, word uint32) (int, error) {
	madd(e, word, false, true)
	roundSingle(e, decodeFRD(word))
	return 7, nil
}

func interpFNMADDS(e *Env, word uint32) (int, error) {
	madd(e, word, true, false)
	roundSingle(e, decodeFRD(word))
	return 7, nil
}

func interpFNMSUBS(e *Env, word uint32) (int, error) {
	madd(e, word, true, true)
	roundSingle(e, decodeFRD(word))
	return 7, nil
}

// fctiwToBits converts to a 32-bit integer with saturation, placing the
// result in the low word; the high word holds the pattern hardware leaves
// there.
func fctiwToBits(v float64) uint64 {
	var i int32
	switch {
	case v != v: // NaN
		i = -0x80000000
	case v >= 0x7FFFFFFF:
		i = 0x7FFFFFFF
	case v <= -0x80000000:
		i = -0x80000000
	default:
		i = int32(v)
	}
	return 0xFFF8000000000000 | uint64(uint32(i))
}

func interpFCTIW(e *Env, word uint32) (int, error) {
	// round-to-nearest-even, the FPSCR default this core assumes throughout
	v := math.RoundToEven(e.FPR(decodeFRB(word)).AsFloat64())
	e.SetFPR(decodeFRD(word), FPR{Bits: fctiwToBits(v)})
	return 3, nil
}

func interpFCTIWZ(e *Env, word uint32) (int, error) {
	v := math.Trunc(e.FPR(decodeFRB(word)).AsFloat64())
	e.SetFPR(decodeFRD(word), FPR{Bits: fctiwToBits(v)})
	return 3, nil
}

// fcmpo differs from fcmpu only in which FPSCR exception bits an unordered
// comparison raises; with FPSCR approximated, the CR outcome is identical.
func interpFCMPO(e *Env, word uint32) (int, error) {
	return interpFCMPU(e, word)
}

func interpMFFS(e *Env, word uint32) (int, error) {
	e.SetFPR(decodeFRD(word), FPR{Bits: uint64(e.Ctx.FPSCR)})
	return 2, nil
}

// mtfsf replaces the FPSCR fields selected by the 8-bit FM mask (one bit
// per 4-bit field, MSB first) with the low word of frB.
func interpMTFSF(e *Env, word uint32) (int, error) {
	fm := (word >> 17) & 0xFF
	var mask uint32
	for i := 0; i < 8; i++ {
		if fm&(1<<uint(7-i)) != 0 {
			mask |= 0xF << uint((7-i)*4)
		}
	}
	v := uint32(e.FPR(decodeFRB(word)).Bits)
	e.Ctx.FPSCR = (e.Ctx.FPSCR &^ mask) | (v & mask)
	return 2, nil
}

func init() {
	register(descriptor{name: "lfd", primary: 50, interp: interpLFD, decode: decodeLFD})
	register(descriptor{name: "stfd", primary: 54, interp: interpSTFD, decode: decodeSTFD})
	register(descriptor{name: "fadd", primary: 63, extMask: 0x1F, extMatch: 21, interp: interpFADD, decode: decodeFADD})
	register(descriptor{name: "fsub", primary: 63, extMask: 0x1F, extMatch: 20, interp: interpFSUB, decode: decodeFSUB})
	register(descriptor{name: "fmul", primary: 63, extMask: 0x1F, extMatch: 25, interp: interpFMUL, decode: decodeFMUL})
	register(descriptor{name: "fdiv", primary: 63, extMask: 0x1F, extMatch: 18, interp: interpFDIV, decode: decodeFDIV})
	register(descriptor{name: "fcmpu", primary: 63, extMask: 0x3FF, extMatch: 0, interp: interpFCMPU, decode: decodeFCMPU})
	register(descriptor{name: "frsp", primary: 63, extMask: 0x3FF, extMatch: 12, interp: interpFRSP, decode: decodeFRSP})
	register(descriptor{name: "lfdx", primary: 31, extMask: 0x3FF, extMatch: 599, interp: interpLFDX, decode: decodeLFDX})
	register(descriptor{name: "stfdx", primary: 31, extMask: 0x3FF, extMatch: 727, interp: interpSTFDX, decode: decodeSTFDX})
	register(descriptor{name: "lfdu", primary: 51, interp: interpLFDU})
	register(descriptor{name: "stfdu", primary: 55, interp: interpSTFDU})
	// The single-precision memory forms convert between float32 bits and the
	// double-width FPR on every access, a shape the IR's memory ops don't
	// carry; interpreter-only, along with the moves, conversions and FPSCR
	// accessors below.
	register(descriptor{name: "lfs", primary: 48, interp: interpLFS})
	register(descriptor{name: "lfsu", primary: 49, interp: interpLFSU})
	register(descriptor{name: "stfs", primary: 52, interp: interpSTFS})
	register(descriptor{name: "stfsu", primary: 53, interp: interpSTFSU})
	register(descriptor{name: "lfsx", primary: 31, extMask: 0x3FF, extMatch: 535, interp: interpLFSX})
	register(descriptor{name: "stfsx", primary: 31, extMask: 0x3FF, extMatch: 663, interp: interpSTFSX})
	register(descriptor{name: "fmr", primary: 63, extMask: 0x3FF, extMatch: 72, interp: interpFMR})
	register(descriptor{name: "fneg", primary: 63, extMask: 0x3FF, extMatch: 40, interp: interpFNEG})
	register(descriptor{name: "fabs", primary: 63, extMask: 0x3FF, extMatch: 264, interp: interpFABS})
	register(descriptor{name: "fnabs", primary: 63, extMask: 0x3FF, extMatch: 136, interp: interpFNABS})
	register(descriptor{name: "fctiw", primary: 63, extMask: 0x3FF, extMatch: 14, interp: interpFCTIW})
	register(descriptor{name: "fctiwz", primary: 63, extMask: 0x3FF, extMatch: 15, interp: interpFCTIWZ})
	register(descriptor{name: "fcmpo", primary: 63, extMask: 0x3FF, extMatch: 32, interp: interpFCMPO})
	register(descriptor{name: "mffs", primary: 63, extMask: 0x3FF, extMatch: 583, interp: interpMFFS})
	register(descriptor{name: "mtfsf", primary: 63, extMask: 0x3FF, extMatch: 711, interp: interpMTFSF})
	register(descriptor{name: "fmadd", primary: 63, extMask: 0x1F, extMatch: 29, interp: interpFMADD, decode: decodeFMADD})
	register(descriptor{name: "fmsub", primary: 63, extMask: 0x1F, extMatch: 28, interp: interpFMSUB, decode: decodeFMSUB})
	register(descriptor{name: "fnmadd", primary: 63, extMask: 0x1F, extMatch: 31, interp: interpFNMADD})
	register(descriptor{name: "fnmsub", primary: 63, extMask: 0x1F, extMatch: 30, interp: interpFNMSUB})
	register(descriptor{name: "fadds", primary: 59, extMask: 0x1F, extMatch: 21, interp: interpFADDS, decode: decodeFADDS})
	register(descriptor{name: "fsubs", primary: 59, extMask: 0x1F, extMatch: 20, interp: interpFSUBS, decode: decodeFSUBS})
	register(descriptor{name: "fmuls", primary: 59, extMask: 0x1F, extMatch: 25, interp: interpFMULS, decode: decodeFMULS})
	register(descriptor{name: "fdivs", primary: 59, extMask: 0x1F, extMatch: 18, interp: interpFDIVS, decode: decodeFDIVS})
	register(descriptor{name: "fmadds", primary: 59, extMask: 0x1F, extMatch: 29, interp: interpFMADDS, decode: decodeFMADDS})
	register(descriptor{name: "fmsubs", primary: 59, extMask: 0x1F, extMatch: 28, interp: interpFMSUBS, decode: decodeFMSUBS})
	register(descriptor{name: "fnmadds", primary: 59, extMask: 0x1F, extMatch: 31, interp: interpFNMADDS})
	register(descriptor{name: "fnmsubs", primary: 59, extMask: 0x1F, extMatch: 30, interp: interpFNMSUBS})
}
