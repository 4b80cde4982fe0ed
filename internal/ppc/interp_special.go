// interp_special.go - interpreter handlers for the SPR/special-register
// subset: mfspr/mtspr (XER, LR, CTR, DEC, SRR0 and SRR1 map to their
// Context fields, mtspr also writes TBL/TBU, and any other SPR number uses
// the SPR array), mtmsr/mfmsr, mtcrf/mfcr.
package ppc

const (
	sprXER  = 1
	sprLR   = 8
	sprCTR  = 9
	sprDEC  = 22
	sprSRR0 = 26
	sprSRR1 = 27
	sprTBLW = 284 // timebase write aliases; reads go through mftb
	sprTBUW = 285
)

func decodeSPRField(word uint32) uint32 {
	raw := (word >> 11) & 0x3FF
	return raw>>5 | (raw&0x1F)<<5
}

// xerToWord/wordToXER pack the flag fields into XER's architectural bit
// positions: SO at bit 31, OV at 30, CA at 29, the byte count in bits 6..0.
func xerToWord(x XER) uint32 {
	var w uint32
	if x.SO {
		w |= 1 << 31
	}
	if x.OV {
		w |= 1 << 30
	}
	if x.CA {
		w |= 1 << 29
	}
	return w | uint32(x.Count&0x7F)
}

func wordToXER(w uint32) XER {
	return XER{
		SO:    w&(1<<31) != 0,
		OV:    w&(1<<30) != 0,
		CA:    w&(1<<29) != 0,
		Count: uint8(w & 0x7F),
	}
}

func interpMFSPR(e *Env, word uint32) (int, error) {
	rd := decodeRD(word)
	switch decodeSPRField(word) {
	case sprXER:
		e.SetGPR(rd, xerToWord(e.Ctx.XER))
	case sprLR:
		e.SetGPR(rd, e.Ctx.LR)
	case sprCTR:
		e.SetGPR(rd, e.Ctx.CTR)
	case sprDEC:
		e.SetGPR(rd, e.Ctx.DEC)
	case sprSRR0:
		e.SetGPR(rd, e.Ctx.SRR0)
	case sprSRR1:
		e.SetGPR(rd, e.Ctx.SRR1)
	default:
		e.SetGPR(rd, e.Ctx.SPR[decodeSPRField(word)&1023])
	}
	return 2, nil
}

func interpMTSPR(e *Env, word uint32) (int, error) {
	rs := decodeRD(word)
	v := e.GPR(rs)
	switch decodeSPRField(word) {
	case sprXER:
		e.Ctx.XER = wordToXER(v)
	case sprLR:
		e.Ctx.LR = v
	case sprCTR:
		e.Ctx.CTR = v
	case sprDEC:
		e.Ctx.DEC = v
		e.Ctx.DecExpired = false
	case sprSRR0:
		e.Ctx.SRR0 = v
	case sprSRR1:
		e.Ctx.SRR1 = v
	case sprTBLW:
		e.Ctx.TB.WriteLo(v)
	case sprTBUW:
		e.Ctx.TB.WriteHi(v)
	default:
		e.Ctx.SPR[decodeSPRField(word)&1023] = v
	}
	return 2, nil
}

func interpMTMSR(e *Env, word uint32) (int, error) {
	e.Ctx.MSR = e.GPR(decodeRD(word))
	return 2, nil
}

func interpMFMSR(e *Env, word uint32) (int, error) {
	e.SetGPR(decodeRD(word), e.Ctx.MSR)
	return 2, nil
}

// crmMask expands an 8-bit CRM field (one bit per CR field) to a 32-bit mask
// covering all four condition bits of each selected field.
func crmMask(crm uint32) uint32 {
	var mask uint32
	for i := 0; i < 8; i++ {
		if crm&(1<<uint(7-i)) != 0 {
			mask |= 0xF << uint((7-i)*4)
		}
	}
	return mask
}

func crToWord(c *Context) uint32 {
	var w uint32
	for i := 0; i < 8; i++ {
		f := c.CR[i]
		var nibble uint32
		if f.LT {
			nibble |= 8
		}
		if f.GT {
			nibble |= 4
		}
		if f.EQ {
			nibble |= 2
		}
		if f.SO {
			nibble |= 1
		}
		w |= nibble << uint((7-i)*4)
	}
	return w
}

func wordToCR(c *Context, w uint32, mask uint32) {
	for i := 0; i < 8; i++ {
		shift := uint((7 - i) * 4)
		fieldMask := uint32(0xF) << shift
		if mask&fieldMask == 0 {
			continue
		}
		nibble := (w >> shift) & 0xF
		c.CR[i] = CRField{LT: nibble&8 != 0, GT: nibble&4 != 0, EQ: nibble&2 != 0, SO: nibble&1 != 0}
	}
}

func interpMTCRF(e *Env, word uint32) (int, error) {
	crm := (word >> 12) & 0xFF
	v := e.GPR(decodeRD(word))
	wordToCR(e.Ctx, v, crmMask(crm))
	return 2, nil
}

func interpMFCR(e *Env, word uint32) (int, error) {
	e.SetGPR(decodeRD(word), crToWord(e.Ctx))
	return 2, nil
}

func init() {
	register(descriptor{name: "mfspr", primary: 31, extMask: 0x3FF, extMatch: 339, interp: interpMFSPR, decode: decodeMFSPR})
	register(descriptor{name: "mtspr", primary: 31, extMask: 0x3FF, extMatch: 467, interp: interpMTSPR, decode: decodeMTSPR})
	register(descriptor{name: "mtmsr", primary: 31, extMask: 0x3FF, extMatch: 146, interp: interpMTMSR, decode: decodeMTMSR})
	register(descriptor{name: "mfmsr", primary: 31, extMask: 0x3FF, extMatch: 83, interp: interpMFMSR, decode: decodeMFMSR})
	register(descriptor{name: "mtcrf", primary: 31, extMask: 0x3FF, extMatch: 144, interp: interpMTCRF, decode: decodeMTCRF})
	register(descriptor{name: "mfcr", primary: 31, extMask: 0x3FF, extMatch: 19, interp: interpMFCR, decode: decodeMFCR})
}
