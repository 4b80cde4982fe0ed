// interp_sys.go - system-facing instructions: sc and rfi, the barrier trio
// (sync, isync, eieio), the timebase read mftb, the cache-block family, and
// the segment-register moves.
//
// The cache-block hints are no-ops here: there is no emulated cache to
// flush, and self-modifying code recovery is the host's whole-cache
// invalidate, not icbi tracking (a stated Non-goal).
package ppc

const (
	vector6xxSyscallHigh = 0xFFF00C00
	vector6xxSyscallLow  = 0x00000C00
	vector4xxSyscall     = 0xFF800C00
)

func syscallVector(c *Context) uint32 {
	if c.Model == Model4xx {
		return vector4xxSyscall
	}
	if c.MSR&msrIP != 0 {
		return vector6xxSyscallHigh
	}
	return vector6xxSyscallLow
}

// sc saves the address of the next instruction, not its own: execution
// resumes past the system call when the handler returns through rfi.
func interpSC(e *Env, word uint32) (int, error) {
	c := e.Ctx
	c.SRR0 = c.PC + 4
	c.SRR1 = c.MSR
	c.MSR &^= msrEE
	c.PC = syscallVector(c)
	return 2, nil
}

func interpRFI(e *Env, word uint32) (int, error) {
	c := e.Ctx
	c.MSR = c.SRR1
	c.PC = c.SRR0
	return 2, nil
}

func interpSYNC(e *Env, word uint32) (int, error)  { return 1, nil }
func interpISYNC(e *Env, word uint32) (int, error) { return 1, nil }
func interpEIEIO(e *Env, word uint32) (int, error) { return 1, nil }

const (
	tbrTBL = 268
	tbrTBU = 269
)

func interpMFTB(e *Env, word uint32) (int, error) {
	rd := decodeRD(word)
	switch decodeSPRField(word) {
	case tbrTBU:
		e.SetGPR(rd, e.Ctx.TB.ReadHi())
	default:
		e.SetGPR(rd, e.Ctx.TB.ReadLo())
	}
	return 2, nil
}

func interpDCBZ(e *Env, word uint32) (int, error) {
	ea := effectiveAddrX(e, word) &^ 31
	for i := uint32(0); i < 32; i += 4 {
		if err := e.MMap.GenericWrite32(ea+i, 0); err != nil {
			return 0, err
		}
	}
	return 3, nil
}

func interpCacheHint(e *Env, word uint32) (int, error) { return 1, nil }

func interpMTSR(e *Env, word uint32) (int, error) {
	e.Ctx.SR[(word>>16)&0xF] = e.GPR(decodeRD(word))
	return 2, nil
}

func interpMFSR(e *Env, word uint32) (int, error) {
	e.SetGPR(decodeRD(word), e.Ctx.SR[(word>>16)&0xF])
	return 2, nil
}

func interpMTSRIN(e *Env, word uint32) (int, error) {
	e.Ctx.SR[e.GPR(decodeRB(word))>>28] = e.GPR(decodeRD(word))
	return 2, nil
}

func interpMFSRIN(e *Env, word uint32) (int, error) {
	e.SetGPR(decodeRD(word), e.Ctx.SR[e.GPR(decodeRB(word))>>28])
	return 2, nil
}

func init() {
	register(descriptor{name: "sc", primary: 17, interp: interpSC})
	register(descriptor{name: "rfi", primary: 19, extMask: 0x3FF, extMatch: 50, interp: interpRFI})
	// The barriers and cache hints have no observable effect in this core
	// beyond their cycle cost, so their decoders contribute cost without
	// appending IR.
	register(descriptor{name: "sync", primary: 31, extMask: 0x3FF, extMatch: 598, interp: interpSYNC, decode: decodeCostOnly1})
	register(descriptor{name: "isync", primary: 19, extMask: 0x3FF, extMatch: 150, interp: interpISYNC, decode: decodeCostOnly1})
	register(descriptor{name: "eieio", primary: 31, extMask: 0x3FF, extMatch: 854, interp: interpEIEIO, decode: decodeCostOnly1})
	register(descriptor{name: "dcbf", primary: 31, extMask: 0x3FF, extMatch: 86, interp: interpCacheHint, decode: decodeCostOnly1})
	register(descriptor{name: "dcbst", primary: 31, extMask: 0x3FF, extMatch: 54, interp: interpCacheHint, decode: decodeCostOnly1})
	register(descriptor{name: "dcbt", primary: 31, extMask: 0x3FF, extMatch: 278, interp: interpCacheHint, decode: decodeCostOnly1})
	register(descriptor{name: "dcbtst", primary: 31, extMask: 0x3FF, extMatch: 246, interp: interpCacheHint, decode: decodeCostOnly1})
	register(descriptor{name: "icbi", primary: 31, extMask: 0x3FF, extMatch: 982, interp: interpCacheHint, decode: decodeCostOnly1})
	register(descriptor{name: "mftb", primary: 31, extMask: 0x3FF, extMatch: 371, interp: interpMFTB})
	register(descriptor{name: "dcbz", primary: 31, extMask: 0x3FF, extMatch: 1014, interp: interpDCBZ, decode: decodeDCBZ})
	register(descriptor{name: "mtsr", primary: 31, extMask: 0x3FF, extMatch: 210, interp: interpMTSR})
	register(descriptor{name: "mfsr", primary: 31, extMask: 0x3FF, extMatch: 595, interp: interpMFSR})
	register(descriptor{name: "mtsrin", primary: 31, extMask: 0x3FF, extMatch: 242, interp: interpMTSRIN})
	register(descriptor{name: "mfsrin", primary: 31, extMask: 0x3FF, extMatch: 659, interp: interpMFSRIN})
}
