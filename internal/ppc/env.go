// env.go - interpreter execution environment: a Context plus the memory map
// and IRQ callback it needs to run.
package ppc

import "github.com/retrosys/drppc/internal/mmap"

// IRQCallback is invoked once per accepted external interrupt; its return
// value is the new line level (0 auto-clears)
type IRQCallback func() int

// Env bundles the mutable Context with the collaborators instruction
// execution needs: the memory map for loads/stores, and the host's IRQ
// callback.
type Env struct {
	Ctx         *Context
	MMap        *mmap.Map
	IRQCallback IRQCallback
}

// GPR reads integer register r.
func (e *Env) GPR(r uint32) uint32 { return e.Ctx.GPR[r&0x1F] }

// SetGPR writes integer register r.
func (e *Env) SetGPR(r uint32, v uint32) { e.Ctx.GPR[r&0x1F] = v }

// FPR reads floating-point register r.
func (e *Env) FPR(r uint32) FPR { return e.Ctx.FPR[r&0x1F] }

// SetFPR writes floating-point register r.
func (e *Env) SetFPR(r uint32, v FPR) { e.Ctx.FPR[r&0x1F] = v }

func decodeFRD(word uint32) uint32 { return (word >> 21) & 0x1F }
func decodeFRA(word uint32) uint32 { return (word >> 16) & 0x1F }
func decodeFRB(word uint32) uint32 { return (word >> 11) & 0x1F }

// decodeRD/RA/RB/SIMM/UIMM extract the D-form/X-form register and immediate fields
// common to most descriptors: rD/rS (bits 25..21), rA (bits 20..16), and
// either rB (bits 15..11, X-form) or a 16-bit immediate (bits 15..0,
// D-form).
func decodeRD(word uint32) uint32   { return (word >> 21) & 0x1F }
func decodeRA(word uint32) uint32   { return (word >> 16) & 0x1F }
func decodeRB(word uint32) uint32   { return (word >> 11) & 0x1F }
func decodeSIMM(word uint32) int32  { return int32(int16(word & 0xFFFF)) }
func decodeUIMM(word uint32) uint32 { return word & 0xFFFF }
func decodeRc(word uint32) bool     { return word&1 != 0 }
func decodeOE(word uint32) bool     { return word&(1<<10) != 0 }
func decodeLK(word uint32) bool     { return word&1 != 0 }
func decodeAA(word uint32) bool     { return word&2 != 0 }
func decodeCRF(word uint32) uint32  { return (word >> 23) & 0x7 }
