// hostcalls.go - the fixed set of Go functions emitted code calls back
// into. Floating-point and LOAD64/STORE64 operations always take this
// generic-handler path; LOAD8/16/32 and STORE8/16/32 take it only when
// block.go's constant-address fast path (see tryInlineLoad/tryInlineStore)
// cannot inline the access — a non-constant address, a handler-backed or
// Volatile region, or no memory map given to EmitBlock.
package x86emit

import (
	"reflect"
	"unsafe"
)

// Call is the signature every host function reachable from emitted code
// must implement: the live context pointer plus up to three 32-bit
// arguments, returning one 32-bit result (ignored by call sites that have
// no use for it, e.g. UpdateTimers).
type Call func(ctx unsafe.Pointer, a0, a1, a2 uint32) uint32

// CallAddr returns fn's entry address for baking into a callAbs sequence.
// This relies on a Go function value's first word being its code pointer,
// true of every released Go ABI to date; it is the one place this back-end
// is pinned to the host toolchain rather than being a pure machine-code
// concern.
func CallAddr(fn Call) uint64 {
	return uint64(reflect.ValueOf(fn).Pointer())
}

// HostCalls bundles every call target a translated block may reach back
// into the Go host for.
//
// Read8/16/32 take (ctx, addr, 0, 0) and return the loaded value. Write8/16/32
// take (ctx, addr, val, 0). Read64/Write64 take (ctx, addr, fieldDisp, 0):
// rather than round-tripping a 64-bit value through the 32-bit Call
// convention, the host function reads/writes both constituent dwords of the
// context cell at fieldDisp directly, matching how Timebase and FPR values
// already compose two 32-bit accesses.
//
// FAdd/FSub/FMul/FDiv take (ctx, destDisp, aDisp, bDisp); FConvert takes
// (ctx, destDisp, srcDisp, size), where size is the ir.Size baked in by the
// caller. All five write their float64 result directly into the context
// cell at destDisp.
type HostCalls struct {
	UpdateTimers uint64

	Read8, Read16, Read32, Read64    uint64
	Write8, Write16, Write32, Write64 uint64

	FAdd, FSub, FMul, FDiv, FConvert uint64
}

// callArg is either a register already holding a computed value or a
// compile-time-known literal (most often a context displacement), so call
// sites can mix the two without a separate load step.
type callArg struct {
	reg   reg32
	imm   uint32
	isImm bool
}

func regArg(r reg32) callArg  { return callArg{reg: r} }
func immArg(v uint32) callArg { return callArg{imm: v, isImm: true} }

// call emits the full sequence to invoke a HostCalls entry: the context
// pointer into RDI, up to three arguments into ESI/EDX/ECX, then an
// absolute call to addr. The return value lands in EAX (scratch0).
func (e *Emitter) call(addr uint64, a0, a1, a2 callArg) error {
	if err := e.movCtxToRDI(); err != nil {
		return err
	}
	args := [3]callArg{a0, a1, a2}
	for i, a := range args {
		if a.isImm {
			if err := e.movImm32ToArg(i, a.imm); err != nil {
				return err
			}
		} else if err := e.movRegToArg(i, a.reg); err != nil {
			return err
		}
	}
	return e.callAbs(addr)
}
