// hostcalls.go - the Go-side implementations emitted x86-64 code reaches
// back into through x86emit.HostCalls. Each wraps the same mmap.Map generic
// accessors the interpreter uses (internal/ppc's fetch.go, interp_ldst.go)
// so translated and interpreted blocks observe identical memory semantics,
// and the same UpdateTimers the timeslice driver uses between blocks
// (internal/ppc/timers.go).
//
// This lives at the package root rather than in internal/ppc because it is
// the one seam that must see both internal/ppc (for *ppc.Context and the
// float bit helpers) and internal/x86emit (for the Call type and CallAddr);
// internal/x86emit already imports internal/ppc for its context Layout, so
// internal/ppc importing internal/x86emit back would cycle.
//
// A bad address is fatal: these wrappers panic with badAddressPanic, and Engine.Run
// recovers at the timeslice boundary to turn it into the public error
// return.
package drppc

import (
	"math"
	"unsafe"

	"github.com/retrosys/drppc/internal/ir"
	"github.com/retrosys/drppc/internal/mmap"
	"github.com/retrosys/drppc/internal/ppc"
	"github.com/retrosys/drppc/internal/x86emit"
)

type badAddressPanic struct{ err error }

func fieldF64(ctx unsafe.Pointer, disp uint32) float64 {
	return math.Float64frombits(*(*uint64)(unsafe.Pointer(uintptr(ctx) + uintptr(disp))))
}

func setFieldF64(ctx unsafe.Pointer, disp uint32, v float64) {
	*(*uint64)(unsafe.Pointer(uintptr(ctx) + uintptr(disp))) = math.Float64bits(v)
}

// buildHostCalls resolves every Go function emitted code may call back
// into, once per engine instance's memory map. print is the host's Print
// sink: a bad address reported from translated code goes through it the
// same way Engine.Run's wrapRunErr reports one from the interpreter, so a
// fault is equally observable regardless of which tier hit it.
func buildHostCalls(m *mmap.Map, print func(format string, args ...any)) x86emit.HostCalls {
	fault := func(err error) {
		print("drppc: memory fault: %v", err)
		panic(badAddressPanic{err: err})
	}
	read8 := func(ctx unsafe.Pointer, a0, a1, a2 uint32) uint32 {
		v, err := m.GenericRead8(a0)
		if err != nil {
			fault(err)
		}
		return uint32(v)
	}
	read16 := func(ctx unsafe.Pointer, a0, a1, a2 uint32) uint32 {
		v, err := m.GenericRead16(a0)
		if err != nil {
			fault(err)
		}
		return uint32(v)
	}
	read32 := func(ctx unsafe.Pointer, a0, a1, a2 uint32) uint32 {
		v, err := m.GenericRead32(a0)
		if err != nil {
			fault(err)
		}
		return v
	}
	write8 := func(ctx unsafe.Pointer, a0, a1, a2 uint32) uint32 {
		if err := m.GenericWrite8(a0, uint8(a1)); err != nil {
			fault(err)
		}
		return 0
	}
	write16 := func(ctx unsafe.Pointer, a0, a1, a2 uint32) uint32 {
		if err := m.GenericWrite16(a0, uint16(a1)); err != nil {
			fault(err)
		}
		return 0
	}
	write32 := func(ctx unsafe.Pointer, a0, a1, a2 uint32) uint32 {
		if err := m.GenericWrite32(a0, a1); err != nil {
			fault(err)
		}
		return 0
	}
	// Read64/Write64 receive a field displacement (a1) rather than a
	// register id: they write/read both dwords of the 64-bit context cell
	// at ctx+a1 directly, since x86emit.Call can't carry a 64-bit value
	// through its 32-bit argument slots.
	read64 := func(ctx unsafe.Pointer, a0, a1, a2 uint32) uint32 {
		v, err := m.GenericRead64(a0)
		if err != nil {
			fault(err)
		}
		*(*uint64)(unsafe.Pointer(uintptr(ctx) + uintptr(a1))) = v
		return 0
	}
	write64 := func(ctx unsafe.Pointer, a0, a1, a2 uint32) uint32 {
		v := *(*uint64)(unsafe.Pointer(uintptr(ctx) + uintptr(a1)))
		if err := m.GenericWrite64(a0, v); err != nil {
			fault(err)
		}
		return 0
	}

	updateTimers := func(ctx unsafe.Pointer, a0, a1, a2 uint32) uint32 {
		ppc.UpdateTimers((*ppc.Context)(ctx), a0)
		return 0
	}

	fadd := func(ctx unsafe.Pointer, dest, a, b uint32) uint32 {
		setFieldF64(ctx, dest, fieldF64(ctx, a)+fieldF64(ctx, b))
		return 0
	}
	fsub := func(ctx unsafe.Pointer, dest, a, b uint32) uint32 {
		setFieldF64(ctx, dest, fieldF64(ctx, a)-fieldF64(ctx, b))
		return 0
	}
	fmul := func(ctx unsafe.Pointer, dest, a, b uint32) uint32 {
		setFieldF64(ctx, dest, fieldF64(ctx, a)*fieldF64(ctx, b))
		return 0
	}
	fdiv := func(ctx unsafe.Pointer, dest, a, b uint32) uint32 {
		setFieldF64(ctx, dest, fieldF64(ctx, a)/fieldF64(ctx, b))
		return 0
	}
	// fconvert's third argument is the ir.Size tag: SizeSingle rounds
	// through float32 (matching the interpreter's frsp path), anything else
	// is a plain widen/no-op.
	fconvert := func(ctx unsafe.Pointer, dest, src, size uint32) uint32 {
		v := fieldF64(ctx, src)
		if ir.Size(size) == ir.SizeSingle {
			v = float64(float32(v))
		}
		setFieldF64(ctx, dest, v)
		return 0
	}

	return x86emit.HostCalls{
		UpdateTimers: x86emit.CallAddr(updateTimers),
		Read8:        x86emit.CallAddr(read8),
		Read16:       x86emit.CallAddr(read16),
		Read32:       x86emit.CallAddr(read32),
		Read64:       x86emit.CallAddr(read64),
		Write8:       x86emit.CallAddr(write8),
		Write16:      x86emit.CallAddr(write16),
		Write32:      x86emit.CallAddr(write32),
		Write64:      x86emit.CallAddr(write64),
		FAdd:         x86emit.CallAddr(fadd),
		FSub:         x86emit.CallAddr(fsub),
		FMul:         x86emit.CallAddr(fmul),
		FDiv:         x86emit.CallAddr(fdiv),
		FConvert:     x86emit.CallAddr(fconvert),
	}
}
