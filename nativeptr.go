// nativeptr.go - the two raw-pointer conversions Run needs to hand a
// translated block to x86emit.RunBlock: the code cache's byte offset as a
// callable address, and the live CPU context as the RBP-loaded base pointer
// asm.go's displacement addressing assumes.
package drppc

import (
	"unsafe"

	"github.com/retrosys/drppc/internal/arena"
	"github.com/retrosys/drppc/internal/ppc"
)

// ptrForEntry turns an EmitBlock-returned offset into the absolute address
// RunBlock can CALL. Valid only until the next Reset/Invalidate of a, same
// as every other pointer into an executable arena.
func ptrForEntry(a *arena.Arena, entry int) uintptr {
	return uintptr(unsafe.Pointer(&a.Bytes()[entry]))
}

// ctxPointer exposes ctx's address for the trampoline to load into RBP.
func ctxPointer(ctx *ppc.Context) unsafe.Pointer {
	return unsafe.Pointer(ctx)
}

// cellPointer exposes the profile cell's address for EmitBlock to bake into
// a profiled block's RDTSC bracketing.
func cellPointer(cell *uint64) uintptr {
	return uintptr(unsafe.Pointer(cell))
}
