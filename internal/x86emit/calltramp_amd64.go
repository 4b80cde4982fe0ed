// calltramp_amd64.go - the call trampoline that invokes one translated
// block as a nullary function. Go has no
// portable non-cgo way to jump into a raw byte buffer as code; this hand
// asm stub is the one place that has to exist outside the byte-emitting
// encoder itself.
package x86emit

import "unsafe"

// RunBlock loads ctx into RBP (the convention every emitted block's
// context-relative addressing assumes, asm.go's loadCtx/storeCtx) and calls
// the native code at entry. entry must be an address inside an executable
// arena returned by a prior EmitBlock call; the block is expected to end in
// a ret, per EmitBlock's own contract.
func RunBlock(ctx unsafe.Pointer, entry uintptr)
