// asm_call.go - calling-convention glue between emitted code and the Go
// host: thin cdecl-style call sequences generalized to the SysV AMD64
// register-passing convention.
package x86emit

// movCtxToRDI emits `mov rdi, rbp`, passing the live context pointer as the
// callee's first argument.
func (e *Emitter) movCtxToRDI() error { return e.put(0x48, 0x89, 0xEF) }

// movImm32ToArg loads a 32-bit immediate into the n'th (0-based) integer
// argument register after the context pointer (ESI, EDX, ECX — this
// back-end never needs more than three extra arguments).
func (e *Emitter) movImm32ToArg(n int, v uint32) error {
	var reg reg32
	switch n {
	case 0:
		reg = esi
	case 1:
		reg = edx
	case 2:
		reg = ecx
	default:
		panic("x86emit: too many call arguments")
	}
	return e.movImm32(reg, v)
}

// movRegToArg moves a scratch register already holding a computed value
// into the n'th argument register.
func (e *Emitter) movRegToArg(n int, src reg32) error {
	var reg reg32
	switch n {
	case 0:
		reg = esi
	case 1:
		reg = edx
	case 2:
		reg = ecx
	default:
		panic("x86emit: too many call arguments")
	}
	if reg == src {
		return nil
	}
	return e.movReg(reg, src)
}

// callAbs loads a 64-bit absolute address into RAX and calls it. Obtaining
// a stable code pointer for a Go function this way is the one place this
// back-end is pinned to the host Go toolchain rather than being a pure
// machine-code concern.
func (e *Emitter) callAbs(addr uint64) error {
	b := make([]byte, 0, 10)
	b = append(b, 0x48, 0xB8)
	for i := 0; i < 8; i++ {
		b = append(b, byte(addr>>(8*i)))
	}
	if err := e.put(b...); err != nil {
		return err
	}
	return e.put(0xFF, 0xD0)
}

// EAX (scratch0) holds the call's return value on return, matching the
// SysV convention and this encoder's own register-direct ModRM helpers.
