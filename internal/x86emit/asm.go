// asm.go - minimal x86-64 instruction encoder used by the block emitter.
// Every helper appends raw bytes to the arena and enforces the watermark
// check required after every opcode.
//
// The context pointer lives in RBP for the lifetime of an emitted block
// (the call trampoline in calltramp_amd64.s loads it before transferring
// control), generalizing the original's 32-bit "EBP window" convention to
// 64-bit displacement addressing — every context field still reaches RBP
// with a disp32 ModRM byte rather than the short disp8 form, since
// ppc.Context is far larger than 128 bytes.
package x86emit

import (
	"fmt"

	"github.com/retrosys/drppc/internal/arena"
	"github.com/retrosys/drppc/internal/mmap"
)

// reg32 names one of the eight legacy 32-bit GPRs by their ModRM encoding.
type reg32 int

const (
	eax reg32 = 0
	ecx reg32 = 1
	edx reg32 = 2
	ebx reg32 = 3
	esp reg32 = 4
	ebp reg32 = 5 // reserved: the context pointer
	esi reg32 = 6
	edi reg32 = 7
)

// scratch0/scratch1 are the two working registers every op lowering uses;
// the back-end never keeps a value live in a register across IR nodes
// (every dflow register's home is context memory), so two
// scratch registers are always enough regardless of block size.
const (
	scratch0 = eax
	scratch1 = ecx
)

// Emitter appends x86-64 machine code for one basic block into an
// executable arena.
type Emitter struct {
	a      *arena.Arena
	layout *Layout

	// mm, when non-nil, lets emitLoad/emitStore resolve a constant address
	// to a buffer-backed, non-volatile region at translate time and inline
	// the access instead of calling back into the generic handler.
	mm *mmap.Map

	// profileAddr, when non-zero, is the host address of a uint64 cell the
	// emitted block brackets with RDTSC reads: the start stamp is parked in
	// the cell at entry and replaced by the delta just before ret.
	profileAddr uint64
}

// NewEmitter wraps a (must be executable) arena for code generation.
func NewEmitter(a *arena.Arena) *Emitter {
	return &Emitter{a: a, layout: defaultLayout}
}

// ErrWatermark is returned by put when the code cache's allocation pointer
// is past its configured watermark after a successful Grab. Grab itself
// refuses any allocation that would cross the watermark, so an opcode that
// does not fit gets arena.ErrOutOfMemory from Grab instead. Either error
// means the caller must invalidate
// the code cache and retry translation, never that emission is unsafe to
// continue without checking — the watermark check after every opcode
// exists so this is caught before an emitted op straddles the
// guard region, not after.
var ErrWatermark = fmt.Errorf("x86emit: code cache watermark exceeded")

func (e *Emitter) put(bytes ...byte) error {
	buf, err := e.a.Grab(len(bytes))
	if err != nil {
		return err
	}
	copy(buf, bytes)
	if e.a.WouldOverflow(0) {
		return ErrWatermark
	}
	return nil
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func modrmDisp32(regField, rm reg32) []byte {
	return []byte{0x80 | byte(regField)<<3 | byte(rm)}
}

func modrmReg(regField, rm reg32) []byte {
	return []byte{0xC0 | byte(regField)<<3 | byte(rm)}
}

// loadCtx emits `mov dst, [ebp+disp]`.
func (e *Emitter) loadCtx(dst reg32, disp uint32) error {
	b := append([]byte{0x8B}, modrmDisp32(dst, ebp)...)
	b = append(b, le32(disp)...)
	return e.put(b...)
}

// storeCtx emits `mov [ebp+disp], src`.
func (e *Emitter) storeCtx(disp uint32, src reg32) error {
	b := append([]byte{0x89}, modrmDisp32(src, ebp)...)
	b = append(b, le32(disp)...)
	return e.put(b...)
}

// loadCtxZX8/16 zero-extend a narrow context cell into dst (loadCtxZX8 for
// the byte-wide CR and XER cells, loadCtxZX16 for BREV's Size16 path).
func (e *Emitter) loadCtxZX8(dst reg32, disp uint32) error {
	b := append([]byte{0x0F, 0xB6}, modrmDisp32(dst, ebp)...)
	b = append(b, le32(disp)...)
	return e.put(b...)
}

func (e *Emitter) loadCtxZX16(dst reg32, disp uint32) error {
	b := append([]byte{0x0F, 0xB7}, modrmDisp32(dst, ebp)...)
	b = append(b, le32(disp)...)
	return e.put(b...)
}

// storeCtx8 emits `mov [ebp+disp], r8` (the low byte of src), used to write
// a CR flag cell back from a SETcc result.
func (e *Emitter) storeCtx8(disp uint32, src reg32) error {
	b := append([]byte{0x88}, modrmDisp32(src, ebp)...)
	b = append(b, le32(disp)...)
	return e.put(b...)
}

// rol16Imm8 emits a 16-bit `rol r, imm8` (66 prefix + C1 /0 ib), used by
// BREV's Size16 path to swap a zero-extended halfword's two bytes.
func (e *Emitter) rol16Imm8(r reg32, amount byte) error {
	return e.put(0x66, 0xC1, 0xC0|byte(r), amount)
}

// movImm32 emits `mov dst, imm32`.
func (e *Emitter) movImm32(dst reg32, v uint32) error {
	b := append([]byte{0xB8 + byte(dst)}, le32(v)...)
	return e.put(b...)
}

// movReg emits `mov dst, src` (register to register).
func (e *Emitter) movReg(dst, src reg32) error {
	return e.put(append([]byte{0x8B}, modrmReg(dst, src)...)...)
}

// movAbs64 emits `movabs dst, imm64` (REX.W + B8+r), the same encoding
// callAbs uses to bake a Go function pointer into emitted code; here it
// bakes a host buffer address for the constant-address memory fast path.
func (e *Emitter) movAbs64(dst reg32, v uint64) error {
	b := make([]byte, 0, 10)
	b = append(b, 0x48, 0xB8+byte(dst))
	for i := 0; i < 8; i++ {
		b = append(b, byte(v>>(8*i)))
	}
	return e.put(b...)
}

// modrmIndirect encodes a mod=00 ModRM byte addressing [base] with no
// displacement. base must not be esp (needs a SIB byte) or ebp (mod=00,
// rm=101 means RIP-relative, not [ebp]); every caller below is pinned to
// scratch1 (ecx), which needs neither.
func modrmIndirect(regField, base reg32) []byte {
	return []byte{byte(regField)<<3 | byte(base)}
}

// loadIndirect32/16/8 emit `mov dst, dword/word/byte ptr [base]`, the
// zero-extending word/byte forms matching loadCtxZX16/loadCtxZX8's context
// counterparts. loadIndirect8 zero-extends into a full 32-bit dst.
func (e *Emitter) loadIndirect32(dst, base reg32) error {
	return e.put(append([]byte{0x8B}, modrmIndirect(dst, base)...)...)
}

func (e *Emitter) loadIndirect16ZX(dst, base reg32) error {
	return e.put(append([]byte{0x0F, 0xB7}, modrmIndirect(dst, base)...)...)
}

func (e *Emitter) loadIndirect8ZX(dst, base reg32) error {
	return e.put(append([]byte{0x0F, 0xB6}, modrmIndirect(dst, base)...)...)
}

// storeIndirect32/16/8 emit `mov dword/word/byte ptr [base], src`.
func (e *Emitter) storeIndirect32(base, src reg32) error {
	return e.put(append([]byte{0x89}, modrmIndirect(src, base)...)...)
}

func (e *Emitter) storeIndirect16(base, src reg32) error {
	return e.put(append([]byte{0x66, 0x89}, modrmIndirect(src, base)...)...)
}

func (e *Emitter) storeIndirect8(base, src reg32) error {
	return e.put(append([]byte{0x88}, modrmIndirect(src, base)...)...)
}

type aluOp byte

const (
	aluAdd aluOp = 0x01
	aluSub aluOp = 0x29
	aluAnd aluOp = 0x21
	aluOr  aluOp = 0x09
	aluXor aluOp = 0x31
	aluCmp aluOp = 0x39
)

// alu emits `op dst, src` for the two-operand forms above (dst op= src).
func (e *Emitter) alu(op aluOp, dst, src reg32) error {
	return e.put(append([]byte{byte(op)}, modrmReg(src, dst)...)...)
}

// imul emits `imul dst, src` (0F AF /r: dst *= src).
func (e *Emitter) imul(dst, src reg32) error {
	return e.put(append([]byte{0x0F, 0xAF}, modrmReg(dst, src)...)...)
}

// negReg / notReg emit the unary F7 /3 and F7 /2 forms.
func (e *Emitter) negReg(r reg32) error { return e.put(0xF7, byte(0xD8|r)) }
func (e *Emitter) notReg(r reg32) error { return e.put(0xF7, byte(0xD0|r)) }

type shiftOp byte

const (
	shiftShl shiftOp = 4
	shiftShr shiftOp = 5
	shiftRol shiftOp = 0
	shiftRor shiftOp = 1
)

// shiftByCL emits `op r, cl` (D3 /n): the shift/rotate amount must already
// be in CL, which every caller arranges by loading it into scratch1 (=ECX)
// first.
func (e *Emitter) shiftByCL(op shiftOp, r reg32) error {
	return e.put(0xD3, byte(0xC0|byte(op)<<3|byte(r)))
}

// bswapReg emits the 32-bit byte-swap (0F C8+r).
func (e *Emitter) bswapReg(r reg32) error { return e.put(0x0F, 0xC8+byte(r)) }

// setCC emits `setCC r8` (the low byte of r) for the given condition code nibble, used to
// materialize a CMP's boolean outcome into a byte before storing it to a CR
// flag cell.
func (e *Emitter) setCC(cc byte, r reg32) error {
	return e.put(0x0F, 0x90|cc, 0xC0|byte(r))
}

// testRegSelf emits `test r, r`, used before a conditional jump that tests a
// loaded flag byte for zero/nonzero.
func (e *Emitter) testRegSelf(r reg32) error {
	return e.put(append([]byte{0x85}, modrmReg(r, r)...)...)
}

// jccRel32 emits a near conditional jump; the 4-byte displacement is
// written as a placeholder and returned for the caller to patch once the
// target offset is known (same-pass backpatching, since block emission is
// single-pass forward-only per basic block).
func (e *Emitter) jccRel32(cc byte) (patchAt int, err error) {
	if err := e.put(0x0F, 0x80|cc); err != nil {
		return 0, err
	}
	patchAt = e.a.Ptr()
	return patchAt, e.put(0, 0, 0, 0)
}

func (e *Emitter) jmpRel32() (patchAt int, err error) {
	if err := e.put(0xE9); err != nil {
		return 0, err
	}
	patchAt = e.a.Ptr()
	return patchAt, e.put(0, 0, 0, 0)
}

// patchRel32 backpatches a 4-byte displacement at offset patchAt (relative
// to the byte following the displacement field) once the jump target is
// known.
func (e *Emitter) patchRel32(patchAt int, target int) {
	rel := uint32(target - (patchAt + 4))
	b := e.a.Bytes()
	b[patchAt] = byte(rel)
	b[patchAt+1] = byte(rel >> 8)
	b[patchAt+2] = byte(rel >> 16)
	b[patchAt+3] = byte(rel >> 24)
}

func (e *Emitter) ret() error { return e.put(0xC3) }

func (e *Emitter) rdtsc() error { return e.put(0x0F, 0x31) }

// rdtsc64 reads the timestamp counter and composes the split EDX:EAX result
// into RAX (shl rdx, 32; or rax, rdx). Clobbers RAX and RDX, so profiling
// brackets may only run at block entry and just before ret, where no scratch
// value is live.
func (e *Emitter) rdtsc64() error {
	if err := e.rdtsc(); err != nil {
		return err
	}
	if err := e.put(0x48, 0xC1, 0xE2, 0x20); err != nil {
		return err
	}
	return e.put(0x48, 0x09, 0xD0)
}

// storeRAX64Indirect / subRAX64Indirect emit `mov [base], rax` and
// `sub rax, [base]`; base follows modrmIndirect's restrictions.
func (e *Emitter) storeRAX64Indirect(base reg32) error {
	return e.put(append([]byte{0x48, 0x89}, modrmIndirect(eax, base)...)...)
}

func (e *Emitter) subRAX64Indirect(base reg32) error {
	return e.put(append([]byte{0x48, 0x2B}, modrmIndirect(eax, base)...)...)
}
