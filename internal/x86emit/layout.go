// layout.go - compile-time context-displacement table. Rather than a
// hand-maintained per-field accessor table, this computes every dflow
// register's byte offset from ppc.Context's base with unsafe.Offsetof,
// once, from a layout descriptor.
package x86emit

import (
	"unsafe"

	"github.com/retrosys/drppc/internal/dflow"
	"github.com/retrosys/drppc/internal/ppc"
)

// Layout maps every dflow register to its byte displacement within a
// ppc.Context, computed once at package init and reused by every Emitter.
type Layout struct {
	disp [dflow.NumBits]uint32
	ok   [dflow.NumBits]bool

	// byteWide marks registers whose context home is a single byte (the CR
	// condition bits and the XER flag cells) rather than a 32-bit word, so
	// generic load/store lowering picks the byte-width mov forms and never
	// clobbers the neighboring cells.
	byteWide [dflow.NumBits]bool

	PCOffset   uint32
	MSROffset  uint32
	SRR0Offset uint32
	SRR1Offset uint32
	DECOffset  uint32
}

var defaultLayout = buildLayout()

func buildLayout() *Layout {
	var c ppc.Context
	base := uintptr(unsafe.Pointer(&c))
	l := &Layout{}

	set := func(r dflow.Reg, addr uintptr) {
		l.disp[r] = uint32(addr - base)
		l.ok[r] = true
	}

	for i := 0; i < dflow.GPRCount; i++ {
		set(dflow.GPR(i), uintptr(unsafe.Pointer(&c.GPR[i])))
	}
	set(dflow.LRReg, uintptr(unsafe.Pointer(&c.LR)))
	set(dflow.CTRReg, uintptr(unsafe.Pointer(&c.CTR)))
	for i := 0; i < dflow.FPRCount; i++ {
		set(dflow.FPR(i), uintptr(unsafe.Pointer(&c.FPR[i].Bits)))
	}
	for field := 0; field < 8; field++ {
		// Each CR field's four condition bits is a separate bool cell
		//, so
		// compare/branch lowering tests a single byte directly.
		cr := &c.CR[field]
		set(dflow.CRField(field, dflow.CRLT), uintptr(unsafe.Pointer(&cr.LT)))
		set(dflow.CRField(field, dflow.CRGT), uintptr(unsafe.Pointer(&cr.GT)))
		set(dflow.CRField(field, dflow.CREQ), uintptr(unsafe.Pointer(&cr.EQ)))
		set(dflow.CRField(field, dflow.CRSO), uintptr(unsafe.Pointer(&cr.SO)))
		for which := 0; which < 4; which++ {
			l.byteWide[dflow.CRField(field, which)] = true
		}
	}
	set(dflow.XERBase+dflow.XERSOOffset, uintptr(unsafe.Pointer(&c.XER.SO)))
	set(dflow.XERBase+dflow.XEROVOffset, uintptr(unsafe.Pointer(&c.XER.OV)))
	set(dflow.XERBase+dflow.XERCAOffset, uintptr(unsafe.Pointer(&c.XER.CA)))
	set(dflow.XERBase+dflow.XERCountOffset, uintptr(unsafe.Pointer(&c.XER.Count)))
	for i := dflow.Reg(0); i < dflow.XERCount; i++ {
		l.byteWide[dflow.XERBase+i] = true
	}

	// Scratch IR temporaries are kept context-memory-resident too, backed by ppc.Context.Temp.
	for i := 0; i < dflow.TempCount; i++ {
		set(dflow.Temp(i), uintptr(unsafe.Pointer(&c.Temp[i])))
	}

	l.PCOffset = uint32(uintptr(unsafe.Pointer(&c.PC)) - base)
	l.MSROffset = uint32(uintptr(unsafe.Pointer(&c.MSR)) - base)
	l.SRR0Offset = uint32(uintptr(unsafe.Pointer(&c.SRR0)) - base)
	l.SRR1Offset = uint32(uintptr(unsafe.Pointer(&c.SRR1)) - base)
	l.DECOffset = uint32(uintptr(unsafe.Pointer(&c.DEC)) - base)

	return l
}

// Displacement returns r's byte offset within ppc.Context, or false if r has
// no context-resident home (reserved for a future register-allocating back
// end that keeps some dflow registers natively; this emitter never does).
func (l *Layout) Displacement(r dflow.Reg) (uint32, bool) {
	if int(r) < 0 || int(r) >= len(l.disp) {
		return 0, false
	}
	return l.disp[r], l.ok[r]
}

// ByteWide reports whether r's context home is a single byte cell.
func (l *Layout) ByteWide(r dflow.Reg) bool {
	if int(r) < 0 || int(r) >= len(l.byteWide) {
		return false
	}
	return l.byteWide[r]
}
