// builder.go - decode-time context: wraps the IR block under construction
// with the bookkeeping the PowerPC decoders need (current instruction
// address for PC-relative targets, scratch-temporary allocation).
package ppc

import (
	"github.com/retrosys/drppc/internal/dflow"
	"github.com/retrosys/drppc/internal/ir"
)

// Builder accumulates IR for one basic block as the decoder walks
// instructions forward from a starting address.
type Builder struct {
	Block    *ir.Block
	PC       uint32 // address of the instruction currently being decoded
	nextTemp int
	Model    Model
}

// NewBuilder starts a fresh block at startPC. The caller is responsible for
// calling ir.BeginBB to obtain Block (so the surrounding engine controls
// arena lifetime) — Builder just wraps it with decode-time state.
func NewBuilder(block *ir.Block, startPC uint32, model Model) *Builder {
	return &Builder{Block: block, PC: startPC, Model: model}
}

// Temp allocates the next scratch IR temporary, cycling through the fixed
// pool.
// Within a single instruction's decode this never needs more than two or
// three live temporaries at once, so cycling is safe: an older temp has
// always been consumed (folded away or written to its final destination)
// before the pool wraps.
func (bd *Builder) Temp() dflow.Reg {
	r := dflow.Temp(bd.nextTemp % dflow.TempCount)
	bd.nextTemp++
	return r
}

// GPR, LR, CTR, FPR, CRBit return the dflow register naming that
// architectural location, for building IR operands.
func (bd *Builder) GPR(r uint32) dflow.Reg    { return dflow.GPR(int(r & 0x1F)) }
func (bd *Builder) FPR(r uint32) dflow.Reg    { return dflow.FPR(int(r & 0x1F)) }
func (bd *Builder) LR() dflow.Reg             { return dflow.LRReg }
func (bd *Builder) CTR() dflow.Reg            { return dflow.CTRReg }
func (bd *Builder) CRBit(field, which int) dflow.Reg { return dflow.CRField(field, which) }
