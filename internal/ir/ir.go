// ir.go - per-block SSA-like intermediate representation: the doubly linked
// instruction list, operand encoding, and the fixed data-flow vectors that
// drive dead-code removal.
//
// The index-based list replacing raw pointers keeps every reference stable
// across arena moves, with the sentinel at index 0.
package ir

import "github.com/retrosys/drppc/internal/dflow"

// Op is an IR operation code.
type Op int

const (
	NOP Op = iota
	LOADI
	MOVE
	ADD
	SUB
	NEG
	MULU
	AND
	OR
	XOR
	NOT
	SHL
	SHR
	ROL
	ROR
	BREV // byte-reverse; Size selects 8-in-16 or 8-in-32
	CMP  // compares Src0 <=> Src1; Cond holds the condition, DFlowOut names the CR field set
	LOAD8
	LOAD16
	LOAD32
	LOAD64
	STORE8
	STORE16
	STORE32
	STORE64
	LOADPTR32  // direct host-pointer access into the context
	STOREPTR32
	CALLREAD // read through the generic handler path, even for a constant address
	BRANCH
	BCOND
	SYNC // consumes N source cycles, advances timebase/decrementer
	CONVERT // single<->double FP conversion
	FADD
	FSUB
	FMUL
	FDIV
)

// Size is the operand width/format tag for memory and FP-convert ops.
type Size int

const (
	SizeNone Size = iota
	Size8
	Size16
	Size32
	Size64
	SizeSingle
	SizeDouble
	SizeBRev8In16
	SizeBRev8In32
)

// Cond names a PowerPC-style comparison for CMP: signed or unsigned, and
// whether it widens narrower operands to 32-bit two's complement before
// comparing (always true for this engine's integer compares).
type Cond int

const (
	CondNone Cond = iota
	CondSignedLT
	CondSignedGT
	CondUnsignedLT
	CondUnsignedGT
	CondEQ
)

// operandKind tags whether an operand slot holds a register or a literal.
type operandKind int

const (
	operandNone operandKind = iota
	operandReg
	operandImm
)

// Operand is one of an instruction's up to three operand slots.
type Operand struct {
	kind operandKind
	Reg  dflow.Reg
	Imm  uint32
}

// RegOperand builds a register operand.
func RegOperand(r dflow.Reg) Operand { return Operand{kind: operandReg, Reg: r} }

// ImmOperand builds a literal operand.
func ImmOperand(v uint32) Operand { return Operand{kind: operandImm, Imm: v} }

// IsImm reports whether the operand is a compile-time literal.
func (o Operand) IsImm() bool { return o.kind == operandImm }

// IsReg reports whether the operand is a register reference.
func (o Operand) IsReg() bool { return o.kind == operandReg }

// Instr is one IR node. Operand slots are interpreted per Op: most ops use
// Dest + Src0 (+ Src1); CMP uses Src0/Src1 and Cond; LOADI uses only Dest
// (as a register) and Src0 (as the literal source, always IsImm()).
type Instr struct {
	Op   Op
	Dest dflow.Reg
	Src0 Operand
	Src1 Operand
	Src2 Operand

	Cond Cond
	Size Size

	MustEmit bool // loads, stores, branches, syncs, pointer writes

	DFlowIn  dflow.Set
	DFlowOut dflow.Set

	// index-based doubly linked list pointers within the owning Block.
	prev, next int
	live       bool
}

const sentinelIdx = 0

// Block is a single basic block's IR, held in a flat slice so the list can
// be index-addressed instead of pointer-chased. Index 0 is always the
// sentinel: a NOP that is never emitted and carries no operands.
type Block struct {
	nodes []Instr
	// constMap tracks, for every dflow register, the literal value it is
	// statically known to hold at the current point of encoding, or
	// "unknown" once any non-constant write occurs. Cleared by BeginBB.
	constMap   map[dflow.Reg]uint32
	constKnown map[dflow.Reg]bool
}

// BeginBB resets the block's node list to just the sentinel and clears the
// per-encode constant map
func BeginBB() *Block {
	b := &Block{
		nodes:      make([]Instr, 1, 64),
		constMap:   make(map[dflow.Reg]uint32),
		constKnown: make(map[dflow.Reg]bool),
	}
	b.nodes[0] = Instr{Op: NOP, prev: sentinelIdx, next: sentinelIdx}
	return b
}

// append links a new node at the tail of the circular list and returns its
// index.
func (b *Block) append(n Instr) int {
	idx := len(b.nodes)
	tail := b.nodes[sentinelIdx].prev
	n.prev = tail
	n.next = sentinelIdx
	n.live = true
	b.nodes = append(b.nodes, n)
	b.nodes[tail].next = idx
	b.nodes[sentinelIdx].prev = idx
	return idx
}

// insertBefore links a new node immediately before list position at,
// returning its index. Used only to splice a SYNC ahead of a block's
// terminal branch (encode.go's EncodeSyncBeforeTail): append always has to
// suffice for every other op, since front-end decode functions only ever
// grow a block at its tail.
func (b *Block) insertBefore(at int, n Instr) int {
	idx := len(b.nodes)
	prev := b.nodes[at].prev
	n.prev = prev
	n.next = at
	n.live = true
	b.nodes = append(b.nodes, n)
	b.nodes[prev].next = idx
	b.nodes[at].prev = idx
	return idx
}

// unlink removes node idx from the list without deallocating its slot (the
// backing slice is arena-like: it grows monotonically and is discarded
// whole when the next BeginBB runs).
func (b *Block) unlink(idx int) {
	n := &b.nodes[idx]
	if !n.live {
		return
	}
	b.nodes[n.prev].next = n.next
	b.nodes[n.next].prev = n.prev
	n.live = false
}

// Len returns the number of live (non-sentinel, non-unlinked) nodes.
func (b *Block) Len() int {
	count := 0
	b.Walk(func(*Instr) { count++ })
	return count
}

// Walk calls fn for every live node head to tail, in list order.
func (b *Block) Walk(fn func(*Instr)) {
	for i := b.nodes[sentinelIdx].next; i != sentinelIdx; i = b.nodes[i].next {
		fn(&b.nodes[i])
	}
}

// WalkReverse calls fn with each live node's index and pointer, tail to
// head — the order dead-code removal needs.
func (b *Block) WalkReverse(fn func(idx int, n *Instr) bool) {
	for i := b.nodes[sentinelIdx].prev; i != sentinelIdx; {
		prev := b.nodes[i].prev
		if !fn(i, &b.nodes[i]) {
			return
		}
		i = prev
	}
}

// Head and Tail expose the first/last live node index, sentinelIdx if empty.
func (b *Block) Head() int { return b.nodes[sentinelIdx].next }
func (b *Block) Tail() int { return b.nodes[sentinelIdx].prev }

// At returns the node at index idx (including unlinked ones, for testing).
func (b *Block) At(idx int) *Instr { return &b.nodes[idx] }

// SetUpDFlowVectors sets dflow_out for dest (when dest is a real register,
// i.e. not the zero-value sentinel write some ops like BRANCH omit) and
// dflow_in for every non-constant source operand
func SetUpDFlowVectors(n *Instr, dest *dflow.Reg, srcs ...Operand) {
	if dest != nil {
		n.DFlowOut.Add(*dest)
	}
	for _, s := range srcs {
		if s.IsReg() {
			n.DFlowIn.Add(s.Reg)
		}
	}
}

// EndBB runs the optimization passes (currently dead-code removal; constant
// folding already happened greedily during encoding) and returns the block
// ready for the back-end.
func EndBB(b *Block) *Block {
	RemoveDeadCode(b)
	return b
}
