// dce.go - tail-to-head dead-code removal over a finalized Block.
//
// Walks the block maintaining a live-out bitmask seeded with the default
// search mask. For each node: clear dflow_out bits that are both outside the
// current live set and removable (condition flags); keep the node if what's left
// of dflow_out still intersects the live set, or if the node is must-emit;
// otherwise unlink it. Kept nodes update the live set to
// (live &^ dflow_out) | dflow_in.
package ir

// RemoveDeadCode performs the pass described above. A CMP survives
// whenever its flag output is read before being
// clobbered, which falls straight out of the live-set update below — no
// special-casing needed beyond honoring MustEmit for operations that must
// never be removed regardless of liveness (testable property §8.3).
func RemoveDeadCode(b *Block) {
	live := defaultSearchMask

	b.WalkReverse(func(idx int, n *Instr) bool {
		effectiveOut := n.DFlowOut
		outsideLive := removableMask
		outsideLive.AndNot(&live)
		effectiveOut.AndNot(&outsideLive)

		keep := n.MustEmit || effectiveOut.Intersects(&live)
		if !keep {
			b.unlink(idx)
			return true
		}

		// live := (live &^ dflow_out) | dflow_in
		live.AndNot(&n.DFlowOut)
		live.Union(&n.DFlowIn)
		return true
	})
}
