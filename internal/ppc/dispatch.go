// dispatch.go - the exported single-instruction interpreter step the
// top-level engine drives its timeslice loop with. Everything
// else in this package works at the descriptor/table level; this is the one
// entry point that turns "fetch, dispatch, execute" into a single call.
package ppc

import "fmt"

// ErrIllegalOpcode is returned when no registered descriptor matches the
// fetched word — the RuntimeError boundary case.
var ErrIllegalOpcode = fmt.Errorf("ppc: illegal opcode")

// InterpretStep fetches and executes exactly one instruction at e.Ctx's
// cached fetch position. It returns the instruction's cycle cost and whether
// it was a branch-family instruction (one whose handler itself assigned
// e.Ctx.PC, taken or not). Every interpreter handler in this package follows
// that convention: interp_branch.go's handlers and interp_sys.go's sc and
// rfi always write PC explicitly, every other handler never touches it, and
// branched is reported for those opcodes even when the new PC equals the
// old one (a branch to itself). The caller is
// responsible for PC += 4 when branched is false, and for consulting the BB
// directory again only when branched is true.
func InterpretStep(e *Env) (cycles int, branched bool, err error) {
	word, err := e.Ctx.Fetch()
	if err != nil {
		return 0, false, err
	}
	interp := lookupInterp(word)
	if interp == nil {
		return 0, false, fmt.Errorf("%w: %#08x at %#08x", ErrIllegalOpcode, word, e.Ctx.PC)
	}
	oldPC := e.Ctx.PC
	cycles, err = interp(e, word)
	if err != nil {
		return cycles, false, err
	}
	primary, ext := word>>26, (word>>1)&0x3FF
	branched = e.Ctx.PC != oldPC || primary == 16 || primary == 17 || primary == 18 ||
		(primary == 19 && (ext == 16 || ext == 50 || ext == 528))
	return cycles, branched, nil
}
