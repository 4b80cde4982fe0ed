// masks.go - the fixed register-set masks dead-code removal seeds from.
package ir

import "github.com/retrosys/drppc/internal/dflow"

// defaultSearchMask and removableMask are computed once; they never change
// at runtime since they are defined purely in terms of the dflow category
// layout.
var (
	defaultSearchMask dflow.Set
	removableMask     dflow.Set
)

func init() {
	// Default search mask: every architectural, integer, FP and native
	// register is seeded live-out at the tail of a block. Temporaries are
	// deliberately excluded so they can die.
	for r := dflow.GPRBase; r < dflow.GPRBase+dflow.GPRCount; r++ {
		defaultSearchMask.Add(r)
	}
	defaultSearchMask.Add(dflow.LRReg)
	defaultSearchMask.Add(dflow.CTRReg)
	for r := dflow.FPRBase; r < dflow.FPRBase+dflow.FPRCount; r++ {
		defaultSearchMask.Add(r)
	}
	for r := dflow.CRBase; r < dflow.CRBase+dflow.CRCount; r++ {
		defaultSearchMask.Add(r)
	}
	for r := dflow.XERBase; r < dflow.XERBase+dflow.XERCount; r++ {
		defaultSearchMask.Add(r)
	}
	for r := dflow.NativeBase; r < dflow.NativeBase+dflow.NativeCount; r++ {
		defaultSearchMask.Add(r)
	}

	// Removable mask: all condition-flag bits (CR fields and XER flags) are
	// removable — architecturally these are fully reconstructed by later
	// compares
	for r := dflow.CRBase; r < dflow.CRBase+dflow.CRCount; r++ {
		removableMask.Add(r)
	}
	for r := dflow.XERBase; r < dflow.XERBase+dflow.XERCount; r++ {
		removableMask.Add(r)
	}
}
