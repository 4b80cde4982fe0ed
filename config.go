// config.go - host configuration surface. Every field a host
// must supply or may override before SetupContext.
package drppc

import (
	"errors"
	"fmt"

	"github.com/retrosys/drppc/internal/bbdir"
	"github.com/retrosys/drppc/internal/mmap"
	"github.com/retrosys/drppc/internal/ppc"
)

// Directory is the BB-lookup contract the engine drives its timeslice loop
// through. bbdir.Directory implements it directly and is what Init builds
// by default; a host may supply its own via Config.BBLookup. This collapses
// the five-callback group (SetupBBLookup/CleanBBLookup/LookupBB/
// InvalidateBBLookup/SetBBLookupInfo) into one pluggable interface value —
// Go doesn't need five separate function pointers to express one
// collaborator, and SetBBLookupInfo's multi-context hand-off has no
// counterpart here since each Engine owns exactly one Directory for its
// whole lifetime.
type Directory interface {
	Lookup(addr uint32, fetchOK bool) (*bbdir.BlockInfo, error)
	Invalidate()
}

// Config is every setting a host supplies to Init/SetupContext.
type Config struct {
	// Print is the host's logging sink; mandatory. It is the one ambient
	// host service every build of this engine carries, independent of
	// which optional subsystems a given embedding enables. Run reports
	// every error it returns through Print before returning it — see
	// engine.go's logError/wrapRunErr and hostcalls.go's fault.
	Print func(format string, args ...any)

	// Alloc/Free, when non-nil, are notified after the engine's
	// native and intermediate arenas are allocated/released, for a host
	// that wants its own memory accounting; Go's GC already owns the
	// memory itself; these are bookkeeping hooks, not the allocator.
	Alloc func(size int)
	Free  func(size int)

	// BBLookup overrides the default three-level paged directory. Leave
	// nil to use bbdir.Directory sized from the fields below.
	BBLookup Directory

	NativeCacheSize            int
	NativeCacheGuardSize       int
	IntermediateCacheSize      int
	IntermediateCacheGuardSize int

	// HotThreshold is the execution count at which a block is translated.
	// 1 means translate on first execution.
	HotThreshold uint32

	AddressBits int
	Page1Bits   int
	Page2Bits   int
	OffsBits    int
	IgnoreBits  int

	MMap mmap.Config

	// InterpretOnly disables translation entirely: every instruction runs
	// through the interpreter and the BB directory is never consulted.
	InterpretOnly bool

	// Model selects the 6xx/Gekko vs 4xx exception and reset-vector
	// scheme. Model's zero value (Model6xx) is also a legitimate explicit
	// choice. SetupContext takes Model from here when its pvr argument is
	// zero; a nonzero pvr overrides it (see modelFromPVR).
	Model ppc.Model

	IRQCallback ppc.IRQCallback

	// Profile gates RDTSC bracketing around translated-block execution;
	// BlockInfo.Profile then holds the delta from the block's most
	// recent run.
	Profile bool
}

func (c Config) validate() error {
	if c.Print == nil {
		return fmt.Errorf("Print callback is mandatory")
	}
	if c.HotThreshold == 0 {
		return fmt.Errorf("HotThreshold must be >= 1")
	}
	if c.BBLookup == nil {
		if c.NativeCacheSize <= 0 {
			return fmt.Errorf("NativeCacheSize must be > 0")
		}
		if c.IntermediateCacheSize <= 0 {
			return fmt.Errorf("IntermediateCacheSize must be > 0")
		}
	}
	return nil
}

// classify maps an internal error to its host-visible Code.
func classify(err error) Code {
	switch {
	case errors.Is(err, ppc.ErrBadPC):
		return BadPC
	case errors.Is(err, mmap.ErrBadAddress):
		return RuntimeError
	case errors.Is(err, ppc.ErrIllegalOpcode):
		return RuntimeError
	case errors.Is(err, mmap.ErrInvalidConfig):
		return InvalidConfig
	default:
		return RuntimeError
	}
}
