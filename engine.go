// engine.go - the top-level host API: Init/SetupContext
// build an engine instance from a Config, Run drives its timeslice loop
// chaining interpreted instructions and translated blocks exactly as
// the UpdatePC pseudocode describes, and the remaining host calls
// (AddCycles, SetBreakpoint, Get/SetContext, ...) round out the surface a
// front end drives a CPU context through.
package drppc

import (
	"errors"
	"sync"

	"github.com/retrosys/drppc/internal/arena"
	"github.com/retrosys/drppc/internal/bbdir"
	"github.com/retrosys/drppc/internal/mmap"
	"github.com/retrosys/drppc/internal/ppc"
	"github.com/retrosys/drppc/internal/x86emit"
)

var (
	jumpTablesOnce sync.Once
	jumpTablesErr  error
)

// Init performs process-wide, idempotent setup: validating cfg and building
// the shared opcode dispatch tables every Engine instance reads from
// (ppc.SetupJumpTables). The tables are read-only once built, so every
// engine instance may share them safely even when several run concurrently.
func Init(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return newError(InvalidConfig, "Init", err)
	}
	jumpTablesOnce.Do(func() {
		jumpTablesErr = ppc.SetupJumpTables()
	})
	if jumpTablesErr != nil {
		return newError(InvalidConfig, "Init", jumpTablesErr)
	}
	return nil
}

// modelFromPVR maps a PowerPC Processor Version Register value to the
// model family CheckIRQs/Context.Reset need. Ranges follow the real PVR
// upper-halfword assignments: 603e/604/604e, 750 (G3) and its variants,
// and 7400 (Gekko) are all 6xx-family; the embedded 40x/44x line is
// 4xx-family.
func modelFromPVR(pvr uint32) ppc.Model {
	switch pvr >> 16 {
	case 0x0003, 0x0004, 0x0006, 0x0007, 0x0008, 0x000C:
		return ppc.Model6xx
	case 0x0020, 0x0021, 0x0050, 0x0051:
		return ppc.Model4xx
	default:
		return ppc.Model6xx
	}
}

// Engine owns one PowerPC CPU context and, unless Config.InterpretOnly, the
// code cache and BB directory that translate it. An Engine must be used by
// exactly one goroutine at a time; running several contexts
// concurrently means creating several Engines.
type Engine struct {
	cfg Config

	mmap *mmap.Map
	ctx  *ppc.Context
	env  *ppc.Env

	dir         Directory
	nativeArena *arena.Arena
	interArena  *arena.Arena
	hostCalls   x86emit.HostCalls

	// profileCell is the stable uint64 every profiled block writes its
	// RDTSC delta into; dispatchTranslated copies it to the block's own
	// BlockInfo.Profile after each run. One cell per engine suffices since
	// blocks run to ret on the owning goroutine. Nil unless Config.Profile.
	profileCell *uint64

	threshold uint32

	breakpoint    uint32
	breakpointSet bool

	requested uint32
	remaining uint32
}

// SetupContext builds a ready-to-run Engine. pvr, when non-zero, selects
// the model via modelFromPVR; a zero pvr defers entirely to cfg.Model
// (whose zero value, Model6xx, is itself a legitimate explicit choice).
func SetupContext(cfg Config, pvr uint32, irqCallback ppc.IRQCallback) (*Engine, error) {
	if err := Init(cfg); err != nil {
		return nil, err
	}
	m, err := mmap.Setup(cfg.MMap)
	if err != nil {
		return nil, newError(InvalidConfig, "SetupContext", err)
	}

	model := cfg.Model
	if pvr != 0 {
		model = modelFromPVR(pvr)
	}

	e := &Engine{cfg: cfg, mmap: m, threshold: cfg.HotThreshold}

	if !cfg.InterpretOnly {
		if cfg.BBLookup != nil {
			e.dir = cfg.BBLookup
		} else {
			interArena, aerr := arena.Alloc(cfg.IntermediateCacheSize, cfg.IntermediateCacheGuardSize, false)
			if aerr != nil {
				return nil, newError(OutOfMemory, "SetupContext", aerr)
			}
			if cfg.Alloc != nil {
				cfg.Alloc(cfg.IntermediateCacheSize)
			}
			bd, berr := bbdir.Setup(bbdir.Config{
				AddressBits: cfg.AddressBits,
				Page1Bits:   cfg.Page1Bits,
				Page2Bits:   cfg.Page2Bits,
				OffsBits:    cfg.OffsBits,
				IgnoreBits:  cfg.IgnoreBits,
			}, interArena)
			if berr != nil {
				return nil, newError(InvalidConfig, "SetupContext", berr)
			}
			e.interArena = interArena
			e.dir = bd
		}

		nativeArena, aerr := arena.Alloc(cfg.NativeCacheSize, cfg.NativeCacheGuardSize, true)
		if aerr != nil {
			return nil, newError(OutOfMemory, "SetupContext", aerr)
		}
		if cfg.Alloc != nil {
			cfg.Alloc(cfg.NativeCacheSize)
		}
		e.nativeArena = nativeArena
		e.hostCalls = buildHostCalls(m, cfg.Print)
		if cfg.Profile {
			e.profileCell = new(uint64)
		}
	}

	e.ctx = &ppc.Context{Model: model}
	e.ctx.Reset()
	e.env = &ppc.Env{Ctx: e.ctx, MMap: m, IRQCallback: irqCallback}
	return e, nil
}

// Reset restores power-on architectural state and discards everything the
// code cache and directory hold, matching ppc.Context.Reset's model-
// dependent reset PC.
func (e *Engine) Reset() error {
	e.ctx.Reset()
	e.breakpointSet = false
	if e.dir != nil {
		e.dir.Invalidate()
	}
	if e.nativeArena != nil {
		e.nativeArena.Reset()
	}
	if err := e.ctx.UpdateFetchPtr(e.mmap, e.ctx.PC); err != nil {
		return newError(BadPC, "Reset", err)
	}
	return nil
}

// Shutdown releases the code cache and directory arenas. The Engine must
// not be used afterward.
func (e *Engine) Shutdown() error {
	if e.nativeArena != nil {
		if err := e.nativeArena.Free(); err != nil {
			return newError(GenericError, "Shutdown", err)
		}
		if e.cfg.Free != nil {
			e.cfg.Free(e.cfg.NativeCacheSize)
		}
	}
	if e.interArena != nil {
		if err := e.interArena.Free(); err != nil {
			return newError(GenericError, "Shutdown", err)
		}
		if e.cfg.Free != nil {
			e.cfg.Free(e.cfg.IntermediateCacheSize)
		}
	}
	return nil
}

// AddCycles extends the budget of a Run call in progress (or the next one),
// for a host reacting to something mid-timeslice — typically a
// handler-backed memory access callback invoked synchronously from within
// Run.
func (e *Engine) AddCycles(n uint32) {
	e.requested += n
	e.remaining += n
}

// ResetCycles ends the current Run's timeslice at the next block boundary.
// Cancellation is not immediate inside an emitted block or a single
// interpreted instruction — setting remaining to zero takes
// effect the next time Run's loop checks it, which is exactly the next
// boundary.
func (e *Engine) ResetCycles() {
	e.remaining = 0
}

// GetCyclesLeft returns the budget remaining in the most recent Run call.
func (e *Engine) GetCyclesLeft() uint32 { return e.remaining }

// SetIRQLine sets the external interrupt line's level; a nonzero state
// means pending.
func (e *Engine) SetIRQLine(state int) {
	e.ctx.IRQPending = state != 0
}

// GetContext returns a copy of the live CPU context.
func (e *Engine) GetContext() ppc.Context { return *e.ctx }

// SetContext bulk-replaces the CPU context with c, stored exactly as given,
// after checking that c.PC lies in a fetch region. The memory map itself is
// unaffected; Run resolves the fetch pointer for the new PC when it starts.
func (e *Engine) SetContext(c ppc.Context) error {
	if !ppc.HasFetchRegion(e.mmap, c.PC) {
		return newError(BadPC, "SetContext", ppc.ErrBadPC)
	}
	*e.ctx = c
	return nil
}

// SetBreakpoint arms a single PC-equality breakpoint; Run stops (with a nil
// error) as soon as PC reaches addr after at least one instruction or block
// has executed, before fetching anything at addr itself.
func (e *Engine) SetBreakpoint(addr uint32) {
	e.breakpoint = addr
	e.breakpointSet = true
}

// ClearBreakpoint disarms the breakpoint set by SetBreakpoint.
func (e *Engine) ClearBreakpoint() {
	e.breakpointSet = false
}

func (e *Engine) invalidateCache() {
	e.dir.Invalidate()
	if e.nativeArena != nil {
		e.nativeArena.Reset()
	}
}

// lookupBlock consults the BB directory, retrying once after an
// invalidate-and-reset if the directory itself is out of storage.
func (e *Engine) lookupBlock(pc uint32) (*bbdir.BlockInfo, error) {
	fetchOK := ppc.HasFetchRegion(e.mmap, pc)
	info, err := e.dir.Lookup(pc, fetchOK)
	if err == nil {
		return info, nil
	}
	if errors.Is(err, arena.ErrOutOfMemory) {
		e.invalidateCache()
		info, err2 := e.dir.Lookup(pc, fetchOK)
		if err2 != nil {
			return nil, newError(OutOfMemory, "Run", err2)
		}
		return info, nil
	}
	return nil, newError(BadPC, "Run", err)
}

// translate decodes and emits the block starting at pc. invalidated reports
// whether a code-cache overflow forced an invalidate-and-retry mid-call, in
// which case any BlockInfo pointer the caller already holds for pc is stale
// and must be re-looked-up before being written through.
func (e *Engine) translate(pc uint32) (nativePtr uintptr, cycles uint32, invalidated bool, err error) {
	block, cyc, derr := ppc.DecodeBlock(e.mmap, pc, e.ctx.Model)
	if derr != nil {
		return 0, 0, false, derr
	}

	entry, eerr := x86emit.EmitBlock(e.nativeArena, block, pc, e.hostCalls, e.mmap, e.profileAddr())
	if eerr != nil {
		if !errors.Is(eerr, arena.ErrOutOfMemory) && !errors.Is(eerr, x86emit.ErrWatermark) {
			return 0, 0, false, eerr
		}
		e.invalidateCache()
		entry, eerr = x86emit.EmitBlock(e.nativeArena, block, pc, e.hostCalls, e.mmap, e.profileAddr())
		if eerr != nil {
			return 0, 0, false, newError(OutOfMemory, "Run", eerr)
		}
		return ptrForEntry(e.nativeArena, entry), cyc, true, nil
	}
	return ptrForEntry(e.nativeArena, entry), cyc, false, nil
}

func (e *Engine) profileAddr() uintptr {
	if e.profileCell == nil {
		return 0
	}
	return cellPointer(e.profileCell)
}

// dispatchTranslated consults the directory for pc, bumping its count and
// translating on threshold per the UpdatePC pseudocode. It returns
// ran=true (and the cycles just consumed) when a translated block — whether
// pre-existing or just compiled this call — actually executed.
func (e *Engine) dispatchTranslated() (consumed uint32, ran bool, err error) {
	pc := e.ctx.PC
	info, lerr := e.lookupBlock(pc)
	if lerr != nil {
		return 0, false, lerr
	}

	if info.Count < e.threshold {
		info.Count++
		if info.Count == e.threshold {
			nativePtr, cycles, invalidated, terr := e.translate(pc)
			if terr != nil {
				if errors.Is(terr, ppc.ErrNotTranslatable) || errors.Is(terr, ppc.ErrBlockTooLong) {
					// CompileError: left untranslated, interpretation
					// continues this call.
				} else {
					return 0, false, terr
				}
			} else {
				target := info
				if invalidated {
					target, lerr = e.lookupBlock(pc)
					if lerr != nil {
						return 0, false, lerr
					}
				}
				target.NativePtr = nativePtr
				target.Cycles = cycles
				info = target
			}
		}
	}

	if info.NativePtr != 0 {
		x86emit.RunBlock(ctxPointer(e.ctx), info.NativePtr)
		if e.profileCell != nil {
			info.Profile = *e.profileCell
		}
		return info.Cycles, true, nil
	}
	return 0, false, nil
}

func (e *Engine) spend(cost uint32) {
	if cost > e.remaining {
		e.remaining = 0
		return
	}
	e.remaining -= cost
}

// Run advances the engine by up to cycles worth of execution, chaining
// translated blocks and interpreted instructions, and
// returns the cycles consumed: requested - GetCyclesLeft(), with the
// remaining count clamped at zero, so remaining + overrun == cycles always
// (the testable property #6).
func (e *Engine) Run(cycles uint32) (overrun uint32, err error) {
	e.requested = cycles
	e.remaining = cycles

	if ferr := e.ctx.UpdateFetchPtr(e.mmap, e.ctx.PC); ferr != nil {
		return 0, e.newRunError(BadPC, "Run", ferr)
	}

	defer func() {
		if r := recover(); r != nil {
			bp, ok := r.(badAddressPanic)
			if !ok {
				panic(r)
			}
			// hostcalls.go's fault already reported bp.err through Print
			// before panicking; logError here would print it twice.
			err = newError(classify(bp.err), "Run", bp.err)
			overrun = e.requested - e.remaining
		}
	}()

	needDirCheck := !e.cfg.InterpretOnly

	// The breakpoint is checked after each unit of work, not before the
	// first: a program may legitimately start at the breakpoint address
	// (a block whose return target equals its entry, the hello-world
	// scenario), and stopping before anything ran would wedge it.
	executed := false

	for e.remaining > 0 {
		if executed && e.breakpointSet && e.ctx.PC == e.breakpoint {
			break
		}

		if needDirCheck {
			consumed, ran, derr := e.dispatchTranslated()
			if derr != nil {
				return e.requested - e.remaining, e.wrapRunErr(derr)
			}
			if ran {
				executed = true
				e.spend(consumed)
				if ppc.CheckIRQs(e.env) {
					if ferr := e.ctx.UpdateFetchPtr(e.mmap, e.ctx.PC); ferr != nil {
						return e.requested - e.remaining, e.newRunError(BadPC, "Run", ferr)
					}
				}
				continue
			}
			needDirCheck = false
		}

		cost, branched, ierr := ppc.InterpretStep(e.env)
		if ierr != nil {
			return e.requested - e.remaining, e.wrapRunErr(ierr)
		}
		executed = true

		if !branched {
			e.ctx.PC += 4
			if ferr := e.ctx.UpdateFetchPtr(e.mmap, e.ctx.PC); ferr != nil {
				return e.requested - e.remaining, e.newRunError(BadPC, "Run", ferr)
			}
		} else {
			if ferr := e.ctx.UpdateFetchPtr(e.mmap, e.ctx.PC); ferr != nil {
				return e.requested - e.remaining, e.newRunError(BadPC, "Run", ferr)
			}
			if !e.cfg.InterpretOnly {
				needDirCheck = true
			}
		}

		ppc.UpdateTimers(e.ctx, uint32(cost))
		e.spend(uint32(cost))

		if ppc.CheckIRQs(e.env) {
			if ferr := e.ctx.UpdateFetchPtr(e.mmap, e.ctx.PC); ferr != nil {
				return e.requested - e.remaining, e.newRunError(BadPC, "Run", ferr)
			}
			if !e.cfg.InterpretOnly {
				needDirCheck = true
			}
		}
	}

	return e.requested - e.remaining, nil
}

// logError reports err through the host's mandatory Print sink before
// returning it, so a runtime failure is observable both via Run's error
// return and, per spec, via Print for a human-readable trace (the Code enum
// alone doesn't carry the offending address or opcode).
func (e *Engine) logError(de *Error) *Error {
	e.cfg.Print("drppc: %s", de.Error())
	return de
}

func (e *Engine) newRunError(code Code, op string, err error) *Error {
	return e.logError(newError(code, op, err))
}

func (e *Engine) wrapRunErr(err error) error {
	var de *Error
	if errors.As(err, &de) {
		return e.logError(de)
	}
	return e.newRunError(classify(err), "Run", err)
}
