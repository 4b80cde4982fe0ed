// decode.go - instruction descriptor table shared by the interpreter and
// the IR decoder: a method-value dispatch table keyed by the
// primary-opcode/extended-opcode pair (bits 31..26 concatenated with bits
// 10..1, 16 bits total), built once and guarded against concurrent
// rebuild.
package ppc

import "fmt"

// InterpFunc executes one instruction directly against c and returns its
// cycle cost. Handlers update PC themselves for branches; non-branching
// handlers leave PC alone and the caller advances it by 4.
type InterpFunc func(e *Env, word uint32) (cycles int, err error)

// DecodeFunc appends the IR for one instruction to b and returns the number
// of source-level cycles it should contribute to the block's SYNC.
type DecodeFunc func(b *Builder, word uint32) (cycles int, err error)

// descriptor associates a primary/extended opcode pattern with both
// behaviors. ExtMask/ExtMatch of 0/0 means "matches any extended opcode",
// used for primary opcodes (I-form branches, D-form immediates) that have
// no 10-bit extended field.
type descriptor struct {
	name              string
	primary           uint32 // 6-bit primary opcode, bits 31..26
	extMask, extMatch uint32 // applied to bits 10..1
	interp            InterpFunc
	decode            DecodeFunc
}

var descriptors []descriptor

func register(d descriptor) { descriptors = append(descriptors, d) }

const (
	dispatchBits    = 16
	dispatchEntries = 1 << dispatchBits
)

var (
	interpTable [dispatchEntries]InterpFunc
	decodeTable [dispatchEntries]DecodeFunc
	tableReady  bool
)

// dispatchIndex packs a primary opcode (6 bits) and an extended opcode (10
// bits) into the shared table index.
func dispatchIndex(primary, ext uint32) uint32 {
	return (primary&0x3F)<<10 | (ext & 0x3FF)
}

func indexFromWord(word uint32) uint32 {
	primary := (word >> 26) & 0x3F
	ext := (word >> 1) & 0x3FF
	return dispatchIndex(primary, ext)
}

// SetupJumpTables builds interpTable/decodeTable from the registered
// descriptors, verifying that every one of the 65536 indices matches at
// most one descriptor. It returns an error on a violation: this is a
// build-time programming error, not a recoverable runtime condition.
func SetupJumpTables() error {
	for i := range interpTable {
		interpTable[i] = nil
		decodeTable[i] = nil
	}

	for primary := uint32(0); primary < 64; primary++ {
		for ext := uint32(0); ext < 1024; ext++ {
			idx := dispatchIndex(primary, ext)
			var matched *descriptor
			for i := range descriptors {
				d := &descriptors[i]
				if d.primary != primary {
					continue
				}
				if ext&d.extMask != d.extMatch {
					continue
				}
				if matched != nil {
					return fmt.Errorf("ppc: opcode index %#04x matches both %q and %q", idx, matched.name, d.name)
				}
				matched = d
			}
			if matched != nil {
				interpTable[idx] = matched.interp
				decodeTable[idx] = matched.decode
			}
		}
	}
	tableReady = true
	return nil
}

func ensureTableReady() {
	if !tableReady {
		panic("ppc: dispatch tables not initialized, call SetupJumpTables()")
	}
}

// lookupInterp returns the interpreter handler for word, or nil if no
// descriptor matches (an illegal-opcode condition the caller surfaces as
// RuntimeError(IllegalOpcode)).
func lookupInterp(word uint32) InterpFunc {
	ensureTableReady()
	return interpTable[indexFromWord(word)]
}

// lookupDecode returns the IR decoder handler for word, or nil.
func lookupDecode(word uint32) DecodeFunc {
	ensureTableReady()
	return decodeTable[indexFromWord(word)]
}
