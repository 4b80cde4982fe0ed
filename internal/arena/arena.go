// arena.go - bump allocator backing the native code cache and the IR buffer.
//
// An Arena never frees individual objects: Grab hands out successive
// non-overlapping byte ranges until the running total would cross the
// configured watermark, at which point the caller (normally the BB
// directory or the engine's cache-overflow handler) must Reset it.
package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrOutOfMemory is returned by Alloc and Grab when the requested size
// cannot be satisfied.
var ErrOutOfMemory = fmt.Errorf("arena: out of memory")

// Arena is a monotonically bumped byte region with a watermark guard.
//
// Invariant: ptr <= watermark <= end, always.
type Arena struct {
	base       []byte
	ptr        int
	watermark  int
	end        int
	executable bool
}

// Alloc reserves size bytes of host memory and returns an Arena covering it.
// guard bytes are reserved at the tail: Grab refuses any allocation that
// would push ptr past end-guard, so a single IR op's worth of code can never
// overrun the buffer between watermark checks.
//
// When executable is true the region is mapped PROT_READ|PROT_WRITE|PROT_EXEC
// via mmap so the backend can jump directly into it; this is the code-cache
// case. Non-executable arenas (the IR buffer) use a plain Go slice.
func Alloc(size, guard int, executable bool) (*Arena, error) {
	if size <= 0 || guard < 0 || guard > size {
		return nil, fmt.Errorf("%w: invalid arena size %d guard %d", ErrOutOfMemory, size, guard)
	}

	var buf []byte
	if executable {
		b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC, unix.MAP_PRIVATE|unix.MAP_ANON)
		if err != nil {
			return nil, fmt.Errorf("%w: mmap executable arena: %v", ErrOutOfMemory, err)
		}
		buf = b
	} else {
		buf = make([]byte, size)
	}

	return &Arena{
		base:       buf,
		ptr:        0,
		watermark:  size - guard,
		end:        size,
		executable: executable,
	}, nil
}

// Free releases the backing memory. Safe to call once; calling it again is a
// caller bug and panics, matching the rest of the engine's no-silent-failure
// convention around arena misuse.
func (a *Arena) Free() error {
	if a.base == nil {
		panic("arena: Free on already-freed arena")
	}
	var err error
	if a.executable {
		err = unix.Munmap(a.base)
	}
	a.base = nil
	a.ptr, a.watermark, a.end = 0, 0, 0
	return err
}

// Reset returns ptr to base without releasing the backing memory.
func (a *Arena) Reset() {
	a.ptr = 0
}

// Grab returns a slice of n successive, non-overlapping bytes, or
// ErrOutOfMemory if doing so would cross the watermark.
func (a *Arena) Grab(n int) ([]byte, error) {
	if n < 0 {
		panic("arena: negative Grab size")
	}
	if a.ptr+n > a.watermark {
		return nil, ErrOutOfMemory
	}
	out := a.base[a.ptr : a.ptr+n]
	a.ptr += n
	return out, nil
}

// Align bumps ptr up to the next multiple of n (n must be a power of two)
// without handing out any bytes. Used to align emitted blocks to a 4-byte
// boundary.
func (a *Arena) Align(n int) error {
	mis := a.ptr % n
	if mis == 0 {
		return nil
	}
	pad := n - mis
	_, err := a.Grab(pad)
	return err
}

// Bytes returns the arena's backing slice, for
// callers (the x86 emitter, the directory) that need to compute an absolute
// offset or cast a region to a callable function.
func (a *Arena) Bytes() []byte { return a.base }

// Ptr returns the current allocation offset from base.
func (a *Arena) Ptr() int { return a.ptr }

// Watermark returns the configured watermark (end - guard).
func (a *Arena) Watermark() int { return a.watermark }

// End returns the total arena size.
func (a *Arena) End() int { return a.end }

// Remaining reports how many more bytes can be Grab'd before Grab starts
// failing.
func (a *Arena) Remaining() int { return a.watermark - a.ptr }

// WouldOverflow reports whether grabbing n more bytes would cross the
// watermark, without actually grabbing them. Used by the emitter to check
// "ptr < watermark after every opcode" without committing the bytes first.
func (a *Arena) WouldOverflow(n int) bool {
	return a.ptr+n > a.watermark
}
