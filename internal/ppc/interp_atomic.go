// interp_atomic.go - lwarx/stwcx., the load-reserved/store-conditional pair
// backing PowerPC's lock-free primitives. Interpreter-only: no decode
// descriptor is registered, so a block containing either instruction comes
// back ErrNotTranslatable from DecodeBlock and the engine keeps interpreting
// it rather than baking a reservation protocol into emitted x86-64. Given
// Context.Reservation models a single uniprocessor latch with no SMP
// arbitration (see context.go), that is strictly simpler than teaching the
// back-end a new kind of side effect for a pair of rarely-hot instructions.
package ppc

func interpLWARX(e *Env, word uint32) (int, error) {
	ea := effectiveAddrX(e, word)
	v, err := e.MMap.GenericRead32(ea)
	if err != nil {
		return 0, err
	}
	e.SetGPR(decodeRD(word), v)
	e.Ctx.Reservation = Reservation{Addr: ea, Valid: true}
	return 1, nil
}

func interpSTWCX(e *Env, word uint32) (int, error) {
	ea := effectiveAddrX(e, word)
	result := int32(1)
	if e.Ctx.Reservation.Valid && e.Ctx.Reservation.Addr == ea {
		if err := e.MMap.GenericWrite32(ea, e.GPR(decodeRD(word))); err != nil {
			return 0, err
		}
		result = 0
	}
	e.Ctx.Reservation.Valid = false
	setCR0(e.Ctx, result, e.Ctx.XER.SO)
	return 1, nil
}

func init() {
	register(descriptor{name: "lwarx", primary: 31, extMask: 0x3FF, extMatch: 20, interp: interpLWARX})
	register(descriptor{name: "stwcx.", primary: 31, extMask: 0x3FF, extMatch: 150, interp: interpSTWCX})
}
