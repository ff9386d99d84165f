package flags

// CR0 bits used by the emulator.
const (
	// PE enables protected mode
	PE = 1 << 0
	// ET is hardwired to one on 386 and later
	ET = 1 << 4
	// PG enables paging, never set here
	PG = 1 << 31
)

// CR0 is the machine control register.
type CR0 uint32

// Protected reports whether the protection enable bit is set.
func (c CR0) Protected() bool {
	return c&PE != 0
}

// WithProtection returns c with PE set, leaving every other bit untouched.
func (c CR0) WithProtection() CR0 {
	return c | PE
}
