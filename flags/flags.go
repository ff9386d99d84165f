package flags

/**
Processor flags register package
*/

// flag register layout. Values here are bits, not the
// powers of 2
const cFlag = 0
const pFlag = 2
const aFlag = 4
const zFlag = 6
const sFlag = 7
const tFlag = 8
const iFlag = 9
const dFlag = 10
const oFlag = 11

// reserved bit 1 always reads as one
const reserved = 1 << 1

// Flags keeps the processor flags register
type Flags uint32

// Get returns current flags register value
func (f *Flags) Get() uint32 {
	return uint32(*f) | reserved
}

// Set flags register value
func (f *Flags) Set(v uint32) {
	*f = Flags(v | reserved)
}

// Get16 returns the low word, as pushed by a real mode interrupt
func (f *Flags) Get16() uint16 {
	return uint16(f.Get())
}

// Set16 replaces the low word and keeps the upper half
func (f *Flags) Set16(v uint16) {
	f.Set((uint32(*f) &^ 0xffff) | uint32(v))
}

// C returns carry flag
func (f *Flags) C() bool {
	return f.getFlag(cFlag)
}

// SetC sets carry flag
func (f *Flags) SetC(status bool) {
	f.setFlag(cFlag, status)
}

// P returns parity flag
func (f *Flags) P() bool {
	return f.getFlag(pFlag)
}

// SetP sets parity flag
func (f *Flags) SetP(status bool) {
	f.setFlag(pFlag, status)
}

// A returns adjust flag
func (f *Flags) A() bool {
	return f.getFlag(aFlag)
}

// SetA sets adjust flag
func (f *Flags) SetA(status bool) {
	f.setFlag(aFlag, status)
}

// Z returns zero flag
func (f *Flags) Z() bool {
	return f.getFlag(zFlag)
}

// SetZ sets zero flag
func (f *Flags) SetZ(status bool) {
	f.setFlag(zFlag, status)
}

// S returns sign flag
func (f *Flags) S() bool {
	return f.getFlag(sFlag)
}

// SetS sets sign flag
func (f *Flags) SetS(status bool) {
	f.setFlag(sFlag, status)
}

// T returns trap flag
func (f *Flags) T() bool {
	return f.getFlag(tFlag)
}

// SetT sets trap flag
func (f *Flags) SetT(status bool) {
	f.setFlag(tFlag, status)
}

// I returns interrupt enable flag
func (f *Flags) I() bool {
	return f.getFlag(iFlag)
}

// SetI sets interrupt enable flag
func (f *Flags) SetI(status bool) {
	f.setFlag(iFlag, status)
}

// D returns direction flag
func (f *Flags) D() bool {
	return f.getFlag(dFlag)
}

// SetD sets direction flag
func (f *Flags) SetD(status bool) {
	f.setFlag(dFlag, status)
}

// O returns overflow flag
func (f *Flags) O() bool {
	return f.getFlag(oFlag)
}

// SetO sets overflow flag
func (f *Flags) SetO(status bool) {
	f.setFlag(oFlag, status)
}

// generic get flag function
func (f *Flags) getFlag(flag uint) bool {
	return (*f & (1 << flag)) > 0
}

// generic set flag function
func (f *Flags) setFlag(flag uint, status bool) {
	if status {
		*f |= (1 << flag)
	} else {
		*f &^= (1 << flag)
	}
}

// GetFlags returns set flags, upper case when set
func (f *Flags) GetFlags() string {
	names := []struct {
		set  bool
		name byte
	}{
		{f.O(), 'O'}, {f.D(), 'D'}, {f.I(), 'I'}, {f.T(), 'T'},
		{f.S(), 'S'}, {f.Z(), 'Z'}, {f.A(), 'A'}, {f.P(), 'P'}, {f.C(), 'C'},
	}
	out := make([]byte, 0, len(names))
	for _, n := range names {
		if n.set {
			out = append(out, n.name)
		} else {
			out = append(out, '-')
		}
	}
	return "[" + string(out) + "]"
}
