package bootimg

import (
	"encoding/binary"
	"fmt"
)

// register numbers, in encoding order
const (
	AX = iota
	CX
	DX
	BX
	SP
	BP
	SI
	DI
)

// byte registers
const (
	AL = iota
	CL
	DL
	BL
	AH
	CH
	DH
	BH
)

// segment registers
const (
	ES = iota
	CS
	SS
	DS
	FS
	GS
)

var segmentPrefix = [...]byte{0x26, 0x2E, 0x36, 0x3E, 0x64, 0x65}

// kinds of label references
const (
	refRel8  = iota // signed byte, relative to the end of the instruction
	refRel16        // signed word, relative to the end of the instruction
	refAbs16        // offset of the label within the segment
	refLin16        // linear address of the label, 16 bits
	refLin32        // linear address of the label, 32 bits
)

type fixup struct {
	at    int // position of the field
	end   int // end of the instruction, for relative references
	label string
	kind  int
}

// Assembler emits the small x86 subset the boot code needs. Labels may be
// used before they are defined; references are resolved by Bytes.
type Assembler struct {
	origin uint16 // offset of the first byte within its segment
	linear uint32 // linear address of the first byte
	bits32 bool

	code   []byte
	labels map[string]int
	fixups []fixup
}

// NewAssembler returns an assembler for code whose first byte sits at
// offset origin of its segment and at linear address linear.
func NewAssembler(origin uint16, linear uint32) *Assembler {
	return &Assembler{
		origin: origin,
		linear: linear,
		labels: make(map[string]int),
	}
}

// Bits32 switches to 32 bit operand and address size, for code running in
// a 32 bit code segment.
func (a *Assembler) Bits32() {
	a.bits32 = true
}

// Label defines name at the current position.
func (a *Assembler) Label(name string) {
	a.labels[name] = len(a.code)
}

// Labels returns the position of every label.
func (a *Assembler) Labels() map[string]int {
	m := make(map[string]int, len(a.labels))
	for k, v := range a.labels {
		m[k] = v
	}
	return m
}

// DB emits raw bytes.
func (a *Assembler) DB(b ...byte) {
	a.code = append(a.code, b...)
}

// DW emits a little endian word.
func (a *Assembler) DW(w uint16) {
	a.code = binary.LittleEndian.AppendUint16(a.code, w)
}

// DD emits a little endian double word.
func (a *Assembler) DD(d uint32) {
	a.code = binary.LittleEndian.AppendUint32(a.code, d)
}

// String emits s followed by a zero byte.
func (a *Assembler) String(s string) {
	a.code = append(a.code, s...)
	a.code = append(a.code, 0)
}

// Align pads with zeros to a multiple of n.
func (a *Assembler) Align(n int) {
	for len(a.code)%n != 0 {
		a.code = append(a.code, 0)
	}
}

func (a *Assembler) ref(label string, kind, size int, end int) {
	a.fixups = append(a.fixups, fixup{at: len(a.code), end: end, label: label, kind: kind})
	a.code = append(a.code, make([]byte, size)...)
}

// AddrOf emits the in-segment offset of label as a word.
func (a *Assembler) AddrOf(label string) {
	a.ref(label, refAbs16, 2, 0)
}

// LinearOf emits the linear address of label as a double word.
func (a *Assembler) LinearOf(label string) {
	a.ref(label, refLin32, 4, 0)
}

// instructions:

func (a *Assembler) Cli()   { a.DB(0xFA) }
func (a *Assembler) Sti()   { a.DB(0xFB) }
func (a *Assembler) Hlt()   { a.DB(0xF4) }
func (a *Assembler) Ret()   { a.DB(0xC3) }
func (a *Assembler) Iret()  { a.DB(0xCF) }
func (a *Assembler) Lodsb() { a.DB(0xAC) }
func (a *Assembler) Cld()   { a.DB(0xFC) }

// Int emits int n.
func (a *Assembler) Int(n byte) { a.DB(0xCD, n) }

// Push and Pop work on word registers.
func (a *Assembler) Push(r int) { a.DB(0x50 + byte(r)) }
func (a *Assembler) Pop(r int)  { a.DB(0x58 + byte(r)) }

// PushSeg and PopSeg handle ES, SS and DS.
func (a *Assembler) PushSeg(s int) { a.DB(byte(s)<<3 | 0x06) }
func (a *Assembler) PopSeg(s int)  { a.DB(byte(s)<<3 | 0x07) }

// operand size prefix for a 16 bit operation in 32 bit code
func (a *Assembler) word() {
	if a.bits32 {
		a.DB(0x66)
	}
}

// operand size prefix for a 32 bit operation in 16 bit code
func (a *Assembler) dword() {
	if !a.bits32 {
		a.DB(0x66)
	}
}

// MovImm16 emits mov r16, imm16.
func (a *Assembler) MovImm16(r int, v uint16) {
	a.word()
	a.DB(0xB8 + byte(r))
	a.DW(v)
}

// MovImm32 emits mov r32, imm32.
func (a *Assembler) MovImm32(r int, v uint32) {
	a.dword()
	a.DB(0xB8 + byte(r))
	a.DD(v)
}

// MovAddr16 emits mov r16, offset label.
func (a *Assembler) MovAddr16(r int, label string) {
	a.word()
	a.DB(0xB8 + byte(r))
	a.AddrOf(label)
}

// MovImm8 emits mov r8, imm8.
func (a *Assembler) MovImm8(r int, v byte) {
	a.DB(0xB0+byte(r), v)
}

// MovSeg emits mov sreg, r16.
func (a *Assembler) MovSeg(s, r int) {
	a.DB(0x8E, 0xC0|byte(s)<<3|byte(r))
}

// Xor16 emits xor dst, src.
func (a *Assembler) Xor16(dst, src int) {
	a.word()
	a.DB(0x31, 0xC0|byte(src)<<3|byte(dst))
}

// Or8 emits or dst, src on byte registers.
func (a *Assembler) Or8(dst, src int) {
	a.DB(0x08, 0xC0|byte(src)<<3|byte(dst))
}

// MovRR32 emits mov dst, src on double word registers.
func (a *Assembler) MovRR32(dst, src int) {
	a.dword()
	a.DB(0x89, 0xC0|byte(src)<<3|byte(dst))
}

// StoreByte emits mov [label], r8.
func (a *Assembler) StoreByte(label string, r int) {
	a.DB(0x88, byte(r)<<3|0x06)
	a.AddrOf(label)
}

// LoadByte emits mov r8, [label].
func (a *Assembler) LoadByte(r int, label string) {
	a.DB(0x8A, byte(r)<<3|0x06)
	a.AddrOf(label)
}

// MovMemImm16 emits mov word seg:[addr], imm16.
func (a *Assembler) MovMemImm16(seg int, addr uint16, v uint16) {
	a.DB(segmentPrefix[seg], 0xC7, 0x06)
	a.DW(addr)
	a.DW(v)
}

// MovMemAddr16 emits mov word seg:[addr], offset label.
func (a *Assembler) MovMemAddr16(seg int, addr uint16, label string) {
	a.DB(segmentPrefix[seg], 0xC7, 0x06)
	a.DW(addr)
	a.AddrOf(label)
}

// Div8 emits div r8.
func (a *Assembler) Div8(r int) {
	a.DB(0xF6, 0xF0|byte(r))
}

// Call emits a near call.
func (a *Assembler) Call(label string) {
	a.DB(0xE8)
	a.ref(label, refRel16, 2, len(a.code)+2)
}

// Jmp emits a short jump.
func (a *Assembler) Jmp(label string) {
	a.DB(0xEB)
	a.ref(label, refRel8, 1, len(a.code)+1)
}

// Jz and Jc emit short conditional jumps.
func (a *Assembler) Jz(label string) { a.jcc(0x74, label) }
func (a *Assembler) Jc(label string) { a.jcc(0x72, label) }

func (a *Assembler) jcc(op byte, label string) {
	a.DB(op)
	a.ref(label, refRel8, 1, len(a.code)+1)
}

// Hang emits jmp $.
func (a *Assembler) Hang() {
	a.DB(0xEB, 0xFE)
}

// JmpFar emits jmp selector:offset with an immediate offset.
func (a *Assembler) JmpFar(selector, offset uint16) {
	a.DB(0xEA)
	a.DW(offset)
	a.DW(selector)
}

// JmpFarLinear emits jmp selector:label, the offset being the linear address
// of label. This is the form used with a zero based code descriptor.
func (a *Assembler) JmpFarLinear(selector uint16, label string, wide bool) {
	if wide {
		a.dword()
		a.DB(0xEA)
		a.ref(label, refLin32, 4, 0)
	} else {
		a.DB(0xEA)
		a.ref(label, refLin16, 2, 0)
	}
	a.DW(selector)
}

// Lgdt emits lgdt [label].
func (a *Assembler) Lgdt(label string) {
	a.DB(0x0F, 0x01, 0x16)
	a.AddrOf(label)
}

// MovEAXCR0 emits mov eax, cr0.
func (a *Assembler) MovEAXCR0() { a.DB(0x0F, 0x20, 0xC0) }

// MovCR0EAX emits mov cr0, eax.
func (a *Assembler) MovCR0EAX() { a.DB(0x0F, 0x22, 0xC0) }

// OrEAXImm8 emits or eax, imm8 (sign extended).
func (a *Assembler) OrEAXImm8(v int8) {
	a.dword()
	a.DB(0x83, 0xC8, byte(v))
}

// Bytes resolves every label reference and returns the code.
func (a *Assembler) Bytes() ([]byte, error) {
	out := append([]byte(nil), a.code...)
	for _, f := range a.fixups {
		pos, ok := a.labels[f.label]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUndefinedLabel, f.label)
		}
		switch f.kind {
		case refRel8:
			d := pos - f.end
			if d < -128 || d > 127 {
				return nil, fmt.Errorf("%w: %q is %d bytes away", ErrJumpRange, f.label, d)
			}
			out[f.at] = byte(int8(d))
		case refRel16:
			binary.LittleEndian.PutUint16(out[f.at:], uint16(int16(pos-f.end)))
		case refAbs16:
			binary.LittleEndian.PutUint16(out[f.at:], a.origin+uint16(pos))
		case refLin16:
			lin := a.linear + uint32(pos)
			if lin > 0xFFFF {
				return nil, fmt.Errorf("%w: %q at %#x", ErrJumpRange, f.label, lin)
			}
			binary.LittleEndian.PutUint16(out[f.at:], uint16(lin))
		case refLin32:
			binary.LittleEndian.PutUint32(out[f.at:], a.linear+uint32(pos))
		}
	}
	return out, nil
}
