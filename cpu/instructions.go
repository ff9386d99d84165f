package cpu

import (
	"fmt"

	"bootsector/interrupts"
)

// arithmetic group, in the order of the ModRM reg field of 80/81/83
const (
	aluAdd = iota
	aluOr
	aluAdc
	aluSbb
	aluAnd
	aluSub
	aluXor
	aluCmp
)

func (c *CPU) initBaseOps() {
	// 00..3f: the eight arithmetic families, six encodings each
	for op := 0; op < 8; op++ {
		op := op
		base := byte(op * 8)
		c.baseOps[base+0] = func() { c.aluRMReg(op, 1) }
		c.baseOps[base+1] = func() { c.aluRMReg(op, c.opSize()) }
		c.baseOps[base+2] = func() { c.aluRegRM(op, 1) }
		c.baseOps[base+3] = func() { c.aluRegRM(op, c.opSize()) }
		c.baseOps[base+4] = func() { c.aluAccImm(op, 1) }
		c.baseOps[base+5] = func() { c.aluAccImm(op, c.opSize()) }
	}

	// segment push / pop
	c.baseOps[0x06] = func() { c.Push(uint32(c.Segs[ES].Selector), c.opSize()) }
	c.baseOps[0x07] = func() { c.loadSegment(ES, uint16(c.Pop(c.opSize()))) }
	c.baseOps[0x0E] = func() { c.Push(uint32(c.Segs[CS].Selector), c.opSize()) }
	c.baseOps[0x16] = func() { c.Push(uint32(c.Segs[SS].Selector), c.opSize()) }
	c.baseOps[0x17] = func() { c.loadSegment(SS, uint16(c.Pop(c.opSize()))) }
	c.baseOps[0x1E] = func() { c.Push(uint32(c.Segs[DS].Selector), c.opSize()) }
	c.baseOps[0x1F] = func() { c.loadSegment(DS, uint16(c.Pop(c.opSize()))) }

	for r := 0; r < 8; r++ {
		r := r
		c.baseOps[0x40+byte(r)] = func() { c.incDec(r, false) }
		c.baseOps[0x48+byte(r)] = func() { c.incDec(r, true) }
		c.baseOps[0x50+byte(r)] = func() { c.pushReg(r) }
		c.baseOps[0x58+byte(r)] = func() { c.setReg(r, c.opSize(), c.Pop(c.opSize())) }
		c.baseOps[0xB0+byte(r)] = func() { c.SetReg8(r, c.fetch8()) }
		c.baseOps[0xB8+byte(r)] = func() { c.setReg(r, c.opSize(), c.fetchImm(c.opSize())) }
		if r > 0 {
			c.baseOps[0x90+byte(r)] = func() { c.xchgAcc(r) }
		}
	}

	c.baseOps[0x60] = c.pushaOp
	c.baseOps[0x61] = c.popaOp
	c.baseOps[0x68] = func() { c.Push(c.fetchImm(c.opSize()), c.opSize()) }
	c.baseOps[0x6A] = func() { c.Push(uint32(int32(int8(c.fetch8()))), c.opSize()) }

	for cc := byte(0); cc < 16; cc++ {
		cc := cc
		c.baseOps[0x70+cc] = func() { c.jccOp(cc, int32(int8(c.fetch8()))) }
	}

	c.baseOps[0x80] = func() { c.group1(1, 1) }
	c.baseOps[0x81] = func() { c.group1(c.opSize(), c.opSize()) }
	c.baseOps[0x83] = func() { c.group1(c.opSize(), 1) }
	c.baseOps[0x84] = func() { c.testRM(1) }
	c.baseOps[0x85] = func() { c.testRM(c.opSize()) }
	c.baseOps[0x86] = func() { c.xchgRM(1) }
	c.baseOps[0x87] = func() { c.xchgRM(c.opSize()) }
	c.baseOps[0x88] = func() { c.movRMReg(1) }
	c.baseOps[0x89] = func() { c.movRMReg(c.opSize()) }
	c.baseOps[0x8A] = func() { c.movRegRM(1) }
	c.baseOps[0x8B] = func() { c.movRegRM(c.opSize()) }
	c.baseOps[0x8C] = c.movRMSegOp
	c.baseOps[0x8D] = c.leaOp
	c.baseOps[0x8E] = c.movSegRMOp

	c.baseOps[0x90] = func() {}
	c.baseOps[0x98] = c.cbwOp
	c.baseOps[0x99] = c.cwdOp
	c.baseOps[0x9C] = func() { c.Push(c.Flags.Get(), c.opSize()) }
	c.baseOps[0x9D] = c.popfOp

	c.baseOps[0xA0] = func() { c.movAccMoffs(1, false) }
	c.baseOps[0xA1] = func() { c.movAccMoffs(c.opSize(), false) }
	c.baseOps[0xA2] = func() { c.movAccMoffs(1, true) }
	c.baseOps[0xA3] = func() { c.movAccMoffs(c.opSize(), true) }
	c.baseOps[0xA4] = func() { c.stringOp(1, c.movsStep) }
	c.baseOps[0xA5] = func() { c.stringOp(c.opSize(), c.movsStep) }
	c.baseOps[0xA8] = func() { c.setLogic(uint32(c.Reg8(AL))&uint32(c.fetch8()), 1) }
	c.baseOps[0xA9] = func() {
		size := c.opSize()
		c.setLogic(c.getReg(EAX, size)&c.fetchImm(size), size)
	}
	c.baseOps[0xAA] = func() { c.stringOp(1, c.stosStep) }
	c.baseOps[0xAB] = func() { c.stringOp(c.opSize(), c.stosStep) }
	c.baseOps[0xAC] = func() { c.stringOp(1, c.lodsStep) }
	c.baseOps[0xAD] = func() { c.stringOp(c.opSize(), c.lodsStep) }

	c.baseOps[0xC2] = func() { c.retOp(c.fetch16()) }
	c.baseOps[0xC3] = func() { c.retOp(0) }
	c.baseOps[0xC6] = func() { c.movRMImm(1) }
	c.baseOps[0xC7] = func() { c.movRMImm(c.opSize()) }
	c.baseOps[0xCB] = c.retfOp
	c.baseOps[0xCC] = func() { c.interrupt(interrupts.IntBreakpoint, c.EIP) }
	c.baseOps[0xCD] = func() {
		v := c.fetch8()
		c.interrupt(v, c.EIP)
	}
	c.baseOps[0xCF] = c.iretOp

	c.baseOps[0xE8] = c.callOp
	c.baseOps[0xE9] = func() { c.jumpRel(c.fetchRel()) }
	c.baseOps[0xEA] = c.jmpFarOp
	c.baseOps[0xEB] = func() { c.jumpRel(int32(int8(c.fetch8()))) }

	c.baseOps[0xF4] = func() { c.idle("hlt") }
	c.baseOps[0xF6] = func() { c.group3(1) }
	c.baseOps[0xF7] = func() { c.group3(c.opSize()) }
	c.baseOps[0xF8] = func() { c.Flags.SetC(false) }
	c.baseOps[0xF9] = func() { c.Flags.SetC(true) }
	c.baseOps[0xFA] = func() { c.Flags.SetI(false) }
	c.baseOps[0xFB] = func() { c.Flags.SetI(true) }
	c.baseOps[0xFC] = func() { c.Flags.SetD(false) }
	c.baseOps[0xFD] = func() { c.Flags.SetD(true) }
	c.baseOps[0xFE] = c.group4
	c.baseOps[0xFF] = c.group5
}

func (c *CPU) initExtendedOps() {
	c.extendedOps[0x01] = c.group7
	c.extendedOps[0x20] = c.movRegCROp
	c.extendedOps[0x22] = c.movCRRegOp
	for cc := byte(0); cc < 16; cc++ {
		cc := cc
		c.extendedOps[0x80+cc] = func() { c.jccOp(cc, c.fetchRel()) }
	}
}

// flag helpers:

func sizeMask(size int) uint32 {
	return uint32(uint64(1)<<(uint(size)*8) - 1)
}

func signBit(size int) uint32 {
	return 1 << (uint(size)*8 - 1)
}

func parity(v byte) bool {
	v ^= v >> 4
	v ^= v >> 2
	v ^= v >> 1
	return v&1 == 0
}

// setArith sets flags after an add or subtract. res is computed in 64 bits
// so the carry/borrow lands in bit size*8.
func (c *CPU) setArith(res uint64, a, b uint32, size int, sub bool) uint32 {
	r := uint32(res) & sizeMask(size)
	sign := signBit(size)
	c.Flags.SetC((res>>(uint(size)*8))&1 != 0)
	c.Flags.SetZ(r == 0)
	c.Flags.SetS(r&sign != 0)
	c.Flags.SetP(parity(byte(r)))
	c.Flags.SetA((a^b^r)&0x10 != 0)
	if sub {
		c.Flags.SetO((a^b)&(a^r)&sign != 0)
	} else {
		c.Flags.SetO((a^r)&(b^r)&sign != 0)
	}
	return r
}

// setLogic sets flags after and/or/xor/test.
func (c *CPU) setLogic(r uint32, size int) uint32 {
	r &= sizeMask(size)
	c.Flags.SetC(false)
	c.Flags.SetO(false)
	c.Flags.SetA(false)
	c.Flags.SetZ(r == 0)
	c.Flags.SetS(r&signBit(size) != 0)
	c.Flags.SetP(parity(byte(r)))
	return r
}

// alu performs op and reports whether the result is written back.
func (c *CPU) alu(op int, a, b uint32, size int) (uint32, bool) {
	a &= sizeMask(size)
	b &= sizeMask(size)
	var carry uint64
	if c.Flags.C() {
		carry = 1
	}
	switch op {
	case aluAdd:
		return c.setArith(uint64(a)+uint64(b), a, b, size, false), true
	case aluOr:
		return c.setLogic(a|b, size), true
	case aluAdc:
		return c.setArith(uint64(a)+uint64(b)+carry, a, b, size, false), true
	case aluSbb:
		return c.setArith(uint64(a)-uint64(b)-carry, a, b, size, true), true
	case aluAnd:
		return c.setLogic(a&b, size), true
	case aluSub:
		return c.setArith(uint64(a)-uint64(b), a, b, size, true), true
	case aluXor:
		return c.setLogic(a^b, size), true
	}
	c.setArith(uint64(a)-uint64(b), a, b, size, true)
	return 0, false
}

func (c *CPU) aluRMReg(op int, size int) {
	m := c.decodeModRM()
	if r, ok := c.alu(op, c.readRM(m, size), c.getReg(int(m.Reg), size), size); ok {
		c.writeRM(m, size, r)
	}
}

func (c *CPU) aluRegRM(op int, size int) {
	m := c.decodeModRM()
	if r, ok := c.alu(op, c.getReg(int(m.Reg), size), c.readRM(m, size), size); ok {
		c.setReg(int(m.Reg), size, r)
	}
}

func (c *CPU) aluAccImm(op int, size int) {
	imm := c.fetchImm(size)
	if r, ok := c.alu(op, c.getReg(EAX, size), imm, size); ok {
		c.setReg(EAX, size, r)
	}
}

// group1: 80/81/83 arithmetic with an immediate
func (c *CPU) group1(size, immSize int) {
	m := c.decodeModRM()
	imm := c.fetchImm(immSize)
	if immSize == 1 && size > 1 {
		imm = uint32(int32(int8(imm)))
	}
	if r, ok := c.alu(int(m.Reg), c.readRM(m, size), imm, size); ok {
		c.writeRM(m, size, r)
	}
}

func (c *CPU) testRM(size int) {
	m := c.decodeModRM()
	c.setLogic(c.readRM(m, size)&c.getReg(int(m.Reg), size), size)
}

// incDec updates every arithmetic flag but carry.
func (c *CPU) incDec(r int, dec bool) {
	size := c.opSize()
	c.setReg(r, size, c.incDecValue(c.getReg(r, size), size, dec))
}

func (c *CPU) incDecValue(v uint32, size int, dec bool) uint32 {
	carry := c.Flags.C()
	var r uint32
	if dec {
		r = c.setArith(uint64(v)-1, v, 1, size, true)
	} else {
		r = c.setArith(uint64(v)+1, v, 1, size, false)
	}
	c.Flags.SetC(carry)
	return r
}

// data movement:

func (c *CPU) movRMReg(size int) {
	m := c.decodeModRM()
	c.writeRM(m, size, c.getReg(int(m.Reg), size))
}

func (c *CPU) movRegRM(size int) {
	m := c.decodeModRM()
	c.setReg(int(m.Reg), size, c.readRM(m, size))
}

func (c *CPU) movRMImm(size int) {
	m := c.decodeModRM()
	if m.Reg != 0 {
		panic(interrupts.Trap{Vector: interrupts.IntInvalid, Fault: true, Msg: "invalid C6/C7 extension"})
	}
	c.writeRM(m, size, c.fetchImm(size))
}

// movRMSegOp: mov r/m16, sreg
func (c *CPU) movRMSegOp() {
	m := c.decodeModRM()
	if m.Reg > GS {
		panic(interrupts.Trap{Vector: interrupts.IntInvalid, Fault: true, Msg: "invalid segment register"})
	}
	size := 2
	if m.isReg() {
		size = c.opSize()
	}
	c.writeRM(m, size, uint32(c.Segs[m.Reg].Selector))
}

// movSegRMOp: mov sreg, r/m16. CS cannot be loaded this way.
func (c *CPU) movSegRMOp() {
	m := c.decodeModRM()
	if m.Reg == CS || m.Reg > GS {
		panic(interrupts.Trap{Vector: interrupts.IntInvalid, Fault: true, Msg: "invalid segment register load"})
	}
	c.loadSegment(int(m.Reg), uint16(c.readRM(m, 2)))
}

func (c *CPU) leaOp() {
	m := c.decodeModRM()
	if m.isReg() {
		panic(interrupts.Trap{Vector: interrupts.IntInvalid, Fault: true, Msg: "lea with register operand"})
	}
	c.setReg(int(m.Reg), c.opSize(), m.offset)
}

func (c *CPU) xchgRM(size int) {
	m := c.decodeModRM()
	a := c.readRM(m, size)
	c.writeRM(m, size, c.getReg(int(m.Reg), size))
	c.setReg(int(m.Reg), size, a)
}

func (c *CPU) xchgAcc(r int) {
	size := c.opSize()
	a := c.getReg(EAX, size)
	c.setReg(EAX, size, c.getReg(r, size))
	c.setReg(r, size, a)
}

func (c *CPU) movAccMoffs(size int, store bool) {
	var off uint32
	if c.addrSize32 {
		off = c.fetch32()
	} else {
		off = uint32(c.fetch16())
	}
	seg := DS
	if c.segment >= 0 {
		seg = c.segment
	}
	if store {
		c.writeMem(seg, off, size, c.getReg(EAX, size))
	} else {
		c.setReg(EAX, size, c.readMem(seg, off, size))
	}
}

func (c *CPU) cbwOp() {
	if c.opSize32 {
		c.Registers[EAX] = uint32(int32(int16(c.Reg16(EAX))))
		return
	}
	c.SetReg16(EAX, uint16(int16(int8(c.Reg8(AL)))))
}

func (c *CPU) cwdOp() {
	size := c.opSize()
	if c.getReg(EAX, size)&signBit(size) != 0 {
		c.setReg(EDX, size, sizeMask(size))
	} else {
		c.setReg(EDX, size, 0)
	}
}

// stack:

// pushReg pushes the value the register had before the instruction, SP included.
func (c *CPU) pushReg(r int) {
	size := c.opSize()
	c.Push(c.getReg(r, size), size)
}

func (c *CPU) pushaOp() {
	size := c.opSize()
	sp := c.getReg(ESP, size)
	for r := EAX; r <= EDI; r++ {
		if r == ESP {
			c.Push(sp, size)
			continue
		}
		c.Push(c.getReg(r, size), size)
	}
}

func (c *CPU) popaOp() {
	size := c.opSize()
	for r := EDI; r >= EAX; r-- {
		v := c.Pop(size)
		if r != ESP {
			c.setReg(r, size, v)
		}
	}
}

func (c *CPU) popfOp() {
	v := c.Pop(c.opSize())
	if c.opSize32 {
		c.Flags.Set(v)
		return
	}
	c.Flags.Set16(uint16(v))
}

// string instructions:

func (c *CPU) indexReg(r int) uint32 {
	if c.addrSize32 {
		return c.Registers[r]
	}
	return uint32(c.Reg16(r))
}

func (c *CPU) advanceIndex(r int, size int) {
	delta := uint32(size)
	if c.Flags.D() {
		delta = -delta
	}
	if c.addrSize32 {
		c.Registers[r] += delta
		return
	}
	c.SetReg16(r, uint16(uint32(c.Reg16(r))+delta))
}

func (c *CPU) sourceSeg() int {
	if c.segment >= 0 {
		return c.segment
	}
	return DS
}

func (c *CPU) lodsStep(size int) {
	c.setReg(EAX, size, c.readMem(c.sourceSeg(), c.indexReg(ESI), size))
	c.advanceIndex(ESI, size)
}

func (c *CPU) stosStep(size int) {
	c.writeMem(ES, c.indexReg(EDI), size, c.getReg(EAX, size))
	c.advanceIndex(EDI, size)
}

func (c *CPU) movsStep(size int) {
	c.writeMem(ES, c.indexReg(EDI), size, c.readMem(c.sourceSeg(), c.indexReg(ESI), size))
	c.advanceIndex(ESI, size)
	c.advanceIndex(EDI, size)
}

// stringOp runs step once, or CX times with a rep prefix.
func (c *CPU) stringOp(size int, step func(int)) {
	if !c.rep {
		step(size)
		return
	}
	for c.indexReg(ECX) != 0 {
		step(size)
		if c.addrSize32 {
			c.Registers[ECX]--
		} else {
			c.SetReg16(ECX, c.Reg16(ECX)-1)
		}
	}
}

// control transfer:

// fetchRel fetches a rel16 or rel32 displacement.
func (c *CPU) fetchRel() int32 {
	if c.opSize32 {
		return int32(c.fetch32())
	}
	return int32(int16(c.fetch16()))
}

// jumpRel jumps relative to the next instruction. A jump to itself parks
// the processor: nothing can interrupt it.
func (c *CPU) jumpRel(disp int32) {
	target := (c.EIP + uint32(disp)) & c.ipMask()
	c.EIP = target
	if target == c.startEIP {
		c.idle("jump to self")
	}
}

func (c *CPU) condition(cc byte) bool {
	f := &c.Flags
	var r bool
	switch cc >> 1 {
	case 0:
		r = f.O()
	case 1:
		r = f.C()
	case 2:
		r = f.Z()
	case 3:
		r = f.C() || f.Z()
	case 4:
		r = f.S()
	case 5:
		r = f.P()
	case 6:
		r = f.S() != f.O()
	case 7:
		r = f.Z() || f.S() != f.O()
	}
	if cc&1 == 1 {
		return !r
	}
	return r
}

func (c *CPU) jccOp(cc byte, disp int32) {
	if c.condition(cc) {
		c.jumpRel(disp)
	}
}

func (c *CPU) callOp() {
	disp := c.fetchRel()
	c.Push(c.EIP, c.opSize())
	c.jumpRel(disp)
}

func (c *CPU) retOp(release uint16) {
	c.EIP = c.Pop(c.opSize()) & c.ipMask()
	c.setSP(c.sp() + uint32(release))
}

func (c *CPU) retfOp() {
	size := c.opSize()
	ip := c.Pop(size)
	cs := uint16(c.Pop(size))
	c.farJump(cs, ip)
}

// jmpFarOp: jmp ptr16:16 / ptr16:32
func (c *CPU) jmpFarOp() {
	off := c.fetchImm(c.opSize())
	sel := c.fetch16()
	if c.log != nil && c.pendingCS {
		c.log.Printf("far jump %04x:%08x reloads CS under protection\n", sel, off)
	}
	c.farJump(sel, off)
}

// group3: test/not/neg/mul/div
func (c *CPU) group3(size int) {
	m := c.decodeModRM()
	v := c.readRM(m, size)
	switch m.Reg {
	case 0, 1:
		c.setLogic(v&c.fetchImm(size), size)
	case 2:
		c.writeRM(m, size, ^v&sizeMask(size))
	case 3:
		r := c.setArith(0-uint64(v), 0, v, size, true)
		c.Flags.SetC(v != 0)
		c.writeRM(m, size, r)
	case 4:
		c.mul(v, size)
	case 6:
		c.div(v, size)
	default:
		panic(interrupts.Trap{Vector: interrupts.IntInvalid, Fault: true,
			Msg: fmt.Sprintf("group 3 extension /%d not implemented", m.Reg)})
	}
}

func (c *CPU) mul(v uint32, size int) {
	var high uint32
	switch size {
	case 1:
		r := uint32(c.Reg8(AL)) * v
		c.SetReg16(EAX, uint16(r))
		high = r >> 8
	case 2:
		r := uint32(c.Reg16(EAX)) * v
		c.SetReg16(EAX, uint16(r))
		c.SetReg16(EDX, uint16(r>>16))
		high = r >> 16
	default:
		r := uint64(c.Registers[EAX]) * uint64(v)
		c.Registers[EAX] = uint32(r)
		c.Registers[EDX] = uint32(r >> 32)
		high = uint32(r >> 32)
	}
	c.Flags.SetC(high != 0)
	c.Flags.SetO(high != 0)
}

// div raises a divide error fault for a zero divisor or a quotient that
// does not fit.
func (c *CPU) div(v uint32, size int) {
	if v == 0 {
		panic(interrupts.Trap{Vector: interrupts.IntDivide, Fault: true, Msg: "divide by zero"})
	}
	var dividend uint64
	switch size {
	case 1:
		dividend = uint64(c.Reg16(EAX))
	case 2:
		dividend = uint64(c.Reg16(EDX))<<16 | uint64(c.Reg16(EAX))
	default:
		dividend = uint64(c.Registers[EDX])<<32 | uint64(c.Registers[EAX])
	}
	q := dividend / uint64(v)
	rem := dividend % uint64(v)
	if q > uint64(sizeMask(size)) {
		panic(interrupts.Trap{Vector: interrupts.IntDivide, Fault: true, Msg: "quotient overflow"})
	}
	switch size {
	case 1:
		c.SetReg8(AL, byte(q))
		c.SetReg8(AH, byte(rem))
	case 2:
		c.SetReg16(EAX, uint16(q))
		c.SetReg16(EDX, uint16(rem))
	default:
		c.Registers[EAX] = uint32(q)
		c.Registers[EDX] = uint32(rem)
	}
}

// group4: inc/dec r/m8
func (c *CPU) group4() {
	m := c.decodeModRM()
	if m.Reg > 1 {
		panic(interrupts.Trap{Vector: interrupts.IntInvalid, Fault: true, Msg: "invalid FE extension"})
	}
	c.writeRM(m, 1, c.incDecValue(c.readRM(m, 1), 1, m.Reg == 1))
}

// group5: inc/dec/call/jmp/push r/m
func (c *CPU) group5() {
	m := c.decodeModRM()
	size := c.opSize()
	switch m.Reg {
	case 0, 1:
		c.writeRM(m, size, c.incDecValue(c.readRM(m, size), size, m.Reg == 1))
	case 2:
		target := c.readRM(m, size)
		c.Push(c.EIP, size)
		c.EIP = target & c.ipMask()
	case 4:
		target := c.readRM(m, size) & c.ipMask()
		if target == c.startEIP {
			c.idle("jump to self")
		}
		c.EIP = target
	case 6:
		c.Push(c.readRM(m, size), size)
	default:
		panic(interrupts.Trap{Vector: interrupts.IntInvalid, Fault: true,
			Msg: fmt.Sprintf("group 5 extension /%d not implemented", m.Reg)})
	}
}

// system instructions:

// group7: 0f 01 /2 lgdt, /3 lidt, /4 smsw
func (c *CPU) group7() {
	m := c.decodeModRM()
	switch m.Reg {
	case 2, 3:
		if m.isReg() {
			panic(interrupts.Trap{Vector: interrupts.IntInvalid, Fault: true, Msg: "lgdt with register operand"})
		}
		limit := uint16(c.readMem(m.seg, m.offset, 2))
		base := c.readMem(m.seg, m.offset+2, 4)
		if !c.opSize32 {
			base &= 0x00FFFFFF
		}
		if m.Reg == 2 {
			c.GDTR = gdtPointer(limit, base)
		} else {
			c.IDTR = gdtPointer(limit, base)
		}
	case 4:
		c.writeRM(m, 2, uint32(c.CR0)&0xFFFF)
	default:
		panic(interrupts.Trap{Vector: interrupts.IntInvalid, Fault: true,
			Msg: fmt.Sprintf("0f 01 /%d not implemented", m.Reg)})
	}
}

// movRegCROp: mov r32, crN
func (c *CPU) movRegCROp() {
	m := c.decodeModRM()
	var v uint32
	if m.Reg == 0 {
		v = uint32(c.CR0)
	}
	c.Registers[m.Rm] = v
}

// movCRRegOp: mov crN, r32
func (c *CPU) movCRRegOp() {
	m := c.decodeModRM()
	if m.Reg != 0 {
		// no paging: CR2, CR3 and CR4 writes are ignored
		return
	}
	c.setCR0(c.Registers[m.Rm])
}
