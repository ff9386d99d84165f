package cpu

import (
	"bootsector/interrupts"
)

// ModRM is a decoded addressing byte.
type ModRM struct {
	Mod, Reg, Rm byte

	// memory operand, valid when Mod != 3
	seg    int
	offset uint32
}

// isReg reports a register operand.
func (m *ModRM) isReg() bool {
	return m.Mod == 3
}

// decodeModRM reads the ModRM byte and any displacement that follows.
func (c *CPU) decodeModRM() *ModRM {
	code := c.fetch8()
	m := &ModRM{
		Mod: code >> 6,
		Reg: (code >> 3) & 7,
		Rm:  code & 7,
	}
	if m.Mod == 3 {
		return m
	}
	if c.addrSize32 {
		c.address32(m)
	} else {
		c.address16(m)
	}
	if c.segment >= 0 {
		m.seg = c.segment
	}
	return m
}

// address16 computes a 16 bit effective address:
//
//	rm: 0 BX+SI, 1 BX+DI, 2 BP+SI, 3 BP+DI, 4 SI, 5 DI, 6 BP / disp16, 7 BX
func (c *CPU) address16(m *ModRM) {
	m.seg = DS
	var ea uint32
	switch m.Rm {
	case 0:
		ea = uint32(c.Reg16(EBX)) + uint32(c.Reg16(ESI))
	case 1:
		ea = uint32(c.Reg16(EBX)) + uint32(c.Reg16(EDI))
	case 2:
		ea = uint32(c.Reg16(EBP)) + uint32(c.Reg16(ESI))
		m.seg = SS
	case 3:
		ea = uint32(c.Reg16(EBP)) + uint32(c.Reg16(EDI))
		m.seg = SS
	case 4:
		ea = uint32(c.Reg16(ESI))
	case 5:
		ea = uint32(c.Reg16(EDI))
	case 6:
		if m.Mod == 0 {
			ea = uint32(c.fetch16())
		} else {
			ea = uint32(c.Reg16(EBP))
			m.seg = SS
		}
	case 7:
		ea = uint32(c.Reg16(EBX))
	}
	switch m.Mod {
	case 1:
		ea += uint32(int32(int8(c.fetch8())))
	case 2:
		ea += uint32(c.fetch16())
	}
	m.offset = ea & 0xFFFF
}

// address32 computes a 32 bit effective address. Scaled index addressing is
// not implemented.
func (c *CPU) address32(m *ModRM) {
	m.seg = DS
	var ea uint32
	switch {
	case m.Rm == 4:
		panic(interrupts.Trap{Vector: interrupts.IntInvalid, Fault: true,
			Msg: "SIB addressing not supported"})
	case m.Rm == 5 && m.Mod == 0:
		ea = c.fetch32()
	default:
		ea = c.Registers[m.Rm]
		if m.Rm == EBP {
			m.seg = SS
		}
	}
	switch m.Mod {
	case 1:
		ea += uint32(int32(int8(c.fetch8())))
	case 2:
		ea += c.fetch32()
	}
	m.offset = ea
}

// readRM reads the r/m operand at size.
func (c *CPU) readRM(m *ModRM, size int) uint32 {
	if m.isReg() {
		return c.getReg(int(m.Rm), size)
	}
	return c.readMem(m.seg, m.offset, size)
}

// writeRM writes the r/m operand at size.
func (c *CPU) writeRM(m *ModRM, size int, v uint32) {
	if m.isReg() {
		c.setReg(int(m.Rm), size, v)
		return
	}
	c.writeMem(m.seg, m.offset, size, v)
}
