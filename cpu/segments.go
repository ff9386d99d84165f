package cpu

import (
	"fmt"

	"bootsector/gdt"
	"bootsector/interrupts"
)

// gp raises a general protection fault.
func gp(format string, args ...interface{}) {
	panic(interrupts.Trap{Vector: interrupts.IntGeneralProtection, Fault: true,
		Msg: fmt.Sprintf(format, args...)})
}

// linear translates seg:offset for an access of size bytes, checking the
// cached limit and access rights.
func (c *CPU) linear(seg int, offset uint32, size int, write bool) uint32 {
	s := &c.Segs[seg]
	if c.CR0.Protected() && seg != CS {
		if s.unusable {
			gp("%s: access through null selector", segNames[seg])
		}
		if write && s.Access&gdt.AccessExecutable != 0 {
			gp("%s: write to code segment", segNames[seg])
		}
		if write && s.Access&gdt.AccessRW == 0 {
			gp("%s: write to read-only segment", segNames[seg])
		}
	}
	if uint64(offset)+uint64(size)-1 > uint64(s.Limit) {
		vector := uint8(interrupts.IntGeneralProtection)
		if seg == SS {
			vector = interrupts.IntStack
		}
		panic(interrupts.Trap{Vector: vector, Fault: true,
			Msg: fmt.Sprintf("%s: offset %#x beyond limit %#x", segNames[seg], offset, s.Limit)})
	}
	return s.Base + offset
}

// readMem reads size bytes at seg:offset.
func (c *CPU) readMem(seg int, offset uint32, size int) uint32 {
	addr := c.linear(seg, offset, size, false)
	switch size {
	case 1:
		return uint32(c.mem.ReadByte(addr))
	case 2:
		return uint32(c.mem.ReadWord(addr))
	}
	return c.mem.ReadDword(addr)
}

// writeMem writes size bytes at seg:offset.
func (c *CPU) writeMem(seg int, offset uint32, size int, v uint32) {
	addr := c.linear(seg, offset, size, true)
	switch size {
	case 1:
		c.mem.WriteByte(addr, byte(v))
	case 2:
		c.mem.WriteWord(addr, uint16(v))
	default:
		c.mem.WriteDword(addr, v)
	}
}

// ipMask is the width of the instruction pointer for the current code segment
func (c *CPU) ipMask() uint32 {
	if c.Segs[CS].Big {
		return 0xFFFFFFFF
	}
	return 0xFFFF
}

// Fetch helpers: read at CS:EIP and advance.
func (c *CPU) fetch8() byte {
	v := c.readMem(CS, c.EIP, 1)
	c.EIP = (c.EIP + 1) & c.ipMask()
	return byte(v)
}

func (c *CPU) fetch16() uint16 {
	return uint16(c.fetch8()) | uint16(c.fetch8())<<8
}

func (c *CPU) fetch32() uint32 {
	return uint32(c.fetch16()) | uint32(c.fetch16())<<16
}

// fetchImm fetches an immediate of operand size.
func (c *CPU) fetchImm(size int) uint32 {
	switch size {
	case 1:
		return uint32(c.fetch8())
	case 2:
		return uint32(c.fetch16())
	}
	return c.fetch32()
}

// stack helpers:

func (c *CPU) sp() uint32 {
	if c.Segs[SS].Big {
		return c.Registers[ESP]
	}
	return c.Registers[ESP] & 0xFFFF
}

func (c *CPU) setSP(v uint32) {
	if c.Segs[SS].Big {
		c.Registers[ESP] = v
		return
	}
	c.SetReg16(ESP, uint16(v))
}

// Push to processor stack
func (c *CPU) Push(v uint32, size int) {
	sp := c.sp() - uint32(size)
	if !c.Segs[SS].Big {
		sp &= 0xFFFF
	}
	c.writeMem(SS, sp, size, v)
	c.setSP(sp)
}

// Pop from processor stack
func (c *CPU) Pop(size int) uint32 {
	sp := c.sp()
	v := c.readMem(SS, sp, size)
	sp += uint32(size)
	if !c.Segs[SS].Big {
		sp &= 0xFFFF
	}
	c.setSP(sp)
	return v
}

// loadSegment loads a segment register the way the current mode does it.
func (c *CPU) loadSegment(seg int, selector uint16) {
	if !c.CR0.Protected() {
		// real mode only touches selector and base, the rest of the cache
		// keeps whatever was loaded last
		s := &c.Segs[seg]
		s.Selector = selector
		s.Base = uint32(selector) << 4
		s.unusable = false
		return
	}

	if selector&^3 == 0 {
		if seg == SS || seg == CS {
			gp("%s: null selector", segNames[seg])
		}
		c.Segs[seg] = Segment{Selector: selector, unusable: true}
		return
	}

	d := c.descriptor(selector)
	switch seg {
	case CS:
		if !d.Executable() {
			gp("CS: selector %#x is not a code segment", selector)
		}
	case SS:
		if !d.Writable() {
			gp("SS: selector %#x is not a writable data segment", selector)
		}
	default:
		if d.Executable() && d.Access&gdt.AccessRW == 0 {
			gp("%s: selector %#x is execute-only", segNames[seg], selector)
		}
	}
	if !d.Present() {
		vector := uint8(interrupts.IntSegmentNotPresent)
		if seg == SS {
			vector = interrupts.IntStack
		}
		panic(interrupts.Trap{Vector: vector, Fault: true,
			Msg: fmt.Sprintf("%s: selector %#x not present", segNames[seg], selector)})
	}

	c.Segs[seg] = Segment{
		Selector: selector,
		Base:     d.Base,
		Limit:    d.ByteLimit(),
		Access:   d.Access,
		Big:      d.Big(),
	}
}

// descriptor reads the GDT entry a selector refers to.
func (c *CPU) descriptor(selector uint16) gdt.Descriptor {
	if selector&4 != 0 {
		gp("selector %#x refers to a local descriptor table", selector)
	}
	off := uint32(selector &^ 7)
	if off+gdt.DescriptorSize-1 > uint32(c.GDTR.Limit) {
		gp("selector %#x beyond GDT limit %#x", selector, c.GDTR.Limit)
	}
	var raw [gdt.DescriptorSize]byte
	for i := range raw {
		raw[i] = c.mem.ReadByte(c.GDTR.Base + off + uint32(i))
	}
	d, _ := gdt.Decode(raw[:])
	if !d.IsNull() && d.Access&gdt.AccessSegment == 0 {
		gp("selector %#x is a system descriptor", selector)
	}
	return d
}

// farJump reloads CS and EIP.
func (c *CPU) farJump(selector uint16, offset uint32) {
	c.loadSegment(CS, selector)
	if !c.CR0.Protected() {
		offset &= 0xFFFF
	}
	c.EIP = offset
	c.pendingCS = false
}
