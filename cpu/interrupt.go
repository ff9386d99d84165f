package cpu

import (
	"fmt"
)

// interrupt transfers control to the real mode handler of vector. ret is
// the offset pushed as return address: the next instruction for software
// interrupts and traps, the faulting one for faults.
//
// The handler address is read from the vector table on every delivery, so
// the last write to an entry wins and there is no chaining.
func (c *CPU) interrupt(vector uint8, ret uint32) {
	if c.CR0.Protected() {
		c.shutdown(fmt.Errorf("%w: int %#02x", ErrTripleFault, vector))
		return
	}
	c.InterruptCount[vector]++

	entry := c.IDTR.Base + uint32(vector)*4
	offset := c.mem.ReadWord(entry)
	segment := c.mem.ReadWord(entry + 2)

	if c.firmware != nil && c.firmware.Handles(segment, offset) {
		c.EIP = ret
		if err := c.firmware.Service(c, vector); err != nil {
			c.shutdown(err)
		}
		return
	}

	c.Push(uint32(c.Flags.Get16()), 2)
	c.Push(uint32(c.Segs[CS].Selector), 2)
	c.Push(ret, 2)
	c.Flags.SetI(false)
	c.Flags.SetT(false)
	c.farJump(segment, uint32(offset))
}

// iretOp returns from an interrupt handler.
func (c *CPU) iretOp() {
	size := c.opSize()
	ip := c.Pop(size)
	cs := uint16(c.Pop(size))
	fl := c.Pop(size)
	c.farJump(cs, ip)
	if size == 4 {
		c.Flags.Set(fl)
	} else {
		c.Flags.Set16(uint16(fl))
	}
}
