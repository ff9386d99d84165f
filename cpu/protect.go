package cpu

import (
	"errors"
	"fmt"

	"bootsector/flags"
	"bootsector/gdt"
	"bootsector/interrupts"
	"bootsector/protect"
)

// ErrFault is returned by the Processor methods for a real mode exception.
var ErrFault = errors.New("cpu: processor fault")

var _ protect.Processor = (*CPU)(nil)

func gdtPointer(limit uint16, base uint32) gdt.Pointer {
	return gdt.Pointer{Limit: limit, Base: base}
}

// setCR0 writes the control register. Setting PE leaves CS holding its real
// mode cache until the next far jump.
func (c *CPU) setCR0(v uint32) {
	next := flags.CR0(v) | flags.ET
	if next&flags.PG != 0 {
		gp("paging is not supported")
	}
	prev := c.CR0
	c.CR0 = next
	switch {
	case !prev.Protected() && next.Protected():
		c.pendingCS = true
		if c.log != nil {
			c.log.Printf("protection enabled at %04x:%04x, CS not yet reloaded\n", c.Segs[CS].Selector, c.startEIP)
		}
	case prev.Protected() && !next.Protected():
		c.pendingCS = false
	}
}

// guard turns a trap raised by a Processor method into an error.
func (c *CPU) guard(err *error) {
	r := recover()
	if r == nil {
		return
	}
	t, ok := r.(interrupts.Trap)
	if !ok {
		panic(r)
	}
	if c.CR0.Protected() {
		c.shutdown(fmt.Errorf("%w: %s %s", ErrTripleFault, interrupts.Name(t.Vector), t.Msg))
		*err = c.Err
		return
	}
	*err = fmt.Errorf("%w: %s %s", ErrFault, interrupts.Name(t.Vector), t.Msg)
}

// DisableInterrupts clears IF.
func (c *CPU) DisableInterrupts() {
	c.Flags.SetI(false)
}

// LoadDescriptorTablePointer loads GDTR.
func (c *CPU) LoadDescriptorTablePointer(p gdt.Pointer) error {
	if (uint32(p.Limit)+1)%gdt.DescriptorSize != 0 {
		return fmt.Errorf("cpu: GDT limit %#x is not a whole number of descriptors", p.Limit)
	}
	c.GDTR = p
	return nil
}

// EnterProtectedMode sets CR0.PE and far jumps to selector:entry with no
// instruction in between.
func (c *CPU) EnterProtectedMode(selector uint16, entry uint32) (err error) {
	defer c.guard(&err)
	c.setCR0(uint32(c.CR0.WithProtection()))
	c.farJump(selector, entry)
	return nil
}

// LoadDataSegments loads selector into DS, ES, FS, GS and SS.
func (c *CPU) LoadDataSegments(selector uint16) (err error) {
	defer c.guard(&err)
	for _, s := range []int{DS, ES, FS, GS, SS} {
		c.loadSegment(s, selector)
	}
	return nil
}

// SetStackPointer sets ESP.
func (c *CPU) SetStackPointer(sp uint32) {
	c.Registers[ESP] = sp
}

// Mode reports whether CR0.PE is set.
func (c *CPU) Mode() protect.Mode {
	if c.CR0.Protected() {
		return protect.ProtectedMode
	}
	return protect.RealMode
}
