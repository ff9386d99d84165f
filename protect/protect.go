// Package protect drives the switch from real mode to 32 bit protected mode.
//
// The switch is a two state machine, RealMode and ProtectedMode, and the
// second state is terminal. Setting the protection enable bit and reloading
// CS with a far jump are one operation on the Processor interface, so a
// caller can never execute anything in between.
package protect

import (
	"errors"
	"fmt"

	"bootsector/gdt"
)

// Mode is the processor operating mode.
type Mode int

const (
	// RealMode is the 16 bit, firmware mediated power-on mode.
	RealMode Mode = iota
	// ProtectedMode is 32 bit, descriptor based addressing.
	ProtectedMode
)

func (m Mode) String() string {
	switch m {
	case RealMode:
		return "real"
	case ProtectedMode:
		return "protected"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

var (
	// ErrAlreadyProtected is returned when the switch is attempted twice.
	ErrAlreadyProtected = errors.New("protect: processor already in protected mode")
	// ErrSelector is returned for selectors that do not index a usable descriptor.
	ErrSelector = errors.New("protect: bad selector")
)

// Processor is the subset of processor state the switch manipulates.
type Processor interface {
	// DisableInterrupts clears IF. Interrupts stay masked afterwards, there is
	// no interrupt descriptor table.
	DisableInterrupts()

	// LoadDescriptorTablePointer loads GDTR.
	LoadDescriptorTablePointer(p gdt.Pointer) error

	// EnterProtectedMode sets CR0.PE, keeping every other bit, and
	// immediately far jumps to selector:entry.
	EnterProtectedMode(selector uint16, entry uint32) error

	// LoadDataSegments loads DS, ES, SS, FS and GS with selector.
	LoadDataSegments(selector uint16) error

	// SetStackPointer loads ESP.
	SetStackPointer(sp uint32)

	// Mode reports the current operating mode.
	Mode() Mode
}

// Sequencer holds the fixed parameters of the switch.
type Sequencer struct {
	Pointer      gdt.Pointer
	CodeSelector uint16
	DataSelector uint16
	Entry        uint32
	Stack        uint32
}

// New returns a sequencer for the flat table placed at tableBase.
func New(tableBase, entry, stack uint32) *Sequencer {
	return &Sequencer{
		Pointer:      gdt.Flat().PointerAt(tableBase),
		CodeSelector: gdt.CodeSelector,
		DataSelector: gdt.DataSelector,
		Entry:        entry,
		Stack:        stack,
	}
}

// Run performs the switch on p. On return p is in ProtectedMode with every
// segment register reloaded and the 32 bit stack in place.
func (s *Sequencer) Run(p Processor) error {
	if p.Mode() == ProtectedMode {
		return ErrAlreadyProtected
	}
	if s.CodeSelector&7 != 0 || s.DataSelector&7 != 0 {
		return fmt.Errorf("%w: code %#x data %#x", ErrSelector, s.CodeSelector, s.DataSelector)
	}
	if uint32(s.CodeSelector)+gdt.DescriptorSize-1 > uint32(s.Pointer.Limit) ||
		uint32(s.DataSelector)+gdt.DescriptorSize-1 > uint32(s.Pointer.Limit) {
		return fmt.Errorf("%w: beyond table limit %#x", ErrSelector, s.Pointer.Limit)
	}

	p.DisableInterrupts()
	if err := p.LoadDescriptorTablePointer(s.Pointer); err != nil {
		return fmt.Errorf("load descriptor table: %w", err)
	}
	if err := p.EnterProtectedMode(s.CodeSelector, s.Entry); err != nil {
		return fmt.Errorf("enter protected mode: %w", err)
	}
	if err := p.LoadDataSegments(s.DataSelector); err != nil {
		return fmt.Errorf("reload segments: %w", err)
	}
	p.SetStackPointer(s.Stack)
	return nil
}
