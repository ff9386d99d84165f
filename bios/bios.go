// Package bios emulates the real mode firmware services a boot sector uses:
// teletype output (INT 10h) and sector reads (INT 13h).
//
// Every vector initially points at a stub in the ROM segment. The processor
// hands interrupts whose vector still points at a stub to Service; a vector
// that was overwritten is dispatched to the new handler like any other code.
package bios

import (
	"errors"
	"fmt"
	"log"

	"bootsector/cpu"
	"bootsector/disk"
	"bootsector/interrupts"
	"bootsector/memory"
	"bootsector/teletype"
)

// ROM addresses of the service stubs: vector n enters at F000:FF00+n.
const (
	StubSegment = 0xF000
	StubBase    = 0xFF00

	opIRET = 0xCF
)

const intMemorySize = 0x12

// status returned in AH for functions the firmware does not implement
const statusUnsupported = 0x86

// ErrException is returned for processor exceptions that reach the
// firmware: nothing was installed to handle them.
var ErrException = errors.New("bios: unhandled processor exception")

// Firmware type:
type Firmware struct {
	mem   memory.Manager
	ivt   *IVT
	tty   *teletype.Teletype
	disks *disk.Controller
	log   *log.Logger

	// Calls counts serviced calls per vector.
	Calls [256]uint64
}

// New returns firmware writing to tty and reading from disks.
func New(mem memory.Manager, tty *teletype.Teletype, disks *disk.Controller, log *log.Logger) *Firmware {
	return &Firmware{
		mem:   mem,
		ivt:   NewIVT(mem),
		tty:   tty,
		disks: disks,
		log:   log,
	}
}

// IVT returns the vector table the firmware installed.
func (f *Firmware) IVT() *IVT {
	return f.ivt
}

// Install points every vector at its stub and fills the stubs with IRET,
// so a far call into the ROM returns cleanly.
func (f *Firmware) Install() {
	for n := 0; n < 256; n++ {
		v := Vector{Offset: StubBase + uint16(n), Segment: StubSegment}
		f.ivt.Install(uint8(n), v)
		f.mem.WriteByte(v.Linear(), opIRET)
	}
}

// Handles reports whether segment:offset is a service stub.
func (f *Firmware) Handles(segment, offset uint16) bool {
	return segment == StubSegment && offset >= StubBase
}

// Service performs the firmware call for vector. Status is reported in the
// registers and the carry flag, as the real services do.
func (f *Firmware) Service(c *cpu.CPU, vector uint8) error {
	f.Calls[vector]++
	switch vector {
	case interrupts.IntVideo:
		f.video(c)
		return nil
	case interrupts.IntDisk:
		f.diskService(c)
		return nil
	case intMemorySize:
		c.SetReg16(cpu.EAX, 639)
		return nil
	}
	if vector < 0x10 && vector != interrupts.IntBreakpoint {
		return fmt.Errorf("%w: %s (%#02x)", ErrException, interrupts.Name(vector), vector)
	}
	f.unsupported(c, vector)
	return nil
}

func (f *Firmware) unsupported(c *cpu.CPU, vector uint8) {
	if f.log != nil {
		f.log.Printf("bios: int %02xh function %02xh not supported\n", vector, c.Reg8(cpu.AH))
	}
	c.SetReg8(cpu.AH, statusUnsupported)
	c.Flags.SetC(true)
}
