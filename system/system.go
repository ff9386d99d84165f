// Package system puts the emulated PC together: memory behind the A20 gate,
// the processor, the firmware services, the disk controller and the
// teletype screen. It boots the first sector of the boot drive the way the
// firmware does and runs it until the processor parks or shuts down.
package system

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"bootsector/bios"
	"bootsector/bootimg"
	"bootsector/console"
	"bootsector/cpu"
	"bootsector/disk"
	"bootsector/layout"
	"bootsector/memory"
	"bootsector/teletype"
)

// SP handed over by the firmware, below the load address
const firmwareStack = 0x7C00

// ErrStepLimit is returned by Run when the machine is still running after
// the step limit.
var ErrStepLimit = errors.New("system: step limit reached")

// Options configure a machine.
type Options struct {
	Layout layout.Layout

	// Console receives status messages, Mirror a copy of the teletype
	// output. Both may be nil.
	Console console.Console
	Mirror  io.Writer
	Log     *log.Logger

	// Trace logs every instruction, History keeps the last n.
	Trace   bool
	History int

	// Lenient lets instructions run between setting CR0.PE and the far
	// jump instead of stopping the machine.
	Lenient bool
}

// System definition.
type System struct {
	CPU      *cpu.CPU
	Memory   *memory.Memory
	Firmware *bios.Firmware
	Disks    *disk.Controller
	TTY      *teletype.Teletype
	Layout   layout.Layout

	console console.Console
	log     *log.Logger

	// held while the processor steps, so views can read a consistent state
	mu    sync.Mutex
	steps uint64
}

// InitializeSystem builds the machine. Nothing runs until Boot.
func InitializeSystem(o Options) *System {
	sys := new(System)
	sys.Layout = o.Layout
	sys.log = o.Log
	sys.console = o.Console
	if sys.console == nil {
		sys.console = console.NewSimple(io.Discard)
	}

	sys.Memory = memory.New(o.Layout.A20, o.Log)
	sys.TTY = teletype.New(o.Mirror)
	sys.Disks = disk.New(o.Log)
	sys.Firmware = bios.New(sys.Memory, sys.TTY, sys.Disks, o.Log)

	sys.CPU = cpu.New(sys.Memory, sys.Firmware, o.Log)
	sys.CPU.Strict = !o.Lenient
	sys.CPU.SetTrace(o.Trace)
	if o.History > 0 {
		sys.CPU.SetHistory(o.History)
	}
	return sys
}

// AttachImage attaches the disk image at path as the boot drive.
func (sys *System) AttachImage(path string) error {
	return sys.Disks.Attach(sys.Layout.BootDrive, path)
}

// AttachBytes attaches an in-memory disk image as the boot drive.
func (sys *System) AttachBytes(img []byte) error {
	return sys.Disks.AttachReader(sys.Layout.BootDrive, bytes.NewReader(img), int64(len(img)))
}

// Boot installs the firmware, reads the first sector of the boot drive to
// the load address and points the processor at it with DL holding the drive
// number.
func (sys *System) Boot() error {
	sys.mu.Lock()
	defer sys.mu.Unlock()

	if err := sys.Layout.Validate(); err != nil {
		return err
	}
	sys.Firmware.Install()

	drive := sys.Layout.BootDrive
	sector, err := sys.Disks.ReadSectors(drive, 1, 0, 0, 1)
	if err != nil {
		return fmt.Errorf("system: read boot sector of drive %#02x: %w", drive, err)
	}
	if err := bootimg.Validate(sector); err != nil {
		return err
	}
	if err := sys.Memory.Load(sys.Layout.LoadAddress, sector); err != nil {
		return err
	}

	sys.CPU.Reset()
	sys.CPU.EIP = sys.Layout.LoadAddress
	sys.CPU.SetReg16(cpu.ESP, firmwareStack)
	sys.CPU.SetReg8(cpu.DL, drive)
	sys.CPU.Flags.SetI(true)
	sys.steps = 0

	_ = sys.console.WriteConsole(fmt.Sprintf("Booting from drive %#02x at 0000:%04x\n", drive, sys.Layout.LoadAddress))
	return nil
}

// Run executes until the processor idles or shuts down. It stops with
// ErrStepLimit after maxSteps instructions, zero meaning no limit.
func (sys *System) Run(maxSteps uint64) error {
	for sys.running() {
		if maxSteps > 0 && sys.steps >= maxSteps {
			_ = sys.console.WriteConsole(fmt.Sprintf("Stopped after %d steps\n", sys.steps))
			return fmt.Errorf("%w: %d", ErrStepLimit, maxSteps)
		}
		sys.step()
	}

	switch sys.CPU.State {
	case cpu.Shutdown:
		_ = sys.console.WriteConsole(fmt.Sprintf("Shutdown after %d steps: %v\n", sys.steps, sys.CPU.Err))
		return sys.CPU.Err
	default:
		_ = sys.console.WriteConsole(fmt.Sprintf("Idle after %d steps, %s mode\n", sys.steps, sys.CPU.Mode()))
		return nil
	}
}

func (sys *System) running() bool {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	return sys.CPU.State == cpu.Running
}

// single cpu step:
func (sys *System) step() {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	sys.CPU.Step()
	sys.steps++
}

// Registers formats the processor registers.
func (sys *System) Registers() string {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	return sys.CPU.DumpRegisters()
}

// Close detaches every drive.
func (sys *System) Close() error {
	return sys.Disks.Close()
}
