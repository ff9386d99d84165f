// Package layout holds the construction-time memory map of the boot sector:
// where it is loaded, which segment/origin pair its addresses are computed
// against, where the stacks and the sector buffer live.
//
// A layout never changes at run time. Validate checks the invariants that the
// boot code itself has no way to check.
package layout

import (
	"errors"
	"fmt"
)

const (
	// SectorSize is the size of one disk sector and of the boot image.
	SectorSize = 512

	// DefaultLoadAddress is where the firmware places the boot sector.
	DefaultLoadAddress = 0x7C00

	// DefaultProtectedStack is base and initial top of the 32 bit stack.
	DefaultProtectedStack = 0x00200000

	// DefaultStackSize is the room reserved below each stack top.
	DefaultStackSize = 0x400

	// conventional memory ends where video memory starts
	conventionalTop = 0xA0000

	// interrupt vector table and BIOS data area
	lowAreaEnd = 0x500

	segmentWindow = 0x10000
)

var (
	// ErrSegmentMismatch is returned when Segment:Origin does not address the load address.
	ErrSegmentMismatch = errors.New("layout: segment and origin do not match load address")
	// ErrOverlap is returned when two regions share bytes.
	ErrOverlap = errors.New("layout: regions overlap")
	// ErrRange is returned for regions that real mode code cannot reach.
	ErrRange = errors.New("layout: region out of range")
	// ErrDMABoundary is returned when the sector buffer crosses a 64 KiB boundary.
	ErrDMABoundary = errors.New("layout: sector buffer crosses a 64 KiB boundary")
)

// Layout describes the fixed memory map.
type Layout struct {
	// LoadAddress is the linear address the firmware copies the image to.
	LoadAddress uint32

	// Segment is loaded into DS, ES and SS by the bootstrap. Origin is the
	// offset of the first image byte within Segment.
	Segment uint16
	Origin  uint16

	// StackTop is the linear address of the real mode stack top.
	StackTop  uint32
	StackSize uint32

	// Buffer is the linear address of the sector buffer.
	Buffer        uint32
	BufferSectors uint8

	// ProtectedStack is the 32 bit stack top after the mode switch.
	ProtectedStack uint32

	// BootDrive is the drive number the firmware hands over in DL.
	BootDrive uint8

	// A20 enables the twenty-first address line in the emulator. The boot
	// code never touches it.
	A20 bool
}

// Flat is the layout with all segments zero and absolute offsets from 0x7C00.
func Flat() Layout {
	return Layout{
		LoadAddress:    DefaultLoadAddress,
		Segment:        0,
		Origin:         DefaultLoadAddress,
		StackTop:       DefaultLoadAddress,
		StackSize:      DefaultStackSize,
		Buffer:         DefaultLoadAddress + SectorSize,
		BufferSectors:  1,
		ProtectedStack: DefaultProtectedStack,
	}
}

// Segmented is the layout with segment 0x07C0 and offsets relative to it.
func Segmented() Layout {
	return Layout{
		LoadAddress:    DefaultLoadAddress,
		Segment:        DefaultLoadAddress >> 4,
		Origin:         0,
		StackTop:       DefaultLoadAddress + segmentWindow,
		StackSize:      DefaultStackSize,
		Buffer:         DefaultLoadAddress + SectorSize,
		BufferSectors:  1,
		ProtectedStack: DefaultProtectedStack,
	}
}

// ByName returns one of the stock layouts.
func ByName(name string) (Layout, error) {
	switch name {
	case "flat", "":
		return Flat(), nil
	case "segmented":
		return Segmented(), nil
	}
	return Layout{}, fmt.Errorf("layout: unknown layout %q", name)
}

// Base returns the linear base of Segment.
func (l Layout) Base() uint32 {
	return uint32(l.Segment) << 4
}

// Offset converts a linear address into an offset within Segment.
func (l Layout) Offset(linear uint32) uint16 {
	return uint16(linear - l.Base())
}

// StackPointer is the value loaded into SP. A top at the very end of the
// segment window wraps to zero, which the first push turns into 0xFFFE.
func (l Layout) StackPointer() uint16 {
	return uint16(l.StackTop - l.Base())
}

// BufferSize is the number of bytes reserved for the sector buffer.
func (l Layout) BufferSize() uint32 {
	return uint32(l.BufferSectors) * SectorSize
}

// Region is a half-open range of linear addresses.
type Region struct {
	Name       string
	Start, End uint32
}

// Overlaps reports whether r and o share at least one byte.
func (r Region) Overlaps(o Region) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r Region) String() string {
	return fmt.Sprintf("%s [%#x, %#x)", r.Name, r.Start, r.End)
}

// Regions lists every region the layout reserves.
func (l Layout) Regions() []Region {
	return []Region{
		{"vectors", 0, lowAreaEnd},
		{"image", l.LoadAddress, l.LoadAddress + SectorSize},
		{"stack", l.StackTop - l.StackSize, l.StackTop},
		{"buffer", l.Buffer, l.Buffer + l.BufferSize()},
		{"protected stack", l.ProtectedStack - l.StackSize, l.ProtectedStack},
	}
}

// Validate checks the construction-time invariants of the layout.
func (l Layout) Validate() error {
	if l.Base()+uint32(l.Origin) != l.LoadAddress {
		return fmt.Errorf("%w: %04x:%04x is %#x, image at %#x",
			ErrSegmentMismatch, l.Segment, l.Origin, l.Base()+uint32(l.Origin), l.LoadAddress)
	}
	if l.BufferSectors == 0 {
		return fmt.Errorf("%w: empty sector buffer", ErrRange)
	}
	if l.StackSize == 0 || l.StackSize > l.StackTop {
		return fmt.Errorf("%w: stack size %#x", ErrRange, l.StackSize)
	}

	// every real mode region is reached through Segment
	for _, r := range l.Regions()[1:4] {
		if r.End > conventionalTop {
			return fmt.Errorf("%w: %s ends above conventional memory", ErrRange, r)
		}
		if r.Start < l.Base() || r.End-l.Base() > segmentWindow {
			return fmt.Errorf("%w: %s not addressable from segment %#04x", ErrRange, r, l.Segment)
		}
	}

	regions := l.Regions()
	for i := range regions {
		for j := i + 1; j < len(regions); j++ {
			if regions[i].Overlaps(regions[j]) {
				return fmt.Errorf("%w: %s and %s", ErrOverlap, regions[i], regions[j])
			}
		}
	}

	if l.Buffer>>16 != (l.Buffer+l.BufferSize()-1)>>16 {
		return fmt.Errorf("%w: %s", ErrDMABoundary, regions[3])
	}
	return nil
}
