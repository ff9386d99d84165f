package bios

import (
	"fmt"

	"bootsector/memory"
)

// VectorSize is the size of one vector table entry.
const VectorSize = 4

// Vector is a real mode handler address.
type Vector struct {
	Offset  uint16
	Segment uint16
}

// Linear returns the physical address of the handler.
func (v Vector) Linear() uint32 {
	return uint32(v.Segment)<<4 + uint32(v.Offset)
}

func (v Vector) String() string {
	return fmt.Sprintf("%04x:%04x", v.Segment, v.Offset)
}

// IVT is the interrupt vector table at linear address zero. Entries are
// plain memory: the last write wins and nothing chains to the previous
// handler.
type IVT struct {
	mem memory.Manager
}

// NewIVT returns the table in mem.
func NewIVT(mem memory.Manager) *IVT {
	return &IVT{mem: mem}
}

// Install points vector n at v.
func (t *IVT) Install(n uint8, v Vector) {
	at := uint32(n) * VectorSize
	t.mem.WriteWord(at, v.Offset)
	t.mem.WriteWord(at+2, v.Segment)
}

// Lookup returns the handler of vector n.
func (t *IVT) Lookup(n uint8) Vector {
	at := uint32(n) * VectorSize
	return Vector{Offset: t.mem.ReadWord(at), Segment: t.mem.ReadWord(at + 2)}
}
