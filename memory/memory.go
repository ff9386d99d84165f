package memory

import (
	"errors"
	"fmt"
	"log"
)

// memory related constants
const (
	// Size of emulated physical memory
	Size = 4 * 1024 * 1024

	// a20Bit is the twenty-first address line
	a20Bit = 1 << 20

	// RealModeTop is the first byte real mode segment:offset cannot reach
	// without the A20 line (0xFFFF:0x0010).
	RealModeTop = 0x100000
)

// ErrOutOfRange is returned by Load for images that do not fit.
var ErrOutOfRange = errors.New("memory: address out of range")

// Manager is the linear memory interface the processor sees.
type Manager interface {
	ReadByte(addr uint32) byte
	ReadWord(addr uint32) uint16
	ReadDword(addr uint32) uint32
	WriteByte(addr uint32, data byte)
	WriteWord(addr uint32, data uint16)
	WriteDword(addr uint32, data uint32)
}

// Memory is flat physical memory behind an A20 gate.
type Memory struct {
	data [Size]byte

	// A20 gate state. Disabled, bit 20 of every address is forced to zero,
	// so 0x100000 aliases 0x000000.
	A20 bool

	log *log.Logger
}

// New returns zeroed memory. log may be nil.
func New(a20 bool, log *log.Logger) *Memory {
	return &Memory{A20: a20, log: log}
}

// translate applies the A20 gate and wraps at the physical size.
func (m *Memory) translate(addr uint32) uint32 {
	if !m.A20 && addr&a20Bit != 0 {
		if m.log != nil {
			m.log.Printf("A20 disabled: access to %#08x aliases %#08x\n", addr, addr&^a20Bit)
		}
		addr &^= a20Bit
	}
	return addr % Size
}

// ReadByte returns the byte at the linear address.
func (m *Memory) ReadByte(addr uint32) byte {
	return m.data[m.translate(addr)]
}

// ReadWord returns the little endian word at addr.
func (m *Memory) ReadWord(addr uint32) uint16 {
	return uint16(m.ReadByte(addr)) | uint16(m.ReadByte(addr+1))<<8
}

// ReadDword returns the little endian double word at addr.
func (m *Memory) ReadDword(addr uint32) uint32 {
	return uint32(m.ReadWord(addr)) | uint32(m.ReadWord(addr+2))<<16
}

// WriteByte stores a byte.
func (m *Memory) WriteByte(addr uint32, data byte) {
	m.data[m.translate(addr)] = data
}

// WriteWord stores a little endian word.
func (m *Memory) WriteWord(addr uint32, data uint16) {
	m.WriteByte(addr, byte(data))
	m.WriteByte(addr+1, byte(data>>8))
}

// WriteDword stores a little endian double word.
func (m *Memory) WriteDword(addr uint32, data uint32) {
	m.WriteWord(addr, uint16(data))
	m.WriteWord(addr+2, uint16(data>>16))
}

// Load copies b to physical address addr, bypassing the A20 gate as a DMA
// transfer would.
func (m *Memory) Load(addr uint32, b []byte) error {
	if uint64(addr)+uint64(len(b)) > Size {
		return fmt.Errorf("%w: %#x+%d", ErrOutOfRange, addr, len(b))
	}
	copy(m.data[addr:], b)
	return nil
}

// Slice returns a copy of n bytes starting at addr.
func (m *Memory) Slice(addr uint32, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = m.ReadByte(addr + uint32(i))
	}
	return out
}

// CString returns bytes from addr up to, not including, the first zero.
func (m *Memory) CString(addr uint32, max int) string {
	var out []byte
	for i := 0; i < max; i++ {
		b := m.ReadByte(addr + uint32(i))
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out)
}
