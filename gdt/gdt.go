// Package gdt lays out the Global Descriptor Table used for the switch to
// protected mode: a null descriptor followed by flat code and data segments.
//
// http://www.osdever.net/bkerndev/Docs/gdt.htm
package gdt

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// DescriptorSize is the size of one packed descriptor in bytes.
const DescriptorSize = 8

// PointerSize is the size of the packed pointer record read by lgdt.
const PointerSize = 6

// Selectors are index*8 into the table, TI=0, RPL=0.
const (
	CodeSelector = 0x08
	DataSelector = 0x10
)

// Access bytes.
const (
	AccessPresent    = 0x80
	AccessSegment    = 0x10 // S: code/data rather than system
	AccessExecutable = 0x08
	AccessRW         = 0x02 // readable code / writable data
	AccessAccessed   = 0x01

	// AccessCode is present, ring 0, executable, readable.
	AccessCode = AccessPresent | AccessSegment | AccessExecutable | AccessRW
	// AccessData is present, ring 0, writable.
	AccessData = AccessPresent | AccessSegment | AccessRW
)

// Flags nibble (upper half of byte 6).
const (
	FlagGranularity = 0x8 // limit counts 4 KiB pages
	FlagSize32      = 0x4 // D/B: 32 bit default operand size

	// FlagsFlat is G=1, D/B=1.
	FlagsFlat = FlagGranularity | FlagSize32
)

// MaxLimit is the largest 20 bit limit.
const MaxLimit = 0xFFFFF

var (
	// ErrShortBuffer is returned when decoding less than a full descriptor.
	ErrShortBuffer = errors.New("gdt: short buffer")
)

// Descriptor is a single segment descriptor.
type Descriptor struct {
	Base   uint32
	Limit  uint32 // 20 bits
	Access uint8
	Flags  uint8 // 4 bits
}

// Table is the descriptor table. Index 0 is the null descriptor.
type Table [3]Descriptor

// Flat returns the fixed table: null, flat code, flat data.
func Flat() Table {
	return Table{
		{},
		{Base: 0, Limit: MaxLimit, Access: AccessCode, Flags: FlagsFlat},
		{Base: 0, Limit: MaxLimit, Access: AccessData, Flags: FlagsFlat},
	}
}

// Size returns the packed size of the table in bytes.
func (t Table) Size() int {
	return len(t) * DescriptorSize
}

// Bytes returns the table packed with no padding, as the processor reads it.
func (t Table) Bytes() []byte {
	out := make([]byte, 0, t.Size())
	for _, d := range t {
		b := d.Encode()
		out = append(out, b[:]...)
	}
	return out
}

// Encode packs the descriptor into its 8 byte hardware layout.
func (d Descriptor) Encode() [DescriptorSize]byte {
	var b [DescriptorSize]byte
	binary.LittleEndian.PutUint16(b[0:], uint16(d.Limit&0xFFFF))
	binary.LittleEndian.PutUint16(b[2:], uint16(d.Base&0xFFFF))
	b[4] = uint8(d.Base >> 16)
	b[5] = d.Access
	b[6] = uint8((d.Limit>>16)&0x0F) | (d.Flags&0x0F)<<4
	b[7] = uint8(d.Base >> 24)
	return b
}

// Decode parses one packed descriptor.
func Decode(b []byte) (Descriptor, error) {
	if len(b) < DescriptorSize {
		return Descriptor{}, ErrShortBuffer
	}
	return Descriptor{
		Base: uint32(binary.LittleEndian.Uint16(b[2:])) |
			uint32(b[4])<<16 | uint32(b[7])<<24,
		Limit:  uint32(binary.LittleEndian.Uint16(b[0:])) | uint32(b[6]&0x0F)<<16,
		Access: b[5],
		Flags:  b[6] >> 4,
	}, nil
}

// IsNull reports whether every field is zero.
func (d Descriptor) IsNull() bool {
	return d == Descriptor{}
}

// Present reports the P bit.
func (d Descriptor) Present() bool {
	return d.Access&AccessPresent != 0
}

// Executable reports a code segment.
func (d Descriptor) Executable() bool {
	return d.Access&AccessSegment != 0 && d.Access&AccessExecutable != 0
}

// Writable reports a writable data segment.
func (d Descriptor) Writable() bool {
	return d.Access&AccessSegment != 0 && d.Access&AccessExecutable == 0 && d.Access&AccessRW != 0
}

// Big reports the D/B bit: 32 bit code or stack.
func (d Descriptor) Big() bool {
	return d.Flags&FlagSize32 != 0
}

// DPL returns the descriptor privilege level.
func (d Descriptor) DPL() uint8 {
	return (d.Access >> 5) & 3
}

// ByteLimit returns the effective limit in bytes, scaling by 4 KiB when G is set.
func (d Descriptor) ByteLimit() uint32 {
	if d.Flags&FlagGranularity != 0 {
		return d.Limit<<12 | 0xFFF
	}
	return d.Limit
}

// Pointer is the 6 byte record loaded by lgdt.
type Pointer struct {
	Limit uint16 // table size in bytes minus one
	Base  uint32 // linear address of the table
}

// PointerAt returns the pointer for t placed at linear address base.
func (t Table) PointerAt(base uint32) Pointer {
	return Pointer{Limit: uint16(t.Size() - 1), Base: base}
}

// Bytes packs the pointer.
func (p Pointer) Bytes() [PointerSize]byte {
	var b [PointerSize]byte
	binary.LittleEndian.PutUint16(b[0:], p.Limit)
	binary.LittleEndian.PutUint32(b[2:], p.Base)
	return b
}

// DecodePointer parses a packed pointer.
func DecodePointer(b []byte) (Pointer, error) {
	if len(b) < PointerSize {
		return Pointer{}, ErrShortBuffer
	}
	return Pointer{
		Limit: binary.LittleEndian.Uint16(b[0:]),
		Base:  binary.LittleEndian.Uint32(b[2:]),
	}, nil
}

// Index returns the table index a selector refers to.
func Index(selector uint16) int {
	return int(selector >> 3)
}

// String formats a descriptor for inspection output.
func (d Descriptor) String() string {
	if d.IsNull() {
		return "null"
	}
	kind := "data"
	if d.Executable() {
		kind = "code"
	}
	return fmt.Sprintf("%s base=%#08x limit=%#05x (%#x bytes) access=%#02x flags=%#x",
		kind, d.Base, d.Limit, uint64(d.ByteLimit())+1, d.Access, d.Flags)
}
