// Package bootimg builds 512 byte boot sectors for a layout.
//
// Every variant starts with the same bootstrap: normalize CS, mask
// interrupts, load DS, ES and SS with the layout segment, set SP below the
// image, unmask interrupts and remember the boot drive. What follows depends
// on the variant:
//
//	hello      print a banner and idle
//	disk       read sector 2 into the buffer and print it
//	vector     patch vector 0, trigger it with int 0 and print around it
//	protected  build the flat GDT, switch to 32 bit protected mode and idle
package bootimg

import (
	"bytes"
	"errors"
	"fmt"

	"bootsector/gdt"
	"bootsector/layout"
)

// Size of a boot sector.
const Size = layout.SectorSize

// Signature is stored in the last two bytes.
var Signature = [2]byte{0x55, 0xAA}

var (
	// ErrSignature is returned for images without the boot signature.
	ErrSignature = errors.New("bootimg: missing 0x55 0xaa signature")
	// ErrSize is returned for images that are not exactly one sector.
	ErrSize = errors.New("bootimg: image is not 512 bytes")
	// ErrTooLarge is returned when code and data do not fit before the signature.
	ErrTooLarge = errors.New("bootimg: code does not fit in the boot sector")
	// ErrUndefinedLabel is returned for references to labels never defined.
	ErrUndefinedLabel = errors.New("bootimg: undefined label")
	// ErrJumpRange is returned for references that do not fit their field.
	ErrJumpRange = errors.New("bootimg: reference out of range")
	// ErrVariant is returned for unknown variant names.
	ErrVariant = errors.New("bootimg: unknown variant")
)

// Variant selects what the boot sector does after the bootstrap.
type Variant string

// Variants:
const (
	Hello     Variant = "hello"
	Disk      Variant = "disk"
	Vector    Variant = "vector"
	Protected Variant = "protected"
)

// Variants lists every variant.
var Variants = []Variant{Hello, Disk, Vector, Protected}

// ParseVariant returns the variant called name.
func ParseVariant(name string) (Variant, error) {
	for _, v := range Variants {
		if string(v) == name {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrVariant, name)
}

// Messages printed by the variants.
const (
	MsgHello     = "Hello"
	MsgLoading   = "Loading sector 2... "
	MsgDiskError = "Disk read error"
	MsgBefore    = "int 0: "
	MsgTag       = "[#DE]"
	MsgAfter     = " returned"
	MsgProtected = "Entering protected mode"
)

// labels every variant exposes
const (
	LabelStart     = "start"
	LabelPrint     = "print"
	LabelBootDrive = "boot_drive"
	LabelHandler   = "divide_handler"
	LabelGDT       = "gdt"
	LabelGDTPtr    = "gdt_ptr"
	LabelEntry32   = "entry32"
	LabelDiskError = "disk_error"
)

// Image is a built boot sector.
type Image struct {
	Variant Variant
	Layout  layout.Layout
	Bytes   []byte

	// Symbols maps labels to linear addresses.
	Symbols map[string]uint32
	// CodeSize is the number of bytes in use before the padding.
	CodeSize int
}

// Build emits the boot sector for v under l.
func Build(v Variant, l layout.Layout) (*Image, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	a := NewAssembler(l.Origin, l.LoadAddress)

	bootstrap(a, l)
	switch v {
	case Hello:
		printText(a, "msg_hello")
		a.Hang()
	case Disk:
		diskVariant(a, l)
	case Vector:
		vectorVariant(a, l)
	case Protected:
		protectedVariant(a, l)
	default:
		return nil, fmt.Errorf("%w: %q", ErrVariant, v)
	}

	// the 32 bit tail and the GDT come last, after shared routines
	if v != Protected {
		printRoutine(a)
	}
	data(a, v)

	code, err := a.Bytes()
	if err != nil {
		return nil, err
	}
	if len(code) > Size-len(Signature) {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(code))
	}

	img := &Image{
		Variant:  v,
		Layout:   l,
		Bytes:    Sign(code),
		Symbols:  make(map[string]uint32),
		CodeSize: len(code),
	}
	for name, pos := range a.Labels() {
		img.Symbols[name] = l.LoadAddress + uint32(pos)
	}
	return img, nil
}

// bootstrap normalizes CS with a far jump to the next instruction, then sets
// up data segments and the stack with interrupts masked.
func bootstrap(a *Assembler, l layout.Layout) {
	a.Label(LabelStart)
	a.JmpFar(l.Segment, l.Origin+5)
	a.Cli()
	if l.Segment == 0 {
		a.Xor16(AX, AX)
	} else {
		a.MovImm16(AX, l.Segment)
	}
	a.MovSeg(DS, AX)
	a.MovSeg(ES, AX)
	a.MovSeg(SS, AX)
	a.MovImm16(SP, l.StackPointer())
	a.Sti()
	a.Cld()
	a.StoreByte(LabelBootDrive, DL)
}

// printText emits mov si,label; call print.
func printText(a *Assembler, label string) {
	a.MovAddr16(SI, label)
	a.Call(LabelPrint)
}

// printRoutine prints the zero terminated string at DS:SI through the
// teletype service, page 0. AX, BX and SI are clobbered.
func printRoutine(a *Assembler) {
	a.Label(LabelPrint)
	a.MovImm8(AH, 0x0E)
	a.MovImm8(BH, 0)
	a.Label("print_loop")
	a.Lodsb()
	a.Or8(AL, AL)
	a.Jz("print_done")
	a.Int(0x10)
	a.Jmp("print_loop")
	a.Label("print_done")
	a.Ret()
}

// diskVariant reads BufferSectors sectors from cylinder 0, head 0, sector 2
// of the boot drive into the buffer and prints them as text. A failed read
// prints a message and idles, without retrying.
func diskVariant(a *Assembler, l layout.Layout) {
	printText(a, "msg_loading")
	a.MovImm8(AH, 0x02)
	a.MovImm8(AL, l.BufferSectors)
	a.MovImm8(CH, 0)
	a.MovImm8(CL, 2)
	a.MovImm8(DH, 0)
	a.LoadByte(DL, LabelBootDrive)
	a.MovImm16(BX, l.Offset(l.Buffer))
	a.Int(0x13)
	a.Jc(LabelDiskError)
	a.MovImm16(SI, l.Offset(l.Buffer))
	a.Call(LabelPrint)
	a.Hang()

	a.Label(LabelDiskError)
	printText(a, "msg_disk_error")
	a.Hang()
}

// vectorVariant installs a divide error handler in the vector table, which
// lives in segment zero whatever the layout, then raises vector 0.
func vectorVariant(a *Assembler, l layout.Layout) {
	a.Cli()
	a.PushSeg(ES)
	a.Xor16(AX, AX)
	a.MovSeg(ES, AX)
	a.MovMemAddr16(ES, 0, LabelHandler)
	a.MovMemImm16(ES, 2, l.Segment)
	a.PopSeg(ES)
	a.Sti()

	printText(a, "msg_before")
	a.Int(0)
	printText(a, "msg_after")
	a.Hang()

	a.Label(LabelHandler)
	a.Push(AX)
	a.Push(BX)
	a.Push(SI)
	printText(a, "msg_tag")
	a.Pop(SI)
	a.Pop(BX)
	a.Pop(AX)
	a.Iret()
}

// protectedVariant prints a banner, then loads GDTR, sets CR0.PE and far
// jumps through the code selector in the very next instruction. The 32 bit
// code reloads every data segment register and the stack, then idles.
func protectedVariant(a *Assembler, l layout.Layout) {
	printText(a, "msg_protected")

	a.Cli()
	a.Lgdt(LabelGDTPtr)
	a.MovEAXCR0()
	a.OrEAXImm8(1)
	a.MovCR0EAX()
	a.JmpFarLinear(gdt.CodeSelector, LabelEntry32, l.LoadAddress+Size > 0xFFFF)

	// the print routine is real mode code: keep it out of the 32 bit stream
	printRoutine(a)

	a.Bits32()
	a.Label(LabelEntry32)
	a.MovImm16(AX, gdt.DataSelector)
	for _, s := range []int{DS, ES, SS, FS, GS} {
		a.MovSeg(s, AX)
	}
	a.MovImm32(BP, l.ProtectedStack)
	a.MovRR32(SP, BP)
	a.Hang()
}

// data emits the strings and tables the variant refers to.
func data(a *Assembler, v Variant) {
	a.Label(LabelBootDrive)
	a.DB(0)
	switch v {
	case Hello:
		a.Label("msg_hello")
		a.String(MsgHello)
	case Disk:
		a.Label("msg_loading")
		a.String(MsgLoading)
		a.Label("msg_disk_error")
		a.String(MsgDiskError)
	case Vector:
		a.Label("msg_before")
		a.String(MsgBefore)
		a.Label("msg_tag")
		a.String(MsgTag)
		a.Label("msg_after")
		a.String(MsgAfter)
	case Protected:
		a.Label("msg_protected")
		a.String(MsgProtected)
		a.Align(gdt.DescriptorSize)
		table := gdt.Flat()
		a.Label(LabelGDT)
		a.DB(table.Bytes()...)
		a.Label(LabelGDTPtr)
		a.DW(uint16(table.Size() - 1))
		a.LinearOf(LabelGDT)
	}
}

// Sign pads code to a full sector and stores the signature.
func Sign(code []byte) []byte {
	img := make([]byte, Size)
	copy(img, code)
	img[Size-2] = Signature[0]
	img[Size-1] = Signature[1]
	return img
}

// Validate checks size and signature of a boot sector.
func Validate(img []byte) error {
	if len(img) != Size {
		return fmt.Errorf("%w: %d bytes", ErrSize, len(img))
	}
	if img[Size-2] != Signature[0] || img[Size-1] != Signature[1] {
		return fmt.Errorf("%w: found %#02x %#02x", ErrSignature, img[Size-2], img[Size-1])
	}
	return nil
}

// FindGDT locates a flat three entry descriptor table in img: a null
// descriptor followed by a code and a data descriptor.
func FindGDT(img []byte) (int, gdt.Table, bool) {
	var zero [gdt.DescriptorSize]byte
	n := 3 * gdt.DescriptorSize
	for off := 0; off+n <= len(img); off++ {
		if !bytes.Equal(img[off:off+gdt.DescriptorSize], zero[:]) {
			continue
		}
		var t gdt.Table
		ok := true
		for i := range t {
			d, err := gdt.Decode(img[off+i*gdt.DescriptorSize:])
			if err != nil {
				ok = false
				break
			}
			t[i] = d
		}
		if ok && t[1].Present() && t[1].Executable() && t[2].Present() && t[2].Writable() {
			return off, t, true
		}
	}
	return 0, gdt.Table{}, false
}

// Payload returns the sector 2 contents for the disk variant: text, zero
// terminated, padded to a sector.
func Payload(text string) []byte {
	p := make([]byte, Size)
	copy(p, text)
	if len(text) >= Size {
		p[Size-1] = 0
	}
	return p
}
