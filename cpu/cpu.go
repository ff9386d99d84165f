package cpu

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"bootsector/flags"
	"bootsector/gdt"
	"bootsector/interrupts"
	"bootsector/memory"
)

// general purpose register numbers, in instruction encoding order
const (
	EAX = iota
	ECX
	EDX
	EBX
	ESP
	EBP
	ESI
	EDI
)

// byte register numbers
const (
	AL = iota
	CL
	DL
	BL
	AH
	CH
	DH
	BH
)

// segment register numbers
const (
	ES = iota
	CS
	SS
	DS
	FS
	GS
)

var regNames = [...]string{"EAX", "ECX", "EDX", "EBX", "ESP", "EBP", "ESI", "EDI"}
var segNames = [...]string{"ES", "CS", "SS", "DS", "FS", "GS"}

// State of the processor.
type State int

const (
	// Running - fetching and executing instructions
	Running State = iota
	// Idle - parked in a jump-to-self or hlt; nothing will wake it up
	Idle
	// Shutdown - stopped on an unrecoverable condition, see CPU.Err
	Shutdown
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Idle:
		return "idle"
	case Shutdown:
		return "shutdown"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrHybridState is reported when an instruction other than a far jump
	// runs after CR0.PE is set and before CS is reloaded.
	ErrHybridState = errors.New("cpu: instruction executed between enabling protection and the far jump")
	// ErrTripleFault is reported for any exception in protected mode, since no
	// interrupt descriptor table is ever loaded.
	ErrTripleFault = errors.New("cpu: exception in protected mode with no IDT (triple fault)")
)

// Firmware services interrupts whose vector still points into ROM.
type Firmware interface {
	// Handles reports whether segment:offset is a firmware entry point.
	Handles(segment, offset uint16) bool

	// Service performs the call for vector. A non nil error stops the machine.
	Service(c *CPU, vector uint8) error
}

// Segment is a segment register with its hidden descriptor cache.
type Segment struct {
	Selector uint16
	Base     uint32
	Limit    uint32
	Access   uint8
	Big      bool

	// unusable is set by loading a null selector in protected mode
	unusable bool
}

// CPU type:
type CPU struct {
	Registers [8]uint32
	EIP       uint32
	Segs      [6]Segment
	Flags     flags.Flags
	CR0       flags.CR0
	GDTR      gdt.Pointer
	IDTR      gdt.Pointer

	State State
	Err   error

	// Strict turns the hybrid state after setting CR0.PE into an error
	// instead of executing with the stale CS cache.
	Strict bool

	// Steps counts executed instructions, InterruptCount delivered interrupts.
	Steps          uint64
	InterruptCount [256]uint64

	mem      memory.Manager
	firmware Firmware
	log      *log.Logger
	trace    bool
	history  *History

	// set between mov cr0 (PE=1) and the far jump that reloads CS
	pendingCS bool

	// per instruction decode state
	startEIP   uint32
	opSize32   bool
	addrSize32 bool
	segment    int // override, -1 for none
	rep        bool
	opcode     byte

	// instructions is a map, where key is the opcode,
	// and value is the function executing it
	baseOps     map[byte]func()
	extendedOps map[byte]func()
}

// New initializes and returns the CPU in its power-on real mode state.
func New(mem memory.Manager, fw Firmware, log *log.Logger) *CPU {
	c := &CPU{
		mem:      mem,
		firmware: fw,
		log:      log,
		Strict:   true,
	}
	c.baseOps = make(map[byte]func())
	c.extendedOps = make(map[byte]func())
	c.initBaseOps()
	c.initExtendedOps()
	c.Reset()
	return c
}

// SetTrace enables per-instruction logging.
func (c *CPU) SetTrace(on bool) {
	c.trace = on && c.log != nil
}

// SetHistory keeps the last n executed instructions, see History.
func (c *CPU) SetHistory(n int) {
	c.history = NewHistory(n)
}

// History returns the recorded instructions, or nil.
func (c *CPU) History() *History {
	return c.history
}

// Reset puts the processor into real mode with flat zero segments.
func (c *CPU) Reset() {
	for i := range c.Registers {
		c.Registers[i] = 0
	}
	for i := range c.Segs {
		c.Segs[i] = Segment{Limit: 0xFFFF, Access: gdt.AccessData | gdt.AccessAccessed}
	}
	c.Segs[CS].Access = gdt.AccessCode | gdt.AccessAccessed
	c.EIP = 0
	c.Flags.Set(0)
	c.CR0 = flags.ET
	c.GDTR = gdt.Pointer{}
	c.IDTR = gdt.Pointer{Limit: 0x3FF}
	c.pendingCS = false
	c.State = Running
	c.Err = nil
	c.Steps = 0
	c.InterruptCount = [256]uint64{}
}

// Step executes a single instruction, delivering any exception it raises.
func (c *CPU) Step() {
	if c.State != Running {
		return
	}
	defer func() {
		t := recover()
		switch t := t.(type) {
		case interrupts.Trap:
			c.exception(t)
		case nil:
			// ignore
		default:
			panic(t)
		}
	}()

	c.Execute()
	c.Steps++
}

// Execute fetches, decodes and runs one instruction.
func (c *CPU) Execute() {
	c.startEIP = c.EIP
	c.decodePrefixes()

	if c.trace {
		c.log.Printf("%s\n", c.printState())
	}
	if c.history != nil {
		c.history.Enqueue(c.instructionText())
	}

	if c.pendingCS && c.opcode != 0xEA && c.Strict {
		c.shutdown(fmt.Errorf("%w: opcode %#02x at %#x", ErrHybridState, c.opcode, c.startEIP))
		return
	}

	op := c.Decode(c.opcode)
	op()
}

// Decode returns the handler for opcode, raising #UD when there is none.
func (c *CPU) Decode(opcode byte) func() {
	if opcode == 0x0F {
		ext := c.fetch8()
		if val, ok := c.extendedOps[ext]; ok {
			return val
		}
		panic(interrupts.Trap{Vector: interrupts.IntInvalid, Fault: true,
			Msg: fmt.Sprintf("invalid instruction 0f %02x", ext)})
	}
	if val, ok := c.baseOps[opcode]; ok {
		return val
	}
	panic(interrupts.Trap{Vector: interrupts.IntInvalid, Fault: true,
		Msg: fmt.Sprintf("invalid instruction %02x", opcode)})
}

// decodePrefixes consumes prefix bytes and leaves the opcode in c.opcode.
func (c *CPU) decodePrefixes() {
	big := c.Segs[CS].Big
	c.opSize32 = big
	c.addrSize32 = big
	c.segment = -1
	c.rep = false

	for {
		b := c.fetch8()
		switch b {
		case 0x26:
			c.segment = ES
		case 0x2E:
			c.segment = CS
		case 0x36:
			c.segment = SS
		case 0x3E:
			c.segment = DS
		case 0x64:
			c.segment = FS
		case 0x65:
			c.segment = GS
		case 0x66:
			c.opSize32 = !big
		case 0x67:
			c.addrSize32 = !big
		case 0xF3:
			c.rep = true
		default:
			c.opcode = b
			return
		}
	}
}

// exception delivers a trap raised while executing an instruction.
func (c *CPU) exception(t interrupts.Trap) {
	if c.log != nil {
		c.log.Printf("trap %s (%#02x) at %04x:%08x: %s\n",
			interrupts.Name(t.Vector), t.Vector, c.Segs[CS].Selector, c.startEIP, t.Msg)
	}
	if c.CR0.Protected() {
		c.shutdown(fmt.Errorf("%w: %s %s", ErrTripleFault, interrupts.Name(t.Vector), t.Msg))
		return
	}
	ret := c.EIP
	if t.Fault {
		ret = c.startEIP
	}
	defer func() {
		if r := recover(); r != nil {
			if nested, ok := r.(interrupts.Trap); ok {
				c.shutdown(fmt.Errorf("cpu: %s while delivering %s", nested.Msg, interrupts.Name(t.Vector)))
				return
			}
			panic(r)
		}
	}()
	c.interrupt(t.Vector, ret)
}

// shutdown stops the processor with err.
func (c *CPU) shutdown(err error) {
	c.State = Shutdown
	c.Err = err
	if c.log != nil {
		c.log.Printf("shutdown: %v\n", err)
	}
}

// idle parks the processor.
func (c *CPU) idle(why string) {
	c.State = Idle
	if c.log != nil {
		c.log.Printf("idle at %04x:%08x (%s)\n", c.Segs[CS].Selector, c.startEIP, why)
	}
}

// register access helpers:

// Reg32 returns a 32 bit register.
func (c *CPU) Reg32(r int) uint32 {
	return c.Registers[r]
}

// SetReg32 sets a 32 bit register.
func (c *CPU) SetReg32(r int, v uint32) {
	c.Registers[r] = v
}

// Reg16 returns the low word of a register.
func (c *CPU) Reg16(r int) uint16 {
	return uint16(c.Registers[r])
}

// SetReg16 replaces the low word of a register.
func (c *CPU) SetReg16(r int, v uint16) {
	c.Registers[r] = c.Registers[r]&^0xFFFF | uint32(v)
}

// Reg8 returns a byte register (AL..BH numbering).
func (c *CPU) Reg8(r int) byte {
	if r < 4 {
		return byte(c.Registers[r])
	}
	return byte(c.Registers[r-4] >> 8)
}

// SetReg8 sets a byte register (AL..BH numbering).
func (c *CPU) SetReg8(r int, v byte) {
	if r < 4 {
		c.Registers[r] = c.Registers[r]&^0xFF | uint32(v)
		return
	}
	c.Registers[r-4] = c.Registers[r-4]&^0xFF00 | uint32(v)<<8
}

// Seg returns a segment register.
func (c *CPU) Seg(s int) Segment {
	return c.Segs[s]
}

// getReg reads a register at operand size (1, 2 or 4 bytes)
func (c *CPU) getReg(r int, size int) uint32 {
	switch size {
	case 1:
		return uint32(c.Reg8(r))
	case 2:
		return uint32(c.Reg16(r))
	}
	return c.Registers[r]
}

// setReg writes a register at operand size
func (c *CPU) setReg(r int, size int, v uint32) {
	switch size {
	case 1:
		c.SetReg8(r, byte(v))
	case 2:
		c.SetReg16(r, uint16(v))
	default:
		c.Registers[r] = v
	}
}

// opSize returns the current operand size in bytes
func (c *CPU) opSize() int {
	if c.opSize32 {
		return 4
	}
	return 2
}

// DumpRegisters displays register values
func (c *CPU) DumpRegisters() string {
	var res strings.Builder
	for i, reg := range c.Registers {
		fmt.Fprintf(&res, "%s %08x ", regNames[i], reg)
	}
	fmt.Fprintf(&res, "EIP %08x\n", c.EIP)
	for i, s := range c.Segs {
		fmt.Fprintf(&res, "%s %04x ", segNames[i], s.Selector)
	}
	fmt.Fprintf(&res, "CR0 %08x %s", uint32(c.CR0), c.Flags.GetFlags())
	return res.String()
}

// instructionText disassembles the instruction at startEIP.
func (c *CPU) instructionText() string {
	code := make([]byte, 16)
	for i := range code {
		code[i] = c.mem.ReadByte(c.Segs[CS].Base + c.startEIP + uint32(i))
	}
	text, _ := Disasm(code, c.startEIP, c.Segs[CS].Big)
	return fmt.Sprintf("%04x:%08x  %s", c.Segs[CS].Selector, c.startEIP, text)
}

func (c *CPU) printState() string {
	return fmt.Sprintf("%s\n %s", c.DumpRegisters(), c.instructionText())
}
