package bios

import (
	"bytes"
	"errors"
	"testing"

	"bootsector/cpu"
	"bootsector/disk"
	"bootsector/interrupts"
	"bootsector/memory"
	"bootsector/teletype"
)

type machine struct {
	mem   *memory.Memory
	tty   *teletype.Teletype
	disks *disk.Controller
	fw    *Firmware
	cpu   *cpu.CPU
}

// newMachine returns a machine with the firmware installed, code at
// 0000:7C00 and a floppy whose sectors start with their number in drive 0.
func newMachine(t *testing.T, code []byte) *machine {
	t.Helper()
	m := &machine{
		mem:   memory.New(true, nil),
		tty:   teletype.New(nil),
		disks: disk.New(nil),
	}
	img := make([]byte, 1440*1024)
	for lba := 0; lba < len(img)/disk.SectorSize; lba++ {
		img[lba*disk.SectorSize] = byte(lba)
	}
	if err := m.disks.AttachReader(0, bytes.NewReader(img), int64(len(img))); err != nil {
		t.Fatal(err)
	}
	m.fw = New(m.mem, m.tty, m.disks, nil)
	m.fw.Install()
	if err := m.mem.Load(0x7C00, code); err != nil {
		t.Fatal(err)
	}
	m.cpu = cpu.New(m.mem, m.fw, nil)
	m.cpu.EIP = 0x7C00
	m.cpu.SetReg16(cpu.ESP, 0x7C00)
	return m
}

func (m *machine) run(t *testing.T) {
	t.Helper()
	for i := 0; i < 1000 && m.cpu.State == cpu.Running; i++ {
		m.cpu.Step()
	}
	if m.cpu.State != cpu.Idle {
		t.Fatalf("state %v, err %v", m.cpu.State, m.cpu.Err)
	}
}

func TestFirmware_Install(t *testing.T) {
	m := newMachine(t, nil)
	tests := []struct {
		name   string
		vector uint8
		want   Vector
	}{
		{"divide error", interrupts.IntDivide, Vector{0xFF00, 0xF000}},
		{"video", interrupts.IntVideo, Vector{0xFF10, 0xF000}},
		{"disk", interrupts.IntDisk, Vector{0xFF13, 0xF000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.fw.IVT().Lookup(tt.vector)
			if got != tt.want {
				t.Errorf("Lookup(%#x) = %v, want %v", tt.vector, got, tt.want)
			}
			if !m.fw.Handles(got.Segment, got.Offset) {
				t.Errorf("Handles(%v) = false", got)
			}
			if b := m.mem.ReadByte(got.Linear()); b != opIRET {
				t.Errorf("stub at %#x = %#02x, want iret", got.Linear(), b)
			}
		})
	}
}

func TestIVT_LastWriteWins(t *testing.T) {
	m := newMachine(t, nil)
	ivt := m.fw.IVT()
	ivt.Install(0, Vector{Offset: 0x0600, Segment: 0})
	ivt.Install(0, Vector{Offset: 0x0010, Segment: 0x07C0})
	if got := ivt.Lookup(0); got != (Vector{0x0010, 0x07C0}) {
		t.Errorf("Lookup(0) = %v", got)
	}
	if got := ivt.Lookup(1); got != (Vector{0xFF01, StubSegment}) {
		t.Errorf("neighbouring vector changed: %v", got)
	}
	if m.mem.ReadWord(0) != 0x0010 || m.mem.ReadWord(2) != 0x07C0 {
		t.Errorf("vector not stored at linear 0")
	}
}

// print routine: mov si,msg; mov ah,0eh; mov bh,0; lodsb; or al,al; jz done;
// int 10h; jmp loop; done: jmp $
var printHello = []byte{
	0xBE, 0x12, 0x7C,
	0xB4, 0x0E,
	0xB7, 0x00,
	0xAC,
	0x08, 0xC0,
	0x74, 0x04,
	0xCD, 0x10,
	0xEB, 0xF7,
	0xEB, 0xFE,
	'H', 'e', 'l', 'l', 'o', 0,
}

func TestFirmware_Print(t *testing.T) {
	m := newMachine(t, printHello)
	m.run(t)
	if got := m.tty.Output(); got != "Hello" {
		t.Errorf("output %q, want %q", got, "Hello")
	}
	if m.fw.Calls[interrupts.IntVideo] != 5 {
		t.Errorf("%d video calls, want 5", m.fw.Calls[interrupts.IntVideo])
	}
	if r, c := m.tty.Cursor(); r != 0 || c != 5 {
		t.Errorf("cursor at %d,%d", r, c)
	}
}

func TestFirmware_OverriddenVector(t *testing.T) {
	m := newMachine(t, []byte{0xCD, 0x10, 0xEB, 0xFE})
	m.fw.IVT().Install(interrupts.IntVideo, Vector{Offset: 0x0600})
	m.mem.Load(0x600, []byte{0xB3, 0x42, 0xCF}) // mov bl,42h; iret
	m.run(t)
	if m.fw.Calls[interrupts.IntVideo] != 0 {
		t.Errorf("firmware still called")
	}
	if m.cpu.Reg8(cpu.BL) != 0x42 || m.cpu.InterruptCount[interrupts.IntVideo] != 1 {
		t.Errorf("handler not run exactly once: BL %#x count %d",
			m.cpu.Reg8(cpu.BL), m.cpu.InterruptCount[interrupts.IntVideo])
	}
	if m.cpu.EIP != 0x7C02 {
		t.Errorf("returned to %#x, want 0x7c02", m.cpu.EIP)
	}
}

func TestFirmware_ReadSectors(t *testing.T) {
	tests := []struct {
		name       string
		drive      uint8
		count      uint8
		cx         uint16
		dh         uint8
		es, bx     uint16
		wantStatus disk.Status
		wantFirst  byte
	}{
		{"sector 2 to 0x7e00", 0, 1, 0x0002, 0, 0, 0x7E00, disk.StatusOK, 1},
		{"head 1 through segment", 0, 1, 0x0001, 1, 0x07E0, 0, disk.StatusOK, 18},
		{"no drive", 0x80, 1, 0x0002, 0, 0, 0x7E00, disk.StatusNoDrive, 0},
		{"sector zero", 0, 1, 0x0000, 0, 0, 0x7E00, disk.StatusSectorNotFound, 0},
		{"zero count", 0, 0, 0x0002, 0, 0, 0x7E00, disk.StatusBadCommand, 0},
		{"crosses 64k", 0, 2, 0x0002, 0, 0, 0xFE00, disk.StatusBoundary, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(t, nil)
			c := m.cpu
			c.SetReg8(cpu.AH, diskRead)
			c.SetReg8(cpu.AL, tt.count)
			c.SetReg16(cpu.ECX, tt.cx)
			c.SetReg8(cpu.DH, tt.dh)
			c.SetReg8(cpu.DL, tt.drive)
			c.Segs[cpu.ES].Selector = tt.es
			c.Segs[cpu.ES].Base = uint32(tt.es) << 4
			c.SetReg16(cpu.EBX, tt.bx)
			// poison the buffer
			dest := uint32(tt.es)<<4 + uint32(tt.bx)
			m.mem.WriteByte(dest, 0xEE)

			if err := m.fw.Service(c, interrupts.IntDisk); err != nil {
				t.Fatalf("Service() error = %v", err)
			}
			if got := disk.Status(c.Reg8(cpu.AH)); got != tt.wantStatus {
				t.Errorf("AH = %v, want %v", got, tt.wantStatus)
			}
			if c.Flags.C() != (tt.wantStatus != disk.StatusOK) {
				t.Errorf("CF = %v", c.Flags.C())
			}
			if tt.wantStatus != disk.StatusOK {
				if m.mem.ReadByte(dest) != 0xEE || c.Reg8(cpu.AL) != 0 {
					t.Errorf("failed read touched the buffer or reported sectors")
				}
				return
			}
			if c.Reg8(cpu.AL) != tt.count {
				t.Errorf("AL = %d, want %d", c.Reg8(cpu.AL), tt.count)
			}
			if got := m.mem.ReadByte(dest); got != tt.wantFirst {
				t.Errorf("buffer starts with %d, want %d", got, tt.wantFirst)
			}
			if got := m.mem.ReadByte(dest + disk.SectorSize); got != 0 {
				t.Errorf("read past %d bytes", disk.SectorSize)
			}
		})
	}
}

func TestFirmware_DiskStatusAndParameters(t *testing.T) {
	m := newMachine(t, nil)
	c := m.cpu

	c.SetReg8(cpu.AH, diskReset)
	c.SetReg8(cpu.DL, 0)
	m.fw.Service(c, interrupts.IntDisk)
	if c.Flags.C() || c.Reg8(cpu.AH) != 0 {
		t.Errorf("reset: CF %v AH %#x", c.Flags.C(), c.Reg8(cpu.AH))
	}

	c.SetReg8(cpu.AH, diskParameters)
	m.fw.Service(c, interrupts.IntDisk)
	if c.Reg8(cpu.CH) != 79 || c.Reg8(cpu.CL) != 18 || c.Reg8(cpu.DH) != 1 || c.Reg8(cpu.BL) != 4 {
		t.Errorf("parameters CH %d CL %d DH %d BL %d", c.Reg8(cpu.CH), c.Reg8(cpu.CL), c.Reg8(cpu.DH), c.Reg8(cpu.BL))
	}

	c.SetReg8(cpu.AH, diskRead)
	c.SetReg8(cpu.AL, 1)
	c.SetReg16(cpu.ECX, 0)
	c.SetReg8(cpu.DL, 0)
	m.fw.Service(c, interrupts.IntDisk)
	c.SetReg8(cpu.AH, diskStatus)
	m.fw.Service(c, interrupts.IntDisk)
	if c.Reg8(cpu.AH) != byte(disk.StatusSectorNotFound) || !c.Flags.C() {
		t.Errorf("status after failed read: AH %#x CF %v", c.Reg8(cpu.AH), c.Flags.C())
	}
}

func TestFirmware_Unsupported(t *testing.T) {
	tests := []struct {
		name    string
		vector  uint8
		ah      byte
		wantErr error
	}{
		{"video scroll", interrupts.IntVideo, 0x06, nil},
		{"disk write", interrupts.IntDisk, 0x03, nil},
		{"keyboard", 0x16, 0x00, nil},
		{"divide error", interrupts.IntDivide, 0, ErrException},
		{"general protection", interrupts.IntGeneralProtection, 0, ErrException},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(t, nil)
			m.cpu.SetReg8(cpu.AH, tt.ah)
			err := m.fw.Service(m.cpu, tt.vector)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Service() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && !m.cpu.Flags.C() {
				t.Errorf("CF clear after unsupported call")
			}
		})
	}
}

func TestFirmware_DivideFaultWithoutHandler(t *testing.T) {
	// mov bl,0; div bl
	m := newMachine(t, []byte{0xB3, 0x00, 0xF6, 0xF3})
	for i := 0; i < 10 && m.cpu.State == cpu.Running; i++ {
		m.cpu.Step()
	}
	if m.cpu.State != cpu.Shutdown || !errors.Is(m.cpu.Err, ErrException) {
		t.Errorf("state %v err %v", m.cpu.State, m.cpu.Err)
	}
}
