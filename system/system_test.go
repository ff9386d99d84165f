package system

import (
	"errors"
	"testing"

	"bootsector/bios"
	"bootsector/bootimg"
	"bootsector/cpu"
	"bootsector/gdt"
	"bootsector/layout"
	"bootsector/protect"
)

const payload = "Sector two says hi"

var layouts = []struct {
	name string
	l    layout.Layout
}{
	{"flat", layout.Flat()},
	{"segmented", layout.Segmented()},
}

// boot builds variant v for l, attaches it with the payload in sector 2
// and runs it to completion.
func boot(t *testing.T, v bootimg.Variant, l layout.Layout) (*System, Summary) {
	t.Helper()
	img, err := bootimg.Build(v, l)
	if err != nil {
		t.Fatalf("Build(%s): %v", v, err)
	}
	sys := InitializeSystem(Options{Layout: l, History: 16})
	t.Cleanup(func() { sys.Close() })
	if err := sys.AttachBytes(bootimg.Floppy(img.Bytes, bootimg.Payload(payload))); err != nil {
		t.Fatal(err)
	}
	if err := sys.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if err := sys.Run(100000); err != nil {
		t.Fatalf("Run: %v\nlast instructions: %q", err, sys.CPU.History().Items())
	}
	s := sys.Summary()
	if s.State != cpu.Idle {
		t.Fatalf("state %v", s.State)
	}
	return sys, s
}

func TestSystem_Hello(t *testing.T) {
	for _, lt := range layouts {
		t.Run(lt.name, func(t *testing.T) {
			_, s := boot(t, bootimg.Hello, lt.l)
			if s.Output != bootimg.MsgHello {
				t.Errorf("output %q, want %q", s.Output, bootimg.MsgHello)
			}
			if n := s.Services[0x10]; n != uint64(len(bootimg.MsgHello)) {
				t.Errorf("%d video calls, want one per character", n)
			}
			if s.Mode != protect.RealMode {
				t.Errorf("mode %v", s.Mode)
			}
			for _, r := range []int{cpu.DS, cpu.ES, cpu.SS} {
				if s.Selectors[r] != lt.l.Segment {
					t.Errorf("segment register %d = %#04x, want %#04x", r, s.Selectors[r], lt.l.Segment)
				}
			}
			if s.Selectors[cpu.CS] != lt.l.Segment {
				t.Errorf("CS = %#04x, want %#04x", s.Selectors[cpu.CS], lt.l.Segment)
			}
		})
	}
}

func TestSystem_Disk(t *testing.T) {
	for _, lt := range layouts {
		t.Run(lt.name, func(t *testing.T) {
			sys, s := boot(t, bootimg.Disk, lt.l)
			if want := bootimg.MsgLoading + payload; s.Output != want {
				t.Errorf("output %q, want %q", s.Output, want)
			}
			// boot sector read by the firmware, then sector 2
			if s.SectorsRead != 2 {
				t.Errorf("%d sectors read, want 2", s.SectorsRead)
			}
			if got := sys.Memory.CString(lt.l.Buffer, bootimg.Size); got != payload {
				t.Errorf("buffer %q", got)
			}
		})
	}
}

func TestSystem_DiskError(t *testing.T) {
	img, err := bootimg.Build(bootimg.Disk, layout.Flat())
	if err != nil {
		t.Fatal(err)
	}
	sys := InitializeSystem(Options{Layout: layout.Flat()})
	defer sys.Close()
	// a one sector disk: sector 2 does not exist
	if err := sys.AttachBytes(img.Bytes); err != nil {
		t.Fatal(err)
	}
	if err := sys.Boot(); err != nil {
		t.Fatal(err)
	}
	if err := sys.Run(100000); err != nil {
		t.Fatal(err)
	}
	if want := bootimg.MsgLoading + bootimg.MsgDiskError; sys.TTY.Output() != want {
		t.Errorf("output %q, want %q", sys.TTY.Output(), want)
	}
	if got := sys.Memory.ReadByte(layout.Flat().Buffer); got != 0 {
		t.Errorf("buffer modified by a failed read: %#02x", got)
	}
}

func TestSystem_Vector(t *testing.T) {
	for _, lt := range layouts {
		t.Run(lt.name, func(t *testing.T) {
			sys, s := boot(t, bootimg.Vector, lt.l)
			want := bootimg.MsgBefore + bootimg.MsgTag + bootimg.MsgAfter
			if s.Output != want {
				t.Errorf("output %q, want %q", s.Output, want)
			}
			if s.Interrupts[0] != 1 {
				t.Errorf("vector 0 delivered %d times, want once", s.Interrupts[0])
			}
			if s.Services[0] != 0 {
				t.Errorf("firmware saw vector 0 %d times", s.Services[0])
			}

			img, _ := bootimg.Build(bootimg.Vector, lt.l)
			handler := img.Symbols[bootimg.LabelHandler]
			got := sys.Firmware.IVT().Lookup(0)
			if got.Linear() != handler || got.Segment != lt.l.Segment {
				t.Errorf("vector 0 = %v, want handler at %#x in segment %#04x", got, handler, lt.l.Segment)
			}
			if other := sys.Firmware.IVT().Lookup(1); other != (bios.Vector{Offset: bios.StubBase + 1, Segment: bios.StubSegment}) {
				t.Errorf("vector 1 = %v", other)
			}
		})
	}
}

func TestSystem_Protected(t *testing.T) {
	for _, lt := range layouts {
		t.Run(lt.name, func(t *testing.T) {
			sys, s := boot(t, bootimg.Protected, lt.l)
			if s.Output != bootimg.MsgProtected {
				t.Errorf("output %q", s.Output)
			}
			if s.Mode != protect.ProtectedMode {
				t.Fatalf("mode %v", s.Mode)
			}
			if s.Selectors[cpu.CS] != gdt.CodeSelector {
				t.Errorf("CS = %#04x", s.Selectors[cpu.CS])
			}
			for _, r := range []int{cpu.DS, cpu.ES, cpu.SS, cpu.FS, cpu.GS} {
				if s.Selectors[r] != gdt.DataSelector {
					t.Errorf("segment register %d = %#04x, want %#04x", r, s.Selectors[r], gdt.DataSelector)
				}
			}
			if s.ESP != lt.l.ProtectedStack {
				t.Errorf("ESP = %#x, want %#x", s.ESP, lt.l.ProtectedStack)
			}
			if !sys.CPU.Seg(cpu.CS).Big {
				t.Error("CS is not a 32 bit segment")
			}
			if sys.CPU.GDTR.Limit != 23 {
				t.Errorf("GDTR limit %d", sys.CPU.GDTR.Limit)
			}
		})
	}
}

func TestSystem_BootErrors(t *testing.T) {
	tests := []struct {
		name string
		img  []byte
		want error
	}{
		{"unsigned", make([]byte, bootimg.FloppySize), bootimg.ErrSignature},
		{"empty drive", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := InitializeSystem(Options{Layout: layout.Flat()})
			defer sys.Close()
			if tt.img != nil {
				if err := sys.AttachBytes(tt.img); err != nil {
					t.Fatal(err)
				}
			}
			err := sys.Boot()
			if err == nil {
				t.Fatal("Boot() succeeded")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Boot() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSystem_StepLimit(t *testing.T) {
	// inc ax; jmp back to it
	code := bootimg.Sign([]byte{0x40, 0xEB, 0xFD})
	sys := InitializeSystem(Options{Layout: layout.Flat()})
	defer sys.Close()
	if err := sys.AttachBytes(bootimg.Floppy(code)); err != nil {
		t.Fatal(err)
	}
	if err := sys.Boot(); err != nil {
		t.Fatal(err)
	}
	if err := sys.Run(100); !errors.Is(err, ErrStepLimit) {
		t.Fatalf("Run() = %v, want step limit", err)
	}
	if s := sys.Summary(); s.Steps != 100 || s.State != cpu.Running {
		t.Errorf("summary %+v", s)
	}
}

func TestSystem_HybridState(t *testing.T) {
	// mov eax,cr0; or eax,1; mov cr0,eax; nop
	code := bootimg.Sign([]byte{0x0F, 0x20, 0xC0, 0x66, 0x83, 0xC8, 0x01, 0x0F, 0x22, 0xC0, 0x90})
	for _, lenient := range []bool{false, true} {
		sys := InitializeSystem(Options{Layout: layout.Flat(), Lenient: lenient})
		if err := sys.AttachBytes(bootimg.Floppy(code)); err != nil {
			t.Fatal(err)
		}
		if err := sys.Boot(); err != nil {
			t.Fatal(err)
		}
		err := sys.Run(10)
		if !lenient && !errors.Is(err, cpu.ErrHybridState) {
			t.Errorf("strict: Run() = %v", err)
		}
		if lenient && errors.Is(err, cpu.ErrHybridState) {
			t.Errorf("lenient: Run() = %v", err)
		}
		sys.Close()
	}
}
