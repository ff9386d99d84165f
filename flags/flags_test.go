package flags

import (
	"testing"
)

func TestFlags_SetGet(t *testing.T) {
	tests := []struct {
		name  string
		value uint32
		flag  string
		want  bool
	}{
		{"C unset", 0, "C", false},
		{"C set", 1, "C", true},
		{"Z set", 1 << 6, "Z", true},
		{"Z set, C unset", 1 << 6, "C", false},
		{"S set", 1 << 7, "S", true},
		{"I set", 1 << 9, "I", true},
		{"I unset", 0xfdff, "I", false},
		{"O set", 1 << 11, "O", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Flags(0)
			f.Set(tt.value)
			var got bool
			switch tt.flag {
			case "C":
				got = f.C()
			case "Z":
				got = f.Z()
			case "S":
				got = f.S()
			case "I":
				got = f.I()
			case "O":
				got = f.O()
			}
			if got != tt.want {
				t.Errorf("Flags.%s() = %v, want %v", tt.flag, got, tt.want)
			}
		})
	}
}

func TestFlags_ReservedBit(t *testing.T) {
	f := Flags(0)
	if f.Get() != 2 {
		t.Errorf("reserved bit not reported: %#x", f.Get())
	}
	f.SetC(true)
	f.SetC(false)
	if f.Get() != 2 {
		t.Errorf("SetC(false) left %#x", f.Get())
	}
}

func TestFlags_Set16KeepsUpperHalf(t *testing.T) {
	f := Flags(0)
	f.Set(1 << 18)
	f.Set16(1)
	if f.Get() != (1<<18)|3 {
		t.Errorf("Set16 = %#x", f.Get())
	}
}

func TestFlags_GetFlags(t *testing.T) {
	f := Flags(0)
	f.SetZ(true)
	f.SetC(true)
	if got := f.GetFlags(); got != "[-----Z--C]" {
		t.Errorf("GetFlags() = %s", got)
	}
}

func TestCR0_WithProtection(t *testing.T) {
	c := CR0(ET | 1<<30)
	p := c.WithProtection()
	if !p.Protected() {
		t.Error("PE not set")
	}
	if p&^PE != c {
		t.Errorf("other bits changed: %#x -> %#x", c, p)
	}
}
