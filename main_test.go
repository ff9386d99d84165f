package main

import (
	"strings"
	"testing"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		variant string
		layout  string
		want    []string
	}{
		{"hello", "flat", []string{"jmp far 0x7c05, 0x0", "int 0x10", "msg_hello"}},
		{"disk", "segmented", []string{"jmp far 0x5, 0x7c0", "int 0x13", "disk_error"}},
		{"protected", "flat", []string{"; 32 bit", "gdt at", "code base=0x000000"}},
	}
	for _, tt := range tests {
		t.Run(tt.variant+"/"+tt.layout, func(t *testing.T) {
			o := options{variant: tt.variant, layout: tt.layout}
			img, err := o.build()
			if err != nil {
				t.Fatal(err)
			}
			out := inspect(img)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("inspect output lacks %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestOptions_Errors(t *testing.T) {
	for _, o := range []options{
		{variant: "hello", layout: "banked"},
		{variant: "beep", layout: "flat"},
	} {
		if _, err := o.build(); err == nil {
			t.Errorf("build(%+v) succeeded", o)
		}
	}
}
