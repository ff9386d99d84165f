package console

import (
	"bytes"
	"testing"
)

func TestSimple_WriteConsole(t *testing.T) {
	tests := []struct {
		name      string
		msg       string
		want      string
		wantLines int
	}{
		{"single line", "booting", "booting\n", 1},
		{"empty lines dropped", "a\n\nb\n", "a\nb\n", 2},
		{"nothing", "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := NewSimple(&buf)
			if err := c.WriteConsole(tt.msg); err != nil {
				t.Fatalf("WriteConsole() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("output %q, want %q", buf.String(), tt.want)
			}
			if c.Lines() != tt.wantLines {
				t.Errorf("Lines() = %d, want %d", c.Lines(), tt.wantLines)
			}
		})
	}
}
