package teletype

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTeletype_Put(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantText string
		wantRow  int
		wantCol  int
	}{
		{"plain", "Hello", "Hello", 0, 5},
		{"crlf", "ab\r\ncd", "ab\ncd", 1, 2},
		{"lf keeps column", "ab\ncd", "ab\n  cd", 1, 4},
		{"backspace", "abc\bX", "abX", 0, 3},
		{"backspace at column zero", "\bA", "A", 0, 1},
		{"bell", "a\ab", "ab", 0, 2},
		{"wrap", strings.Repeat("x", Columns+1), strings.Repeat("x", Columns) + "\nx", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tty := New(nil)
			tty.Write([]byte(tt.input))
			if got := tty.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
			if r, c := tty.Cursor(); r != tt.wantRow || c != tt.wantCol {
				t.Errorf("Cursor() = %d,%d, want %d,%d", r, c, tt.wantRow, tt.wantCol)
			}
			if tty.Output() != tt.input {
				t.Errorf("Output() = %q, want %q", tty.Output(), tt.input)
			}
		})
	}
}

func TestTeletype_Scroll(t *testing.T) {
	tty := New(nil)
	for i := 0; i < Rows; i++ {
		tty.Write([]byte{'a' + byte(i), '\r', '\n'})
	}
	lines := tty.Lines()
	if lines[0] != "b" {
		t.Errorf("top line after scroll = %q, want %q", lines[0], "b")
	}
	if lines[Rows-2] != "y" || lines[Rows-1] != "" {
		t.Errorf("bottom lines = %q %q", lines[Rows-2], lines[Rows-1])
	}
	if r, c := tty.Cursor(); r != Rows-1 || c != 0 {
		t.Errorf("Cursor() = %d,%d", r, c)
	}
}

func TestTeletype_Mirror(t *testing.T) {
	var buf bytes.Buffer
	tty := New(&buf)
	tty.Write([]byte("hi\r\n\a"))
	if buf.String() != "hi\n" {
		t.Errorf("mirror got %q, want %q", buf.String(), "hi\n")
	}
}

func TestTeletype_SetCursor(t *testing.T) {
	tty := New(nil)
	tty.SetCursor(100, -3)
	if r, c := tty.Cursor(); r != Rows-1 || c != 0 {
		t.Errorf("Cursor() = %d,%d", r, c)
	}
	tty.Put('Z')
	if tty.Lines()[Rows-1] != "Z" {
		t.Errorf("character not written at cursor")
	}
	tty.Clear()
	if tty.Text() != "" {
		t.Errorf("Clear() left %q", tty.Text())
	}
}

func TestTeletype_Snapshot(t *testing.T) {
	tty := New(nil)
	tty.Write([]byte("Hello"))
	img := tty.Render()
	b := img.Bounds()
	if b.Dx() != Columns*cellWidth+2*margin || b.Dy() != Rows*cellHeight+2*margin {
		t.Fatalf("image size %v", b)
	}
	lit := false
	for x := margin; x < margin+5*cellWidth && !lit; x++ {
		for y := margin; y < margin+cellHeight; y++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0 {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Errorf("no text pixels in the first row")
	}

	path := filepath.Join(t.TempDir(), "screen.png")
	if err := tty.Snapshot(path); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("snapshot not written: %v", err)
	}
}
