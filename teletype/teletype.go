// Package teletype is the text screen behind the firmware video service.
package teletype

import (
	"io"
	"strings"
	"sync"
)

// Screen size of text mode 3.
const (
	Columns = 80
	Rows    = 25
)

// control characters the teletype service acts on
const (
	bel = 0x07
	bs  = 0x08
	lf  = 0x0A
	cr  = 0x0D
)

// Teletype type - a text screen with a cursor, written one character at a time.
type Teletype struct {
	mu sync.Mutex

	screen   [Rows][Columns]byte
	row, col int

	// every character handed to Put, control characters included
	output []byte

	// mirror receives printable output, e.g. a gui view or stdout
	mirror io.Writer
}

// New returns a cleared teletype. mirror may be nil.
func New(mirror io.Writer) *Teletype {
	t := &Teletype{mirror: mirror}
	t.clear()
	return t
}

// Put writes one character at the cursor and advances it: CR returns to
// column 0, LF moves down, BS moves left, BEL is ignored. Writing past the
// last column wraps and moving past the last row scrolls.
func (t *Teletype) Put(ch byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.output = append(t.output, ch)
	switch ch {
	case bel:
	case bs:
		if t.col > 0 {
			t.col--
		}
	case cr:
		t.col = 0
	case lf:
		t.lineFeed()
	default:
		t.screen[t.row][t.col] = ch
		t.col++
		if t.col == Columns {
			t.col = 0
			t.lineFeed()
		}
	}

	// the mirror is a terminal: it does its own cursor handling for LF
	if t.mirror != nil && ch != cr && ch != bel {
		t.mirror.Write([]byte{ch})
	}
}

// Write puts every byte of p, so the teletype can be used as an io.Writer.
func (t *Teletype) Write(p []byte) (int, error) {
	for _, b := range p {
		t.Put(b)
	}
	return len(p), nil
}

func (t *Teletype) lineFeed() {
	t.row++
	if t.row < Rows {
		return
	}
	copy(t.screen[:], t.screen[1:])
	for i := range t.screen[Rows-1] {
		t.screen[Rows-1][i] = ' '
	}
	t.row = Rows - 1
}

func (t *Teletype) clear() {
	for r := range t.screen {
		for c := range t.screen[r] {
			t.screen[r][c] = ' '
		}
	}
	t.row, t.col = 0, 0
}

// Clear blanks the screen and homes the cursor. Output is kept.
func (t *Teletype) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clear()
}

// Cursor returns the cursor position.
func (t *Teletype) Cursor() (row, col int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.row, t.col
}

// SetCursor moves the cursor, clamping to the screen.
func (t *Teletype) SetCursor(row, col int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.row = clamp(row, Rows-1)
	t.col = clamp(col, Columns-1)
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// Output returns every character written so far.
func (t *Teletype) Output() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.output)
}

// Lines returns the screen rows with trailing blanks removed.
func (t *Teletype) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := make([]string, Rows)
	for r := range t.screen {
		lines[r] = strings.TrimRight(string(t.screen[r][:]), " ")
	}
	return lines
}

// Text returns the non-empty part of the screen.
func (t *Teletype) Text() string {
	lines := t.Lines()
	n := len(lines)
	for n > 0 && lines[n-1] == "" {
		n--
	}
	return strings.Join(lines[:n], "\n")
}
