package system

import (
	"fmt"
	"sort"
	"strings"

	"bootsector/cpu"
	"bootsector/interrupts"
	"bootsector/protect"
)

// Summary is the machine state after a run.
type Summary struct {
	State cpu.State
	Err   error
	Steps uint64
	Mode  protect.Mode

	// selectors by segment register, ES..GS
	Selectors [6]uint16
	EIP       uint32
	ESP       uint32

	// Interrupts counts delivered interrupts per vector, Services the
	// calls the firmware answered itself.
	Interrupts map[uint8]uint64
	Services   map[uint8]uint64

	SectorsRead uint64
	Output      string
}

// Summary collects the current machine state.
func (sys *System) Summary() Summary {
	sys.mu.Lock()
	defer sys.mu.Unlock()

	c := sys.CPU
	s := Summary{
		State:      c.State,
		Err:        c.Err,
		Steps:      sys.steps,
		Mode:       c.Mode(),
		EIP:        c.EIP,
		ESP:        c.Reg32(cpu.ESP),
		Interrupts: make(map[uint8]uint64),
		Services:   make(map[uint8]uint64),
		Output:     sys.TTY.Output(),
	}
	for i, seg := range c.Segs {
		s.Selectors[i] = seg.Selector
	}
	for v := range c.InterruptCount {
		if n := c.InterruptCount[v]; n > 0 {
			s.Interrupts[uint8(v)] = n
		}
		if n := sys.Firmware.Calls[v]; n > 0 {
			s.Services[uint8(v)] = n
		}
	}
	if d, ok := sys.Disks.Drive(sys.Layout.BootDrive); ok {
		s.SectorsRead = d.SectorsRead
	}
	return s
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "state:    %s after %d steps\n", s.State, s.Steps)
	if s.Err != nil {
		fmt.Fprintf(&b, "error:    %v\n", s.Err)
	}
	fmt.Fprintf(&b, "mode:     %s\n", s.Mode)
	fmt.Fprintf(&b, "cs:eip:   %04x:%08x  esp %08x\n", s.Selectors[cpu.CS], s.EIP, s.ESP)
	fmt.Fprintf(&b, "segments: ds %04x es %04x ss %04x fs %04x gs %04x\n",
		s.Selectors[cpu.DS], s.Selectors[cpu.ES], s.Selectors[cpu.SS], s.Selectors[cpu.FS], s.Selectors[cpu.GS])

	vectors := make([]int, 0, len(s.Interrupts))
	for v := range s.Interrupts {
		vectors = append(vectors, int(v))
	}
	sort.Ints(vectors)
	for _, v := range vectors {
		fmt.Fprintf(&b, "int %02xh:  %d (%s), %d serviced\n",
			v, s.Interrupts[uint8(v)], interrupts.Name(uint8(v)), s.Services[uint8(v)])
	}
	fmt.Fprintf(&b, "sectors:  %d read\n", s.SectorsRead)
	return b.String()
}
