package bios

import (
	"bootsector/cpu"
	"bootsector/interrupts"
	"bootsector/teletype"
)

// INT 10h functions
const (
	videoSetMode   = 0x00
	videoSetCursor = 0x02
	videoGetCursor = 0x03
	videoTeletype  = 0x0E
	videoGetMode   = 0x0F
)

// video serves INT 10h. Only page 0 of text mode 3 exists; other pages
// are written to page 0.
func (f *Firmware) video(c *cpu.CPU) {
	switch c.Reg8(cpu.AH) {
	case videoTeletype:
		f.tty.Put(c.Reg8(cpu.AL))
	case videoSetMode:
		f.tty.Clear()
	case videoSetCursor:
		f.tty.SetCursor(int(c.Reg8(cpu.DH)), int(c.Reg8(cpu.DL)))
	case videoGetCursor:
		row, col := f.tty.Cursor()
		c.SetReg8(cpu.DH, byte(row))
		c.SetReg8(cpu.DL, byte(col))
		c.SetReg16(cpu.ECX, 0x0607)
	case videoGetMode:
		c.SetReg8(cpu.AL, 0x03)
		c.SetReg8(cpu.AH, teletype.Columns)
		c.SetReg8(cpu.BH, 0)
	default:
		f.unsupported(c, interrupts.IntVideo)
	}
}
