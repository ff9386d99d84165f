package bios

import (
	"errors"

	"bootsector/cpu"
	"bootsector/disk"
	"bootsector/interrupts"
)

// INT 13h functions
const (
	diskReset      = 0x00
	diskStatus     = 0x01
	diskRead       = 0x02
	diskParameters = 0x08
)

// diskService serves INT 13h. On failure CF is set and AH holds the status.
func (f *Firmware) diskService(c *cpu.CPU) {
	drive := c.Reg8(cpu.DL)
	var status disk.Status
	switch c.Reg8(cpu.AH) {
	case diskReset:
		status = statusOf(f.disks.Reset(drive))
	case diskStatus:
		status = f.disks.LastStatus
		c.SetReg8(cpu.AH, byte(status))
		c.Flags.SetC(status != disk.StatusOK)
		return
	case diskRead:
		status = f.readSectors(c, drive)
	case diskParameters:
		status = f.parameters(c, drive)
	default:
		f.disks.LastStatus = disk.StatusBadCommand
		f.unsupported(c, interrupts.IntDisk)
		c.SetReg8(cpu.AH, byte(disk.StatusBadCommand))
		return
	}
	c.SetReg8(cpu.AH, byte(status))
	c.Flags.SetC(status != disk.StatusOK)
}

// readSectors: AL count, CH/CL cylinder and sector, DH head, ES:BX buffer.
// Memory is written only when the whole read succeeds.
func (f *Firmware) readSectors(c *cpu.CPU, drive uint8) disk.Status {
	count := c.Reg8(cpu.AL)
	cylinder, head, sector := disk.DecodeCHS(c.Reg16(cpu.ECX), c.Reg8(cpu.DH))
	dest := c.Seg(cpu.ES).Base + uint32(c.Reg16(cpu.EBX))

	c.SetReg8(cpu.AL, 0)
	if dest&0xFFFF+uint32(count)*disk.SectorSize > 0x10000 {
		f.disks.LastStatus = disk.StatusBoundary
		if f.log != nil {
			f.log.Printf("bios: read of %d sectors to %#x crosses a 64K boundary\n", count, dest)
		}
		return disk.StatusBoundary
	}
	buf, err := f.disks.ReadSectors(drive, count, cylinder, head, sector)
	if err != nil {
		return statusOf(err)
	}
	for i, b := range buf {
		f.mem.WriteByte(dest+uint32(i), b)
	}
	c.SetReg8(cpu.AL, count)
	return disk.StatusOK
}

// parameters: AH=08h drive geometry in CX/DH, drive count in DL.
func (f *Firmware) parameters(c *cpu.CPU, drive uint8) disk.Status {
	d, ok := f.disks.Drive(drive)
	if !ok {
		f.disks.LastStatus = disk.StatusNoDrive
		return disk.StatusNoDrive
	}
	g := d.Geometry
	maxCyl := g.Cylinders - 1
	c.SetReg8(cpu.CH, byte(maxCyl))
	c.SetReg8(cpu.CL, byte(g.Sectors)&0x3F|byte(maxCyl>>8)<<6)
	c.SetReg8(cpu.DH, byte(g.Heads-1))
	c.SetReg8(cpu.DL, 1)
	if g == disk.Floppy144 {
		c.SetReg8(cpu.BL, 0x04)
	}
	f.disks.LastStatus = disk.StatusOK
	return disk.StatusOK
}

func statusOf(err error) disk.Status {
	if err == nil {
		return disk.StatusOK
	}
	var s disk.Status
	if errors.As(err, &s) {
		return s
	}
	return disk.StatusSectorNotFound
}
