package disk

import (
	"fmt"
)

// Geometry is the cylinder/head/sector shape of a drive.
type Geometry struct {
	Cylinders, Heads, Sectors uint16
}

// floppy geometries by image size
var floppies = []struct {
	size int64
	g    Geometry
}{
	{160 * 1024, Geometry{40, 1, 8}},
	{180 * 1024, Geometry{40, 1, 9}},
	{320 * 1024, Geometry{40, 2, 8}},
	{360 * 1024, Geometry{40, 2, 9}},
	{720 * 1024, Geometry{80, 2, 9}},
	{1200 * 1024, Geometry{80, 2, 15}},
	{1440 * 1024, Geometry{80, 2, 18}},
	{2880 * 1024, Geometry{80, 2, 36}},
}

// Floppy144 is the 1.44 MB 3.5" floppy.
var Floppy144 = Geometry{80, 2, 18}

// GeometryFor picks the geometry for an image of size bytes. Images smaller
// than a 1.44 MB floppy that match no floppy size are addressed as one;
// anything larger gets the 16 head, 63 sector translation of hard disks.
func GeometryFor(size int64) Geometry {
	for _, f := range floppies {
		if f.size == size {
			return f.g
		}
	}
	if size <= 1440*1024 {
		return Floppy144
	}
	const heads, sectors = 16, 63
	cyl := size / (heads * sectors * SectorSize)
	if cyl > 1024 {
		cyl = 1024
	}
	if cyl == 0 {
		cyl = 1
	}
	return Geometry{uint16(cyl), heads, sectors}
}

// LBA = (C × HPC + H) × SPT + (S - 1)
func (g Geometry) LBA(cylinder, head, sector uint16) (uint32, error) {
	if sector == 0 || sector > g.Sectors || head >= g.Heads || cylinder >= g.Cylinders {
		return 0, StatusSectorNotFound
	}
	return (uint32(cylinder)*uint32(g.Heads)+uint32(head))*uint32(g.Sectors) + uint32(sector) - 1, nil
}

// CHS converts a block address back to cylinder, head, sector.
func (g Geometry) CHS(lba uint32) (cylinder, head, sector uint16) {
	spt := uint32(g.Sectors)
	hpc := uint32(g.Heads)
	cylinder = uint16(lba / (spt * hpc))
	head = uint16((lba / spt) % hpc)
	sector = uint16(lba%spt) + 1
	return
}

// TotalSectors is the number of addressable sectors.
func (g Geometry) TotalSectors() uint32 {
	return uint32(g.Cylinders) * uint32(g.Heads) * uint32(g.Sectors)
}

func (g Geometry) String() string {
	return fmt.Sprintf("%d/%d/%d", g.Cylinders, g.Heads, g.Sectors)
}

// DecodeCHS unpacks the CX/DH register encoding: CH holds the low eight
// cylinder bits, CL bits 6-7 the high two and bits 0-5 the sector.
func DecodeCHS(cx uint16, dh uint8) (cylinder, head, sector uint16) {
	cl := uint8(cx)
	ch := uint8(cx >> 8)
	sector = uint16(cl & 0x3F)
	cylinder = uint16(ch) | uint16(cl&0xC0)<<2
	head = uint16(dh)
	return
}
