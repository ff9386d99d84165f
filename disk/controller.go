// Package disk holds the drives behind the firmware disk service.
//
// A drive is a raw image addressed by cylinder, head and sector the way
// INT 13h sees it. Images are opened through go-diskfs.
package disk

import (
	"fmt"
	"io"
	"log"

	diskfs "github.com/diskfs/go-diskfs"
)

// SectorSize is the only sector size the firmware service knows.
const SectorSize = 512

// Status is an INT 13h status code, returned in AH.
type Status uint8

// Status codes:
const (
	StatusOK             Status = 0x00
	StatusBadCommand     Status = 0x01
	StatusSectorNotFound Status = 0x04
	StatusBoundary       Status = 0x09
	StatusNoDrive        Status = 0x80 // timeout, drive not ready
)

func (s Status) Error() string {
	switch s {
	case StatusOK:
		return "disk: ok"
	case StatusBadCommand:
		return "disk: bad command"
	case StatusSectorNotFound:
		return "disk: sector not found"
	case StatusBoundary:
		return "disk: DMA across 64K boundary"
	case StatusNoDrive:
		return "disk: drive not ready"
	}
	return fmt.Sprintf("disk: status %#02x", uint8(s))
}

// ErrNoDrive is returned when nothing is attached under a drive number.
var ErrNoDrive = StatusNoDrive

// Drive is an attached image.
type Drive struct {
	Number   uint8
	Geometry Geometry
	Size     int64

	// Reads counts read requests, SectorsRead the sectors they returned.
	Reads       uint64
	SectorsRead uint64

	image  io.ReaderAt
	closer io.Closer
}

// Controller keeps the attached drives.
type Controller struct {
	units map[uint8]*Drive

	// LastStatus is the status of the last operation, returned by AH=01h.
	LastStatus Status

	log *log.Logger
}

// New returns a controller with no drives.
func New(log *log.Logger) *Controller {
	return &Controller{
		units: make(map[uint8]*Drive),
		log:   log,
	}
}

// Attach opens the image at path as drive number.
func (c *Controller) Attach(number uint8, path string) error {
	d, err := diskfs.Open(path)
	if err != nil {
		return fmt.Errorf("attach %s: %w", path, err)
	}
	if err := c.attach(number, d.File, d.Size, d.File); err != nil {
		d.File.Close()
		return fmt.Errorf("attach %s: %w", path, err)
	}
	if c.log != nil {
		g := c.units[number].Geometry
		c.log.Printf("drive %#02x: %s, %d bytes, %s\n", number, path, d.Size, g)
	}
	return nil
}

// AttachReader attaches an in-memory image of size bytes as drive number.
func (c *Controller) AttachReader(number uint8, r io.ReaderAt, size int64) error {
	return c.attach(number, r, size, nil)
}

func (c *Controller) attach(number uint8, r io.ReaderAt, size int64, closer io.Closer) error {
	if size < SectorSize {
		return fmt.Errorf("image of %d bytes holds no sector: %w", size, StatusSectorNotFound)
	}
	if old, ok := c.units[number]; ok && old.closer != nil {
		old.closer.Close()
	}
	c.units[number] = &Drive{
		Number:   number,
		Geometry: GeometryFor(size),
		Size:     size,
		image:    r,
		closer:   closer,
	}
	return nil
}

// Drive returns the drive attached under number.
func (c *Controller) Drive(number uint8) (*Drive, bool) {
	d, ok := c.units[number]
	return d, ok
}

// Close detaches every drive.
func (c *Controller) Close() error {
	var first error
	for n, d := range c.units {
		if d.closer != nil {
			if err := d.closer.Close(); err != nil && first == nil {
				first = err
			}
		}
		delete(c.units, n)
	}
	return first
}

// Reset recalibrates a drive. Only the status is affected.
func (c *Controller) Reset(number uint8) error {
	if _, ok := c.units[number]; !ok {
		c.LastStatus = StatusNoDrive
		return StatusNoDrive
	}
	c.LastStatus = StatusOK
	return nil
}

// ReadSectors reads count sectors starting at cylinder/head/sector into a
// new buffer. Nothing is returned on failure, partial reads included.
func (c *Controller) ReadSectors(number uint8, count uint8, cylinder, head, sector uint16) ([]byte, error) {
	buf, err := c.read(number, count, cylinder, head, sector)
	if err != nil {
		if s, ok := err.(Status); ok {
			c.LastStatus = s
		} else {
			c.LastStatus = StatusSectorNotFound
		}
		if c.log != nil {
			c.log.Printf("drive %#02x: read %d at c%d h%d s%d: %v\n", number, count, cylinder, head, sector, err)
		}
		return nil, err
	}
	c.LastStatus = StatusOK
	return buf, nil
}

func (c *Controller) read(number uint8, count uint8, cylinder, head, sector uint16) ([]byte, error) {
	d, ok := c.units[number]
	if !ok {
		return nil, StatusNoDrive
	}
	d.Reads++
	if count == 0 {
		return nil, StatusBadCommand
	}
	lba, err := d.Geometry.LBA(cylinder, head, sector)
	if err != nil {
		return nil, err
	}
	// a single call never crosses the end of a track
	if uint32(sector)-1+uint32(count) > uint32(d.Geometry.Sectors) {
		return nil, StatusSectorNotFound
	}
	off := int64(lba) * SectorSize
	n := int64(count) * SectorSize
	if off+n > d.Size {
		return nil, StatusSectorNotFound
	}
	buf := make([]byte, n)
	if _, err := d.image.ReadAt(buf, off); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read lba %d: %w", lba, err)
	}
	d.SectorsRead += uint64(count)
	return buf, nil
}
