package bootimg

import (
	"fmt"
	"os"

	diskfs "github.com/diskfs/go-diskfs"

	"bootsector/disk"
)

// FloppySize is the size of a 1.44M floppy image.
var FloppySize = int64(disk.Floppy144.TotalSectors()) * Size

// Floppy returns a raw 1.44M image: the boot sector, then the given sectors
// starting at sector 2. Data past the end of the disk is dropped.
func Floppy(boot []byte, sectors ...[]byte) []byte {
	img := make([]byte, FloppySize)
	copy(img, boot)
	off := Size
	for _, s := range sectors {
		if off >= len(img) {
			break
		}
		copy(img[off:], s)
		off += (len(s) + Size - 1) / Size * Size
	}
	return img
}

// WriteFloppy writes Floppy(boot, sectors...) to path through go-diskfs. An
// existing file is replaced.
func WriteFloppy(path string, boot []byte, sectors ...[]byte) error {
	if err := Validate(boot); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("bootimg: replace %s: %w", path, err)
		}
	}

	d, err := diskfs.Create(path, FloppySize, diskfs.Raw, diskfs.SectorSize(Size))
	if err != nil {
		return fmt.Errorf("bootimg: create %s: %w", path, err)
	}
	defer d.File.Close()

	if _, err := d.File.WriteAt(Floppy(boot, sectors...), 0); err != nil {
		return fmt.Errorf("bootimg: write %s: %w", path, err)
	}
	return nil
}
