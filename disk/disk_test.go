package disk

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// image returns a floppy-sized image whose every sector starts with its LBA.
func image(size int) []byte {
	buf := make([]byte, size)
	for lba := 0; lba*SectorSize < size; lba++ {
		buf[lba*SectorSize] = byte(lba)
		buf[lba*SectorSize+1] = byte(lba >> 8)
	}
	return buf
}

func TestGeometry_LBA(t *testing.T) {
	tests := []struct {
		name    string
		c, h, s uint16
		want    uint32
		wantErr bool
	}{
		{"boot sector", 0, 0, 1, 0, false},
		{"second sector", 0, 0, 2, 1, false},
		{"second head", 0, 1, 1, 18, false},
		{"second cylinder", 1, 0, 1, 36, false},
		{"last sector", 79, 1, 18, 2879, false},
		{"sector zero", 0, 0, 0, 0, true},
		{"sector past track", 0, 0, 19, 0, true},
		{"head out of range", 0, 2, 1, 0, true},
		{"cylinder out of range", 80, 0, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Floppy144.LBA(tt.c, tt.h, tt.s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LBA() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("LBA() = %d, want %d", got, tt.want)
			}
			if err == nil {
				c, h, s := Floppy144.CHS(got)
				if c != tt.c || h != tt.h || s != tt.s {
					t.Errorf("CHS(%d) = %d/%d/%d", got, c, h, s)
				}
			}
		})
	}
}

func TestGeometryFor(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want Geometry
	}{
		{"1.44M", 1440 * 1024, Geometry{80, 2, 18}},
		{"720K", 720 * 1024, Geometry{80, 2, 9}},
		{"bare boot sector", 512, Floppy144},
		{"10M disk", 10 * 1024 * 1024, Geometry{20, 16, 63}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GeometryFor(tt.size); got != tt.want {
				t.Errorf("GeometryFor(%d) = %v, want %v", tt.size, got, tt.want)
			}
		})
	}
}

func TestDecodeCHS(t *testing.T) {
	// cylinder 0x123, sector 5, head 1
	c, h, s := DecodeCHS(0x2345, 1)
	if c != 0x123 || h != 1 || s != 5 {
		t.Errorf("DecodeCHS() = %#x/%d/%d", c, h, s)
	}
}

func TestController_ReadSectors(t *testing.T) {
	img := image(1440 * 1024)
	ctl := New(nil)
	if err := ctl.AttachReader(0, bytes.NewReader(img), int64(len(img))); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		drive      uint8
		count      uint8
		c, h, s    uint16
		wantLBA    int
		wantStatus Status
	}{
		{"sector 2", 0, 1, 0, 0, 2, 1, StatusOK},
		{"two sectors", 0, 2, 0, 1, 1, 18, StatusOK},
		{"no such drive", 0x80, 1, 0, 0, 1, 0, StatusNoDrive},
		{"zero count", 0, 0, 0, 0, 1, 0, StatusBadCommand},
		{"sector zero", 0, 1, 0, 0, 0, 0, StatusSectorNotFound},
		{"past end of track", 0, 2, 0, 0, 18, 0, StatusSectorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := ctl.ReadSectors(tt.drive, tt.count, tt.c, tt.h, tt.s)
			if ctl.LastStatus != tt.wantStatus {
				t.Errorf("LastStatus = %v, want %v", ctl.LastStatus, tt.wantStatus)
			}
			if tt.wantStatus != StatusOK {
				var s Status
				if !errors.As(err, &s) || s != tt.wantStatus || buf != nil {
					t.Errorf("ReadSectors() = %d bytes, %v", len(buf), err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadSectors() error = %v", err)
			}
			if len(buf) != int(tt.count)*SectorSize {
				t.Fatalf("read %d bytes, want %d", len(buf), int(tt.count)*SectorSize)
			}
			if got := int(buf[0]) | int(buf[1])<<8; got != tt.wantLBA {
				t.Errorf("first sector is lba %d, want %d", got, tt.wantLBA)
			}
		})
	}
}

func TestController_ShortImage(t *testing.T) {
	img := image(2 * SectorSize)
	ctl := New(nil)
	if err := ctl.AttachReader(0, bytes.NewReader(img), int64(len(img))); err != nil {
		t.Fatal(err)
	}
	if _, err := ctl.ReadSectors(0, 1, 0, 0, 2); err != nil {
		t.Errorf("sector 2 of a two sector image: %v", err)
	}
	if _, err := ctl.ReadSectors(0, 1, 0, 0, 3); !errors.Is(err, StatusSectorNotFound) {
		t.Errorf("sector 3 of a two sector image: %v", err)
	}
}

func TestController_Attach(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floppy.img")
	if err := os.WriteFile(path, image(1440*1024), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"non existing file", filepath.Join(dir, "foo.img"), true},
		{"existing file", path, false},
	}
	ctl := New(nil)
	defer ctl.Close()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ctl.Attach(0, tt.path); (err != nil) != tt.wantErr {
				t.Errorf("Controller.Attach() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	d, ok := ctl.Drive(0)
	if !ok || d.Geometry != Floppy144 {
		t.Fatalf("drive 0 = %+v, %v", d, ok)
	}
	buf, err := ctl.ReadSectors(0, 1, 1, 0, 1)
	if err != nil {
		t.Fatalf("cylinder 1 sector 1: %v", err)
	}
	if buf[0] != 36 {
		t.Errorf("cylinder 1 sector 1 is lba %d, want 36", buf[0])
	}
}
