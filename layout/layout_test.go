package layout

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(l *Layout)
		base    func() Layout
		wantErr error
	}{
		{"flat", func(l *Layout) {}, Flat, nil},
		{"segmented", func(l *Layout) {}, Segmented, nil},
		{"segment does not match origin", func(l *Layout) { l.Segment = 0x07C0 }, Flat, ErrSegmentMismatch},
		{"origin does not match segment", func(l *Layout) { l.Origin = 0x7C00 }, Segmented, ErrSegmentMismatch},
		{"buffer on top of image", func(l *Layout) { l.Buffer = 0x7D00 }, Flat, ErrOverlap},
		{"stack runs into buffer", func(l *Layout) { l.StackTop = 0x8100 }, Flat, ErrOverlap},
		{"buffer over vector table", func(l *Layout) { l.Buffer = 0x200 }, Flat, ErrOverlap},
		{"buffer below segment", func(l *Layout) { l.Buffer = 0x1000 }, Segmented, ErrRange},
		{"buffer above conventional memory", func(l *Layout) { l.Buffer = 0xA0000 }, Flat, ErrRange},
		{"empty buffer", func(l *Layout) { l.BufferSectors = 0 }, Flat, ErrRange},
		{"buffer crosses 64k", func(l *Layout) { l.Buffer = 0xFF00 }, Segmented, ErrDMABoundary},
		{"protected stack over image", func(l *Layout) { l.ProtectedStack = 0x7E00 }, Flat, ErrOverlap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.base()
			tt.modify(&l)
			err := l.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStackPointer(t *testing.T) {
	tests := []struct {
		name string
		l    Layout
		want uint16
	}{
		{"flat", Flat(), 0x7C00},
		{"segmented wraps", Segmented(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.l.StackPointer(); got != tt.want {
				t.Errorf("StackPointer() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := Segmented().Offset(0x7E00); got != 0x200 {
		t.Errorf("Offset() = %#x", got)
	}
	if got := Flat().Offset(0x7E00); got != 0x7E00 {
		t.Errorf("Offset() = %#x", got)
	}
}

func TestByName(t *testing.T) {
	if _, err := ByName("banked"); err == nil {
		t.Error("expected error for unknown layout")
	}
	l, err := ByName("segmented")
	if err != nil || l.Segment != 0x07C0 {
		t.Errorf("ByName(segmented) = %+v, %v", l, err)
	}
}
