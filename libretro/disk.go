package libretro

import (
	"fmt"
	"unsafe"
)

func (s *Session) diskControl() (*diskControlExtCallback, error) {
	if !s.running {
		return nil, ErrNotRunning
	}
	if s.disk == nil {
		return nil, ErrNoDiskControl
	}
	return s.disk, nil
}

// C bool results come back in the low byte of a register.
func cBool(v uintptr) bool { return v&0xff != 0 }

// DiskState reports the selected image, the number of images and whether
// the virtual tray is open.
func (s *Session) DiskState() (index, count uint, ejected bool, err error) {
	d, err := s.diskControl()
	if err != nil {
		return 0, 0, false, err
	}
	index = uint(uint32(s.core.invoke(d.getImageIndex)))
	count = uint(uint32(s.core.invoke(d.getNumImages)))
	ejected = cBool(s.core.invoke(d.getEjectState))
	return index, count, ejected, nil
}

// EjectDisk opens or closes the virtual tray.
func (s *Session) EjectDisk(eject bool) error {
	d, err := s.diskControl()
	if err != nil {
		return err
	}
	if !cBool(s.core.invoke(d.setEjectState, b2u(eject))) {
		return fmt.Errorf("set eject state %v: %w", eject, ErrCoreRejected)
	}
	return nil
}

// SetDiskIndex swaps to image index. The tray is opened around the swap
// when it was closed.
func (s *Session) SetDiskIndex(index uint) error {
	cur, count, ejected, err := s.DiskState()
	if err != nil {
		return err
	}
	if index >= count {
		return fmt.Errorf("disk index %d out of range (%d images)", index, count)
	}
	if index == cur {
		return nil
	}

	if !ejected {
		if err := s.EjectDisk(true); err != nil {
			return err
		}
	}
	if !cBool(s.core.invoke(s.disk.setImageIndex, uintptr(index))) {
		return fmt.Errorf("set disk index %d: %w", index, ErrCoreRejected)
	}
	if !ejected {
		return s.EjectDisk(false)
	}
	return nil
}

// DiskLabel returns the label of image index, or "" when the core offers
// none.
func (s *Session) DiskLabel(index uint) string {
	d, err := s.diskControl()
	if err != nil || d.getImageLabel == 0 {
		return ""
	}
	p := s.core.invoke(d.getImageLabel, uintptr(index))
	if p == 0 {
		return ""
	}
	return goString((*byte)(unsafe.Pointer(p)))
}
