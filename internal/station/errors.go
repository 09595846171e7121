/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"errors"
	"fmt"
)

// Sentinel station errors (spec.md §7 "StationError"). Wrapped with
// fmt.Errorf("...: %w", ...) so callers use errors.Is/errors.As instead
// of string matching.
var (
	ErrFileServerNotEnabled    = errors.New("file server station type not enabled")
	ErrStationsDirectoryIO     = errors.New("stations directory io error")
	ErrBadStationFile          = errors.New("bad station file")
)

// ErrStationNotFound reports that no file in the stations directory
// matched the requested index.
type ErrStationNotFound struct {
	Index     string
	Directory string
}

func (e *ErrStationNotFound) Error() string {
	return fmt.Sprintf("station %q not found in %s", e.Index, e.Directory)
}

// CD errors (spec.md §7 "CdError").
var (
	ErrCDNotEnabled        = errors.New("cd station type not enabled")
	ErrCDCannotOpenDevice  = errors.New("cannot open cd device")
	ErrCDIoCtl             = errors.New("cd ioctl failed")
	ErrCDNoInfo            = errors.New("no cd drive info")
	ErrCDNoDisc            = errors.New("no disc in drive")
	ErrCDTrayIsOpen        = errors.New("cd tray is open")
	ErrCDNotReady          = errors.New("cd drive not ready")
	ErrCDIsData1           = errors.New("disc is a data cd (mode 1)")
	ErrCDIsData2           = errors.New("disc is a data cd (mode 2)")
	ErrCDIsXA21            = errors.New("disc is xa mode 2 form 1")
	ErrCDIsXA22            = errors.New("disc is xa mode 2 form 2")
)

// ErrCDUnknownDriveStatus wraps an undocumented CDROM_DRIVE_STATUS result.
type ErrCDUnknownDriveStatus struct{ Status int }

func (e *ErrCDUnknownDriveStatus) Error() string {
	return fmt.Sprintf("unknown cd drive status %d", e.Status)
}

// ErrCDUnknownDiscStatus wraps an undocumented CDROM_DISC_STATUS result.
type ErrCDUnknownDiscStatus struct{ Status int }

func (e *ErrCDUnknownDiscStatus) Error() string {
	return fmt.Sprintf("unknown cd disc status %d", e.Status)
}

// USB/mount errors (spec.md §7 "UsbError / MountError").
var (
	ErrUSBNotEnabled                  = errors.New("usb station type not enabled")
	ErrUSBNotConnected                = errors.New("usb device not connected")
	ErrUSBCouldNotCreateTempDirectory = errors.New("could not create temporary mount directory")
	ErrUSBErrorFindingTracks          = errors.New("error finding tracks on usb device")
	ErrUSBTracksNotFound              = errors.New("no tracks found on usb device")
)

// ErrUSBCouldNotMountDevice reports a mount(8) failure.
type ErrUSBCouldNotMountDevice struct {
	Device string
	Err    error
}

func (e *ErrUSBCouldNotMountDevice) Error() string {
	return fmt.Sprintf("could not mount device %s: %v", e.Device, e.Err)
}
func (e *ErrUSBCouldNotMountDevice) Unwrap() error { return e.Err }

// Eject errors (spec.md §7 "EjectError").
var (
	ErrEjectFailedToOpenDevice = errors.New("failed to open device for eject")
	ErrEjectFailedToEject      = errors.New("failed to eject device")
)
