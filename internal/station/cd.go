/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/friendsincode/rradio/internal/config"
)

// Linux CDROM ioctl numbers and status codes (linux/cdrom.h), used via
// unix.IoctlGetInt/IoctlSetInt, or via a raw unix.Syscall for the two
// struct-valued TOC reads (spec.md §4.3 decision 1).
const (
	cdromDriveStatus  = 0x5326
	cdromDiscStatus   = 0x5327
	cdromReadTOCHdr   = 0x5305
	cdromReadTOCEntry = 0x5306
	cdromLockDoor     = 0x5329
	cdromEject        = 0x5309

	cdsNoInfo    = 0
	cdsNoDisc    = 1
	cdsTrayOpen  = 2
	cdsDriveNotReady = 3
	cdsDiscOK    = 4

	cdsAudio     = 100
	cdsData1     = 101
	cdsData2     = 102
	cdsXA21      = 103
	cdsXA22      = 104
	cdsMixed     = 105

	cdtTrackAudio = 0
)

type cdHandle struct {
	device string
}

func (h *cdHandle) Close() error { return nil }

// loadCD reads the disc's table of contents and emits one cdda:// URL
// per audio track, skipping data tracks (spec.md §4.3 decision 1).
func loadCD(cfg *config.Config, index string, resume *ResumeInfo) (*Playlist, error) {
	if cfg.CD.Station == "" {
		return nil, ErrCDNotEnabled
	}

	device := cfg.CD.Device
	if device == "" {
		device = "/dev/cdrom"
	}

	fd, err := unix.Open(device, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCDCannotOpenDevice, err)
	}
	defer unix.Close(fd)

	driveStatus, err := unix.IoctlGetInt(fd, cdromDriveStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCDIoCtl, err)
	}
	switch driveStatus {
	case cdsNoInfo:
		return nil, ErrCDNoInfo
	case cdsTrayOpen:
		return nil, ErrCDTrayIsOpen
	case cdsDriveNotReady:
		return nil, ErrCDNotReady
	case cdsDiscOK:
		// fall through to disc status check
	default:
		return nil, &ErrCDUnknownDriveStatus{Status: driveStatus}
	}

	discStatus, err := unix.IoctlGetInt(fd, cdromDiscStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCDIoCtl, err)
	}
	switch discStatus {
	case cdsNoDisc:
		return nil, ErrCDNoDisc
	case cdsAudio, cdsMixed:
		// proceed
	case cdsData1:
		return nil, ErrCDIsData1
	case cdsData2:
		return nil, ErrCDIsData2
	case cdsXA21:
		return nil, ErrCDIsXA21
	case cdsXA22:
		return nil, ErrCDIsXA22
	default:
		return nil, &ErrCDUnknownDiscStatus{Status: discStatus}
	}

	if resume != nil && resume.Metadata.Kind == MetadataCD && resume.Metadata.CDTrackCount > 0 {
		return cddaPlaylist(index, resume.Metadata.CDTrackCount, device), nil
	}

	firstTrack, lastTrack, err := readTOCHeader(fd)
	if err != nil {
		return nil, err
	}

	trackCount := 0
	for track := firstTrack; track <= lastTrack; track++ {
		isAudio, err := readTOCEntryIsAudio(fd, track)
		if err != nil {
			return nil, err
		}
		if isAudio {
			trackCount++
		}
	}

	return cddaPlaylist(index, trackCount, device), nil
}

// tocHeader mirrors struct cdrom_tochdr.
type tocHeader struct {
	FirstTrack byte
	LastTrack  byte
}

func readTOCHeader(fd int) (first, last int, err error) {
	// The ioctl's return value is the populated struct; unix doesn't
	// expose a typed wrapper for CDROMREADTOCHDR so the two bytes are
	// read via a raw syscall against a 2-byte buffer.
	var hdr [2]byte
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(cdromReadTOCHdr), uintptr(unsafe.Pointer(&hdr)))
	if errno != 0 {
		return 0, 0, fmt.Errorf("%w: tochdr: %v", ErrCDIoCtl, errno)
	}
	return int(hdr[0]), int(hdr[1]), nil
}

// tocEntryRequest mirrors struct cdrom_tocentry: the track number, one
// byte holding the adr (low nibble) and ctrl (high nibble) bitfields, the
// address format, the 4-byte address union, and the data mode, padded to
// the struct's 12-byte size.
type tocEntryRequest struct {
	Track      byte
	AdrCtrl    byte
	AddrFormat byte
	_          byte
	Addr       [4]byte
	DataMode   byte
	_          [3]byte
}

func readTOCEntryIsAudio(fd int, track int) (bool, error) {
	var req tocEntryRequest
	req.Track = byte(track)
	req.AddrFormat = 1 // CDROM_LBA

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(cdromReadTOCEntry), uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		return false, fmt.Errorf("%w: tocentry %d: %v", ErrCDIoCtl, track, errno)
	}

	// Ctrl nibble bit 2 set (CDROM_DATA_TRACK) means data track (per Red
	// Book TOC control field).
	return (req.AdrCtrl>>4)&0x04 == 0, nil
}

func cddaPlaylist(index string, trackCount int, device string) *Playlist {
	tracks := make([]Track, 0, trackCount)
	for n := 1; n <= trackCount; n++ {
		tracks = append(tracks, Track{URL: fmt.Sprintf("cdda://%d", n)})
	}

	idx := index
	return &Playlist{
		Tracks:       tracks,
		StationIndex: &idx,
		StationType:  TypeCD,
		Metadata:     Metadata{Kind: MetadataCD, CDTrackCount: trackCount},
		Handle:       &cdHandle{device: device},
	}
}

// Eject unlocks and ejects the disc tray (spec.md §8 scenario F).
func Eject(cfg *config.Config) error {
	device := cfg.CD.Device
	if device == "" {
		device = "/dev/cdrom"
	}

	fd, err := unix.Open(device, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return ErrEjectFailedToOpenDevice
	}
	defer unix.Close(fd)

	_ = unix.IoctlSetInt(fd, cdromLockDoor, 0)

	if _, err := unix.IoctlGetInt(fd, cdromEject); err != nil {
		return ErrEjectFailedToEject
	}
	return nil
}
