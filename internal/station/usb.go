/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/friendsincode/rradio/internal/config"
)

var usbAudioExtensions = map[string]bool{
	".mp3": true, ".wma": true, ".aac": true, ".ogg": true, ".wav": true,
}

type usbHandle struct {
	mountDir string
}

func (h *usbHandle) Close() error {
	if h.mountDir == "" {
		return nil
	}
	_ = exec.Command("umount", h.mountDir).Run()
	return os.RemoveAll(h.mountDir)
}

// loadUSB mounts the configured vfat device and picks a directory of
// tracks to play: the resumed {artist,album} pair if one is given, else
// a random leaf directory (spec.md §4.3 decision 2).
func loadUSB(cfg *config.Config, index string, resume *ResumeInfo) (*Playlist, error) {
	if cfg.USB.Station == "" {
		return nil, ErrUSBNotEnabled
	}

	device := cfg.USB.Device
	if device == "" {
		return nil, ErrUSBNotConnected
	}
	if _, err := os.Stat(device); err != nil {
		return nil, ErrUSBNotConnected
	}

	mountDir, err := os.MkdirTemp("", "rradio-usb-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUSBCouldNotCreateTempDirectory, err)
	}

	cmd := exec.Command("mount", "-t", "vfat", "-o", "ro,noatime", device, mountDir)
	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(mountDir)
		return nil, &ErrUSBCouldNotMountDevice{Device: device, Err: err}
	}

	handle := &usbHandle{mountDir: mountDir}

	root := cfg.USB.Path
	if root == "" {
		root = mountDir
	} else {
		root = filepath.Join(mountDir, root)
	}

	var artist, album string
	if resume != nil && resume.Metadata.Kind == MetadataUSB && resume.Metadata.USBArtist != "" {
		artist = resume.Metadata.USBArtist
		album = resume.Metadata.USBAlbum
	} else {
		artist, album, err = pickRandomArtistAlbum(root)
		if err != nil {
			_ = handle.Close()
			return nil, err
		}
	}

	albumDir := filepath.Join(root, artist, album)
	entries, err := os.ReadDir(albumDir)
	if err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("%w: %v", ErrUSBErrorFindingTracks, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if usbAudioExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(albumDir, e.Name()))
		}
	}
	if len(paths) == 0 {
		_ = handle.Close()
		return nil, ErrUSBTracksNotFound
	}

	tracks := make([]Track, 0, len(paths))
	for _, p := range paths {
		tracks = append(tracks, usbReadTrack(p))
	}

	idx := index
	return &Playlist{
		Tracks:       tracks,
		StationIndex: &idx,
		StationType:  TypeUSB,
		Metadata:     Metadata{Kind: MetadataUSB, USBArtist: artist, USBAlbum: album},
		Handle:       handle,
	}, nil
}

// pickRandomArtistAlbum chooses a random <root>/<artist>/<album> pair.
func pickRandomArtistAlbum(root string) (artist, album string, err error) {
	artists, err := os.ReadDir(root)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUSBErrorFindingTracks, err)
	}
	artists = filterDirs(artists)
	if len(artists) == 0 {
		return "", "", ErrUSBTracksNotFound
	}
	a := artists[rand.Intn(len(artists))]

	albums, err := os.ReadDir(filepath.Join(root, a.Name()))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUSBErrorFindingTracks, err)
	}
	albums = filterDirs(albums)
	if len(albums) == 0 {
		return "", "", ErrUSBTracksNotFound
	}
	b := albums[rand.Intn(len(albums))]

	return a.Name(), b.Name(), nil
}

func filterDirs(entries []os.DirEntry) []os.DirEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e)
		}
	}
	return out
}

// usbReadTrack builds a Track from a file path, enriching title/artist/
// album from ID3-family tags when they can be read; the bare path-derived
// URL is returned either way.
func usbReadTrack(path string) Track {
	track := Track{URL: "file://" + path}

	f, err := os.Open(path)
	if err != nil {
		return track
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return track
	}

	if title := meta.Title(); title != "" {
		track.Title = &title
	}
	if artist := meta.Artist(); artist != "" {
		track.Artist = &artist
	}
	if album := meta.Album(); album != "" {
		track.Album = &album
	}
	return track
}
