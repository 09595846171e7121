/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// smbFile is the .smb TOML document shape (spec.md §4.3).
type smbFile struct {
	Title           string `toml:"title"`
	Share           string `toml:"share"`
	Username        string `toml:"username"`
	Password        string `toml:"password"`
	Playlist        string `toml:"playlist"`
	SortBy          upnpSortBy `toml:"sort_by"`
	LimitTrackCount *int   `toml:"limit_track_count"`
}

var smbAudioExtensions = map[string]bool{
	".mp3": true, ".wma": true, ".aac": true, ".ogg": true, ".wav": true,
}

// smbHandle owns a cifs mount for the lifetime of one played SMB station.
type smbHandle struct {
	mountDir string
}

func (h *smbHandle) Close() error {
	if h.mountDir == "" {
		return nil
	}
	_ = exec.Command("umount", h.mountDir).Run()
	return os.RemoveAll(h.mountDir)
}

func loadSMB(path, index string, resume *ResumeInfo) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStationFile, err)
	}

	var doc smbFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStationFile, err)
	}

	mountDir, err := os.MkdirTemp("", "rradio-smb-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUSBCouldNotCreateTempDirectory, err)
	}

	opts := fmt.Sprintf("ro,username=%s,password=%s", doc.Username, doc.Password)
	cmd := exec.Command("mount", "-t", "cifs", doc.Share, mountDir, "-o", opts)
	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(mountDir)
		return nil, &ErrUSBCouldNotMountDevice{Device: doc.Share, Err: err}
	}

	handle := &smbHandle{mountDir: mountDir}

	var tracks []Track
	if doc.Playlist != "" {
		playlistPath := filepath.Join(mountDir, filepath.FromSlash(doc.Playlist))
		contents, err := os.ReadFile(playlistPath)
		if err != nil {
			_ = handle.Close()
			return nil, fmt.Errorf("%w: %v", ErrUSBErrorFindingTracks, err)
		}
		for _, line := range strings.Split(string(contents), "\n") {
			line = strings.TrimSpace(strings.ReplaceAll(line, "\\", "/"))
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			url := "file://" + filepath.Join(mountDir, filepath.FromSlash(line))
			tracks = append(tracks, Track{URL: url})
		}
	} else {
		err := filepath.WalkDir(mountDir, func(p string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if smbAudioExtensions[strings.ToLower(filepath.Ext(p))] {
				tracks = append(tracks, Track{URL: "file://" + p})
			}
			return nil
		})
		if err != nil {
			_ = handle.Close()
			return nil, fmt.Errorf("%w: %v", ErrUSBErrorFindingTracks, err)
		}
	}

	if len(tracks) == 0 {
		_ = handle.Close()
		return nil, ErrUSBTracksNotFound
	}

	if doc.LimitTrackCount != nil && *doc.LimitTrackCount >= 0 && *doc.LimitTrackCount < len(tracks) {
		tracks = tracks[:*doc.LimitTrackCount]
	}

	idx := index
	var title *string
	if doc.Title != "" {
		title = &doc.Title
	}

	return &Playlist{
		Tracks:       tracks,
		StationIndex: &idx,
		StationTitle: title,
		StationType:  TypeURLList,
		Metadata:     Metadata{Kind: MetadataSMB, SMBPlaylist: doc.Playlist},
		Handle:       handle,
	}, nil
}
