/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/friendsincode/rradio/internal/config"
)

// ResumeInfo is what the Controller hands back on a re-played station so
// a loader can skip expensive rediscovery (spec.md §4.3 "Metadata invariants").
type ResumeInfo struct {
	Metadata Metadata
}

// Resolve maps a two-character station index to a Playlist, following
// the decision order in spec.md §4.3: CD station, then USB station,
// then a directory scan dispatched by file extension.
func Resolve(cfg *config.Config, index string, resume *ResumeInfo) (*Playlist, error) {
	if cfg.CD.Station != "" && index == cfg.CD.Station {
		return loadCD(cfg, index, resume)
	}

	if cfg.USB.Station != "" && index == cfg.USB.Station {
		return loadUSB(cfg, index, resume)
	}

	return resolveFromDirectory(cfg, index, resume)
}

func resolveFromDirectory(cfg *config.Config, index string, resume *ResumeInfo) (*Playlist, error) {
	entries, err := os.ReadDir(cfg.StationsDirectory)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStationsDirectoryIO, err)
	}

	var match string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), index) {
			match = e.Name()
			break
		}
	}

	if match == "" {
		return nil, &ErrStationNotFound{Index: index, Directory: cfg.StationsDirectory}
	}

	path := filepath.Join(cfg.StationsDirectory, match)
	ext := strings.ToLower(filepath.Ext(match))

	switch ext {
	case ".m3u":
		return loadM3U(path, index)
	case ".pls":
		return loadPLS(path, index)
	case ".upnp":
		return loadUPnP(path, index, resume)
	case ".smb":
		return loadSMB(path, index, resume)
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrBadStationFile, ext)
	}
}

func loadM3U(path, index string) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStationFile, err)
	}

	parsed := parseM3U(string(data))

	tracks := make([]Track, 0, len(parsed.Tracks))
	for _, t := range parsed.Tracks {
		tracks = append(tracks, Track{Title: t.Title, URL: t.URL})
	}

	idx := index
	return &Playlist{
		Tracks:       tracks,
		StationIndex: &idx,
		StationTitle: parsed.Title,
		StationType:  TypeURLList,
		Metadata:     Metadata{Kind: MetadataNone},
		Handle:       noopHandle{},
	}, nil
}

func loadPLS(path, index string) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStationFile, err)
	}

	parsed := parsePLS(string(data))

	tracks := make([]Track, 0, len(parsed.Tracks))
	for _, t := range parsed.Tracks {
		tracks = append(tracks, Track{Title: t.Title, URL: t.URL})
	}

	idx := index
	return &Playlist{
		Tracks:       tracks,
		StationIndex: &idx,
		StationType:  TypeURLList,
		Metadata:     Metadata{Kind: MetadataNone},
		Handle:       noopHandle{},
	}, nil
}
