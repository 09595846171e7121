/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package station resolves a two-character station index into a
// playable Playlist, per spec.md §4.3. It dispatches to one loader per
// station file extension (or to CD/USB device loaders), following the
// "capability contract" design note in spec.md §9:
//
//	load_station_parts(metadata?) -> (title?, tracks, metadata, handle)
package station

import "io"

// Type enumerates the station kinds spec.md §3 defines.
type Type int

const (
	TypeURLList Type = iota
	TypeFileServer
	TypeCD
	TypeUSB
	TypeUPnP
)

func (t Type) String() string {
	switch t {
	case TypeURLList:
		return "UrlList"
	case TypeFileServer:
		return "FileServer"
	case TypeCD:
		return "CD"
	case TypeUSB:
		return "USB"
	case TypeUPnP:
		return "UPnP"
	default:
		return "Unknown"
	}
}

// Track is one playable item. Immutable after creation (spec.md §3).
type Track struct {
	Title        *string
	Artist       *string
	Album        *string
	URL          string
	IsNotification bool
}

// MetadataKind discriminates the opaque per-loader resume payload
// (spec.md §9: "a discriminated holder, type tag + payload, rather than
// unchecked downcasting").
type MetadataKind int

const (
	MetadataNone MetadataKind = iota
	MetadataCD
	MetadataUSB
	MetadataUPnP
	MetadataSMB
)

// Metadata is opaque to the Controller: it only stores and returns it
// (spec.md §3 "Metadata invariants").
type Metadata struct {
	Kind MetadataKind

	// USB: replay the same {artist,album} pair without a fresh directory walk.
	USBArtist string
	USBAlbum  string

	// CD: number of audio tracks found on the last read, to skip a TOC re-read.
	CDTrackCount int

	// UPnP: the browsed object ID, to skip a re-browse when resuming.
	UPnPObjectID string

	// SMB: the resolved share-relative playlist path.
	SMBPlaylist string
}

// Handle owns mount/device lifetimes for the duration of one played
// station; it is released (dropped) when playback of that station ends
// (spec.md §3 "Ownership").
type Handle interface {
	io.Closer
}

// noopHandle is used by loaders that own no external resource (m3u, pls).
type noopHandle struct{}

func (noopHandle) Close() error { return nil }

// Station is produced by a loader for one play_station call.
type Station struct {
	Index    *string
	Title    *string
	Type     Type
	Tracks   []Track
	Metadata Metadata
	Handle   Handle
}

// Playlist is the resolver's successful result (spec.md §3).
type Playlist struct {
	Tracks       []Track
	StationIndex *string
	StationTitle *string
	StationType  Type
	Metadata     Metadata
	Handle       Handle
}
