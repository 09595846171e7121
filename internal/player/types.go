/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package player

import (
	"time"

	"github.com/friendsincode/rradio/internal/pipeline"
	"github.com/friendsincode/rradio/internal/ping"
	"github.com/friendsincode/rradio/internal/station"
)

// CurrentStationKind discriminates CurrentStation (spec.md §3, §9
// "discriminated holder" design note).
type CurrentStationKind int

const (
	NoStation CurrentStationKind = iota
	PlayingStation
	FailedToPlayStation
)

// CurrentStation is broadcast whenever the playing station changes.
type CurrentStation struct {
	Kind CurrentStationKind

	Index *string
	Title *string
	Type  station.Type
	// Tracks is nil until the resolver's full result arrives (spec.md
	// §4.1 play_station step 3 publishes Tracks:None first).
	Tracks []station.Track

	Error string
}

// TrackTags is rebuilt from pipeline Tag messages and cleared on every
// track change (spec.md §3).
type TrackTags struct {
	Title        *string
	Organisation *string
	Artist       *string
	Album        *string
	Genre        *string
	Image        *string // data:<mime>;base64,... per spec.md §4.1
	Comment      *string
}

func (t TrackTags) Equal(o TrackTags) bool {
	return strPtrEq(t.Title, o.Title) && strPtrEq(t.Organisation, o.Organisation) &&
		strPtrEq(t.Artist, o.Artist) && strPtrEq(t.Album, o.Album) &&
		strPtrEq(t.Genre, o.Genre) && strPtrEq(t.Image, o.Image) && strPtrEq(t.Comment, o.Comment)
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ResumeInfo is stored in a map keyed by station index (spec.md §3
// "StationResumeInfo"), recorded only for non-UrlList stations.
type ResumeInfo struct {
	TrackIndex   int
	TrackPosition time.Duration
	Metadata     station.Metadata
}

// PlaylistState exists only while a station is active (spec.md §3).
type PlaylistState struct {
	Tracks            []station.Track
	CurrentTrackIndex int
	PauseBeforePlaying *time.Duration
	Metadata          station.Metadata
	Handle            station.Handle
}

// PlayerState is the single source of truth, broadcast as a complete
// snapshot on every change (spec.md §3 invariant (v)).
type PlayerState struct {
	PipelineState      pipeline.State
	CurrentStation     CurrentStation
	PauseBeforePlaying *time.Duration
	CurrentTrackIndex  int
	CurrentTrackTags   TrackTags
	IsMuted            bool
	Volume             int32
	Buffering          uint8
	TrackDuration      *time.Duration
	TrackPosition      *time.Duration
	PingTimes          ping.Times
	LatestError        *ErrorReport
}

// ErrorReport is the UTC-timestamped human-readable error surfaced to
// clients (spec.md §7 "every fallible command path records human
// readable error text with UTC timestamp").
type ErrorReport struct {
	Timestamp time.Time
	Message   string
}

// Diff holds, for every PlayerState field, either "unchanged" or the
// new value (spec.md §4.5 "PlayerStateDiff"). Optional fields use a
// three-way NoChange/ChangedToNone/ChangedToSome encoding.
type Diff struct {
	PipelineState  *pipeline.State
	CurrentStation *CurrentStation

	PauseBeforePlaying OptionalDurationChange

	CurrentTrackIndex *int
	CurrentTrackTags  *TrackTags

	IsMuted   *bool
	Volume    *int32
	Buffering *uint8

	TrackDuration OptionalDurationChange
	TrackPosition OptionalDurationChange

	PingTimes   *ping.Times
	LatestError OptionalErrorChange
}

// optionalChangeKind discriminates NoChange/ChangedToNone/ChangedToSome for
// an optional field (spec.md §4.5).
type optionalChangeKind int

const (
	NoChange optionalChangeKind = iota
	ChangedToNone
	ChangedToSome
)

type OptionalDurationChange struct {
	Kind  optionalChangeKind
	Value time.Duration
}

type OptionalErrorChange struct {
	Kind  optionalChangeKind
	Value ErrorReport
}

// DiffStates computes a Diff of next relative to prev (spec.md §4.5:
// "a PlayerStateDiff holds the same fields ... present iff changed").
func DiffStates(prev, next PlayerState) Diff {
	var d Diff

	if prev.PipelineState != next.PipelineState {
		v := next.PipelineState
		d.PipelineState = &v
	}
	if !currentStationEqual(prev.CurrentStation, next.CurrentStation) {
		v := next.CurrentStation
		d.CurrentStation = &v
	}

	d.PauseBeforePlaying = diffOptionalDuration(prev.PauseBeforePlaying, next.PauseBeforePlaying)

	if prev.CurrentTrackIndex != next.CurrentTrackIndex {
		v := next.CurrentTrackIndex
		d.CurrentTrackIndex = &v
	}
	if !prev.CurrentTrackTags.Equal(next.CurrentTrackTags) {
		v := next.CurrentTrackTags
		d.CurrentTrackTags = &v
	}
	if prev.IsMuted != next.IsMuted {
		v := next.IsMuted
		d.IsMuted = &v
	}
	if prev.Volume != next.Volume {
		v := next.Volume
		d.Volume = &v
	}
	if prev.Buffering != next.Buffering {
		v := next.Buffering
		d.Buffering = &v
	}

	d.TrackDuration = diffOptionalDuration(prev.TrackDuration, next.TrackDuration)
	d.TrackPosition = diffOptionalDuration(prev.TrackPosition, next.TrackPosition)

	if prev.PingTimes != next.PingTimes {
		v := next.PingTimes
		d.PingTimes = &v
	}

	d.LatestError = diffOptionalError(prev.LatestError, next.LatestError)

	return d
}

func diffOptionalDuration(prev, next *time.Duration) OptionalDurationChange {
	switch {
	case prev == nil && next == nil:
		return OptionalDurationChange{Kind: NoChange}
	case next == nil:
		return OptionalDurationChange{Kind: ChangedToNone}
	case prev == nil || *prev != *next:
		return OptionalDurationChange{Kind: ChangedToSome, Value: *next}
	default:
		return OptionalDurationChange{Kind: NoChange}
	}
}

func diffOptionalError(prev, next *ErrorReport) OptionalErrorChange {
	switch {
	case prev == nil && next == nil:
		return OptionalErrorChange{Kind: NoChange}
	case next == nil:
		return OptionalErrorChange{Kind: ChangedToNone}
	case prev == nil || prev.Message != next.Message || !prev.Timestamp.Equal(next.Timestamp):
		return OptionalErrorChange{Kind: ChangedToSome, Value: *next}
	default:
		return OptionalErrorChange{Kind: NoChange}
	}
}

func currentStationEqual(a, b CurrentStation) bool {
	if a.Kind != b.Kind {
		return false
	}
	if len(a.Tracks) != len(b.Tracks) {
		return false
	}
	return strPtrEq(a.Index, b.Index) && strPtrEq(a.Title, b.Title) && a.Type == b.Type && a.Error == b.Error
}
