/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package pipeline realizes the Audio Pipeline Adapter (spec.md §4.2) as
// a supervised gst-launch-1.0 child process, following the teacher's
// Pipeline.Start/StartWithOutput subprocess-management pattern.
package pipeline

import "time"

// State enumerates the pipeline's playback state (spec.md §3 "PipelineState").
type State int

const (
	Null State = iota
	Ready
	Paused
	Playing
)

func (s State) String() string {
	switch s {
	case Null:
		return "Null"
	case Ready:
		return "Ready"
	case Paused:
		return "Paused"
	case Playing:
		return "Playing"
	default:
		return "Unknown"
	}
}

// MessageKind discriminates the adapter's asynchronous message stream
// (spec.md §4.2).
type MessageKind int

const (
	MsgBuffering MessageKind = iota
	MsgTag
	MsgStateChanged
	MsgEos
	MsgError
)

// Message is a tagged variant from the pipeline's message stream.
// generation identifies which subprocess produced it, for is_src_of.
type Message struct {
	Kind MessageKind

	Generation uint64

	BufferingPercent uint8

	Tags Tags

	StatePrevious State
	StateCurrent  State

	ErrorDomain string
	ErrorCode   string
	ErrorMsg    string
	ErrorDebug  string
}

// Tags is an opaque bag of stream metadata (spec.md §9 "Tag(bag)").
// Image carries a data URI ("data:<mime>;base64,...") when the tag
// block included inline cover-art data, per spec.md §4.1.
type Tags struct {
	Title        string
	Organisation string
	Artist       string
	Album        string
	Genre        string
	Image        string
	Comment      string

	// Duration is the stream's total length, if the tag block reported
	// one (GST_TAG_DURATION); finite media (CD/USB/file) report it,
	// live streams generally do not.
	Duration    time.Duration
	HasDuration bool
}
