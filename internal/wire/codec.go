/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/friendsincode/rradio/internal/pipeline"
	"github.com/friendsincode/rradio/internal/ping"
	"github.com/friendsincode/rradio/internal/player"
	"github.com/friendsincode/rradio/internal/station"
)

// Command tags, one byte per CommandKind (spec.md §6: "A Command is the
// same tagged-variant schema as in §3").
const (
	tagSetChannel uint8 = iota
	tagPlayPause
	tagPrevious
	tagSmartPrevious
	tagNext
	tagNth
	tagSeekTo
	tagSeekBackwards
	tagSeekForwards
	tagSetVolume
	tagVolumeUp
	tagVolumeDown
	tagSetMuted
	tagToggleMuted
	tagSetPlaylist
	tagEject
	tagDebugPipeline
)

// EncodeCommand serializes cmd into the tag+length+payload form.
func EncodeCommand(cmd player.Command) []byte {
	var buf bytes.Buffer

	switch cmd.Kind {
	case player.CmdSetChannel:
		buf.WriteByte(tagSetChannel)
		writeString(&buf, cmd.ChannelIndex)
	case player.CmdPlayPause:
		buf.WriteByte(tagPlayPause)
	case player.CmdPrevious:
		buf.WriteByte(tagPrevious)
	case player.CmdSmartPrevious:
		buf.WriteByte(tagSmartPrevious)
	case player.CmdNext:
		buf.WriteByte(tagNext)
	case player.CmdNth:
		buf.WriteByte(tagNth)
		writeU32(&buf, uint32(cmd.NthIndex))
	case player.CmdSeekTo:
		buf.WriteByte(tagSeekTo)
		writeDuration(&buf, cmd.SeekDuration)
	case player.CmdSeekBackwards:
		buf.WriteByte(tagSeekBackwards)
		writeDuration(&buf, cmd.SeekDuration)
	case player.CmdSeekForwards:
		buf.WriteByte(tagSeekForwards)
		writeDuration(&buf, cmd.SeekDuration)
	case player.CmdSetVolume:
		buf.WriteByte(tagSetVolume)
		writeI32(&buf, cmd.Volume)
	case player.CmdVolumeUp:
		buf.WriteByte(tagVolumeUp)
	case player.CmdVolumeDown:
		buf.WriteByte(tagVolumeDown)
	case player.CmdSetMuted:
		buf.WriteByte(tagSetMuted)
		writeBool(&buf, cmd.Muted)
	case player.CmdToggleMuted:
		buf.WriteByte(tagToggleMuted)
	case player.CmdSetPlaylist:
		buf.WriteByte(tagSetPlaylist)
		writeString(&buf, cmd.PlaylistTitle)
		writeU32(&buf, uint32(len(cmd.PlaylistURLs)))
		for _, u := range cmd.PlaylistURLs {
			writeString(&buf, u)
		}
	case player.CmdEject:
		buf.WriteByte(tagEject)
	case player.CmdDebugPipeline:
		buf.WriteByte(tagDebugPipeline)
	}

	return buf.Bytes()
}

// DecodeCommand parses a command frame produced by EncodeCommand.
func DecodeCommand(data []byte) (player.Command, error) {
	r := bytes.NewReader(data)
	tag, err := r.ReadByte()
	if err != nil {
		return player.Command{}, fmt.Errorf("decode command: %w", err)
	}

	switch tag {
	case tagSetChannel:
		index, err := readString(r)
		if err != nil {
			return player.Command{}, err
		}
		return player.SetChannel(index), nil
	case tagPlayPause:
		return player.PlayPause, nil
	case tagPrevious:
		return player.Previous, nil
	case tagSmartPrevious:
		return player.SmartPrevious, nil
	case tagNext:
		return player.Next, nil
	case tagNth:
		n, err := readU32(r)
		if err != nil {
			return player.Command{}, err
		}
		return player.Nth(uint(n)), nil
	case tagSeekTo:
		d, err := readDuration(r)
		if err != nil {
			return player.Command{}, err
		}
		return player.SeekTo(d), nil
	case tagSeekBackwards:
		d, err := readDuration(r)
		if err != nil {
			return player.Command{}, err
		}
		return player.SeekBackwards(d), nil
	case tagSeekForwards:
		d, err := readDuration(r)
		if err != nil {
			return player.Command{}, err
		}
		return player.SeekForwards(d), nil
	case tagSetVolume:
		v, err := readI32(r)
		if err != nil {
			return player.Command{}, err
		}
		return player.SetVolume(v), nil
	case tagVolumeUp:
		return player.VolumeUp, nil
	case tagVolumeDown:
		return player.VolumeDown, nil
	case tagSetMuted:
		m, err := readBool(r)
		if err != nil {
			return player.Command{}, err
		}
		return player.SetMuted(m), nil
	case tagToggleMuted:
		return player.ToggleMuted, nil
	case tagSetPlaylist:
		title, err := readString(r)
		if err != nil {
			return player.Command{}, err
		}
		count, err := readU32(r)
		if err != nil {
			return player.Command{}, err
		}
		urls := make([]string, 0, count)
		for i := uint32(0); i < count; i++ {
			u, err := readString(r)
			if err != nil {
				return player.Command{}, err
			}
			urls = append(urls, u)
		}
		return player.SetPlaylist(title, urls), nil
	case tagEject:
		return player.Eject, nil
	case tagDebugPipeline:
		return player.DebugPipeline, nil
	default:
		return player.Command{}, fmt.Errorf("decode command: unknown tag %d", tag)
	}
}

// Event tags (spec.md §4.5).
const (
	tagProtocolVersion uint8 = iota
	tagPlayerStateChanged
	tagLogMessage
)

// EventKind discriminates the Event union.
type EventKind int

const (
	EventProtocolVersion EventKind = iota
	EventPlayerStateChanged
	EventLogMessage
)

// Event is the port layer's outbound message (spec.md §4.5).
type Event struct {
	Kind EventKind

	Version string
	Diff    player.Diff
	Log     player.LogMessage
}

// EncodeEvent serializes ev into the tag+length+payload form.
func EncodeEvent(ev Event) []byte {
	var buf bytes.Buffer

	switch ev.Kind {
	case EventProtocolVersion:
		buf.WriteByte(tagProtocolVersion)
		writeString(&buf, ev.Version)

	case EventPlayerStateChanged:
		buf.WriteByte(tagPlayerStateChanged)
		encodeDiff(&buf, ev.Diff)

	case EventLogMessage:
		buf.WriteByte(tagLogMessage)
		writeI64(&buf, ev.Log.Timestamp.UnixNano())
		writeString(&buf, ev.Log.Level)
		writeString(&buf, ev.Log.Message)
	}

	return buf.Bytes()
}

// DecodeEvent parses an event frame produced by EncodeEvent.
func DecodeEvent(data []byte) (Event, error) {
	r := bytes.NewReader(data)
	tag, err := r.ReadByte()
	if err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}

	switch tag {
	case tagProtocolVersion:
		v, err := readString(r)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: EventProtocolVersion, Version: v}, nil

	case tagPlayerStateChanged:
		diff, err := decodeDiff(r)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: EventPlayerStateChanged, Diff: diff}, nil

	case tagLogMessage:
		ns, err := readI64(r)
		if err != nil {
			return Event{}, err
		}
		level, err := readString(r)
		if err != nil {
			return Event{}, err
		}
		msg, err := readString(r)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: EventLogMessage, Log: player.LogMessage{
			Timestamp: time.Unix(0, ns).UTC(),
			Level:     level,
			Message:   msg,
		}}, nil

	default:
		return Event{}, fmt.Errorf("decode event: unknown tag %d", tag)
	}
}

// --- primitive helpers ---

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil && n > 0 {
		return "", err
	}
	return string(b), nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func writeI32(buf *bytes.Buffer, v int32) { writeU32(buf, uint32(v)) }

func readI32(r *bytes.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func writeI64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func readI64(r *bytes.Reader) (int64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func writeDuration(buf *bytes.Buffer, d time.Duration) { writeI64(buf, int64(d)) }

func readDuration(r *bytes.Reader) (time.Duration, error) {
	v, err := readI64(r)
	return time.Duration(v), err
}

// --- optional helpers (NoChange/ChangedToNone/ChangedToSome) ---

const (
	optNoChange uint8 = iota
	optChangedToNone
	optChangedToSome
)

func writeOptionalDuration(buf *bytes.Buffer, kind int, v time.Duration) {
	switch kind {
	case int(optChangedToSome):
		buf.WriteByte(optChangedToSome)
		writeDuration(buf, v)
	case int(optChangedToNone):
		buf.WriteByte(optChangedToNone)
	default:
		buf.WriteByte(optNoChange)
	}
}

func readOptionalDuration(r *bytes.Reader) (kind uint8, v time.Duration, err error) {
	kind, err = r.ReadByte()
	if err != nil || kind != optChangedToSome {
		return kind, 0, err
	}
	v, err = readDuration(r)
	return kind, v, err
}

// --- PlayerStateDiff encoding ---

func encodeDiff(buf *bytes.Buffer, d player.Diff) {
	writePresentByte(buf, d.PipelineState != nil)
	if d.PipelineState != nil {
		writeU32(buf, uint32(*d.PipelineState))
	}

	writePresentByte(buf, d.CurrentStation != nil)
	if d.CurrentStation != nil {
		encodeCurrentStation(buf, *d.CurrentStation)
	}

	writeOptionalDuration(buf, int(d.PauseBeforePlaying.Kind), d.PauseBeforePlaying.Value)

	writePresentByte(buf, d.CurrentTrackIndex != nil)
	if d.CurrentTrackIndex != nil {
		writeU32(buf, uint32(*d.CurrentTrackIndex))
	}

	writePresentByte(buf, d.CurrentTrackTags != nil)
	if d.CurrentTrackTags != nil {
		encodeTags(buf, *d.CurrentTrackTags)
	}

	writePresentByte(buf, d.IsMuted != nil)
	if d.IsMuted != nil {
		writeBool(buf, *d.IsMuted)
	}

	writePresentByte(buf, d.Volume != nil)
	if d.Volume != nil {
		writeI32(buf, *d.Volume)
	}

	writePresentByte(buf, d.Buffering != nil)
	if d.Buffering != nil {
		buf.WriteByte(*d.Buffering)
	}

	writeOptionalDuration(buf, int(d.TrackDuration.Kind), d.TrackDuration.Value)
	writeOptionalDuration(buf, int(d.TrackPosition.Kind), d.TrackPosition.Value)

	writePresentByte(buf, d.PingTimes != nil)
	if d.PingTimes != nil {
		encodePingTimes(buf, *d.PingTimes)
	}

	switch d.LatestError.Kind {
	case player.ChangedToSome:
		buf.WriteByte(optChangedToSome)
		writeI64(buf, d.LatestError.Value.Timestamp.UnixNano())
		writeString(buf, d.LatestError.Value.Message)
	case player.ChangedToNone:
		buf.WriteByte(optChangedToNone)
	default:
		buf.WriteByte(optNoChange)
	}
}

func decodeDiff(r *bytes.Reader) (player.Diff, error) {
	var d player.Diff

	if present, err := readPresentByte(r); err != nil {
		return d, err
	} else if present {
		v, err := readU32(r)
		if err != nil {
			return d, err
		}
		s := pipeline.State(v)
		d.PipelineState = &s
	}

	if present, err := readPresentByte(r); err != nil {
		return d, err
	} else if present {
		cs, err := decodeCurrentStation(r)
		if err != nil {
			return d, err
		}
		d.CurrentStation = &cs
	}

	if kind, v, err := readOptionalDuration(r); err != nil {
		return d, err
	} else {
		d.PauseBeforePlaying = buildOptionalDuration(kind, v)
	}

	if present, err := readPresentByte(r); err != nil {
		return d, err
	} else if present {
		v, err := readU32(r)
		if err != nil {
			return d, err
		}
		n := int(v)
		d.CurrentTrackIndex = &n
	}

	if present, err := readPresentByte(r); err != nil {
		return d, err
	} else if present {
		t, err := decodeTags(r)
		if err != nil {
			return d, err
		}
		d.CurrentTrackTags = &t
	}

	if present, err := readPresentByte(r); err != nil {
		return d, err
	} else if present {
		b, err := readBool(r)
		if err != nil {
			return d, err
		}
		d.IsMuted = &b
	}

	if present, err := readPresentByte(r); err != nil {
		return d, err
	} else if present {
		v, err := readI32(r)
		if err != nil {
			return d, err
		}
		d.Volume = &v
	}

	if present, err := readPresentByte(r); err != nil {
		return d, err
	} else if present {
		b, err := r.ReadByte()
		if err != nil {
			return d, err
		}
		d.Buffering = &b
	}

	if kind, v, err := readOptionalDuration(r); err != nil {
		return d, err
	} else {
		d.TrackDuration = buildOptionalDuration(kind, v)
	}
	if kind, v, err := readOptionalDuration(r); err != nil {
		return d, err
	} else {
		d.TrackPosition = buildOptionalDuration(kind, v)
	}

	if present, err := readPresentByte(r); err != nil {
		return d, err
	} else if present {
		t, err := decodePingTimes(r)
		if err != nil {
			return d, err
		}
		d.PingTimes = &t
	}

	errKind, err := r.ReadByte()
	if err != nil {
		return d, err
	}
	switch errKind {
	case optChangedToSome:
		ns, err := readI64(r)
		if err != nil {
			return d, err
		}
		msg, err := readString(r)
		if err != nil {
			return d, err
		}
		d.LatestError = player.OptionalErrorChange{Kind: player.ChangedToSome, Value: player.ErrorReport{
			Timestamp: time.Unix(0, ns).UTC(), Message: msg,
		}}
	case optChangedToNone:
		d.LatestError = player.OptionalErrorChange{Kind: player.ChangedToNone}
	default:
		d.LatestError = player.OptionalErrorChange{Kind: player.NoChange}
	}

	return d, nil
}

func buildOptionalDuration(kind uint8, v time.Duration) player.OptionalDurationChange {
	switch kind {
	case optChangedToSome:
		return player.OptionalDurationChange{Kind: player.ChangedToSome, Value: v}
	case optChangedToNone:
		return player.OptionalDurationChange{Kind: player.ChangedToNone}
	default:
		return player.OptionalDurationChange{Kind: player.NoChange}
	}
}

func writePresentByte(buf *bytes.Buffer, present bool) { writeBool(buf, present) }

func readPresentByte(r *bytes.Reader) (bool, error) { return readBool(r) }

func encodeTags(buf *bytes.Buffer, t player.TrackTags) {
	writeOptionalString(buf, t.Title)
	writeOptionalString(buf, t.Organisation)
	writeOptionalString(buf, t.Artist)
	writeOptionalString(buf, t.Album)
	writeOptionalString(buf, t.Genre)
	writeOptionalString(buf, t.Image)
	writeOptionalString(buf, t.Comment)
}

func decodeTags(r *bytes.Reader) (player.TrackTags, error) {
	var t player.TrackTags
	var err error
	if t.Title, err = readOptionalString(r); err != nil {
		return t, err
	}
	if t.Organisation, err = readOptionalString(r); err != nil {
		return t, err
	}
	if t.Artist, err = readOptionalString(r); err != nil {
		return t, err
	}
	if t.Album, err = readOptionalString(r); err != nil {
		return t, err
	}
	if t.Genre, err = readOptionalString(r); err != nil {
		return t, err
	}
	if t.Image, err = readOptionalString(r); err != nil {
		return t, err
	}
	if t.Comment, err = readOptionalString(r); err != nil {
		return t, err
	}
	return t, nil
}

// encodePingResult round-trips one probe outcome. Err is always a
// *ping.PingError in this codebase (the ping package's sole error
// type), so only its Kind needs to survive the wire.
func encodePingResult(buf *bytes.Buffer, res ping.Result) {
	writeBool(buf, res.OK)
	writeDuration(buf, res.Latency)
	if res.Err == nil {
		writeBool(buf, false)
		return
	}
	writeBool(buf, true)
	kind := ping.ErrorKind(0)
	if pe, ok := res.Err.(*ping.PingError); ok {
		kind = pe.Kind
	}
	buf.WriteByte(byte(kind))
}

func decodePingResult(r *bytes.Reader) (ping.Result, error) {
	var res ping.Result
	var err error
	if res.OK, err = readBool(r); err != nil {
		return res, err
	}
	if res.Latency, err = readDuration(r); err != nil {
		return res, err
	}
	hasErr, err := readBool(r)
	if err != nil {
		return res, err
	}
	if hasErr {
		kind, err := r.ReadByte()
		if err != nil {
			return res, err
		}
		res.Err = &ping.PingError{Kind: ping.ErrorKind(kind)}
	}
	return res, nil
}

func encodePingTimes(buf *bytes.Buffer, t ping.Times) {
	writeU32(buf, uint32(t.Label))
	encodePingResult(buf, t.Gateway)
	encodePingResult(buf, t.Remote)
	writeU32(buf, uint32(t.Latest))
}

func decodePingTimes(r *bytes.Reader) (ping.Times, error) {
	var t ping.Times
	v, err := readU32(r)
	if err != nil {
		return t, err
	}
	t.Label = ping.Label(v)
	if t.Gateway, err = decodePingResult(r); err != nil {
		return t, err
	}
	if t.Remote, err = decodePingResult(r); err != nil {
		return t, err
	}
	latest, err := readU32(r)
	if err != nil {
		return t, err
	}
	t.Latest = ping.Latest(latest)
	return t, nil
}

func writeOptionalString(buf *bytes.Buffer, s *string) {
	if s == nil {
		writeBool(buf, false)
		return
	}
	writeBool(buf, true)
	writeString(buf, *s)
}

func readOptionalString(r *bytes.Reader) (*string, error) {
	present, err := readBool(r)
	if err != nil || !present {
		return nil, err
	}
	s, err := readString(r)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func encodeCurrentStation(buf *bytes.Buffer, cs player.CurrentStation) {
	writeU32(buf, uint32(cs.Kind))
	writeOptionalString(buf, cs.Index)
	writeOptionalString(buf, cs.Title)
	writeU32(buf, uint32(cs.Type))
	writeU32(buf, uint32(len(cs.Tracks)))
	for _, t := range cs.Tracks {
		writeOptionalString(buf, t.Title)
		writeOptionalString(buf, t.Artist)
		writeOptionalString(buf, t.Album)
		writeString(buf, t.URL)
		writeBool(buf, t.IsNotification)
	}
	writeString(buf, cs.Error)
}

func decodeCurrentStation(r *bytes.Reader) (player.CurrentStation, error) {
	var cs player.CurrentStation

	kind, err := readU32(r)
	if err != nil {
		return cs, err
	}
	cs.Kind = player.CurrentStationKind(kind)

	if cs.Index, err = readOptionalString(r); err != nil {
		return cs, err
	}
	if cs.Title, err = readOptionalString(r); err != nil {
		return cs, err
	}

	typeVal, err := readU32(r)
	if err != nil {
		return cs, err
	}
	cs.Type = station.Type(typeVal)

	count, err := readU32(r)
	if err != nil {
		return cs, err
	}
	cs.Tracks = make([]station.Track, 0, count)
	for i := uint32(0); i < count; i++ {
		var t station.Track
		if t.Title, err = readOptionalString(r); err != nil {
			return cs, err
		}
		if t.Artist, err = readOptionalString(r); err != nil {
			return cs, err
		}
		if t.Album, err = readOptionalString(r); err != nil {
			return cs, err
		}
		if t.URL, err = readString(r); err != nil {
			return cs, err
		}
		if t.IsNotification, err = readBool(r); err != nil {
			return cs, err
		}
		cs.Tracks = append(cs.Tracks, t)
	}

	if cs.Error, err = readString(r); err != nil {
		return cs, err
	}

	return cs, nil
}
