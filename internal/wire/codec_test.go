/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package wire

import (
	"testing"
	"time"

	"github.com/friendsincode/rradio/internal/pipeline"
	"github.com/friendsincode/rradio/internal/ping"
	"github.com/friendsincode/rradio/internal/player"
	"github.com/friendsincode/rradio/internal/station"
)

func TestCommandRoundTrip(t *testing.T) {
	cases := []player.Command{
		player.SetChannel("12"),
		player.PlayPause,
		player.Previous,
		player.SmartPrevious,
		player.Next,
		player.Nth(3),
		player.SeekTo(90 * time.Second),
		player.SeekBackwards(5 * time.Second),
		player.SeekForwards(5 * time.Second),
		player.SetVolume(42),
		player.VolumeUp,
		player.VolumeDown,
		player.SetMuted(true),
		player.ToggleMuted,
		player.SetPlaylist("My List", []string{"http://a", "http://b"}),
		player.Eject,
		player.DebugPipeline,
	}

	for _, cmd := range cases {
		encoded := EncodeCommand(cmd)
		got, err := DecodeCommand(encoded)
		if err != nil {
			t.Fatalf("DecodeCommand(%v) error: %v", cmd, err)
		}
		if got.Kind != cmd.Kind {
			t.Fatalf("kind mismatch: got %v, want %v", got.Kind, cmd.Kind)
		}
		if got.ChannelIndex != cmd.ChannelIndex ||
			got.NthIndex != cmd.NthIndex ||
			got.SeekDuration != cmd.SeekDuration ||
			got.Volume != cmd.Volume ||
			got.Muted != cmd.Muted ||
			got.PlaylistTitle != cmd.PlaylistTitle ||
			len(got.PlaylistURLs) != len(cmd.PlaylistURLs) {
			t.Errorf("round trip mismatch for %v: got %+v", cmd.Kind, got)
		}
		for i := range cmd.PlaylistURLs {
			if got.PlaylistURLs[i] != cmd.PlaylistURLs[i] {
				t.Errorf("playlist url %d mismatch: got %q want %q", i, got.PlaylistURLs[i], cmd.PlaylistURLs[i])
			}
		}
	}
}

func TestEventProtocolVersionRoundTrip(t *testing.T) {
	ev := Event{Kind: EventProtocolVersion, Version: "rradio v0.1.0"}
	got, err := DecodeEvent(EncodeEvent(ev))
	if err != nil {
		t.Fatalf("DecodeEvent error: %v", err)
	}
	if got.Kind != EventProtocolVersion || got.Version != ev.Version {
		t.Errorf("got %+v, want %+v", got, ev)
	}
}

func TestEventLogMessageRoundTrip(t *testing.T) {
	ev := Event{Kind: EventLogMessage, Log: player.LogMessage{
		Timestamp: time.Unix(1_700_000_000, 0).UTC(),
		Level:     "info",
		Message:   "hello",
	}}
	got, err := DecodeEvent(EncodeEvent(ev))
	if err != nil {
		t.Fatalf("DecodeEvent error: %v", err)
	}
	if got.Log.Level != ev.Log.Level || got.Log.Message != ev.Log.Message {
		t.Errorf("got %+v, want %+v", got.Log, ev.Log)
	}
	if !got.Log.Timestamp.Equal(ev.Log.Timestamp) {
		t.Errorf("timestamp got %v want %v", got.Log.Timestamp, ev.Log.Timestamp)
	}
}

func TestEventPlayerStateChangedRoundTrip(t *testing.T) {
	pipelineState := pipeline.Playing
	volume := int32(80)
	trackIndex := 2
	muted := true
	buffering := uint8(50)
	title := "Now Playing"

	diff := player.Diff{
		PipelineState:      &pipelineState,
		CurrentTrackIndex:  &trackIndex,
		Volume:             &volume,
		IsMuted:            &muted,
		Buffering:          &buffering,
		PauseBeforePlaying: player.OptionalDurationChange{Kind: player.ChangedToSome, Value: 3 * time.Second},
		TrackDuration:      player.OptionalDurationChange{Kind: player.ChangedToSome, Value: 200 * time.Second},
		TrackPosition:      player.OptionalDurationChange{Kind: player.ChangedToNone},
		PingTimes: &ping.Times{
			Label:   ping.GatewayAndRemote,
			Gateway: ping.Result{OK: true, Latency: 12 * time.Millisecond},
			Remote:  ping.Result{OK: false, Err: &ping.PingError{Kind: ping.ErrTimeout}},
			Latest:  ping.LatestRemote,
		},
		CurrentStation: &player.CurrentStation{
			Kind:  player.PlayingStation,
			Title: &title,
			Tracks: []station.Track{
				{URL: "http://a", IsNotification: false},
			},
		},
		LatestError: player.OptionalErrorChange{Kind: player.NoChange},
	}

	ev := Event{Kind: EventPlayerStateChanged, Diff: diff}
	got, err := DecodeEvent(EncodeEvent(ev))
	if err != nil {
		t.Fatalf("DecodeEvent error: %v", err)
	}

	if got.Diff.PipelineState == nil || *got.Diff.PipelineState != pipelineState {
		t.Errorf("PipelineState mismatch: %+v", got.Diff.PipelineState)
	}
	if got.Diff.Volume == nil || *got.Diff.Volume != volume {
		t.Errorf("Volume mismatch: %+v", got.Diff.Volume)
	}
	if got.Diff.CurrentTrackIndex == nil || *got.Diff.CurrentTrackIndex != trackIndex {
		t.Errorf("CurrentTrackIndex mismatch: %+v", got.Diff.CurrentTrackIndex)
	}
	if got.Diff.IsMuted == nil || *got.Diff.IsMuted != muted {
		t.Errorf("IsMuted mismatch: %+v", got.Diff.IsMuted)
	}
	if got.Diff.Buffering == nil || *got.Diff.Buffering != buffering {
		t.Errorf("Buffering mismatch: %+v", got.Diff.Buffering)
	}
	if got.Diff.PauseBeforePlaying.Kind != player.ChangedToSome || got.Diff.PauseBeforePlaying.Value != 3*time.Second {
		t.Errorf("PauseBeforePlaying mismatch: %+v", got.Diff.PauseBeforePlaying)
	}
	if got.Diff.TrackDuration.Kind != player.ChangedToSome || got.Diff.TrackDuration.Value != 200*time.Second {
		t.Errorf("TrackDuration mismatch: %+v", got.Diff.TrackDuration)
	}
	if got.Diff.TrackPosition.Kind != player.ChangedToNone {
		t.Errorf("TrackPosition mismatch: %+v", got.Diff.TrackPosition)
	}
	if got.Diff.PingTimes == nil || got.Diff.PingTimes.Label != ping.GatewayAndRemote {
		t.Errorf("PingTimes mismatch: %+v", got.Diff.PingTimes)
	} else {
		pt := got.Diff.PingTimes
		if !pt.Gateway.OK || pt.Gateway.Latency != 12*time.Millisecond {
			t.Errorf("PingTimes.Gateway mismatch: %+v", pt.Gateway)
		}
		pe, ok := pt.Remote.Err.(*ping.PingError)
		if pt.Remote.OK || !ok || pe.Kind != ping.ErrTimeout {
			t.Errorf("PingTimes.Remote mismatch: %+v", pt.Remote)
		}
		if pt.Latest != ping.LatestRemote {
			t.Errorf("PingTimes.Latest mismatch: %+v", pt.Latest)
		}
	}
	if got.Diff.CurrentStation == nil || got.Diff.CurrentStation.Title == nil || *got.Diff.CurrentStation.Title != title {
		t.Errorf("CurrentStation.Title mismatch: %+v", got.Diff.CurrentStation)
	}
	if len(got.Diff.CurrentStation.Tracks) != 1 || got.Diff.CurrentStation.Tracks[0].URL != "http://a" {
		t.Errorf("CurrentStation.Tracks mismatch: %+v", got.Diff.CurrentStation.Tracks)
	}
	if got.Diff.LatestError.Kind != player.NoChange {
		t.Errorf("LatestError mismatch: %+v", got.Diff.LatestError)
	}
}
