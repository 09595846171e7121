/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package player

import (
	"testing"
	"time"
)

func TestDiffStatesNoChangeWhenIdentical(t *testing.T) {
	s := PlayerState{Volume: 50}
	d := DiffStates(s, s)

	if d.PipelineState != nil || d.Volume != nil || d.IsMuted != nil {
		t.Fatalf("expected no changes, got %+v", d)
	}
	if d.PauseBeforePlaying.Kind != NoChange || d.TrackDuration.Kind != NoChange || d.TrackPosition.Kind != NoChange {
		t.Fatalf("expected NoChange for optional fields, got %+v", d)
	}
	if d.LatestError.Kind != NoChange {
		t.Fatalf("expected NoChange for LatestError, got %+v", d.LatestError)
	}
}

func TestDiffStatesOptionalDurationThreeWay(t *testing.T) {
	five := 5 * time.Second
	ten := 10 * time.Second

	// nil -> nil: NoChange
	d := DiffStates(PlayerState{}, PlayerState{})
	if d.TrackDuration.Kind != NoChange {
		t.Errorf("nil->nil: expected NoChange, got %+v", d.TrackDuration)
	}

	// nil -> Some: ChangedToSome
	d = DiffStates(PlayerState{}, PlayerState{TrackDuration: &five})
	if d.TrackDuration.Kind != ChangedToSome || d.TrackDuration.Value != five {
		t.Errorf("nil->Some: got %+v", d.TrackDuration)
	}

	// Some -> nil: ChangedToNone
	d = DiffStates(PlayerState{TrackDuration: &five}, PlayerState{})
	if d.TrackDuration.Kind != ChangedToNone {
		t.Errorf("Some->nil: got %+v", d.TrackDuration)
	}

	// Some -> different Some: ChangedToSome
	d = DiffStates(PlayerState{TrackDuration: &five}, PlayerState{TrackDuration: &ten})
	if d.TrackDuration.Kind != ChangedToSome || d.TrackDuration.Value != ten {
		t.Errorf("Some->Some(diff): got %+v", d.TrackDuration)
	}

	// Some -> same Some: NoChange
	d = DiffStates(PlayerState{TrackDuration: &five}, PlayerState{TrackDuration: &five})
	if d.TrackDuration.Kind != NoChange {
		t.Errorf("Some->Some(same): got %+v", d.TrackDuration)
	}
}

func TestDiffStatesCurrentStationDetectsTitleChange(t *testing.T) {
	title := "Station A"
	prev := PlayerState{CurrentStation: CurrentStation{Kind: PlayingStation, Title: &title}}
	next := prev
	d := DiffStates(prev, next)
	if d.CurrentStation != nil {
		t.Fatalf("expected no CurrentStation change for identical station, got %+v", d.CurrentStation)
	}

	otherTitle := "Station B"
	next.CurrentStation.Title = &otherTitle
	d = DiffStates(prev, next)
	if d.CurrentStation == nil || *d.CurrentStation.Title != otherTitle {
		t.Fatalf("expected CurrentStation change, got %+v", d.CurrentStation)
	}
}

func TestTrackTagsEqual(t *testing.T) {
	a := "Artist"
	tagsA := TrackTags{Artist: &a}
	tagsB := TrackTags{Artist: &a}
	if !tagsA.Equal(tagsB) {
		t.Fatalf("expected equal TrackTags with same pointee value")
	}

	b := "Other"
	tagsC := TrackTags{Artist: &b}
	if tagsA.Equal(tagsC) {
		t.Fatalf("expected unequal TrackTags with different artist")
	}

	if (TrackTags{}).Equal(tagsA) {
		t.Fatalf("expected unequal TrackTags when one side is nil")
	}
}
