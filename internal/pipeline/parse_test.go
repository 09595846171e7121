/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package pipeline

import (
	"strings"
	"testing"
	"time"
)

func TestScanOutputEmitsEOS(t *testing.T) {
	var got []Message
	scanOutput(strings.NewReader("Got EOS from element \"playbin\".\n"), 1, func(m Message) {
		got = append(got, m)
	})
	if len(got) != 1 || got[0].Kind != MsgEos || got[0].Generation != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestScanOutputEmitsBufferingClamped(t *testing.T) {
	var got []Message
	scanOutput(strings.NewReader("buffering... 150%\n"), 2, func(m Message) {
		got = append(got, m)
	})
	if len(got) != 1 || got[0].Kind != MsgBuffering || got[0].BufferingPercent != 100 {
		t.Fatalf("expected clamped buffering of 100, got %+v", got)
	}
}

func TestScanOutputEmitsTagBlock(t *testing.T) {
	input := "Got tags from element \"playbin\":\n" +
		"  title : \"My Song\"\n" +
		"  artist : \"My Artist\"\n" +
		"\n"
	var got []Message
	scanOutput(strings.NewReader(input), 1, func(m Message) {
		got = append(got, m)
	})
	if len(got) != 1 || got[0].Kind != MsgTag {
		t.Fatalf("expected 1 tag message, got %+v", got)
	}
	if got[0].Tags.Title != "My Song" || got[0].Tags.Artist != "My Artist" {
		t.Errorf("tags = %+v", got[0].Tags)
	}
}

func TestScanOutputEmitsTagBlockWithDurationAndExtendedFields(t *testing.T) {
	input := "Got tags from element \"playbin\":\n" +
		"  title : \"My Song\"\n" +
		"  organisation : \"My Station\"\n" +
		"  genre : \"Jazz\"\n" +
		"  comment : \"live set\"\n" +
		"  duration : 0:04:33.250000000\n" +
		"\n"
	var got []Message
	scanOutput(strings.NewReader(input), 1, func(m Message) {
		got = append(got, m)
	})
	if len(got) != 1 || got[0].Kind != MsgTag {
		t.Fatalf("expected 1 tag message, got %+v", got)
	}
	tags := got[0].Tags
	if tags.Title != "My Song" || tags.Organisation != "My Station" || tags.Genre != "Jazz" || tags.Comment != "live set" {
		t.Errorf("tags = %+v", tags)
	}
	want := 4*time.Minute + 33*time.Second + 250*time.Millisecond
	if !tags.HasDuration || tags.Duration != want {
		t.Errorf("duration = %v (has=%v), want %v", tags.Duration, tags.HasDuration, want)
	}
}

func TestScanOutputEmitsStateChanged(t *testing.T) {
	var got []Message
	scanOutput(strings.NewReader("Setting pipeline to PLAYING\n"), 1, func(m Message) {
		got = append(got, m)
	})
	if len(got) != 1 || got[0].Kind != MsgStateChanged || got[0].StateCurrent != Playing {
		t.Fatalf("got %+v", got)
	}
}

func TestScanOutputEmitsErrorWithClassification(t *testing.T) {
	var got []Message
	scanOutput(strings.NewReader("ERROR: from element /GstPipeline/GstURIDecodeBin: Could not open resource for reading.\n"), 1, func(m Message) {
		got = append(got, m)
	})
	if len(got) != 1 || got[0].Kind != MsgError {
		t.Fatalf("got %+v", got)
	}
	if got[0].ErrorDomain != "ResourceError" {
		t.Errorf("expected ResourceError domain, got %q", got[0].ErrorDomain)
	}
}

func TestParseGstStateUnknownDefaultsToNull(t *testing.T) {
	if parseGstState("BOGUS") != Null {
		t.Fatalf("expected Null for unknown state name")
	}
}
