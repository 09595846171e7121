/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import "testing"

func TestParseM3UPlain(t *testing.T) {
	content := "http://a.example/stream\n\nhttp://b.example/stream\n"
	got := parseM3U(content)

	if got.Title != nil {
		t.Fatalf("expected no title, got %v", *got.Title)
	}
	if len(got.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(got.Tracks))
	}
	if got.Tracks[0].URL != "http://a.example/stream" {
		t.Errorf("track 0 URL = %q", got.Tracks[0].URL)
	}
	if got.Tracks[0].Title != nil {
		t.Errorf("expected no title for plain m3u entry, got %v", *got.Tracks[0].Title)
	}
}

func TestParseM3UExtended(t *testing.T) {
	content := "#EXTM3U\n" +
		"#PLAYLIST:My Station\n" +
		"#EXTINF:-1, First Track\n" +
		"http://a.example/stream\n" +
		"#EXTINF:-1, Second Track\n" +
		"http://b.example/stream\n"

	got := parseM3U(content)

	if got.Title == nil || *got.Title != "My Station" {
		t.Fatalf("expected title \"My Station\", got %v", got.Title)
	}
	if len(got.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(got.Tracks))
	}
	if got.Tracks[0].Title == nil || *got.Tracks[0].Title != "First Track" {
		t.Errorf("track 0 title = %v", got.Tracks[0].Title)
	}
	if got.Tracks[1].Title == nil || *got.Tracks[1].Title != "Second Track" {
		t.Errorf("track 1 title = %v", got.Tracks[1].Title)
	}
}

func TestParseM3USkipsPendingTitleAcrossComments(t *testing.T) {
	content := "#EXTM3U\n" +
		"#EXTINF:-1, Only Track\n" +
		"# a plain comment shouldn't consume the pending title\n" +
		"http://a.example/stream\n"

	got := parseM3U(content)
	if len(got.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(got.Tracks))
	}
	if got.Tracks[0].Title == nil || *got.Tracks[0].Title != "Only Track" {
		t.Errorf("track title = %v", got.Tracks[0].Title)
	}
}
