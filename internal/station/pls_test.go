/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import "testing"

func TestParsePLSOrdersByNumericSuffix(t *testing.T) {
	content := "[playlist]\n" +
		"NumberOfEntries=2\n" +
		"File2=http://b.example/stream\n" +
		"Title2=Second\n" +
		"File1=http://a.example/stream\n" +
		"Title1=First\n"

	got := parsePLS(content)
	if len(got.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(got.Tracks))
	}
	if got.Tracks[0].URL != "http://a.example/stream" {
		t.Errorf("track 0 URL = %q, want File1's URL", got.Tracks[0].URL)
	}
	if got.Tracks[0].Title == nil || *got.Tracks[0].Title != "First" {
		t.Errorf("track 0 title = %v", got.Tracks[0].Title)
	}
	if got.Tracks[1].URL != "http://b.example/stream" {
		t.Errorf("track 1 URL = %q, want File2's URL", got.Tracks[1].URL)
	}
}

func TestParsePLSCaseInsensitiveKeys(t *testing.T) {
	content := "file1=http://a.example/stream\ntitle1=Only\n"
	got := parsePLS(content)
	if len(got.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(got.Tracks))
	}
	if got.Tracks[0].URL != "http://a.example/stream" {
		t.Errorf("track URL = %q", got.Tracks[0].URL)
	}
}

func TestParsePLSSkipsGapsInNumbering(t *testing.T) {
	content := "File1=http://a.example/stream\nFile3=http://c.example/stream\n"
	got := parsePLS(content)
	if len(got.Tracks) != 2 {
		t.Fatalf("expected 2 tracks (gap at 2 skipped), got %d", len(got.Tracks))
	}
	if got.Tracks[1].URL != "http://c.example/stream" {
		t.Errorf("track 1 URL = %q", got.Tracks[1].URL)
	}
}

func TestParsePLSMissingTitleIsNil(t *testing.T) {
	content := "File1=http://a.example/stream\n"
	got := parsePLS(content)
	if len(got.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(got.Tracks))
	}
	if got.Tracks[0].Title != nil {
		t.Errorf("expected nil title, got %v", *got.Tracks[0].Title)
	}
}
