/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/friendsincode/rradio/internal/config"
)

func TestResolveDispatchesM3UByExtension(t *testing.T) {
	dir := t.TempDir()
	content := "#EXTM3U\n#PLAYLIST:Test Station\nhttp://a.example/stream\n"
	if err := os.WriteFile(filepath.Join(dir, "01 - test.m3u"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{StationsDirectory: dir}
	pl, err := Resolve(cfg, "01", nil)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if pl.StationType != TypeURLList {
		t.Errorf("StationType = %v, want TypeURLList", pl.StationType)
	}
	if len(pl.Tracks) != 1 || pl.Tracks[0].URL != "http://a.example/stream" {
		t.Fatalf("Tracks = %+v", pl.Tracks)
	}
	if pl.StationTitle == nil || *pl.StationTitle != "Test Station" {
		t.Errorf("StationTitle = %v", pl.StationTitle)
	}
}

func TestResolveDispatchesPLSByExtension(t *testing.T) {
	dir := t.TempDir()
	content := "File1=http://a.example/stream\nTitle1=Only\n"
	if err := os.WriteFile(filepath.Join(dir, "02 - test.pls"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{StationsDirectory: dir}
	pl, err := Resolve(cfg, "02", nil)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(pl.Tracks) != 1 || pl.Tracks[0].URL != "http://a.example/stream" {
		t.Fatalf("Tracks = %+v", pl.Tracks)
	}
}

func TestResolveUnsupportedExtensionError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "03 - test.txt"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{StationsDirectory: dir}
	_, err := Resolve(cfg, "03", nil)
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestResolveStationNotFound(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{StationsDirectory: dir}
	_, err := Resolve(cfg, "99", nil)
	if err == nil {
		t.Fatal("expected ErrStationNotFound for missing index")
	}
}

func TestResolvePrefersCDStationOverDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{StationsDirectory: dir, CD: config.CDConfig{Station: "cd", Device: "/dev/null"}}

	_, err := Resolve(cfg, "cd", nil)
	if err == nil {
		t.Fatal("expected an error opening a non-CD device, confirming the CD path was taken")
	}
}
