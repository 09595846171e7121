/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package config loads and validates rradio's TOML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// CDConfig configures optical-disc station support (spec.md §4.3/§6).
type CDConfig struct {
	Station string `toml:"station"`
	Device  string `toml:"device"`
}

// USBConfig configures removable-storage station support.
type USBConfig struct {
	Station string `toml:"station"`
	Device  string `toml:"device"`
	Path    string `toml:"path"`
}

// Notifications names notification-track URLs wrapped around playlists
// and played on error (spec.md §3 "Notification track").
type Notifications struct {
	Ready          string `toml:"ready"`
	PlaylistPrefix string `toml:"playlist_prefix"`
	PlaylistSuffix string `toml:"playlist_suffix"`
	Error          string `toml:"error"`
}

// PingConfig configures the ping supervisor (spec.md §4.4).
type PingConfig struct {
	RemotePingCount    int    `toml:"remote_ping_count"`
	GatewayAddress     string `toml:"gateway_address"`
	InitialPingAddress string `toml:"initial_ping_address"`
}

// WebConfig configures the HTTP+WebSocket port.
type WebConfig struct {
	WebAppPath string `toml:"web_app_path"`
	Bind       string `toml:"bind"`
	Port       int    `toml:"port"`
}

// PortsConfig configures the TCP text and binary listeners.
type PortsConfig struct {
	TextAddr   string `toml:"text_addr"`
	BinaryAddr string `toml:"binary_addr"`
}

// Config is rradio's process-level configuration, loaded from a TOML
// file (default path "config.toml", spec.md §6).
type Config struct {
	StationsDirectory string `toml:"stations_directory"`

	InputTimeout duration `toml:"input_timeout"`

	InitialVolume int32 `toml:"initial_volume"`
	VolumeOffset  int32 `toml:"volume_offset"`

	BufferingDuration *duration `toml:"buffering_duration"`

	PauseBeforePlayingIncrement    duration `toml:"pause_before_playing_increment"`
	MaxPauseBeforePlaying          duration `toml:"max_pause_before_playing"`
	SmartGotoPreviousTrackDuration duration `toml:"smart_goto_previous_track_duration"`

	LogLevel string `toml:"log_level"`

	Notifications Notifications `toml:"Notifications"`

	PlayErrorSoundOnGstreamerError bool `toml:"play_error_sound_on_gstreamer_error"`

	CD  CDConfig  `toml:"CD"`
	USB USBConfig `toml:"USB"`

	Ping  PingConfig  `toml:"ping"`
	Web   WebConfig   `toml:"web"`
	Ports PortsConfig `toml:"ports"`

	// GStreamerBin is the audio pipeline adapter's child-process binary
	// (mirrors the teacher's GStreamerBin field; unknown TOML keys are
	// ignored per spec.md §6, so this can be safely omitted).
	GStreamerBin string `toml:"gstreamer_bin"`

	// GstDebugDumpDotDir controls DebugPipeline's output directory;
	// falls back to the GST_DEBUG_DUMP_DOT_DIR environment variable.
	GstDebugDumpDotDir string `toml:"-"`
}

// duration unmarshals TOML strings like "5s" via time.ParseDuration,
// matching the teacher's preference for human-readable durations in
// config over bare integers.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

func (d duration) Duration() time.Duration { return time.Duration(d) }

// Load reads path (or "config.toml" if empty), applies defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.GstDebugDumpDotDir = os.Getenv("GST_DEBUG_DUMP_DOT_DIR")

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		StationsDirectory:              "stations",
		InputTimeout:                   duration(2 * time.Second),
		InitialVolume:                  VolumeZeroDB,
		VolumeOffset:                   5,
		PauseBeforePlayingIncrement:    duration(time.Second),
		MaxPauseBeforePlaying:          duration(5 * time.Second),
		SmartGotoPreviousTrackDuration: duration(3 * time.Second),
		LogLevel:                       "info",
		GStreamerBin:                   "gst-launch-1.0",
		Ping: PingConfig{
			RemotePingCount:    3,
			InitialPingAddress: "8.8.8.8",
		},
		Web: WebConfig{
			Bind: "127.0.0.1",
			Port: 8000,
		},
		Ports: PortsConfig{
			TextAddr:   "127.0.0.1:5000",
			BinaryAddr: "127.0.0.1:5001",
		},
	}
}

// VolumeZeroDB is the volume value that maps to 0 dB on the pipeline
// (spec.md §3 invariant (ii)).
const VolumeZeroDB = 100

func (c *Config) validate() error {
	if c.StationsDirectory == "" {
		return fmt.Errorf("stations_directory must not be empty")
	}
	if c.VolumeOffset <= 0 {
		return fmt.Errorf("volume_offset must be positive")
	}
	if c.Ping.RemotePingCount < 0 {
		return fmt.Errorf("ping.remote_ping_count must not be negative")
	}
	return nil
}

// HTTPAddr mirrors the teacher's dev-vs-production listen address split
// (spec.md §6): loopback unless built for production.
func (c *Config) HTTPAddr(production bool) string {
	bind := c.Web.Bind
	port := c.Web.Port
	if production {
		if bind == "" || bind == "127.0.0.1" {
			bind = "0.0.0.0"
		}
		if port == 0 {
			port = 80
		}
	}
	return fmt.Sprintf("%s:%d", bind, port)
}
