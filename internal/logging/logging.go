/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package logging configures zerolog for the daemon and fans log lines
// out to the broadcast log-message stream the port layer publishes to
// clients (spec.md §4.5).
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/rradio/internal/broadcast"
	"github.com/friendsincode/rradio/internal/player"
)

// busHook publishes every log event onto a broadcast.Bus[player.LogMessage]
// in addition to zerolog's normal console output.
type busHook struct {
	bus *broadcast.Bus[player.LogMessage]
}

func (h busHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level < zerolog.InfoLevel {
		return
	}
	h.bus.Publish(player.LogMessage{
		Timestamp: time.Now().UTC(),
		Level:     level.String(),
		Message:   msg,
	})
}

// Setup configures zerolog at the given level ("debug", "info", "warn",
// "error") and returns the logger plus the bus port listeners subscribe
// to for the LogMessage event.
func Setup(level string) (zerolog.Logger, *broadcast.Bus[player.LogMessage]) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	bus := broadcast.NewBus[player.LogMessage]()
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout}

	logger := zerolog.New(consoleWriter).
		Hook(busHook{bus: bus}).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return logger, bus
}
