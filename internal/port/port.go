/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package port implements the four listener tasks of spec.md §4.5: text
// terminal (TCP), binary protocol (TCP), HTTP+WebSocket, and keyboard.
// Each shares the same accept-loop template: take_until(shutdown), an
// inbound task decoding commands and an outbound task emitting framed
// events until shutdown fires.
package port

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/rradio/internal/broadcast"
	"github.com/friendsincode/rradio/internal/player"
	"github.com/friendsincode/rradio/internal/shutdown"
	"github.com/friendsincode/rradio/internal/version"
	"github.com/friendsincode/rradio/internal/wire"
)

// Deps bundles the shared inputs every listener needs (spec.md §4.5
// "Shared inputs"): a command sender, a PlayerState subscription, a
// log-message subscription, the cooperative shutdown signal, and the
// wait-group handle.
type Deps struct {
	Commands chan<- player.Command
	State    *broadcast.Watched[player.PlayerState]
	Logs     *broadcast.Bus[player.LogMessage]
	Shutdown *shutdown.Signal
	Group    *shutdown.Group
	Logger   zerolog.Logger
}

// zeroState is the diffing baseline for a connection's first full-state
// event (spec.md §4.5 "an initial full-state event by diffing against a
// zeroed baseline").
var zeroState player.PlayerState

// initialVersion is the protocol-version header every connection sends
// first (spec.md §4.5/§6).
func initialVersion() string { return version.ProtocolSubprotocol() }

const rebroadcastPoll = 500 * time.Millisecond

// runOutbound implements the shared "outbound task" half of the accept
// loop template (spec.md §4.5): emit ProtocolVersion, then an initial
// full-state diff against a zeroed baseline, then a diff on every state
// change or log message, until perConn or the global shutdown fires.
func runOutbound(deps Deps, perConn *shutdown.Signal, send func(wire.Event) error) {
	if err := send(wire.Event{Kind: wire.EventProtocolVersion, Version: initialVersion()}); err != nil {
		return
	}

	prev := zeroState
	current, _ := deps.State.Get()
	diff := player.DiffStates(prev, current)
	if err := send(wire.Event{Kind: wire.EventPlayerStateChanged, Diff: diff}); err != nil {
		return
	}
	prev = current

	logCh := deps.Logs.Subscribe(16)
	defer deps.Logs.Unsubscribe(logCh)

	for {
		select {
		case <-perConn.Done():
			return
		case <-deps.Shutdown.Done():
			return
		case <-deps.State.Changed():
			current, _ = deps.State.Get()
			diff := player.DiffStates(prev, current)
			prev = current
			if err := send(wire.Event{Kind: wire.EventPlayerStateChanged, Diff: diff}); err != nil {
				return
			}
		case msg, ok := <-logCh:
			if !ok {
				return
			}
			if err := send(wire.Event{Kind: wire.EventLogMessage, Log: msg}); err != nil {
				return
			}
		}
	}
}
