/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package port

import (
	"bufio"
	"fmt"
	"net"
	"strings"

	"github.com/friendsincode/rradio/internal/player"
	"github.com/friendsincode/rradio/internal/shutdown"
	"github.com/friendsincode/rradio/internal/wire"
)

// ListenText runs the TCP text-terminal listener (spec.md §4.5/§6):
// ANSI cursor-positioned human-readable state, for an interactive
// telnet-style client.
func ListenText(addr string, deps Deps) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("text port listen %s: %w", addr, err)
	}
	deps.Group.Add(1)
	go func() {
		defer deps.Group.Done()
		<-deps.Shutdown.Done()
		_ = ln.Close()
	}()

	deps.Logger.Info().Str("addr", addr).Msg("text port listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-deps.Shutdown.Done():
				return nil
			default:
				deps.Logger.Warn().Err(err).Msg("text port accept failed")
				continue
			}
		}

		deps.Group.Add(1)
		go handleTextConn(conn, deps)
	}
}

func handleTextConn(conn net.Conn, deps Deps) {
	defer deps.Group.Done()
	defer conn.Close()

	perConn := shutdown.New()
	defer perConn.Fire()

	go func() {
		defer perConn.Fire()
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if cmd, ok := parseTextCommand(line); ok {
				select {
				case deps.Commands <- cmd:
				case <-perConn.Done():
					return
				case <-deps.Shutdown.Done():
					return
				}
			}
		}
	}()

	runOutbound(deps, perConn, func(ev wire.Event) error {
		_, err := conn.Write([]byte(renderTextEvent(ev)))
		return err
	})
}

// renderTextEvent draws a fixed-line ANSI block; \x1b[H homes the
// cursor and \x1b[K clears to end of line (spec.md §4.5 "ANSI
// cursor-positioned human-readable blocks at fixed line coordinates").
func renderTextEvent(ev wire.Event) string {
	var b strings.Builder
	b.WriteString("\x1b[H")

	switch ev.Kind {
	case wire.EventProtocolVersion:
		fmt.Fprintf(&b, "%s\x1b[K\r\n", ev.Version)
	case wire.EventPlayerStateChanged:
		if ev.Diff.PipelineState != nil {
			fmt.Fprintf(&b, "state: %s\x1b[K\r\n", ev.Diff.PipelineState)
		}
		if ev.Diff.Volume != nil {
			fmt.Fprintf(&b, "volume: %d\x1b[K\r\n", *ev.Diff.Volume)
		}
		if ev.Diff.CurrentStation != nil {
			fmt.Fprintf(&b, "station: %+v\x1b[K\r\n", *ev.Diff.CurrentStation)
		}
	case wire.EventLogMessage:
		fmt.Fprintf(&b, "[%s] %s\x1b[K\r\n", ev.Log.Level, ev.Log.Message)
	}

	return b.String()
}

// parseTextCommand maps a line of input to a Command; unrecognised
// lines are ignored.
func parseTextCommand(line string) (player.Command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return player.Command{}, false
	}

	switch strings.ToLower(fields[0]) {
	case "playpause":
		return player.PlayPause, true
	case "next":
		return player.Next, true
	case "previous":
		return player.Previous, true
	case "eject":
		return player.Eject, true
	case "channel":
		if len(fields) == 2 {
			return player.SetChannel(fields[1]), true
		}
	}
	return player.Command{}, false
}
