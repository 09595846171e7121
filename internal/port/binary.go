/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package port

import (
	"bufio"
	"fmt"
	"net"

	"github.com/friendsincode/rradio/internal/shutdown"
	"github.com/friendsincode/rradio/internal/version"
	"github.com/friendsincode/rradio/internal/wire"
)

// ListenBinary runs the TCP binary-protocol listener (spec.md §6): a
// fixed ASCII header followed by COBS-framed Event/Command values.
func ListenBinary(addr string, deps Deps) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binary port listen %s: %w", addr, err)
	}
	deps.Group.Add(1)
	go func() {
		defer deps.Group.Done()
		<-deps.Shutdown.Done()
		_ = ln.Close()
	}()

	deps.Logger.Info().Str("addr", addr).Msg("binary port listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-deps.Shutdown.Done():
				return nil
			default:
				deps.Logger.Warn().Err(err).Msg("binary port accept failed")
				continue
			}
		}

		deps.Group.Add(1)
		go handleBinaryConn(conn, deps)
	}
}

func handleBinaryConn(conn net.Conn, deps Deps) {
	defer deps.Group.Done()
	defer conn.Close()

	if _, err := conn.Write([]byte(version.Header())); err != nil {
		return
	}

	perConn := shutdown.New()
	defer perConn.Fire()

	go func() {
		defer perConn.Fire()
		reader := bufio.NewReader(conn)
		for {
			frame, err := reader.ReadBytes(0)
			if err != nil {
				return
			}
			payload, err := wire.DecodeCOBS(frame)
			if err != nil {
				deps.Logger.Debug().Err(err).Msg("binary port decode frame failed")
				continue
			}
			cmd, err := wire.DecodeCommand(payload)
			if err != nil {
				deps.Logger.Debug().Err(err).Msg("binary port decode command failed")
				continue
			}
			select {
			case deps.Commands <- cmd:
			case <-perConn.Done():
				return
			case <-deps.Shutdown.Done():
				return
			}
		}
	}()

	runOutbound(deps, perConn, func(ev wire.Event) error {
		frame := wire.EncodeCOBS(wire.EncodeEvent(ev))
		_, err := conn.Write(frame)
		return err
	})
}
