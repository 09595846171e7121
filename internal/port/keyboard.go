/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package port

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/friendsincode/rradio/internal/config"
	"github.com/friendsincode/rradio/internal/player"
)

// ListenKeyboard reads raw single keystrokes from stdin and turns them
// into commands (spec.md §4.5 "Keyboard"). Raw mode is entered once on
// start and restored on every exit path.
func ListenKeyboard(cfg *config.Config, deps Deps) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		deps.Logger.Debug().Msg("keyboard port skipped: stdin is not a terminal")
		<-deps.Shutdown.Done()
		return nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("keyboard port raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	deps.Logger.Info().Msg("keyboard port listening")

	reader := bufio.NewReader(os.Stdin)
	keys := make(chan byte, 16)
	readErrs := make(chan error, 1)

	go func() {
		for {
			b, err := reader.ReadByte()
			if err != nil {
				readErrs <- err
				return
			}
			keys <- b
		}
	}()

	timeout := cfg.InputTimeout.Duration()
	var pendingDigit *byte
	var timer *time.Timer
	var timerC <-chan time.Time

	clearPending := func() {
		pendingDigit = nil
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-deps.Shutdown.Done():
			return nil

		case err := <-readErrs:
			if err != nil {
				return nil
			}

		case <-timerC:
			clearPending()

		case b := <-keys:
			if cmd, exit, ok := mapKeyboardByte(b); exit {
				deps.Shutdown.Fire()
				return nil
			} else if ok {
				clearPending()
				select {
				case deps.Commands <- cmd:
				case <-deps.Shutdown.Done():
					return nil
				}
			} else if isDigit(b) {
				if pendingDigit == nil {
					d := b
					pendingDigit = &d
					timer = time.NewTimer(timeout)
					timerC = timer.C
				} else {
					idx := string([]byte{*pendingDigit, b})
					clearPending()
					select {
					case deps.Commands <- player.SetChannel(idx):
					case <-deps.Shutdown.Done():
						return nil
					}
				}
			}
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// mapKeyboardByte maps one non-digit keystroke to a Command per
// spec.md §4.5. Digit accumulation into a two-digit SetChannel is
// handled by the caller.
func mapKeyboardByte(b byte) (cmd player.Command, exit bool, ok bool) {
	switch b {
	case ' ', '\r', '\n':
		return player.PlayPause, false, true
	case '-':
		return player.Previous, false, true
	case '+':
		return player.Next, false, true
	case '*':
		return player.VolumeUp, false, true
	case '/':
		return player.VolumeDown, false, true
	case 'd', 'D':
		return player.DebugPipeline, false, true
	case 0x1b: // Esc
		return player.Command{}, true, false
	default:
		return player.Command{}, false, false
	}
}
