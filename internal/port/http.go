/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package port

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/friendsincode/rradio/internal/player"
	"github.com/friendsincode/rradio/internal/shutdown"
	"github.com/friendsincode/rradio/internal/telemetry"
	"github.com/friendsincode/rradio/internal/version"
	"github.com/friendsincode/rradio/internal/wire"
)

// jsonCommand mirrors Command's shape for POST /command (spec.md §6).
type jsonCommand struct {
	Kind          string   `json:"kind"`
	ChannelIndex  string   `json:"channel_index,omitempty"`
	NthIndex      uint     `json:"nth_index,omitempty"`
	SeekSeconds   float64  `json:"seek_seconds,omitempty"`
	Volume        int32    `json:"volume,omitempty"`
	Muted         bool     `json:"muted,omitempty"`
	PlaylistTitle string   `json:"playlist_title,omitempty"`
	PlaylistURLs  []string `json:"playlist_urls,omitempty"`
}

// ListenHTTP serves static files, POST /command, and the GET /api
// WebSocket upgrade (spec.md §4.5/§6).
func ListenHTTP(addr, staticDir string, deps Deps) error {
	r := chi.NewRouter()

	r.Get("/metrics", telemetry.Handler().ServeHTTP)

	r.Post("/command", func(w http.ResponseWriter, req *http.Request) {
		var jc jsonCommand
		if err := json.NewDecoder(req.Body).Decode(&jc); err != nil {
			http.Error(w, "bad command", http.StatusBadRequest)
			return
		}
		cmd, ok := jsonToCommand(jc)
		if !ok {
			http.Error(w, "unknown command kind", http.StatusBadRequest)
			return
		}
		select {
		case deps.Commands <- cmd:
			w.WriteHeader(http.StatusAccepted)
		case <-deps.Shutdown.Done():
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		}
	})

	r.Get("/api", func(w http.ResponseWriter, req *http.Request) {
		handleWebsocket(w, req, deps)
	})

	if staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		r.Get("/*", fs.ServeHTTP)
		r.Get("/", fs.ServeHTTP)
	}

	srv := &http.Server{Addr: addr, Handler: r}

	deps.Group.Add(1)
	go func() {
		defer deps.Group.Done()
		<-deps.Shutdown.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	deps.Logger.Info().Str("addr", addr).Msg("http port listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func handleWebsocket(w http.ResponseWriter, req *http.Request, deps Deps) {
	subprotocol := version.ProtocolSubprotocol()
	conn, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		Subprotocols: []string{subprotocol},
	})
	if err != nil {
		return
	}
	if conn.Subprotocol() != subprotocol {
		conn.Close(websocket.StatusPolicyViolation, "missing required subprotocol")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := req.Context()
	perConn := shutdown.New()
	defer perConn.Fire()

	go func() {
		defer perConn.Fire()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			cmd, err := wire.DecodeCommand(data)
			if err != nil {
				deps.Logger.Debug().Err(err).Msg("websocket decode command failed")
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
		return conn.Write(ctx, websocket.MessageBinary, wire.EncodeEvent(ev))
	})
}

func jsonToCommand(jc jsonCommand) (player.Command, bool) {
	switch jc.Kind {
	case "SetChannel":
		return player.SetChannel(jc.ChannelIndex), true
	case "PlayPause":
		return player.PlayPause, true
	case "Previous":
		return player.Previous, true
	case "SmartPrevious":
		return player.SmartPrevious, true
	case "Next":
		return player.Next, true
	case "Nth":
		return player.Nth(jc.NthIndex), true
	case "SeekTo":
		return player.SeekTo(time.Duration(jc.SeekSeconds * float64(time.Second))), true
	case "SeekBackwards":
		return player.SeekBackwards(time.Duration(jc.SeekSeconds * float64(time.Second))), true
	case "SeekForwards":
		return player.SeekForwards(time.Duration(jc.SeekSeconds * float64(time.Second))), true
	case "SetVolume":
		return player.SetVolume(jc.Volume), true
	case "VolumeUp":
		return player.VolumeUp, true
	case "VolumeDown":
		return player.VolumeDown, true
	case "SetMuted":
		return player.SetMuted(jc.Muted), true
	case "ToggleMuted":
		return player.ToggleMuted, true
	case "SetPlaylist":
		return player.SetPlaylist(jc.PlaylistTitle, jc.PlaylistURLs), true
	case "Eject":
		return player.Eject, true
	case "DebugPipeline":
		return player.DebugPipeline, true
	default:
		return player.Command{}, false
	}
}
