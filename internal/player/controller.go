/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package player implements the command/event reducer that owns all
// playback state (spec.md §4.1): the Controller mediates between user
// commands, audio-pipeline messages, and the optional ping supervisor.
package player

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/rradio/internal/broadcast"
	"github.com/friendsincode/rradio/internal/config"
	"github.com/friendsincode/rradio/internal/pipeline"
	"github.com/friendsincode/rradio/internal/ping"
	"github.com/friendsincode/rradio/internal/shutdown"
	"github.com/friendsincode/rradio/internal/station"
	"github.com/friendsincode/rradio/internal/telemetry"
)

// rebroadcastInterval is the silence timeout after which the reducer
// re-publishes PlayerState so observers see live track_position
// (spec.md §4.1).
const rebroadcastInterval = 333 * time.Millisecond

// Controller is the single-threaded event loop owning PlayerState, the
// pipeline adapter, the resume map, and the current PlaylistState
// (spec.md §3 "Ownership").
type Controller struct {
	cfg    *config.Config
	logger zerolog.Logger

	adapter *pipeline.Adapter

	commands chan Command

	stateCell *broadcast.Watched[PlayerState]
	logBus    *broadcast.Bus[LogMessage]
	trackURL  *broadcast.Watched[*string]

	resumeMap map[string]ResumeInfo
	playlist  *PlaylistState

	state PlayerState

	queuedSeek *time.Duration
}

// New constructs a Controller; no pipeline activity happens until Run.
func New(cfg *config.Config, logger zerolog.Logger, adapter *pipeline.Adapter) *Controller {
	initial := PlayerState{
		PipelineState:  pipeline.Null,
		CurrentStation: CurrentStation{Kind: NoStation},
		Volume:         cfg.InitialVolume,
	}

	return &Controller{
		cfg:       cfg,
		logger:    logger,
		adapter:   adapter,
		commands:  make(chan Command, 64),
		stateCell: broadcast.NewWatched(initial),
		logBus:    broadcast.NewBus[LogMessage](),
		trackURL:  broadcast.NewWatched[*string](nil),
		resumeMap: make(map[string]ResumeInfo),
		state:     initial,
	}
}

// Commands returns the command sender shared by every port listener
// (spec.md §3 "Ownership": "a shared command sender").
func (c *Controller) Commands() chan<- Command { return c.commands }

// State returns the watched read-only PlayerState view.
func (c *Controller) State() *broadcast.Watched[PlayerState] { return c.stateCell }

// Logs returns the broadcast log-message stream.
func (c *Controller) Logs() *broadcast.Bus[LogMessage] { return c.logBus }

// TrackURL exposes the watched current-track-URL cell the ping
// supervisor multiplexes against (spec.md §4.4).
func (c *Controller) TrackURL() *broadcast.Watched[*string] { return c.trackURL }

// Run is the reducer's event loop. It exits when shutdownSig fires, the
// command channel is closed, or the pipeline message stream is closed;
// on exit it releases the current playlist and sets the pipeline to Null.
// It does not stop or wait for the ping driver.
func (c *Controller) Run(shutdownSig *shutdown.Signal, pingState *broadcast.Watched[ping.Times]) {
	pipelineMsgs := c.adapter.Messages(64)
	defer c.adapter.Unsubscribe(pipelineMsgs)

	ticker := time.NewTicker(rebroadcastInterval)
	defer ticker.Stop()

	pingVersion := uint64(0)
	if pingState != nil {
		_, pingVersion = pingState.Get()
	}

	for {
		var pingChanged <-chan struct{}
		if pingState != nil {
			pingChanged = pingState.Changed()
		}

		select {
		case <-shutdownSig.Done():
			c.shutdownPlaylist()
			return

		case cmd, ok := <-c.commands:
			if !ok {
				c.shutdownPlaylist()
				return
			}
			telemetry.CommandsTotal.WithLabelValues(cmd.Kind.String()).Inc()
			c.handleCommand(cmd)
			c.broadcast()

		case msg, ok := <-pipelineMsgs:
			if !ok {
				c.shutdownPlaylist()
				return
			}
			c.handlePipelineMessage(msg)
			c.broadcast()

		case <-pingChanged:
			if pingState != nil {
				v, ver := pingState.Get()
				pingVersion = ver
				c.state.PingTimes = v
				c.broadcast()
			}
			_ = pingVersion

		case <-ticker.C:
			c.broadcast()
		}
	}
}

func (c *Controller) broadcast() {
	c.stateCell.Set(c.state)
	telemetry.PipelineStateGauge.Set(float64(c.state.PipelineState))
}

func (c *Controller) logInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.logger.Info().Msg(msg)
	c.logBus.Publish(LogMessage{Timestamp: time.Now().UTC(), Level: "info", Message: msg})
}

func (c *Controller) recordError(err error) {
	report := ErrorReport{Timestamp: time.Now().UTC(), Message: err.Error()}
	c.state.LatestError = &report
	c.logger.Error().Err(err).Msg("player error")
}

func (c *Controller) shutdownPlaylist() {
	if c.playlist != nil && c.playlist.Handle != nil {
		_ = c.playlist.Handle.Close()
	}
	c.playlist = nil
	_ = c.adapter.SetPipelineState(pipeline.Null)
}

// handleCommand dispatches one Command per spec.md §4.1 "Command semantics".
func (c *Controller) handleCommand(cmd Command) {
	switch cmd.Kind {
	case CmdSetChannel:
		c.setChannel(cmd.ChannelIndex)

	case CmdPlayPause:
		c.playPause()

	case CmdPrevious:
		c.previousItem()

	case CmdSmartPrevious:
		c.smartPreviousItem()

	case CmdNext:
		c.nextItem()

	case CmdNth:
		c.nthItem(cmd.NthIndex)

	case CmdSeekTo:
		c.seekTo(cmd.SeekDuration)

	case CmdSeekBackwards:
		c.seekRelative(-cmd.SeekDuration)

	case CmdSeekForwards:
		c.seekRelative(cmd.SeekDuration)

	case CmdSetVolume:
		c.setVolume(cmd.Volume)

	case CmdVolumeUp:
		c.volumeStep(1)

	case CmdVolumeDown:
		c.volumeStep(-1)

	case CmdSetMuted:
		c.adapter.SetMuted(cmd.Muted)
		c.state.IsMuted = cmd.Muted

	case CmdToggleMuted:
		c.state.IsMuted = c.adapter.ToggleMuted()

	case CmdSetPlaylist:
		c.setPlaylist(cmd.PlaylistTitle, cmd.PlaylistURLs)

	case CmdEject:
		c.eject()

	case CmdDebugPipeline:
		c.adapter.DebugPipeline()
	}
}

func (c *Controller) setChannel(index string) {
	playlist, err := station.Resolve(c.cfg, index, c.resumeInfoFor(index))
	if err != nil {
		c.enterStationErrorPath(err)
		return
	}
	c.playStation(playlist)
}

func (c *Controller) resumeInfoFor(index string) *station.ResumeInfo {
	info, ok := c.resumeMap[index]
	if !ok {
		return nil
	}
	return &station.ResumeInfo{Metadata: info.Metadata}
}

// playStation implements spec.md §4.1's nine-step play_station protocol.
func (c *Controller) playStation(p *station.Playlist) {
	// Step 1: snapshot resume info for the outgoing non-UrlList station
	// (invariant (iv): only non-UrlList, only when switching stations).
	if c.playlist != nil && c.state.CurrentStation.Kind == PlayingStation &&
		c.state.CurrentStation.Index != nil && c.state.CurrentStation.Type != station.TypeURLList &&
		p.StationIndex != nil && *c.state.CurrentStation.Index != *p.StationIndex {
		position := time.Duration(0)
		if c.state.TrackPosition != nil {
			position = *c.state.TrackPosition
		}
		c.resumeMap[*c.state.CurrentStation.Index] = ResumeInfo{
			TrackIndex:    c.playlist.CurrentTrackIndex,
			TrackPosition: position,
			Metadata:      c.playlist.Metadata,
		}
	}

	// Step 2: clear the current playlist/station.
	if c.playlist != nil && c.playlist.Handle != nil {
		_ = c.playlist.Handle.Close()
	}
	c.playlist = nil
	c.state.CurrentStation = CurrentStation{Kind: NoStation}
	c.state.CurrentTrackTags = TrackTags{}
	c.state.IsMuted = false
	c.adapter.SetMuted(false)
	_ = c.adapter.SetPipelineState(pipeline.Null)
	c.broadcast()

	// Step 3: early feedback with tracks:None.
	c.state.CurrentStation = CurrentStation{
		Kind:  PlayingStation,
		Index: p.StationIndex,
		Title: p.StationTitle,
		Type:  p.StationType,
	}
	c.broadcast()

	// Step 4 happened synchronously above (resolver already ran in
	// setChannel); steps 5-9 continue here.
	tracks := p.Tracks
	if len(tracks) > 1 && (c.cfg.Notifications.PlaylistPrefix != "" || c.cfg.Notifications.PlaylistSuffix != "") {
		tracks = wrapWithNotifications(tracks, c.cfg.Notifications.PlaylistPrefix, c.cfg.Notifications.PlaylistSuffix)
	}

	startIndex := 0
	var resumedPosition *time.Duration
	if p.StationIndex != nil {
		if info, ok := c.resumeMap[*p.StationIndex]; ok {
			startIndex = info.TrackIndex
			pos := info.TrackPosition
			resumedPosition = &pos
		}
	}
	if startIndex >= len(tracks) {
		startIndex = 0
	}

	c.playlist = &PlaylistState{
		Tracks:            tracks,
		CurrentTrackIndex: startIndex,
		Metadata:          p.Metadata,
		Handle:            p.Handle,
	}

	c.state.CurrentStation.Tracks = tracks
	c.state.CurrentTrackIndex = startIndex
	// spec.md §9 Open Question: latest_error clears on a station switch
	// (SetChannel or SetPlaylist) that actually reaches PlayingStation,
	// never automatically otherwise.
	c.state.LatestError = nil
	c.broadcast()

	c.queuedSeek = resumedPosition
	telemetry.StationSwitchesTotal.Inc()

	c.playCurrentTrack()
}

// playCurrentTrack implements spec.md §4.1 play_current_track.
func (c *Controller) playCurrentTrack() {
	if c.playlist == nil || len(c.playlist.Tracks) == 0 {
		return
	}

	track := c.playlist.Tracks[c.playlist.CurrentTrackIndex]

	var urlCopy *string
	u := track.URL
	urlCopy = &u
	c.trackURL.Set(urlCopy)

	c.adapter.SetURL(track.URL)
	c.state.CurrentTrackTags = TrackTags{}
	if track.Title != nil {
		title := *track.Title
		c.state.CurrentTrackTags.Title = &title
	}

	if c.playlist.PauseBeforePlaying != nil {
		pause := *c.playlist.PauseBeforePlaying
		_ = c.adapter.SetPipelineState(pipeline.Paused)
		c.state.PauseBeforePlaying = &pause
		c.broadcast()
		time.Sleep(pause)
		c.state.PauseBeforePlaying = nil
	}

	_ = c.adapter.SetPipelineState(pipeline.Playing)
	c.state.PipelineState = pipeline.Playing
}

func wrapWithNotifications(tracks []station.Track, prefix, suffix string) []station.Track {
	var wrapped []station.Track
	if prefix != "" {
		wrapped = append(wrapped, station.Track{URL: prefix, IsNotification: true})
	}
	wrapped = append(wrapped, tracks...)
	if suffix != "" {
		wrapped = append(wrapped, station.Track{URL: suffix, IsNotification: true})
	}
	return wrapped
}

func (c *Controller) playPause() {
	if c.playlist == nil {
		return
	}

	switch c.state.PipelineState {
	case pipeline.Null, pipeline.Ready, pipeline.Paused:
		_ = c.adapter.SetPipelineState(pipeline.Playing)
		c.state.PipelineState = pipeline.Playing
		c.adapter.SetMuted(false)
		c.state.IsMuted = false

	case pipeline.Playing:
		if dur, ok := c.adapter.Duration(); ok {
			c.state.TrackDuration = &dur
			_ = c.adapter.SetPipelineState(pipeline.Paused)
			c.state.PipelineState = pipeline.Paused
		} else {
			_ = c.adapter.SetPipelineState(pipeline.Null)
			c.state.PipelineState = pipeline.Null
		}
	}
}

func (c *Controller) previousItem() {
	if c.playlist == nil || len(c.playlist.Tracks) == 0 {
		return
	}
	n := len(c.playlist.Tracks)
	c.playlist.CurrentTrackIndex = (c.playlist.CurrentTrackIndex - 1 + n) % n
	c.state.CurrentTrackIndex = c.playlist.CurrentTrackIndex
	c.playCurrentTrack()
}

func (c *Controller) nextItem() {
	if c.playlist == nil || len(c.playlist.Tracks) == 0 {
		return
	}
	n := len(c.playlist.Tracks)
	c.playlist.CurrentTrackIndex = (c.playlist.CurrentTrackIndex + 1) % n
	c.state.CurrentTrackIndex = c.playlist.CurrentTrackIndex
	c.playCurrentTrack()
}

func (c *Controller) smartPreviousItem() {
	if c.playlist == nil {
		return
	}
	threshold := c.cfg.SmartGotoPreviousTrackDuration.Duration()
	if c.state.TrackPosition == nil || *c.state.TrackPosition < threshold {
		c.previousItem()
		return
	}
	c.seekTo(0)
}

func (c *Controller) nthItem(i uint) {
	if c.playlist == nil || int(i) >= len(c.playlist.Tracks) {
		c.logger.Warn().Uint("index", i).Msg("nth_item: index out of range")
		return
	}
	c.playlist.CurrentTrackIndex = int(i)
	c.state.CurrentTrackIndex = int(i)
	c.playCurrentTrack()
}

func (c *Controller) seekTo(d time.Duration) {
	if c.state.TrackPosition == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	_ = c.adapter.SeekTo(d)
	c.state.TrackPosition = &d
}

func (c *Controller) seekRelative(delta time.Duration) {
	if c.state.TrackPosition == nil {
		return
	}
	next := *c.state.TrackPosition + delta
	if next < 0 {
		next = 0
	}
	c.seekTo(next)
}

func (c *Controller) setVolume(v int32) {
	if v < 0 {
		v = 0
	}
	if v > 120 {
		v = 120
	}
	c.adapter.SetVolume(v)
	c.state.Volume = c.adapter.Volume()
}

// volumeStep implements spec.md §4.1 VolumeUp/Down: round to nearest
// multiple of volume_offset, then add/subtract one offset.
func (c *Controller) volumeStep(direction int32) {
	offset := c.cfg.VolumeOffset
	current := c.state.Volume
	rounded := ((current + offset/2) / offset) * offset
	c.setVolume(rounded + direction*offset)
}

func (c *Controller) setPlaylist(title string, urls []string) {
	tracks := make([]station.Track, 0, len(urls))
	for _, u := range urls {
		tracks = append(tracks, station.Track{URL: u})
	}
	var titlePtr *string
	if title != "" {
		titlePtr = &title
	}
	c.playStation(&station.Playlist{
		Tracks:       tracks,
		StationTitle: titlePtr,
		StationType:  station.TypeURLList,
		Handle:       nil,
	})
}

func (c *Controller) eject() {
	if c.state.CurrentStation.Kind != PlayingStation || c.state.CurrentStation.Type != station.TypeCD {
		return
	}

	index := ""
	if c.state.CurrentStation.Index != nil {
		index = *c.state.CurrentStation.Index
	}

	if c.playlist != nil && c.playlist.Handle != nil {
		_ = c.playlist.Handle.Close()
	}
	c.playlist = nil
	c.state.CurrentStation = CurrentStation{Kind: NoStation}
	delete(c.resumeMap, index)
	_ = c.adapter.SetPipelineState(pipeline.Null)

	if err := station.Eject(c.cfg); err != nil {
		c.recordError(err)
	}
}

// handlePipelineMessage implements spec.md §4.1 "Pipeline message handling".
func (c *Controller) handlePipelineMessage(msg pipeline.Message) {
	if !c.adapter.IsSrcOf(msg) {
		return
	}

	switch msg.Kind {
	case pipeline.MsgBuffering:
		c.state.Buffering = msg.BufferingPercent

	case pipeline.MsgTag:
		c.handleTag(msg.Tags)

	case pipeline.MsgStateChanged:
		c.state.PipelineState = msg.StateCurrent
		if msg.StateCurrent == pipeline.Playing && c.queuedSeek != nil {
			seek := *c.queuedSeek
			c.queuedSeek = nil
			_ = c.adapter.SeekTo(seek)
		}
		if pos, ok := c.adapter.Position(); ok {
			c.state.TrackPosition = &pos
		}
		if dur, ok := c.adapter.Duration(); ok {
			c.state.TrackDuration = &dur
		}

	case pipeline.MsgEos:
		c.handleEos()

	case pipeline.MsgError:
		c.handlePipelineError(msg)
	}
}

func (c *Controller) handleTag(tags pipeline.Tags) {
	if c.playlist == nil {
		return
	}
	track := c.playlist.Tracks[c.playlist.CurrentTrackIndex]
	if track.IsNotification {
		return
	}

	next := c.state.CurrentTrackTags
	changed := false
	setIfChanged := func(dst **string, value string) {
		if value == "" || (*dst != nil && **dst == value) {
			return
		}
		v := value
		*dst = &v
		changed = true
	}
	setIfChanged(&next.Title, tags.Title)
	setIfChanged(&next.Organisation, tags.Organisation)
	setIfChanged(&next.Artist, tags.Artist)
	setIfChanged(&next.Album, tags.Album)
	setIfChanged(&next.Genre, tags.Genre)
	setIfChanged(&next.Image, tags.Image)
	setIfChanged(&next.Comment, tags.Comment)

	if changed {
		c.state.CurrentTrackTags = next
	}

	if tags.HasDuration {
		c.adapter.ObserveDuration(tags.Duration)
	}
	if dur, ok := c.adapter.Duration(); ok {
		c.state.TrackDuration = &dur
	}
}

func (c *Controller) handleEos() {
	if c.playlist == nil {
		return
	}

	if _, ok := c.adapter.Duration(); ok {
		if len(c.playlist.Tracks) == 1 {
			c.playlist = nil
			c.state.CurrentStation = CurrentStation{Kind: NoStation}
			_ = c.adapter.SetPipelineState(pipeline.Null)
			return
		}
		c.nextItem()
		return
	}

	// Live stream: back off per spec.md §4.1 EOS handling.
	increment := c.cfg.PauseBeforePlayingIncrement.Duration()
	maxPause := c.cfg.MaxPauseBeforePlaying.Duration()

	current := time.Duration(0)
	if c.playlist.PauseBeforePlaying != nil {
		current = *c.playlist.PauseBeforePlaying
	}
	next := current + increment

	if next > maxPause {
		c.enterStationErrorPath(fmt.Errorf("live stream retry backoff exceeded max_pause_before_playing"))
		return
	}

	c.playlist.PauseBeforePlaying = &next
	c.playCurrentTrack()
}

func (c *Controller) handlePipelineError(msg pipeline.Message) {
	telemetry.PipelineErrorsTotal.WithLabelValues(msg.ErrorDomain).Inc()

	err := fmt.Errorf("pipeline error [%s/%s]: %s", msg.ErrorDomain, msg.ErrorCode, msg.ErrorMsg)
	c.recordError(err)

	recoverable := msg.ErrorDomain == "StreamError"
	if recoverable && c.playlist != nil && len(c.playlist.Tracks) > 1 {
		c.nextItem()
		return
	}

	c.enterStationErrorPath(err)
}

// enterStationErrorPath implements spec.md §4.1/§7 "Error path".
func (c *Controller) enterStationErrorPath(err error) {
	if c.playlist != nil && c.playlist.Handle != nil {
		_ = c.playlist.Handle.Close()
	}
	c.playlist = nil

	c.state.CurrentStation = CurrentStation{Kind: FailedToPlayStation, Error: err.Error()}
	c.recordError(err)
	_ = c.adapter.SetPipelineState(pipeline.Null)

	if c.cfg.Notifications.Error != "" && c.cfg.PlayErrorSoundOnGstreamerError {
		c.adapter.PlayURL(c.cfg.Notifications.Error)
	}
}
