/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ping

import (
	"net"
	"net/url"
	"time"

	"github.com/friendsincode/rradio/internal/broadcast"
	"github.com/friendsincode/rradio/internal/config"
	"github.com/friendsincode/rradio/internal/shutdown"
)

// Driver is the async half of the ping supervisor (spec.md §4.4): it
// never blocks on the socket itself, delegating each probe to Worker and
// racing a 1-second wait against track-URL changes and global shutdown.
type Driver struct {
	worker *Worker
	cfg    config.PingConfig
	state  *broadcast.Watched[Times]
}

// NewDriver constructs a driver publishing snapshots into its own
// Watched[Times] cell, returned by State().
func NewDriver(worker *Worker, cfg config.PingConfig) *Driver {
	return &Driver{worker: worker, cfg: cfg, state: broadcast.NewWatched(Times{Label: None})}
}

// State exposes the published PingTimes snapshot.
func (d *Driver) State() *broadcast.Watched[Times] { return d.state }

// Run drives the full sequence until shutdownSig fires or urlCell is
// permanently closed. urlCell holds the currently playing track's URL,
// or nil when no track is set.
func (d *Driver) Run(shutdownSig *shutdown.Signal, urlCell *broadcast.Watched[*string]) {
	gateway := d.cfg.GatewayAddress
	if gateway == "" {
		if gw, err := DefaultGateway(); err == nil {
			gateway = gw
		}
	}

	for {
		if shutdownSig.Fired() {
			return
		}

		trackURL, version := urlCell.Get()

		if trackURL == nil {
			if d.waitForChange(shutdownSig, urlCell, version, func() {
				d.worker.Ping(d.cfg.InitialPingAddress)
			}) {
				continue
			}
			return
		}

		scheme := urlScheme(*trackURL)
		if scheme == "file" || scheme == "cdda" {
			if d.waitForChange(shutdownSig, urlCell, version, nil) {
				continue
			}
			return
		}

		host := urlHost(*trackURL)
		remoteIP, err := resolveIPv4(host)
		if err != nil {
			d.state.Set(Times{Label: GatewayAndRemote, Remote: Result{Err: &PingError{Kind: ErrDNS}}, Latest: LatestRemote})
			if d.waitForChange(shutdownSig, urlCell, version, nil) {
				continue
			}
			return
		}

		if !d.perTrackSequence(shutdownSig, urlCell, version, gateway, remoteIP) {
			return
		}
	}
}

// perTrackSequence runs the retry-then-alternate-then-steady-state
// sequence for one resolved remote address (spec.md §4.4 step 3).
func (d *Driver) perTrackSequence(shutdownSig *shutdown.Signal, urlCell *broadcast.Watched[*string], version uint64, gateway, remoteIP string) bool {
retry:
	for {
		gwResult := d.worker.Ping(gateway)
		if !gwResult.OK {
			d.state.Set(Times{Label: Gateway, Gateway: gwResult})
			if !d.waitForChange(shutdownSig, urlCell, version, nil) {
				return false
			}
			if changed, newVersion := urlCell.Get(); changed != nil && newVersion != version {
				version = newVersion
			}
			continue retry
		}

		for i := 0; i < d.cfg.RemotePingCount; i++ {
			remoteResult := d.worker.Ping(remoteIP)
			d.state.Set(Times{Label: GatewayAndRemote, Gateway: gwResult, Remote: remoteResult, Latest: LatestRemote})
			if !remoteResult.OK {
				if pe, ok := remoteResult.Err.(*PingError); !ok || pe.Kind != ErrTimeout {
					if !d.waitForChange(shutdownSig, urlCell, version, nil) {
						return false
					}
					continue retry
				}
			}

			gwResult = d.worker.Ping(gateway)
			d.state.Set(Times{Label: GatewayAndRemote, Gateway: gwResult, Remote: remoteResult, Latest: LatestGateway})
			if !gwResult.OK {
				if !d.waitForChange(shutdownSig, urlCell, version, nil) {
					return false
				}
				continue retry
			}

			if !d.waitForChange(shutdownSig, urlCell, version, nil) {
				return false
			}
		}

		for {
			gwResult := d.worker.Ping(gateway)
			d.state.Set(Times{Label: FinishedPingingRemote, Gateway: gwResult})
			if !d.waitForChange(shutdownSig, urlCell, version, nil) {
				return false
			}
			if newURL, newVersion := urlCell.Get(); newVersion != version {
				_ = newURL
				return true // new track: let Run() re-derive scheme/host
			}
		}
	}
}

// waitForChange races a 1-second timer (invoking tick, if non-nil, once
// it fires) against the url cell changing and against shutdown. Returns
// false only when shutdown fired.
func (d *Driver) waitForChange(shutdownSig *shutdown.Signal, urlCell *broadcast.Watched[*string], version uint64, tick func()) bool {
	select {
	case <-shutdownSig.Done():
		return false
	case <-urlCell.Changed():
		return true
	case <-time.After(time.Second):
		if tick != nil {
			tick()
		}
		return true
	}
}

func urlScheme(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Scheme
}

func urlHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Hostname()
}

func resolveIPv4(host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil && ip.To4() != nil {
		return ip.String(), nil
	}

	addrs, err := net.LookupIP(host)
	if err != nil {
		return "", err
	}
	for _, a := range addrs {
		if v4 := a.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return "", &PingError{Kind: ErrDNS}
}
