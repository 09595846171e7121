/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package ping supervises ICMP health between this host, its default
// gateway, and the currently playing origin server (spec.md §4.4),
// without ever blocking the player controller: a dedicated goroutine
// owns the raw socket and an async driver multiplexes track URLs.
package ping

import "time"

// Label discriminates PingTimes (spec.md §4.4, §9 "discriminated
// holder" design note).
type Label int

const (
	// None: nothing has been attempted yet.
	None Label = iota
	// BadURL: the current track URL could not be parsed/resolved.
	BadURL
	// Gateway: only the gateway has been probed so far (retry loop).
	Gateway
	// GatewayAndRemote: steady per-track sequence, alternating probes.
	GatewayAndRemote
	// FinishedPingingRemote: remote sample budget exhausted; gateway-only probing continues.
	FinishedPingingRemote
)

// Latest discriminates which address a GatewayAndRemote snapshot most
// recently probed.
type Latest int

const (
	LatestGateway Latest = iota
	LatestRemote
)

// Result is one probe outcome: either a latency or a classified error.
type Result struct {
	OK      bool
	Latency time.Duration
	Err     error
}

// Times is the published snapshot (spec.md §4.4).
type Times struct {
	Label Label

	Gateway Result
	Remote  Result
	Latest  Latest
}

// Error classifications for PingError (spec.md §7).
type ErrorKind int

const (
	ErrDNS ErrorKind = iota
	ErrTimeout
	ErrDestinationUnreachable
	ErrFailedToSend
	ErrFailedToReceive
)

// PingError is the sentinel error type carried in Result.Err.
type PingError struct {
	Kind ErrorKind
}

func (e *PingError) Error() string {
	switch e.Kind {
	case ErrDNS:
		return "dns resolution failed"
	case ErrTimeout:
		return "icmp echo timed out"
	case ErrDestinationUnreachable:
		return "destination unreachable"
	case ErrFailedToSend:
		return "failed to send icmp echo"
	case ErrFailedToReceive:
		return "failed to receive icmp reply"
	default:
		return "ping error"
	}
}
