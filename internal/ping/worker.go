/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ping

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// request is a one-shot ICMP echo request sent to the worker goroutine.
type request struct {
	addr  string
	reply chan Result
}

// Worker owns the raw socket; all sends/receives happen on runLoop's
// goroutine, never touching PlayerState (spec.md §9 "no shared mutability").
type Worker struct {
	requests chan request
	conn     *icmp.PacketConn
	seq      int
}

// NewWorker opens the raw ICMP socket and starts the blocking loop.
func NewWorker() (*Worker, error) {
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return nil, fmt.Errorf("open icmp socket: %w", err)
	}

	w := &Worker{requests: make(chan request, 8), conn: conn}
	go w.runLoop()
	return w, nil
}

// Ping sends one ICMP echo to addr and blocks the calling goroutine
// (not the worker) for the reply or a 4-second timeout (spec.md §5).
func (w *Worker) Ping(addr string) Result {
	reply := make(chan Result, 1)
	w.requests <- request{addr: addr, reply: reply}
	return <-reply
}

// Close releases the raw socket. A death of the worker surfaces to
// callers as a terminal interruption (spec.md §4.4).
func (w *Worker) Close() error {
	close(w.requests)
	return w.conn.Close()
}

func (w *Worker) runLoop() {
	for req := range w.requests {
		req.reply <- w.ping(req.addr)
	}
}

func (w *Worker) ping(addr string) Result {
	ip := net.ParseIP(addr)
	if ip == nil || ip.To4() == nil {
		return Result{Err: &PingError{Kind: ErrDNS}}
	}

	w.seq++
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  w.seq,
			Data: []byte("rradio-ping"),
		},
	}

	wb, err := msg.Marshal(nil)
	if err != nil {
		return Result{Err: &PingError{Kind: ErrFailedToSend}}
	}

	start := time.Now()
	if _, err := w.conn.WriteTo(wb, &net.IPAddr{IP: ip}); err != nil {
		return Result{Err: &PingError{Kind: ErrFailedToSend}}
	}

	if err := w.conn.SetReadDeadline(time.Now().Add(4 * time.Second)); err != nil {
		return Result{Err: &PingError{Kind: ErrFailedToReceive}}
	}

	rb := make([]byte, 1500)
	for {
		n, peer, err := w.conn.ReadFrom(rb)
		if err != nil {
			if os.IsTimeout(err) {
				return Result{Err: &PingError{Kind: ErrTimeout}}
			}
			return Result{Err: &PingError{Kind: ErrFailedToReceive}}
		}
		if peerIP, ok := peer.(*net.IPAddr); !ok || !peerIP.IP.Equal(ip) {
			continue
		}

		parsed, err := icmp.ParseMessage(1, rb[:n])
		if err != nil {
			continue
		}

		switch parsed.Type {
		case ipv4.ICMPTypeEchoReply:
			return Result{OK: true, Latency: time.Since(start)}
		case ipv4.ICMPTypeDestinationUnreachable:
			return Result{Err: &PingError{Kind: ErrDestinationUnreachable}}
		default:
			continue
		}
	}
}

// DefaultGateway infers the default IPv4 gateway from /proc/net/route
// (spec.md §6): the row whose destination column is "00000000" carries
// the gateway as little-endian hex in the third column.
func DefaultGateway() (string, error) {
	f, err := os.Open("/proc/net/route")
	if err != nil {
		return "", fmt.Errorf("open /proc/net/route: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		if fields[1] != "00000000" {
			continue
		}
		gw, err := decodeHexGateway(fields[2])
		if err != nil {
			continue
		}
		return gw, nil
	}

	return "", fmt.Errorf("no default route found in /proc/net/route")
}

func decodeHexGateway(hexField string) (string, error) {
	raw, err := strconv.ParseUint(hexField, 16, 32)
	if err != nil {
		return "", err
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(raw))
	return net.IPv4(b[0], b[1], b[2], b[3]).String(), nil
}
