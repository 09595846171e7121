/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ping

import (
	"errors"
	"testing"
)

func TestPingErrorMessages(t *testing.T) {
	cases := map[ErrorKind]string{
		ErrDNS:                    "dns resolution failed",
		ErrTimeout:                "icmp echo timed out",
		ErrDestinationUnreachable: "destination unreachable",
		ErrFailedToSend:           "failed to send icmp echo",
		ErrFailedToReceive:        "failed to receive icmp reply",
	}
	for kind, want := range cases {
		err := &PingError{Kind: kind}
		if err.Error() != want {
			t.Errorf("Kind %d: Error() = %q, want %q", kind, err.Error(), want)
		}
	}
}

func TestPingErrorSatisfiesErrorInterface(t *testing.T) {
	var err error = &PingError{Kind: ErrTimeout}
	if !errors.As(err, new(*PingError)) {
		t.Fatal("expected *PingError to be extractable via errors.As")
	}
}
