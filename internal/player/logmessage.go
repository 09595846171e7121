/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package player

import "time"

// LogMessage is one entry on the broadcast log-message stream every port
// listener forwards to its clients (spec.md §4.5 Event contract).
type LogMessage struct {
	Timestamp time.Time
	Level     string
	Message   string
}
