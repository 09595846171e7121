/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"bufio"
	"strings"
)

// m3uTrack is one parsed M3U entry before URLs are wrapped into Track.
type m3uTrack struct {
	Title *string
	URL   string
}

// parsedM3U is the result of parsing an .m3u file (spec.md §4.3,
// §8 "Parser scenarios" 1-2).
type parsedM3U struct {
	Title  *string
	Tracks []m3uTrack
}

// parseM3U parses plain or extended M3U content. A leading "#EXTM3U"
// line enables "#PLAYLIST:" (station title) and "#EXTINF:<dur>, <title>"
// pairing with the next non-comment, non-blank line (the URL).
func parseM3U(content string) parsedM3U {
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var result parsedM3U
	extended := false
	var pendingTitle *string

	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if first {
			first = false
			if line == "#EXTM3U" {
				extended = true
				continue
			}
		}

		if line == "" {
			continue
		}

		if extended && strings.HasPrefix(line, "#PLAYLIST:") {
			title := strings.TrimSpace(strings.TrimPrefix(line, "#PLAYLIST:"))
			result.Title = &title
			continue
		}

		if extended && strings.HasPrefix(line, "#EXTINF:") {
			info := strings.TrimPrefix(line, "#EXTINF:")
			// "<duration>, <title>"
			if idx := strings.Index(info, ","); idx >= 0 {
				title := strings.TrimSpace(info[idx+1:])
				if title != "" {
					pendingTitle = &title
				}
			}
			continue
		}

		if strings.HasPrefix(line, "#") {
			continue
		}

		result.Tracks = append(result.Tracks, m3uTrack{Title: pendingTitle, URL: line})
		pendingTitle = nil
	}

	return result
}
