/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package pipeline

import (
	"bufio"
	"encoding/base64"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reBuffering   = regexp.MustCompile(`buffering\.\.\.\s*(\d+)%`)
	reTagField    = regexp.MustCompile(`^\s*(title|organisation|organization|artist|album|genre|image|comment)\s*:\s*(.+)$`)
	reDurationTag = regexp.MustCompile(`^\s*duration\s*:\s*(\d+):(\d{2}):(\d{2})\.(\d+)$`)
	reStateLine   = regexp.MustCompile(`Setting pipeline to (NULL|READY|PAUSED|PLAYING)`)
)

// scanOutput reads the child's combined stdout/stderr line by line,
// translating gst-launch-1.0 -v's textual conventions into Message
// values published on emit. Unrecognised lines are ignored, matching
// the "other(ignored)" variant in spec.md §4.2.
func scanOutput(r io.Reader, generation uint64, emit func(Message)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var tags Tags
	inTagBlock := false

	for scanner.Scan() {
		line := scanner.Text()

		if strings.Contains(line, "Got EOS from element") {
			emit(Message{Kind: MsgEos, Generation: generation})
			continue
		}

		if strings.HasPrefix(strings.TrimSpace(line), "ERROR:") {
			domain, code, msg := parseErrorLine(line)
			emit(Message{Kind: MsgError, Generation: generation, ErrorDomain: domain, ErrorCode: code, ErrorMsg: msg})
			continue
		}
		if strings.Contains(line, "Additional debug info:") {
			continue
		}

		if m := reBuffering.FindStringSubmatch(line); m != nil {
			pct, err := strconv.Atoi(m[1])
			if err == nil {
				if pct > 100 {
					pct = 100
				}
				if pct < 0 {
					pct = 0
				}
				emit(Message{Kind: MsgBuffering, Generation: generation, BufferingPercent: uint8(pct)})
			}
			continue
		}

		if strings.Contains(line, "Got tags from element") {
			inTagBlock = true
			tags = Tags{}
			continue
		}
		if inTagBlock {
			if m := reDurationTag.FindStringSubmatch(line); m != nil {
				if d, ok := parseGstDuration(m[1], m[2], m[3], m[4]); ok {
					tags.Duration = d
					tags.HasDuration = true
				}
				continue
			}
			if m := reTagField.FindStringSubmatch(line); m != nil {
				value := strings.Trim(m[2], `" `)
				switch m[1] {
				case "title":
					tags.Title = value
				case "organisation", "organization":
					tags.Organisation = value
				case "artist":
					tags.Artist = value
				case "album":
					tags.Album = value
				case "genre":
					tags.Genre = value
				case "comment":
					tags.Comment = value
				case "image":
					tags.Image = parseImageValue(value)
				}
				continue
			}
			if strings.TrimSpace(line) == "" {
				inTagBlock = false
				emit(Message{Kind: MsgTag, Generation: generation, Tags: tags})
				continue
			}
		}

		if m := reStateLine.FindStringSubmatch(line); m != nil {
			emit(Message{Kind: MsgStateChanged, Generation: generation, StateCurrent: parseGstState(m[1])})
			continue
		}
	}
}

// parseGstDuration converts gst-launch -v's "H:MM:SS.nnnnnnnnn" tag
// rendering of GST_TAG_DURATION into a time.Duration.
func parseGstDuration(h, m, s, nanos string) (time.Duration, bool) {
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, false
	}
	mins, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	secs, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	nanos = (nanos + "000000000")[:9]
	ns, err := strconv.Atoi(nanos)
	if err != nil {
		return 0, false
	}
	d := time.Duration(hours)*time.Hour + time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second + time.Duration(ns)
	return d, true
}

// parseImageValue turns a gst-launch image tag value into a data URI
// (spec.md §4.1). gst-launch -v's text output only ever shows a
// GstSample placeholder for binary tags, not the underlying bytes, so
// this only recognises a value that is already a data URI or a bare
// base64 blob; anything else (the common case) is dropped rather than
// fabricated.
func parseImageValue(value string) string {
	if strings.HasPrefix(value, "data:") {
		return value
	}
	if _, err := base64.StdEncoding.DecodeString(value); err == nil && len(value) > 0 {
		return "data:image/jpeg;base64," + value
	}
	return ""
}

func parseGstState(name string) State {
	switch name {
	case "NULL":
		return Null
	case "READY":
		return Ready
	case "PAUSED":
		return Paused
	case "PLAYING":
		return Playing
	default:
		return Null
	}
}

// parseErrorLine extracts a rough {domain, code, message} triple from a
// gst-launch ERROR line of the form:
//
//	ERROR: from element /GstPipeline:.../GstURIDecodeBin:...: <message>
func parseErrorLine(line string) (domain, code, msg string) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "ERROR:")
	parts := strings.SplitN(trimmed, ":", 2)
	if len(parts) == 2 {
		msg = strings.TrimSpace(parts[1])
	} else {
		msg = strings.TrimSpace(trimmed)
	}

	domain = "StreamError"
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "resolve") || strings.Contains(lower, "could not open"):
		domain = "ResourceError"
	case strings.Contains(lower, "not-linked") || strings.Contains(lower, "negotiat"):
		domain = "CoreError"
	}
	code = domain
	return domain, code, msg
}
