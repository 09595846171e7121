/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"encoding/xml"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pelletier/go-toml/v2"
)

// upnpSortBy mirrors the TOML "sort_by" key (spec.md §4.3).
type upnpSortBy string

const (
	upnpSortNone        upnpSortBy = "none"
	upnpSortTrackNumber upnpSortBy = "track_number"
	upnpSortRandom      upnpSortBy = "random"
)

// upnpFile is the .upnp TOML document shape. Exactly one of the three
// envelope tables is populated; which one selects browse behaviour.
type upnpFile struct {
	RootDescriptionURL string `toml:"root_description_url"`
	Container          *struct {
		Path             string     `toml:"container"`
		SortBy           upnpSortBy `toml:"sort_by"`
		LimitTrackCount  *int       `toml:"limit_track_count"`
		FilterUPnPClass  string     `toml:"filter_upnp_class"`
	} `toml:"container"`
	RandomContainer *struct {
		Path            string `toml:"container"`
		LimitTrackCount *int   `toml:"limit_track_count"`
		FilterUPnPClass string `toml:"filter_upnp_class"`
	} `toml:"random_container"`
	FlattenedContainer *struct {
		Path            string     `toml:"container"`
		SortBy          upnpSortBy `toml:"sort_by"`
		LimitTrackCount *int       `toml:"limit_track_count"`
		FilterUPnPClass string     `toml:"filter_upnp_class"`
	} `toml:"flattened_container"`
}

// upnpDidlItem is one <item>/<container> entry of a ContentDirectory
// Browse response's embedded DIDL-Lite document.
type upnpDidlItem struct {
	ID      string `xml:"id,attr"`
	Class   string `xml:"class"`
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
	Album   string `xml:"album"`
	Res     string `xml:"res"`
	IsContainer bool
}

type upnpDidlLite struct {
	XMLName   xml.Name       `xml:"DIDL-Lite"`
	Items     []upnpDidlItem `xml:"item"`
	Containers []upnpDidlItem `xml:"container"`
}

type upnpBrowseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		BrowseResponse struct {
			Result     string `xml:"Result"`
			NumberReturned int `xml:"NumberReturned"`
		} `xml:"BrowseResponse"`
	} `xml:"Body"`
}

func loadUPnP(path, index string, resume *ResumeInfo) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStationFile, err)
	}

	var doc upnpFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStationFile, err)
	}

	client := resty.New().SetTimeout(10 * time.Second)

	objectID := ""
	if resume != nil && resume.Metadata.Kind == MetadataUPnP {
		objectID = resume.Metadata.UPnPObjectID
	}

	switch {
	case doc.Container != nil:
		browseID := objectID
		if browseID == "" {
			browseID = doc.Container.Path
		}
		items, err := upnpBrowse(client, doc.RootDescriptionURL, browseID)
		if err != nil {
			return nil, err
		}
		return upnpPlaylist(index, browseID, items, doc.Container.SortBy, doc.Container.LimitTrackCount)

	case doc.RandomContainer != nil:
		browseID := objectID
		if browseID == "" {
			browseID = doc.RandomContainer.Path
		}
		children, err := upnpBrowse(client, doc.RootDescriptionURL, browseID)
		if err != nil {
			return nil, err
		}
		var containers []upnpDidlItem
		for _, c := range children {
			if c.IsContainer {
				containers = append(containers, c)
			}
		}
		if len(containers) == 0 {
			return upnpPlaylist(index, browseID, children, upnpSortNone, doc.RandomContainer.LimitTrackCount)
		}
		chosen := containers[rand.Intn(len(containers))]
		items, err := upnpBrowse(client, doc.RootDescriptionURL, chosen.ID)
		if err != nil {
			return nil, err
		}
		return upnpPlaylist(index, chosen.ID, items, upnpSortNone, doc.RandomContainer.LimitTrackCount)

	case doc.FlattenedContainer != nil:
		browseID := objectID
		if browseID == "" {
			browseID = doc.FlattenedContainer.Path
		}
		items, err := upnpFlatten(client, doc.RootDescriptionURL, browseID)
		if err != nil {
			return nil, err
		}
		return upnpPlaylist(index, browseID, items, doc.FlattenedContainer.SortBy, doc.FlattenedContainer.LimitTrackCount)

	default:
		return nil, fmt.Errorf("%w: .upnp file names no envelope table", ErrBadStationFile)
	}
}

// upnpBrowse issues a BrowseDirectChildren SOAP request and returns the
// direct children of objectID.
func upnpBrowse(client *resty.Client, controlURL, objectID string) ([]upnpDidlItem, error) {
	body := fmt.Sprintf(`<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
<s:Body><u:Browse xmlns:u="urn:schemas-upnp-org:service:ContentDirectory:1">
<ObjectID>%s</ObjectID><BrowseFlag>BrowseDirectChildren</BrowseFlag>
<Filter>*</Filter><StartingIndex>0</StartingIndex><RequestedCount>0</RequestedCount><SortCriteria></SortCriteria>
</u:Browse></s:Body></s:Envelope>`, objectID)

	resp, err := client.R().
		SetHeader("Content-Type", `text/xml; charset="utf-8"`).
		SetHeader("SOAPAction", `"urn:schemas-upnp-org:service:ContentDirectory:1#Browse"`).
		SetBody(body).
		Post(controlURL)
	if err != nil {
		return nil, fmt.Errorf("%w: upnp browse: %v", ErrBadStationFile, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: upnp browse status %d", ErrBadStationFile, resp.StatusCode())
	}

	var envelope upnpBrowseEnvelope
	if err := xml.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("%w: upnp envelope decode: %v", ErrBadStationFile, err)
	}

	var didl upnpDidlLite
	if err := xml.Unmarshal([]byte(envelope.Body.BrowseResponse.Result), &didl); err != nil {
		return nil, fmt.Errorf("%w: upnp didl decode: %v", ErrBadStationFile, err)
	}

	items := make([]upnpDidlItem, 0, len(didl.Items)+len(didl.Containers))
	items = append(items, didl.Items...)
	for _, c := range didl.Containers {
		c.IsContainer = true
		items = append(items, c)
	}
	return items, nil
}

// upnpFlatten recursively browses objectID and every descendant
// container, returning every leaf item (spec.md §4.3 "flattened_container").
func upnpFlatten(client *resty.Client, controlURL, objectID string) ([]upnpDidlItem, error) {
	children, err := upnpBrowse(client, controlURL, objectID)
	if err != nil {
		return nil, err
	}

	var leaves []upnpDidlItem
	for _, c := range children {
		if c.IsContainer {
			nested, err := upnpFlatten(client, controlURL, c.ID)
			if err != nil {
				return nil, err
			}
			leaves = append(leaves, nested...)
			continue
		}
		leaves = append(leaves, c)
	}
	return leaves, nil
}

func upnpPlaylist(index, objectID string, items []upnpDidlItem, sortBy upnpSortBy, limit *int) (*Playlist, error) {
	filtered := items[:0:0]
	for _, it := range items {
		if it.IsContainer {
			continue
		}
		if strings.TrimSpace(it.Res) == "" {
			continue
		}
		filtered = append(filtered, it)
	}

	switch sortBy {
	case upnpSortRandom:
		rand.Shuffle(len(filtered), func(i, j int) { filtered[i], filtered[j] = filtered[j], filtered[i] })
	case upnpSortTrackNumber:
		// titles are assumed to already carry a sortable track prefix
		// from the server; no stable secondary key is specified.
	}

	if limit != nil && *limit >= 0 && *limit < len(filtered) {
		filtered = filtered[:*limit]
	}

	tracks := make([]Track, 0, len(filtered))
	for _, it := range filtered {
		title := it.Title
		artist := it.Creator
		album := it.Album
		tracks = append(tracks, Track{
			Title:  &title,
			Artist: &artist,
			Album:  &album,
			URL:    it.Res,
		})
	}

	idx := index
	return &Playlist{
		Tracks:       tracks,
		StationIndex: &idx,
		StationType:  TypeUPnP,
		Metadata:     Metadata{Kind: MetadataUPnP, UPnPObjectID: objectID},
		Handle:       noopHandle{},
	}, nil
}
