// Package youtube lists playlist contents through the YouTube Data API v3.
package youtube

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const pageSize = 50

// Video describes one playlist entry. Immutable once produced.
type Video struct {
	ID    string
	Title string
	URL   string
}

// PlaylistClient fetches playlist metadata and entries.
type PlaylistClient struct {
	service *youtube.Service
}

// NewPlaylistClient creates a Data API backed playlist client.
func NewPlaylistClient(ctx context.Context, apiKey string) (*PlaylistClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube api key required")
	}
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	return &PlaylistClient{service: service}, nil
}

// ListVideos returns all videos in playlist order, paging through the API.
// Deleted and private entries are skipped.
func (c *PlaylistClient) ListVideos(ctx context.Context, playlistID string) ([]Video, error) {
	id := NormalizePlaylistID(playlistID)

	var videos []Video
	pageToken := ""
	for {
		call := c.service.PlaylistItems.List([]string{"snippet"}).
			PlaylistId(id).
			MaxResults(pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing playlist %s: %w", id, err)
		}

		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.ResourceId == nil {
				continue
			}
			videoID := item.Snippet.ResourceId.VideoId
			if videoID == "" || isUnavailableTitle(item.Snippet.Title) {
				continue
			}
			videos = append(videos, Video{
				ID:    videoID,
				Title: item.Snippet.Title,
				URL:   "https://www.youtube.com/watch?v=" + videoID,
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return videos, nil
}

// PlaylistTitle returns the playlist's title, or "" if it cannot be
// resolved. Title lookup failures are never fatal to a run.
func (c *PlaylistClient) PlaylistTitle(ctx context.Context, playlistID string) string {
	id := NormalizePlaylistID(playlistID)

	resp, err := c.service.Playlists.List([]string{"snippet"}).
		Id(id).
		Context(ctx).
		Do()
	if err != nil || len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return ""
	}
	return resp.Items[0].Snippet.Title
}

func isUnavailableTitle(title string) bool {
	return title == "Deleted video" || title == "Private video"
}

// NormalizePlaylistID accepts a bare playlist ID, a full playlist URL, or
// a raw "list=ID" fragment, and returns the bare ID with extraneous query
// parameters stripped.
func NormalizePlaylistID(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "list="); idx >= 0 {
		s = s[idx+len("list="):]
		if amp := strings.IndexAny(s, "&#"); amp >= 0 {
			s = s[:amp]
		}
	}
	return s
}
