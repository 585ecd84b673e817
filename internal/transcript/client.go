// Package transcript fetches timed captions for YouTube videos via the
// public timedtext endpoint and formats them for downstream processing.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.youtube.com/api/timedtext"

// Segment is a single timed caption entry. Start and Duration are in
// seconds; ordering by Start is preserved as returned by the source.
type Segment struct {
	Text     string
	Start    float64
	Duration float64
}

// Client retrieves transcripts over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a transcript client with a 30 second request timeout.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a fake server.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Fetch returns the transcript for a video, trying each preferred language
// in order and returning the first non-empty result. A nil slice with a
// nil error means no transcript is available in any requested language;
// the caller treats disabled, missing, and unavailable identically.
func (c *Client) Fetch(ctx context.Context, videoID string, languages []string) ([]Segment, error) {
	if videoID == "" {
		return nil, fmt.Errorf("video ID is required")
	}
	if len(languages) == 0 {
		languages = []string{"en"}
	}

	var lastErr error
	for _, lang := range languages {
		segs, err := c.fetchLanguage(ctx, videoID, lang)
		if err != nil {
			lastErr = err
			continue
		}
		if len(segs) > 0 {
			return segs, nil
		}
	}
	return nil, lastErr
}

func (c *Client) fetchLanguage(ctx context.Context, videoID, lang string) ([]Segment, error) {
	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", lang)
	params.Set("fmt", "json3")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timedtext request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	case http.StatusForbidden:
		// Captions disabled or region restricted.
		return nil, nil
	default:
		return nil, fmt.Errorf("timedtext returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, fmt.Errorf("reading timedtext body: %w", err)
	}

	return parseTimedtext(body)
}

// timedtextResponse mirrors the json3 timedtext payload.
type timedtextResponse struct {
	Events []timedtextEvent `json:"events"`
}

type timedtextEvent struct {
	StartMs    int64          `json:"tStartMs"`
	DurationMs int64          `json:"dDurationMs"`
	Segs       []timedtextSeg `json:"segs"`
}

type timedtextSeg struct {
	UTF8 string `json:"utf8"`
}

func parseTimedtext(data []byte) ([]Segment, error) {
	// An empty body means the video has no captions in this language.
	if len(data) == 0 {
		return nil, nil
	}

	var resp timedtextResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing timedtext JSON: %w", err)
	}

	var segments []Segment
	for _, ev := range resp.Events {
		if len(ev.Segs) == 0 {
			continue
		}

		var sb strings.Builder
		for _, s := range ev.Segs {
			sb.WriteString(s.UTF8)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}

		segments = append(segments, Segment{
			Text:     text,
			Start:    float64(ev.StartMs) / 1000.0,
			Duration: float64(ev.DurationMs) / 1000.0,
		})
	}
	return segments, nil
}
