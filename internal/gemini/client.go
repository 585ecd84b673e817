// Package gemini is a client for the Generative Language REST API covering
// the two capabilities the pipeline needs: content generation and file
// search stores (list, create, upload, query).
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultFlashModel is used for transcript rewriting.
	DefaultFlashModel = "gemini-2.0-flash"
	// DefaultChatModel is used for file-search grounded queries.
	DefaultChatModel = "gemini-2.5-flash"

	defaultPollInterval    = 2 * time.Second
	defaultMaxPollAttempts = 150
)

// Client talks to the Generative Language API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// Indexing poll behavior after document upload. The reference behavior
	// polls forever; we bound it and surface a timeout as an upload error.
	pollInterval    time.Duration
	maxPollAttempts int
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithPollInterval overrides the indexing poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithMaxPollAttempts overrides the indexing poll bound.
func WithMaxPollAttempts(n int) Option {
	return func(c *Client) { c.maxPollAttempts = n }
}

// New creates a Client authenticated with the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		pollInterval:    defaultPollInterval,
		maxPollAttempts: defaultMaxPollAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- generateContent ---

type generateRequest struct {
	Contents []content `json:"contents"`
	Tools    []tool    `json:"tools,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type tool struct {
	FileSearch *fileSearchTool `json:"fileSearch,omitempty"`
}

type fileSearchTool struct {
	FileSearchStoreNames []string `json:"fileSearchStoreNames"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content           content            `json:"content"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata"`
}

type groundingMetadata struct {
	GroundingChunks []groundingChunk `json:"groundingChunks"`
}

type groundingChunk struct {
	RetrievedContext *retrievedContext `json:"retrievedContext"`
}

type retrievedContext struct {
	Title string `json:"title"`
}

// GenerateContent sends a single-turn prompt to the given model and returns
// the response text. An empty response is returned as ("", nil); the caller
// decides whether that counts as failure.
func (c *Client) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	resp, err := c.generate(ctx, model, req)
	if err != nil {
		return "", err
	}
	return resp.text(), nil
}

// QueryResult is the outcome of a file-search grounded query.
type QueryResult struct {
	Text    string
	Sources []string
}

// QueryFileSearch asks a question grounded in the given file search stores
// and returns the answer plus the titles of the retrieved source documents.
func (c *Client) QueryFileSearch(ctx context.Context, model, question string, storeNames []string) (*QueryResult, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: question}}}},
		Tools: []tool{{
			FileSearch: &fileSearchTool{FileSearchStoreNames: storeNames},
		}},
	}
	resp, err := c.generate(ctx, model, req)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Text: resp.text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk.RetrievedContext != nil && chunk.RetrievedContext.Title != "" {
				result.Sources = append(result.Sources, chunk.RetrievedContext.Title)
			}
		}
	}
	return result, nil
}

func (c *Client) generate(ctx context.Context, model string, req generateRequest) (*generateResponse, error) {
	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)

	var resp generateResponse
	if err := c.doJSON(ctx, http.MethodPost, u, req, &resp); err != nil {
		return nil, fmt.Errorf("generating content with %s: %w", model, err)
	}
	return &resp, nil
}

func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// --- plumbing ---

// doJSON performs a request with a JSON body (nil for none) and decodes the
// JSON response into out (nil to discard).
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error.Message != "" {
		return fmt.Errorf("api error %d (%s): %s", resp.StatusCode, payload.Error.Status, payload.Error.Message)
	}
	return fmt.Errorf("api error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
}
