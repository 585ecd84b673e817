package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Store is a file search store.
type Store struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Document is an indexed document inside a file search store.
type Document struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// ListStores returns all file search stores, following pagination.
func (c *Client) ListStores(ctx context.Context) ([]Store, error) {
	var stores []Store
	pageToken := ""
	for {
		u := c.baseURL + "/v1beta/fileSearchStores"
		if pageToken != "" {
			u += "?pageToken=" + pageToken
		}

		var resp struct {
			FileSearchStores []Store `json:"fileSearchStores"`
			NextPageToken    string  `json:"nextPageToken"`
		}
		if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
			return nil, fmt.Errorf("listing file search stores: %w", err)
		}

		stores = append(stores, resp.FileSearchStores...)
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return stores, nil
}

// CreateStore creates a new file search store with the given display name.
func (c *Client) CreateStore(ctx context.Context, displayName string) (Store, error) {
	body := map[string]string{"displayName": displayName}

	var store Store
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/v1beta/fileSearchStores", body, &store); err != nil {
		return Store{}, fmt.Errorf("creating file search store: %w", err)
	}
	if store.Name == "" {
		return Store{}, fmt.Errorf("created store has no resource name")
	}
	return store, nil
}

// GetOrCreateStore returns the resource name of the store with the given
// display name, creating it if no such store exists. Get-or-create by
// display name keeps repeated runs bound to the same store.
func (c *Client) GetOrCreateStore(ctx context.Context, displayName string) (string, error) {
	stores, err := c.ListStores(ctx)
	if err != nil {
		return "", err
	}
	for _, s := range stores {
		if s.DisplayName == displayName {
			return s.Name, nil
		}
	}

	store, err := c.CreateStore(ctx, displayName)
	if err != nil {
		return "", err
	}
	return store.Name, nil
}

// ListDocuments returns the documents in a store, following pagination.
func (c *Client) ListDocuments(ctx context.Context, storeName string) ([]Document, error) {
	var docs []Document
	pageToken := ""
	for {
		u := fmt.Sprintf("%s/v1beta/%s/documents", c.baseURL, storeName)
		if pageToken != "" {
			u += "?pageToken=" + pageToken
		}

		var resp struct {
			Documents     []Document `json:"documents"`
			NextPageToken string     `json:"nextPageToken"`
		}
		if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
			return nil, fmt.Errorf("listing documents in %s: %w", storeName, err)
		}

		docs = append(docs, resp.Documents...)
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return docs, nil
}

// FindDocument returns the resource name of a document with the given
// display name, or "" if none exists. Listing failures are treated as
// not-found so an upload is attempted rather than aborted.
func (c *Client) FindDocument(ctx context.Context, storeName, displayName string) string {
	docs, err := c.ListDocuments(ctx, storeName)
	if err != nil {
		return ""
	}
	for _, d := range docs {
		if d.DisplayName == displayName {
			return d.Name
		}
	}
	return ""
}

// --- upload ---

type uploadMetadata struct {
	DisplayName    string          `json:"displayName"`
	MimeType       string          `json:"mimeType"`
	ChunkingConfig *chunkingConfig `json:"chunkingConfig,omitempty"`
}

type chunkingConfig struct {
	WhiteSpaceConfig whiteSpaceConfig `json:"whiteSpaceConfig"`
}

type whiteSpaceConfig struct {
	MaxTokensPerChunk int `json:"maxTokensPerChunk"`
	MaxOverlapTokens  int `json:"maxOverlapTokens"`
}

type operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response *struct {
		DocumentName string `json:"documentName"`
	} `json:"response"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// UploadDocument uploads markdown content into a file search store under a
// deterministic display name and waits for indexing to complete. It returns
// the indexed document's resource name.
//
// If skipIfExists is set and a document with the same display name is
// already present, the existing document is returned without re-uploading.
func (c *Client) UploadDocument(ctx context.Context, content, displayName, storeName string, skipIfExists bool) (string, error) {
	if skipIfExists {
		if existing := c.FindDocument(ctx, storeName, displayName); existing != "" {
			return existing, nil
		}
	}

	op, err := c.startUpload(ctx, content, displayName, storeName)
	if err != nil {
		return "", err
	}

	op, err = c.waitForOperation(ctx, op)
	if err != nil {
		return "", err
	}

	if op.Error != nil {
		return "", fmt.Errorf("indexing failed: %s", op.Error.Message)
	}
	if op.Response == nil || op.Response.DocumentName == "" {
		return "", fmt.Errorf("operation completed without a document name")
	}
	return op.Response.DocumentName, nil
}

// startUpload performs the resumable upload handshake: a start request
// carrying the metadata, then a single upload-and-finalize request with the
// content against the session URL from the start response.
func (c *Client) startUpload(ctx context.Context, content, displayName, storeName string) (*operation, error) {
	meta := uploadMetadata{
		DisplayName: displayName,
		MimeType:    "text/markdown",
		ChunkingConfig: &chunkingConfig{
			WhiteSpaceConfig: whiteSpaceConfig{
				MaxTokensPerChunk: 500,
				MaxOverlapTokens:  50,
			},
		},
	}
	metaBody, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encoding upload metadata: %w", err)
	}

	startURL := fmt.Sprintf("%s/upload/v1beta/%s:uploadToFileSearchStore", c.baseURL, storeName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, startURL, bytes.NewReader(metaBody))
	if err != nil {
		return nil, fmt.Errorf("creating upload start request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(len(content)))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", "text/markdown")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload start: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upload start returned status %d", resp.StatusCode)
	}

	sessionURL := resp.Header.Get("X-Goog-Upload-URL")
	if sessionURL == "" {
		return nil, fmt.Errorf("upload start response missing session URL")
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, sessionURL, strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	req.Header.Set("X-Goog-Upload-Offset", "0")

	resp, err = c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading content: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp)
	}

	var op operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("decoding upload operation: %w", err)
	}
	return &op, nil
}

// waitForOperation polls until the indexing operation reports done or the
// attempt bound is reached.
func (c *Client) waitForOperation(ctx context.Context, op *operation) (*operation, error) {
	for attempt := 0; !op.Done; attempt++ {
		if attempt >= c.maxPollAttempts {
			return nil, fmt.Errorf("indexing did not complete after %d polls", c.maxPollAttempts)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		var next operation
		if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/v1beta/"+op.Name, nil, &next); err != nil {
			return nil, fmt.Errorf("polling operation %s: %w", op.Name, err)
		}
		next.Name = op.Name
		op = &next
	}
	return op, nil
}
