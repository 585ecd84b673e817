package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.0-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("missing api key header")
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("prompt not forwarded: %+v", req)
		}

		json.NewEncoder(w).Encode(generateResponse{
			Candidates: []candidate{{
				Content: content{Parts: []part{{Text: "hi "}, {Text: "there"}}},
			}},
		})
	}))
	defer srv.Close()

	c := New("test-key", WithBaseURL(srv.URL))
	text, err := c.GenerateContent(context.Background(), DefaultFlashModel, "hello")
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if text != "hi there" {
		t.Errorf("text = %q", text)
	}
}

func TestGenerateContentAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	c := New("test-key", WithBaseURL(srv.URL))
	_, err := c.GenerateContent(context.Background(), DefaultFlashModel, "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error should carry the API message, got %v", err)
	}
}

func TestGetOrCreateStore(t *testing.T) {
	var created bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1beta/fileSearchStores":
			fmt.Fprint(w, `{"fileSearchStores":[{"name":"fileSearchStores/existing","displayName":"youtube-PLx"}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1beta/fileSearchStores":
			created = true
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			fmt.Fprintf(w, `{"name":"fileSearchStores/new1","displayName":%q}`, body["displayName"])
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL))

	name, err := c.GetOrCreateStore(context.Background(), "youtube-PLx")
	if err != nil {
		t.Fatal(err)
	}
	if name != "fileSearchStores/existing" {
		t.Errorf("should reuse existing store, got %q", name)
	}
	if created {
		t.Error("must not create when a store with the display name exists")
	}

	name, err = c.GetOrCreateStore(context.Background(), "youtube-PLother")
	if err != nil {
		t.Fatal(err)
	}
	if name != "fileSearchStores/new1" || !created {
		t.Errorf("expected a newly created store, got %q (created=%v)", name, created)
	}
}

func TestUploadDocumentPollsUntilDone(t *testing.T) {
	polls := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v1beta/fileSearchStores/s1/documents"):
			fmt.Fprint(w, `{"documents":[]}`)
		case r.URL.Path == "/upload/v1beta/fileSearchStores/s1:uploadToFileSearchStore":
			if r.Header.Get("X-Goog-Upload-Command") != "start" {
				t.Errorf("expected start command, got %q", r.Header.Get("X-Goog-Upload-Command"))
			}
			w.Header().Set("X-Goog-Upload-URL", srv.URL+"/upload-session")
		case r.URL.Path == "/upload-session":
			fmt.Fprint(w, `{"name":"operations/op1","done":false}`)
		case r.URL.Path == "/v1beta/operations/op1":
			polls++
			if polls < 2 {
				fmt.Fprint(w, `{"done":false}`)
				return
			}
			fmt.Fprint(w, `{"done":true,"response":{"documentName":"fileSearchStores/s1/documents/d1"}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL), WithPollInterval(time.Millisecond))
	doc, err := c.UploadDocument(context.Background(), "# doc", "youtube-v1", "fileSearchStores/s1", true)
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if doc != "fileSearchStores/s1/documents/d1" {
		t.Errorf("doc = %q", doc)
	}
	if polls != 2 {
		t.Errorf("expected 2 polls, got %d", polls)
	}
}

func TestUploadDocumentSkipsExisting(t *testing.T) {
	uploaded := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v1beta/fileSearchStores/s1/documents"):
			fmt.Fprint(w, `{"documents":[{"name":"fileSearchStores/s1/documents/d9","displayName":"youtube-v1"}]}`)
		default:
			uploaded = true
		}
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL))
	doc, err := c.UploadDocument(context.Background(), "# doc", "youtube-v1", "fileSearchStores/s1", true)
	if err != nil {
		t.Fatal(err)
	}
	if doc != "fileSearchStores/s1/documents/d9" {
		t.Errorf("doc = %q", doc)
	}
	if uploaded {
		t.Error("existing document must not be re-uploaded")
	}
}

func TestUploadDocumentPollBound(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/documents"):
			fmt.Fprint(w, `{"documents":[]}`)
		case strings.Contains(r.URL.Path, ":uploadToFileSearchStore"):
			w.Header().Set("X-Goog-Upload-URL", srv.URL+"/upload-session")
		case r.URL.Path == "/upload-session":
			fmt.Fprint(w, `{"name":"operations/op1","done":false}`)
		default:
			fmt.Fprint(w, `{"done":false}`)
		}
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL), WithPollInterval(time.Millisecond), WithMaxPollAttempts(3))
	_, err := c.UploadDocument(context.Background(), "# doc", "youtube-v1", "fileSearchStores/s1", false)
	if err == nil || !strings.Contains(err.Error(), "did not complete") {
		t.Fatalf("expected poll bound error, got %v", err)
	}
}

func TestQueryFileSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Tools) != 1 || req.Tools[0].FileSearch == nil {
			t.Errorf("file search tool not attached: %+v", req.Tools)
		}
		if req.Tools[0].FileSearch.FileSearchStoreNames[0] != "fileSearchStores/s1" {
			t.Error("store name not forwarded")
		}

		fmt.Fprint(w, `{"candidates":[{
			"content":{"parts":[{"text":"The answer."}]},
			"groundingMetadata":{"groundingChunks":[
				{"retrievedContext":{"title":"youtube-v1"}},
				{"retrievedContext":{"title":"youtube-v2"}}
			]}
		}]}`)
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL))
	res, err := c.QueryFileSearch(context.Background(), DefaultChatModel, "what?", []string{"fileSearchStores/s1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "The answer." {
		t.Errorf("text = %q", res.Text)
	}
	if len(res.Sources) != 2 || res.Sources[0] != "youtube-v1" {
		t.Errorf("sources = %v", res.Sources)
	}
}
