// Package mcpserver exposes the knowledge base over the Model Context
// Protocol so MCP-capable clients can query indexed playlists directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ytkb/internal/gemini"
	"ytkb/internal/history"
	"ytkb/internal/state"
)

// Searcher abstracts grounded file-search queries for the MCP layer.
type Searcher interface {
	QueryFileSearch(ctx context.Context, model, question string, storeNames []string) (*gemini.QueryResult, error)
}

// PlaylistLister enumerates known playlist states.
type PlaylistLister interface {
	ListPlaylists() []*state.PlaylistState
	Load(playlistID string) *state.PlaylistState
}

// InteractionLog records and reads question/answer history.
type InteractionLog interface {
	SaveInteraction(i history.Interaction) error
	RecentInteractions(playlistID string, limit int) ([]history.Interaction, error)
}

// Deps holds dependencies for the MCP server.
type Deps struct {
	Searcher  Searcher
	Playlists PlaylistLister
	History   InteractionLog // optional; if nil, questions are not recorded
	ChatModel string
}

// New creates an MCP server with knowledge base tools and resources registered.
func New(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"ytkb",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("ytkb — searchable knowledge base built from YouTube playlist transcripts."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask_knowledge_base",
			mcp.WithDescription("Ask a question grounded in the indexed transcripts of a processed playlist."),
			mcp.WithString("playlist_id", mcp.Description("Playlist whose knowledge base to query"), mcp.Required()),
			mcp.WithString("query", mcp.Description("Question to answer"), mcp.Required()),
		),
		askKnowledgeBase(deps),
	)

	s.AddTool(
		mcp.NewTool("list_playlists",
			mcp.WithDescription("List processed playlists with their video counts and file search stores."),
		),
		listPlaylists(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"ytkb://recent",
			"Recent Questions",
			mcp.WithResourceDescription("Last 10 questions asked across all playlists"),
			mcp.WithMIMEType("application/json"),
		),
		resourceRecent(deps),
	)

	return s
}

func askKnowledgeBase(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		playlistID, err := req.RequireString("playlist_id")
		if err != nil {
			return toolError("playlist_id is required"), nil
		}
		query, err := req.RequireString("query")
		if err != nil {
			return toolError("query is required"), nil
		}

		st := deps.Playlists.Load(playlistID)
		if st == nil {
			return toolError(fmt.Sprintf("unknown playlist %q; process it first", playlistID)), nil
		}

		res, err := deps.Searcher.QueryFileSearch(ctx, deps.ChatModel, query, []string{st.StoreName})
		if err != nil {
			return toolError(fmt.Sprintf("query failed: %v", err)), nil
		}
		if res.Text == "" {
			return toolError("no answer returned"), nil
		}

		if deps.History != nil {
			sources := "[]"
			if len(res.Sources) > 0 {
				if b, err := json.Marshal(res.Sources); err == nil {
					sources = string(b)
				}
			}
			rec := history.Interaction{
				ID:         uuid.New().String(),
				CreatedAt:  time.Now().UTC(),
				PlaylistID: playlistID,
				StoreName:  st.StoreName,
				Question:   query,
				Answer:     res.Text,
				Model:      deps.ChatModel,
				Sources:    sources,
			}
			// Recording is best effort; the answer still goes back.
			_ = deps.History.SaveInteraction(rec)
		}

		return toolText(res.Text), nil
	}
}

func listPlaylists(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		states := deps.Playlists.ListPlaylists()
		if len(states) == 0 {
			return toolText("[]"), nil
		}

		type playlistSummary struct {
			PlaylistID  string `json:"playlist_id"`
			StoreName   string `json:"file_search_store_name"`
			Processed   int    `json:"processed_videos"`
			Failed      int    `json:"failed_videos"`
			LastUpdated string `json:"last_updated"`
		}

		summaries := make([]playlistSummary, len(states))
		for i, st := range states {
			summaries[i] = playlistSummary{
				PlaylistID:  st.PlaylistID,
				StoreName:   st.StoreName,
				Processed:   len(st.Processed),
				Failed:      len(st.Failed),
				LastUpdated: st.LastUpdate,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return toolError(fmt.Sprintf("failed to marshal playlists: %v", err)), nil
		}
		return toolText(string(b)), nil
	}
}

func resourceRecent(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if deps.History == nil {
			return nil, fmt.Errorf("history is not available")
		}

		interactions, err := deps.History.RecentInteractions("", 10)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent questions: %w", err)
		}

		type questionSummary struct {
			ID         string `json:"id"`
			CreatedAt  string `json:"created_at"`
			PlaylistID string `json:"playlist_id"`
			Question   string `json:"question"`
		}

		summaries := make([]questionSummary, len(interactions))
		for i, ix := range interactions {
			q := ix.Question
			if utf8.RuneCountInString(q) > 200 {
				runes := []rune(q)
				q = string(runes[:200]) + "..."
			}
			summaries[i] = questionSummary{
				ID:         ix.ID,
				CreatedAt:  ix.CreatedAt.Format(time.RFC3339),
				PlaylistID: ix.PlaylistID,
				Question:   q,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal questions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
