package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ytkb/internal/chat"
	"ytkb/internal/config"
	"ytkb/internal/gemini"
	"ytkb/internal/history"
	"ytkb/internal/mcpserver"
	"ytkb/internal/pipeline"
	"ytkb/internal/state"
	"ytkb/internal/transcript"
	"ytkb/internal/transform"
	"ytkb/internal/youtube"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newGeminiClient(cfg config.Config) *gemini.Client {
	return gemini.New(cfg.Gemini.APIKey,
		gemini.WithPollInterval(time.Duration(cfg.Upload.PollSeconds)*time.Second),
		gemini.WithMaxPollAttempts(cfg.Upload.MaxPollAttempts),
	)
}

// openHistory returns nil when the history store cannot be opened; chat and
// MCP keep working without it.
func openHistory(cfg config.Config) *history.Store {
	hist, err := history.Open(cfg.Storage.DataDir)
	if err != nil {
		printWarning("history unavailable: %v", err)
		return nil
	}
	return hist
}

// --- process ---

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a playlist into the knowledge base",
	Long: `Process a playlist into the knowledge base.

For every video: fetch the transcript, rewrite it into a structured
knowledge document, and upload it into the playlist's file search store.
Already-indexed videos are skipped unless --skip-existing=false.

Examples:
  ytkb process -p PLxxxxxxxxxxxxxxxx
  ytkb process -p "https://www.youtube.com/playlist?list=PLxxxx" -l en,uk
  ytkb process -p PLxxxx -s my-custom-store --skip-existing=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		playlistID, _ := cmd.Flags().GetString("playlist-id")
		storeName, _ := cmd.Flags().GetString("store-name")
		skipExisting, _ := cmd.Flags().GetBool("skip-existing")
		languagesStr, _ := cmd.Flags().GetString("languages")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.RequireGeminiKey(); err != nil {
			return err
		}
		if err := cfg.RequireYouTubeKey(); err != nil {
			return err
		}

		languages := cfg.Languages()
		if languagesStr != "" {
			languages = nil
			for _, l := range strings.Split(languagesStr, ",") {
				if l = strings.TrimSpace(l); l != "" {
					languages = append(languages, l)
				}
			}
		}

		ctx, stop := signalContext()
		defer stop()

		playlist, err := youtube.NewPlaylistClient(ctx, cfg.YouTube.APIKey)
		if err != nil {
			return fmt.Errorf("creating YouTube client: %w", err)
		}

		gem := newGeminiClient(cfg)
		states := state.NewManager(cfg.StateDir())
		rewriter := transform.New(gem, cfg.Gemini.FlashModel)
		reporter := cliReporter{}

		processor := pipeline.NewProcessor(transcript.NewClient(), rewriter, gem, states, languages, reporter)
		runner := pipeline.NewRunner(playlist, gem, states, processor, reporter)

		summary, err := runner.Run(ctx, pipeline.RunOptions{
			PlaylistID:   playlistID,
			StoreName:    storeName,
			SkipExisting: skipExisting,
		})
		if err != nil {
			return err
		}

		printSuccess("Done: %d processed, %d skipped, %d failed",
			summary.Processed, summary.Skipped, summary.Failed)
		if summary.Failed > 0 {
			printWarning("Failed videos will be retried on the next run")
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringP("playlist-id", "p", "", "playlist ID or URL (required)")
	processCmd.Flags().StringP("store-name", "s", "", "file search store display name (default: youtube-<playlist id>)")
	processCmd.Flags().Bool("skip-existing", true, "skip videos that were already indexed")
	processCmd.Flags().StringP("languages", "l", "", "comma-separated transcript language preference")
	processCmd.MarkFlagRequired("playlist-id")
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <playlist-id>",
	Short: "Ask questions about a processed playlist",
	Long: `Ask questions about a processed playlist.

Without --query an interactive session starts; with --query a single
question is answered and the command exits.

Examples:
  ytkb chat PLxxxxxxxxxxxxxxxx
  ytkb chat PLxxxx --query "what tools are recommended for profiling?"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.RequireGeminiKey(); err != nil {
			return err
		}

		playlistID := youtube.NormalizePlaylistID(args[0])
		states := state.NewManager(cfg.StateDir())
		st := states.Load(playlistID)
		if st == nil {
			return fmt.Errorf("no state for playlist %q; run 'ytkb process' first", playlistID)
		}
		if len(st.Processed) == 0 {
			printWarning("Playlist has no successfully indexed videos yet")
		}

		ctx, stop := signalContext()
		defer stop()

		var recorder chat.Recorder
		if hist := openHistory(cfg); hist != nil {
			defer hist.Close()
			recorder = hist
		}

		session := chat.NewSession(newGeminiClient(cfg), recorder, cfg.Gemini.ChatModel, playlistID, st.StoreName, os.Stdout)
		if query != "" {
			return session.Query(ctx, query)
		}
		return session.Interactive(ctx, os.Stdin, playlistID)
	},
}

func init() {
	chatCmd.Flags().StringP("query", "q", "", "single question to answer instead of interactive mode")
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List processed playlists",
	Long: `List processed playlists and their indexing state.

With --remote, the document count of each playlist's file search store is
fetched from the API for comparison against local state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, _ := cmd.Flags().GetBool("remote")

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		states := state.NewManager(cfg.StateDir()).ListPlaylists()
		if len(states) == 0 {
			fmt.Println("No playlists processed yet.")
			return nil
		}

		remoteDocs := make([]int, len(states))
		remoteErrs := make([]error, len(states))
		if remote {
			if err := cfg.RequireGeminiKey(); err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			gem := newGeminiClient(cfg)
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(4)
			for i, st := range states {
				g.Go(func() error {
					docs, err := gem.ListDocuments(gctx, st.StoreName)
					if err != nil {
						remoteErrs[i] = err
						return nil
					}
					remoteDocs[i] = len(docs)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
		}

		for i, st := range states {
			fmt.Printf("\n%s\n", colorize(colorBold, st.PlaylistID))
			printStatus("Store", "%s", st.StoreName)
			printStatus("Indexed", "%d videos", len(st.Processed))
			if len(st.Failed) > 0 {
				printStatus("Failed", "%d videos", len(st.Failed))
			}
			printStatus("Updated", "%s", st.LastUpdate)
			if remote {
				switch {
				case remoteErrs[i] != nil:
					printStatus("Remote", "unavailable (%v)", remoteErrs[i])
				default:
					printStatus("Remote", "%d documents", remoteDocs[i])
				}
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("remote", false, "fetch per-store document counts from the API")
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent chat questions and answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		playlistID, _ := cmd.Flags().GetString("playlist")
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		hist, err := history.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer hist.Close()

		if playlistID != "" {
			playlistID = youtube.NormalizePlaylistID(playlistID)
		}
		interactions, err := hist.RecentInteractions(playlistID, limit)
		if err != nil {
			return err
		}

		if len(interactions) == 0 {
			fmt.Println("No questions recorded yet.")
			return nil
		}

		for _, ix := range interactions {
			question := ix.Question
			if len(question) > 80 {
				question = question[:80] + "..."
			}
			fmt.Printf("%s  %s  %s  %s\n",
				colorize(colorCyan, ix.ID[:8]),
				ix.CreatedAt.Format(time.RFC3339),
				ix.PlaylistID,
				question,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().String("playlist", "", "filter by playlist ID")
	historyCmd.Flags().Int("limit", 20, "maximum number of entries to show")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the knowledge base over MCP (stdio transport)",
	Long: `Serve the knowledge base over the Model Context Protocol.

The server speaks stdio, so MCP clients launch 'ytkb mcp' directly and
get tools for querying and listing processed playlists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.RequireGeminiKey(); err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		deps := mcpserver.Deps{
			Searcher:  newGeminiClient(cfg),
			Playlists: state.NewManager(cfg.StateDir()),
			ChatModel: cfg.Gemini.ChatModel,
		}
		if hist := openHistory(cfg); hist != nil {
			defer hist.Close()
			deps.History = hist
		}

		stdioSrv := server.NewStdioServer(mcpserver.New(deps))
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
			return fmt.Errorf("MCP server: %w", err)
		}
		return nil
	},
}
