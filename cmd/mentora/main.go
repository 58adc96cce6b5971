// Package main is the Mentora CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mentora/mentora/internal/chunker"
	"github.com/mentora/mentora/internal/config"
	"github.com/mentora/mentora/internal/embedding"
	"github.com/mentora/mentora/internal/ingest"
	"github.com/mentora/mentora/internal/llm"
	"github.com/mentora/mentora/internal/models"
	"github.com/mentora/mentora/internal/retriever"
	"github.com/mentora/mentora/internal/server"
	"github.com/mentora/mentora/internal/store"
	"github.com/mentora/mentora/internal/vecdb"
	"github.com/mentora/mentora/internal/watcher"
	"github.com/mentora/mentora/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/mentora/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "mentora server" from the project dir uses the
// project's config (including debug).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// .env is optional; it carries API keys and auth tokens in development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "add":
		runAdd()
	case "query":
		runQuery()
	case "answer":
		runAnswer()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("mentora version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// components holds the wired retrieval engine.
type components struct {
	Embedder  embedding.Embedder
	Store     *store.VectorStore
	Retriever *retriever.Retriever
	Ingestor  *ingest.Ingestor
}

func (c *components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	embedder, err := embedding.NewEmbedder(ctx, embedding.Config{
		Provider:   cfg.Embedding.Provider,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		APIKeyEnv:  cfg.Embedding.APIKeyEnv,
		Dimensions: cfg.Embedding.Dimensions,
		CacheSize:  cfg.Embedding.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	var remote store.RemoteIndex
	if cfg.VectorDB.Enabled {
		remote = vecdb.New(cfg.VectorDB.URL, os.Getenv(cfg.VectorDB.AuthTokenEnv))
	}
	st, err := store.New(ctx, store.Config{
		IndexName:    cfg.VectorDB.IndexName,
		Dimension:    embedder.Dimensions(),
		Quantization: cfg.VectorDB.Quantization,
		Remote:       remote,
	}, store.WithLogger(logger))
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	retOpts := []retriever.Option{retriever.WithLogger(logger)}
	if cfg.LLM.Enabled {
		retOpts = append(retOpts, retriever.WithGenerator(llm.NewOllamaGenerator(cfg.LLM.BaseURL, cfg.LLM.Model)))
	}
	ret := retriever.New(embedder, st, retOpts...)

	ch, err := chunker.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}
	ing := ingest.New(ret, ch, cfg.Ingest.ChunkThreshold, ingest.WithLogger(logger))

	return &components{
		Embedder:  embedder,
		Store:     st,
		Retriever: ret,
		Ingestor:  ing,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx := context.Background()
	comps, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	var watchSvc *watcher.Watcher
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		ing := comps.Ingestor
		watchSvc = watcher.New(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				if _, err := ing.IngestFile(context.Background(), path); err != nil {
					logger.Warn("watch ingest file failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(comps.Retriever, comps.Ingestor, cfg, watchSvc, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// argsReorder moves any flags (and their values) that appear after the
// positional text to the front of the slice so that flag.Parse() sees them.
// Go's flag package stops at the first non-flag argument, so
// "mentora query \"some text\" -top-k 5" would otherwise leave -top-k unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildText joins all positional args with spaces so multi-word input works
// the same with or without shell quoting.
func buildText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runAdd() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	source := fs.String("source", "", "source label stored with the knowledge")
	file := fs.String("file", "", "read knowledge text from a file instead of arguments")
	_ = fs.Parse(args)

	var text string
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
			os.Exit(1)
		}
		text = string(data)
		if *source == "" {
			*source = filepath.Base(*file)
		}
	} else {
		text = buildText(fs.Args())
	}
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(os.Stderr, "Usage: mentora add [flags] <text> (or --file <path>)")
		os.Exit(1)
	}

	var resp struct {
		Status string `json:"status"`
		Chunks int    `json:"chunks"`
	}
	payload := map[string]interface{}{"texts": []string{text}}
	if *source != "" {
		payload["source"] = *source
	}
	if err := postJSON(*serverURL+"/api/v1/knowledge", payload, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Added %d chunk(s)\n", resp.Chunks)
}

func runQuery() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	topK := fs.Int("top-k", 0, "number of results (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	queryStr := buildText(fs.Args())
	if queryStr == "" {
		fmt.Fprintln(os.Stderr, "Usage: mentora query [flags] <text>")
		os.Exit(1)
	}

	var resp struct {
		Results []models.SearchResult `json:"results"`
	}
	payload := map[string]interface{}{"query": queryStr, "top_k": *topK}
	if err := postJSON(*serverURL+"/api/v1/query", payload, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp.Results); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		if len(resp.Results) == 0 {
			fmt.Println("No results.")
			return
		}
		for i, r := range resp.Results {
			fmt.Printf("%d. [%.4f] %s\n", i+1, r.Score, r.Text)
			if src, ok := r.Metadata[models.MetaKeySource].(string); ok && src != "" {
				fmt.Printf("   source: %s\n", src)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func runAnswer() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("answer", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	topK := fs.Int("top-k", 0, "number of context passages (0 = server default)")
	_ = fs.Parse(args)

	question := buildText(fs.Args())
	if question == "" {
		fmt.Fprintln(os.Stderr, "Usage: mentora answer [flags] <question>")
		os.Exit(1)
	}

	var resp struct {
		Answer string `json:"answer"`
	}
	payload := map[string]interface{}{"question": question, "top_k": *topK}
	if err := postJSON(*serverURL+"/api/v1/answer", payload, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Answer failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(resp.Answer)
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var stats models.StoreStats
	if err := getJSON(*serverURL+"/api/v1/stats", &stats); err != nil {
		fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("count:       %d   # stored knowledge chunks\n", stats.Count)
		fmt.Printf("dimension:   %d   # embedding vector size\n", stats.Dimension)
		fmt.Printf("backend:     %s\n", stats.Backend)
		fmt.Printf("persistent:  %t\n", stats.Persistent)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func postJSON(url string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printUsage() {
	fmt.Println(`Mentora - personal study assistant

Usage:
  mentora server [-config path] [-debug]    Start the HTTP API server
  mentora add [flags] <text>                Add knowledge (or --file <path>)
  mentora query [flags] <text>              Retrieve relevant knowledge
  mentora answer [flags] <question>         Answer a question from stored knowledge
  mentora stats [flags]                     Show knowledge base statistics
  mentora version                           Print version

The add, query, answer, and stats commands talk to a running server
(default http://localhost:8080; override with -server).`)
}
