// Package main is the mdchunk CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/mdchunk/internal/chunker"
	"github.com/hyperjump/mdchunk/internal/cli"
	"github.com/hyperjump/mdchunk/internal/config"
	"github.com/hyperjump/mdchunk/internal/extract"
	"github.com/hyperjump/mdchunk/internal/indexer"
	"github.com/hyperjump/mdchunk/internal/keyword"
	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/search"
	"github.com/hyperjump/mdchunk/internal/server"
	"github.com/hyperjump/mdchunk/internal/storage"
	"github.com/hyperjump/mdchunk/internal/tokenizer"
	"github.com/hyperjump/mdchunk/internal/validator"
	"github.com/hyperjump/mdchunk/internal/watcher"
	"github.com/hyperjump/mdchunk/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/mdchunk/config.yaml"
	defaultServerURL  = "http://localhost:8090"
)

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if it exists, and a missing default file yields
// the built-in defaults. Returns the config and the path that was actually
// loaded; the path is empty when no file was read.
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
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "chunk":
		runChunk()
	case "server":
		runServer()
	case "search":
		runSearch()
	case "index":
		runIndex()
	case "runs":
		runRuns()
	case "delete":
		runDelete()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("mdchunk version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config and builds a logger. The debug flag overrides the config.
func setup(configPath string, debug bool) (*config.Config, string, *zap.Logger, bool) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved, logger, debugMode
}

func runChunk() {
	fs := flag.NewFlagSet("chunk", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	input := fs.String("input", "", "input document (.json crawl document or .md file)")
	output := fs.String("output", "", "chunks output path (default from config)")
	diagnostics := fs.String("diagnostics", "", "diagnostics output path (default from config)")
	reportPath := fs.String("report", "", "also write the full report as JSON to this path")
	format := fs.String("format", "text", "report format: text or json")
	store := fs.Bool("store", false, "also store the run in the chunk database and keyword index")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if *input == "" && fs.NArg() > 0 {
		*input = fs.Arg(0)
	}
	if *input == "" {
		fmt.Println("Usage: mdchunk chunk [flags] -input <document>")
		os.Exit(1)
	}
	outFormat, err := cli.ParseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, _, logger, debugMode := setup(*configPath, *debug)
	defer logger.Sync()

	opts := chunkOptions{
		Input:           *input,
		ChunksPath:      firstNonEmpty(*output, cfg.Output.ChunksPath),
		DiagnosticsPath: firstNonEmpty(*diagnostics, cfg.Output.DiagnosticsPath),
		ReportPath:      *reportPath,
	}

	ctx := context.Background()
	var result *chunker.Result
	if *store {
		components, err := initializeComponents(cfg, logger, debugMode)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()
		result, err = chunkAndStore(ctx, components.Indexer, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Chunking failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		pipeline, err := buildPipeline(cfg, logger, debugMode)
		if err != nil {
			logger.Fatal("Failed to build pipeline", zap.Error(err))
		}
		result, err = chunkFile(ctx, pipeline, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Chunking failed: %v\n", err)
			os.Exit(1)
		}
	}

	wroteDiag, err := writeArtifacts(result, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Writing output failed: %v\n", err)
		os.Exit(1)
	}
	if len(result.Report.Errors) > 0 {
		logger.Warn("validation errors", zap.Strings("errors", result.Report.Errors))
	}
	if err := cli.WriteReport(os.Stdout, result.Report, outFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if outFormat != cli.OutputJSON {
		fmt.Printf("\nChunks written to %s\n", opts.ChunksPath)
		if wroteDiag {
			fmt.Printf("Diagnostics written to %s\n", opts.DiagnosticsPath)
		}
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (directory changes, file indexing, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, debugMode := setup(*configPath, *debug)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	watchSvc, err := startWatcher(watchCtx, cfg, components.Indexer, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer watchSvc.Stop()

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Storage,
		&cfg.Server,
		logger,
		watchSvc,
		resolvedConfigPath,
		cfg,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	waitForSignal()

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// startWatcher watches the configured directories and keeps stored runs in
// sync with the documents in them.
func startWatcher(ctx context.Context, cfg *config.Config, idx *indexer.Indexer, logger *zap.Logger, debug bool) (*watcher.Watcher, error) {
	exts := cfg.Watch.Extensions
	handler := watcher.HandlerFuncs{
		Changed: func(path string) {
			run, result, err := idx.IndexFile(context.Background(), path, exts)
			if err != nil {
				logger.Warn("watch index file failed", zap.String("path", path), zap.Error(err))
				return
			}
			if result != nil && len(result.Report.Errors) > 0 {
				logger.Warn("validation errors",
					zap.String("run_id", run.ID),
					zap.String("path", path),
					zap.Int("errors", len(result.Report.Errors)))
			}
		},
		Removed: func(path string) {
			if err := idx.DeletePath(context.Background(), path); err != nil {
				logger.Warn("watch delete by path failed", zap.String("path", path), zap.Error(err))
			}
		},
	}
	opts := []watcher.Option{}
	if debug {
		opts = append(opts, watcher.WithLogger(logger))
	}
	w := watcher.New(cfg.Watch.Directories, exts, cfg.Watch.RecursiveOrDefault(), handler, opts...)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	w.SyncExistingFiles()
	return w, nil
}

func waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: mdchunk search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Search looks up stored chunks by keyword to inspect how a document was split.
  • Quote a phrase to boost chunks containing it exactly.
  • Prefix a word with - to exclude chunks containing it.
  • Use --fuzzy to tolerate typos; it is retried automatically when nothing matches.
  • Use --run to restrict results to one run.

Examples:
  mdchunk search install guide
  mdchunk search "install guide"                 # phrase boost
  mdchunk search --fuzzy instal                  # typo-tolerant search
  mdchunk search --run path:3f2a... --limit 20 flags
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "mdchunk search install -limit 5"
// would otherwise leave -limit unparsed.
func searchArgsReorder(args []string) []string {
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

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage when server is not running)")
	limit := fs.Int("limit", 10, "number of results")
	fuzzyEnabled := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	runID := fs.String("run", "", "only search chunks of this run")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	searchQuery := &models.SearchQuery{
		Query:        queryStr,
		Limit:        *limit,
		FuzzyEnabled: *fuzzyEnabled,
		RunID:        *runID,
	}

	var searchFn func(*models.SearchQuery) (*models.SearchResponse, error)
	if *serverURL != "" {
		// Use HTTP API when server is running (avoids Bleve/SQLite lock conflict).
		searchFn = func(q *models.SearchQuery) (*models.SearchResponse, error) {
			return searchViaHTTP(*serverURL, q)
		}
	} else {
		cfg, _, logger, debugMode := setup(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, debugMode)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()
		searchFn = func(q *models.SearchQuery) (*models.SearchResponse, error) {
			return components.Engine.Search(context.Background(), q)
		}
	}

	response, err := searchWithFuzzyRetry(searchQuery, searchFn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// searchWithFuzzyRetry runs q and, when nothing matches and fuzzy matching was
// off, retries once with fuzzy matching on.
func searchWithFuzzyRetry(q *models.SearchQuery, searchFn func(*models.SearchQuery) (*models.SearchResponse, error)) (*models.SearchResponse, error) {
	response, err := searchFn(q)
	if err != nil {
		return nil, err
	}
	if q.FuzzyEnabled || response.Total > 0 {
		return response, nil
	}
	fuzzy := *q
	fuzzy.FuzzyEnabled = true
	fuzzyResponse, fuzzyErr := searchFn(&fuzzy)
	if fuzzyErr == nil && fuzzyResponse.Total > 0 {
		fuzzyResponse.AutoFuzzy = true
		return fuzzyResponse, nil
	}
	return response, nil
}

// searchURL builds the GET /api/v1/search URL for q.
func searchURL(serverURL string, q *models.SearchQuery) string {
	v := url.Values{}
	v.Set("q", q.Query)
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.FuzzyEnabled {
		v.Set("fuzzy", "true")
	}
	if q.RunID != "" {
		v.Set("run", q.RunID)
	}
	return strings.TrimRight(serverURL, "/") + "/api/v1/search?" + v.Encode()
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	var response models.SearchResponse
	if err := getJSON(searchURL(serverURL, query), &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// getJSON issues a GET and decodes a 200 response into v.
func getJSON(u string, v interface{}) error {
	resp, err := http.Get(u)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	MaxTokens          int     `json:"max_tokens"`
	SoftTokenLimit     int     `json:"soft_token_limit"`
	MinChunkSize       int     `json:"min_chunk_size"`
	OverlapPercentage  float64 `json:"overlap_percentage"`
	OverlapAcrossPages bool    `json:"overlap_across_pages"`
	Encoding           string  `json:"encoding"`
	DatabasePath       string  `json:"database_path,omitempty"`
	BleveIndexPath     string  `json:"bleve_index_path,omitempty"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Runs           int64                 `json:"runs"`
	Chunks         int64                 `json:"chunks"`
	DiskUsageBytes *int64                `json:"disk_usage_bytes,omitempty"`
	Config         *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		if err := getJSON(strings.TrimRight(*serverURL, "/")+"/api/v1/status", &status); err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, logger, _ := setup(*configPath, false)
		defer logger.Sync()
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		st, err := localStatus(context.Background(), store, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *st
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeStatusText(os.Stdout, &status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// localStatus reads counts and configuration without the server.
func localStatus(ctx context.Context, store storage.Storage, cfg *config.Config) (*statusResponse, error) {
	runCount, err := store.CountRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	chunkCount, err := store.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	c := cfg.Chunking
	status := &statusResponse{
		Runs:   runCount,
		Chunks: chunkCount,
		Config: &statusConfigResponse{
			MaxTokens:          c.MaxTokens,
			SoftTokenLimit:     c.SoftTokenLimit,
			MinChunkSize:       c.MinChunkSize,
			OverlapPercentage:  c.OverlapPercentage,
			OverlapAcrossPages: c.OverlapAcrossPagesOrDefault(),
			Encoding:           cfg.Tokenizer.Encoding,
			DatabasePath:       cfg.Storage.DatabasePath,
			BleveIndexPath:     cfg.Storage.BleveIndexPath,
		},
	}
	if footprint, err := storage.MeasureFootprint(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath); err == nil {
		total := footprint.Total()
		status.DiskUsageBytes = &total
	}
	return status, nil
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "runs:               %d   # stored chunking runs\n", status.Runs)
	fmt.Fprintf(w, "chunks:             %d   # stored chunks\n", status.Chunks)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + keyword index on disk\n", *status.DiskUsageBytes)
	}
	if status.Config == nil {
		return
	}
	c := status.Config
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	fmt.Fprintf(w, "max_tokens:         %d\n", c.MaxTokens)
	fmt.Fprintf(w, "soft_token_limit:   %d\n", c.SoftTokenLimit)
	fmt.Fprintf(w, "min_chunk_size:     %d\n", c.MinChunkSize)
	fmt.Fprintf(w, "overlap_percentage: %g\n", c.OverlapPercentage)
	fmt.Fprintf(w, "overlap_pages:      %t\n", c.OverlapAcrossPages)
	fmt.Fprintf(w, "encoding:           %s\n", c.Encoding)
	if c.DatabasePath != "" {
		fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
	}
	if c.BleveIndexPath != "" {
		fmt.Fprintf(w, "bleve_index_path:   %s\n", c.BleveIndexPath)
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: mdchunk index [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, logger, debugMode := setup(*configPath, false)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		n, err := components.Indexer.IndexDirectory(ctx, path, cfg.Watch.Extensions)
		if err != nil {
			fmt.Printf("Indexing directory failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d document(s) from %s\n", n, path)
		return
	}
	// Single file: no extension filter
	run, _, err := components.Indexer.IndexFile(ctx, path, nil)
	if err != nil {
		fmt.Printf("Indexing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Run stored: %s (%d chunks, %d validation errors)\n", run.ID, run.Chunks, run.Errors)
}

func runRuns() {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of runs")
	offset := fs.Int("offset", 0, "number of runs to skip")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, logger, _ := setup(*configPath, false)
	defer logger.Sync()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), *offset, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List runs failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRuns(os.Stdout, runs, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: mdchunk watch <run|add|remove|list> [path]")
		fmt.Println("  mdchunk watch run            Watch configured directories in the foreground")
		fmt.Println("  mdchunk watch add <path>     Add directory to a running server's watch list")
		fmt.Println("  mdchunk watch remove <path>  Remove directory from a running server's watch list")
		fmt.Println("  mdchunk watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	configPath := fs.String("config", defaultConfigPath, "config file path (watch run)")
	debug := fs.Bool("debug", false, "enable debug logging (watch run)")
	_ = fs.Parse(os.Args[3:])
	switch sub {
	case "run":
		runWatchForeground(*configPath, *debug, fs.Args())
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: mdchunk watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: mdchunk watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := getJSON(*serverURL+"/api/v1/watch/directories", &out); err != nil {
			fmt.Printf("List failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// runWatchForeground re-chunks documents in the configured directories (plus
// any given on the command line) until interrupted.
func runWatchForeground(configPath string, debug bool, extraDirs []string) {
	cfg, _, logger, debugMode := setup(configPath, debug)
	defer logger.Sync()
	for _, d := range extraDirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid path %s: %v\n", d, err)
			os.Exit(1)
		}
		cfg.Watch.Directories = append(cfg.Watch.Directories, abs)
	}
	if len(cfg.Watch.Directories) == 0 {
		fmt.Println("Usage: mdchunk watch run [flags] [directory...]  (or set watch.directories in the config)")
		os.Exit(1)
	}

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := startWatcher(ctx, cfg, components.Indexer, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer w.Stop()
	logger.Info("watching", zap.Strings("directories", w.Directories()))
	waitForSignal()
	logger.Info("Shutting down...")
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: mdchunk delete [flags] <run-id-or-path>")
		os.Exit(1)
	}
	target := fs.Arg(0)

	cfg, _, logger, debugMode := setup(*configPath, false)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if _, statErr := os.Stat(target); statErr == nil {
		err = components.Indexer.DeletePath(ctx, target)
	} else {
		err = components.Indexer.DeleteRun(ctx, target)
	}
	if err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Run deleted: %s\n", target)
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	KeywordIndex keyword.KeywordIndex
	Pipeline     *chunker.Pipeline
	Engine       *search.Engine
	Indexer      *indexer.Indexer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

// buildPipeline wires the tokenizer, chunker and validator from cfg.
func buildPipeline(cfg *config.Config, logger *zap.Logger, debug bool) (*chunker.Pipeline, error) {
	tok, err := tokenizer.New(cfg.Tokenizer.Encoding, cfg.Tokenizer.CacheSize, tokenizer.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}
	chunkOpts := []chunker.Option{}
	valOpts := []validator.Option{}
	if debug {
		chunkOpts = append(chunkOpts, chunker.WithLogger(logger))
		valOpts = append(valOpts, validator.WithLogger(logger))
	}
	c, err := chunker.NewMarkdownChunker(cfg.Chunking, tok, chunkOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chunker: %w", err)
	}
	v := validator.New(cfg.Chunking.MinChunkSize, cfg.Chunking.MaxTokens, valOpts...)
	return chunker.NewPipeline(c, v, chunker.WithPipelineLogger(logger)), nil
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	pipeline, err := buildPipeline(cfg, logger, debug)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	engineOpts := []search.Option{}
	idxOpts := []indexer.IndexerOption{}
	if debug && logger != nil {
		engineOpts = append(engineOpts, search.WithLogger(logger))
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	engine := search.NewEngine(store, keywordIndex, engineOpts...)
	idx := indexer.NewIndexer(store, keywordIndex, pipeline, extract.NewExtractor(), idxOpts...)

	return &Components{
		Storage:      store,
		KeywordIndex: keywordIndex,
		Pipeline:     pipeline,
		Engine:       engine,
		Indexer:      idx,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func printUsage() {
	fmt.Println(`mdchunk - Markdown chunking and validation for RAG pipelines

Usage:
  mdchunk chunk [flags] -input <doc>   Chunk a crawl document (.json) or markdown file (.md)
  mdchunk server [flags]               Start the HTTP server (and watch configured directories)
  mdchunk search [flags] <query>       Search stored chunks by keyword
  mdchunk index [flags] <path>         Chunk and store a document or directory
  mdchunk runs [flags]                 List stored runs
  mdchunk delete [flags] <id|path>     Delete a stored run
  mdchunk status [flags]               Show storage/index status
  mdchunk watch <run|add|remove|list>  Watch directories / manage a server's watch list
  mdchunk version                      Show version
  mdchunk help                         Show this help

Chunk Flags:
  --config string       Config file path (default: /usr/local/etc/mdchunk/config.yaml)
  --input string        Input document
  --output string       Chunks output path (default from config: output.chunks_path)
  --diagnostics string  Diagnostics output path, written only when chunks are out of bounds
  --report string       Also write the full report as JSON
  --format string       Report format: text or json (default: text)
  --store               Also store the run in the chunk database and keyword index
  --debug               Enable debug logging

Server Flags:
  --config string    Config file path
  --debug            Enable debug logging (directory changes, file indexing, etc.)

Search Flags:
  --server string    Server URL (default: http://localhost:8090). Use --server "" for direct storage.
  --limit int        Number of results (default: 10)
  --fuzzy            Enable fuzzy matching for typo tolerance (default: false)
  --run string       Only search chunks of this run
  --output string    Output format: text, compact or json (default: text)

Status Flags:
  --server string    Server URL (default: http://localhost:8090). Use --server "" for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  mdchunk chunk -input crawl.json -output out/chunks.json
  mdchunk chunk -input notes.md -format json -store
  mdchunk server
  mdchunk search "install guide"
  mdchunk index ./docs
  mdchunk runs --output json
  mdchunk watch run ./docs
  mdchunk watch add /path/to/docs`)
}
