// Package main is the kensaku CLI entry point.
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
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/kensaku/internal/cli"
	"github.com/hyperjump/kensaku/internal/config"
	"github.com/hyperjump/kensaku/internal/corpus"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/search"
	"github.com/hyperjump/kensaku/internal/server"
	"github.com/hyperjump/kensaku/internal/watcher"
	"github.com/hyperjump/kensaku/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kensaku/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
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

// resolveConfig is loadConfig for commands that can run without a config file:
// a missing default config yields the defaults.
func resolveConfig(path string) (*config.Config, error) {
	cfg, _, err := loadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg, nil
	}
	return nil, err
}

// buildIndex loads the configured corpus and indexes it.
func buildIndex(cfg *config.Config, logger *zap.Logger) (*search.Index, error) {
	if cfg.Corpus.Path == "" {
		return nil, errors.New("no corpus configured: set corpus.path or pass -corpus")
	}
	docs, err := corpus.Load(cfg.Corpus.Path, cfg.Corpus.Extensions)
	if err != nil {
		return nil, err
	}
	return search.Construct(docs,
		search.WithLogger(logger),
		search.WithMaxSteps(cfg.Search.StepBudget()),
	), nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "suggest":
		runSuggest()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kensaku version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	corpusPath := fs.String("corpus", "", "corpus file or directory (overrides corpus.path)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *corpusPath != "" {
		cfg.Corpus.Path = *corpusPath
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
		zap.String("corpus", cfg.Corpus.Path),
		zap.Bool("debug", debugMode),
	)

	idx, err := buildIndex(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build index", zap.Error(err))
	}
	srv := server.NewServer(idx, cfg, logger, server.WithLoader(func(context.Context) (*search.Index, error) {
		return buildIndex(cfg, logger)
	}))

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Enabled {
		watchSvc := watcher.NewWatcher(
			cfg.Corpus.Path,
			cfg.Corpus.Extensions,
			func() {
				if err := srv.Reload(watchCtx); err != nil {
					logger.Warn("reload after corpus change failed", zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
			watcher.WithDebounce(cfg.Watch.Debounce()),
			watcher.WithRecursive(cfg.Watch.RecursiveOrDefault()),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kensaku search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Ranking rules run coarsest first. The last query word also matches as a prefix.
  • word:  documents matching more query words first
  • typo:  fewer typos first
  • exact: documents containing a query word verbatim first; rules after it are ignored

Examples:
  kensaku search -corpus docs.txt tamo est
  kensaku search -corpus ./notes -rules typo,exact kefyr
  kensaku search -server http://localhost:8080 -json "le petit kefir"
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// ruleNames splits a comma separated rules flag. An empty flag yields an empty,
// non-nil list, disabling ranking.
func ruleNames(list string) []string {
	names := []string{}
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
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

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func outputFormat(jsonOutput bool) cli.SearchOutputFormat {
	if jsonOutput {
		return cli.OutputJSON
	}
	return cli.OutputText
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	corpusPath := fs.String("corpus", "", "corpus file or directory (overrides corpus.path)")
	serverURL := fs.String("server", "", "search a running server instead of indexing locally")
	limit := fs.Int("limit", 0, "number of results (default from config)")
	rules := fs.String("rules", "", "comma separated ranking rules: word,typo,exact (default from config; empty disables ranking)")
	highlight := fs.Bool("highlight", false, "mark matched words in results")
	jsonOutput := fs.Bool("json", false, "print JSON instead of text")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}

	cfg, err := resolveConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *corpusPath != "" {
		cfg.Corpus.Path = *corpusPath
	}

	searchQuery := &models.SearchQuery{Query: queryStr, Limit: *limit, Highlight: *highlight}
	if flagSet(fs, "rules") {
		searchQuery.Rules = ruleNames(*rules)
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, searchQuery)
	} else {
		response, err = searchLocally(cfg, searchQuery)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, outputFormat(*jsonOutput)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// searchLocally indexes the configured corpus and runs query against it, applying
// the configured limit and rules where query leaves them unset.
func searchLocally(cfg *config.Config, query *models.SearchQuery) (*models.SearchResponse, error) {
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	idx, err := buildIndex(cfg, logger)
	if err != nil {
		return nil, err
	}
	if query.Limit == 0 {
		query.Limit = cfg.Search.DefaultLimit
	}
	if query.Rules == nil {
		query.Rules = append([]string{}, cfg.Search.Rules...)
	}
	return idx.SearchDetailed(query, cfg.Search.MaxLimit)
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runSuggest() {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	corpusPath := fs.String("corpus", "", "corpus file or directory (overrides corpus.path)")
	n := fs.Int("n", 5, "maximum number of suggestions")
	jsonOutput := fs.Bool("json", false, "print JSON instead of text")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: kensaku suggest [flags] <word>")
		os.Exit(1)
	}
	word := fs.Arg(0)

	cfg, err := resolveConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *corpusPath != "" {
		cfg.Corpus.Path = *corpusPath
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	idx, err := buildIndex(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build index: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSuggestions(os.Stdout, word, idx.Suggest(word, *n), outputFormat(*jsonOutput)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	CorpusPath    string   `json:"corpus_path"`
	Rules         []string `json:"rules"`
	DefaultLimit  int      `json:"default_limit"`
	MaxLimit      int      `json:"max_limit"`
	MaxSteps      int      `json:"max_steps"`
	WatchEnabled  bool     `json:"watch_enabled"`
	ReloadEnabled bool     `json:"reload_enabled"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents int                   `json:"documents"`
	Words     int                   `json:"words"`
	Reloads   int64                 `json:"reloads"`
	LoadedAt  string                `json:"loaded_at"`
	Config    *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	jsonOutput := fs.Bool("json", false, "print JSON instead of text")
	_ = fs.Parse(os.Args[2:])

	status, err := statusViaHTTP(*serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	writeStatusText(os.Stdout, status)
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "documents:      %d\n", status.Documents)
	fmt.Fprintf(w, "words:          %d   # distinct normalized words\n", status.Words)
	fmt.Fprintf(w, "reloads:        %d\n", status.Reloads)
	fmt.Fprintf(w, "loaded_at:      %s\n", status.LoadedAt)
	if status.Config == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	fmt.Fprintf(w, "corpus_path:    %s\n", status.Config.CorpusPath)
	fmt.Fprintf(w, "rules:          %s\n", strings.Join(status.Config.Rules, ","))
	fmt.Fprintf(w, "default_limit:  %d\n", status.Config.DefaultLimit)
	fmt.Fprintf(w, "max_limit:      %d\n", status.Config.MaxLimit)
	fmt.Fprintf(w, "max_steps:      %d\n", status.Config.MaxSteps)
	fmt.Fprintf(w, "watch_enabled:  %t\n", status.Config.WatchEnabled)
	fmt.Fprintf(w, "reload_enabled: %t\n", status.Config.ReloadEnabled)
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	u, err := url.JoinPath(serverURL, "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	resp, err := http.Get(u)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func printUsage() {
	fmt.Println(`kensaku - In-memory typo-tolerant full-text search

Usage:
  kensaku server [flags]            Start the HTTP server
  kensaku search [flags] <query>    Search the corpus
  kensaku suggest [flags] <word>    Suggest indexed words close to <word>
  kensaku status [flags]            Show status of a running server
  kensaku version                   Show version
  kensaku help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kensaku/config.yaml)
  --corpus string    Corpus file or directory (overrides corpus.path)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (optional)
  --corpus string    Corpus file (one document per line) or directory of .txt/.md files
  --server string    Search a running server instead of indexing locally
  --limit int        Number of results (default from config, 10)
  --rules string     Ranking rules, coarsest first (default: word,typo,exact)
  --highlight        Mark matched words
  --json             Print JSON

Suggest Flags:
  --config, --corpus as for search
  --n int            Maximum number of suggestions (default: 5)
  --json             Print JSON

Status Flags:
  --server string    Server URL (default: http://localhost:8080)
  --json             Print JSON

Examples:
  kensaku server --corpus ./docs
  kensaku search --corpus corpus.txt tamo est
  kensaku search --corpus corpus.txt --rules typo,exact --json kefyr
  kensaku suggest --corpus corpus.txt kafyr
  kensaku status --json`)
}
