// Command rescue-simulator starts the rescue simulator server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from rescuesim.yaml, RESCUE_* environment variables (a .env
// file is loaded first) and finally the command line flags.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/wricardo/rescue-simulator/api"
	"github.com/wricardo/rescue-simulator/game/config"
	"github.com/wricardo/rescue-simulator/game/history"
	"github.com/wricardo/rescue-simulator/game/service"
	"github.com/wricardo/rescue-simulator/game/session"
	"github.com/wricardo/rescue-simulator/game/settings"
	"github.com/wricardo/rescue-simulator/logging"
	"github.com/wricardo/rescue-simulator/transport/mcp"
	"github.com/wricardo/rescue-simulator/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Rescue Simulator Server"
)

// Command line flags. A flag only overrides the loaded settings when it is
// given explicitly.
var (
	port        = flag.Int("port", 8080, "HTTP server port")
	host        = flag.String("host", "localhost", "HTTP server host")
	configDir   = flag.String("config-dir", "configs", "Directory containing scenario files")
	sessionsDir = flag.String("sessions-dir", "sessions", "Directory for persisted sessions and snapshots")
	historyDB   = flag.String("history-db", "history.db", "SQLite file for turn history (\"\" disables it, \":memory:\" keeps it in memory)")
	logLevel    = flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	settingsDir = flag.String("settings-dir", ".", "Directory searched for rescuesim.yaml")
	version     = flag.Bool("version", false, "Show version information")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090         # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp          # Run MCP stdio server\n", os.Args[0])
	}
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	cfg, err := settings.Load(*settingsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	// stdout belongs to the MCP protocol in stdio mode, so logs always go to stderr
	logger := logging.New(cfg.LogLevel, cfg.LogPretty)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn().Err(envErr).Msg("error loading .env file")
	}
	if cfg.File != "" {
		logger.Info().Str("file", cfg.File).Msg("loaded settings file")
	}

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	logger.Info().Str("version", Version).Str("mode", mode).Msgf("starting %s", AppName)

	svcs, err := initializeServices(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize services")
	}
	defer svcs.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svcs.startBackgroundRoutines(ctx, cfg.SessionTTL)

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(svcs.game, cfg, logger)

	case "server", "http":
		runHTTPServer(svcs.game, cfg, logger)

	default:
		logger.Fatal().Str("mode", mode).Msg("unknown mode, use 'server' (default) or 'stdio-mcp'")
	}
}

// applyFlags copies explicitly set flags over the loaded settings
func applyFlags(cfg *settings.Settings) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "host":
			cfg.Host = *host
		case "config-dir":
			cfg.ConfigDir = *configDir
		case "sessions-dir":
			cfg.SessionsDir = *sessionsDir
		case "history-db":
			cfg.HistoryDB = *historyDB
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if *debug {
		cfg.LogLevel = "debug"
	}
}

// newRouter mounts the REST API, WebSocket feed and the /mcp JSON-RPC endpoint
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
func runHTTPServer(gameService service.GameService, cfg *settings.Settings, logger zerolog.Logger) {
	hub := websocket.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	apiServer := api.NewServer(gameService, hub, logger)

	addr := cfg.Addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr), logger)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      newRouter(apiServer, mcpClient),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info().
			Str("addr", addr).
			Str("api", fmt.Sprintf("http://%s/api", addr)).
			Str("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)).
			Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := <-stop
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	logger.Info().Msg("server stopped")
}

// services bundles everything initializeServices wires together
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence *session.FilePersistence
	history     *history.Store
	logger      zerolog.Logger
}

// Close flushes sessions to disk and closes the history database
func (s *services) Close() error {
	var errs []error
	if err := s.sessions.SaveAllSessions(); err != nil {
		errs = append(errs, err)
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initializeServices wires the config, session and history stores into the
// game service.
func initializeServices(cfg *settings.Settings, logger zerolog.Logger) (*services, error) {
	configManager, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(cfg.SessionsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence, logger)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logger.Warn().Err(err).Msg("failed to load persisted sessions")
	}

	opts := []service.Option{service.WithLogger(logger)}
	var store *history.Store
	if cfg.HistoryDB != "" {
		store, err = history.Open(cfg.HistoryDB, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		opts = append(opts, service.WithHistory(store))
	}

	return &services{
		game:        service.NewGameService(sessionManager, configManager, opts...),
		sessions:    sessionManager,
		persistence: persistence,
		history:     store,
		logger:      logger,
	}, nil
}

// startBackgroundRoutines runs the session cleanup and filesystem sync loops
// until ctx is cancelled
func (s *services) startBackgroundRoutines(ctx context.Context, ttl time.Duration) {
	go s.sessionCleanupRoutine(ctx, time.Hour, ttl)
	go s.filesystemSyncRoutine(ctx, 5*time.Second)
}

// sessionCleanupRoutine periodically drops sessions from memory that have not
// been accessed within ttl. Their files stay on disk.
func (s *services) sessionCleanupRoutine(ctx context.Context, every, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.sessions.CleanupExpiredSessions(ttl); removed > 0 {
				s.logger.Info().Int("count", removed).Msg("cleaned up expired sessions")
			}
		}
	}
}

// filesystemSyncRoutine periodically syncs in-memory sessions with filesystem state.
func (s *services) filesystemSyncRoutine(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pruneOrphans()
		}
	}
}

// pruneOrphans removes sessions from memory whose directory was deleted
func (s *services) pruneOrphans() int {
	pruned := 0
	for _, sess := range s.sessions.List() {
		if s.persistence.Exists(sess.ID) {
			continue
		}
		if err := s.sessions.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			s.logger.Info().Str("session", sess.ID).Msg("pruned session from memory (files deleted)")
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse the external API from the settings; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(gameService service.GameService, cfg *settings.Settings, logger zerolog.Logger) {
	baseURL := cfg.ExternalAPI
	logger.Info().Str("url", baseURL).Msg("checking for external API server")

	if !apiAvailable(baseURL) {
		logger.Info().Msg("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to get available port")
		}

		hub := websocket.NewHub(logger)
		go hub.Run()
		defer hub.Stop()

		httpServer := &http.Server{Handler: api.NewServer(gameService, hub, logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
	}

	mcpClient := mcp.NewClient(baseURL, logger)
	logger.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		logger.Fatal().Err(err).Msg("MCP stdio server error")
	}
}

// apiAvailable reports whether a rescue simulator API answers at baseURL
func apiAvailable(baseURL string) bool {
	if baseURL == "" {
		return false
	}
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
