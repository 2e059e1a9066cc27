// Command pushbox runs the pushbox puzzle.
//
// It has three commands:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" – plays a local game in the terminal
//
// Flags control host/port, the profile and journal directories, debug logging,
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/pushbox/api"
	"github.com/wricardo/pushbox/game/config"
	"github.com/wricardo/pushbox/game/service"
	"github.com/wricardo/pushbox/game/session"
	"github.com/wricardo/pushbox/transport/mcp"
	"github.com/wricardo/pushbox/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Pushbox"
)

const (
	sessionMaxAge       = 24 * time.Hour
	sessionCleanupEvery = time.Hour
	defaultAPIURL       = "http://localhost:8080"
)

// Options is the resolved configuration shared by all commands.
type Options struct {
	Host        string
	Port        int
	ProfileDir  string
	JournalDir  string
	Debug       bool
	APIURL      string
	Ngrok       bool
	NgrokAuth   string
	NgrokDomain string
}

// Addr is the host:port the HTTP server binds to.
func (o Options) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

func profileDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "profile-dir",
		Value:   "profiles",
		Usage:   "Directory containing input/glyph profiles",
		Sources: cli.EnvVars("PROFILE_DIR"),
	}
}

func journalDirFlag(def string) cli.Flag {
	return &cli.StringFlag{
		Name:    "journal-dir",
		Value:   def,
		Usage:   "Directory for move journals (empty disables journaling)",
		Sources: cli.EnvVars("JOURNAL_DIR"),
	}
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		profileDirFlag(),
		journalDirFlag("sessions"),
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}
}

func optionsFrom(cmd *cli.Command) Options {
	return Options{
		Host:        cmd.String("host"),
		Port:        int(cmd.Int("port")),
		ProfileDir:  cmd.String("profile-dir"),
		JournalDir:  cmd.String("journal-dir"),
		Debug:       cmd.Bool("debug"),
		APIURL:      cmd.String("api-url"),
		Ngrok:       cmd.Bool("ngrok"),
		NgrokAuth:   cmd.String("ngrok-auth"),
		NgrokDomain: cmd.String("ngrok-domain"),
	}
}

func newApp() *cli.Command {
	serve := &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "http"},
		Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
		Flags:   serverFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runHTTPServer(ctx, optionsFrom(cmd))
		},
	}

	return &cli.Command{
		Name:           "pushbox",
		Usage:          "Push every object onto a goal",
		Version:        Version,
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			serve,
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, starting an internal HTTP API if none is reachable",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Value:   defaultAPIURL,
						Usage:   "External API to proxy when it is reachable",
						Sources: cli.EnvVars("PUSHBOX_API_URL"),
					},
					profileDirFlag(),
					journalDirFlag(""),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCPWithInternalServer(ctx, optionsFrom(cmd))
				},
			},
			playCommand(),
		},
	}
}

// main loads .env, then dispatches to the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatalf("%s: %v", AppName, err)
	}
}

// initializeServices wires the profile and session managers into a game
// service. It also starts a background routine pruning stale sessions until
// ctx is done.
func initializeServices(ctx context.Context, opts Options) (service.GameService, error) {
	profiles, err := config.NewManager(opts.ProfileDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile manager: %w", err)
	}

	sessions := session.NewManager()
	if opts.JournalDir != "" {
		journal, err := session.NewFileJournal(opts.JournalDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create move journal: %w", err)
		}
		sessions = session.NewManagerWithJournal(journal)
		log.Printf("Journaling moves to %s", opts.JournalDir)
	}

	go sessionCleanupRoutine(ctx, sessions, sessionCleanupEvery, sessionMaxAge)

	return service.NewGameService(sessions, profiles), nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// newHandler combines the REST API, the WebSocket hub and the /mcp endpoint.
func newHandler(gameService service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(gameService, hub)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.Handle("/mcp", mcp.NewClient(baseURL))
	return mainRouter
}

// runHTTPServer starts the HTTP server and, when enabled, an ngrok tunnel
// serving the same handler. It returns once ctx is cancelled and both have
// stopped.
func runHTTPServer(ctx context.Context, opts Options) error {
	log.Printf("Starting %s v%s", AppName, Version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	gameService, err := initializeServices(ctx, opts)
	if err != nil {
		return err
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := opts.Addr()
	handler := newHandler(gameService, hub, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	if opts.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, handler)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is done.
func runNgrokTunnel(ctx context.Context, opts Options, handler http.Handler) {
	if opts.NgrokAuth == "" {
		log.Println("Warning: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// apiReachable reports whether a pushbox API answers at baseURL.
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalServer serves the API on a random loopback port and returns
// its base URL.
func startInternalServer(ctx context.Context, opts Options) (string, error) {
	gameService, err := initializeServices(ctx, opts)
	if err != nil {
		return "", err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}
	baseURL := "http://" + listener.Addr().String()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	log.Printf("Internal HTTP server on %s for MCP stdio", listener.Addr())
	return baseURL, nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses the API
// at opts.APIURL when it answers, otherwise it starts an internal one.
// Logs go to stderr so stdout stays clean for the protocol.
func runStdioMCPWithInternalServer(ctx context.Context, opts Options) error {
	log.SetOutput(os.Stderr)

	baseURL := opts.APIURL
	log.Printf("Checking for external API server at %s...", baseURL)
	if baseURL == "" || !apiReachable(baseURL) {
		log.Printf("No external API server found, starting internal HTTP server")
		var err error
		baseURL, err = startInternalServer(ctx, opts)
		if err != nil {
			return err
		}
	} else {
		log.Printf("External API server found at %s, using it for MCP", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
