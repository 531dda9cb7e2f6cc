// Command guard-patrol analyzes guard patrol layouts.
//
// It supports three commands:
//  1. "server" (default) – runs the HTTP server exposing the REST API, WebSocket events, Prometheus metrics and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "solve" – answers both questions for a single layout file and exits
//
// Flags control host/port, config directory, debug logging and optional
// ngrok tunneling for easy external access during development. Every flag
// can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/guard-patrol/api"
	"github.com/wricardo/guard-patrol/patrol/config"
	"github.com/wricardo/guard-patrol/patrol/engine"
	"github.com/wricardo/guard-patrol/patrol/service"
	"github.com/wricardo/guard-patrol/patrol/session"
	"github.com/wricardo/guard-patrol/transport/mcp"
	"github.com/wricardo/guard-patrol/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Guard Patrol Analyzer"
)

const (
	sessionMaxAge       = 24 * time.Hour
	sessionCleanupEvery = time.Hour
)

// main loads .env, then runs the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "guard-patrol",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PATROL_PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("PATROL_HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing layout configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
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
		DefaultCommand: "server",
		Commands: []*cli.Command{
			serverCommand(),
			mcpCommand(),
			solveCommand(),
		},
	}
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"http"},
		Usage:   "Run HTTP server with API, WebSocket, metrics and MCP endpoint",
		Flags: []cli.Flag{
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
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log.Printf("Starting %s v%s (mode: server)", AppName, Version)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			patrolService, err := initializeServices(ctx, cmd.String("config-dir"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}

			return runHTTPServer(ctx, patrolService, serverOptions{
				addr:        fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port"))),
				ngrok:       cmd.Bool("ngrok"),
				ngrokAuth:   cmd.String("ngrok-auth"),
				ngrokDomain: cmd.String("ngrok-domain"),
			})
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "Run MCP stdio server, reusing a running API or starting an internal one",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			patrolService, err := initializeServices(ctx, cmd.String("config-dir"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}

			externalURL := fmt.Sprintf("http://%s:%d", cmd.String("host"), int(cmd.Int("port")))
			return runStdioMCPWithInternalServer(ctx, patrolService, externalURL)
		},
	}
}

func solveCommand() *cli.Command {
	return &cli.Command{
		Name:      "solve",
		Usage:     "Print the visited count and loop-site count for a layout file",
		ArgsUsage: "<file|->",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "render",
				Usage: "Print the map with visited cells marked X",
			},
			&cli.BoolFlag{
				Name:  "sites",
				Usage: "List loop-site coordinates",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel workers for the obstruction search (0 = one per CPU)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			source := cmd.Args().First()
			if source == "" {
				return fmt.Errorf("solve: layout file required (use - for stdin)")
			}

			layout, err := readLayout(source, os.Stdin)
			if err != nil {
				return err
			}

			return runSolve(ctx, cmd.Root().Writer, layout, solveOptions{
				render:  cmd.Bool("render"),
				sites:   cmd.Bool("sites"),
				workers: solveWorkers(int(cmd.Int("workers"))),
			})
		},
	}
}

// readLayout reads a layout from a JSON config, a plain text grid, or stdin
// when source is "-".
func readLayout(source string, stdin io.Reader) ([]string, error) {
	if strings.HasSuffix(source, ".json") {
		cfg, err := engine.LoadPuzzleConfig(source)
		if err != nil {
			return nil, err
		}
		return cfg.Layout, nil
	}

	var data []byte
	var err error
	if source == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}
	return engine.SplitLayout(string(data)), nil
}

// solveWorkers maps 0 to one worker per CPU.
func solveWorkers(workers int) int {
	if workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return workers
}

type solveOptions struct {
	render  bool
	sites   bool
	workers int
}

// runSolve prints both answers for layout.
func runSolve(ctx context.Context, w io.Writer, layout []string, opts solveOptions) error {
	grid, err := engine.ParseGrid(layout)
	if err != nil {
		return err
	}

	baseline, err := engine.TraceGrid(grid)
	if err != nil {
		return err
	}
	if baseline.Outcome == engine.CycleDetected {
		return fmt.Errorf("%w: state %+v repeats", engine.ErrBaselineCycle, baseline.Repeated)
	}

	fmt.Fprintf(w, "visited: %d\n", baseline.Path.DistinctCount())
	if opts.render {
		for _, row := range engine.Render(grid, baseline.Path, nil) {
			fmt.Fprintln(w, row)
		}
	}

	result, err := engine.SearchObstructions(ctx, grid, baseline.Path, engine.SearchOptions{Workers: opts.workers})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "loop sites: %d\n", result.Count)
	if opts.sites {
		for _, p := range result.Sites {
			fmt.Fprintf(w, "%d,%d\n", p.X, p.Y)
		}
	}
	return nil
}

type serverOptions struct {
	addr        string
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

// newMainHandler combines the REST API with the /mcp HTTP endpoint.
func newMainHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
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

// runHTTPServer serves the REST API, WebSocket hub and /mcp endpoint until ctx
// is cancelled. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, patrolService service.PatrolService, opts serverOptions) error {
	hub := websocket.NewHub()
	go hub.Run(ctx)

	apiServer := api.NewServer(patrolService, hub)
	mcpClient := mcp.NewClient("http://" + opts.addr)
	handler := newMainHandler(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         opts.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", opts.addr)
		log.Printf("REST API: http://%s/api", opts.addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", opts.addr)
		log.Printf("MCP endpoint: http://%s/mcp", opts.addr)
		log.Printf("Metrics: http://%s/metrics", opts.addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, handler, opts)
		}()
	}

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
		log.Println("Shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return nil
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx ends.
func runNgrokTunnel(ctx context.Context, handler http.Handler, opts serverOptions) {
	if opts.ngrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tunnelServer.Shutdown(shutdownCtx)
	}()

	if err := tunnelServer.Serve(tun); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// initializeServices wires session/config managers and the patrol service.
// It also starts a background cleanup routine that prunes idle sessions until
// ctx is cancelled.
func initializeServices(ctx context.Context, configDir string) (service.PatrolService, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	patrolService := service.NewPatrolService(sessionManager, configManager)

	go sessionCleanupRoutine(ctx, sessionManager, sessionCleanupEvery, sessionMaxAge)

	return patrolService, nil
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

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses the API at
// externalURL when one answers; otherwise it starts an internal HTTP API on a
// random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, patrolService service.PatrolService, externalURL string) error {
	baseURL := externalURL

	log.Printf("Checking for external API server at %s...", externalURL)
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		if resp != nil {
			resp.Body.Close()
		}
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{
			Handler: api.NewServer(patrolService, hub),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + internalAddr
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
