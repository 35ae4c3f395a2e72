package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signalwarden/internal/announce"
	"signalwarden/internal/config"
	"signalwarden/internal/handler"
	"signalwarden/internal/hub"
	"signalwarden/internal/monitor"
	"signalwarden/internal/prompt"
	"signalwarden/internal/repository/sqlite"
	"signalwarden/internal/scanner"
	"signalwarden/internal/watcher"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting signalwarden...")

	// Load configuration
	var (
		cfg      *config.Config
		usedPath string
		err      error
	)
	if *configPath != "" {
		cfg, usedPath, err = config.LoadFromPath(*configPath)
	} else {
		cfg, usedPath, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if usedPath != "" {
		log.Printf("Config loaded: %s", usedPath)
	} else {
		log.Printf("No config file found, using defaults")
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	// Negotiate the scan backend. No usable backend means this host cannot
	// do the job at all, so bail out before touching anything else.
	sc, err := scanner.Detect(scanSettings(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize scan backend: %v", err)
	}

	// Open the persisted network store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 10*time.Second)
	known, err := store.LoadAll(loadCtx)
	loadCancel()
	if err != nil {
		log.Fatalf("Failed to load known networks: %v", err)
	}
	log.Printf("Loaded %d known networks", len(known))

	// Assemble announcers: log always, speech when available
	announcer := buildAnnouncer(cfg)
	defer announcer.Close()

	// Naming prompt
	prompter := prompt.Detect(cfg.Prompt.Enabled)

	// Event bus and SSE hub
	eventBus := monitor.NewEventBus()
	sseHub := hub.New()
	go sseHub.Run()

	eventChan := make(chan monitor.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(event)
		}
	}()

	// Monitor loop
	loop := monitor.New(sc, store, announcer, prompter, eventBus, nil, monitorSettings(cfg), known)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(runCtx); err != nil && err != context.Canceled {
			log.Printf("Monitor loop error: %v", err)
		}
	}()

	// Config hot-reload: thresholds and intervals apply without a restart.
	// Backend, database and server changes still need one.
	if usedPath != "" {
		go watchConfig(runCtx, usedPath, loop)
	}

	// Optional status server
	var server *http.Server
	if cfg.Server.Enabled {
		statusHandler := handler.NewStatusHandler(loop, sc.Name())

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/status", statusHandler.GetStatus)
		mux.HandleFunc("GET /api/networks", statusHandler.GetNetworks)
		mux.Handle("GET /events", sseHub)

		server = &http.Server{
			Addr:        cfg.Server.Addr,
			Handler:     handler.Chain(mux, handler.Recover, handler.Logger),
			ReadTimeout: 10 * time.Second,
			// No WriteTimeout: /events holds SSE streams open indefinitely
			IdleTimeout: 60 * time.Second,
		}

		go func() {
			log.Printf("Status server listening on %s", cfg.Server.Addr)
			if err := server.ListenAndServe(); err != http.ErrServerClosed {
				log.Fatalf("Server error: %v", err)
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	runCancel()
	<-loopDone

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}

	// announcer.Close (deferred) drains any queued speech before exit
	log.Println("Stopped")
}

// watchConfig watches the loaded config file and reapplies threshold and
// interval changes to the running loop.
func watchConfig(ctx context.Context, path string, loop *monitor.Loop) {
	w := watcher.New(path, func() {
		reloadSettings(path, loop)
	})
	if err := w.Watch(ctx); err != nil && err != context.Canceled {
		log.Printf("Config watcher stopped: %v", err)
	}
}

// reloadSettings re-parses the config file and swaps the loop's runtime
// knobs. A parse failure keeps the current settings.
func reloadSettings(path string, loop *monitor.Loop) {
	cfg, _, err := config.LoadFromPath(path)
	if err != nil {
		log.Printf("Config reload failed, keeping current settings: %v", err)
		return
	}
	loop.UpdateSettings(monitorSettings(cfg))
}

// buildAnnouncer composes the announcement outputs from config. The log
// announcer is always present so every message has a durable record.
func buildAnnouncer(cfg *config.Config) announce.Announcer {
	logOut := announce.NewLog()
	if !cfg.Announce.Speech {
		return logOut
	}
	speech := announce.DetectSpeech(cfg.Announce.Binary)
	if speech == nil {
		return logOut
	}
	return announce.NewMulti(logOut, speech)
}

func scanSettings(cfg *config.Config) scanner.Settings {
	return scanner.Settings{
		Backend:     cfg.Scan.Backend,
		Interface:   cfg.Scan.Interface,
		Timeout:     cfg.Scan.Timeout.Duration(),
		NmapTargets: cfg.Scan.NmapTargets,
		SSH: scanner.SSHSettings{
			Host:      cfg.Scan.SSH.Host,
			Port:      cfg.Scan.SSH.Port,
			User:      cfg.Scan.SSH.User,
			KeyPath:   cfg.Scan.SSH.KeyPath,
			Password:  cfg.Scan.SSH.Password,
			Interface: cfg.Scan.SSH.Interface,
		},
	}
}

func monitorSettings(cfg *config.Config) monitor.Settings {
	return monitor.Settings{
		Interval:       cfg.Scan.Interval.Duration(),
		ScanTimeout:    cfg.Scan.Timeout.Duration(),
		SignalJump:     cfg.Thresholds.SignalJump,
		CloseProximity: cfg.Thresholds.CloseProximity,
		PromptTimeout:  cfg.Prompt.Timeout.Duration(),
		PromptBlocks:   cfg.Prompt.Wait == "block",
	}
}
