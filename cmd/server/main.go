package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"clusterforge/internal/config"
	"clusterforge/internal/handler"
	"clusterforge/internal/hub"
	"clusterforge/internal/loader"
	"clusterforge/internal/repository/sqlite"
	"clusterforge/internal/service"
	"clusterforge/internal/stack"
	"clusterforge/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "TOML config file path (defaults apply when omitted)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting clusterforge server...")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
		log.Printf("Config loaded: %s", *configPath)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	// Stack metadata is the root of every configuration chain; nothing works
	// without it.
	stackDef, err := stack.Load(cfg.StackPath)
	if err != nil {
		log.Fatalf("Failed to load stack metadata: %v", err)
	}
	log.Printf("Stack metadata loaded: %s", cfg.StackPath)

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	log.Printf("Database opened: %s", cfg.DatabasePath)

	// Initialize event bus
	eventBus := service.NewEventBus()

	// Initialize SSE hub
	sseHub := hub.New()
	go sseHub.Run()

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(event)
		}
	}()

	svc := service.NewTopologyService(store, stackDef, service.LogOrchestrator{}, eventBus)

	if cfg.BlueprintDir != "" {
		if count := loadBlueprints(svc, cfg.BlueprintDir); count > 0 {
			log.Printf("Registered %d blueprint(s) from %s", count, cfg.BlueprintDir)
		}
	}

	// Rebuild live topologies persisted by previous runs.
	if err := svc.RestoreClusters(context.Background()); err != nil {
		log.Fatalf("Failed to restore clusters: %v", err)
	}

	// Setup routes
	mux := http.NewServeMux()
	handler.NewTopologyHandler(svc).RegisterRoutes(mux)
	mux.Handle("GET /events", sseHub)

	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.WatchBlueprints {
		blueprintWatcher := watcher.New(cfg.BlueprintDir, func(path string) {
			blueprint, err := loader.LoadBlueprint(path)
			if err != nil {
				log.Printf("Failed to reload blueprint %s: %v", path, err)
				return
			}
			if err := svc.RegisterBlueprint(blueprint); err != nil {
				log.Printf("Failed to register blueprint %s: %v", path, err)
				return
			}
			log.Printf("Reloaded blueprint %s from %s", blueprint.Name(), path)
		})
		go func() {
			if err := blueprintWatcher.Watch(watchCtx); err != nil && err != context.Canceled {
				log.Printf("Blueprint watcher stopped: %v", err)
			}
		}()
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	watchCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// loadBlueprints registers every YAML document in the blueprint directory.
// Individual parse failures are logged and skipped so one bad document does
// not block startup.
func loadBlueprints(svc *service.TopologyService, dir string) int {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		paths = append(paths, matches...)
	}

	count := 0
	for _, path := range paths {
		blueprint, err := loader.LoadBlueprint(path)
		if err != nil {
			log.Printf("Skipping blueprint %s: %v", path, err)
			continue
		}
		if err := svc.RegisterBlueprint(blueprint); err != nil {
			log.Printf("Skipping blueprint %s: %v", path, err)
			continue
		}
		count++
	}
	return count
}
