// Command pipeline runs the reelscope content pipeline: the worker pool
// that drains the scrape/categorize/viral queue, the HTTP API the
// frontend talks to, and the background retention sweep, all in one
// process.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/reelscope/pipeline/pkg/api"
	"github.com/reelscope/pipeline/pkg/categorize"
	"github.com/reelscope/pipeline/pkg/cleanup"
	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/database"
	"github.com/reelscope/pipeline/pkg/discovery"
	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/objectstore"
	"github.com/reelscope/pipeline/pkg/pipeline"
	"github.com/reelscope/pipeline/pkg/queue"
	"github.com/reelscope/pipeline/pkg/redact"
	"github.com/reelscope/pipeline/pkg/services"
	"github.com/reelscope/pipeline/pkg/store"
	"github.com/reelscope/pipeline/pkg/store/localcache"
	"github.com/reelscope/pipeline/pkg/viral"
	"github.com/reelscope/pipeline/pkg/viralai"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	redactor := redact.New()
	base := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(redact.NewHandler(base, redactor)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	dbCfg, err := database.LoadConfigFromEnv(cfg.Storage.DatabaseURLEnv)
	if err != nil {
		log.Fatalf("failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dbClient.Close()
	slog.Info("connected to database")

	var objects store.ObjectStore
	if cfg.Storage.UploadImagesToStore {
		baseURL := os.Getenv(cfg.Storage.ObjectStoreBaseURLEnv)
		serviceKey := os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
		if baseURL == "" || serviceKey == "" {
			log.Fatalf("storage.upload_images_to_store is set but %s or SUPABASE_SERVICE_ROLE_KEY is empty", cfg.Storage.ObjectStoreBaseURLEnv)
		}
		objects = objectstore.NewSupabaseStore(baseURL, serviceKey)
	}

	var shadow *store.CSVShadow
	if cfg.Storage.KeepLocalCSVShadow {
		dir := cfg.Storage.CSVShadowDir
		if dir == "" {
			dir = "./shadow"
		}
		shadow, err = store.NewCSVShadow(dir)
		if err != nil {
			log.Fatalf("failed to open CSV shadow at %s: %v", dir, err)
		}
	}

	st := store.New(dbClient.Pool, objects, cfg.Storage, shadow)

	fx, err := fetchers.New(cfg.Scrapers, cfg.LLM)
	if err != nil {
		log.Fatalf("failed to build fetchers: %v", err)
	}
	cat := categorize.New(fx.LLM)
	pl := pipeline.New(st, fx, cat, cfg.Defaults)

	discoverer := discovery.New(st, fx.Similar, cfg.Discovery)
	aiPipeline := viralai.New(fx.LLM, cfg.Viral)
	viralEngine := viral.New(st, pl, fx.Transcript, aiPipeline, cfg.Viral)

	cleanupSvc := cleanup.NewService(cfg.Retention, st)
	cleanupSvc.Start(ctx)
	defer cleanupSvc.Stop()

	podID := getEnv("POD_ID", uuid.NewString())
	pool := queue.NewPool(podID, st, pl, cfg.Queue)
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("failed to start worker pool: %v", err)
	}
	defer pool.Stop()

	sessions := services.NewSessionTracker()
	reelSvc := services.NewReelService(st, sessions)
	profileSvc := services.NewProfileService(st, fx.Profile, fx.Similar)
	viralSvc := services.NewViralService(st, viralEngine)

	localCachePath := getEnv("LOCAL_CACHE_PATH", "")
	if localCachePath != "" {
		lc, err := localcache.Open(localCachePath)
		if err != nil {
			slog.Error("failed to open local similar-profiles cache, continuing without it", "error", err)
		} else {
			defer lc.Close()
			profileSvc = profileSvc.WithLocalCache(lc)
		}
	}

	server := api.NewServer(dbClient, reelSvc, profileSvc, viralSvc)
	server.SetWorkerPool(pool)
	server.SetDiscoverer(discoverer)

	go runRecurringScheduler(ctx, st, viralEngine)
	go runDiscoveryLoop(ctx, discoverer, cfg.Discovery)

	addr := ":" + getEnv("HTTP_PORT", "8080")
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- server.Start(addr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			slog.Error("http server exited", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
}

// runRecurringScheduler polls for viral-ideas requests whose next
// scheduled run has come due and drives each through another pass of
// the engine, the way cron-triggered re-analysis works in production.
func runRecurringScheduler(ctx context.Context, st *store.Store, engine *viral.Engine) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			due, err := st.DueRecurringRequests(ctx)
			if err != nil {
				slog.Error("recurring scheduler: list due requests", "error", err)
				continue
			}
			for _, req := range due {
				slog.Info("recurring scheduler: starting run", "request_id", req.ID, "primary", req.PrimaryUsername)
				go func(r *store.Store, e *viral.Engine) {
					if err := e.RunRequest(context.Background(), req); err != nil {
						slog.Error("recurring scheduler: run failed", "request_id", req.ID, "error", err)
					}
				}(st, engine)
			}
		}
	}
}

// runDiscoveryLoop periodically expands the creator network graph
// outward from the configured seed account.
func runDiscoveryLoop(ctx context.Context, d *discovery.Discoverer, cfg *config.DiscoveryConfig) {
	if cfg.DefaultSeedUsername == "" {
		return
	}
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Run(ctx); err != nil {
				slog.Error("discovery run failed", "error", err)
			}
		}
	}
}
