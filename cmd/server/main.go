package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lab-occupancy/internal/config"
	"github.com/iliyamo/lab-occupancy/internal/handler"
	"github.com/iliyamo/lab-occupancy/internal/hub"
	"github.com/iliyamo/lab-occupancy/internal/lab"
	"github.com/iliyamo/lab-occupancy/internal/model"
	"github.com/iliyamo/lab-occupancy/internal/queue"
	"github.com/iliyamo/lab-occupancy/internal/router"
	queuepublisher "github.com/iliyamo/lab-occupancy/internal/service"
	"github.com/iliyamo/lab-occupancy/internal/store"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	var st store.Store
	switch cfg.StoreDriver {
	case "mysql":
		sqlStore, err := store.OpenSQL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("open mysql store: %v", err)
		}
		defer sqlStore.Close()
		st = sqlStore
	default:
		st = store.NewFileStore(cfg.StorePath)
	}

	// Loading at boot installs the default layout on first run.
	if _, err := st.Load(context.Background()); err != nil {
		log.Fatalf("load snapshot: %v", err)
	}

	manager := lab.NewManager(st,
		lab.WithLogCapacity(cfg.LogCapacity),
		lab.WithNotifier(queuepublisher.Notifier{}),
	)
	h := hub.New(func() (*model.Snapshot, error) { return manager.Snapshot(context.Background()) })
	manager.SetBroadcaster(h)

	// Background consumer mirrors session events into logs/sessions.log.
	go func() {
		if err := queue.StartSessionConsumer(); err != nil {
			log.Printf("session consumer stopped: %v", err)
		}
	}()

	// Stale sessions (no heartbeat within the idle window) time out on a
	// sweep timer instead of lingering as phantom occupants.
	if cfg.IdleTimeoutMin > 0 {
		maxIdle := time.Duration(cfg.IdleTimeoutMin) * time.Minute
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				n, err := manager.SweepStale(ctx, maxIdle)
				cancel()
				if err != nil {
					log.Printf("stale session sweep: %v", err)
				} else if n > 0 {
					log.Printf("timed out %d stale session(s)", n)
				}
			}
		}()
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	e := echo.New()
	router.Register(e, router.Deps{
		Cfg:   cfg,
		Auth:  handler.NewAuthHandler(cfg, manager),
		Lab:   handler.NewLabHandler(manager),
		Admin: handler.NewAdminHandler(manager),
		Hub:   h,
		Redis: rdb,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
