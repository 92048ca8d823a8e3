// Package main runs the floorsync client core as a standalone process: it
// opens a floor plan, keeps it synchronized and flushes queued edits on
// reconnect. Host applications embed the internal packages directly; this
// binary exists for headless operation and manual testing against a backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/planwise/floorsync/internal/api"
	"github.com/planwise/floorsync/internal/config"
	"github.com/planwise/floorsync/internal/db"
	"github.com/planwise/floorsync/internal/draft"
	"github.com/planwise/floorsync/internal/live"
	"github.com/planwise/floorsync/internal/logging"
	"github.com/planwise/floorsync/internal/models"
	"github.com/planwise/floorsync/internal/netstate"
	"github.com/planwise/floorsync/internal/offline"
	"github.com/planwise/floorsync/internal/sync"
	"github.com/planwise/floorsync/internal/sync/scheduler"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "floorsync: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	planFlag := flag.String("plan", "", "floor plan id to open")
	flag.Parse()
	if *planFlag == "" {
		return fmt.Errorf("missing required -plan flag")
	}
	planID := models.UUID(*planFlag)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format, "floorsync")
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("Starting floorsync core", zap.String("version", Version))

	database, err := db.Open(cfg.Data.Dir)
	if err != nil {
		return err
	}
	defer database.Close()

	migrator := db.NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		return err
	}

	repo := db.NewRepository(database.DB)
	defer repo.Close()

	tokens := api.StaticToken(os.Getenv("FLOORSYNC_TOKEN"))
	client := api.NewClient(cfg.API.BaseURL, cfg.API.RequestTimeout, tokens, logger)

	store := draft.NewStore()
	queue := offline.NewQueue(repo, planID, logger)
	tracker := netstate.NewTracker()
	engine := sync.NewEngine(client, store, queue, repo, tracker, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plan, err := engine.OpenPlan(ctx, planID)
	if err != nil {
		return err
	}
	logger.Info("Floor plan opened",
		zap.String("floor_plan_id", plan.ID.String()),
		zap.Int("rooms", len(plan.Rooms)),
		zap.Time("last_modified_at", plan.LastModifiedAt),
	)

	go engine.Run(ctx)

	sched := scheduler.NewScheduler(engine, tracker, func(status *models.FloorPlan) {
		booked := 0
		for _, room := range status.Rooms {
			if room.CurrentStatus == models.RoomStatusBooked {
				booked++
			}
		}
		logger.Info("Room status refreshed",
			zap.Int("rooms", len(status.Rooms)),
			zap.Int("booked", booked),
		)
	}, &scheduler.Config{
		StatusInterval: cfg.Sync.StatusInterval,
		FlushInterval:  cfg.Sync.FlushInterval,
	}, logger)
	sched.Start(ctx)
	defer sched.Stop()

	sub := live.SubscribeCompany(cfg.API.WSBaseURL, tokens, cfg.API.HandshakeTimeout, func(event live.Event) {
		logger.Info("Live event",
			zap.String("type", string(event.Type)),
			zap.String("floor_plan_id", event.FloorPlanID.String()),
		)
		if event.FloorPlanID != planID {
			return
		}
		switch event.Type {
		case live.EventFloorPlanChanged, live.EventFloorPlanRestored:
			if _, applied, err := engine.Refresh(ctx, false); err != nil {
				logger.Warn("Refresh after live event failed", zap.Error(err))
			} else if !applied {
				logger.Info("Refresh deferred, draft has unsaved edits")
			}
		}
	}, logger)
	defer sub.Unsubscribe()

	<-ctx.Done()
	logger.Info("Shutting down")
	return nil
}
