package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tazhate/tisscal/config"
	"github.com/tazhate/tisscal/internal/feed"
	"github.com/tazhate/tisscal/internal/rooms"
	"github.com/tazhate/tisscal/internal/scheduler"
	"github.com/tazhate/tisscal/internal/service"
	"github.com/tazhate/tisscal/internal/storage"
	"github.com/tazhate/tisscal/internal/web"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer store.Close()

	roomDir, err := rooms.Load(cfg.RoomsPath)
	if err != nil {
		log.Fatalf("Failed to load room directory: %v", err)
	}
	log.Printf("Loaded %d rooms", roomDir.Len())

	fetcher := feed.NewFetcher(cfg.FetchTimeout)
	userSvc := service.NewUserService(store, cfg.SessionTTL)
	calendarSvc := service.NewCalendarService(store, fetcher, roomDir, cfg.TissBaseURL, cfg.Timezone)

	sched := scheduler.New(cfg.Timezone, userSvc)
	server := web.New(":"+cfg.ServerPort, userSvc, calendarSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Printf("Scheduler error: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(ctx)
	}()

	log.Println("TissCal started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Println("Shutting down...")
		cancel()
		sched.Stop()
		if err := <-errCh; err != nil {
			log.Printf("Error stopping server: %v", err)
		}
	case err := <-errCh:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
		cancel()
		sched.Stop()
	}

	log.Println("TissCal stopped")
}
