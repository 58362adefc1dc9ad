package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tazhate/tisscal/internal/service"
)

// Scheduler runs periodic maintenance, currently just purging expired
// sessions. The calendar pipeline itself has no background work: feeds are
// fetched on demand when a client requests them.
type Scheduler struct {
	cron  *cron.Cron
	users *service.UserService
}

func New(tz *time.Location, users *service.UserService) *Scheduler {
	if tz == nil {
		tz = time.UTC
	}
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(tz)),
		users: users,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("@hourly", s.purgeSessions); err != nil {
		return fmt.Errorf("add session purge: %w", err)
	}

	s.cron.Start()
	log.Println("Scheduler started")

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

func (s *Scheduler) purgeSessions() {
	n, err := s.users.PurgeExpiredSessions()
	if err != nil {
		log.Printf("Error purging sessions: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Purged %d expired sessions", n)
	}
}
