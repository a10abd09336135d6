package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService wraps cron-based maintenance jobs.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc)),
	}
}

// Schedule registers job under a standard cron spec or descriptor such as
// "@hourly".
func (s *SchedulerService) Schedule(spec string, job func()) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, job)
}

// ScheduleResetTokenPurge runs the reset-token purge on spec.
func (s *SchedulerService) ScheduleResetTokenPurge(spec string, auth *AuthService) (cron.EntryID, error) {
	return s.Schedule(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := auth.PurgeResetTokens(ctx)
		if err != nil {
			log.Printf("[warn] purge reset tokens: %v", err)
			return
		}
		if removed > 0 {
			log.Printf("[info] purged %d reset tokens", removed)
		}
	})
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
