// Package scheduler runs the periodic maintenance jobs: overdue sweeps,
// activity state advancement, monthly auto-close and the proof review
// reminder. Each job holds a run-lock so a slow run never overlaps the next.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cotizapp/cotiz/internal/activity"
	"github.com/cotizapp/cotiz/internal/cotisation"
	"github.com/cotizapp/cotiz/internal/monthly"
	"github.com/cotizapp/cotiz/internal/plan"
	"github.com/cotizapp/cotiz/internal/proof"
)

const jobTimeout = 5 * time.Minute

// Scheduler owns the cron runner and the services its jobs drive.
type Scheduler struct {
	cron        *cron.Cron
	cotisations *cotisation.Service
	plans       *plan.Service
	activities  *activity.Service
	periods     *monthly.Service
	proofs      *proof.Service
}

func New(cotisations *cotisation.Service, plans *plan.Service, activities *activity.Service, periods *monthly.Service, proofs *proof.Service) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		cotisations: cotisations,
		plans:       plans,
		activities:  activities,
		periods:     periods,
		proofs:      proofs,
	}
}

// Start registers the jobs and launches the cron runner. schedule is a cron
// expression shared by the sweep jobs; the rest run daily.
func (s *Scheduler) Start(schedule string) error {
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context)
	}{
		{"cotisation-sweep", schedule, s.sweepCotisations},
		{"installment-sweep", schedule, s.sweepInstallments},
		{"activity-advance", "15 0 * * *", s.advanceActivities},
		{"monthly-autoclose", "30 0 * * *", s.autoClosePeriods},
		{"proof-reminder", "0 9 * * *", s.flagStaleProofs},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddJob(job.spec, newGuardedJob(job.name, job.run)); err != nil {
			return err
		}
	}
	s.cron.Start()
	log.Printf("scheduler started with %d jobs", len(jobs))
	return nil
}

// Stop halts the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// guardedJob skips a tick when the previous run still holds the lock.
type guardedJob struct {
	name string
	mu   sync.Mutex
	run  func(ctx context.Context)
}

func newGuardedJob(name string, run func(ctx context.Context)) *guardedJob {
	return &guardedJob{name: name, run: run}
}

func (j *guardedJob) Run() {
	if !j.mu.TryLock() {
		log.Printf("job %s still running, skipping tick", j.name)
		return
	}
	defer j.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	j.run(ctx)
}

func (s *Scheduler) sweepCotisations(ctx context.Context) {
	n, err := s.cotisations.SweepOverdue(ctx)
	if err != nil {
		log.Printf("cotisation sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("cotisation sweep: %d items marked overdue", n)
	}
}

func (s *Scheduler) sweepInstallments(ctx context.Context) {
	n, err := s.plans.SweepOverdue(ctx)
	if err != nil {
		log.Printf("installment sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("installment sweep: %d installments marked overdue", n)
	}
}

func (s *Scheduler) advanceActivities(ctx context.Context) {
	started, completed, err := s.activities.AdvanceStates(ctx)
	if err != nil {
		log.Printf("activity advance failed: %v", err)
		return
	}
	if started+completed > 0 {
		log.Printf("activity advance: %d started, %d completed", started, completed)
	}
}

func (s *Scheduler) autoClosePeriods(ctx context.Context) {
	n, err := s.periods.AutoClose(ctx)
	if err != nil {
		log.Printf("monthly auto-close failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("monthly auto-close: %d periods closed", n)
	}
}

func (s *Scheduler) flagStaleProofs(ctx context.Context) {
	stale, err := s.proofs.FlagStale(ctx)
	if err != nil {
		log.Printf("proof reminder failed: %v", err)
		return
	}
	for _, p := range stale {
		log.Printf("proof %d from %s pending for %d days", p.ID, p.MemberName, p.PendingDays(time.Now()))
	}
}
