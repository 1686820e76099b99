// Package scheduler runs the autonomous discovery→digest→dispatch cycle.
//
// A fixed-cadence cron poll checks elapsed time since the checkpoint and
// triggers a cycle once the configured threshold has passed. The poll
// keeps firing on its cadence regardless of cycle outcome; failed cycles
// are simply retried whole on the next qualifying poll (the dedup merge
// makes re-ingestion a no-op, so partial progress is an accepted minor
// duplication risk).
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/DK01git/JobAutomation/internal/agentlog"
	"github.com/DK01git/JobAutomation/internal/checkpoint"
	"github.com/DK01git/JobAutomation/internal/dispatch"
	"github.com/DK01git/JobAutomation/internal/model"
)

// ErrCycleInFlight is returned when a trigger arrives while a cycle is
// already running. Triggers are rejected immediately, never queued.
var ErrCycleInFlight = fmt.Errorf("a cycle is already in flight")

// Discoverer is the slice of the provider gateway the cycle uses.
type Discoverer interface {
	Discover(ctx context.Context, p model.CandidateProfile) []model.JobPosting
	Summarize(jobs []model.JobPosting, name string) string
}

// Ingester merges discovered postings into the job set.
type Ingester interface {
	Ingest(ctx context.Context, batch []model.JobPosting) int
}

// Dispatcher sends the digest mail.
type Dispatcher interface {
	Send(ctx context.Context, req dispatch.Request) (dispatch.Result, error)
}

// ProfileSource yields the current candidate profile at call time.
type ProfileSource interface {
	Get() model.CandidateProfile
}

// Deps collects the scheduler's collaborators.
type Deps struct {
	Provider   Discoverer
	Jobs       Ingester
	Dispatcher Dispatcher
	Profiles   ProfileSource
	Checkpoint *checkpoint.Checkpoint
	Events     *agentlog.Log
	Logger     *zap.SugaredLogger
}

// Scheduler owns the poll timer and cycle execution. At most one cycle —
// automated or manual — runs at a time.
type Scheduler struct {
	deps       Deps
	cron       *cron.Cron
	pollEvery  time.Duration
	cycleEvery time.Duration
	digestJobs int

	running atomic.Bool
	now     func() time.Time
}

// New creates a Scheduler that polls every pollEvery and runs a cycle when
// cycleEvery has elapsed since the checkpoint.
func New(deps Deps, pollEvery, cycleEvery time.Duration, digestJobs int) *Scheduler {
	return &Scheduler{
		deps:       deps,
		cron:       cron.New(),
		pollEvery:  pollEvery,
		cycleEvery: cycleEvery,
		digestJobs: digestJobs,
		now:        time.Now,
	}
}

// Start registers the poll job and starts the timer. One poll also runs
// immediately so an overdue cycle does not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.pollEvery)
	_, err := s.cron.AddFunc(spec, func() { s.poll(ctx) })
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.deps.Logger.Infow("scheduler started", "poll", s.pollEvery, "cycle", s.cycleEvery)

	go s.poll(ctx)
	return nil
}

// Stop halts the poll timer. An in-flight cycle is not preempted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.deps.Logger.Infow("scheduler stopped")
}

// Status reports the checkpoint, the next due time, and whether a cycle is
// in flight.
func (s *Scheduler) Status() (last, nextDue time.Time, running bool) {
	last = s.deps.Checkpoint.Last()
	return last, last.Add(s.cycleEvery), s.running.Load()
}

// RunNow runs one cycle synchronously, outside the timer, sharing the
// cycle body and checkpoint-update rule with the automated path. Returns
// ErrCycleInFlight when a cycle is already running.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.tryCycle(ctx)
}

// poll is the timer callback: retry pending checkpoint persistence, then
// run a cycle when one is due.
func (s *Scheduler) poll(ctx context.Context) {
	s.deps.Checkpoint.Flush(ctx)

	if s.now().Sub(s.deps.Checkpoint.Last()) < s.cycleEvery {
		return
	}
	if err := s.tryCycle(ctx); err != nil && err != ErrCycleInFlight {
		s.deps.Logger.Warnw("autonomous cycle failed, will retry on a later poll", "err", err)
	}
}

// tryCycle enforces single-flight and the advance-only-on-full-success
// checkpoint rule.
func (s *Scheduler) tryCycle(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrCycleInFlight
	}
	defer s.running.Store(false)

	started := s.now()
	if err := s.runCycle(ctx); err != nil {
		return err
	}
	s.deps.Checkpoint.Advance(ctx, started)
	return nil
}

// runCycle is the cycle body: discover, merge, digest, dispatch. Discovery
// and merge never fail (zero results are a successful outcome); only a
// failed digest dispatch fails the cycle.
func (s *Scheduler) runCycle(ctx context.Context) error {
	profile := s.deps.Profiles.Get()

	s.deps.Events.Append(agentlog.AgentScheduler, agentlog.LevelInfo,
		fmt.Sprintf("Scheduled trigger: initiating sync via %s.", profile.Preferences.AIProvider))

	batch := s.deps.Provider.Discover(ctx, profile)
	added := s.deps.Jobs.Ingest(ctx, batch)
	s.deps.Events.Append(agentlog.AgentDiscovery, agentlog.LevelSuccess,
		fmt.Sprintf("Discovery found %d postings, %d new after dedup.", len(batch), added))

	newest := batch
	if len(newest) > s.digestJobs {
		newest = newest[:s.digestJobs]
	}
	digest := s.deps.Provider.Summarize(newest, profile.PersonalInfo.Name)

	_, err := s.deps.Dispatcher.Send(ctx, dispatch.Request{
		To:       profile.PersonalInfo.Email,
		Subject:  fmt.Sprintf("Daily Briefing - %s", s.now().Format("2006-01-02")),
		Body:     digest,
		RelayURL: profile.Preferences.RelayURL,
	})
	if err != nil {
		s.deps.Events.Append(agentlog.AgentScheduler, agentlog.LevelError,
			fmt.Sprintf("Scheduled task failed: %v", err))
		return fmt.Errorf("send digest: %w", err)
	}

	s.deps.Events.Append(agentlog.AgentScheduler, agentlog.LevelSuccess, "Daily sync successful.")
	return nil
}
