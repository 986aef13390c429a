package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"focus-reminders/internal/metrics"
	"focus-reminders/internal/model"
	"focus-reminders/internal/schedule"
)

// CandidateStore returns recurring tasks that may be due.
type CandidateStore interface {
	FetchCandidates(ctx context.Context, now time.Time) ([]model.Task, error)
}

// Dispatcher delivers one task's notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, task model.Task, now time.Time) DispatchResult
}

// Summary is the outcome of one scheduled check.
type Summary struct {
	Processed int    `json:"processed"`
	Notified  int    `json:"notified"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Timestamp string `json:"timestamp"`
}

// CheckOptions tunes a CheckService.
type CheckOptions struct {
	Lookback    time.Duration
	Concurrency int
	Now         func() time.Time
}

// CheckService runs the due-task pipeline once per trigger.
type CheckService struct {
	tasks       CandidateStore
	dispatcher  Dispatcher
	zones       *schedule.ZoneCache
	lookback    time.Duration
	concurrency int
	now         func() time.Time
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

func NewCheckService(tasks CandidateStore, dispatcher Dispatcher, zones *schedule.ZoneCache, opts CheckOptions, m *metrics.Metrics, log zerolog.Logger) *CheckService {
	if opts.Lookback <= 0 {
		opts.Lookback = schedule.DefaultLookback
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CheckService{
		tasks:       tasks,
		dispatcher:  dispatcher,
		zones:       zones,
		lookback:    opts.Lookback,
		concurrency: opts.Concurrency,
		now:         opts.Now,
		metrics:     m,
		log:         log.With().Str("component", "check").Logger(),
	}
}

// RunScheduledCheck notifies every recurring task whose local schedule falls
// inside [now-lookback, now]. Only a failing candidate fetch returns an
// error; per-task problems are counted in the summary.
func (s *CheckService) RunScheduledCheck(ctx context.Context) (Summary, error) {
	started := time.Now()
	now := s.now().UTC()
	summary := Summary{Timestamp: now.Format(time.RFC3339)}

	candidates, err := s.tasks.FetchCandidates(ctx, now)
	if err != nil {
		s.metrics.ObserveCheck(time.Since(started), err)
		s.log.Error().Err(err).Msg("scheduled check aborted")
		return summary, err
	}

	window := schedule.NewWindow(now, s.lookback)
	due := s.filterDue(candidates, window, &summary)
	s.metrics.AddSkipped(summary.Skipped)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.concurrency)
	for _, task := range due {
		g.Go(func() error {
			res := s.dispatcher.Dispatch(ctx, task, now)
			mu.Lock()
			defer mu.Unlock()
			if res.Success {
				summary.Notified++
			} else {
				summary.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()
	summary.Processed = len(due)

	s.metrics.ObserveCheck(time.Since(started), nil)
	s.log.Info().
		Int("candidates", len(candidates)).
		Int("processed", summary.Processed).
		Int("notified", summary.Notified).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Time("window_start", window.Start).
		Time("window_end", window.End).
		Msg("scheduled check finished")
	return summary, nil
}

func (s *CheckService) filterDue(candidates []model.Task, w schedule.Window, summary *Summary) []model.Task {
	var due []model.Task
	for _, task := range candidates {
		rec, err := task.Recurrence()
		if err != nil {
			summary.Skipped++
			s.log.Warn().Err(err).Str("task_id", task.ID).Msg("skipping task with malformed schedule")
			continue
		}

		loc, _ := s.zones.Resolve(task.OwnerTimezone())
		occ, ok := schedule.Match(rec, loc, w)
		if !ok {
			continue
		}
		s.log.Debug().Str("task_id", task.ID).Time("occurrence", occ).Str("timezone", loc.String()).Msg("task due")
		due = append(due, task)
	}
	return due
}
