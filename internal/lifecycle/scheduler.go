package lifecycle

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netgrid/arena/internal/obslog"
)

// ResolveFunc forces resolution of one open turn. It carries the same
// idempotency guarantees as the voluntary path: a stale attempt is a
// silent no-op, so firing after the turn already advanced is harmless.
type ResolveFunc func(ctx context.Context, matchID string, turnNumber int) error

// Scheduler arms one deadline per open turn and fires a forced
// resolution when it expires.
type Scheduler struct {
	sched   gocron.Scheduler
	resolve ResolveFunc
}

func New(resolve ResolveFunc) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{sched: s, resolve: resolve}, nil
}

func (s *Scheduler) Start() { s.sched.Start() }

func (s *Scheduler) Stop() error { return s.sched.Shutdown() }

// PendingJobs reports the armed deadlines that have not fired yet.
func (s *Scheduler) PendingJobs() int { return len(s.sched.Jobs()) }

// Arm schedules a forced resolution at deadline. Past deadlines fire
// immediately. There is no disarm: resolution attempts for turns that
// already advanced abort inside the transaction.
func (s *Scheduler) Arm(matchID string, turnNumber int, deadline time.Time) {
	fire := func() {
		obslog.L().Info("turn_deadline_fired",
			zap.String("match_id", matchID),
			zap.Int("turn", turnNumber),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.resolve(ctx, matchID, turnNumber); err != nil {
			obslog.L().Error("forced_resolution_failed",
				zap.String("match_id", matchID),
				zap.Int("turn", turnNumber),
				zap.Error(err),
			)
		}
	}
	if !deadline.After(time.Now()) {
		go fire()
		return
	}
	// One-shot jobs stay registered after they run; the listener removes
	// the job so armed deadlines do not accumulate over the process life.
	_, err := s.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(deadline)),
		gocron.NewTask(fire),
		gocron.WithEventListeners(gocron.AfterJobRuns(func(jobID uuid.UUID, _ string) {
			_ = s.sched.RemoveJob(jobID)
		})),
	)
	if err != nil {
		obslog.L().Error("deadline_arm_failed",
			zap.String("match_id", matchID),
			zap.Int("turn", turnNumber),
			zap.Error(err),
		)
		go fire()
	}
}
