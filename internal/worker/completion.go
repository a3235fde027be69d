package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper completes bookings whose travel date has passed.
type Sweeper interface {
	AdvanceCompletions(ctx context.Context, asOf time.Time) (int64, error)
	Today() time.Time
}

// Completion runs the sweep once at start and then every Interval until ctx ends.
type Completion struct {
	Sweeper  Sweeper
	Interval time.Duration
}

func (w Completion) Run(ctx context.Context) {
	if w.Interval <= 0 {
		logrus.Info("completion worker disabled")
		return
	}
	w.tick(ctx)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w Completion) tick(ctx context.Context) {
	asOf := w.Sweeper.Today()
	n, err := w.Sweeper.AdvanceCompletions(ctx, asOf)
	if err != nil {
		if ctx.Err() == nil {
			logrus.WithError(err).Error("completion sweep failed")
		}
		return
	}
	if n > 0 {
		logrus.WithFields(logrus.Fields{"completed": n, "as_of": asOf.Format("2006-01-02")}).Info("completion sweep")
	}
}
