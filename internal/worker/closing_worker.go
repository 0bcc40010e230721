package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"foodpos/internal/metrics"
	"foodpos/internal/model"
)

type DayCloser interface {
	Close(ctx context.Context, day time.Time) (*model.DailyClosing, error)
}

// ClosingWorker stores the daily closing on a cron schedule.
type ClosingWorker struct {
	reports  DayCloser
	schedule cron.Schedule
	spec     string
	timeout  time.Duration
	now      func() time.Time
	log      logrus.FieldLogger
}

func NewClosingWorker(reports DayCloser, spec string, log logrus.FieldLogger) (*ClosingWorker, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse closing schedule %q: %w", spec, err)
	}
	return &ClosingWorker{
		reports:  reports,
		schedule: schedule,
		spec:     spec,
		timeout:  time.Minute,
		now:      time.Now,
		log:      log.WithField("worker", "closing"),
	}, nil
}

// Start blocks until ctx is cancelled and waits for a running job to finish.
func (w *ClosingWorker) Start(ctx context.Context) {
	c := cron.New()
	c.Schedule(w.schedule, cron.FuncJob(func() { w.run(ctx) }))

	w.log.WithField("schedule", w.spec).Info("starting closing worker")
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	w.log.Info("closing worker stopped")
}

func (w *ClosingWorker) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	closing, err := w.reports.Close(ctx, w.now())
	metrics.RecordClosing(err == nil)
	if err != nil {
		w.log.WithError(err).Error("daily closing failed")
		return
	}

	w.log.WithFields(logrus.Fields{
		"day":        closing.Day.Format("2006-01-02"),
		"revenue":    closing.Revenue,
		"net_profit": closing.NetProfit,
	}).Info("daily closing stored")
}
