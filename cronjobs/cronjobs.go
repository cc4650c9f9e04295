package cronjobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"flood-rescue/triage"
)

// Init schedules the periodic triage sweep. The change feed is the
// primary trigger for analysis; the sweep picks up waiting cases whose
// "added" event was lost while the worker was down.
func Init(dispatcher *triage.Dispatcher) *cron.Cron {
	log := logrus.WithField("component", "cron")
	log.Info("starting cron jobs")

	c := cron.New()

	// Triage sweep: every 10 minutes.
	_, err := c.AddFunc("*/10 * * * *", func() {
		log.Info("cron: triage sweep running")
		dispatcher.Sweep(context.Background())
	})
	if err != nil {
		log.WithError(err).Error("failed to schedule triage sweep")
	}

	c.Start()
	return c
}
