package triage

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"flood-rescue/db"
)

// Dispatcher watches the case feed and hands eligible cases to the
// Analyzer. Eligibility is re-checked against the authoritative document
// at dispatch time, never trusted from the event payload: the feed is
// at-least-once and snapshots can be stale. That re-check is the
// system's idempotency guard; it is best-effort, and a duplicate
// dispatch that slips through merely rewrites the same result.
type Dispatcher struct {
	store    db.CaseStore
	analyzer *Analyzer
	log      *logrus.Entry

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewDispatcher(store db.CaseStore, analyzer *Analyzer) *Dispatcher {
	return &Dispatcher{
		store:    store,
		analyzer: analyzer,
		log:      logrus.WithField("component", "dispatcher"),
		inFlight: make(map[string]bool),
	}
}

// Run blocks on the change feed until ctx is done. Every dispatch runs
// in its own goroutine so one slow model call never delays delivery of
// the next event. Only "added" events matter here; modified/removed are
// for UI consumers.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info("listening for new cases")
	return d.store.Subscribe(ctx, func(ev db.CaseEvent) {
		if ev.Type != db.EventAdded {
			return
		}
		go d.Dispatch(ctx, ev.ID)
	})
}

// begin claims the case for this process so a redelivered event does not
// start a second concurrent model call while the first is in flight.
func (d *Dispatcher) begin(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight[id] {
		return false
	}
	d.inFlight[id] = true
	return true
}

func (d *Dispatcher) end(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inFlight, id)
}

// Dispatch re-reads the case and analyzes it iff it is still waiting and
// has no triage result. Failures are logged and dropped; the next
// redelivery or sweep retries. One bad event must never take the feed
// loop down.
func (d *Dispatcher) Dispatch(ctx context.Context, id string) {
	if !d.begin(id) {
		return
	}
	defer d.end(id)

	log := d.log.WithField("case", id)

	c, err := d.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return
		}
		log.WithError(err).Warn("re-read failed, skipping event")
		return
	}
	if !c.TriageEligible() {
		return
	}

	log.WithField("name", c.Name).Info("new case, analyzing")
	_, err = d.analyzer.Analyze(ctx, c)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoPhoto):
		log.Info("no photo, skipping analysis")
	case errors.Is(err, ErrMalformedResponse):
		log.WithError(err).Warn("unparseable model output, case left unanalyzed")
	default:
		log.WithError(err).Error("triage failed")
	}
}

// Sweep scans the whole collection for waiting, unanalyzed cases and
// dispatches them through the same guard path. It catches feed events
// lost while the worker was down.
func (d *Dispatcher) Sweep(ctx context.Context) {
	cases, err := d.store.List(ctx)
	if err != nil {
		d.log.WithError(err).Warn("sweep: listing cases failed")
		return
	}

	n := 0
	for _, c := range cases {
		if c.TriageEligible() {
			d.Dispatch(ctx, c.ID)
			n++
		}
	}
	if n > 0 {
		d.log.WithField("dispatched", n).Info("sweep complete")
	}
}
