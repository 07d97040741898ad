// Package retry implements C10: the loop that re-fetches incomplete
// stored traces until they finalize or their retry budget is exhausted.
package retry

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"ton-gmp-adapter/queue"
	"ton-gmp-adapter/rpcclient"
	"ton-gmp-adapter/tracestore"
)

// Interval is the fixed poll period.
const Interval = 5 * time.Second

// FetchLimit is the batch size pulled from the trace store each poll.
const FetchLimit = 100

// Subscriber drains tracestore's retry queue, re-fetching each incomplete
// trace from the RPC and forwarding newly-completed ones downstream.
type Subscriber struct {
	Store  *tracestore.Store
	RPC    rpcclient.Client
	Events queue.Queue
	logger *log.Entry
}

// New returns a Subscriber over the given collaborators.
func New(store *tracestore.Store, rpc rpcclient.Client, events queue.Queue) *Subscriber {
	return &Subscriber{Store: store, RPC: rpc, Events: events, logger: log.WithField("component", "retry_subscriber")}
}

// Run polls every Interval until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) {
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// poll runs a single fetch_retry -> re-fetch -> decrease/upsert pass.
func (s *Subscriber) poll(ctx context.Context) {
	rows, err := s.Store.FetchRetry(FetchLimit)
	if err != nil {
		s.logger.WithError(err).Warn("retry_subscriber: fetch_retry failed")
		return
	}

	completed := 0
	stillIncomplete := 0
	for _, row := range rows {
		trace, err := s.RPC.GetTraceByID(ctx, row.TraceID)
		if err != nil {
			s.logger.WithError(err).WithField("trace_id", row.TraceID).Warn("retry_subscriber: re-fetch failed")
			continue
		}

		if trace.IsIncomplete {
			stillIncomplete++
			updated, err := s.Store.DecreaseRetry(row)
			if err != nil {
				s.logger.WithError(err).WithField("trace_id", row.TraceID).Warn("retry_subscriber: decrease_retry failed")
				continue
			}
			if updated.Retries == 1 {
				s.logger.WithField("trace_id", row.TraceID).Warn("retry_subscriber: one retry remaining, trace still incomplete")
			}
			continue
		}

		completed++
		_, changed, err := s.Store.UpsertAndReturnIfChanged(trace)
		if err != nil {
			s.logger.WithError(err).WithField("trace_id", row.TraceID).Warn("retry_subscriber: upsert failed")
			continue
		}
		if !changed {
			continue
		}
		raw, err := json.Marshal(trace)
		if err != nil {
			s.logger.WithError(err).WithField("trace_id", row.TraceID).Warn("retry_subscriber: marshal failed")
			continue
		}
		enveloped, err := queue.Wrap(raw)
		if err != nil {
			s.logger.WithError(err).WithField("trace_id", row.TraceID).Warn("retry_subscriber: envelope failed")
			continue
		}
		if err := s.Events.Publish(ctx, enveloped); err != nil {
			s.logger.WithError(err).WithField("trace_id", row.TraceID).Warn("retry_subscriber: publish failed")
		}
	}

	s.logger.WithField("fetched", len(rows)).
		WithField("completed", completed).
		WithField("still_incomplete", stillIncomplete).
		Info("retry_subscriber: poll complete")
}
