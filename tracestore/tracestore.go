// Package tracestore implements C8: change-detecting persistence for
// traces, and the retry queue the Retry Subscriber drains.
package tracestore

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"ton-gmp-adapter/chain"
	"ton-gmp-adapter/pkg/tonerr"
	"ton-gmp-adapter/rowstore"
)

// InitialRetries is the retry budget a freshly inserted row starts with.
const InitialRetries = 5

// Row is the persisted StoredTrace record.
type Row struct {
	TraceID      string
	IsIncomplete bool
	StartLT      string
	EndLT        string
	Retries      int
	Transactions []chain.Transaction
	CreatedAt    time.Time
	UpdatedAt    time.Time
	HasUpdatedAt bool // false mimics SQL NULL, for fetch_retry's NULLS FIRST ordering
}

// RowKey satisfies rowstore.Row.
func (r Row) RowKey() string { return r.TraceID }

// Clock is injected for deterministic tests.
type Clock func() time.Time

// Store mediates change-detecting persistence and the retry queue over a
// generic row store.
type Store struct {
	rows rowstore.Store[Row]
	now  Clock
}

// New returns a Store backed by rows, using the real wall clock.
func New(rows rowstore.Store[Row]) *Store {
	return &Store{rows: rows, now: time.Now}
}

// NewWithClock is New with an injected clock, for tests.
func NewWithClock(rows rowstore.Store[Row], now Clock) *Store {
	return &Store{rows: rows, now: now}
}

func transactionsEqual(a, b []chain.Transaction) bool {
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return string(ab) == string(bb)
}

// UpsertAndReturnIfChanged inserts trace if absent, or updates the existing
// row if is_incomplete, start_lt, end_lt or transactions differ. It returns
// (row, true) on insert or meaningful change, and (existing, false) when the
// trace is semantically identical to what is already stored, so that only
// semantically changed rows advance downstream work.
func (s *Store) UpsertAndReturnIfChanged(trace chain.Trace) (Row, bool, error) {
	now := s.now()
	existing, found, err := s.rows.Find(trace.TraceID)
	if err != nil {
		return Row{}, false, fmt.Errorf("%w: %v", tonerr.ErrDatabase, err)
	}

	if !found {
		row := Row{
			TraceID:      trace.TraceID,
			IsIncomplete: trace.IsIncomplete,
			StartLT:      trace.StartLT,
			EndLT:        trace.EndLT,
			Retries:      InitialRetries,
			Transactions: trace.Transactions,
			CreatedAt:    now,
			UpdatedAt:    now,
			HasUpdatedAt: true,
		}
		if err := s.rows.Upsert(row); err != nil {
			return Row{}, false, fmt.Errorf("%w: %v", tonerr.ErrDatabase, err)
		}
		return row, true, nil
	}

	changed := existing.IsIncomplete != trace.IsIncomplete ||
		existing.StartLT != trace.StartLT ||
		existing.EndLT != trace.EndLT ||
		!transactionsEqual(existing.Transactions, trace.Transactions)
	if !changed {
		return existing, false, nil
	}

	existing.IsIncomplete = trace.IsIncomplete
	existing.StartLT = trace.StartLT
	existing.EndLT = trace.EndLT
	existing.Transactions = trace.Transactions
	existing.UpdatedAt = now
	existing.HasUpdatedAt = true
	if err := s.rows.Upsert(existing); err != nil {
		return Row{}, false, fmt.Errorf("%w: %v", tonerr.ErrDatabase, err)
	}
	return existing, true, nil
}

// FetchRetry returns up to limit rows with retries > 0 and is_incomplete,
// ordered by updated_at with rows that have never been touched (NULL)
// first.
func (s *Store) FetchRetry(limit int) ([]Row, error) {
	rows, err := s.rows.FindAll(func(r Row) bool {
		return r.Retries > 0 && r.IsIncomplete
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tonerr.ErrDatabase, err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.HasUpdatedAt != b.HasUpdatedAt {
			return !a.HasUpdatedAt // nulls first
		}
		if !a.HasUpdatedAt {
			return false
		}
		return a.UpdatedAt.Before(b.UpdatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// DecreaseRetry decrements row's retry count, floored at zero, and
// persists it.
func (s *Store) DecreaseRetry(row Row) (Row, error) {
	if row.Retries > 0 {
		row.Retries--
	}
	if err := s.rows.Upsert(row); err != nil {
		return Row{}, fmt.Errorf("%w: %v", tonerr.ErrDatabase, err)
	}
	return row, nil
}
