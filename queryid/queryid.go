// Package queryid implements C2: a persistent, monotonic (shift, bitnumber)
// reservation per wallet, guaranteeing replay protection for high-load
// wallet query ids across process restarts.
package queryid

import (
	"fmt"
	"time"

	"ton-gmp-adapter/pkg/tonerr"
	"ton-gmp-adapter/rowstore"
)

// MaxShift and MaxBitnumber are the field widths the high-load wallet
// contract imposes (13-bit shift, 10-bit bitnumber with one slot of
// headroom reserved to detect emergency overload).
const (
	MaxShift         = 8191
	MaxBitnumber     = 1022
	emergencyShift   = 8191
	emergencyBit     = 1021
	ttlMultiplier    = 3
)

// Row is the persisted WalletQueryId record.
type Row struct {
	Address    string
	Shift      int
	Bitnumber  int
	ExpiresAt  time.Time
	UpdatedAt  time.Time
}

// RowKey satisfies rowstore.Row.
func (r Row) RowKey() string { return r.Address }

// Reservation is a reserved (shift, bitnumber) pair.
type Reservation struct {
	Shift     int
	Bitnumber int
}

// QueryID packs the reservation into the wire-level query id
// (shift<<10 | bitnumber).
func (r Reservation) QueryID() uint64 {
	return uint64(r.Shift)<<10 | uint64(r.Bitnumber)
}

// HasNext reports false only when the reservation is at shift MaxShift with
// bitnumber 1021 or above. It does not look ahead: at (MaxShift, 1020) it
// reports true although the next Next call returns EmergencyOverload.
func (r Reservation) HasNext() bool {
	return !(r.Bitnumber >= 1021 && r.Shift == MaxShift)
}

// Clock is injected for deterministic tests.
type Clock func() time.Time

// Store persists WalletQueryId rows.
type Store = rowstore.Store[Row]

// Reservations issues monotonic query-id reservations per wallet address.
type Reservations struct {
	store rowstore.Store[Row]
	now   Clock
}

// New returns a Reservations backed by store.
func New(store rowstore.Store[Row]) *Reservations {
	return &Reservations{store: store, now: time.Now}
}

// NewWithClock is New with an injected clock, for tests.
func NewWithClock(store rowstore.Store[Row], now Clock) *Reservations {
	return &Reservations{store: store, now: now}
}

// Next reserves and returns the next (shift, bitnumber) for address,
// resetting to (0,0) with a fresh 3*timeout TTL when the row is missing or
// expired (invariants 3-4).
func (r *Reservations) Next(address string, timeoutS uint64) (Reservation, error) {
	now := r.now()
	row, found, err := r.store.Find(address)
	if err != nil {
		return Reservation{}, fmt.Errorf("%w: %v", tonerr.ErrDatabase, err)
	}

	if !found || now.After(row.ExpiresAt) || now.Equal(row.ExpiresAt) {
		reset := Row{
			Address:   address,
			Shift:     0,
			Bitnumber: 0,
			ExpiresAt: now.Add(time.Duration(ttlMultiplier) * time.Duration(timeoutS) * time.Second),
			UpdatedAt: now,
		}
		if err := r.store.Upsert(reset); err != nil {
			return Reservation{}, fmt.Errorf("%w: %v", tonerr.ErrDatabase, err)
		}
		return Reservation{Shift: 0, Bitnumber: 0}, nil
	}

	shift, bitnumber := row.Shift, row.Bitnumber
	bitnumber++
	if bitnumber > MaxBitnumber {
		bitnumber = 0
		shift++
	}
	if shift > MaxShift {
		return Reservation{}, fmt.Errorf("%w: wallet %s", tonerr.ErrShiftOverflow, address)
	}
	if shift == emergencyShift && bitnumber == emergencyBit {
		return Reservation{}, fmt.Errorf("%w: wallet %s", tonerr.ErrEmergencyOverload, address)
	}
	if shift < 0 || shift > MaxShift {
		return Reservation{}, fmt.Errorf("%w: shift %d", tonerr.ErrInvalidShift, shift)
	}
	if bitnumber < 0 || bitnumber > MaxBitnumber {
		return Reservation{}, fmt.Errorf("%w: bitnumber %d", tonerr.ErrInvalidBitnumber, bitnumber)
	}

	row.Shift = shift
	row.Bitnumber = bitnumber
	row.UpdatedAt = now
	// expires_at is preserved: only the reset branch above touches it.
	if err := r.store.Upsert(row); err != nil {
		return Reservation{}, fmt.Errorf("%w: %v", tonerr.ErrDatabase, err)
	}
	return Reservation{Shift: shift, Bitnumber: bitnumber}, nil
}
