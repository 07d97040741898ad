package queryid

import (
	"testing"
	"time"

	"ton-gmp-adapter/rowstore"
)

func newReservations(base time.Time) (*Reservations, *time.Time) {
	now := base
	store := rowstore.NewInMemory[Row]()
	r := NewWithClock(store, func() time.Time { return now })
	return r, &now
}

func TestNextLifecycle(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	r, now := newReservations(base)

	resA1, err := r.Next("A", 60)
	if err != nil || resA1 != (Reservation{Shift: 0, Bitnumber: 0}) {
		t.Fatalf("next(A) #1: %+v %v", resA1, err)
	}
	rowA, found, _ := r.store.Find("A")
	if !found {
		t.Fatalf("row A not found")
	}
	wantExpiry := base.Add(180 * time.Second)
	if !rowA.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires_at = %v, want %v", rowA.ExpiresAt, wantExpiry)
	}

	resB1, err := r.Next("B", 60)
	if err != nil || resB1 != (Reservation{Shift: 0, Bitnumber: 0}) {
		t.Fatalf("next(B) #1: %+v %v", resB1, err)
	}

	resA2, err := r.Next("A", 60)
	if err != nil || resA2 != (Reservation{Shift: 0, Bitnumber: 1}) {
		t.Fatalf("next(A) #2: %+v %v", resA2, err)
	}
	rowA2, _, _ := r.store.Find("A")
	if !rowA2.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires_at not preserved on advance: %v, want %v", rowA2.ExpiresAt, wantExpiry)
	}

	resC1, err := r.Next("C", 0)
	if err != nil || resC1 != (Reservation{Shift: 0, Bitnumber: 0}) {
		t.Fatalf("next(C, timeout=0) #1: %+v %v", resC1, err)
	}
	rowC, _, _ := r.store.Find("C")
	if !rowC.ExpiresAt.Equal(base) {
		t.Fatalf("next(C) expires_at = %v, want %v (now+0)", rowC.ExpiresAt, base)
	}

	*now = base.Add(time.Second)
	resC2, err := r.Next("C", 0)
	if err != nil || resC2 != (Reservation{Shift: 0, Bitnumber: 0}) {
		t.Fatalf("next(C) #2 after expiry: %+v %v", resC2, err)
	}
	rowC2, _, _ := r.store.Find("C")
	if !rowC2.ExpiresAt.Equal(*now) {
		t.Fatalf("next(C) #2 expires_at = %v, want refreshed to %v", rowC2.ExpiresAt, *now)
	}
}

func TestBitnumberCarriesIntoShift(t *testing.T) {
	r, _ := newReservations(time.Unix(0, 0))
	_, _ = r.Next("W", 60)
	row, _, _ := r.store.Find("W")
	row.Bitnumber = MaxBitnumber
	_ = r.store.Upsert(row)

	res, err := r.Next("W", 60)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if res.Shift != 1 || res.Bitnumber != 0 {
		t.Fatalf("got %+v, want shift=1 bitnumber=0", res)
	}
}

func TestShiftOverflow(t *testing.T) {
	r, _ := newReservations(time.Unix(0, 0))
	_, _ = r.Next("W", 60)
	row, _, _ := r.store.Find("W")
	row.Shift = MaxShift
	row.Bitnumber = MaxBitnumber
	_ = r.store.Upsert(row)

	if _, err := r.Next("W", 60); err == nil {
		t.Fatalf("expected ErrShiftOverflow, got nil")
	}
}

func TestEmergencyOverload(t *testing.T) {
	r, _ := newReservations(time.Unix(0, 0))
	_, _ = r.Next("W", 60)
	row, _, _ := r.store.Find("W")
	row.Shift = 8191
	row.Bitnumber = 1020
	_ = r.store.Upsert(row)

	if _, err := r.Next("W", 60); err == nil {
		t.Fatalf("expected ErrEmergencyOverload, got nil")
	}
}
