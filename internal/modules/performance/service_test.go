package performance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeStore implements OrderStore, VendorStore and HistoryStore in memory.
type fakeStore struct {
	mu sync.Mutex

	orders  map[string]Order
	vendors map[string]bool

	responseTimes map[string]float64
	metricsWrites map[string]Metrics
	snapshots     map[string]*Snapshot // keyed by vendor|recorded_at
	stampCount    int

	listErr  error
	writeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:        make(map[string]Order),
		vendors:       make(map[string]bool),
		responseTimes: make(map[string]float64),
		metricsWrites: make(map[string]Metrics),
		snapshots:     make(map[string]*Snapshot),
	}
}

func (f *fakeStore) add(o Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.PONumber] = o
	f.vendors[o.VendorCode] = true
}

func (f *fakeStore) ListByVendor(_ context.Context, vendorCode string) ([]Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Order
	for _, o := range f.orders {
		if o.VendorCode == vendorCode {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCompletedByVendor(ctx context.Context, vendorCode string) ([]Order, error) {
	all, err := f.ListByVendor(ctx, vendorCode)
	if err != nil {
		return nil, err
	}
	var out []Order
	for _, o := range all {
		if o.Status == StatusCompleted {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) StampCompletion(_ context.Context, poNumber string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	o, ok := f.orders[poNumber]
	if !ok {
		return errors.New("no such order")
	}
	o.CompletionDate = &completedAt
	f.orders[poNumber] = o
	f.stampCount++
	return nil
}

func (f *fakeStore) Exists(_ context.Context, vendorCode string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vendors[vendorCode], nil
}

func (f *fakeStore) UpsertResponseTime(_ context.Context, vendorCode string, days float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.responseTimes[vendorCode] = days
	return nil
}

func (f *fakeStore) UpsertMetrics(_ context.Context, vendorCode string, m Metrics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.metricsWrites[vendorCode] = m
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, s *Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	key := fmt.Sprintf("%s|%d", s.VendorCode, s.RecordedAt.UnixNano())
	f.snapshots[key] = s
	return nil
}

func (f *fakeStore) ListSnapshots(_ context.Context, vendorCode string) ([]*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Snapshot
	for _, s := range f.snapshots {
		if s.VendorCode == vendorCode {
			out = append(out, s)
		}
	}
	return out, nil
}

func newTestService(store *fakeStore, now func() time.Time) *service {
	return &service{
		orders:  store,
		vendors: store,
		history: store,
		now:     now,
		locks:   make(map[string]*sync.Mutex),
	}
}

func TestOrderSaved_NoTriggerIsNoop(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store, func() time.Time { return base })

	o := Order{PONumber: "PO1", VendorCode: "V1", Status: "PENDING", IssueDate: base}
	store.add(o)
	if err := s.OrderSaved(context.Background(), o, true); err != nil {
		t.Fatalf("OrderSaved: %v", err)
	}
	if len(store.responseTimes) != 0 || len(store.metricsWrites) != 0 || len(store.snapshots) != 0 {
		t.Fatalf("no writes expected for a pending, unacknowledged order")
	}
}

func TestOrderSaved_AcknowledgementUpdatesResponseTimeOnly(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store, func() time.Time { return base })

	done := completedOrder("PO1", base, 43200, base.Add(48*time.Hour), base.Add(24*time.Hour))
	store.add(done)
	ack := Order{
		PONumber:            "PO2",
		VendorCode:          "V1",
		Status:              "PENDING",
		IssueDate:           base,
		AcknowledgementDate: tp(base.Add(time.Hour)),
	}
	store.add(ack)

	if err := s.OrderSaved(context.Background(), ack, false); err != nil {
		t.Fatalf("OrderSaved: %v", err)
	}

	// Only the one COMPLETED order counts: 43200s = 0.5 days.
	if got := store.responseTimes["V1"]; got != 0.5 {
		t.Fatalf("response time = %v, want 0.5", got)
	}
	if len(store.metricsWrites) != 0 {
		t.Fatalf("acknowledgement must not write the full metric set")
	}
	if len(store.snapshots) != 0 {
		t.Fatalf("acknowledgement must not record history")
	}
}

func TestOrderSaved_CompletionWritesAllMetricsAndHistory(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store, func() time.Time { return base.Add(36 * time.Hour) })

	// Saved with status COMPLETED but not yet stamped by the engine.
	o := Order{
		PONumber:            "PO1",
		VendorCode:          "V1",
		Status:              StatusCompleted,
		IssueDate:           base,
		DeliveryDate:        base.Add(48 * time.Hour),
		AcknowledgementDate: tp(base.Add(12 * time.Hour)),
		QualityRating:       fp(4.0),
	}
	store.add(o)
	pending := Order{PONumber: "PO2", VendorCode: "V1", Status: "PENDING", IssueDate: base,
		DeliveryDate: base.Add(48 * time.Hour)}
	store.add(pending)

	if err := s.OrderSaved(context.Background(), o, false); err != nil {
		t.Fatalf("OrderSaved: %v", err)
	}

	if store.stampCount != 1 {
		t.Fatalf("stampCount = %d, want 1", store.stampCount)
	}
	stamped := store.orders["PO1"]
	if stamped.CompletionDate == nil || !stamped.CompletionDate.Equal(base.Add(36*time.Hour)) {
		t.Fatalf("completion_date not stamped with engine time: %v", stamped.CompletionDate)
	}

	m, ok := store.metricsWrites["V1"]
	if !ok {
		t.Fatalf("full metric set not written")
	}
	// 1 completed of 2 orders, completed 36h before its 48h deadline.
	if m.FulfillmentRate != 0.5 {
		t.Fatalf("fulfillment = %v, want 0.5", m.FulfillmentRate)
	}
	if m.OnTimeDeliveryRate != 1.0 {
		t.Fatalf("on-time rate = %v, want 1.0", m.OnTimeDeliveryRate)
	}
	if m.QualityRatingAvg != 4.0 {
		t.Fatalf("quality avg = %v, want 4.0", m.QualityRatingAvg)
	}
	if m.AverageResponseTime != 0.5 {
		t.Fatalf("response time = %v, want 0.5", m.AverageResponseTime)
	}

	if len(store.snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(store.snapshots))
	}
	for _, snap := range store.snapshots {
		if snap.Metrics != m {
			t.Fatalf("snapshot metrics %+v != aggregate write %+v", snap.Metrics, m)
		}
		if !snap.RecordedAt.Equal(base.Add(36 * time.Hour)) {
			t.Fatalf("snapshot recorded_at = %v", snap.RecordedAt)
		}
	}
}

func TestOrderSaved_RepeatedCompletionDoesNotRestamp(t *testing.T) {
	store := newFakeStore()
	clock := base.Add(24 * time.Hour)
	var clockMu sync.Mutex
	s := newTestService(store, func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		clock = clock.Add(time.Minute)
		return clock
	})

	o := Order{
		PONumber:     "PO1",
		VendorCode:   "V1",
		Status:       StatusCompleted,
		IssueDate:    base,
		DeliveryDate: base.Add(48 * time.Hour),
	}
	store.add(o)

	if err := s.OrderSaved(context.Background(), o, false); err != nil {
		t.Fatalf("first OrderSaved: %v", err)
	}
	first := *store.orders["PO1"].CompletionDate

	// A later save of the already-COMPLETED order recomputes but keeps the
	// original completion timestamp.
	resaved := store.orders["PO1"]
	if err := s.OrderSaved(context.Background(), resaved, false); err != nil {
		t.Fatalf("second OrderSaved: %v", err)
	}
	if store.stampCount != 1 {
		t.Fatalf("stampCount = %d, want 1", store.stampCount)
	}
	if !store.orders["PO1"].CompletionDate.Equal(first) {
		t.Fatalf("completion_date moved on repeated save")
	}
	if len(store.snapshots) != 2 {
		t.Fatalf("snapshots = %d, want 2 (one per completion save)", len(store.snapshots))
	}
}

func TestOrderSaved_TwoCompletionsTwoSnapshots(t *testing.T) {
	store := newFakeStore()
	var calls int
	s := newTestService(store, func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Hour)
	})

	for _, po := range []string{"PO1", "PO2"} {
		o := Order{
			PONumber:     po,
			VendorCode:   "V1",
			Status:       StatusCompleted,
			IssueDate:    base,
			DeliveryDate: base.Add(48 * time.Hour),
		}
		store.add(o)
		if err := s.OrderSaved(context.Background(), o, false); err != nil {
			t.Fatalf("OrderSaved(%s): %v", po, err)
		}
	}

	if len(store.snapshots) != 2 {
		t.Fatalf("snapshots = %d, want 2 distinct records", len(store.snapshots))
	}
}

func TestOrderSaved_SameTimestampOverwritesSnapshot(t *testing.T) {
	store := newFakeStore()
	frozen := base.Add(24 * time.Hour)
	s := newTestService(store, func() time.Time { return frozen })

	first := Order{PONumber: "PO1", VendorCode: "V1", Status: StatusCompleted,
		IssueDate: base, DeliveryDate: base.Add(48 * time.Hour)}
	store.add(first)
	if err := s.OrderSaved(context.Background(), first, false); err != nil {
		t.Fatalf("first OrderSaved: %v", err)
	}

	// Second completion resolves to the identical recorded_at; the history
	// write overwrites the existing row instead of failing on the unique
	// (vendor, recorded_at) pair.
	second := Order{PONumber: "PO2", VendorCode: "V1", Status: StatusCompleted,
		IssueDate: base, DeliveryDate: base.Add(time.Hour)}
	store.add(second)
	if err := s.OrderSaved(context.Background(), second, false); err != nil {
		t.Fatalf("second OrderSaved: %v", err)
	}

	if len(store.snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1 (collision overwrites)", len(store.snapshots))
	}
	for _, snap := range store.snapshots {
		if !snap.RecordedAt.Equal(frozen) {
			t.Fatalf("snapshot recorded_at = %v, want %v", snap.RecordedAt, frozen)
		}
		if snap.Metrics != store.metricsWrites["V1"] {
			t.Fatalf("surviving snapshot %+v != latest aggregate %+v", snap.Metrics, store.metricsWrites["V1"])
		}
		// PO2 was stamped past its deadline, so the second computation's
		// values, not the first's, must survive.
		if snap.OnTimeDeliveryRate != 0.5 {
			t.Fatalf("on-time rate = %v, want 0.5", snap.OnTimeDeliveryRate)
		}
	}
}

func TestOrderSaved_StoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store, func() time.Time { return base })

	o := Order{PONumber: "PO1", VendorCode: "V1", Status: StatusCompleted,
		IssueDate: base, DeliveryDate: base.Add(time.Hour)}
	store.add(o)
	store.listErr = errors.New("connection reset")

	err := s.OrderSaved(context.Background(), o, false)
	if err == nil || !errors.Is(err, store.listErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestOrderSaved_ConcurrentCompletionsSameVendor(t *testing.T) {
	store := newFakeStore()
	var clockMu sync.Mutex
	tick := 0
	s := newTestService(store, func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})

	const n = 8
	for i := 0; i < n; i++ {
		store.add(Order{
			PONumber:     fmt.Sprintf("PO%d", i),
			VendorCode:   "V1",
			Status:       StatusCompleted,
			IssueDate:    base,
			DeliveryDate: base.Add(time.Hour),
		})
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, _ := store.ListByVendor(context.Background(), "V1")
			for _, ord := range o {
				if ord.PONumber == fmt.Sprintf("PO%d", i) {
					errs <- s.OrderSaved(context.Background(), ord, false)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("OrderSaved: %v", err)
		}
	}

	// Serialized per vendor: every completion produced its own snapshot and
	// the final aggregate reflects all n completions.
	if len(store.snapshots) != n {
		t.Fatalf("snapshots = %d, want %d", len(store.snapshots), n)
	}
	if got := store.metricsWrites["V1"].FulfillmentRate; got != 1.0 {
		t.Fatalf("final fulfillment = %v, want 1.0", got)
	}
}

func TestVendorHistory(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store, func() time.Time { return base })

	if _, err := s.VendorHistory(context.Background(), "NOPE"); !errors.Is(err, ErrVendorNotFound) {
		t.Fatalf("expected ErrVendorNotFound, got %v", err)
	}

	o := Order{PONumber: "PO1", VendorCode: "V1", Status: StatusCompleted,
		IssueDate: base, DeliveryDate: base.Add(time.Hour)}
	store.add(o)
	if err := s.OrderSaved(context.Background(), o, false); err != nil {
		t.Fatalf("OrderSaved: %v", err)
	}

	snaps, err := s.VendorHistory(context.Background(), "V1")
	if err != nil {
		t.Fatalf("VendorHistory: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("history = %d records, want 1", len(snaps))
	}
}
