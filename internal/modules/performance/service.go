package performance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ksreyansh/vendor-management-system/internal/metrics"
)

const (
	triggerAcknowledgement = "acknowledgement"
	triggerCompletion      = "completion"
)

// Service is the vendor performance metrics engine. OrderSaved is the
// post-save hook the order module invokes synchronously after every
// successful purchase-order write; the caller must treat a hook error as a
// failure of the whole mutation. The order row itself is already committed
// by the time the hook runs, so a hook failure leaves the vendor aggregate
// and history eventually consistent with the order table, not
// transactionally consistent.
type Service interface {
	OrderSaved(ctx context.Context, o Order, created bool) error
	VendorHistory(ctx context.Context, vendorCode string) ([]*Snapshot, error)
}

type service struct {
	orders  OrderStore
	vendors VendorStore
	history HistoryStore
	reg     *metrics.Registry
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates the metrics engine. reg may be nil to disable
// instrumentation.
func NewService(orders OrderStore, vendors VendorStore, history HistoryStore, reg *metrics.Registry) Service {
	return &service{
		orders:  orders,
		vendors: vendors,
		history: history,
		reg:     reg,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// OrderSaved inspects a freshly persisted order and runs the recomputations
// it warrants: the acknowledgement trigger (order carries an acknowledgement
// date) refreshes only the vendor's average response time; the completion
// trigger (status is COMPLETED, on every such save, not just the first)
// stamps the completion date and refreshes all four metrics plus history.
func (s *service) OrderSaved(ctx context.Context, o Order, created bool) error {
	acknowledged := o.AcknowledgementDate != nil
	completed := o.Status == StatusCompleted
	if !acknowledged && !completed {
		return nil
	}

	// Serialize read-compute-write per vendor so two near-simultaneous
	// completions for the same vendor cannot overwrite each other with
	// values computed from stale reads.
	lock := s.vendorLock(o.VendorCode)
	lock.Lock()
	defer lock.Unlock()

	if acknowledged {
		if err := s.recomputeResponseTime(ctx, o.VendorCode); err != nil {
			return err
		}
	}
	if completed {
		if err := s.recomputeAll(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

// VendorHistory returns the vendor's historical snapshots, newest first.
func (s *service) VendorHistory(ctx context.Context, vendorCode string) ([]*Snapshot, error) {
	ok, err := s.vendors.Exists(ctx, vendorCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVendorNotFound
	}
	return s.history.ListSnapshots(ctx, vendorCode)
}

func (s *service) recomputeResponseTime(ctx context.Context, vendorCode string) error {
	start := time.Now()
	completed, err := s.orders.ListCompletedByVendor(ctx, vendorCode)
	if err != nil {
		s.fail(triggerAcknowledgement)
		return fmt.Errorf("list completed orders for %s: %w", vendorCode, err)
	}
	if err := s.vendors.UpsertResponseTime(ctx, vendorCode, AverageResponseTime(completed)); err != nil {
		s.fail(triggerAcknowledgement)
		return fmt.Errorf("update response time for %s: %w", vendorCode, err)
	}
	s.done(triggerAcknowledgement, start)
	return nil
}

func (s *service) recomputeAll(ctx context.Context, o Order) error {
	start := time.Now()
	now := s.now().UTC()

	// Stamp the engine-assigned completion timestamp once. The original
	// behaviour restamped on every repeated COMPLETED save, silently
	// advancing the completion date; stamping only while unset keeps
	// repeated saves idempotent. Recomputation still runs every time.
	if o.CompletionDate == nil {
		if err := s.orders.StampCompletion(ctx, o.PONumber, now); err != nil {
			s.fail(triggerCompletion)
			return fmt.Errorf("stamp completion on %s: %w", o.PONumber, err)
		}
		o.CompletionDate = &now
	}

	completed, err := s.orders.ListCompletedByVendor(ctx, o.VendorCode)
	if err != nil {
		s.fail(triggerCompletion)
		return fmt.Errorf("list completed orders for %s: %w", o.VendorCode, err)
	}
	all, err := s.orders.ListByVendor(ctx, o.VendorCode)
	if err != nil {
		s.fail(triggerCompletion)
		return fmt.Errorf("list orders for %s: %w", o.VendorCode, err)
	}

	// Full recompute from scratch on every completion; cost grows with the
	// vendor's total order count, which is acceptable at this scale.
	m := Metrics{
		OnTimeDeliveryRate:  OnTimeDeliveryRate(completed),
		QualityRatingAvg:    QualityRatingAverage(all),
		AverageResponseTime: AverageResponseTime(completed),
		FulfillmentRate:     FulfillmentRate(all),
	}

	if err := s.vendors.UpsertMetrics(ctx, o.VendorCode, m); err != nil {
		s.fail(triggerCompletion)
		return fmt.Errorf("update metrics for %s: %w", o.VendorCode, err)
	}

	snap := &Snapshot{
		ID:         uuid.New(),
		VendorCode: o.VendorCode,
		RecordedAt: now,
		Metrics:    m,
	}
	if err := s.history.Upsert(ctx, snap); err != nil {
		s.fail(triggerCompletion)
		return fmt.Errorf("record history for %s: %w", o.VendorCode, err)
	}
	if s.reg != nil {
		s.reg.HistoryRecorded.Inc()
	}

	s.done(triggerCompletion, start)
	return nil
}

func (s *service) vendorLock(vendorCode string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[vendorCode]
	if !ok {
		l = &sync.Mutex{}
		s.locks[vendorCode] = l
	}
	return l
}

func (s *service) done(trigger string, start time.Time) {
	if s.reg == nil {
		return
	}
	s.reg.Recomputes.WithLabelValues(trigger).Inc()
	s.reg.RecomputeSeconds.Observe(time.Since(start).Seconds())
}

func (s *service) fail(trigger string) {
	if s.reg == nil {
		return
	}
	s.reg.RecomputeFailures.WithLabelValues(trigger).Inc()
}
