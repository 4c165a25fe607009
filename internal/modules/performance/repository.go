package performance

import (
	"context"
	"time"
)

// OrderStore is the engine's read/stamp access to purchase orders.
type OrderStore interface {
	// ListByVendor returns every order for a vendor, any status.
	ListByVendor(ctx context.Context, vendorCode string) ([]Order, error)

	// ListCompletedByVendor returns the vendor's COMPLETED orders.
	ListCompletedByVendor(ctx context.Context, vendorCode string) ([]Order, error)

	// StampCompletion persists the engine-assigned completion timestamp on an order.
	StampCompletion(ctx context.Context, poNumber string, completedAt time.Time) error
}

// VendorStore writes recomputed metrics onto the vendor aggregate row,
// creating the row if it does not exist.
type VendorStore interface {
	Exists(ctx context.Context, vendorCode string) (bool, error)

	// UpsertResponseTime overwrites only average_response_time (acknowledgement trigger).
	UpsertResponseTime(ctx context.Context, vendorCode string, days float64) error

	// UpsertMetrics overwrites all four metric fields (completion trigger).
	UpsertMetrics(ctx context.Context, vendorCode string, m Metrics) error
}

// HistoryStore persists historical performance snapshots.
type HistoryStore interface {
	// Upsert inserts the snapshot, or overwrites the four metric values if a
	// record already exists for the same (vendor, recorded_at) pair.
	Upsert(ctx context.Context, s *Snapshot) error

	// ListSnapshots returns a vendor's snapshots, newest first.
	ListSnapshots(ctx context.Context, vendorCode string) ([]*Snapshot, error)
}
