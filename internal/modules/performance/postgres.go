package performance

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore implements OrderStore, VendorStore and HistoryStore against
// the shared schema. It reads the purchase_orders table and writes the
// vendors and historical_performance tables directly; the CRUD modules own
// the rest of those tables' lifecycles.
type PostgresStore struct{ db *sql.DB }

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

const orderColumns = `po_number, vendor_code, status, delivery_date, issue_date,
       acknowledgement_date, completion_date, quality_rating`

func (s *PostgresStore) ListByVendor(ctx context.Context, vendorCode string) ([]Order, error) {
	return s.queryOrders(ctx, `
		SELECT `+orderColumns+`
		FROM purchase_orders WHERE vendor_code = $1`, vendorCode)
}

func (s *PostgresStore) ListCompletedByVendor(ctx context.Context, vendorCode string) ([]Order, error) {
	return s.queryOrders(ctx, `
		SELECT `+orderColumns+`
		FROM purchase_orders WHERE vendor_code = $1 AND status = $2`, vendorCode, StatusCompleted)
}

func (s *PostgresStore) StampCompletion(ctx context.Context, poNumber string, completedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE purchase_orders SET completion_date = $1, updated_at = now()
		WHERE po_number = $2`, completedAt, poNumber)
	if err != nil {
		return fmt.Errorf("stamp completion_date: %w", err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, vendorCode string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM vendors WHERE vendor_code = $1)`, vendorCode).Scan(&exists)
	return exists, err
}

// UpsertResponseTime creates the vendor row if absent and overwrites only
// average_response_time, leaving the other three metrics untouched.
func (s *PostgresStore) UpsertResponseTime(ctx context.Context, vendorCode string, days float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vendors (vendor_code, name, average_response_time)
		VALUES ($1, $1, $2)
		ON CONFLICT (vendor_code) DO UPDATE
		SET average_response_time = EXCLUDED.average_response_time,
		    updated_at = now()`, vendorCode, days)
	if err != nil {
		return fmt.Errorf("upsert response time: %w", err)
	}
	return nil
}

// UpsertMetrics creates the vendor row if absent and overwrites all four
// metric fields.
func (s *PostgresStore) UpsertMetrics(ctx context.Context, vendorCode string, m Metrics) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vendors
		  (vendor_code, name, on_time_delivery_rate, quality_rating_avg,
		   average_response_time, fulfillment_rate)
		VALUES ($1, $1, $2, $3, $4, $5)
		ON CONFLICT (vendor_code) DO UPDATE
		SET on_time_delivery_rate = EXCLUDED.on_time_delivery_rate,
		    quality_rating_avg    = EXCLUDED.quality_rating_avg,
		    average_response_time = EXCLUDED.average_response_time,
		    fulfillment_rate      = EXCLUDED.fulfillment_rate,
		    updated_at            = now()`,
		vendorCode, m.OnTimeDeliveryRate, m.QualityRatingAvg, m.AverageResponseTime, m.FulfillmentRate)
	if err != nil {
		return fmt.Errorf("upsert metrics: %w", err)
	}
	return nil
}

// Upsert appends a snapshot; an exact (vendor, recorded_at) collision
// overwrites the four values instead of failing the unique constraint.
func (s *PostgresStore) Upsert(ctx context.Context, snap *Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO historical_performance
		  (id, vendor_code, recorded_at, on_time_delivery_rate, quality_rating_avg,
		   average_response_time, fulfillment_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (vendor_code, recorded_at) DO UPDATE
		SET on_time_delivery_rate = EXCLUDED.on_time_delivery_rate,
		    quality_rating_avg    = EXCLUDED.quality_rating_avg,
		    average_response_time = EXCLUDED.average_response_time,
		    fulfillment_rate      = EXCLUDED.fulfillment_rate`,
		snap.ID, snap.VendorCode, snap.RecordedAt,
		snap.OnTimeDeliveryRate, snap.QualityRatingAvg, snap.AverageResponseTime, snap.FulfillmentRate)
	if err != nil {
		return fmt.Errorf("upsert history: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, vendorCode string) ([]*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vendor_code, recorded_at, on_time_delivery_rate, quality_rating_avg,
		       average_response_time, fulfillment_rate
		FROM historical_performance
		WHERE vendor_code = $1
		ORDER BY recorded_at DESC`, vendorCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		if err := rows.Scan(&snap.ID, &snap.VendorCode, &snap.RecordedAt,
			&snap.OnTimeDeliveryRate, &snap.QualityRatingAvg,
			&snap.AverageResponseTime, &snap.FulfillmentRate); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (s *PostgresStore) queryOrders(ctx context.Context, query string, args ...interface{}) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		var ack, completion sql.NullTime
		var rating sql.NullFloat64
		if err := rows.Scan(&o.PONumber, &o.VendorCode, &o.Status,
			&o.DeliveryDate, &o.IssueDate, &ack, &completion, &rating); err != nil {
			return nil, err
		}
		if ack.Valid {
			t := ack.Time
			o.AcknowledgementDate = &t
		}
		if completion.Valid {
			t := completion.Time
			o.CompletionDate = &t
		}
		if rating.Valid {
			v := rating.Float64
			o.QualityRating = &v
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
