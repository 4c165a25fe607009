package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL purchase-order repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const poColumns = `po_number, vendor_code, order_date, delivery_date, issue_date,
       acknowledgement_date, completion_date, quantity, items, quality_rating, status,
       created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, o *PurchaseOrder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO purchase_orders
		  (po_number, vendor_code, order_date, delivery_date, issue_date,
		   acknowledgement_date, quantity, items, quality_rating, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.PONumber, o.VendorCode, o.OrderDate, o.DeliveryDate, o.IssueDate,
		o.AcknowledgementDate, o.Quantity, o.Items, o.QualityRating, o.Status)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				return fmt.Errorf("%w: %s", ErrDuplicate, o.PONumber)
			case "23503": // foreign_key_violation
				return fmt.Errorf("%w: %s", ErrUnknownVendor, o.VendorCode)
			}
		}
		return fmt.Errorf("insert purchase order: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetByNumber(ctx context.Context, poNumber string) (*PurchaseOrder, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+poColumns+`
		FROM purchase_orders WHERE po_number = $1`, poNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, poNumber)
	}
	return o, err
}

func (r *postgresRepo) List(ctx context.Context, vendorCode string, status string) ([]*PurchaseOrder, error) {
	query := `SELECT ` + poColumns + ` FROM purchase_orders`
	var clauses []string
	var args []interface{}
	if vendorCode != "" {
		args = append(args, vendorCode)
		clauses = append(clauses, fmt.Sprintf("vendor_code = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*PurchaseOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, o *PurchaseOrder) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchase_orders
		SET vendor_code = $1, order_date = $2, delivery_date = $3, issue_date = $4,
		    acknowledgement_date = $5, quantity = $6, items = $7, quality_rating = $8,
		    status = $9, updated_at = now()
		WHERE po_number = $10`,
		o.VendorCode, o.OrderDate, o.DeliveryDate, o.IssueDate,
		o.AcknowledgementDate, o.Quantity, o.Items, o.QualityRating, o.Status, o.PONumber)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("%w: %s", ErrUnknownVendor, o.VendorCode)
		}
		return fmt.Errorf("update purchase order: %w", err)
	}
	return requireRow(res, o.PONumber)
}

func (r *postgresRepo) Delete(ctx context.Context, poNumber string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM purchase_orders WHERE po_number = $1`, poNumber)
	if err != nil {
		return fmt.Errorf("delete purchase order: %w", err)
	}
	return requireRow(res, poNumber)
}

func (r *postgresRepo) Acknowledge(ctx context.Context, poNumber string, ackAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchase_orders SET acknowledgement_date = $1, updated_at = now()
		WHERE po_number = $2`, ackAt, poNumber)
	if err != nil {
		return fmt.Errorf("acknowledge purchase order: %w", err)
	}
	return requireRow(res, poNumber)
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanOrder(row rowScanner) (*PurchaseOrder, error) {
	o := &PurchaseOrder{}
	var ack, completion sql.NullTime
	var rating sql.NullFloat64
	var items []byte
	err := row.Scan(&o.PONumber, &o.VendorCode, &o.OrderDate, &o.DeliveryDate, &o.IssueDate,
		&ack, &completion, &o.Quantity, &items, &rating, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
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
	o.Items = items
	return o, nil
}

func requireRow(res sql.Result, poNumber string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, poNumber)
	}
	return nil
}
