package order

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no purchase order matches the PO number.
	ErrNotFound = errors.New("purchase order not found")
	// ErrDuplicate is returned when a PO number is already taken.
	ErrDuplicate = errors.New("purchase order already exists")
	// ErrUnknownVendor is returned when the referenced vendor does not exist.
	ErrUnknownVendor = errors.New("vendor does not exist")
)

// Repository defines data access for purchase orders.
type Repository interface {
	// Create persists a new purchase order.
	Create(ctx context.Context, o *PurchaseOrder) error

	// GetByNumber retrieves an order by PO number.
	GetByNumber(ctx context.Context, poNumber string) (*PurchaseOrder, error)

	// List returns all orders, optionally filtered by vendor and/or status.
	List(ctx context.Context, vendorCode string, status string) ([]*PurchaseOrder, error)

	// Update overwrites the mutable fields of an existing order.
	Update(ctx context.Context, o *PurchaseOrder) error

	// Delete removes an order by PO number.
	Delete(ctx context.Context, poNumber string) error

	// Acknowledge records the acknowledgement timestamp on an order.
	Acknowledge(ctx context.Context, poNumber string, ackAt time.Time) error
}
