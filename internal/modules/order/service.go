package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ksreyansh/vendor-management-system/internal/modules/performance"
)

// ErrInvalid wraps all request-validation failures.
var ErrInvalid = errors.New("invalid purchase order")

// PerformanceHook is invoked synchronously after every successful
// purchase-order write with the saved order's current field values. A hook
// error fails the enclosing mutation; the order row itself is already
// committed and is not rolled back.
type PerformanceHook interface {
	OrderSaved(ctx context.Context, o performance.Order, created bool) error
}

// Service defines the purchase-order business logic.
type Service interface {
	// CreateOrder validates and persists a new purchase order.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*PurchaseOrder, error)

	// GetOrder retrieves an order by PO number.
	GetOrder(ctx context.Context, poNumber string) (*PurchaseOrder, error)

	// ListOrders returns orders, optionally filtered by vendor and/or status.
	ListOrders(ctx context.Context, vendorCode string, status string) ([]*PurchaseOrder, error)

	// UpdateOrder applies a full update to an existing order.
	UpdateOrder(ctx context.Context, poNumber string, req UpdateOrderRequest) (*PurchaseOrder, error)

	// DeleteOrder removes an order.
	DeleteOrder(ctx context.Context, poNumber string) error

	// AcknowledgeOrder records the vendor's acknowledgement of an order.
	AcknowledgeOrder(ctx context.Context, poNumber string) (*PurchaseOrder, error)
}

type service struct {
	repo Repository
	perf PerformanceHook
	now  func() time.Time
}

// NewService creates a new purchase-order service.
func NewService(repo Repository, perf PerformanceHook) Service {
	return &service{repo: repo, perf: perf, now: time.Now}
}

func (s *service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*PurchaseOrder, error) {
	status := Status(strings.ToUpper(req.Status))
	if status == "" {
		status = StatusPending
	}
	o := &PurchaseOrder{
		PONumber:      strings.TrimSpace(req.PONumber),
		VendorCode:    strings.TrimSpace(req.VendorCode),
		OrderDate:     req.OrderDate,
		DeliveryDate:  req.DeliveryDate,
		IssueDate:     req.IssueDate,
		Quantity:      req.Quantity,
		Items:         req.Items,
		QualityRating: req.QualityRating,
		Status:        status,
	}
	if len(o.Items) == 0 {
		o.Items = json.RawMessage(`[]`)
	}
	if err := validateOrder(o); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	if err := s.perf.OrderSaved(ctx, performanceView(o), true); err != nil {
		return nil, fmt.Errorf("recompute vendor metrics: %w", err)
	}
	// Re-read so an engine-stamped completion_date shows up in the response.
	return s.repo.GetByNumber(ctx, o.PONumber)
}

func (s *service) GetOrder(ctx context.Context, poNumber string) (*PurchaseOrder, error) {
	return s.repo.GetByNumber(ctx, poNumber)
}

func (s *service) ListOrders(ctx context.Context, vendorCode string, status string) ([]*PurchaseOrder, error) {
	return s.repo.List(ctx, vendorCode, strings.ToUpper(status))
}

func (s *service) UpdateOrder(ctx context.Context, poNumber string, req UpdateOrderRequest) (*PurchaseOrder, error) {
	o, err := s.repo.GetByNumber(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	prev := performanceView(o)

	o.VendorCode = strings.TrimSpace(req.VendorCode)
	o.OrderDate = req.OrderDate
	o.DeliveryDate = req.DeliveryDate
	o.IssueDate = req.IssueDate
	o.Quantity = req.Quantity
	o.QualityRating = req.QualityRating
	o.Status = Status(strings.ToUpper(req.Status))
	if len(req.Items) > 0 {
		o.Items = req.Items
	}
	// Acknowledgement is set once and never cleared or moved.
	if o.AcknowledgementDate == nil {
		o.AcknowledgementDate = req.AcknowledgementDate
	}
	if err := validateOrder(o); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	if err := s.perf.OrderSaved(ctx, performanceView(o), false); err != nil {
		return nil, fmt.Errorf("recompute vendor metrics: %w", err)
	}
	// Reassigning the order to another vendor leaves the previous vendor's
	// aggregates computed over an order it no longer owns; replay the order's
	// old view so that vendor is refreshed too.
	if prev.VendorCode != o.VendorCode {
		if err := s.perf.OrderSaved(ctx, prev, false); err != nil {
			return nil, fmt.Errorf("recompute previous vendor metrics: %w", err)
		}
	}
	return s.repo.GetByNumber(ctx, poNumber)
}

func (s *service) DeleteOrder(ctx context.Context, poNumber string) error {
	return s.repo.Delete(ctx, poNumber)
}

// AcknowledgeOrder stamps the acknowledgement date if it is not already set,
// then triggers the response-time recomputation. Re-acknowledging an order
// never moves the original timestamp but still refreshes the metric.
func (s *service) AcknowledgeOrder(ctx context.Context, poNumber string) (*PurchaseOrder, error) {
	o, err := s.repo.GetByNumber(ctx, poNumber)
	if err != nil {
		return nil, err
	}

	if o.AcknowledgementDate == nil {
		ackAt := s.now().UTC()
		if err := s.repo.Acknowledge(ctx, poNumber, ackAt); err != nil {
			return nil, err
		}
		o.AcknowledgementDate = &ackAt
	}

	if err := s.perf.OrderSaved(ctx, performanceView(o), false); err != nil {
		return nil, fmt.Errorf("recompute vendor metrics: %w", err)
	}
	return s.repo.GetByNumber(ctx, poNumber)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func validateOrder(o *PurchaseOrder) error {
	if o.PONumber == "" {
		return fmt.Errorf("%w: po_number is required", ErrInvalid)
	}
	if o.VendorCode == "" {
		return fmt.Errorf("%w: vendor_code is required", ErrInvalid)
	}
	if o.OrderDate.IsZero() || o.DeliveryDate.IsZero() || o.IssueDate.IsZero() {
		return fmt.Errorf("%w: order_date, delivery_date and issue_date are required", ErrInvalid)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be > 0", ErrInvalid)
	}
	if !ValidStatus(o.Status) {
		return fmt.Errorf("%w: status must be PENDING, COMPLETED or CANCELED", ErrInvalid)
	}
	if o.QualityRating != nil && (*o.QualityRating < 0 || *o.QualityRating > 5) {
		return fmt.Errorf("%w: quality_rating must be between 0.0 and 5.0", ErrInvalid)
	}
	if len(o.Items) > 0 && !json.Valid(o.Items) {
		return fmt.Errorf("%w: items must be valid JSON", ErrInvalid)
	}
	return nil
}

func performanceView(o *PurchaseOrder) performance.Order {
	return performance.Order{
		PONumber:            o.PONumber,
		VendorCode:          o.VendorCode,
		Status:              string(o.Status),
		DeliveryDate:        o.DeliveryDate,
		IssueDate:           o.IssueDate,
		AcknowledgementDate: o.AcknowledgementDate,
		CompletionDate:      o.CompletionDate,
		QualityRating:       o.QualityRating,
	}
}
