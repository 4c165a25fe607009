package order

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a purchase order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCanceled  Status = "CANCELED"
)

// ValidStatus reports whether s is one of the three known states.
func ValidStatus(s Status) bool {
	return s == StatusPending || s == StatusCompleted || s == StatusCanceled
}

// PurchaseOrder represents an order issued to a vendor. PO numbers are
// externally assigned and serve as the primary key.
type PurchaseOrder struct {
	PONumber            string          `json:"po_number"`
	VendorCode          string          `json:"vendor_code"`
	OrderDate           time.Time       `json:"order_date"`
	DeliveryDate        time.Time       `json:"delivery_date"`
	IssueDate           time.Time       `json:"issue_date"`
	AcknowledgementDate *time.Time      `json:"acknowledgement_date,omitempty"`
	CompletionDate      *time.Time      `json:"completion_date,omitempty"`
	Quantity            int             `json:"quantity"`
	Items               json.RawMessage `json:"items"`
	QualityRating       *float64        `json:"quality_rating,omitempty"`
	Status              Status          `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// CreateOrderRequest is the payload for issuing a new purchase order.
type CreateOrderRequest struct {
	PONumber      string          `json:"po_number"`
	VendorCode    string          `json:"vendor_code"`
	OrderDate     time.Time       `json:"order_date"`
	DeliveryDate  time.Time       `json:"delivery_date"`
	IssueDate     time.Time       `json:"issue_date"`
	Quantity      int             `json:"quantity"`
	Items         json.RawMessage `json:"items,omitempty"`
	QualityRating *float64        `json:"quality_rating,omitempty"`
	Status        string          `json:"status,omitempty"`
}

// UpdateOrderRequest is the payload for a full purchase-order update.
// Acknowledgement and completion dates are action/engine owned: a client
// value can fill an unset acknowledgement date but never change or clear
// one, and completion_date submissions are ignored outright.
type UpdateOrderRequest struct {
	VendorCode          string          `json:"vendor_code"`
	OrderDate           time.Time       `json:"order_date"`
	DeliveryDate        time.Time       `json:"delivery_date"`
	IssueDate           time.Time       `json:"issue_date"`
	AcknowledgementDate *time.Time      `json:"acknowledgement_date,omitempty"`
	Quantity            int             `json:"quantity"`
	Items               json.RawMessage `json:"items,omitempty"`
	QualityRating       *float64        `json:"quality_rating,omitempty"`
	Status              string          `json:"status"`
}
