package performance

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// StatusCompleted is the purchase-order status that triggers a full
// metric recomputation.
const StatusCompleted = "COMPLETED"

// ErrVendorNotFound is returned when history is requested for an unknown vendor.
var ErrVendorNotFound = errors.New("vendor not found")

// Order is the engine's view of a purchase order. Only the fields the
// calculators read are carried; the order module owns the full record.
type Order struct {
	PONumber            string
	VendorCode          string
	Status              string
	DeliveryDate        time.Time
	IssueDate           time.Time
	AcknowledgementDate *time.Time
	CompletionDate      *time.Time
	QualityRating       *float64
}

// Metrics holds the four derived performance values for a vendor.
type Metrics struct {
	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate"`
	QualityRatingAvg    float64 `json:"quality_rating_avg"`
	AverageResponseTime float64 `json:"average_response_time"`
	FulfillmentRate     float64 `json:"fulfillment_rate"`
}

// Snapshot is one historical performance record: the four metrics as they
// stood at RecordedAt.
type Snapshot struct {
	ID         uuid.UUID `json:"id"`
	VendorCode string    `json:"vendor_code"`
	RecordedAt time.Time `json:"recorded_at"`
	Metrics
}
