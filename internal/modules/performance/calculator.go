package performance

import "math"

const secondsPerDay = 86400

// The calculators are pure functions over an order snapshot taken at the
// moment of the triggering save. Empty aggregates compute to 0 by contract,
// never an error: a vendor with no (qualifying) orders simply has no track
// record yet.

// AverageResponseTime is the mean of (acknowledgement - issue) across the
// vendor's COMPLETED orders that carry an acknowledgement date, expressed in
// days and rounded to 2 decimal places.
func AverageResponseTime(orders []Order) float64 {
	var totalSeconds float64
	var n int
	for _, o := range orders {
		if o.Status != StatusCompleted || o.AcknowledgementDate == nil {
			continue
		}
		totalSeconds += o.AcknowledgementDate.Sub(o.IssueDate).Seconds()
		n++
	}
	if n == 0 {
		return 0
	}
	return round2(totalSeconds / float64(n) / secondsPerDay)
}

// OnTimeDeliveryRate is the fraction of COMPLETED orders whose completion
// timestamp is on or before their own promised delivery date.
func OnTimeDeliveryRate(orders []Order) float64 {
	var completed, onTime int
	for _, o := range orders {
		if o.Status != StatusCompleted {
			continue
		}
		completed++
		if o.CompletionDate != nil && !o.CompletionDate.After(o.DeliveryDate) {
			onTime++
		}
	}
	if completed == 0 {
		return 0
	}
	return float64(onTime) / float64(completed)
}

// QualityRatingAverage is the mean quality rating across ALL of the vendor's
// orders regardless of status. Orders without a rating are excluded from
// both numerator and denominator.
func QualityRatingAverage(orders []Order) float64 {
	var total float64
	var n int
	for _, o := range orders {
		if o.QualityRating == nil {
			continue
		}
		total += *o.QualityRating
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// FulfillmentRate is the fraction of the vendor's orders that reached
// COMPLETED status.
func FulfillmentRate(orders []Order) float64 {
	if len(orders) == 0 {
		return 0
	}
	var completed int
	for _, o := range orders {
		if o.Status == StatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(orders))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
