package model

import "time"

// DeliveryResult is the terminal result of a shipment lifecycle.
type DeliveryResult int

const (
	ResultDelivered DeliveryResult = iota
	ResultFailed
	ResultReturned
)

func (r DeliveryResult) String() string {
	switch r {
	case ResultDelivered:
		return "Delivered"
	case ResultFailed:
		return "Failed"
	case ResultReturned:
		return "Returned"
	default:
		return "unknown"
	}
}

// ParseDeliveryResult converts a textual delivery result.
func ParseDeliveryResult(s string) (DeliveryResult, bool) {
	switch s {
	case "Delivered", "DELIVERED", "delivered":
		return ResultDelivered, true
	case "Failed", "FAILED", "failed":
		return ResultFailed, true
	case "Returned", "RETURNED", "returned":
		return ResultReturned, true
	default:
		return 0, false
	}
}

// Outcome pairs a shipment's predicted decision with its eventual delivery
// result. One outcome is recorded per completed shipment lifecycle; the
// learning loop consumes them in daily batches.
type Outcome struct {
	ShipmentID        string
	PredictedDecision DecisionKind
	PredictedBucket   RiskBucket
	PredictedScore    int
	// Contributions snapshots the per-factor breakdown at decision time so
	// the learning loop can attribute failures to factors.
	Contributions map[Factor]int
	Result        DeliveryResult
	Overridden    bool
	RecordedAt    time.Time
}

// Failed reports whether the delivery did not complete successfully.
func (o Outcome) Failed() bool {
	return o.Result != ResultDelivered
}
