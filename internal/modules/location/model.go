// README: Driver location sample; only the newest sample per driver is live.
package location

import (
	"time"

	"rideloop/internal/types"
)

// Sample is one position report from a driver. ObservedAt is the moment the
// device observed the position, not when the server stored it.
type Sample struct {
	DriverID   types.ID    `json:"driver_id"`
	Point      types.Point `json:"point"`
	ObservedAt time.Time   `json:"observed_at"`
}
