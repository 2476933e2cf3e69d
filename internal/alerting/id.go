package alerting

import "github.com/google/uuid"

// newCorrelationID returns a fresh identifier linking an alert to the
// evaluation that produced it.
func newCorrelationID() string {
	return uuid.NewString()
}
