package dto

// TripBreakerRequest carries the operator's reason for disabling
// automatic execution
type TripBreakerRequest struct {
	Reason string `json:"reason" validate:"required"`
}
