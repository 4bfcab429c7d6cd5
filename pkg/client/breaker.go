package client

import "context"

// BreakerService handles circuit breaker API calls
type BreakerService struct {
	client *Client
}

// Get returns the current breaker state
func (s *BreakerService) Get(ctx context.Context) (*BreakerState, error) {
	var state BreakerState
	if err := s.client.doRequest(ctx, "GET", "/api/v1/breaker", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Trip disables automatic execution (admin only)
func (s *BreakerService) Trip(ctx context.Context, reason string) (*BreakerState, error) {
	body := map[string]string{"reason": reason}
	var state BreakerState
	if err := s.client.doRequest(ctx, "POST", "/api/v1/breaker/trip", body, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Reset re-enables automatic execution (admin only). Fails while either
// health ratio remains above its threshold.
func (s *BreakerService) Reset(ctx context.Context) (*BreakerState, error) {
	var state BreakerState
	if err := s.client.doRequest(ctx, "POST", "/api/v1/breaker/reset", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
