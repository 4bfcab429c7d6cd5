package client

import "context"

// EventService handles event ingestion
type EventService struct {
	client *Client
}

// Ingest submits a batch of events for evaluation
func (s *EventService) Ingest(ctx context.Context, events []Event) (int, error) {
	body := map[string]interface{}{"events": events}

	var resp struct {
		Accepted int `json:"accepted"`
	}
	if err := s.client.doRequest(ctx, "POST", "/api/v1/events", body, &resp); err != nil {
		return 0, err
	}
	return resp.Accepted, nil
}
