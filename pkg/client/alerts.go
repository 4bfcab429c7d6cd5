package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// AlertService handles alert review API calls
type AlertService struct {
	client *Client
}

// AlertListOptions contains options for listing alerts
type AlertListOptions struct {
	ListOptions
	ThreatType    string
	EntityID      string
	Outcome       string
	MinConfidence float64
}

// List retrieves a page of alerts
func (s *AlertService) List(ctx context.Context, opts *AlertListOptions) (*Paginated[Alert], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.ThreatType != "" {
			query.Set("threat_type", opts.ThreatType)
		}
		if opts.EntityID != "" {
			query.Set("entity_id", opts.EntityID)
		}
		if opts.Outcome != "" {
			query.Set("outcome", opts.Outcome)
		}
		if opts.MinConfidence > 0 {
			query.Set("min_confidence", strconv.FormatFloat(opts.MinConfidence, 'f', -1, 64))
		}
	}

	path := "/api/v1/alerts"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Paginated[Alert]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single alert
func (s *AlertService) Get(ctx context.Context, id string) (*Alert, error) {
	var a Alert
	if err := s.client.doRequest(ctx, "GET", "/api/v1/alerts/"+id, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Resolve records the review outcome for an alert
func (s *AlertService) Resolve(ctx context.Context, id, outcome string) error {
	body := map[string]string{"outcome": outcome}
	return s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/alerts/%s/outcome", id), body, nil)
}

// Summary returns alert counts grouped by outcome
func (s *AlertService) Summary(ctx context.Context) (map[string]int, error) {
	var counts map[string]int
	if err := s.client.doRequest(ctx, "GET", "/api/v1/alerts/summary", nil, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}
