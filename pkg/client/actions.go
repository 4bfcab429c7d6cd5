package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ActionService handles action approval API calls
type ActionService struct {
	client *Client
}

// ActionListOptions contains options for listing actions
type ActionListOptions struct {
	ListOptions
	AlertID      string
	Kind         string
	Status       string
	TargetEntity string
}

// List retrieves a page of actions
func (s *ActionService) List(ctx context.Context, opts *ActionListOptions) (*Paginated[Action], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.AlertID != "" {
			query.Set("alert_id", opts.AlertID)
		}
		if opts.Kind != "" {
			query.Set("kind", opts.Kind)
		}
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
		if opts.TargetEntity != "" {
			query.Set("target_entity", opts.TargetEntity)
		}
	}

	path := "/api/v1/actions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Paginated[Action]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single action
func (s *ActionService) Get(ctx context.Context, id string) (*Action, error) {
	var a Action
	if err := s.client.doRequest(ctx, "GET", "/api/v1/actions/"+id, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Approve executes an escalated action
func (s *ActionService) Approve(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/actions/%s/approve", id), nil, nil)
}

// Reject terminally declines an escalated action
func (s *ActionService) Reject(ctx context.Context, id, reason string) error {
	body := map[string]string{"reason": reason}
	return s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/actions/%s/reject", id), body, nil)
}

// Rollback reverses an executed action
func (s *ActionService) Rollback(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/actions/%s/rollback", id), nil, nil)
}

// Summary returns action counts grouped by status
func (s *ActionService) Summary(ctx context.Context) (map[string]int, error) {
	var counts map[string]int
	if err := s.client.doRequest(ctx, "GET", "/api/v1/actions/summary", nil, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}
